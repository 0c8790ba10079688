// Package output provides utilities for consistent CLI output formatting.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// IsTTY returns true if stdout is connected to a terminal.
func IsTTY() bool {
	return IsTerminal(os.Stdout)
}

// IsTerminal reports whether w is a file connected to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// MarshalJSON marshals v to JSON with formatting based on TTY detection.
// When stdout is a TTY, output is pretty-printed with 2-space indentation.
// When piped or redirected, output is compact single-line JSON.
func MarshalJSON(v any) ([]byte, error) {
	return MarshalJSONPretty(v, IsTTY())
}

// MarshalJSONPretty marshals v to JSON with explicit formatting control.
func MarshalJSONPretty(v any, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

// MarshalYAML marshals v to YAML with 2-space indentation.
func MarshalYAML(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode yaml: %w", err)
	}
	return buf.Bytes(), nil
}

// Marshal encodes v in the named structured format.
func Marshal(format string, v any) ([]byte, error) {
	switch format {
	case FormatJSON:
		return MarshalJSON(v)
	case FormatYAML:
		return MarshalYAML(v)
	}
	return nil, fmt.Errorf("unsupported output format %q", format)
}

// ValidFormat reports whether format is text, json or yaml.
func ValidFormat(format string) bool {
	switch format {
	case FormatText, FormatJSON, FormatYAML:
		return true
	}
	return false
}
