package cmdutil

import (
	"fmt"
	"io"

	"github.com/endorses/pcapview/internal/pkg/capture"
	"github.com/endorses/pcapview/internal/pkg/output"
)

// OpenCapture reads and frames the capture at path with the display switches
// applied.
func OpenCapture(path string, d Display) (*capture.Context, error) {
	return capture.Open(path, d.CaptureOptions())
}

// ReportFrameError tells the user that c holds only the records before the
// first one that could not be framed.
func ReportFrameError(w io.Writer, c *capture.Context) {
	if err := c.FrameError(); err != nil {
		fmt.Fprintf(w, "Warning: framing stopped after %d records: %v\n", len(c.Records()), err)
	}
}

// WriteFormatted marshals v in format and writes it to w with a trailing newline.
func WriteFormatted(w io.Writer, format string, v any) error {
	data, err := output.Marshal(format, v)
	if err != nil {
		return err
	}
	if len(data) == 0 || data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}
	_, err = w.Write(data)
	return err
}

// CheckFormat rejects output formats the commands cannot produce.
func CheckFormat(format string) error {
	if !output.ValidFormat(format) {
		return fmt.Errorf("unsupported output format %q (want %s, %s or %s)",
			format, output.FormatText, output.FormatJSON, output.FormatYAML)
	}
	return nil
}
