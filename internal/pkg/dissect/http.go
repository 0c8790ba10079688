package dissect

import (
	"bytes"
	"fmt"
	"strings"
)

var httpStartWords = map[string]bool{
	"HTTP/1.0": true,
	"HTTP/1.1": true,
	"OPTIONS":  true,
	"GET":      true,
	"HEAD":     true,
	"POST":     true,
	"PUT":      true,
	"DELETE":   true,
	"TRACE":    true,
	"CONNECT":  true,
	"PATCH":    true,
}

var crlf = []byte("\r\n")

// HTTP is an HTTP/1.x message head. Segments that do not start with a
// request or status line are continuation data and only get a summary.
type HTTP struct {
	base
	StartLine string
}

func newHTTP(d *decoder, w Window) (Dissector, error) {
	h := &HTTP{base: base{win: w, hdr: w.Len()}}
	first := w.Bytes()
	if i := bytes.Index(first, crlf); i >= 0 {
		first = first[:i]
	}
	word, _, _ := strings.Cut(string(first), " ")
	if httpStartWords[word] {
		h.StartLine = string(first)
	}
	d.protocol("HTTP")
	return h, nil
}

// IsResponse reports whether the start line is a status line.
func (h *HTTP) IsResponse() bool { return strings.HasPrefix(h.StartLine, "HTTP/") }

func (h *HTTP) Summary() string {
	if h.StartLine != "" {
		return h.StartLine
	}
	return "HTTP"
}

func (h *HTTP) Fields() []*Field {
	w := h.win
	root := w.node("Hypertext Transfer Protocol", "", 0, w.Len())
	if h.StartLine == "" {
		return []*Field{root.Add(w.field("Data", hexString(w.Bytes()), 0, w.Len()))}
	}
	start := w.node(h.StartLine, "", 0, len(h.StartLine))
	labels := []string{"Method", "URI", "Version"}
	if h.IsResponse() {
		labels = []string{"Version", "Status", "Reason"}
	}
	parts := strings.SplitN(h.StartLine, " ", 3)
	pos := 0
	for i, p := range parts {
		start.Add(w.field(labels[i], p, pos, len(p)))
		pos += len(p) + 1
	}
	root.Add(start)

	data := w.Bytes()
	pos = len(h.StartLine) + len(crlf)
	for pos < len(data) {
		line := data[pos:]
		end := bytes.Index(line, crlf)
		if end < 0 {
			end = len(line)
		}
		line = line[:end]
		if len(line) == 0 {
			pos += len(crlf)
			break
		}
		name, value, _ := strings.Cut(string(line), ":")
		root.Add(w.field(name, strings.TrimSpace(value), pos, len(line)))
		pos += end + len(crlf)
	}
	if pos < len(data) {
		root.Add(w.field("Body", fmt.Sprintf("%d bytes", len(data)-pos), pos, len(data)-pos))
	}
	return []*Field{root}
}
