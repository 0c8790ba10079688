package capture

import (
	"fmt"
	"strings"
	"time"

	"github.com/endorses/pcapview/internal/pkg/constants"
)

type timed interface {
	Timestamp() time.Time
}

// Summary is the record's one-line text without a timestamp: the dissected
// layers for a packet, the record's own summary otherwise.
func (c *Context) Summary(rec Record) string {
	if p, ok := rec.(Packet); ok {
		return c.Dissect(p).Summary()
	}
	return rec.Summary()
}

// Line is the record's display line: packet time, when known, followed by
// the summary.
func (c *Context) Line(rec Record) string {
	s := c.Summary(rec)
	t, ok := rec.(timed)
	if !ok || t.Timestamp().IsZero() {
		return s
	}
	layout := constants.TimeFormat
	if c.opts.FullTimestamp {
		layout = constants.FullTimeFormat
	}
	return t.Timestamp().UTC().Format(layout) + " " + s
}

// Export renders every record line joined by newlines, with trailing
// whitespace removed.
func (c *Context) Export() string {
	var b strings.Builder
	for _, rec := range c.records {
		b.WriteString(strings.TrimRight(c.Line(rec), " \t"))
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), " \t\r\n")
}

// HexRow is one row of a packet's hex dump. SelFrom and SelTo bound the
// selected byte columns of the row; they are equal when nothing on the row
// is selected.
type HexRow struct {
	Index   string
	Hex     string
	ASCII   string
	Offset  int
	SelFrom int
	SelTo   int
}

// HexDump renders the packet bytes in rows of constants.HexRowBytes. The
// selection is given in absolute buffer offsets; a zero length selects
// nothing.
func HexDump(p Packet, offset, length int) []HexRow {
	data := p.Data()
	b := data.Bytes()
	from, to := offset-data.Offset(), offset-data.Offset()+length
	if length <= 0 {
		from, to = 0, 0
	}
	var rows []HexRow
	for start := 0; start < len(b); start += constants.HexRowBytes {
		end := min(start+constants.HexRowBytes, len(b))
		row := HexRow{
			Index:  fmt.Sprintf("%04x", start),
			Hex:    HexString(b[start:end]),
			ASCII:  ASCIIString(b[start:end]),
			Offset: data.Offset() + start,
		}
		if lo, hi := max(from, start), min(to, end); lo < hi {
			row.SelFrom, row.SelTo = lo-start, hi-start
		}
		rows = append(rows, row)
	}
	return rows
}

// HexString renders b as three characters per byte.
func HexString(b []byte) string {
	var s strings.Builder
	for _, c := range b {
		fmt.Fprintf(&s, "%02x ", c)
	}
	return s.String()
}

// ASCIIString renders b as one character per byte, with non-printable bytes
// shown as '.'.
func ASCIIString(b []byte) string {
	out := make([]byte, len(b))
	for i, c := range b {
		if c < 0x20 || c > 0x7e {
			c = '.'
		}
		out[i] = c
	}
	return string(out)
}
