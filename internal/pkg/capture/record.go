package capture

import (
	"fmt"
	"time"

	"github.com/endorses/pcapview/internal/pkg/dissect"
)

// Record is one framed unit of a capture: a file or section header, an
// interface description, a packet, or a metadata block. Records are
// immutable once framing has finished.
type Record interface {
	// Index is the 0-based position of the record in the capture.
	Index() int
	// Offset is the absolute offset of the record's first byte.
	Offset() int
	// End is the absolute offset where the next record starts.
	End() int
	// Number is the 1-based packet number, or 0 for records that are not numbered.
	Number() int
	Comments() []string
	// Summary is the one-line description of the record itself.
	Summary() string
	// Fields describes the record's own layout.
	Fields() []*dissect.Field

	meta() *recordMeta
}

// Packet is a record that carries captured link-layer bytes.
type Packet interface {
	Record
	Data() dissect.Window
	LinkType() dissect.LinkType
	Timestamp() time.Time
	OriginalLength() int

	packet() *packetMeta
}

// recordMeta is what every record variant shares.
type recordMeta struct {
	index    int
	number   int
	offset   int
	end      int
	comments []string
}

func (m *recordMeta) Index() int         { return m.index }
func (m *recordMeta) Offset() int        { return m.offset }
func (m *recordMeta) End() int           { return m.end }
func (m *recordMeta) Number() int        { return m.number }
func (m *recordMeta) Comments() []string { return m.comments }
func (m *recordMeta) meta() *recordMeta  { return m }

func field(label, value string, off, n int, children ...*dissect.Field) *dissect.Field {
	return &dissect.Field{Label: label, Value: value, Offset: off, Length: n, Children: children}
}

// packetMeta is shared by every packet-carrying variant.
type packetMeta struct {
	data       dissect.Window
	link       dissect.LinkType
	ts         time.Time
	origLen    int
	iface      int
	ifaceLabel string
	hasIface   bool
}

func (p *packetMeta) Data() dissect.Window       { return p.data }
func (p *packetMeta) LinkType() dissect.LinkType { return p.link }
func (p *packetMeta) Timestamp() time.Time       { return p.ts }
func (p *packetMeta) OriginalLength() int        { return p.origLen }
func (p *packetMeta) packet() *packetMeta        { return p }

func (p *packetMeta) summary() string {
	return fmt.Sprintf("%d bytes on wire, %d bytes captured", p.origLen, p.data.Len())
}

// frameFields is the "Frame" node placed before the dissected layers.
func (p *packetMeta) frameFields(m *recordMeta, headerLen int) *dissect.Field {
	f := field(fmt.Sprintf("Frame %d", m.number), p.summary(), m.offset, m.end-m.offset,
		field("Arrival Time", p.ts.UTC().Format(time.RFC3339Nano), m.offset, headerLen),
	)
	if p.hasIface {
		f.Add(field("Interface ID", fmt.Sprint(p.iface), m.offset, headerLen))
	}
	f.Add(
		field("Link Type", linkTypeName(p.link), m.offset, headerLen),
		field("Frame Length", fmt.Sprintf("%d bytes", p.origLen), m.offset, headerLen),
		field("Capture Length", fmt.Sprintf("%d bytes", p.data.Len()), p.data.Offset(), p.data.Len()),
	)
	return f
}

func linkTypeName(t dissect.LinkType) string {
	return fmt.Sprintf("%s (%d)", t, uint16(t))
}
