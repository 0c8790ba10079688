package output

import (
	"github.com/endorses/pcapview/internal/pkg/capture"
	"github.com/endorses/pcapview/internal/pkg/dissect"
)

// CaptureView is the structured form of a whole capture.
type CaptureView struct {
	FileType   string       `json:"file_type" yaml:"file_type"`
	Records    []RecordView `json:"records" yaml:"records"`
	Packets    int          `json:"packets" yaml:"packets"`
	FrameError string       `json:"frame_error,omitempty" yaml:"frame_error,omitempty"`
}

// RecordView is one record with its display line and, when requested, its
// field tree.
type RecordView struct {
	Index    int         `json:"index" yaml:"index"`
	Number   int         `json:"number,omitempty" yaml:"number,omitempty"`
	Offset   int         `json:"offset" yaml:"offset"`
	Length   int         `json:"length" yaml:"length"`
	Line     string      `json:"line" yaml:"line"`
	Comments []string    `json:"comments,omitempty" yaml:"comments,omitempty"`
	Fields   []FieldView `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// FieldView mirrors dissect.Field.
type FieldView struct {
	Label    string      `json:"label" yaml:"label"`
	Value    string      `json:"value,omitempty" yaml:"value,omitempty"`
	Offset   int         `json:"offset" yaml:"offset"`
	Length   int         `json:"length" yaml:"length"`
	Children []FieldView `json:"children,omitempty" yaml:"children,omitempty"`
}

// IndexView is one key of a protocol, address or interface index. Packets
// lists packet numbers without repeats.
type IndexView struct {
	Key     string `json:"key" yaml:"key"`
	Count   int    `json:"count" yaml:"count"`
	Packets []int  `json:"packets" yaml:"packets"`
}

// AddressGroupView is one address family of the address index.
type AddressGroupView struct {
	Name    string      `json:"name" yaml:"name"`
	Entries []IndexView `json:"entries" yaml:"entries"`
}

// NewCaptureView describes c. Field trees are included when withFields is set.
func NewCaptureView(c *capture.Context, withFields bool) CaptureView {
	v := CaptureView{
		FileType: c.FileType().String(),
		Records:  make([]RecordView, 0, len(c.Records())),
		Packets:  c.PacketCount(),
	}
	if err := c.FrameError(); err != nil {
		v.FrameError = err.Error()
	}
	for _, rec := range c.Records() {
		v.Records = append(v.Records, NewRecordView(c, rec, withFields))
	}
	return v
}

// NewRecordView describes one record of c.
func NewRecordView(c *capture.Context, rec capture.Record, withFields bool) RecordView {
	v := RecordView{
		Index:    rec.Index(),
		Number:   rec.Number(),
		Offset:   rec.Offset(),
		Length:   rec.End() - rec.Offset(),
		Line:     c.Line(rec),
		Comments: rec.Comments(),
	}
	if withFields {
		v.Fields = NewFieldViews(c.Fields(rec))
	}
	return v
}

// NewFieldViews converts a field tree.
func NewFieldViews(fields []*dissect.Field) []FieldView {
	if len(fields) == 0 {
		return nil
	}
	out := make([]FieldView, 0, len(fields))
	for _, f := range fields {
		out = append(out, FieldView{
			Label:    f.Label,
			Value:    f.Value,
			Offset:   f.Offset,
			Length:   f.Length,
			Children: NewFieldViews(f.Children),
		})
	}
	return out
}

// NewIndexViews converts index entries.
func NewIndexViews(entries []capture.IndexEntry) []IndexView {
	out := make([]IndexView, 0, len(entries))
	for _, e := range entries {
		out = append(out, IndexView{Key: e.Key, Count: e.Count(), Packets: packetNumbers(e.Records)})
	}
	return out
}

// NewAddressGroupViews converts the grouped address index.
func NewAddressGroupViews(groups []capture.AddressGroup) []AddressGroupView {
	out := make([]AddressGroupView, 0, len(groups))
	for _, g := range groups {
		out = append(out, AddressGroupView{Name: g.Name, Entries: NewIndexViews(g.Entries)})
	}
	return out
}

func packetNumbers(recs []capture.Record) []int {
	out := make([]int, 0, len(recs))
	last := -1
	for _, r := range recs {
		if r.Index() == last {
			continue
		}
		last = r.Index()
		out = append(out, r.Number())
	}
	return out
}
