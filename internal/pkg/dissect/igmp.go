package dissect

import (
	"fmt"
	"strings"
)

const (
	igmpHeaderLen = 8

	igmpQuery    = 0x11
	igmpReportV1 = 0x12
	igmpReportV2 = 0x16
	igmpLeave    = 0x17
	igmpReportV3 = 0x22
)

var igmpTypes = map[uint8]string{
	igmpQuery:    "Membership Query",
	igmpReportV1: "Membership Report",
	igmpReportV2: "Membership Report",
	igmpLeave:    "Leave Group",
	igmpReportV3: "Membership Report",
	// RGMP shares the IGMP protocol number.
	0xff: "Hello",
	0xfe: "Bye",
	0xfd: "Join a group",
	0xfc: "Leave a group",
}

var groupRecordTypes = []string{
	"",
	"Mode is Include",
	"Mode is Exclude",
	"Change to Include mode",
	"Change to Exclude mode",
	"Allow new sources",
	"Block old sources",
}

// igmpTime decodes the max response time and QQIC floating point encoding.
func igmpTime(v uint8) int {
	if v < 128 {
		return int(v)
	}
	mant := int(v & 0x0f)
	exp := int(v>>4) & 0x07
	return (mant | 0x10) << (exp + 3)
}

// GroupRecord is one IGMPv3 report record.
type GroupRecord struct {
	Type      uint8
	AuxLen    uint8
	Multicast string
	Sources   []string

	offset int
	length int
}

func (g GroupRecord) typeName() string {
	if int(g.Type) < len(groupRecordTypes) {
		return groupRecordTypes[g.Type]
	}
	return "Unknown"
}

func (g GroupRecord) String() string {
	action := "Group"
	switch g.Type {
	case 1, 2, 4:
		action = "Join group"
	}
	if len(g.Sources) == 0 {
		return fmt.Sprintf("%s %s, any sources", action, g.Multicast)
	}
	return fmt.Sprintf("%s %s, new source {%s}", action, g.Multicast, strings.Join(g.Sources, ", "))
}

// IGMP is an IGMP v1/v2/v3 or RGMP message.
type IGMP struct {
	base
	Type       uint8
	MaxResp    uint8
	Checksum   uint16
	Group      string
	Suppress   bool
	QRV        uint8
	QQIC       uint8
	NumSources uint16
	Sources    []string
	NumRecords uint16
	Records    []GroupRecord
}

func newIGMP(d *decoder, w Window) (Dissector, error) {
	if err := need(w, igmpHeaderLen, "IGMP"); err != nil {
		return nil, err
	}
	g := &IGMP{
		base:     base{win: w, hdr: w.Len()},
		Type:     w.U8(0),
		MaxResp:  w.U8(1),
		Checksum: w.U16(2),
		Group:    ipv4(w, 4),
	}
	switch g.Type {
	case igmpQuery:
		if w.Len() >= 9 {
			g.Suppress = w.U8(8)>>3&0x01 != 0
			g.QRV = w.U8(8) & 0x07
		}
		if w.Len() >= 10 {
			g.QQIC = w.U8(9)
		}
		if w.Len() >= 12 {
			g.NumSources = w.U16(10)
		}
		for i := 0; i < int(g.NumSources) && w.Has(12+i*4, 4); i++ {
			g.Sources = append(g.Sources, ipv4(w, 12+i*4))
		}
	case igmpReportV3:
		g.NumRecords = w.U16(6)
		g.Records = igmpRecords(w, int(g.NumRecords))
	}
	d.protocol("IGMP")
	return g, nil
}

func igmpRecords(w Window, n int) []GroupRecord {
	var out []GroupRecord
	off := igmpHeaderLen
	for i := 0; i < n && w.Has(off, 8); i++ {
		r := GroupRecord{
			Type:      w.U8(off),
			AuxLen:    w.U8(off + 1),
			Multicast: ipv4(w, off+4),
			offset:    off,
		}
		nsrc := int(w.U16(off + 2))
		for j := 0; j < nsrc && w.Has(off+8+j*4, 4); j++ {
			r.Sources = append(r.Sources, ipv4(w, off+8+j*4))
		}
		r.length = 8 + int(r.AuxLen)*4 + nsrc*4
		out = append(out, r)
		off += r.length
	}
	return out
}

func (g *IGMP) rgmp() bool { return g.Type >= 0xfc }

// Version infers the protocol version from the message type and, for
// queries, from the presence of v3 fields.
func (g *IGMP) Version() int {
	switch g.Type {
	case igmpQuery:
		if g.Suppress || g.QRV != 0 || g.QQIC != 0 || g.NumSources != 0 {
			return 3
		}
		return 1
	case igmpReportV1:
		return 1
	case igmpReportV3:
		return 3
	default:
		return 2
	}
}

func (g *IGMP) typeName() string {
	if n, ok := igmpTypes[g.Type]; ok {
		return n
	}
	return fmt.Sprintf("Invalid Type 0x%02x", g.Type)
}

func (g *IGMP) Summary() string {
	if g.rgmp() {
		return "RGMP " + g.typeName()
	}
	s := fmt.Sprintf("IGMPv%d %s", g.Version(), g.typeName())
	switch g.Type {
	case igmpReportV3:
		for _, r := range g.Records {
			s += " / " + r.String()
		}
	case igmpQuery:
		if g.Group == "0.0.0.0" {
			return s + ", general"
		}
		return s + " for " + g.Group
	case igmpReportV2:
		return s + " group " + g.Group
	}
	return s
}

func (g *IGMP) Fields() []*Field {
	w := g.win
	label := "Internet Group Management Protocol"
	if g.rgmp() {
		label = "Router-port Group Management Protocol"
	}
	root := w.node(label, "", 0, w.Len(),
		w.field("Type", fmt.Sprintf("%s (0x%02x)", g.typeName(), g.Type), 0, 1))
	if g.Type == igmpQuery {
		t := igmpTime(g.MaxResp)
		root.Add(w.field("Max Resp Time", fmt.Sprintf("%g sec (0x%02x)", float64(t)/10.0, t), 1, 1))
	}
	root.Add(w.field("Checksum", hex16(g.Checksum), 2, 2))
	if g.Type != igmpReportV3 {
		root.Add(w.field("Multicast Address", g.Group, 4, 4))
	} else {
		root.Add(w.field("Number of Group Records", fmt.Sprint(g.NumRecords), 6, 2))
		for _, r := range g.Records {
			rec := w.node("Group Record", fmt.Sprintf("%s, %s", r.Multicast, r.typeName()), r.offset, 8+len(r.Sources)*4,
				w.field("Record Type", fmt.Sprintf("%s (%d)", r.typeName(), r.Type), r.offset, 1),
				w.field("Multicast Address", r.Multicast, r.offset+4, 4),
			)
			if len(r.Sources) > 0 {
				rec.Add(sourceList(w, r.offset+2, r.offset+8, r.Sources))
			}
			root.Add(rec)
		}
	}
	if g.Type == igmpQuery && g.Version() == 3 {
		root.Add(
			w.field("Suppress Router Side Processing", fmt.Sprint(g.Suppress), 8, 1),
			w.field("Querier's Robustness Value (QRV)", fmt.Sprint(g.QRV), 8, 1),
			w.field("Querier's Query Interval (QQIC)", fmt.Sprintf("%d sec", igmpTime(g.QQIC)), 9, 1),
		)
		if len(g.Sources) > 0 {
			root.Add(sourceList(w, 10, 12, g.Sources))
		}
	}
	return []*Field{root}
}

func sourceList(w Window, countAt, first int, sources []string) *Field {
	n := w.node("Sources", fmt.Sprint(len(sources)), countAt, 2)
	for i, s := range sources {
		n.Add(w.field("Source Address", s, first+i*4, 4))
	}
	return n
}
