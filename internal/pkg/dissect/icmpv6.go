package dissect

import (
	"fmt"
	"strings"
)

const (
	icmpv6HeaderLen = 4
	ndpTargetOffset = 8
	ndpOptionOffset = 24
)

var icmpv6Types = map[uint8]string{
	1:   "Destination Unreachable",
	2:   "Packet Too Big",
	3:   "Time Exceeded",
	4:   "Parameter Problem",
	128: "Echo Request",
	129: "Echo Reply",
	133: "Router Solicitation",
	134: "Router Advertisement",
	135: "Neighbor Solicitation",
	136: "Neighbor Advertisement",
	137: "Redirect",
}

var icmpv6UnreachableCodes = []string{
	"No route to destination",
	"Communication with destination administratively prohibited",
	"Beyond scope of source address",
	"Address unreachable",
	"Port unreachable",
	"Source address failed ingress/egress policy",
	"Reject route to destination",
}

var icmpv6TimeExceededCodes = []string{
	"Hop limit exceeded in transit",
	"Fragment reassembly time exceeded",
}

var icmpv6ParameterCodes = []string{
	"Erroneous header field encountered",
	"Unrecognized Next Header type encountered",
	"Unrecognized IPv6 option encountered",
}

// ICMPv6 is an ICMPv6 message. Error messages carry the invoking packet,
// which is decoded for display without contributing observations.
type ICMPv6 struct {
	base
	Type     uint8
	Code     uint8
	Checksum uint16

	invoking Dissector
}

func newICMPv6(d *decoder, w Window) (Dissector, error) {
	if err := need(w, icmpv6HeaderLen, "ICMPv6"); err != nil {
		return nil, err
	}
	m := &ICMPv6{
		base:     base{win: w, hdr: w.Len()},
		Type:     w.U8(0),
		Code:     w.U8(1),
		Checksum: w.U16(2),
	}
	if m.Type < 128 && w.Len() > 8 {
		quiet := &decoder{obs: Discard, opts: d.opts}
		m.invoking = quiet.build(entry{"IPv6", newIPv6}, w.From(8))
	}
	d.protocol("ICMPv6")
	return m, nil
}

func (m *ICMPv6) isError() bool { return m.Type < 128 }

func (m *ICMPv6) codeMessage() (string, bool) {
	switch m.Type {
	case 1:
		return codeName(icmpv6UnreachableCodes, m.Code), true
	case 3:
		return codeName(icmpv6TimeExceededCodes, m.Code), true
	case 4:
		return codeName(icmpv6ParameterCodes, m.Code), true
	}
	return "", false
}

// linkLayerOption returns the MAC carried by a source/target link-layer
// address option directly after the target address.
func (m *ICMPv6) linkLayerOption() (string, bool) {
	if !m.win.Has(ndpOptionOffset, 8) {
		return "", false
	}
	return mac(m.win.Range(ndpOptionOffset+2, 6), false), true
}

// NeighborFlags returns the router, solicited and override bits of a
// neighbor advertisement.
func (m *ICMPv6) NeighborFlags() (router, solicited, override bool) {
	b := m.win.U8(4)
	return b&0x80 != 0, b&0x40 != 0, b&0x20 != 0
}

func joinFlags(names []string, set []bool) string {
	var out []string
	for i, ok := range set {
		if ok {
			out = append(out, names[i])
		}
	}
	return strings.Join(out, ", ")
}

func (m *ICMPv6) message() string {
	w := m.win
	code, _ := m.codeMessage()
	switch m.Type {
	case 1, 3, 4:
		return fmt.Sprintf("%s Error: %s", icmpv6Types[m.Type], code)
	case 2:
		return "Packet Too Big Error"
	case 128, 129:
		data := make([]string, 0, w.Len())
		for _, b := range w.Range(8, w.Len()-8) {
			data = append(data, fmt.Sprintf("%02x", b))
		}
		return fmt.Sprintf("%s, Identifier: %d Sequence Num: %d Data: %s", icmpv6Types[m.Type], w.U16(4), w.U16(6), strings.Join(data, " "))
	case 135:
		s := "Neighbor Solicitation for " + ipv6(w, ndpTargetOffset)
		if hw, ok := m.linkLayerOption(); ok {
			s += " from " + hw
		}
		return s
	case 136:
		r, sol, o := m.NeighborFlags()
		s := fmt.Sprintf("Neighbor Advertisement %s (%s)", ipv6(w, ndpTargetOffset),
			joinFlags([]string{"res", "sol", "ovr"}, []bool{r, sol, o}))
		if hw, ok := m.linkLayerOption(); ok {
			s += " is at " + hw
		}
		return s
	}
	if name, ok := icmpv6Types[m.Type]; ok {
		return name
	}
	if m.isError() {
		return fmt.Sprintf("Unknown Error Message (%d)", m.Type)
	}
	return fmt.Sprintf("Unknown Info Message (%d)", m.Type)
}

func (m *ICMPv6) Summary() string {
	return "ICMPv6 " + m.message() + " "
}

func (m *ICMPv6) Fields() []*Field {
	w := m.win
	name, ok := icmpv6Types[m.Type]
	if !ok {
		name = "Unknown"
	}
	root := w.node("Internet Control Message Protocol v6", "", 0, w.Len(),
		w.field("Type", fmt.Sprintf("%s (%d)", name, m.Type), 0, 1))
	if code, ok := m.codeMessage(); ok {
		root.Add(w.field("Code", fmt.Sprintf("%s (%d)", code, m.Code), 1, 1))
	} else {
		root.Add(w.field("Code", fmt.Sprint(m.Code), 1, 1))
	}
	root.Add(w.field("Checksum", fmt.Sprintf("0x%x", m.Checksum), 2, 2))

	switch m.Type {
	case 2:
		root.Add(w.field("MTU", fmt.Sprint(w.U32(4)), 4, 4))
	case 4:
		root.Add(w.field("Pointer", fmt.Sprint(w.U32(4)), 4, 4))
	case 128, 129:
		root.Add(
			w.field("Identifier", fmt.Sprintf("0x%x", w.U16(4)), 4, 2),
			w.field("Sequence", fmt.Sprint(w.U16(6)), 6, 2),
			w.field("Data", hexString(w.Range(8, w.Len()-8)), 8, w.Len()-8),
		)
	case 135:
		root.Add(
			w.field("Reserved", fmt.Sprintf("%08x", w.U32(4)), 4, 4),
			w.field("Target Address", ipv6(w, ndpTargetOffset), ndpTargetOffset, 16),
		)
		if hw, ok := m.linkLayerOption(); ok {
			root.Add(w.field("ICMPv6 Option", "Source link-layer address "+hw, ndpOptionOffset, 8))
		}
	case 136:
		r, sol, o := m.NeighborFlags()
		root.Add(
			w.field("Flags", joinFlags([]string{"Router", "Solicited", "Override"}, []bool{r, sol, o}), 4, 1),
			w.field("Reserved", fmt.Sprintf("%06x", w.U24(5)), 5, 3),
			w.field("Target Address", ipv6(w, ndpTargetOffset), ndpTargetOffset, 16),
		)
		if hw, ok := m.linkLayerOption(); ok {
			root.Add(w.field("ICMPv6 Option", "Target link-layer address "+hw, ndpOptionOffset, 8))
		}
	}
	if m.invoking != nil {
		inv := w.node("Invoking Packet", "", 8, w.Len()-8)
		inv.Children = m.invoking.Fields()
		root.Add(inv)
	}
	return []*Field{root}
}
