package dissect

import "fmt"

const icmpHeaderLen = 4

var icmpTypes = map[uint8]string{
	0:  "Echo Reply",
	3:  "Destination Unreachable",
	4:  "Source Quench",
	5:  "Redirect",
	8:  "Echo Request",
	11: "Time Exceeded",
	12: "Parameter Problem",
	13: "Timestamp",
	14: "Timestamp Reply",
	15: "Information Request",
	16: "Information Reply",
}

var icmpUnreachableCodes = []string{
	"Net unreachable",
	"Host unreachable",
	"Protocol unreachable",
	"Port unreachable",
	"Fragmentation needed and DF set",
	"Source route failed",
}

var icmpTimeExceededCodes = []string{
	"TTL expired in transit",
	"Fragment reassembly time exceeded",
}

var icmpParameterCodes = []string{
	"Pointer indicates error",
	"Missing required option",
	"Bad length",
}

func codeName(names []string, code uint8) string {
	if int(code) < len(names) {
		return names[code]
	}
	return "Unknown code"
}

// ICMP is an ICMPv4 message.
type ICMP struct {
	base
	Type     uint8
	Code     uint8
	Checksum uint16
}

func newICMP(d *decoder, w Window) (Dissector, error) {
	if err := need(w, icmpHeaderLen, "ICMP"); err != nil {
		return nil, err
	}
	d.protocol("ICMP")
	return &ICMP{
		base:     base{win: w, hdr: w.Len()},
		Type:     w.U8(0),
		Code:     w.U8(1),
		Checksum: w.U16(2),
	}, nil
}

func (m *ICMP) codeMessage() (string, bool) {
	switch m.Type {
	case 3:
		return codeName(icmpUnreachableCodes, m.Code), true
	case 11:
		return codeName(icmpTimeExceededCodes, m.Code), true
	case 12:
		return codeName(icmpParameterCodes, m.Code), true
	}
	return "", false
}

func (m *ICMP) message() string {
	w := m.win
	code, _ := m.codeMessage()
	switch m.Type {
	case 0, 8, 15, 16:
		return fmt.Sprintf("%s, Identifier: %d, Sequence: %d", icmpTypes[m.Type], w.U16(4), w.U16(6))
	case 3, 11:
		return fmt.Sprintf("%s: %s", icmpTypes[m.Type], code)
	case 4, 5:
		return icmpTypes[m.Type]
	case 12:
		return fmt.Sprintf("Parameter Problem: %s, Pointer: %d", code, w.U8(4))
	case 13, 14:
		return fmt.Sprintf("%s: Originate: %d, Receive: %d, Transmit: %d", icmpTypes[m.Type], w.U32(4), w.U32(8), w.U32(12))
	default:
		return fmt.Sprintf("Unknown ICMP Type: %d, Code: %d", m.Type, m.Code)
	}
}

func (m *ICMP) Summary() string {
	return "ICMP " + m.message()
}

func (m *ICMP) Fields() []*Field {
	w := m.win
	name, ok := icmpTypes[m.Type]
	if !ok {
		name = "Unknown"
	}
	root := w.node("Internet Control Message Protocol", "", 0, w.Len(),
		w.field("Type", fmt.Sprintf("%s (%d)", name, m.Type), 0, 1))
	if code, ok := m.codeMessage(); ok {
		root.Add(w.field("Code", fmt.Sprintf("%s (%d)", code, m.Code), 1, 1))
	} else {
		root.Add(w.field("Code", fmt.Sprint(m.Code), 1, 1))
	}
	root.Add(w.field("Checksum", fmt.Sprintf("0x%x", m.Checksum), 2, 2))

	switch m.Type {
	case 0, 8, 15, 16:
		root.Add(
			w.field("Identifier", fmt.Sprint(w.U16(4)), 4, 2),
			w.field("Sequence", fmt.Sprint(w.U16(6)), 6, 2),
		)
		if w.Len() > 8 {
			root.Add(w.field("Data", hexString(w.Range(8, w.Len()-8)), 8, w.Len()-8))
		}
	case 5:
		root.Add(w.field("Gateway Address", ipv4(w, 4), 4, 4))
	case 12:
		root.Add(w.field("Pointer", fmt.Sprint(w.U8(4)), 4, 1))
	case 13, 14:
		root.Add(
			w.field("Originate Timestamp", fmt.Sprint(w.U32(4)), 4, 4),
			w.field("Receive Timestamp", fmt.Sprint(w.U32(8)), 8, 4),
			w.field("Transmit Timestamp", fmt.Sprint(w.U32(12)), 12, 4),
		)
	}
	switch m.Type {
	case 3, 4, 5, 11, 12:
		if w.Len() > 8 {
			root.Add(w.field("Original Data", hexString(w.Range(8, w.Len()-8)), 8, w.Len()-8))
		}
	}
	return []*Field{root}
}
