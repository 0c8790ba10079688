package dissect

import "fmt"

const sll2HeaderLen = 20

var sll2PacketTypes = []struct {
	tag  string
	text string
}{
	{"(Us)", "Unicast to us (0)"},
	{"(Bc)", "Broadcast (1)"},
	{"(Mc)", "Multicast (2)"},
	{"(So)", "To and from someone else (3)"},
	{"(Out)", "Sent by us (4)"},
}

// SLL2 is a Linux cooked capture v2 header.
type SLL2 struct {
	base
	Protocol       uint16
	InterfaceIndex uint32
	ARPHRDType     uint16
	PacketType     uint8
	Address        string
	addrLen        int
}

func newSLL2(d *decoder, w Window) (Dissector, error) {
	if err := need(w, sll2HeaderLen, "SLL2"); err != nil {
		return nil, err
	}
	n := int(w.U8(11))
	if n > 8 {
		n = 8
	}
	s := &SLL2{
		base:           base{win: w, hdr: sll2HeaderLen},
		Protocol:       w.U16(0),
		InterfaceIndex: w.U32(4),
		ARPHRDType:     w.U16(8),
		PacketType:     w.U8(10),
		Address:        mac(w.Range(12, n), false),
		addrLen:        n,
	}
	payload := w.From(sll2HeaderLen)
	switch s.ARPHRDType {
	case 1, 772:
		s.inner = d.etherPayload(s.Protocol, payload)
	default:
		s.inner = newGeneric(payload)
	}
	return s, nil
}

func (s *SLL2) Summary() string {
	prefix := ""
	if int(s.PacketType) < len(sll2PacketTypes) {
		prefix = fmt.Sprintf("%s > %s ", s.Address, sll2PacketTypes[s.PacketType].tag)
	}
	return fmt.Sprintf("%s(%s) %s", prefix, hex16(s.Protocol), s.innerSummary())
}

func (s *SLL2) Fields() []*Field {
	w := s.win
	pt := ""
	if int(s.PacketType) < len(sll2PacketTypes) {
		pt = sll2PacketTypes[s.PacketType].text
	}
	root := w.node("Linux cooked capture v2", "", 0, sll2HeaderLen,
		w.field("Protocol", fmt.Sprintf("%s (0x%x)", etherTypeName(s.Protocol), s.Protocol), 0, 2),
		w.field("Interface index", fmt.Sprint(s.InterfaceIndex), 4, 4),
		w.field("Link-layer address type", fmt.Sprint(s.ARPHRDType), 8, 2),
		w.field("Packet type", pt, 10, 1),
		w.field("Link-layer address length", fmt.Sprint(w.U8(11)), 11, 1),
		w.field("Link-layer address", s.Address, 12, s.addrLen),
	)
	return s.withInner(root)
}
