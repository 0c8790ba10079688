package dissect

import "fmt"

const udpHeaderLen = 8

// UDP is a UDP datagram header.
type UDP struct {
	base
	SrcPort  uint16
	DstPort  uint16
	Length   uint16
	Checksum uint16
}

func newUDP(d *decoder, w Window) (Dissector, error) {
	if err := need(w, udpHeaderLen, "UDP"); err != nil {
		return nil, err
	}
	d.protocol("UDP")
	u := &UDP{
		base:     base{win: w, hdr: udpHeaderLen},
		SrcPort:  w.U16(0),
		DstPort:  w.U16(2),
		Length:   w.U16(4),
		Checksum: w.U16(6),
	}
	payload := w.From(udpHeaderLen)
	if e, ok := matchPort(udpPorts, u.SrcPort, u.DstPort); ok {
		u.inner = d.build(e, payload)
	} else {
		u.inner = newGeneric(payload)
	}
	return u, nil
}

func (u *UDP) Summary() string {
	return fmt.Sprintf("UDP %d > %d, %s", u.SrcPort, u.DstPort, u.innerSummary())
}

func (u *UDP) Fields() []*Field {
	w := u.win
	root := w.node("User Datagram Protocol", "", 0, udpHeaderLen,
		w.field("Source Port", fmt.Sprint(u.SrcPort), 0, 2),
		w.field("Destination Port", fmt.Sprint(u.DstPort), 2, 2),
		w.field("Length", fmt.Sprint(u.Length), 4, 2),
		w.field("Checksum", fmt.Sprintf("0x%x", u.Checksum), 6, 2),
	)
	return u.withInner(root)
}
