package dissect

import (
	"fmt"
	"strings"
)

const tcpMinHeaderLen = 20

// TCP is a TCP segment header.
type TCP struct {
	base
	SrcPort    uint16
	DstPort    uint16
	Seq        uint32
	Ack        uint32
	DataOffset uint8
	Flags      uint8
	WindowSize uint16
	Checksum   uint16
	Urgent     uint16
	Options    []tlv
}

const (
	tcpFIN = 0x01
	tcpSYN = 0x02
	tcpRST = 0x04
	tcpPSH = 0x08
	tcpACK = 0x10
	tcpURG = 0x20
	tcpECE = 0x40
	tcpCWR = 0x80
)

func newTCP(d *decoder, w Window) (Dissector, error) {
	if err := need(w, tcpMinHeaderLen, "TCP"); err != nil {
		return nil, err
	}
	off := w.U8(12) >> 4
	hl := int(off) * 4
	if hl < tcpMinHeaderLen {
		return nil, fmt.Errorf("%w: TCP data offset %d", ErrShortHeader, off)
	}
	if err := need(w, hl, "TCP"); err != nil {
		return nil, err
	}
	t := &TCP{
		base:       base{win: w, hdr: hl},
		SrcPort:    w.U16(0),
		DstPort:    w.U16(2),
		Seq:        w.U32(4),
		Ack:        w.U32(8),
		DataOffset: off,
		Flags:      w.U8(13),
		WindowSize: w.U16(14),
		Checksum:   w.U16(16),
		Urgent:     w.U16(18),
		Options:    walkTLV(w.Slice(tcpMinHeaderLen, hl-tcpMinHeaderLen), byteOptions),
	}
	if payload := w.From(hl); payload.Len() > 0 {
		if e, ok := matchPort(tcpPorts, t.SrcPort, t.DstPort); ok {
			t.inner = d.build(e, payload)
		} else {
			t.inner = newGeneric(payload)
		}
	}
	d.protocol("TCP")
	return t, nil
}

func (t *TCP) has(flag uint8) bool { return t.Flags&flag != 0 }

// flagString lists the set flags in display order.
func (t *TCP) flagString() string {
	names := []struct {
		bit  uint8
		name string
	}{
		{tcpURG, "URG"}, {tcpSYN, "SYN"}, {tcpPSH, "PSH"}, {tcpFIN, "FIN"},
		{tcpACK, "ACK"}, {tcpRST, "RST"}, {tcpCWR, "CWR"}, {tcpECE, "ECE"},
	}
	var set []string
	for _, n := range names {
		if t.has(n.bit) {
			set = append(set, n.name)
		}
	}
	return strings.Join(set, " ")
}

func (t *TCP) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "TCP %d > %d", t.SrcPort, t.DstPort)
	if f := t.flagString(); f != "" {
		fmt.Fprintf(&sb, " [%s]", f)
	}
	fmt.Fprintf(&sb, " Seq=%d", t.Seq)
	if t.has(tcpACK) {
		fmt.Fprintf(&sb, " ack=%d", t.Ack)
	}
	fmt.Fprintf(&sb, " Win=%d Len=%d", t.WindowSize, t.win.Len()-t.hdr)
	if t.inner != nil && t.inner.Window().Len() > 0 {
		sb.WriteString(", ")
		sb.WriteString(t.inner.Summary())
	}
	return sb.String()
}

func (t *TCP) Fields() []*Field {
	w := t.win
	flags := w.node("Flags", t.flagString(), 13, 1,
		w.field("Urgent", setBit(t.has(tcpURG)), 13, 1),
		w.field("Acknowledgement", setBit(t.has(tcpACK)), 13, 1),
		w.field("Push", setBit(t.has(tcpPSH)), 13, 1),
		w.field("Reset", setBit(t.has(tcpRST)), 13, 1),
		w.field("Syn", setBit(t.has(tcpSYN)), 13, 1),
		w.field("Fin", setBit(t.has(tcpFIN)), 13, 1),
	)
	root := w.node("Transmission Control Protocol", "", 0, t.hdr,
		w.field("Source Port", fmt.Sprint(t.SrcPort), 0, 2),
		w.field("Destination Port", fmt.Sprint(t.DstPort), 2, 2),
		w.field("Sequence number", fmt.Sprint(t.Seq), 4, 4),
		w.field("Acknowledgement number", fmt.Sprint(t.Ack), 8, 4),
		w.field("Header Length", fmt.Sprintf("%d bytes (%d)", t.hdr, t.DataOffset), 12, 1),
		flags,
		w.field("Window", fmt.Sprint(t.WindowSize), 14, 2),
		w.field("Checksum", fmt.Sprintf("0x%x", t.Checksum), 16, 2),
		w.field("Urgent Pointer", fmt.Sprint(t.Urgent), 18, 2),
	)
	if len(t.Options) > 0 {
		opts := w.node("Options", "", tcpMinHeaderLen, t.hdr-tcpMinHeaderLen)
		for _, o := range t.Options {
			opts.Add(w.field(tcpOptionString(o), "", tcpMinHeaderLen+o.offset, o.length))
		}
		root.Add(opts)
	}
	return t.withInner(root)
}

func tcpOptionString(o tlv) string {
	v := o.value
	switch o.code {
	case 0:
		return "End of Option List (0)"
	case 1:
		return "No-Operation (1)"
	case 2:
		return fmt.Sprintf("Maximum Segment Size (2) - MSS: %d", v.U16(0))
	case 3:
		return fmt.Sprintf("Window Scale (3) - Shift Count: %d", v.U8(0))
	case 4:
		return fmt.Sprintf("SACK Permitted (4) - Permitted: %t", o.length == 2)
	case 5:
		var blocks []string
		for i := 0; v.Has(i, 8); i += 8 {
			blocks = append(blocks, fmt.Sprintf("%d-%d", v.U32(i), v.U32(i+4)))
		}
		return fmt.Sprintf("SACK (5) - Blocks: %s", strings.Join(blocks, ", "))
	case 8:
		return fmt.Sprintf("Timestamp (8) - Timestamp Value: %d, Timestamp Echo Reply: %d", v.U32(0), v.U32(4))
	default:
		return fmt.Sprintf("Option: %d, Length: %d", o.code, o.length)
	}
}
