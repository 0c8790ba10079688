package dissect

import (
	"fmt"
	"strings"
)

const arpFixedLen = 8

var arpHardwareTypes = []string{
	1:  "Ethernet",
	2:  "Experimental Ethernet",
	3:  "Amateur Radio AX.25",
	4:  "Proteon ProNET Token Ring",
	5:  "Chaos",
	6:  "IEEE 802 Networks",
	7:  "ARCNET",
	8:  "Hyperchannel",
	9:  "Lanstar",
	10: "Autonet Short Address",
	11: "LocalTalk",
	12: "LocalNet",
	13: "Ultra link",
	14: "SMDS",
	15: "Frame Relay",
	16: "Asynchronous Transmission Mode",
	17: "HDLC",
	18: "Fibre Channel",
	19: "Asynchronous Transmission Mode",
	20: "Serial Line",
	21: "Asynchronous Transmission Mode",
}

func arpHardwareName(t uint16) string {
	if int(t) < len(arpHardwareTypes) && arpHardwareTypes[t] != "" {
		return arpHardwareTypes[t]
	}
	return "Unknown network type"
}

// ARP is an address resolution message. Address lengths come from the header.
type ARP struct {
	base
	HardwareType uint16
	ProtocolType uint16
	HardwareLen  int
	ProtocolLen  int
	Opcode       uint16
	SenderHW     string
	SenderProto  string
	TargetHW     string
	TargetProto  string
}

func newARP(d *decoder, w Window) (Dissector, error) {
	if err := need(w, arpFixedLen, "ARP"); err != nil {
		return nil, err
	}
	hl, pl := int(w.U8(4)), int(w.U8(5))
	total := arpFixedLen + 2*hl + 2*pl
	if err := need(w, total, "ARP"); err != nil {
		return nil, err
	}
	a := &ARP{
		base:         base{win: w, hdr: total},
		HardwareType: w.U16(0),
		ProtocolType: w.U16(2),
		HardwareLen:  hl,
		ProtocolLen:  pl,
		Opcode:       w.U16(6),
		SenderHW:     mac(w.Range(arpFixedLen, hl), false),
		SenderProto:  dotted(w.Range(arpFixedLen+hl, pl)),
		TargetHW:     mac(w.Range(arpFixedLen+hl+pl, hl), false),
		TargetProto:  dotted(w.Range(arpFixedLen+2*hl+pl, pl)),
	}
	if total < w.Len() {
		a.inner = newGeneric(w.From(total))
	}

	d.address(a.SenderProto)
	if a.SenderProto != a.TargetProto {
		d.address(a.TargetProto)
	}
	d.protocol("ARP")
	return a, nil
}

func (a *ARP) message() string {
	const (
		broadcast = "ff:ff:ff:ff:ff:ff"
		zero      = "00:00:00:00:00:00"
	)
	target := strings.ToLower(a.TargetHW)
	if a.Opcode == 1 {
		switch {
		case target == broadcast:
			return fmt.Sprintf("Who has %s?", a.TargetProto)
		case target == zero && a.SenderProto == "0.0.0.0":
			return fmt.Sprintf("Who has %s? (ARP Probe)", a.TargetProto)
		case target == zero && a.SenderProto == a.TargetProto:
			return fmt.Sprintf("ARP Announcement for %s", a.TargetProto)
		default:
			return fmt.Sprintf("Who has %s? Tell %s", a.TargetProto, a.SenderProto)
		}
	}
	if target == broadcast && a.SenderProto == a.TargetProto {
		return fmt.Sprintf("Gratuitous ARP for %s (Reply)", a.SenderProto)
	}
	return fmt.Sprintf("%s is at %s", a.SenderProto, a.SenderHW)
}

func (a *ARP) Summary() string {
	return "ARP, " + a.message()
}

func (a *ARP) Fields() []*Field {
	w, hl, pl := a.win, a.HardwareLen, a.ProtocolLen
	op := "reply"
	if a.Opcode == 1 {
		op = "request"
	}
	root := w.node("Address Resolution Protocol", "", 0, a.hdr,
		w.field("Hardware type", fmt.Sprintf("%s (%d)", arpHardwareName(a.HardwareType), a.HardwareType), 0, 2),
		w.field("Protocol type", fmt.Sprintf("%s (0x%x)", etherTypeName(a.ProtocolType), a.ProtocolType), 2, 2),
		w.field("Hardware size", fmt.Sprint(hl), 4, 1),
		w.field("Protocol size", fmt.Sprint(pl), 5, 1),
		w.field("Opcode", fmt.Sprintf("%s (%d)", op, a.Opcode), 6, 2),
		w.field("Sender MAC address", a.SenderHW, arpFixedLen, hl),
		w.field("Sender IP address", a.SenderProto, arpFixedLen+hl, pl),
		w.field("Target MAC address", a.TargetHW, arpFixedLen+hl+pl, hl),
		w.field("Target IP address", a.TargetProto, arpFixedLen+2*hl+pl, pl),
	)
	return a.withInner(root)
}
