package dissect

import (
	"bytes"
	"fmt"
	"strings"
)

const (
	dhcpFixedLen    = 236
	dhcpOptionsAt   = 240
	dhcpMagicCookie = 0x63825363
)

var dhcpMessageTypes = []string{
	1: "Discover",
	2: "Offer",
	3: "Request",
	4: "Decline",
	5: "ACK",
	6: "NAK",
	7: "Release",
	8: "Inform",
}

func dhcpMessageName(t uint8) string {
	if int(t) < len(dhcpMessageTypes) && dhcpMessageTypes[t] != "" {
		return dhcpMessageTypes[t]
	}
	return "Unknown Message Type"
}

// DHCP is a BOOTP/DHCP message.
type DHCP struct {
	base
	Op       uint8
	HType    uint8
	HLen     uint8
	Hops     uint8
	XID      uint32
	Secs     uint16
	Flags    uint16
	Options  []tlv
	hasMagic bool
}

func newDHCP(d *decoder, w Window) (Dissector, error) {
	if err := need(w, dhcpFixedLen, "DHCP"); err != nil {
		return nil, err
	}
	p := &DHCP{
		base:  base{win: w, hdr: w.Len()},
		Op:    w.U8(0),
		HType: w.U8(1),
		HLen:  w.U8(2),
		Hops:  w.U8(3),
		XID:   w.U32(4),
		Secs:  w.U16(8),
		Flags: w.U16(10),
	}
	if w.U32(dhcpFixedLen) == dhcpMagicCookie {
		p.hasMagic = true
		for _, o := range walkTLV(w.From(dhcpOptionsAt), dhcpOptions) {
			if o.code != dhcpOptions.pad {
				p.Options = append(p.Options, o)
			}
		}
	}
	d.protocol("DHCP")
	return p, nil
}

// MessageType returns the value of the message type option, or 0.
func (p *DHCP) MessageType() uint8 {
	for _, o := range p.Options {
		if o.code == 53 {
			return o.value.U8(0)
		}
	}
	return 0
}

func (p *DHCP) opString() string {
	if p.Op == 1 {
		return "Boot Request"
	}
	return "Boot Reply"
}

func (p *DHCP) Summary() string {
	msg := p.opString()
	if t := p.MessageType(); t != 0 {
		msg = dhcpMessageName(t)
	}
	return fmt.Sprintf("DHCP %s - Transaction ID 0x%x", msg, p.XID)
}

// cString returns b up to the first NUL.
func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

func orNotGiven(s string) string {
	if s == "" {
		return "Not given"
	}
	return s
}

func (p *DHCP) Fields() []*Field {
	w := p.win
	flags := "Unicast"
	if p.Flags == 0x8000 {
		flags = "Broadcast"
	}
	hlen := int(p.HLen)
	if hlen > 16 {
		hlen = 16
	}
	root := w.node("Dynamic Host Configuration Protocol", "", 0, w.Len(),
		w.field("Message type", fmt.Sprintf("%s (%d)", p.opString(), p.Op), 0, 1),
		w.field("Hardware type", fmt.Sprintf("%s (0x%02x)", arpHardwareName(uint16(p.HType)), p.HType), 1, 1),
		w.field("Hardware address length", fmt.Sprint(p.HLen), 2, 1),
		w.field("Hops", fmt.Sprint(p.Hops), 3, 1),
		w.field("Transaction ID", fmt.Sprintf("0x%08x", p.XID), 4, 4),
		w.field("Seconds elapsed", fmt.Sprint(p.Secs), 8, 2),
		w.field("Bootp flags", fmt.Sprintf("0x%04x (%s)", p.Flags, flags), 10, 2),
		w.field("Client IP address", ipv4(w, 12), 12, 4),
		w.field("Your (client) IP address", ipv4(w, 16), 16, 4),
		w.field("Next server IP address", ipv4(w, 20), 20, 4),
		w.field("Relay agent IP address", ipv4(w, 24), 24, 4),
		w.field("Client MAC address", mac(w.Range(28, hlen), false), 28, 16),
		w.field("Server host name", orNotGiven(cString(w.Range(44, 64))), 44, 64),
		w.field("Boot file name", orNotGiven(cString(w.Range(108, 128))), 108, 128),
	)
	if p.hasMagic {
		root.Add(w.field("Magic cookie", "DHCP", dhcpFixedLen, 4))
	}
	if len(p.Options) > 0 {
		opts := w.node("Options", "", dhcpOptionsAt, w.Len()-dhcpOptionsAt)
		for _, o := range p.Options {
			opts.Add(w.field(dhcpOptionString(o), "", dhcpOptionsAt+o.offset, o.length))
		}
		root.Add(opts)
	}
	return []*Field{root}
}

func addressList(v Window) string {
	var out []string
	for i := 0; v.Has(i, 4); i += 4 {
		out = append(out, ipv4(v, i))
	}
	return strings.Join(out, ", ")
}

func dhcpOptionString(o tlv) string {
	v := o.value
	text := string(v.Bytes())
	switch o.code {
	case 1:
		return fmt.Sprintf("Subnet Mask Option (1): %s", ipv4(v, 0))
	case 3:
		return fmt.Sprintf("Router Option (3): %s", addressList(v))
	case 6:
		return fmt.Sprintf("Domain Name Server Option (6): %s", addressList(v))
	case 12:
		return fmt.Sprintf("Host Name Option (12): %s", text)
	case 15:
		return fmt.Sprintf("Domain Name Option (15): %s", text)
	case 28:
		return fmt.Sprintf("Broadcast Address Option (28): %s", ipv4(v, 0))
	case 50:
		return fmt.Sprintf("Requested Address Option (50): %s", ipv4(v, 0))
	case 51:
		return fmt.Sprintf("IP Lease Time Option (51): %d seconds", v.U32(0))
	case 53:
		t := v.U8(0)
		return fmt.Sprintf("Message Type Option (53): DHCP %s (%d)", dhcpMessageName(t), t)
	case 54:
		return fmt.Sprintf("Server Identifier Option (54): %s", ipv4(v, 0))
	case 55:
		params := make([]string, v.Len())
		for i := range params {
			params[i] = fmt.Sprint(v.U8(i))
		}
		return fmt.Sprintf("Parameter Request List Option (55): %s", strings.Join(params, ", "))
	case 58:
		return fmt.Sprintf("Renewal Time Option (58): %d seconds", v.U32(0))
	case 59:
		return fmt.Sprintf("Rebinding Time Option (59): %d seconds", v.U32(0))
	case 60:
		return fmt.Sprintf("Vendor Class Identifier Option (60): %s", text)
	case 61:
		ht := v.U8(0)
		return fmt.Sprintf("Client Identifier Option (61), Hardware Type: %s (0x%02x), MAC Address: %s",
			arpHardwareName(uint16(ht)), ht, mac(v.Range(1, v.Len()-1), false))
	case 81:
		return fmt.Sprintf("Client FQDN Option (81): %s", text)
	case 255:
		return "End Option (255)"
	}
	return fmt.Sprintf("Unknown Option (%d)", o.code)
}
