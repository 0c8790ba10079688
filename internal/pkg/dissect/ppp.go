package dissect

import (
	"fmt"
	"strings"

	"github.com/google/gopacket/layers"
)

const (
	pppoeHeaderLen      = 6
	pppControlHeaderLen = 4
)

var pppProtocols map[layers.PPPType]entry

func init() {
	pppProtocols = map[layers.PPPType]entry{
		layers.PPPTypeIPv4: {"IPv4", newIPv4},
		layers.PPPTypeIPv6: {"IPv6", newIPv6},
		0xc021:             {"LCP", controlProtocol("LCP")},
		0x8021:             {"IPCP", controlProtocol("IPCP")},
		0x8057:             {"IPv6CP", controlProtocol("IPv6CP")},
	}
}

// PPP is a PPP frame. An HDLC address and control prefix is skipped when
// present.
type PPP struct {
	base
	Protocol uint16
	hdlc     bool
}

func newPPP(d *decoder, w Window) (Dissector, error) {
	if err := need(w, 2, "PPP"); err != nil {
		return nil, err
	}
	p := &PPP{}
	at := 0
	if w.U16(0) == 0xff03 {
		p.hdlc = true
		at = 2
	}
	if err := need(w, at+2, "PPP"); err != nil {
		return nil, err
	}
	p.Protocol = w.U16(at)
	p.base = base{win: w, hdr: at + 2}
	d.protocol("PPP")
	payload := w.From(at + 2)
	if e, ok := pppProtocols[layers.PPPType(p.Protocol)]; ok {
		p.inner = d.build(e, payload)
	} else {
		p.inner = d.unknown(payload, fmt.Sprintf("PPP protocol #0x%04x", p.Protocol))
	}
	return p, nil
}

func pppProtocolName(code uint16) string {
	if e, ok := pppProtocols[layers.PPPType(code)]; ok {
		return e.name
	}
	return "Unknown"
}

func (p *PPP) Summary() string {
	return "PPP " + p.innerSummary()
}

func (p *PPP) Fields() []*Field {
	w := p.win
	root := w.node("Point-to-Point Protocol", pppProtocolName(p.Protocol), 0, p.hdr)
	if p.hdlc {
		root.Add(w.field("Address", "0xff", 0, 1), w.field("Control", "0x03", 1, 1))
	}
	root.Add(w.field("Protocol", fmt.Sprintf("%s (%s)", pppProtocolName(p.Protocol), hex16(p.Protocol)), p.hdr-2, 2))
	return p.withInner(root)
}

var pppControlCodes = []string{
	1:  "Configuration Request",
	2:  "Configuration Ack",
	3:  "Configuration Nak",
	4:  "Configuration Reject",
	5:  "Termination Request",
	6:  "Termination Ack",
	7:  "Code Reject",
	8:  "Protocol Reject",
	9:  "Echo Request",
	10: "Echo Reply",
	11: "Discard Request",
}

// PPPControl is an LCP, IPCP or IPv6CP packet.
type PPPControl struct {
	base
	Name       string
	Code       uint8
	Identifier uint8
	Length     uint16
	Options    []tlv
}

// controlProtocol returns the constructor for one of the PPP control
// protocols, which share a packet layout.
func controlProtocol(name string) constructor {
	return func(d *decoder, w Window) (Dissector, error) {
		c, err := newControl(w, name)
		if err != nil {
			return nil, err
		}
		d.protocol(name)
		return c, nil
	}
}

func newControl(w Window, name string) (*PPPControl, error) {
	if err := need(w, pppControlHeaderLen, name); err != nil {
		return nil, err
	}
	c := &PPPControl{
		Name:       name,
		Code:       w.U8(0),
		Identifier: w.U8(1),
		Length:     w.U16(2),
	}
	body := w.Slice(0, int(c.Length))
	c.base = base{win: w, hdr: body.Len()}
	if c.Code >= 1 && c.Code <= 4 {
		c.Options = walkTLV(body.From(pppControlHeaderLen), pppOptions)
	}
	return c, nil
}

func (c *PPPControl) codeName() string {
	if int(c.Code) < len(pppControlCodes) && pppControlCodes[c.Code] != "" {
		return pppControlCodes[c.Code]
	}
	return fmt.Sprintf("Unknown code (%d)", c.Code)
}

func (c *PPPControl) Summary() string {
	return fmt.Sprintf("%s %s, id %d", c.Name, c.codeName(), c.Identifier)
}

func (c *PPPControl) optionString(o tlv) string {
	v := o.value
	switch c.Name {
	case "LCP":
		switch o.code {
		case 1:
			return fmt.Sprintf("Maximum Receive Unit: %d", v.U16(0))
		case 2:
			return fmt.Sprintf("Async Control Character Map: 0x%08x", v.U32(0))
		case 3:
			return fmt.Sprintf("Authentication Protocol: 0x%04x", v.U16(0))
		case 4:
			return fmt.Sprintf("Quality Protocol: 0x%04x", v.U16(0))
		case 5:
			return fmt.Sprintf("Magic Number: 0x%08x", v.U32(0))
		case 7:
			return "Protocol Field Compression"
		case 8:
			return "Address and Control Field Compression"
		}
	case "IPCP":
		switch o.code {
		case 2:
			return fmt.Sprintf("IP Compression Protocol: 0x%04x", v.U16(0))
		case 3:
			return "IP Address: " + ipv4(v, 0)
		case 129:
			return "Primary DNS Server: " + ipv4(v, 0)
		case 131:
			return "Secondary DNS Server: " + ipv4(v, 0)
		}
	case "IPv6CP":
		if o.code == 1 {
			return "Interface Identifier: " + mac(v.Range(0, 8), false)
		}
	}
	return fmt.Sprintf("Option: %d, Length: %d", o.code, o.length)
}

func (c *PPPControl) Fields() []*Field {
	w := c.win
	root := w.node(fmt.Sprintf("PPP %s", c.Name), c.codeName(), 0, c.hdr,
		w.field("Code", fmt.Sprintf("%s (%d)", c.codeName(), c.Code), 0, 1),
		w.field("Identifier", fmt.Sprint(c.Identifier), 1, 1),
		w.field("Length", fmt.Sprint(c.Length), 2, 2),
	)
	if len(c.Options) > 0 {
		opts := w.node("Options", "", pppControlHeaderLen, c.hdr-pppControlHeaderLen)
		for _, o := range c.Options {
			opts.Add(w.field(c.optionString(o), "", pppControlHeaderLen+o.offset, o.length))
		}
		root.Add(opts)
	}
	if rest := w.Len() - c.hdr; rest > 0 {
		root.Add(w.field("Data", hexString(w.Range(c.hdr, rest)), c.hdr, rest))
	}
	return []*Field{root}
}

var pppoeCodes = map[uint8]string{
	0x00: "Session Data",
	0x09: "Active Discovery Initiation (PADI)",
	0x07: "Active Discovery Offer (PADO)",
	0x19: "Active Discovery Request (PADR)",
	0x65: "Active Discovery Session-confirmation (PADS)",
	0xa7: "Active Discovery Terminate (PADT)",
}

var pppoeTagNames = map[int]string{
	0x0000: "End-Of-List",
	0x0101: "Service-Name",
	0x0102: "AC-Name",
	0x0103: "Host-Uniq",
	0x0104: "AC-Cookie",
	0x0105: "Vendor-Specific",
	0x0110: "Relay-Session-Id",
	0x0201: "Service-Name-Error",
	0x0202: "AC-System-Error",
	0x0203: "Generic-Error",
}

// PPPoE is a PPP-over-Ethernet header. Discovery packets carry tags; session
// packets carry a PPP frame.
type PPPoE struct {
	base
	Version   uint8
	Type      uint8
	Code      uint8
	SessionID uint16
	Length    uint16
	Tags      []tlv
}

func newPPPoEHeader(w Window) (*PPPoE, error) {
	if err := need(w, pppoeHeaderLen, "PPPoE"); err != nil {
		return nil, err
	}
	return &PPPoE{
		base:      base{win: w, hdr: pppoeHeaderLen},
		Version:   w.U8(0) >> 4,
		Type:      w.U8(0) & 0x0f,
		Code:      w.U8(1),
		SessionID: w.U16(2),
		Length:    w.U16(4),
	}, nil
}

func newPPPoEDiscovery(d *decoder, w Window) (Dissector, error) {
	p, err := newPPPoEHeader(w)
	if err != nil {
		return nil, err
	}
	p.Tags = walkTLV(w.Slice(pppoeHeaderLen, int(p.Length)), pppoeTags)
	p.hdr = pppoeHeaderLen + w.Slice(pppoeHeaderLen, int(p.Length)).Len()
	d.protocol("PPPoE")
	return p, nil
}

func newPPPoESession(d *decoder, w Window) (Dissector, error) {
	p, err := newPPPoEHeader(w)
	if err != nil {
		return nil, err
	}
	d.protocol("PPPoE")
	p.inner = d.build(entry{"PPP", newPPP}, w.Slice(pppoeHeaderLen, int(p.Length)))
	return p, nil
}

func (p *PPPoE) codeName() string {
	if n, ok := pppoeCodes[p.Code]; ok {
		return n
	}
	return fmt.Sprintf("Unknown code (0x%02x)", p.Code)
}

func (p *PPPoE) Summary() string {
	if p.inner != nil {
		return "PPPoE " + p.innerSummary()
	}
	return "PPPoE " + p.codeName()
}

func tagString(t tlv) string {
	name, ok := pppoeTagNames[t.code]
	if !ok {
		name = fmt.Sprintf("Unknown type (0x%04x)", t.code)
	}
	b := t.value.Bytes()
	switch t.code {
	case 0x0000:
		return name
	case 0x0101, 0x0102, 0x0201, 0x0202, 0x0203:
		switch {
		case len(b) == 0 && t.code == 0x0101:
			return name + ": (Any)"
		case len(b) == 0 || b[0] == 0:
			return name + ": (Blank)"
		}
		return name + ": " + string(b)
	}
	parts := make([]string, len(b))
	for i, c := range b {
		parts[i] = fmt.Sprintf("%02x", c)
	}
	return name + ": " + strings.Join(parts, " ")
}

func (p *PPPoE) Fields() []*Field {
	w := p.win
	label := "PPP-over-Ethernet Discovery"
	if p.inner != nil {
		label = "PPP-over-Ethernet Session"
	}
	root := w.node(label, p.codeName(), 0, p.hdr,
		w.field("Version", fmt.Sprint(p.Version), 0, 1),
		w.field("Type", fmt.Sprint(p.Type), 0, 1),
		w.field("Code", fmt.Sprintf("%s (0x%02x)", p.codeName(), p.Code), 1, 1),
		w.field("Session ID", fmt.Sprintf("0x%04x", p.SessionID), 2, 2),
		w.field("Payload Length", fmt.Sprint(p.Length), 4, 2),
	)
	if len(p.Tags) > 0 {
		tags := w.node("PPPoE Tags", "", pppoeHeaderLen, p.hdr-pppoeHeaderLen)
		for _, t := range p.Tags {
			tags.Add(w.field(tagString(t), "", pppoeHeaderLen+t.offset, t.length))
		}
		root.Add(tags)
	}
	return p.withInner(root)
}
