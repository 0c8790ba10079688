package dissect

import (
	"fmt"

	"github.com/google/gopacket/layers"
)

const (
	ethernetHeaderLen = 14
	// ieee8023MaxLength is the largest value of the type field that is a length.
	ieee8023MaxLength = 0x5dc

	ethernetTypePPP = layers.EthernetType(0x880b)
	ethernetTypeTEB = layers.EthernetTypeTransparentEthernetBridging
)

var etherTypes map[layers.EthernetType]entry

func init() {
	etherTypes = map[layers.EthernetType]entry{
		layers.EthernetTypeIPv4:           {"IPv4", newIPv4ByVersion},
		layers.EthernetTypeARP:            {"ARP", newARP},
		layers.EthernetTypeDot1Q:          {"802.1Q Virtual LAN", newVLAN},
		layers.EthernetTypeIPv6:           {"IPv6", newIPv6},
		ethernetTypePPP:                   {"PPP", newPPP},
		layers.EthernetTypePPPoEDiscovery: {"PPPoE Discovery", newPPPoEDiscovery},
		layers.EthernetTypePPPoESession:   {"PPPoE", newPPPoESession},
		layers.EthernetTypeMPLSUnicast:    {"MPLS", newMPLS},
		layers.EthernetTypeMPLSMulticast:  {"MPLS", newMPLS},
		ethernetTypeTEB:                   {"Transparent Ethernet Bridging", newEthernet},
	}
}

// etherTypeName names the payload carried under code.
func etherTypeName(code uint16) string {
	if e, ok := etherTypes[layers.EthernetType(code)]; ok {
		return e.name
	}
	return "Unknown"
}

// etherPayload selects the dissector for an ethertype. It is shared by every
// header that carries an ethertype: Ethernet, VLAN, GRE and SLL2.
func (d *decoder) etherPayload(code uint16, w Window) Dissector {
	if code <= ieee8023MaxLength {
		return d.unknown(w, "IEEE802.3")
	}
	e, ok := etherTypes[layers.EthernetType(code)]
	if !ok {
		return d.unknown(w, fmt.Sprintf("Ethertype #%d (0x%04x)", code, code))
	}
	return d.build(e, w)
}

// newIPv4ByVersion trusts the version nibble over the ethertype.
func newIPv4ByVersion(d *decoder, w Window) (Dissector, error) {
	if err := need(w, 1, "IPv4"); err != nil {
		return nil, err
	}
	return d.ipVersion(w), nil
}

// Ethernet is an Ethernet II header.
type Ethernet struct {
	base
	Destination string
	Source      string
	Type        uint16

	showHW bool
}

func newEthernet(d *decoder, w Window) (Dissector, error) {
	if err := need(w, ethernetHeaderLen, "Ethernet"); err != nil {
		return nil, err
	}
	e := &Ethernet{
		base:        base{win: w, hdr: ethernetHeaderLen},
		Destination: mac(w.Range(0, 6), true),
		Source:      mac(w.Range(6, 6), true),
		Type:        w.U16(12),
	}
	e.inner = d.etherPayload(e.Type, w.From(ethernetHeaderLen))
	e.showHW = d.opts.ShowHardwareAddresses
	d.address(e.Destination)
	d.address(e.Source)
	return e, nil
}

func (e *Ethernet) Summary() string {
	if e.showHW {
		return fmt.Sprintf("%s > %s (%s): %s", e.Source, e.Destination, hex16(e.Type), e.innerSummary())
	}
	return fmt.Sprintf("(%s): %s", hex16(e.Type), e.innerSummary())
}

func (e *Ethernet) Fields() []*Field {
	w := e.win
	root := w.node("Ethernet II", fmt.Sprintf("Src: %s, Dst: %s", e.Source, e.Destination), 0, ethernetHeaderLen,
		w.field("Source Address", e.Source, 6, 6),
		w.field("Destination Address", e.Destination, 0, 6),
		w.field("Type", fmt.Sprintf("%s (0x%x)", etherTypeName(e.Type), e.Type), 12, 2),
	)
	return e.withInner(root)
}
