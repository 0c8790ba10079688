package dissect

import (
	"fmt"

	"github.com/google/gopacket/layers"
)

// LinkType is a pcap LINKTYPE_ value. It is wider than layers.LinkType so
// that values past 255, such as Linux cooked capture v2, fit.
type LinkType uint16

const (
	LinkTypeNull      = LinkType(layers.LinkTypeNull)
	LinkTypeEthernet  = LinkType(layers.LinkTypeEthernet)
	LinkTypeRaw       = LinkType(layers.LinkTypeRaw)
	LinkTypeLinuxSLL  = LinkType(layers.LinkTypeLinuxSLL)
	LinkTypeLinuxSLL2 = LinkType(276)
)

// String names the link type the way gopacket does when it can.
func (t LinkType) String() string {
	switch {
	case t == LinkTypeRaw:
		return "Raw IP"
	case t == LinkTypeLinuxSLL2:
		return "Linux cooked v2"
	case t <= 0xff:
		return layers.LinkType(t).String()
	}
	return fmt.Sprintf("LinkType(%d)", uint16(t))
}

var linkTypes map[LinkType]entry

func init() {
	linkTypes = map[LinkType]entry{
		LinkTypeEthernet:  {"Ethernet", newEthernet},
		LinkTypeRaw:       {"Raw IP", newRawIP},
		LinkTypeLinuxSLL2: {"SLL2", newSLL2},
	}
}

func (d *decoder) link(link LinkType, w Window) Dissector {
	e, ok := linkTypes[link]
	if !ok {
		return d.unknown(w, fmt.Sprintf("Link type #%d", link))
	}
	return d.build(e, w)
}

// newRawIP picks IPv4 or IPv6 from the version nibble.
func newRawIP(d *decoder, w Window) (Dissector, error) {
	if err := need(w, 1, "Raw IP"); err != nil {
		return nil, err
	}
	return d.ipVersion(w), nil
}

func (d *decoder) ipVersion(w Window) Dissector {
	switch w.U8(0) >> 4 {
	case 4:
		return d.build(entry{"IPv4", newIPv4}, w)
	case 6:
		return d.build(entry{"IPv6", newIPv6}, w)
	default:
		return newGeneric(w)
	}
}
