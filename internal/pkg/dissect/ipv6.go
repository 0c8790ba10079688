package dissect

import (
	"fmt"

	"github.com/google/gopacket/layers"
)

const ipv6HeaderLen = 40

var ipv6NextHeaders map[layers.IPProtocol]entry

func init() {
	ipv6NextHeaders = map[layers.IPProtocol]entry{
		layers.IPProtocolIPv6HopByHop: {"Hop-by-Hop Options Header", newHopByHop},
		layers.IPProtocolIPv6Routing:  {"Routing Header", newRouting},
		layers.IPProtocolICMPv4:       {"ICMP", newICMP},
		layers.IPProtocolTCP:          {"TCP", newTCP},
		layers.IPProtocolUDP:          {"UDP", newUDP},
		layers.IPProtocolICMPv6:       {"ICMPv6", newICMPv6},
		layers.IPProtocolGRE:          {"GRE", newGRE},
		layers.IPProtocolIPv4:         {"IPv4", newIPv4},
		layers.IPProtocolIPv6:         {"IPv6", newIPv6},
	}
}

func nextHeaderName(nh uint8) string {
	if e, ok := ipv6NextHeaders[layers.IPProtocol(nh)]; ok {
		return e.name
	}
	return "Unknown"
}

// nextHeader selects the dissector for an IPv6 next-header value. Extension
// headers recurse back through it.
func (d *decoder) nextHeader(nh uint8, w Window) Dissector {
	e, ok := ipv6NextHeaders[layers.IPProtocol(nh)]
	if !ok {
		return d.unknown(w, fmt.Sprintf("Internet Protocol #%d", nh))
	}
	return d.build(e, w)
}

// IPv6 is the fixed IPv6 header.
type IPv6 struct {
	base
	Version       uint8
	PayloadLength uint16
	NextHeader    uint8
	HopLimit      uint8
	Source        string
	Destination   string

	trailer *Generic
}

func newIPv6(d *decoder, w Window) (Dissector, error) {
	if err := need(w, ipv6HeaderLen, "IPv6"); err != nil {
		return nil, err
	}
	ip := &IPv6{
		base:          base{win: w, hdr: ipv6HeaderLen},
		Version:       w.U8(0) >> 4,
		PayloadLength: w.U16(4),
		NextHeader:    w.U8(6),
		HopLimit:      w.U8(7),
		Source:        ipv6(w, 8),
		Destination:   ipv6(w, 24),
	}
	payload := w.Slice(ipv6HeaderLen, int(ip.PayloadLength))
	if payload.End() < w.End() {
		ip.trailer = newGeneric(w.From(ipv6HeaderLen + payload.Len()))
	}
	ip.inner = d.nextHeader(ip.NextHeader, payload)

	d.address(ip.Source)
	if ip.Source != ip.Destination {
		d.address(ip.Destination)
	}
	d.protocol("IPv6")
	return ip, nil
}

func (ip *IPv6) Summary() string {
	return fmt.Sprintf("IPv%d, %s > %s, (0x%x), %s ", ip.Version, ip.Source, ip.Destination, ip.NextHeader, ip.innerSummary())
}

func (ip *IPv6) Fields() []*Field {
	w := ip.win
	root := w.node("Internet Protocol Version 6", "", 0, ipv6HeaderLen,
		w.field("Version", fmt.Sprint(ip.Version), 0, 1),
		w.field("Payload Length", fmt.Sprint(ip.PayloadLength), 4, 2),
		w.field("Next Header", fmt.Sprintf("%s (%d)", nextHeaderName(ip.NextHeader), ip.NextHeader), 6, 1),
		w.field("Hop Limit", fmt.Sprint(ip.HopLimit), 7, 1),
		w.field("Source Address", ip.Source, 8, 16),
		w.field("Destination Address", ip.Destination, 24, 16),
	)
	fields := ip.withInner(root)
	if ip.trailer != nil {
		fields = append(fields, ip.trailer.Fields()...)
	}
	return fields
}

// Extension is a hop-by-hop or routing extension header.
type Extension struct {
	base
	NextHeader uint8
	HdrExtLen  uint8

	label string
}

func newExtension(d *decoder, w Window, label string) (Dissector, error) {
	if err := need(w, 2, label); err != nil {
		return nil, err
	}
	x := &Extension{
		NextHeader: w.U8(0),
		HdrExtLen:  w.U8(1),
		label:      label,
	}
	n := (int(x.HdrExtLen) + 1) * 8
	if err := need(w, n, label); err != nil {
		return nil, err
	}
	x.base = base{win: w, hdr: n}
	x.inner = d.nextHeader(x.NextHeader, w.From(n))
	return x, nil
}

func newHopByHop(d *decoder, w Window) (Dissector, error) {
	return newExtension(d, w, "IPv6 Hop-by-Hop Option")
}

func newRouting(d *decoder, w Window) (Dissector, error) {
	return newExtension(d, w, "IPv6 Routing Header")
}

func (x *Extension) Summary() string {
	return fmt.Sprintf("(0x%x), %s", x.NextHeader, x.innerSummary())
}

func (x *Extension) Fields() []*Field {
	w := x.win
	root := w.node(x.label, "", 0, x.hdr,
		w.field("Next Header", fmt.Sprintf("%s (%d)", nextHeaderName(x.NextHeader), x.NextHeader), 0, 1),
		w.field("Length", fmt.Sprintf("%d [%d]", x.HdrExtLen, x.hdr), 1, 1),
	)
	return x.withInner(root)
}
