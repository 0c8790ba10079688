package dissect

import (
	"fmt"
	"strings"

	"github.com/google/gopacket/layers"
)

const ipv4MinHeaderLen = 20

var ipv4Protocols map[layers.IPProtocol]entry

func init() {
	ipv4Protocols = map[layers.IPProtocol]entry{
		layers.IPProtocolICMPv4: {"ICMP", newICMP},
		layers.IPProtocolIGMP:   {"IGMP", newIGMP},
		layers.IPProtocolTCP:    {"TCP", newTCP},
		layers.IPProtocolUDP:    {"UDP", newUDP},
		layers.IPProtocolGRE:    {"GRE", newGRE},
		layers.IPProtocolIPv4:   {"IPv4", newIPv4},
		layers.IPProtocolIPv6:   {"IPv6", newIPv6},
	}
}

// IPv4 is an IPv4 header with its options.
type IPv4 struct {
	base
	Version        uint8
	IHL            uint8
	TOS            uint8
	TotalLength    uint16
	ID             uint16
	Flags          uint8
	FragmentOffset uint16
	TTL            uint8
	Protocol       uint8
	Checksum       uint16
	Source         string
	Destination    string
	Options        []tlv

	known   bool
	trailer *Generic
}

func newIPv4(d *decoder, w Window) (Dissector, error) {
	if err := need(w, ipv4MinHeaderLen, "IPv4"); err != nil {
		return nil, err
	}
	ihl := w.U8(0) & 0x0f
	hl := int(ihl) * 4
	if hl < ipv4MinHeaderLen {
		return nil, fmt.Errorf("%w: IPv4 header length %d", ErrShortHeader, hl)
	}
	if err := need(w, hl, "IPv4"); err != nil {
		return nil, err
	}
	ip := &IPv4{
		base:           base{win: w, hdr: hl},
		Version:        w.U8(0) >> 4,
		IHL:            ihl,
		TOS:            w.U8(1),
		TotalLength:    w.U16(2),
		ID:             w.U16(4),
		Flags:          w.U8(6) >> 5,
		FragmentOffset: w.U16(6) & 0x1fff,
		TTL:            w.U8(8),
		Protocol:       w.U8(9),
		Checksum:       w.U16(10),
		Source:         ipv4(w, 12),
		Destination:    ipv4(w, 16),
		Options:        walkTLV(w.Slice(ipv4MinHeaderLen, hl-ipv4MinHeaderLen), byteOptions),
	}

	// Link-layer padding past the datagram is kept apart from the payload.
	end := w.Len()
	if tl := int(ip.TotalLength); tl >= hl && tl < end {
		end = tl
		ip.trailer = newGeneric(w.From(tl))
	}
	payload := w.Slice(hl, end-hl)

	e, ok := ipv4Protocols[layers.IPProtocol(ip.Protocol)]
	if ok {
		ip.known = true
		ip.inner = d.build(e, payload)
	} else {
		ip.inner = d.unknown(payload, fmt.Sprintf("Internet Protocol #%d", ip.Protocol))
	}

	d.address(ip.Source)
	if ip.Source != ip.Destination {
		d.address(ip.Destination)
	}
	d.protocol("IPv4")
	return ip, nil
}

func ipv4ProtocolName(p uint8) string {
	if e, ok := ipv4Protocols[layers.IPProtocol(p)]; ok {
		return e.name
	}
	return "Unknown"
}

func (ip *IPv4) Summary() string {
	if !ip.known {
		return fmt.Sprintf("IPv%d, %s > %s, (0x%04x): %s", ip.Version, ip.Source, ip.Destination, ip.Protocol, ip.innerSummary())
	}
	return fmt.Sprintf("IPv%d, %s > %s, %s", ip.Version, ip.Source, ip.Destination, ip.innerSummary())
}

func (ip *IPv4) Fields() []*Field {
	w := ip.win
	root := w.node("Internet Protocol Version 4", "", 0, ip.hdr,
		w.field("Version", fmt.Sprint(ip.Version), 0, 1),
		w.field("Header Length", fmt.Sprintf("%d bytes (%d)", ip.hdr, ip.IHL), 0, 1),
		w.field("Type of Service", fmt.Sprint(ip.TOS), 1, 1),
		w.field("Total Length", fmt.Sprint(ip.TotalLength), 2, 2),
		w.field("Identification", fmt.Sprintf("0x%x (%d)", ip.ID, ip.ID), 4, 2),
		w.field("Flags", fmt.Sprintf("0x%x", ip.Flags), 6, 1),
		w.field("Fragment Offset", fmt.Sprint(ip.FragmentOffset), 6, 2),
		w.field("Time to Live", fmt.Sprint(ip.TTL), 8, 1),
		w.field("Protocol", fmt.Sprintf("%s (%d)", ipv4ProtocolName(ip.Protocol), ip.Protocol), 9, 1),
		w.field("Header Checksum", fmt.Sprint(ip.Checksum), 10, 2),
		w.field("Source Address", ip.Source, 12, 4),
		w.field("Destination Address", ip.Destination, 16, 4),
	)
	if len(ip.Options) > 0 {
		opts := w.node("Options", "", ipv4MinHeaderLen, ip.hdr-ipv4MinHeaderLen)
		for _, o := range ip.Options {
			opts.Add(w.field(ipv4OptionString(o), "", ipv4MinHeaderLen+o.offset, o.length))
		}
		root.Add(opts)
	}
	fields := ip.withInner(root)
	if ip.trailer != nil {
		fields = append(fields, ip.trailer.Fields()...)
	}
	return fields
}

func routeAddresses(v Window) string {
	// The first value byte is the route pointer.
	var addrs []string
	for i := 1; v.Has(i, 4); i += 4 {
		addrs = append(addrs, ipv4(v, i))
	}
	return strings.Join(addrs, ", ")
}

func ipv4OptionString(o tlv) string {
	v := o.value
	switch o.code {
	case 0:
		return "End of Option List (0)"
	case 1:
		return "No-Operation (1)"
	case 2:
		parts := make([]string, 0, v.Len())
		for _, b := range v.Bytes() {
			parts = append(parts, fmt.Sprint(b))
		}
		return fmt.Sprintf("Security Option (2) - Data: %s", strings.Join(parts, ", "))
	case 3:
		return fmt.Sprintf("Loose Source Routing Option (3) - Addresses: %s", routeAddresses(v))
	case 7:
		return fmt.Sprintf("Record Route Option (7) - Addresses: %s", routeAddresses(v))
	case 8:
		return fmt.Sprintf("Stream ID Option (8) - StreamID: %d", v.U16(0))
	case 9:
		return fmt.Sprintf("Strict Source Routing Option (9) - Addresses: %s", routeAddresses(v))
	case 68:
		// Pointer and overflow/flags precede the address/timestamp pairs.
		var recs []string
		for i := 2; v.Has(i, 8); i += 8 {
			recs = append(recs, fmt.Sprintf("{Address: %s, Timestamp: %d}", ipv4(v, i), v.U32(i+4)))
		}
		return fmt.Sprintf("Internet Timestamp Option (68) - Records: %s", strings.Join(recs, ", "))
	default:
		return fmt.Sprintf("Option: %d, Length: %d", o.code, o.length)
	}
}
