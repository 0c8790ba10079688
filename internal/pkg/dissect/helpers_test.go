package dissect

import (
	"encoding/binary"
	"net"
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/require"
)

var (
	hostA = net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}
	hostB = net.HardwareAddr{0x66, 0x77, 0x88, 0x99, 0xaa, 0xbb}
)

func win(b []byte) Window { return NewWindow(b, 0, len(b)) }

func serialize(t *testing.T, l ...gopacket.SerializableLayer) []byte {
	t.Helper()
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	require.NoError(t, gopacket.SerializeLayers(buf, opts, l...))
	return buf.Bytes()
}

// run dissects b from the given link layer and returns the observations.
func run(link LinkType, b []byte, opts Options) (Dissector, *Observations) {
	obs := &Observations{}
	return Dissect(win(b), link, obs, opts), obs
}

// layersOf flattens the dissector chain outermost first.
func layersOf(d Dissector) []Dissector {
	var out []Dissector
	for ; d != nil; d = d.Inner() {
		out = append(out, d)
	}
	return out
}

// find returns the first layer in the chain of type T.
func find[T Dissector](t *testing.T, d Dissector) T {
	t.Helper()
	for _, l := range layersOf(d) {
		if v, ok := l.(T); ok {
			return v
		}
	}
	var zero T
	t.Fatalf("no %T in chain", zero)
	return zero
}

func labels(fields []*Field) []string {
	var out []string
	Walk(fields, func(f *Field, _ int) bool {
		out = append(out, f.Label)
		return true
	})
	return out
}

func label(f *Field, name string) *Field {
	var found *Field
	Walk([]*Field{f}, func(c *Field, _ int) bool {
		if found == nil && c.Label == name {
			found = c
		}
		return found == nil
	})
	return found
}

func arpProbe(t *testing.T, target net.IP) []byte {
	t.Helper()
	return serialize(t,
		&layers.Ethernet{SrcMAC: hostA, DstMAC: layers.EthernetBroadcast, EthernetType: layers.EthernetTypeARP},
		&layers.ARP{
			AddrType:          layers.LinkTypeEthernet,
			Protocol:          layers.EthernetTypeIPv4,
			HwAddressSize:     6,
			ProtAddressSize:   4,
			Operation:         layers.ARPRequest,
			SourceHwAddress:   hostA,
			SourceProtAddress: net.IPv4zero.To4(),
			DstHwAddress:      make([]byte, 6),
			DstProtAddress:    target.To4(),
		},
	)
}

func ipLayer(proto layers.IPProtocol) *layers.IPv4 {
	return &layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: proto,
		SrcIP:    net.IPv4(192, 168, 1, 10),
		DstIP:    net.IPv4(192, 168, 1, 20),
	}
}

func httpRequest(t *testing.T, line string) []byte {
	t.Helper()
	ip := ipLayer(layers.IPProtocolTCP)
	tcp := &layers.TCP{SrcPort: 49152, DstPort: 80, Seq: 1, Ack: 1, PSH: true, ACK: true, Window: 502}
	require.NoError(t, tcp.SetNetworkLayerForChecksum(ip))
	return serialize(t,
		&layers.Ethernet{SrcMAC: hostA, DstMAC: hostB, EthernetType: layers.EthernetTypeIPv4},
		ip, tcp, gopacket.Payload(line+"\r\nHost: example.com\r\n\r\n"),
	)
}

// udpFrame is an Ethernet/IPv4/UDP frame carrying payload.
func udpFrame(t *testing.T, src, dst uint16, payload []byte) []byte {
	t.Helper()
	ip := ipLayer(layers.IPProtocolUDP)
	udp := &layers.UDP{SrcPort: layers.UDPPort(src), DstPort: layers.UDPPort(dst)}
	require.NoError(t, udp.SetNetworkLayerForChecksum(ip))
	return serialize(t,
		&layers.Ethernet{SrcMAC: hostA, DstMAC: hostB, EthernetType: layers.EthernetTypeIPv4},
		ip, udp, gopacket.Payload(payload),
	)
}

// ipv4Header builds a header with the given options, sized for payloadLen
// bytes of payload. Checksums are left zero.
func ipv4Header(proto uint8, opts []byte, payloadLen int) []byte {
	hl := 20 + len(opts)
	b := make([]byte, hl)
	b[0] = 0x40 | byte(hl/4)
	binary.BigEndian.PutUint16(b[2:], uint16(hl+payloadLen))
	b[8] = 64
	b[9] = proto
	copy(b[12:], []byte{10, 0, 0, 1})
	copy(b[16:], []byte{10, 0, 0, 2})
	copy(b[20:], opts)
	return b
}

func udpHeader(src, dst uint16, payloadLen int) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint16(b, src)
	binary.BigEndian.PutUint16(b[2:], dst)
	binary.BigEndian.PutUint16(b[4:], uint16(8+payloadLen))
	return b
}

func u16(v uint16) []byte { return binary.BigEndian.AppendUint16(nil, v) }

// withLen prefixes body with its length in size bytes.
func withLen(size int, body ...[]byte) []byte {
	b := concat(body...)
	switch size {
	case 1:
		return append([]byte{byte(len(b))}, b...)
	case 2:
		return append(u16(uint16(len(b))), b...)
	default:
		return append([]byte{byte(len(b) >> 16), byte(len(b) >> 8), byte(len(b))}, b...)
	}
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
