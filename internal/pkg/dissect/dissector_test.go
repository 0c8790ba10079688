package dissect

import (
	"fmt"
	"math/rand"
	"net"
	"strings"
	"testing"

	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDissect_ARPProbe(t *testing.T) {
	d, obs := run(LinkTypeEthernet, arpProbe(t, net.IPv4(10, 0, 0, 7)), Options{})

	assert.Equal(t, "(0x0806): ARP, Who has 10.0.0.7? (ARP Probe)", d.Summary())
	assert.Contains(t, obs.Protocols, "ARP")
	assert.Contains(t, obs.Addresses, "10.0.0.7")
	assert.Contains(t, obs.Addresses, "0.0.0.0")
	assert.Contains(t, obs.Addresses, "00:11:22:33:44:55")
	assert.Contains(t, obs.Addresses, "FF:FF:FF:FF:FF:FF")

	arp := find[*ARP](t, d)
	assert.Equal(t, 28, arp.HeaderLen())
	// Ethernet minimum frame padding trails the ARP message.
	require.NotNil(t, arp.Inner())
	assert.Equal(t, 60-14-28, arp.Inner().Window().Len())
}

func TestARP_Messages(t *testing.T) {
	tests := []struct {
		name     string
		op       uint16
		sender   net.IP
		targetHW net.HardwareAddr
		target   net.IP
		want     string
	}{
		{"request", layers.ARPRequest, net.IPv4(10, 0, 0, 1), make([]byte, 6), net.IPv4(10, 0, 0, 2), "Who has 10.0.0.2? Tell 10.0.0.1"},
		{"broadcast request", layers.ARPRequest, net.IPv4(10, 0, 0, 1), layers.EthernetBroadcast, net.IPv4(10, 0, 0, 2), "Who has 10.0.0.2?"},
		{"announcement", layers.ARPRequest, net.IPv4(10, 0, 0, 1), make([]byte, 6), net.IPv4(10, 0, 0, 1), "ARP Announcement for 10.0.0.1"},
		{"reply", layers.ARPReply, net.IPv4(10, 0, 0, 2), hostA, net.IPv4(10, 0, 0, 1), "10.0.0.2 is at 66:77:88:99:aa:bb"},
		{"gratuitous", layers.ARPReply, net.IPv4(10, 0, 0, 2), layers.EthernetBroadcast, net.IPv4(10, 0, 0, 2), "Gratuitous ARP for 10.0.0.2 (Reply)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := serialize(t, &layers.ARP{
				AddrType:          layers.LinkTypeEthernet,
				Protocol:          layers.EthernetTypeIPv4,
				HwAddressSize:     6,
				ProtAddressSize:   4,
				Operation:         tt.op,
				SourceHwAddress:   hostB,
				SourceProtAddress: tt.sender.To4(),
				DstHwAddress:      tt.targetHW,
				DstProtAddress:    tt.target.To4(),
			})
			obs := &Observations{}
			a, err := newARP(&decoder{obs: obs}, win(b))
			require.NoError(t, err)
			assert.Equal(t, "ARP, "+tt.want, a.Summary())
			if tt.sender.Equal(tt.target) {
				assert.Equal(t, []string{tt.sender.String()}, obs.Addresses)
			} else {
				assert.Equal(t, []string{tt.sender.String(), tt.target.String()}, obs.Addresses)
			}
		})
	}
}

func TestDissect_HTTPOverTCP(t *testing.T) {
	d, obs := run(LinkTypeEthernet, httpRequest(t, "GET /x HTTP/1.1"), Options{})

	http := find[*HTTP](t, d)
	assert.Equal(t, "GET /x HTTP/1.1", http.Summary())
	assert.False(t, http.IsResponse())

	tcp := find[*TCP](t, d)
	assert.True(t, strings.HasSuffix(tcp.Summary(), ", "+http.Summary()))
	assert.Equal(t, "TCP 49152 > 80 [PSH ACK] Seq=1 ack=1 Win=502 Len=38, GET /x HTTP/1.1", tcp.Summary())
	assert.Equal(t, "(0x0800): IPv4, 192.168.1.10 > 192.168.1.20, "+tcp.Summary(), d.Summary())

	assert.ElementsMatch(t, []string{"HTTP", "TCP", "IPv4"}, obs.Protocols)
	assert.Equal(t, []string{"192.168.1.10", "192.168.1.20", "66:77:88:99:AA:BB", "00:11:22:33:44:55"}, obs.Addresses)

	root := http.Fields()[0]
	start := label(root, "GET /x HTTP/1.1")
	require.NotNil(t, start)
	assert.Equal(t, []string{"Method", "URI", "Version"}, labels(start.Children))
	host := label(root, "Host")
	require.NotNil(t, host)
	assert.Equal(t, "example.com", host.Value)
}

func TestHTTP_Continuation(t *testing.T) {
	h, err := newHTTP(&decoder{obs: Discard}, win([]byte("\x01\x02body bytes")))
	require.NoError(t, err)
	assert.Equal(t, "HTTP", h.Summary())
	root := h.Fields()[0]
	require.Len(t, root.Children, 1)
	assert.Equal(t, "Data", root.Children[0].Label)
}

func TestHTTP_Response(t *testing.T) {
	h, err := newHTTP(&decoder{obs: Discard}, win([]byte("HTTP/1.1 404 Not Found\r\nContent-Length: 0\r\n\r\nxyz")))
	require.NoError(t, err)
	assert.True(t, h.(*HTTP).IsResponse())
	root := h.Fields()[0]
	start := label(root, "HTTP/1.1 404 Not Found")
	require.NotNil(t, start)
	assert.Equal(t, []string{"Version", "Status", "Reason"}, labels(start.Children))
	assert.Equal(t, "Not Found", start.Children[2].Value)
	body := label(root, "Body")
	require.NotNil(t, body)
	assert.Equal(t, "3 bytes", body.Value)
}

func TestDissect_HardwareAddresses(t *testing.T) {
	d, _ := run(LinkTypeEthernet, arpProbe(t, net.IPv4(10, 0, 0, 7)), Options{ShowHardwareAddresses: true})
	assert.True(t, strings.HasPrefix(d.Summary(), "00:11:22:33:44:55 > FF:FF:FF:FF:FF:FF (0x0806): ARP"))
}

func TestIPv4_ZeroLengthOptionDoesNotStall(t *testing.T) {
	// Record Route with a zero length, then Router Alert, then padding.
	opts := []byte{0x07, 0x00, 0x94, 0x04, 0x00, 0x00, 0x00, 0x00}
	b := concat(ipv4Header(17, opts, 8), udpHeader(1234, 5678, 0))

	d, obs := run(LinkTypeRaw, b, Options{})
	ip := find[*IPv4](t, d)
	assert.Equal(t, 28, ip.HeaderLen())

	var codes []int
	for _, o := range ip.Options {
		codes = append(codes, o.code)
	}
	assert.Equal(t, []int{148, 0}, codes)

	node := label(ip.Fields()[0], "Options")
	require.NotNil(t, node)
	assert.Equal(t, []string{"Option: 148, Length: 4", "End of Option List (0)"}, labels(node.Children))
	assert.Equal(t, 20+2, node.Children[0].Offset)

	udp := find[*UDP](t, d)
	assert.Equal(t, uint16(1234), udp.SrcPort)
	assert.Equal(t, []string{"UDP", "IPv4"}, obs.Protocols)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, obs.Addresses)
}

func TestDissect_UnknownCodesGetSyntheticNames(t *testing.T) {
	ether := func(typ uint16, payload ...byte) []byte {
		return concat(hostB, hostA, u16(typ), payload)
	}
	tests := []struct {
		name  string
		link  LinkType
		frame []byte
		want  string
	}{
		{"ethertype", LinkTypeEthernet, ether(0x1234, 1, 2, 3), "Ethertype #4660 (0x1234)"},
		{"802.3 length", LinkTypeEthernet, ether(0x0040, 1, 2, 3), "IEEE802.3"},
		{"link type", LinkType(147), []byte{1, 2, 3}, "Link type #147"},
		{"ip protocol", LinkTypeRaw, concat(ipv4Header(200, nil, 2), []byte{1, 2}), "Internet Protocol #200"},
		{"ppp protocol", LinkTypeEthernet, ether(0x880b, 0xff, 0x03, 0x12, 0x34, 9), "PPP protocol #0x1234"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, obs := run(tt.link, tt.frame, Options{})
			assert.Contains(t, obs.Protocols, tt.want)
		})
	}
}

func TestIPv4_UnknownProtocolSummary(t *testing.T) {
	d, _ := run(LinkTypeRaw, concat(ipv4Header(200, nil, 2), []byte{1, 2}), Options{})
	assert.Equal(t, "IPv4, 10.0.0.1 > 10.0.0.2, (0x00c8): +2 bytes unparsed data", d.Summary())
}

func TestIPv4_TrailerIsNotPayload(t *testing.T) {
	b := concat(ipv4Header(17, nil, 8), udpHeader(1, 2, 0), make([]byte, 6))
	d, _ := run(LinkTypeRaw, b, Options{})
	udp := find[*UDP](t, d)
	assert.Equal(t, 8, udp.Window().Len())

	fields := d.Fields()
	last := fields[len(fields)-1]
	assert.Equal(t, "Unparsed Data", last.Label)
	assert.Equal(t, 28, last.Offset)
	assert.Equal(t, 6, last.Length)
}

func TestDissect_ShortHeaderFallsBack(t *testing.T) {
	tests := []struct {
		name  string
		link  LinkType
		frame []byte
	}{
		{"ethernet", LinkTypeEthernet, make([]byte, 10)},
		{"raw ip", LinkTypeRaw, nil},
		{"sll2", LinkTypeLinuxSLL2, make([]byte, 12)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, obs := run(tt.link, tt.frame, Options{})
			require.IsType(t, &Generic{}, d)
			assert.Empty(t, obs.Protocols)
			if len(tt.frame) > 0 {
				assert.Equal(t, fmt.Sprintf("+%d bytes unparsed data", len(tt.frame)), d.Summary())
			}
		})
	}

	// A truncated TCP header inside a sound IPv4 datagram degrades only the
	// TCP layer.
	b := concat(ipv4Header(6, nil, 10), make([]byte, 10))
	d, obs := run(LinkTypeRaw, b, Options{})
	ip := find[*IPv4](t, d)
	require.IsType(t, &Generic{}, ip.Inner())
	assert.Equal(t, []string{"IPv4"}, obs.Protocols)
	assert.Equal(t, "IPv4, 10.0.0.1 > 10.0.0.2, +10 bytes unparsed data", d.Summary())
}

func TestLinkType_String(t *testing.T) {
	assert.Equal(t, "Ethernet", LinkTypeEthernet.String())
	assert.Equal(t, "Raw IP", LinkTypeRaw.String())
	assert.Equal(t, "Linux cooked v2", LinkTypeLinuxSLL2.String())
	assert.Equal(t, "LinkType(999)", LinkType(999).String())
}

// sampleFrames covers every link layer and most dissectors.
func sampleFrames(t *testing.T) map[string]struct {
	link  LinkType
	frame []byte
} {
	t.Helper()
	type sample = struct {
		link  LinkType
		frame []byte
	}
	return map[string]sample{
		"arp":       {LinkTypeEthernet, arpProbe(t, net.IPv4(10, 0, 0, 7))},
		"http":      {LinkTypeEthernet, httpRequest(t, "GET / HTTP/1.1")},
		"dns":       {LinkTypeEthernet, udpFrame(t, 5353, 53, dnsQuery())},
		"dns trunc": {LinkTypeEthernet, udpFrame(t, 53, 5353, truncatedDNSResponse())},
		"dhcp":      {LinkTypeEthernet, udpFrame(t, 68, 67, dhcpDiscover())},
		"tls":       {LinkTypeRaw, tcpSegment(443, clientHello("example.com"))},
		"quic":      {LinkTypeEthernet, udpFrame(t, 50000, 443, quicInitial())},
		"options":   {LinkTypeRaw, concat(ipv4Header(17, []byte{0x07, 0x00, 0x94, 0x04, 0, 0, 0, 0}, 8), udpHeader(1, 2, 0))},
		"vlan":      {LinkTypeEthernet, vlanFrame(t)},
		"gre":       {LinkTypeRaw, greKeyed()},
		"mpls":      {LinkTypeEthernet, mplsStack()},
		"vxlan":     {LinkTypeEthernet, udpFrame(t, 40000, 4789, vxlan(arpProbe(t, net.IPv4(10, 0, 0, 9))))},
		"pppoe":     {LinkTypeEthernet, pppoeSession()},
		"padi":      {LinkTypeEthernet, pppoeDiscovery()},
		"lcp":       {LinkTypeEthernet, pppoeLCP()},
		"sll2":      {LinkTypeLinuxSLL2, sll2Frame()},
		"icmpv6":    {LinkTypeRaw, ipv6Packet(58, neighborAdvert(0x60, true))},
		"icmp":      {LinkTypeRaw, concat(ipv4Header(1, nil, 8), []byte{8, 0, 0, 0, 0, 1, 0, 2})},
		"igmp":      {LinkTypeRaw, concat(ipv4Header(2, nil, 8), []byte{0x16, 0, 0, 0, 239, 1, 1, 1})},
		"junk":      {LinkTypeEthernet, []byte{1, 2, 3}},
	}
}

// checkRanges verifies that every layer's header and inner window fit inside
// the layer's own window, and that every field lies inside the frame.
func checkRanges(t *testing.T, d Dissector) {
	t.Helper()
	for _, l := range layersOf(d) {
		w := l.Window()
		assert.LessOrEqual(t, l.HeaderLen(), w.Len(), "%T header", l)
		if in := l.Inner(); in != nil {
			iw := in.Window()
			assert.GreaterOrEqual(t, iw.Offset(), w.Offset()+l.HeaderLen(), "%T inner start", l)
			assert.LessOrEqual(t, iw.End(), w.End(), "%T inner end", l)
		}
	}
	frame := d.Window()
	Walk(d.Fields(), func(f *Field, _ int) bool {
		assert.GreaterOrEqual(t, f.Offset, frame.Offset(), f.Label)
		assert.LessOrEqual(t, f.Offset+f.Length, frame.End(), f.Label)
		return true
	})
}

func TestDissect_ByteRanges(t *testing.T) {
	for name, s := range sampleFrames(t) {
		t.Run(name, func(t *testing.T) {
			// Place the frame at a non-zero offset so absolute positions are exercised.
			buf := concat(make([]byte, 24), s.frame, make([]byte, 8))
			d := Dissect(NewWindow(buf, 24, len(s.frame)), s.link, nil, Options{})
			assert.Equal(t, 24, d.Window().Offset())
			checkRanges(t, d)
		})
	}
}

func TestDissect_Idempotent(t *testing.T) {
	for name, s := range sampleFrames(t) {
		t.Run(name, func(t *testing.T) {
			first, obs1 := run(s.link, s.frame, Options{})
			second, obs2 := run(s.link, s.frame, Options{})
			assert.Equal(t, first.Summary(), second.Summary())
			assert.Equal(t, first.Fields(), second.Fields())
			assert.Equal(t, first.Fields(), first.Fields())
			assert.Equal(t, obs1, obs2)
		})
	}
}

func TestDissect_DiscardObserver(t *testing.T) {
	d := Dissect(win(httpRequest(t, "GET / HTTP/1.1")), LinkTypeEthernet, Discard, Options{})
	assert.Contains(t, d.Summary(), "GET / HTTP/1.1")
}

func TestDissect_CorruptFramesNeverPanic(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	samples := sampleFrames(t)
	for name, s := range samples {
		for i := 0; i < 200; i++ {
			frame := append([]byte(nil), s.frame...)
			for n := rng.Intn(4) + 1; n > 0 && len(frame) > 0; n-- {
				frame[rng.Intn(len(frame))] = byte(rng.Intn(256))
			}
			frame = frame[:rng.Intn(len(frame)+1)]
			require.NotPanics(t, func() {
				d := Dissect(win(frame), s.link, &Observations{}, Options{ShowHardwareAddresses: true})
				_ = d.Summary()
				checkRanges(t, d)
			}, "%s iteration %d", name, i)
		}
	}
}
