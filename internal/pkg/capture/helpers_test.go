package capture

import (
	"bytes"
	"encoding/binary"
	"net"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/stretchr/testify/require"
)

var (
	hostA = net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}
	hostB = net.HardwareAddr{0x66, 0x77, 0x88, 0x99, 0xaa, 0xbb}
	epoch = time.Date(2024, 3, 1, 12, 30, 45, 123456000, time.UTC)
)

func serialize(t *testing.T, l ...gopacket.SerializableLayer) []byte {
	t.Helper()
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	require.NoError(t, gopacket.SerializeLayers(buf, opts, l...))
	return buf.Bytes()
}

// arpProbe is an ARP request from 0.0.0.0 asking for target.
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

// httpRequest is an Ethernet/IPv4/TCP frame to port 80 carrying line.
func httpRequest(t *testing.T, line string) []byte {
	t.Helper()
	ip := &layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolTCP,
		SrcIP:    net.IPv4(192, 168, 1, 10),
		DstIP:    net.IPv4(192, 168, 1, 20),
	}
	tcp := &layers.TCP{SrcPort: 49152, DstPort: 80, Seq: 1, Ack: 1, PSH: true, ACK: true, Window: 502}
	require.NoError(t, tcp.SetNetworkLayerForChecksum(ip))
	return serialize(t,
		&layers.Ethernet{SrcMAC: hostA, DstMAC: hostB, EthernetType: layers.EthernetTypeIPv4},
		ip, tcp, gopacket.Payload(line+"\r\nHost: example.com\r\n\r\n"),
	)
}

// writePCAP writes a classic capture holding frames one second apart.
func writePCAP(t *testing.T, frames ...[]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := pcapgo.NewWriter(&buf)
	require.NoError(t, w.WriteFileHeader(65536, layers.LinkTypeEthernet))
	for i, f := range frames {
		ci := gopacket.CaptureInfo{
			Timestamp:     epoch.Add(time.Duration(i) * time.Second),
			CaptureLength: len(f),
			Length:        len(f),
		}
		require.NoError(t, w.WritePacket(ci, f))
	}
	return buf.Bytes()
}

// writePCAPNG writes a one-interface pcapng capture with nanosecond timestamps.
func writePCAPNG(t *testing.T, frames ...[]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	intf := pcapgo.NgInterface{
		Name:                "eth0",
		LinkType:            layers.LinkTypeEthernet,
		SnapLength:          65536,
		TimestampResolution: 9,
	}
	w, err := pcapgo.NewNgWriterInterface(&buf, intf, pcapgo.NgWriterOptions{
		SectionInfo: pcapgo.NgSectionInfo{Application: "pcapview-test"},
	})
	require.NoError(t, err)
	for i, f := range frames {
		ci := gopacket.CaptureInfo{
			Timestamp:     epoch.Add(time.Duration(i) * time.Millisecond),
			CaptureLength: len(f),
			Length:        len(f),
		}
		require.NoError(t, w.WritePacket(ci, f))
	}
	require.NoError(t, w.Flush())
	return buf.Bytes()
}

// ngBlock assembles one little-endian pcapng block around body.
func ngBlock(typ uint32, body []byte) []byte {
	n := blockHeaderLen + pad4(len(body)) + 4
	b := make([]byte, n)
	binary.LittleEndian.PutUint32(b, typ)
	binary.LittleEndian.PutUint32(b[4:], uint32(n))
	copy(b[8:], body)
	binary.LittleEndian.PutUint32(b[n-4:], uint32(n))
	return b
}

// ngOption assembles one little-endian option, padded to four bytes.
func ngOption(code uint16, value []byte) []byte {
	b := make([]byte, 4+pad4(len(value)))
	binary.LittleEndian.PutUint16(b, code)
	binary.LittleEndian.PutUint16(b[2:], uint16(len(value)))
	copy(b[4:], value)
	return b
}

func ngEndOfOptions() []byte { return make([]byte, 4) }

func ngSection(opts ...[]byte) []byte {
	body := []byte{0x4d, 0x3c, 0x2b, 0x1a, 1, 0, 0, 0, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
	for _, o := range opts {
		body = append(body, o...)
	}
	return ngBlock(blockSection, body)
}

func ngInterface(link uint16, opts ...[]byte) []byte {
	body := make([]byte, 8)
	binary.LittleEndian.PutUint16(body, link)
	binary.LittleEndian.PutUint32(body[4:], 65535)
	for _, o := range opts {
		body = append(body, o...)
	}
	return ngBlock(blockInterface, body)
}

func ngEnhanced(iface uint32, ts uint64, frame []byte, opts ...[]byte) []byte {
	body := make([]byte, 20, 20+len(frame))
	binary.LittleEndian.PutUint32(body, iface)
	binary.LittleEndian.PutUint32(body[4:], uint32(ts>>32))
	binary.LittleEndian.PutUint32(body[8:], uint32(ts))
	binary.LittleEndian.PutUint32(body[12:], uint32(len(frame)))
	binary.LittleEndian.PutUint32(body[16:], uint32(len(frame)))
	body = append(body, frame...)
	body = append(body, make([]byte, pad4(len(frame))-len(frame))...)
	for _, o := range opts {
		body = append(body, o...)
	}
	return ngBlock(blockEnhancedPacket, body)
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
