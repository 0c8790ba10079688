package output

import (
	"bytes"
	"encoding/json"
	"net"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/endorses/pcapview/internal/pkg/capture"
	"github.com/endorses/pcapview/internal/pkg/dissect"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

var (
	hostA = net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}
	epoch = time.Date(2024, 3, 1, 12, 30, 45, 123456000, time.UTC)
)

func arpProbe(t *testing.T, target net.IP) []byte {
	t.Helper()
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true}
	require.NoError(t, gopacket.SerializeLayers(buf, opts,
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
	))
	return buf.Bytes()
}

// commentedCapture is a pcapng capture whose section carries a comment,
// followed by two ARP probes.
func commentedCapture(t *testing.T) *capture.Context {
	t.Helper()
	var buf bytes.Buffer
	w, err := pcapgo.NewNgWriterInterface(&buf, pcapgo.NgInterface{
		Name:                "eth0",
		LinkType:            layers.LinkTypeEthernet,
		SnapLength:          65536,
		TimestampResolution: 9,
	}, pcapgo.NgWriterOptions{SectionInfo: pcapgo.NgSectionInfo{Application: "pcapview-test", Comment: "lab capture"}})
	require.NoError(t, err)
	for i, ip := range []net.IP{net.IPv4(10, 0, 0, 7), net.IPv4(10, 0, 0, 8)} {
		f := arpProbe(t, ip)
		ci := gopacket.CaptureInfo{Timestamp: epoch.Add(time.Duration(i) * time.Second), CaptureLength: len(f), Length: len(f)}
		require.NoError(t, w.WritePacket(ci, f))
	}
	require.NoError(t, w.Flush())

	c := capture.Parse(buf.Bytes(), capture.Options{})
	require.NoError(t, c.FrameError())
	return c
}

func TestMarshal(t *testing.T) {
	v := IndexView{Key: "ARP", Count: 2, Packets: []int{1, 2}}

	data, err := Marshal(FormatJSON, v)
	require.NoError(t, err)
	var back IndexView
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, v, back)

	data, err = Marshal(FormatYAML, v)
	require.NoError(t, err)
	assert.Equal(t, "key: ARP\ncount: 2\npackets:\n  - 1\n  - 2\n", string(data))

	_, err = Marshal("xml", v)
	assert.Error(t, err)
}

func TestMarshalJSONPretty(t *testing.T) {
	v := map[string]int{"a": 1}
	compact, err := MarshalJSONPretty(v, false)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(compact))

	pretty, err := MarshalJSONPretty(v, true)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 1\n}", string(pretty))
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, IsTerminal(&bytes.Buffer{}))

	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer f.Close()
	assert.False(t, IsTerminal(f))
}

func TestValidFormat(t *testing.T) {
	for _, f := range []string{FormatText, FormatJSON, FormatYAML} {
		assert.True(t, ValidFormat(f), f)
	}
	assert.False(t, ValidFormat("csv"))
}

func TestWriteLines(t *testing.T) {
	c := commentedCapture(t)

	tests := []struct {
		name  string
		opts  LineOptions
		first string
		arp   string
	}{
		{"numbers and comments", LineOptions{Comments: true, LineNumbers: true}, "// lab capture", "1  12:30:45.123456 (0x0806): ARP, Who has 10.0.0.7?"},
		{"plain", LineOptions{}, "pcapng 1.0", "12:30:45.123456 (0x0806): ARP, Who has 10.0.0.7?"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WriteLines(&buf, c, c.Records(), tt.opts, PlainStyles()))
			lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")

			assert.True(t, strings.HasPrefix(lines[0], tt.first), lines[0])
			var arp []string
			for _, l := range lines {
				if strings.Contains(l, "ARP") {
					arp = append(arp, l)
				}
			}
			require.Len(t, arp, 2)
			assert.True(t, strings.HasPrefix(arp[0], tt.arp), arp[0])
		})
	}
}

func TestWriteLines_UnnumberedRecordsAreIndented(t *testing.T) {
	c := commentedCapture(t)
	var buf bytes.Buffer
	require.NoError(t, WriteLines(&buf, c, c.Records()[:1], LineOptions{LineNumbers: true}, PlainStyles()))
	assert.True(t, strings.HasPrefix(buf.String(), "   pcapng 1.0"), buf.String())
}

func TestRenderFields(t *testing.T) {
	fields := []*dissect.Field{
		{Label: "Ethernet II", Value: "a > b", Length: 14, Children: []*dissect.Field{
			{Label: "Destination", Value: "b", Length: 6},
			{Label: "Source", Value: "a", Offset: 6, Length: 6},
		}},
		{Label: "ARP"},
	}
	out := RenderFields(fields, PlainStyles())
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "Ethernet II: a > b")
	assert.Contains(t, lines[1], "Destination: b")
	assert.Contains(t, lines[2], "Source: a")
	assert.Contains(t, lines[3], "ARP")
	assert.Less(t, strings.Index(lines[0], "E"), strings.Index(lines[1], "D"))
}

func TestPacketCount(t *testing.T) {
	assert.Equal(t, "1 packet", PacketCount(1))
	assert.Equal(t, "0 packets", PacketCount(0))
	assert.Equal(t, "3 packets", PacketCount(3))
}

func TestWriteIndex(t *testing.T) {
	c := commentedCapture(t)
	var buf bytes.Buffer
	require.NoError(t, WriteIndex(&buf, "Protocols", c.Protocols(), PlainStyles()))
	assert.Equal(t, "Protocols\n  ARP  2 packets\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteIndex(&buf, "Empty", nil, PlainStyles()))
	assert.Equal(t, "Empty\n  (none)\n", buf.String())
}

func TestWriteAddressGroups(t *testing.T) {
	c := commentedCapture(t)
	var buf bytes.Buffer
	require.NoError(t, WriteAddressGroups(&buf, c.AddressGroups(), PlainStyles()))
	out := buf.String()

	for _, want := range []string{"Hardware\n", "IPv4\n", "IPv6\n  (none)\n", "10.0.0.7  1 packet", "0.0.0.0   2 packets"} {
		assert.Contains(t, out, want)
	}
	assert.Less(t, strings.Index(out, "Hardware"), strings.Index(out, "IPv4"))
}

func TestRenderHexDump(t *testing.T) {
	rows := []capture.HexRow{
		{Index: "0000", Hex: "47 45 54 20 2f 20 48 54 ", ASCII: "GET / HT", SelFrom: 0, SelTo: 3},
		{Index: "0008", Hex: "54 50 ", ASCII: "TP"},
	}
	out := RenderHexDump(rows, PlainStyles())
	assert.Equal(t, "0000  47 45 54 20 2f 20 48 54  GET / HT\n0008  54 50                    TP", out)

	marked := mark("abcdef", 1, 3, PlainStyles().Selected)
	assert.Equal(t, "abcdef", marked)
	assert.Equal(t, "ab", mark("ab", 5, 9, PlainStyles().Selected))
}

func TestCaptureView(t *testing.T) {
	c := commentedCapture(t)
	v := NewCaptureView(c, true)

	assert.Equal(t, "pcapng", v.FileType)
	assert.Equal(t, 2, v.Packets)
	assert.Empty(t, v.FrameError)
	require.Len(t, v.Records, len(c.Records()))
	assert.Equal(t, []string{"lab capture"}, v.Records[0].Comments)

	last := v.Records[len(v.Records)-1]
	assert.Equal(t, 2, last.Number)
	require.NotEmpty(t, last.Fields)
	assert.Equal(t, "Frame 2", last.Fields[0].Label)

	data, err := MarshalYAML(v)
	require.NoError(t, err)
	var back CaptureView
	require.NoError(t, yaml.Unmarshal(data, &back))
	assert.Equal(t, v.Records[1].Line, back.Records[1].Line)
}

func TestIndexViews(t *testing.T) {
	c := commentedCapture(t)
	views := NewIndexViews(c.Protocols())
	require.Len(t, views, 1)
	assert.Equal(t, IndexView{Key: "ARP", Count: 2, Packets: []int{1, 2}}, views[0])

	groups := NewAddressGroupViews(c.AddressGroups())
	require.Len(t, groups, 3)
	assert.Equal(t, capture.GroupHardware, groups[0].Name)
	assert.Empty(t, groups[2].Entries)
}
