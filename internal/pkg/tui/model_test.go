package tui

import (
	"bytes"
	"log/slog"
	"net"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/endorses/pcapview/internal/pkg/capture"
	"github.com/endorses/pcapview/internal/pkg/logger"
	"github.com/endorses/pcapview/internal/pkg/output"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/stretchr/testify/assert"
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
	require.NoError(t, gopacket.SerializeLayers(buf, gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}, l...))
	return buf.Bytes()
}

func testCapture(t *testing.T) *capture.Context {
	t.Helper()
	arp := serialize(t,
		&layers.Ethernet{SrcMAC: hostA, DstMAC: layers.EthernetBroadcast, EthernetType: layers.EthernetTypeARP},
		&layers.ARP{
			AddrType: layers.LinkTypeEthernet, Protocol: layers.EthernetTypeIPv4,
			HwAddressSize: 6, ProtAddressSize: 4, Operation: layers.ARPRequest,
			SourceHwAddress: hostA, SourceProtAddress: net.IPv4zero.To4(),
			DstHwAddress: make([]byte, 6), DstProtAddress: net.IPv4(10, 0, 0, 7).To4(),
		},
	)
	ip := &layers.IPv4{Version: 4, TTL: 64, Protocol: layers.IPProtocolTCP,
		SrcIP: net.IPv4(192, 168, 1, 10), DstIP: net.IPv4(192, 168, 1, 20)}
	tcp := &layers.TCP{SrcPort: 49152, DstPort: 80, Seq: 1, Ack: 1, PSH: true, ACK: true, Window: 502}
	require.NoError(t, tcp.SetNetworkLayerForChecksum(ip))
	http := serialize(t,
		&layers.Ethernet{SrcMAC: hostA, DstMAC: hostB, EthernetType: layers.EthernetTypeIPv4},
		ip, tcp, gopacket.Payload("GET /x HTTP/1.1\r\nHost: example.com\r\n\r\n"),
	)

	var buf bytes.Buffer
	w := pcapgo.NewWriter(&buf)
	require.NoError(t, w.WriteFileHeader(65536, layers.LinkTypeEthernet))
	for i, f := range [][]byte{arp, http} {
		ci := gopacket.CaptureInfo{Timestamp: epoch.Add(time.Duration(i) * time.Second), CaptureLength: len(f), Length: len(f)}
		require.NoError(t, w.WritePacket(ci, f))
	}
	c := capture.Parse(buf.Bytes(), capture.Options{})
	require.NoError(t, c.FrameError())
	return c
}

func newModel(t *testing.T, logs *logger.ConsoleBuffer) Model {
	t.Helper()
	m := New(Config{
		Title:   "test.pcap",
		Capture: testCapture(t),
		Display: output.LineOptions{LineNumbers: true, Comments: true},
		Logs:    logs,
	})
	return send(m, tea.WindowSizeMsg{Width: 120, Height: 40})
}

func send(m Model, msgs ...tea.Msg) Model {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func keys(s string) []tea.Msg {
	var out []tea.Msg
	for _, r := range s {
		out = append(out, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return out
}

var (
	down  = tea.KeyMsg{Type: tea.KeyDown}
	up    = tea.KeyMsg{Type: tea.KeyUp}
	tab   = tea.KeyMsg{Type: tea.KeyTab}
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
)

func rowLabels(m Model) []string {
	out := make([]string, 0, len(m.rows))
	for _, r := range m.rows {
		out = append(out, r.field.Label)
	}
	return out
}

func TestModel_InitialView(t *testing.T) {
	m := newModel(t, nil)
	assert.Nil(t, m.Init())

	require.NotNil(t, m.Selected())
	assert.IsType(t, &capture.FileHeader{}, m.Selected())

	view := m.View()
	assert.Contains(t, view, "test.pcap")
	assert.Contains(t, view, "3 records, 2 packets")
	assert.Contains(t, view, "No packet data")
	assert.Contains(t, view, "1/3")
}

func TestModel_LoadingBeforeSize(t *testing.T) {
	m := New(Config{Capture: testCapture(t)})
	assert.Equal(t, "Loading...\n", m.View())
}

func TestModel_ListNavigation(t *testing.T) {
	m := newModel(t, nil)

	m = send(m, down)
	require.Equal(t, 1, m.Selected().Number())
	assert.Equal(t, "Frame 1", m.rows[0].field.Label)
	assert.NotEmpty(t, m.hexRows)

	m = send(m, down, down, down)
	assert.Equal(t, 2, m.Selected().Number())
	assert.Contains(t, m.capture.Line(m.Selected()), "GET /x HTTP/1.1")

	m = send(m, up)
	assert.Equal(t, 1, m.Selected().Number())

	m = send(m, keys("g")...)
	assert.Equal(t, 0, m.cursor)
	m = send(m, keys("G")...)
	assert.Equal(t, 2, m.cursor)
}

func TestModel_FieldSelectionHighlightsHex(t *testing.T) {
	m := newModel(t, nil)
	m = send(m, down, tab)
	require.Equal(t, paneFields, m.focus)

	i := -1
	for n, r := range m.rows {
		if r.field.Label == "Ethernet II" {
			i = n
			break
		}
	}
	require.GreaterOrEqual(t, i, 0, "labels: %v", rowLabels(m))
	for j := 0; j < i; j++ {
		m = send(m, down)
	}
	require.Equal(t, i, m.fieldCursor)

	off, n := m.selection()
	assert.Equal(t, 14, n)
	assert.Equal(t, m.Selected().(capture.Packet).Data().Offset(), off)

	// 14 bytes cover the first row and six bytes of the second.
	assert.Equal(t, 0, m.hexRows[0].SelFrom)
	assert.Equal(t, 8, m.hexRows[0].SelTo)
	assert.Equal(t, 6, m.hexRows[1].SelTo)
	assert.Equal(t, m.hexRows[2].SelFrom, m.hexRows[2].SelTo)
	assert.Contains(t, m.View(), "selected")
}

func TestModel_ToggleCollapse(t *testing.T) {
	m := newModel(t, nil)
	m = send(m, down, tab)
	total := len(m.rows)
	require.Greater(t, total, 1)

	m = send(m, enter)
	assert.Len(t, m.rows, total-len(flatten(m.fields[:1], map[string]bool{}))+1)
	assert.Contains(t, m.View(), "▸ Frame 1")

	m = send(m, enter)
	assert.Len(t, m.rows, total)
}

func TestModel_HexFocusNarrowsFields(t *testing.T) {
	m := newModel(t, nil)
	m = send(m, down, tab, tab)
	require.Equal(t, paneHex, m.focus)

	labels := rowLabels(m)
	assert.Contains(t, labels, "Ethernet II")
	assert.NotContains(t, labels, "Arrival Time")
	assert.Contains(t, m.View(), "Fields (at selection)")

	first := m.hexRows[0]
	off, n := m.selection()
	assert.Equal(t, first.Offset, off)
	assert.Equal(t, 8, n)

	m = send(m, down, down)
	assert.Equal(t, 2, m.hexRow)
	assert.Equal(t, m.hexRows[2].Offset, func() int { o, _ := m.selection(); return o }())
	assert.NotContains(t, rowLabels(m), "Destination Address")

	m = send(m, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, paneFields, m.focus)
}

func TestModel_Filter(t *testing.T) {
	m := newModel(t, nil)

	m = send(m, keys("/")...)
	require.True(t, m.filtering)
	m = send(m, keys("HTTP")...)
	m = send(m, enter)

	assert.False(t, m.filtering)
	assert.Equal(t, "HTTP", m.query)
	require.Len(t, m.visible, 1)
	assert.Equal(t, 2, m.Selected().Number())
	assert.Contains(t, m.View(), "[filter: HTTP, 1 shown]")

	m = send(m, keys("/")...)
	m = send(m, tea.KeyMsg{Type: tea.KeyBackspace}, tea.KeyMsg{Type: tea.KeyBackspace},
		tea.KeyMsg{Type: tea.KeyBackspace}, tea.KeyMsg{Type: tea.KeyBackspace})
	m = send(m, keys("10.0.0.7")...)
	m = send(m, enter)
	require.Len(t, m.visible, 1)
	assert.Equal(t, 1, m.Selected().Number())

	m = send(m, esc)
	assert.Empty(t, m.query)
	assert.Len(t, m.visible, 3)
}

func TestModel_FilterWithoutMatches(t *testing.T) {
	m := newModel(t, nil)
	m = send(m, keys("/nothing")...)
	m = send(m, enter)

	assert.Empty(t, m.visible)
	assert.Nil(t, m.Selected())
	assert.Contains(t, m.View(), "No records match")

	// Navigation on an empty list is a no-op.
	m = send(m, down, tab, down, tab, down)
	assert.Nil(t, m.Selected())
}

func TestModel_FilterEscapeKeepsQuery(t *testing.T) {
	m := newModel(t, nil)
	m = send(m, keys("/ARP")...)
	m = send(m, enter)
	m = send(m, keys("/x")...)
	m = send(m, esc)

	assert.False(t, m.filtering)
	assert.Equal(t, "ARP", m.query)
}

func TestModel_LogPane(t *testing.T) {
	buf := logger.NewConsoleBuffer(10)
	buf.Add(logger.LogEntry{Time: epoch, Level: slog.LevelWarn, Message: "Stopped framing capture", Attrs: "offset=24"})

	m := newModel(t, buf)
	m = send(m, keys("L")...)
	require.True(t, m.showLog)
	view := m.View()
	assert.Contains(t, view, "Log")
	assert.Contains(t, view, "WRN Stopped framing capture")

	nolog := send(newModel(t, nil), keys("L")...)
	assert.False(t, nolog.showLog)
}

func TestModel_HelpAndQuit(t *testing.T) {
	m := newModel(t, nil)
	m = send(m, keys("?")...)
	assert.True(t, m.help.ShowAll)
	assert.Contains(t, m.View(), "toggle log")

	next, cmd := m.Update(keys("q")[0])
	require.NotNil(t, cmd)
	assert.Equal(t, "", next.(Model).View())
}

func TestScrollTo(t *testing.T) {
	tests := []struct {
		name                   string
		cursor, offset, height int
		want                   int
	}{
		{"inside", 3, 0, 10, 0},
		{"above", 2, 5, 10, 2},
		{"below", 12, 0, 10, 3},
		{"no room", 5, 2, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scrollTo(tt.cursor, tt.offset, tt.height))
		})
	}
}

func TestFlatten(t *testing.T) {
	m := newModel(t, nil)
	m = send(m, down)
	rows := flatten(m.fields, map[string]bool{})
	require.NotEmpty(t, rows)
	assert.Equal(t, 0, rows[0].depth)
	assert.True(t, strings.HasPrefix(rows[0].path, "/0:Frame 1"))
	assert.Equal(t, 1, rows[1].depth)

	frameRows := len(flatten(m.fields[:1], map[string]bool{}))
	collapsed := map[string]bool{rows[0].path: true}
	assert.Len(t, flatten(m.fields, collapsed), len(rows)-(frameRows-1))

	for _, r := range rows {
		if r.depth == 0 {
			collapsed[r.path] = true
		}
	}
	assert.Len(t, flatten(m.fields, collapsed), len(m.fields))
}

func TestClamp(t *testing.T) {
	tests := []struct {
		v, lo, hi, want int
	}{
		{5, 0, 9, 5},
		{-3, 0, 9, 0},
		{12, 0, 9, 9},
		{1, 0, -1, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, clamp(tt.v, tt.lo, tt.hi))
	}
}
