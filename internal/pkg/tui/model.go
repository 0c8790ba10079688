// Package tui is the interactive capture viewer: a record list, the field
// tree of the selected record and its hex dump, with the selection in one
// pane highlighted in the others.
package tui

import (
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/endorses/pcapview/internal/pkg/capture"
	"github.com/endorses/pcapview/internal/pkg/dissect"
	"github.com/endorses/pcapview/internal/pkg/logger"
	"github.com/endorses/pcapview/internal/pkg/output"
)

type pane int

const (
	paneList pane = iota
	paneFields
	paneHex
	paneCount
)

// Config describes what the viewer shows.
type Config struct {
	Title   string
	Capture *capture.Context
	Display output.LineOptions
	Theme   Theme
	// Logs, when set, is shown in place of the hex pane on request.
	Logs *logger.ConsoleBuffer
}

// fieldRow is one visible line of the flattened field tree.
type fieldRow struct {
	field *dissect.Field
	depth int
	path  string
}

// Model is the bubbletea model of the viewer.
type Model struct {
	title   string
	capture *capture.Context
	display output.LineOptions
	theme   Theme
	styles  output.Styles
	keys    keyMap
	help    help.Model
	logs    *logger.ConsoleBuffer

	filter    textinput.Model
	filtering bool
	query     string
	visible   []capture.Record

	cursor     int
	listOffset int

	fields      []*dissect.Field
	rows        []fieldRow
	collapsed   map[string]bool
	fieldCursor int
	fieldOffset int

	hex     viewport.Model
	hexRows []capture.HexRow
	hexRow  int

	focus    pane
	showLog  bool
	width    int
	height   int
	quitting bool
}

// New creates the viewer positioned on the first record.
func New(cfg Config) Model {
	ti := textinput.New()
	ti.Prompt = "/"
	ti.Placeholder = "protocol or address"

	theme := cfg.Theme
	if theme.Name == "" {
		theme = Solarized()
	}
	m := Model{
		title:     cfg.Title,
		capture:   cfg.Capture,
		display:   cfg.Display,
		theme:     theme,
		styles:    theme.styles(),
		keys:      defaultKeyMap(),
		help:      help.New(),
		logs:      cfg.Logs,
		filter:    ti,
		collapsed: make(map[string]bool),
		hex:       viewport.New(0, 0),
	}
	m.applyFilter("")
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.resize()
		return m, nil
	case tea.KeyMsg:
		return m.handleKeyboard(msg)
	}
	return m, nil
}

// Selected returns the record under the cursor, or nil when nothing is listed.
func (m Model) Selected() capture.Record {
	if m.cursor < 0 || m.cursor >= len(m.visible) {
		return nil
	}
	return m.visible[m.cursor]
}

// applyFilter lists the records whose protocol or address index contains
// query. An empty query lists every record.
func (m *Model) applyFilter(query string) {
	m.query = strings.TrimSpace(query)
	if m.query == "" {
		m.visible = m.capture.Records()
	} else {
		seen := make(map[int]capture.Record)
		for _, rec := range m.capture.ProtocolRecords(m.query) {
			seen[rec.Index()] = rec
		}
		for _, rec := range m.capture.AddressRecords(m.query) {
			seen[rec.Index()] = rec
		}
		m.visible = make([]capture.Record, 0, len(seen))
		for _, rec := range seen {
			m.visible = append(m.visible, rec)
		}
		sort.Slice(m.visible, func(i, j int) bool { return m.visible[i].Index() < m.visible[j].Index() })
	}
	m.cursor, m.listOffset = 0, 0
	m.loadRecord()
}

// loadRecord rebuilds the field and hex panes for the selected record.
func (m *Model) loadRecord() {
	m.fields, m.hexRows = nil, nil
	m.collapsed = make(map[string]bool)
	m.fieldCursor, m.fieldOffset, m.hexRow = 0, 0, 0
	if rec := m.Selected(); rec != nil {
		m.fields = m.capture.Fields(rec)
	}
	m.refresh()
}

// selection is the byte range highlighted across panes: the hex row under
// the cursor while the hex pane has focus, the selected field otherwise.
func (m *Model) selection() (offset, length int) {
	if m.focus == paneHex {
		if m.hexRow < len(m.hexRows) {
			r := m.hexRows[m.hexRow]
			return r.Offset, len(r.ASCII)
		}
		return 0, 0
	}
	if m.fieldCursor < len(m.rows) {
		f := m.rows[m.fieldCursor].field
		return f.Offset, f.Length
	}
	return 0, 0
}

// refresh recomputes the visible field rows and the hex dump from the
// current selection.
func (m *Model) refresh() {
	rec := m.Selected()
	p, isPacket := rec.(capture.Packet)

	fields := m.fields
	if m.focus == paneHex && isPacket && m.hexRow < len(m.hexRows) {
		r := m.hexRows[m.hexRow]
		fields = dissect.Narrow(m.fields, r.Offset, len(r.ASCII))
	}
	m.rows = flatten(fields, m.collapsed)
	m.fieldCursor = clamp(m.fieldCursor, 0, len(m.rows)-1)

	if !isPacket {
		m.hexRows = nil
		m.hex.SetContent("")
		return
	}
	off, n := m.selection()
	m.hexRows = capture.HexDump(p, off, n)
	m.hexRow = clamp(m.hexRow, 0, len(m.hexRows)-1)
	m.hex.SetContent(output.RenderHexDump(m.hexRows, m.styles))
	m.scrollHex()
}

// scrollHex keeps the focused hex row, or the first selected row, in view.
func (m *Model) scrollHex() {
	target := m.hexRow
	if m.focus != paneHex {
		for i, r := range m.hexRows {
			if r.SelFrom != r.SelTo {
				target = i
				break
			}
		}
	}
	if m.hex.Height <= 0 {
		return
	}
	if target < m.hex.YOffset {
		m.hex.SetYOffset(target)
	} else if target >= m.hex.YOffset+m.hex.Height {
		m.hex.SetYOffset(target - m.hex.Height + 1)
	}
}

func flatten(fields []*dissect.Field, collapsed map[string]bool) []fieldRow {
	var rows []fieldRow
	var walk func(fs []*dissect.Field, depth int, prefix string)
	walk = func(fs []*dissect.Field, depth int, prefix string) {
		for i, f := range fs {
			path := prefix + "/" + strconv.Itoa(i) + ":" + f.Label
			rows = append(rows, fieldRow{field: f, depth: depth, path: path})
			if !collapsed[path] {
				walk(f.Children, depth+1, path)
			}
		}
	}
	walk(fields, 0, "")
	return rows
}

func clamp(v, lo, hi int) int {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}
