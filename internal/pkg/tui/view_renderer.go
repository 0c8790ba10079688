package tui

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/endorses/pcapview/internal/pkg/capture"
	"github.com/endorses/pcapview/internal/pkg/output"
)

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading...\n"
	}

	leftW, rightW := m.lowerWidths()
	right := m.renderHex(rightW)
	if m.showLog {
		right = m.renderLog(rightW)
	}
	parts := []string{
		m.renderHeader(),
		m.renderList(),
		lipgloss.JoinHorizontal(lipgloss.Top, m.renderFields(leftW), right),
	}
	if m.filtering {
		parts = append(parts, m.filter.View())
	}
	parts = append(parts, m.renderStatus(), m.help.View(m.keys))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// resize recomputes pane geometry after the window or the chrome changed.
func (m *Model) resize() {
	_, rightW := m.lowerWidths()
	m.hex.Width = max(rightW-4, 1)
	m.hex.Height = max(m.lowerHeight()-1, 1)
	m.listOffset = scrollTo(m.cursor, m.listOffset, m.listHeight())
	m.fieldOffset = scrollTo(m.fieldCursor, m.fieldOffset, m.lowerHeight()-1)
	m.scrollHex()
}

func (m Model) chromeHeight() int {
	h := 2 + lipgloss.Height(m.help.View(m.keys))
	if m.filtering {
		h++
	}
	return h
}

func (m Model) bodyHeight() int {
	return max(m.height-m.chromeHeight(), 6)
}

func (m Model) listOuterHeight() int {
	return max(m.bodyHeight()*2/5, 3)
}

// listHeight is the number of record lines the list pane shows.
func (m Model) listHeight() int {
	return max(m.listOuterHeight()-2, 1)
}

// lowerHeight is the number of lines the field and hex panes show.
func (m Model) lowerHeight() int {
	return max(m.bodyHeight()-m.listOuterHeight()-2, 1)
}

func (m Model) lowerWidths() (int, int) {
	right := max(m.width*2/5, output.HexDumpWidth()+4)
	right = min(right, m.width)
	return m.width - right, right
}

func (m Model) renderPane(title, body string, width, height int, focused bool) string {
	inner := max(width-4, 1)
	lines := strings.Split(body, "\n")
	for i, l := range lines {
		lines[i] = lipgloss.NewStyle().MaxWidth(inner).Render(l)
	}
	style := m.theme.pane(focused).Width(max(width-2, 1)).Height(height)
	content := strings.Join(lines, "\n")
	if title != "" {
		content = lipgloss.NewStyle().Bold(true).Render(title) + "\n" + content
		style = style.Height(height + 1)
	}
	return style.Render(content)
}

func (m Model) renderHeader() string {
	text := fmt.Sprintf("pcapview  %s  %s, %d records, %d packets",
		m.title, m.capture.FileType(), len(m.capture.Records()), m.capture.PacketCount())
	if m.query != "" {
		text += fmt.Sprintf("  [filter: %s, %d shown]", m.query, len(m.visible))
	}
	return m.styles.Header.Width(m.width).MaxWidth(m.width).Render(text)
}

func (m Model) renderList() string {
	height := m.listHeight()
	if len(m.visible) == 0 {
		return m.renderPane("", "No records match", m.width, height, m.focus == paneList)
	}
	width := len(strconv.Itoa(m.capture.PacketCount()))
	end := min(m.listOffset+height, len(m.visible))
	lines := make([]string, 0, height)
	for i := m.listOffset; i < end; i++ {
		line := m.recordLine(m.visible[i], width)
		if i == m.cursor {
			line = m.theme.cursor().Render(line)
		}
		lines = append(lines, line)
	}
	return m.renderPane("", strings.Join(lines, "\n"), m.width, height, m.focus == paneList)
}

func (m Model) recordLine(rec capture.Record, width int) string {
	line := strings.TrimRight(m.capture.Line(rec), " \t")
	if m.display.LineNumbers {
		num := strings.Repeat(" ", width)
		if rec.Number() > 0 {
			num = fmt.Sprintf("%*d", width, rec.Number())
		}
		line = num + "  " + line
	}
	if m.display.Comments && len(rec.Comments()) > 0 {
		line += "  // " + strings.Join(rec.Comments(), " // ")
	}
	return line
}

func (m Model) renderFields(width int) string {
	height := m.lowerHeight() - 1
	var lines []string
	if rec := m.Selected(); rec != nil && m.display.Comments {
		for _, c := range rec.Comments() {
			lines = append(lines, m.styles.Comment.Render("// "+c))
		}
	}
	room := max(height-len(lines), 1)
	end := min(m.fieldOffset+room, len(m.rows))
	for i := m.fieldOffset; i < end; i++ {
		lines = append(lines, m.fieldLine(i))
	}
	title := "Fields"
	if m.focus == paneHex {
		title = "Fields (at selection)"
	}
	return m.renderPane(title, strings.Join(lines, "\n"), width, height, m.focus == paneFields)
}

func (m Model) fieldLine(i int) string {
	row := m.rows[i]
	marker := "  "
	if len(row.field.Children) > 0 {
		marker = "▾ "
		if m.collapsed[row.path] {
			marker = "▸ "
		}
	}
	text := row.field.Label
	if row.field.Value != "" {
		text += ": " + row.field.Value
	}
	line := strings.Repeat("  ", row.depth) + marker + text
	if i == m.fieldCursor {
		line = m.theme.cursor().Render(line)
	}
	return line
}

func (m Model) renderHex(width int) string {
	body := m.hex.View()
	if len(m.hexRows) == 0 {
		body = "No packet data"
	}
	return m.renderPane("Hex", body, width, m.lowerHeight()-1, m.focus == paneHex)
}

func (m Model) renderLog(width int) string {
	height := m.lowerHeight() - 1
	entries := m.logs.GetRecent(height)
	lines := make([]string, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		line := entries[i].String()
		if entries[i].Level >= slog.LevelWarn {
			line = lipgloss.NewStyle().Foreground(m.theme.WarningColor).Render(line)
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		lines = append(lines, "No log messages")
	}
	return m.renderPane("Log", strings.Join(lines, "\n"), width, height, false)
}

func (m Model) renderStatus() string {
	parts := []string{fmt.Sprintf("%d/%d", min(m.cursor+1, len(m.visible)), len(m.visible))}
	if rec := m.Selected(); rec != nil {
		parts = append(parts, fmt.Sprintf("offset 0x%x, %d bytes", rec.Offset(), rec.End()-rec.Offset()))
	}
	if off, n := m.selection(); n > 0 {
		parts = append(parts, fmt.Sprintf("selected 0x%x+%d", off, n))
	}
	status := strings.Join(parts, "  ·  ")
	if err := m.capture.FrameError(); err != nil {
		status += "  ·  " + lipgloss.NewStyle().Foreground(m.theme.ErrorColor).Render("framing stopped: "+err.Error())
	}
	return m.theme.statusBar().Width(m.width).MaxWidth(m.width).Render(status)
}
