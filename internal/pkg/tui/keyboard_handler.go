package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// handleKeyboard processes keyboard events for the viewer
func (m Model) handleKeyboard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.filtering {
		return m.handleFilterInput(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.resize()
	case key.Matches(msg, m.keys.Focus):
		step := pane(1)
		if msg.String() == "shift+tab" {
			step = paneCount - 1
		}
		m.focus = (m.focus + step) % paneCount
		m.refresh()
	case key.Matches(msg, m.keys.Filter):
		m.filtering = true
		m.filter.SetValue(m.query)
		m.filter.CursorEnd()
		m.resize()
		cmd := m.filter.Focus()
		return m, tea.Batch(cmd, textinput.Blink)
	case key.Matches(msg, m.keys.Clear):
		if m.query != "" {
			m.applyFilter("")
		}
	case key.Matches(msg, m.keys.Log):
		if m.logs != nil {
			m.showLog = !m.showLog
		}
	case key.Matches(msg, m.keys.Toggle):
		m.toggleField()
	case key.Matches(msg, m.keys.Up):
		m.move(-1)
	case key.Matches(msg, m.keys.Down):
		m.move(1)
	case key.Matches(msg, m.keys.PageUp):
		m.move(-m.pageSize())
	case key.Matches(msg, m.keys.PageDown):
		m.move(m.pageSize())
	case key.Matches(msg, m.keys.Home):
		m.move(-1 << 30)
	case key.Matches(msg, m.keys.End):
		m.move(1 << 30)
	}
	return m, nil
}

// handleFilterInput edits the filter query. Enter applies it, esc leaves it
// unchanged.
func (m Model) handleFilterInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.filtering = false
		m.filter.Blur()
		m.applyFilter(m.filter.Value())
		m.resize()
		return m, nil
	case tea.KeyEsc:
		m.filtering = false
		m.filter.Blur()
		m.resize()
		return m, nil
	case tea.KeyCtrlC:
		m.quitting = true
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	return m, cmd
}

// move shifts the cursor of the focused pane by delta, clamped to its rows.
func (m *Model) move(delta int) {
	switch m.focus {
	case paneList:
		next := clamp(m.cursor+delta, 0, len(m.visible)-1)
		if next != m.cursor {
			m.cursor = next
			m.loadRecord()
		}
		m.listOffset = scrollTo(m.cursor, m.listOffset, m.listHeight())
	case paneFields:
		m.fieldCursor = clamp(m.fieldCursor+delta, 0, len(m.rows)-1)
		m.fieldOffset = scrollTo(m.fieldCursor, m.fieldOffset, m.lowerHeight()-1)
		m.refresh()
	case paneHex:
		m.hexRow = clamp(m.hexRow+delta, 0, len(m.hexRows)-1)
		m.fieldCursor, m.fieldOffset = 0, 0
		m.refresh()
	}
}

// toggleField collapses or expands the selected field node.
func (m *Model) toggleField() {
	if m.focus != paneFields || m.fieldCursor >= len(m.rows) {
		return
	}
	row := m.rows[m.fieldCursor]
	if len(row.field.Children) == 0 {
		return
	}
	m.collapsed[row.path] = !m.collapsed[row.path]
	m.refresh()
}

func (m Model) pageSize() int {
	switch m.focus {
	case paneList:
		return max(m.listHeight()-1, 1)
	default:
		return max(m.lowerHeight()-1, 1)
	}
}

// scrollTo returns the offset that keeps cursor inside a window of height rows.
func scrollTo(cursor, offset, height int) int {
	if height <= 0 {
		return 0
	}
	if cursor < offset {
		return cursor
	}
	if cursor >= offset+height {
		return cursor - height + 1
	}
	return offset
}
