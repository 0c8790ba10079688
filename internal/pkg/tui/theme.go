package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/endorses/pcapview/internal/pkg/output"
)

// Theme represents a color theme for the viewer
type Theme struct {
	Name string

	Foreground         lipgloss.Color
	HeaderBg           lipgloss.Color
	HeaderFg           lipgloss.Color
	StatusBarBg        lipgloss.Color
	StatusBarFg        lipgloss.Color
	SelectionBg        lipgloss.Color
	SelectionFg        lipgloss.Color
	BorderColor        lipgloss.Color
	FocusedBorderColor lipgloss.Color
	CommentColor       lipgloss.Color
	NumberColor        lipgloss.Color
	ErrorColor         lipgloss.Color
	WarningColor       lipgloss.Color
}

// Solarized color palette
var (
	solarizedBase03 = lipgloss.Color("#002b36")
	solarizedBase02 = lipgloss.Color("#073642")
	solarizedBase01 = lipgloss.Color("#586e75")
	solarizedBase0  = lipgloss.Color("#839496")
	solarizedBase1  = lipgloss.Color("#93a1a1")
	solarizedYellow = lipgloss.Color("#b58900")
	solarizedOrange = lipgloss.Color("#cb4b16")
	solarizedRed    = lipgloss.Color("#dc322f")
	solarizedBlue   = lipgloss.Color("#268bd2")
	solarizedGreen  = lipgloss.Color("#859900")
)

// Solarized returns the Solarized Dark theme
func Solarized() Theme {
	return Theme{
		Name:               "solarized-dark",
		Foreground:         solarizedBase0,
		HeaderBg:           solarizedBlue,
		HeaderFg:           solarizedBase03,
		StatusBarBg:        solarizedBase02,
		StatusBarFg:        solarizedBase1,
		SelectionBg:        solarizedBase02,
		SelectionFg:        solarizedYellow,
		BorderColor:        solarizedBase01,
		FocusedBorderColor: solarizedBlue,
		CommentColor:       solarizedGreen,
		NumberColor:        solarizedBase01,
		ErrorColor:         solarizedRed,
		WarningColor:       solarizedOrange,
	}
}

// styles derives the renderer styles used inside panes.
func (t Theme) styles() output.Styles {
	return output.Styles{
		Comment:    lipgloss.NewStyle().Foreground(t.CommentColor).Italic(true),
		Number:     lipgloss.NewStyle().Foreground(t.NumberColor),
		Label:      lipgloss.NewStyle().Bold(true),
		Enumerator: lipgloss.NewStyle().Foreground(t.NumberColor).MarginRight(1),
		Selected:   lipgloss.NewStyle().Foreground(t.SelectionFg).Background(t.SelectionBg).Bold(true),
		Header:     lipgloss.NewStyle().Foreground(t.HeaderFg).Background(t.HeaderBg).Bold(true).Padding(0, 1),
	}
}

func (t Theme) pane(focused bool) lipgloss.Style {
	border := t.BorderColor
	if focused {
		border = t.FocusedBorderColor
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1)
}

func (t Theme) cursor() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.SelectionFg).Background(t.SelectionBg).Bold(true)
}

func (t Theme) statusBar() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.StatusBarFg).Background(t.StatusBarBg).Padding(0, 1)
}
