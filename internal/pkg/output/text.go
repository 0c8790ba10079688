package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"
	"github.com/endorses/pcapview/internal/pkg/capture"
	"github.com/endorses/pcapview/internal/pkg/constants"
	"github.com/endorses/pcapview/internal/pkg/dissect"
)

// Styles are the lipgloss styles used by the text renderers.
type Styles struct {
	Comment    lipgloss.Style
	Number     lipgloss.Style
	Label      lipgloss.Style
	Enumerator lipgloss.Style
	Selected   lipgloss.Style
	Header     lipgloss.Style
}

// DefaultStyles are used when stdout is a terminal.
func DefaultStyles() Styles {
	return Styles{
		Comment:    lipgloss.NewStyle().Foreground(lipgloss.Color("108")).Italic(true),
		Number:     lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Label:      lipgloss.NewStyle().Bold(true),
		Enumerator: lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginRight(1),
		Selected:   lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57")),
		Header:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")),
	}
}

// PlainStyles render text unchanged.
func PlainStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{
		Comment:    plain,
		Number:     plain,
		Label:      plain,
		Enumerator: plain.MarginRight(1),
		Selected:   plain,
		Header:     plain,
	}
}

// StylesFor picks DefaultStyles on a terminal and PlainStyles otherwise.
func StylesFor(tty bool) Styles {
	if tty {
		return DefaultStyles()
	}
	return PlainStyles()
}

// LineOptions control WriteLines.
type LineOptions struct {
	Comments    bool
	LineNumbers bool
}

// WriteLines writes one display line per record. Comments are written before
// their record as "// comment" lines, and packet numbers are right-aligned in
// a column wide enough for the largest number.
func WriteLines(w io.Writer, c *capture.Context, recs []capture.Record, opts LineOptions, st Styles) error {
	width := len(strconv.Itoa(c.PacketCount()))
	for _, rec := range recs {
		if opts.Comments {
			for _, comment := range rec.Comments() {
				if _, err := fmt.Fprintln(w, st.Comment.Render("// "+comment)); err != nil {
					return err
				}
			}
		}
		line := strings.TrimRight(c.Line(rec), " \t")
		if opts.LineNumbers {
			num := strings.Repeat(" ", width)
			if rec.Number() > 0 {
				num = fmt.Sprintf("%*d", width, rec.Number())
			}
			line = st.Number.Render(num) + "  " + line
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderFields draws a field tree with one node per line.
func RenderFields(fields []*dissect.Field, st Styles) string {
	t := tree.New()
	for _, f := range fields {
		t.Child(fieldNode(f, st))
	}
	return styleTree(t, st).String()
}

func fieldNode(f *dissect.Field, st Styles) any {
	text := st.Label.Render(f.Label)
	if f.Value != "" {
		text += ": " + f.Value
	}
	if len(f.Children) == 0 {
		return text
	}
	t := tree.Root(text)
	for _, c := range f.Children {
		t.Child(fieldNode(c, st))
	}
	return styleTree(t, st)
}

func styleTree(t *tree.Tree, st Styles) *tree.Tree {
	return t.Enumerator(tree.RoundedEnumerator).EnumeratorStyle(st.Enumerator)
}

// PacketCount renders n as "1 packet" or "n packets".
func PacketCount(n int) string {
	if n == 1 {
		return "1 packet"
	}
	return fmt.Sprintf("%d packets", n)
}

// WriteIndex writes a titled index, one key per line with its packet count.
func WriteIndex(w io.Writer, title string, entries []capture.IndexEntry, st Styles) error {
	if _, err := fmt.Fprintln(w, st.Header.Render(title)); err != nil {
		return err
	}
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "  (none)")
		return err
	}
	width := 0
	for _, e := range entries {
		width = max(width, len(e.Key))
	}
	for _, e := range entries {
		if _, err := fmt.Fprintf(w, "  %-*s  %s\n", width, e.Key, PacketCount(e.Count())); err != nil {
			return err
		}
	}
	return nil
}

// WriteAddressGroups writes each address family as its own index.
func WriteAddressGroups(w io.Writer, groups []capture.AddressGroup, st Styles) error {
	for i, g := range groups {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if err := WriteIndex(w, g.Name, g.Entries, st); err != nil {
			return err
		}
	}
	return nil
}

// RenderHexDump draws hex dump rows as "index  hex  ascii", marking the
// selected part of each row with st.Selected.
func RenderHexDump(rows []capture.HexRow, st Styles) string {
	hexWidth := constants.HexRowBytes * 3
	var b strings.Builder
	for _, r := range rows {
		hex := mark(r.Hex, r.SelFrom*3, r.SelTo*3, st.Selected)
		pad := strings.Repeat(" ", max(hexWidth-len(r.Hex), 0))
		ascii := mark(r.ASCII, r.SelFrom, r.SelTo, st.Selected)
		fmt.Fprintf(&b, "%s  %s%s %s\n", st.Number.Render(r.Index), hex, pad, ascii)
	}
	return strings.TrimRight(b.String(), "\n")
}

// HexDumpWidth is the width of one RenderHexDump row.
func HexDumpWidth() int {
	return 4 + 2 + constants.HexRowBytes*3 + 1 + constants.HexRowBytes
}

func mark(s string, from, to int, style lipgloss.Style) string {
	from, to = min(from, len(s)), min(to, len(s))
	if from >= to {
		return s
	}
	return s[:from] + style.Render(s[from:to]) + s[to:]
}
