// Package tui implements the command starting the interactive viewer.
package tui

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/endorses/pcapview/internal/pkg/cmdutil"
	"github.com/endorses/pcapview/internal/pkg/logger"
	viewer "github.com/endorses/pcapview/internal/pkg/tui"
	"github.com/spf13/cobra"
)

// logCapacity is the number of log entries the viewer keeps for its log pane.
const logCapacity = 200

// NewCommand returns the tui command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tui <file>",
		Short: "Browse a capture interactively",
		Long: `Browse a capture in the terminal: the record list, the field tree of the
selected record and its hex dump. Selecting a field highlights its bytes;
moving through the hex dump narrows the field tree to the bytes under the
cursor.

Keys: tab switches pane, / filters by protocol or address, enter collapses
a field, L shows the log, ? shows every key, q quits.`,
		Args: cobra.ExactArgs(1),
		RunE: runTUI,
	}
	cmdutil.AddDisplayFlags(cmd.Flags())
	return cmd
}

func runTUI(cmd *cobra.Command, args []string) error {
	logs := logger.CaptureConsole(logCapacity)
	defer logger.SetOutput(os.Stderr)

	display := cmdutil.GetDisplay(cmd.Flags())
	c, err := cmdutil.OpenCapture(args[0], display)
	if err != nil {
		return err
	}

	model := viewer.New(viewer.Config{
		Title:   filepath.Base(args[0]),
		Capture: c,
		Display: display.LineOptions(),
		Logs:    logs,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("viewer failed: %w", err)
	}
	return nil
}
