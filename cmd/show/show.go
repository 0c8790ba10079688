// Package show implements the command printing the records of a capture.
package show

import (
	"fmt"
	"io"

	"github.com/endorses/pcapview/internal/pkg/capture"
	"github.com/endorses/pcapview/internal/pkg/cmdutil"
	"github.com/endorses/pcapview/internal/pkg/output"
	"github.com/spf13/cobra"
)

// NewCommand returns the show command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <file>",
		Short: "Print the records of a capture",
		Long: `Print one line per record of a pcap or pcapng capture.

With --fields each record is followed by its dissected field tree, and with
--hex each packet is followed by a hex dump of its captured bytes.

Examples:
  pcapview show capture.pcapng
  pcapview show capture.pcap --record 3 --fields --hex
  pcapview show capture.pcap --output json`,
		Args: cobra.ExactArgs(1),
		RunE: runShow,
	}

	cmd.Flags().Bool("fields", false, "Print the field tree of each record")
	cmd.Flags().Bool("hex", false, "Print a hex dump of each packet")
	cmd.Flags().IntP("record", "r", 0, "Only show the record at this position (0-based)")
	cmd.Flags().StringP("output", "o", output.FormatText, "Output format: text, json or yaml")
	cmdutil.AddDisplayFlags(cmd.Flags())
	return cmd
}

func runShow(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	format, _ := flags.GetString("output")
	if err := cmdutil.CheckFormat(format); err != nil {
		return err
	}
	withFields, _ := flags.GetBool("fields")
	withHex, _ := flags.GetBool("hex")

	display := cmdutil.GetDisplay(flags)
	c, err := cmdutil.OpenCapture(args[0], display)
	if err != nil {
		return err
	}

	recs := c.Records()
	single := flags.Changed("record")
	if single {
		i, _ := flags.GetInt("record")
		if i < 0 || i >= len(recs) {
			return fmt.Errorf("record %d out of range: capture has %d records", i, len(recs))
		}
		recs = recs[i : i+1]
	}

	w := cmd.OutOrStdout()
	if format != output.FormatText {
		if single {
			return cmdutil.WriteFormatted(w, format, output.NewRecordView(c, recs[0], withFields))
		}
		return cmdutil.WriteFormatted(w, format, output.NewCaptureView(c, withFields))
	}

	st := output.StylesFor(output.IsTerminal(w))
	if !withFields && !withHex {
		err = output.WriteLines(w, c, recs, display.LineOptions(), st)
	} else {
		err = writeDetailed(w, c, recs, display, withFields, withHex, st)
	}
	if err != nil {
		return err
	}
	cmdutil.ReportFrameError(cmd.ErrOrStderr(), c)
	return nil
}

// writeDetailed writes each record line followed by its field tree and hex
// dump, with a blank line between records.
func writeDetailed(w io.Writer, c *capture.Context, recs []capture.Record, display cmdutil.Display, withFields, withHex bool, st output.Styles) error {
	for i, rec := range recs {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if err := output.WriteLines(w, c, []capture.Record{rec}, display.LineOptions(), st); err != nil {
			return err
		}
		if withFields {
			if _, err := fmt.Fprintln(w, output.RenderFields(c.Fields(rec), st)); err != nil {
				return err
			}
		}
		if p, ok := rec.(capture.Packet); ok && withHex {
			if _, err := fmt.Fprintln(w, output.RenderHexDump(capture.HexDump(p, 0, 0), st)); err != nil {
				return err
			}
		}
	}
	return nil
}
