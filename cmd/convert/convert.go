// Package convert implements the command rewriting a capture in another
// container format.
package convert

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/endorses/pcapview/internal/pkg/cmdutil"
	"github.com/endorses/pcapview/internal/pkg/pcapwriter"
	"github.com/endorses/pcapview/internal/pkg/signals"
	"github.com/spf13/cobra"
)

// NewCommand returns the convert command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert <in> <out>",
		Short: "Rewrite the packets of a capture as pcap or pcapng",
		Long: `Rewrite every packet of a capture into a new classic pcap or pcapng file.
Blocks other than packets are not carried over. Packets whose link type the
output cannot hold are skipped and counted.

The output format follows the extension of <out> unless --format is given.

Examples:
  pcapview convert capture.pcapng capture.pcap
  pcapview convert capture.pcap out.cap --format pcapng`,
		Args: cobra.ExactArgs(2),
		RunE: runConvert,
	}
	cmd.Flags().String("format", "", "Output format: pcap or pcapng")
	cmd.Flags().Bool("nanosecond", false, "Write nanosecond timestamps (pcap only)")
	return cmd
}

func runConvert(cmd *cobra.Command, args []string) error {
	in, out := args[0], args[1]
	format, _ := cmd.Flags().GetString("format")
	if format == "" {
		format = formatFor(out)
	}
	nanos, _ := cmd.Flags().GetBool("nanosecond")

	c, err := cmdutil.OpenCapture(in, cmdutil.Display{})
	if err != nil {
		return err
	}

	ctx, stop := signals.WithShutdown(cmd.Context())
	defer stop()

	config := pcapwriter.DefaultConfig()
	config.FilePath = out
	config.Format = format
	config.Nanosecond = nanos
	stats, err := pcapwriter.Convert(ctx, c, config)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d packets (%d bytes) to %s\n", stats.Packets, stats.Bytes, out)
	if stats.Skipped > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "Skipped %d packets with a link type %s cannot hold\n", stats.Skipped, format)
	}
	cmdutil.ReportFrameError(cmd.ErrOrStderr(), c)
	return nil
}

// formatFor picks the output format from the file extension. Anything that
// is not .pcap or .cap is written as pcapng.
func formatFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pcap", ".cap":
		return pcapwriter.FormatPCAP
	}
	return pcapwriter.FormatPCAPNG
}
