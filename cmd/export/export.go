// Package export implements the command writing the line text of a capture.
package export

import (
	"fmt"
	"io"
	"os"

	"github.com/endorses/pcapview/internal/pkg/cmdutil"
	"github.com/endorses/pcapview/internal/pkg/logger"
	"github.com/spf13/cobra"
)

// NewCommand returns the export command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Write the line of every record as plain text",
		Long: `Write the line text of every record, one per line, without numbers,
comments or styling. The result goes to stdout unless --out names a file.

Examples:
  pcapview export capture.pcapng
  pcapview export capture.pcap --full-timestamp --out capture.txt`,
		Args: cobra.ExactArgs(1),
		RunE: runExport,
	}
	cmd.Flags().String("out", "", "File to write instead of stdout")
	cmd.Flags().Bool("hardware-addresses", false, "Prefix link-layer summaries with source and destination MAC addresses")
	cmd.Flags().Bool("full-timestamp", false, "Show the date as well as the time of each packet")
	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	c, err := cmdutil.OpenCapture(args[0], cmdutil.GetDisplay(cmd.Flags()))
	if err != nil {
		return err
	}
	text := c.Export()

	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		if _, err := io.WriteString(cmd.OutOrStdout(), text); err != nil {
			return err
		}
	} else {
		if err := os.WriteFile(out, []byte(text), 0o644); err != nil {
			return fmt.Errorf("failed to write export: %w", err)
		}
		logger.Info("Exported capture", "file", args[0], "out", out, "records", len(c.Records()))
	}
	cmdutil.ReportFrameError(cmd.ErrOrStderr(), c)
	return nil
}
