// Package list implements the commands printing the indices of a capture.
package list

import (
	"github.com/endorses/pcapview/internal/pkg/capture"
	"github.com/endorses/pcapview/internal/pkg/cmdutil"
	"github.com/endorses/pcapview/internal/pkg/output"
	"github.com/spf13/cobra"
)

// NewCommand returns the list command with its subcommands.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List what a capture contains",
		Long: `List the protocols, addresses or capture interfaces seen in a capture,
with the number of packets each appears in.

Subcommands:
  protocols   - Protocols recognised by the dissectors, sorted by name
  addresses   - Hardware, IPv4 and IPv6 addresses, grouped by family
  interfaces  - pcapng interfaces packets were captured on

Examples:
  pcapview list protocols capture.pcapng
  pcapview list addresses capture.pcap --output json`,
		// No Run function - requires a subcommand
	}
	cmd.PersistentFlags().StringP("output", "o", output.FormatText, "Output format: text, json or yaml")

	cmd.AddCommand(newIndexCmd("protocols", "List the protocols seen in a capture", "Protocols",
		func(c *capture.Context) []capture.IndexEntry { return c.Protocols() }))
	cmd.AddCommand(newIndexCmd("interfaces", "List the interfaces packets were captured on", "Interfaces",
		func(c *capture.Context) []capture.IndexEntry { return c.Interfaces() }))
	cmd.AddCommand(addressesCmd())
	return cmd
}

func newIndexCmd(use, short, title string, index func(*capture.Context) []capture.IndexEntry) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <file>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, c, err := open(cmd, args[0])
			if err != nil {
				return err
			}
			entries := index(c)
			w := cmd.OutOrStdout()
			if format != output.FormatText {
				return cmdutil.WriteFormatted(w, format, output.NewIndexViews(entries))
			}
			if err := output.WriteIndex(w, title, entries, output.StylesFor(output.IsTerminal(w))); err != nil {
				return err
			}
			cmdutil.ReportFrameError(cmd.ErrOrStderr(), c)
			return nil
		},
	}
}

func addressesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "addresses <file>",
		Short: "List the addresses seen in a capture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, c, err := open(cmd, args[0])
			if err != nil {
				return err
			}
			groups := c.AddressGroups()
			w := cmd.OutOrStdout()
			if format != output.FormatText {
				return cmdutil.WriteFormatted(w, format, output.NewAddressGroupViews(groups))
			}
			if err := output.WriteAddressGroups(w, groups, output.StylesFor(output.IsTerminal(w))); err != nil {
				return err
			}
			cmdutil.ReportFrameError(cmd.ErrOrStderr(), c)
			return nil
		},
	}
}

func open(cmd *cobra.Command, path string) (string, *capture.Context, error) {
	format, _ := cmd.Flags().GetString("output")
	if err := cmdutil.CheckFormat(format); err != nil {
		return "", nil, err
	}
	c, err := cmdutil.OpenCapture(path, cmdutil.Display{})
	if err != nil {
		return "", nil, err
	}
	return format, c, nil
}
