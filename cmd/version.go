package cmd

import (
	"fmt"

	"github.com/endorses/pcapview/internal/pkg/cmdutil"
	"github.com/endorses/pcapview/internal/pkg/output"
	"github.com/endorses/pcapview/internal/pkg/version"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("output")
			if err := cmdutil.CheckFormat(format); err != nil {
				return err
			}
			info := version.Get()
			if format != output.FormatText {
				return cmdutil.WriteFormatted(cmd.OutOrStdout(), format, info)
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), info.String())
			return err
		},
	}
	cmd.Flags().StringP("output", "o", output.FormatText, "Output format: text, json or yaml")
	return cmd
}
