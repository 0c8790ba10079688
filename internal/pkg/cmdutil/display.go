package cmdutil

import (
	"github.com/endorses/pcapview/internal/pkg/capture"
	"github.com/endorses/pcapview/internal/pkg/output"
	"github.com/spf13/pflag"
)

// Display config keys
const (
	KeyShowHardwareAddresses = "display.show_hardware_addresses"
	KeyShowComments          = "display.show_comments"
	KeyShowFullTimestamp     = "display.show_full_timestamp"
	KeyLineNumbers           = "display.line_numbers"
)

// Display holds the rendering switches shared by every command that prints
// records. None of them change how a capture is framed or dissected.
type Display struct {
	HardwareAddresses bool
	Comments          bool
	FullTimestamp     bool
	LineNumbers       bool
}

// AddDisplayFlags registers the display flags on flags.
func AddDisplayFlags(flags *pflag.FlagSet) {
	flags.Bool("hardware-addresses", false, "Prefix link-layer summaries with source and destination MAC addresses")
	flags.Bool("comments", true, "Show pcapng comments as // lines before their record")
	flags.Bool("full-timestamp", false, "Show the date as well as the time of each packet")
	flags.Bool("line-numbers", true, "Prefix each line with its packet number")
}

// GetDisplay resolves the display switches from flags and config.
func GetDisplay(flags *pflag.FlagSet) Display {
	return Display{
		HardwareAddresses: GetBoolConfig(flags, "hardware-addresses", KeyShowHardwareAddresses),
		Comments:          GetBoolConfig(flags, "comments", KeyShowComments),
		FullTimestamp:     GetBoolConfig(flags, "full-timestamp", KeyShowFullTimestamp),
		LineNumbers:       GetBoolConfig(flags, "line-numbers", KeyLineNumbers),
	}
}

// CaptureOptions converts the switches that the capture package renders itself.
func (d Display) CaptureOptions() capture.Options {
	var opts capture.Options
	opts.Dissect.ShowHardwareAddresses = d.HardwareAddresses
	opts.FullTimestamp = d.FullTimestamp
	return opts
}

// LineOptions converts the switches applied when record lines are written.
func (d Display) LineOptions() output.LineOptions {
	return output.LineOptions{Comments: d.Comments, LineNumbers: d.LineNumbers}
}
