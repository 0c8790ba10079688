// Package constants provides shared limits used across pcapview components.
package constants

// Decoding limits
const (
	// DNSMaxPointerJumps bounds how many compression pointers one DNS name may
	// follow before it is treated as a loop.
	DNSMaxPointerJumps = 10

	// MaxSnapLen is the snapshot length written into converted captures when
	// the source does not declare one.
	MaxSnapLen = 262144
)

// Rendering
const (
	// HexRowBytes is the number of bytes on one hex dump row.
	HexRowBytes = 8

	// TimeFormat is the packet time shown on a record line.
	TimeFormat = "15:04:05.000000"

	// FullTimeFormat is used instead of TimeFormat when full timestamps are enabled.
	FullTimeFormat = "2006-01-02 15:04:05.000000"
)

// Process
const (
	// SignalChannelBuffer is the buffer of the channel receiving shutdown signals.
	SignalChannelBuffer = 1
)
