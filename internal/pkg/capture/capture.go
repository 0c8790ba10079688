// Package capture frames classic pcap and pcapng files into records and
// keeps the per-file protocol and address indices built while the packets
// are dissected.
package capture

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	// ErrUnknownFormat is recorded when the leading bytes match no known container.
	ErrUnknownFormat = errors.New("unknown capture format")
	// ErrFrame is recorded when a record header or body runs past the buffer.
	ErrFrame = errors.New("record overruns capture")
	// ErrBlockLength is recorded when a pcapng block length is inconsistent.
	ErrBlockLength = errors.New("invalid block length")
)

// FileType is the container format of a capture.
type FileType int

const (
	Unknown FileType = iota
	PCAP
	PCAPNG
)

func (t FileType) String() string {
	switch t {
	case PCAP:
		return "pcap"
	case PCAPNG:
		return "pcapng"
	default:
		return "unknown"
	}
}

const (
	pcapMagicMicros = 0xa1b2c3d4
	pcapMagicNanos  = 0xa1b23c4d
	pcapngSHBType   = 0x0a0d0d0a
	pcapngBOM       = 0x1a2b3c4d
)

// Detect reports the container format and byte order from the first bytes
// of buf. For pcapng the order is that of the first section; later sections
// may change it.
func Detect(buf []byte) (FileType, binary.ByteOrder, error) {
	if len(buf) < 4 {
		return Unknown, nil, fmt.Errorf("%w: %d bytes", ErrUnknownFormat, len(buf))
	}
	switch binary.BigEndian.Uint32(buf) {
	case pcapMagicMicros, pcapMagicNanos:
		return PCAP, binary.BigEndian, nil
	case pcapngSHBType:
		order, err := sectionOrder(buf)
		if err != nil {
			return Unknown, nil, err
		}
		return PCAPNG, order, nil
	}
	switch binary.LittleEndian.Uint32(buf) {
	case pcapMagicMicros, pcapMagicNanos:
		return PCAP, binary.LittleEndian, nil
	}
	return Unknown, nil, fmt.Errorf("%w: magic % x", ErrUnknownFormat, buf[:4])
}

// sectionOrder reads the byte-order magic of the section header at the start of b.
func sectionOrder(b []byte) (binary.ByteOrder, error) {
	if len(b) < 12 {
		return nil, fmt.Errorf("%w: section header needs 12 bytes, have %d", ErrFrame, len(b))
	}
	bom := b[8:12]
	switch {
	case bytes.Equal(bom, []byte{0x1a, 0x2b, 0x3c, 0x4d}):
		return binary.BigEndian, nil
	case bytes.Equal(bom, []byte{0x4d, 0x3c, 0x2b, 0x1a}):
		return binary.LittleEndian, nil
	}
	return nil, fmt.Errorf("%w: byte-order magic % x", ErrUnknownFormat, bom)
}

// reader reads fixed-width fields of the capture buffer in one byte order.
// Every read is bounds checked and fails with ErrFrame.
type reader struct {
	buf   []byte
	order binary.ByteOrder
}

func (r reader) need(off, n int) error {
	if off < 0 || n < 0 || off+n > len(r.buf) {
		return fmt.Errorf("%w: need %d bytes at offset %d, capture is %d bytes", ErrFrame, n, off, len(r.buf))
	}
	return nil
}

func (r reader) u16(off int) uint16 {
	if r.need(off, 2) != nil {
		return 0
	}
	return r.order.Uint16(r.buf[off:])
}

func (r reader) u32(off int) uint32 {
	if r.need(off, 4) != nil {
		return 0
	}
	return r.order.Uint32(r.buf[off:])
}

func (r reader) u64(off int) uint64 {
	if r.need(off, 8) != nil {
		return 0
	}
	return r.order.Uint64(r.buf[off:])
}

func orderName(o binary.ByteOrder) string {
	if o == binary.BigEndian {
		return "big-endian"
	}
	return "little-endian"
}
