package capture

import (
	"fmt"
	"os"
	"time"

	"github.com/endorses/pcapview/internal/pkg/dissect"
	"github.com/endorses/pcapview/internal/pkg/logger"
)

// Options control how records are rendered. They never change framing or
// dissection structure.
type Options struct {
	Dissect       dissect.Options
	FullTimestamp bool
}

// Open reads the whole file at path and parses it. Only a failure to read the
// file is returned; framing problems are kept on the context.
func Open(path string, opts Options) (*Context, error) {
	start := time.Now()
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read capture: %w", err)
	}
	c := Parse(buf, opts)
	logger.Info("Opened capture",
		"file", path,
		"type", c.FileType().String(),
		"records", len(c.Records()),
		"duration", time.Since(start))
	return c, nil
}

// Parse frames buf into records and dissects every packet once to build the
// protocol and address indices. Framing stops at the first record that cannot
// be framed; the records before it are kept and the error is available from
// FrameError.
func Parse(buf []byte, opts Options) *Context {
	c := newContext(buf, opts)
	typ, order, err := Detect(buf)
	if err != nil {
		c.fail(0, err)
		return c
	}
	c.fileType, c.order = typ, order

	f := &framer{ctx: c, r: reader{buf: buf, order: order}}
	for f.off < len(buf) {
		rec, err := f.next()
		if err != nil {
			c.fail(f.off, err)
			break
		}
		f.off = rec.End()
	}
	return c
}

// framer walks the buffer one record at a time.
type framer struct {
	ctx    *Context
	r      reader
	off    int
	header *FileHeader
	ifaces []*InterfaceDescription
}

func (f *framer) next() (Record, error) {
	var (
		rec Record
		err error
	)
	switch f.ctx.fileType {
	case PCAP:
		rec, err = f.nextPCAP()
	default:
		rec, err = f.nextPCAPNG()
	}
	if err != nil {
		return nil, err
	}
	if rec.End() <= f.off {
		return nil, fmt.Errorf("%w: record at offset %d does not advance", ErrFrame, f.off)
	}
	f.ctx.add(rec)
	return rec, nil
}

func (f *framer) nextPCAP() (Record, error) {
	if f.header == nil {
		h, err := readFileHeader(f.r, f.off)
		if err != nil {
			return nil, err
		}
		f.header = h
		return h, nil
	}
	return readPacketRecord(f.r, f.off, f.header)
}

func (f *framer) nextPCAPNG() (Record, error) {
	if err := f.r.need(f.off, blockHeaderLen); err != nil {
		return nil, err
	}
	if f.r.u32(f.off) == blockSection {
		order, err := sectionOrder(f.r.buf[f.off:])
		if err != nil {
			return nil, err
		}
		f.r.order = order
	}
	b, err := readBlock(f.r, f.off)
	if err != nil {
		return nil, err
	}
	switch b.typ {
	case blockSection:
		s, err := readSectionHeader(f.r, b)
		if err != nil {
			return nil, err
		}
		f.ifaces = nil
		return s, nil
	case blockInterface:
		i, err := readInterface(f.r, b, len(f.ifaces))
		if err != nil {
			return nil, err
		}
		f.ifaces = append(f.ifaces, i)
		return i, nil
	case blockEnhancedPacket:
		if err := b.need(4, "enhanced packet"); err != nil {
			return nil, err
		}
		iface, err := lookupInterface(f.ifaces, int(f.r.u32(b.bodyStart)), b.offset)
		if err != nil {
			return nil, err
		}
		return readEnhancedPacket(f.r, b, iface)
	case blockSimplePacket:
		iface, err := lookupInterface(f.ifaces, 0, b.offset)
		if err != nil {
			return nil, err
		}
		return readSimplePacket(f.r, b, iface)
	case blockObsoletePacket:
		return readObsoletePacket(f.r, b, f.ifaces)
	case blockNameResolution:
		return readNameResolution(f.r, b)
	case blockStatistics:
		return readStatistics(f.r, b, f.ifaces)
	case blockJournalExport:
		return readJournalExport(f.r, b), nil
	case blockSecrets:
		return readSecrets(f.r, b)
	case blockCustom, blockCustomNoCopy:
		return readCustom(f.r, b)
	default:
		return &UnknownBlock{recordMeta: b.record(), block: b}, nil
	}
}
