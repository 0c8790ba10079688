package capture

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/endorses/pcapview/internal/pkg/dissect"
)

const (
	pcapFileHeaderLen   = 24
	pcapRecordHeaderLen = 16
)

// FileHeader is the classic pcap global header.
type FileHeader struct {
	recordMeta
	Order        binary.ByteOrder
	Nanos        bool
	VersionMajor uint16
	VersionMinor uint16
	ThisZone     int32
	SigFigs      uint32
	SnapLen      uint32
	Link         dissect.LinkType
}

func readFileHeader(r reader, off int) (*FileHeader, error) {
	if err := r.need(off, pcapFileHeaderLen); err != nil {
		return nil, err
	}
	return &FileHeader{
		recordMeta:   recordMeta{offset: off, end: off + pcapFileHeaderLen},
		Order:        r.order,
		Nanos:        r.u32(off) == pcapMagicNanos,
		VersionMajor: r.u16(off + 4),
		VersionMinor: r.u16(off + 6),
		ThisZone:     int32(r.u32(off + 8)),
		SigFigs:      r.u32(off + 12),
		SnapLen:      r.u32(off + 16),
		Link:         dissect.LinkType(r.u32(off + 20)),
	}, nil
}

func (h *FileHeader) precision() string {
	if h.Nanos {
		return "nanosecond"
	}
	return "microsecond"
}

func (h *FileHeader) Summary() string {
	return fmt.Sprintf("pcap %d.%d, %s, %s timestamps, link type %s, snaplen %d",
		h.VersionMajor, h.VersionMinor, orderName(h.Order), h.precision(), linkTypeName(h.Link), h.SnapLen)
}

func (h *FileHeader) Fields() []*dissect.Field {
	o := h.offset
	return []*dissect.Field{field("pcap File Header", "", o, pcapFileHeaderLen,
		field("Magic", fmt.Sprintf("%s, %s timestamps", orderName(h.Order), h.precision()), o, 4),
		field("Version", fmt.Sprintf("%d.%d", h.VersionMajor, h.VersionMinor), o+4, 4),
		field("Time Zone Offset", fmt.Sprint(h.ThisZone), o+8, 4),
		field("Timestamp Accuracy", fmt.Sprint(h.SigFigs), o+12, 4),
		field("Snapshot Length", fmt.Sprint(h.SnapLen), o+16, 4),
		field("Link Type", linkTypeName(h.Link), o+20, 4),
	)}
}

// PacketRecord is one classic pcap packet record.
type PacketRecord struct {
	recordMeta
	packetMeta
}

func readPacketRecord(r reader, off int, h *FileHeader) (*PacketRecord, error) {
	if err := r.need(off, pcapRecordHeaderLen); err != nil {
		return nil, err
	}
	sec, frac := r.u32(off), r.u32(off+4)
	capLen, origLen := int(r.u32(off+8)), int(r.u32(off+12))
	if err := r.need(off+pcapRecordHeaderLen, capLen); err != nil {
		return nil, err
	}
	nsec := int64(frac) * int64(time.Microsecond)
	if h.Nanos {
		nsec = int64(frac)
	}
	end := off + pcapRecordHeaderLen + capLen
	return &PacketRecord{
		recordMeta: recordMeta{offset: off, end: end},
		packetMeta: packetMeta{
			data:    dissect.NewWindow(r.buf, off+pcapRecordHeaderLen, capLen),
			link:    h.Link,
			ts:      time.Unix(int64(sec), nsec).UTC(),
			origLen: origLen,
		},
	}, nil
}

func (p *PacketRecord) Summary() string { return p.summary() }

func (p *PacketRecord) Fields() []*dissect.Field {
	f := p.frameFields(&p.recordMeta, pcapRecordHeaderLen)
	o := p.offset
	f.Children[0].Add(
		field("Seconds", fmt.Sprint(p.ts.Unix()), o, 4),
		field("Nanoseconds", fmt.Sprint(p.ts.Nanosecond()), o+4, 4),
	)
	return []*dissect.Field{f}
}
