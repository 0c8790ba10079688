package capture

import (
	"encoding/binary"
	"fmt"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/endorses/pcapview/internal/pkg/dissect"
)

// pcapng block types
const (
	blockInterface      = 0x00000001
	blockObsoletePacket = 0x00000002
	blockSimplePacket   = 0x00000003
	blockNameResolution = 0x00000004
	blockStatistics     = 0x00000005
	blockEnhancedPacket = 0x00000006
	blockJournalExport  = 0x00000009
	blockSecrets        = 0x0000000a
	blockCustom         = 0x00000bad
	blockCustomNoCopy   = 0x40000bad
	blockSection        = pcapngSHBType
)

const blockHeaderLen = 8

// block is the generic pcapng framing: type, total length, body and the
// repeated trailing length.
type block struct {
	typ       uint32
	offset    int
	length    int
	bodyStart int
	bodyEnd   int
}

func readBlock(r reader, off int) (block, error) {
	if err := r.need(off, blockHeaderLen); err != nil {
		return block{}, err
	}
	b := block{typ: r.u32(off), offset: off, length: int(r.u32(off + 4))}
	if b.length < blockHeaderLen+4 || b.length%4 != 0 {
		return block{}, fmt.Errorf("%w: block at offset %d declares %d bytes", ErrBlockLength, off, b.length)
	}
	if err := r.need(off, b.length); err != nil {
		return block{}, err
	}
	if trailer := int(r.u32(off + b.length - 4)); trailer != b.length {
		return block{}, fmt.Errorf("%w: block at offset %d has leading length %d, trailing length %d",
			ErrBlockLength, off, b.length, trailer)
	}
	b.bodyStart = off + blockHeaderLen
	b.bodyEnd = off + b.length - 4
	return b, nil
}

func (b block) record() recordMeta {
	return recordMeta{offset: b.offset, end: b.offset + b.length}
}

func (b block) need(n int, name string) error {
	if b.bodyEnd-b.bodyStart < n {
		return fmt.Errorf("%w: %s at offset %d needs %d body bytes, has %d",
			ErrBlockLength, name, b.offset, n, b.bodyEnd-b.bodyStart)
	}
	return nil
}

func (b block) headerFields(name string) []*dissect.Field {
	return []*dissect.Field{
		field("Block Type", fmt.Sprintf("%s (0x%08x)", name, b.typ), b.offset, 4),
		field("Block Length", fmt.Sprint(b.length), b.offset+4, 4),
	}
}

func blockNode(b block, name, value string, children ...*dissect.Field) *dissect.Field {
	f := field(name, value, b.offset, b.length, b.headerFields(name)...)
	for _, c := range children {
		if c != nil {
			f.Add(c)
		}
	}
	return f
}

// SectionHeader is a pcapng Section Header Block. It sets the byte order of
// every block up to the next section header.
type SectionHeader struct {
	recordMeta
	block
	Order         binary.ByteOrder
	VersionMajor  uint16
	VersionMinor  uint16
	SectionLength int64
	Hardware      string
	OS            string
	Application   string
	options       []option
}

var sectionOptionNames = map[uint16]string{
	2: "Hardware",
	3: "Operating System",
	4: "Application",
}

func readSectionHeader(r reader, b block) (*SectionHeader, error) {
	if err := b.need(16, "section header"); err != nil {
		return nil, err
	}
	s := &SectionHeader{
		recordMeta:    b.record(),
		block:         b,
		Order:         r.order,
		VersionMajor:  r.u16(b.bodyStart + 4),
		VersionMinor:  r.u16(b.bodyStart + 6),
		SectionLength: int64(r.u64(b.bodyStart + 8)),
		options:       readOptions(r, b.bodyStart+16, b.bodyEnd),
	}
	for _, o := range s.options {
		switch o.code {
		case 2:
			s.Hardware = o.text()
		case 3:
			s.OS = o.text()
		case 4:
			s.Application = o.text()
		}
	}
	s.comments = comments(s.options)
	return s, nil
}

func (s *SectionHeader) Summary() string {
	parts := []string{fmt.Sprintf("pcapng %d.%d, %s", s.VersionMajor, s.VersionMinor, orderName(s.Order))}
	for _, p := range []string{s.Application, s.OS, s.Hardware} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func (s *SectionHeader) Fields() []*dissect.Field {
	o := s.bodyStart
	length := "unspecified"
	if s.SectionLength >= 0 {
		length = fmt.Sprint(s.SectionLength)
	}
	return []*dissect.Field{blockNode(s.block, "Section Header Block", s.Summary(),
		field("Byte-Order Magic", orderName(s.Order), o, 4),
		field("Version", fmt.Sprintf("%d.%d", s.VersionMajor, s.VersionMinor), o+4, 4),
		field("Section Length", length, o+8, 8),
		optionFields(s.options, optionName(sectionOptionNames), func(o option) string { return o.text() }),
	)}
}

func optionName(names map[uint16]string) func(uint16) string {
	return func(code uint16) string {
		if n, ok := names[code]; ok {
			return n
		}
		return unknownOption(code)
	}
}

// InterfaceDescription is a pcapng Interface Description Block. Interfaces
// are numbered from 0 within their section.
type InterfaceDescription struct {
	recordMeta
	block
	ID          int
	Link        dissect.LinkType
	SnapLen     uint32
	Name        string
	Description string
	Filter      string
	OS          string
	Resolution  string
	order       binary.ByteOrder
	res         resolution
	options     []option
}

var interfaceOptionNames = map[uint16]string{
	2:  "Name",
	3:  "Description",
	4:  "IPv4 Address",
	5:  "IPv6 Address",
	6:  "MAC Address",
	7:  "EUI Address",
	8:  "Speed",
	9:  "Timestamp Resolution",
	10: "Time Zone",
	11: "Filter",
	12: "Operating System",
	13: "FCS Length",
	14: "Timestamp Offset",
	15: "Hardware",
}

func readInterface(r reader, b block, id int) (*InterfaceDescription, error) {
	if err := b.need(8, "interface description"); err != nil {
		return nil, err
	}
	i := &InterfaceDescription{
		recordMeta: b.record(),
		block:      b,
		ID:         id,
		Link:       dissect.LinkType(r.u16(b.bodyStart)),
		SnapLen:    r.u32(b.bodyStart + 4),
		order:      r.order,
		res:        microseconds,
		options:    readOptions(r, b.bodyStart+8, b.bodyEnd),
	}
	for _, o := range i.options {
		switch o.code {
		case 2:
			i.Name = o.text()
		case 3:
			i.Description = o.text()
		case 9:
			if len(o.value) > 0 {
				i.res = parseResolution(o.value[0])
			}
		case 11:
			if len(o.value) > 1 {
				i.Filter = strings.TrimRight(string(o.value[1:]), "\x00")
			}
		case 12:
			i.OS = o.text()
		}
	}
	i.Resolution = i.res.String()
	i.comments = comments(i.options)
	return i, nil
}

// Label names the interface for the interface index.
func (i *InterfaceDescription) Label() string {
	if i.Name != "" {
		return fmt.Sprintf("%d: %s", i.ID, i.Name)
	}
	return fmt.Sprintf("%d: %s", i.ID, i.Link)
}

func (i *InterfaceDescription) Summary() string {
	s := fmt.Sprintf("Interface %s, link type %s, snaplen %d", i.Label(), linkTypeName(i.Link), i.SnapLen)
	if i.Description != "" {
		s += ", " + i.Description
	}
	return s
}

func (i *InterfaceDescription) optionValue(o option) string {
	v := o.value
	switch o.code {
	case 4:
		if len(v) >= 8 {
			return fmt.Sprintf("%s/%s", netip.AddrFrom4([4]byte(v[:4])), netip.AddrFrom4([4]byte(v[4:8])))
		}
	case 5:
		if len(v) >= 17 {
			return netip.PrefixFrom(netip.AddrFrom16([16]byte(v[:16])), int(v[16])).String()
		}
	case 6:
		if len(v) >= 6 {
			return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x", v[0], v[1], v[2], v[3], v[4], v[5])
		}
	case 8:
		return fmt.Sprintf("%d bps", o.u64(i.order))
	case 9:
		return i.res.String()
	case 11:
		return i.Filter
	case 13:
		if len(v) > 0 {
			return fmt.Sprintf("%d bytes", v[0])
		}
	case 14:
		return fmt.Sprintf("%d s", int64(o.u64(i.order)))
	case 2, 3, 12, 15:
		return o.text()
	}
	return fmt.Sprintf("% x", v)
}

func (i *InterfaceDescription) Fields() []*dissect.Field {
	o := i.bodyStart
	return []*dissect.Field{blockNode(i.block, "Interface Description Block", i.Label(),
		field("Link Type", linkTypeName(i.Link), o, 2),
		field("Reserved", "", o+2, 2),
		field("Snap Length", fmt.Sprint(i.SnapLen), o+4, 4),
		optionFields(i.options, optionName(interfaceOptionNames), i.optionValue),
	)}
}

// EnhancedPacket is a pcapng Enhanced Packet Block.
type EnhancedPacket struct {
	recordMeta
	packetMeta
	block
	Flags     uint32
	DropCount uint64
	order     binary.ByteOrder
	options   []option
}

var packetOptionNames = map[uint16]string{
	2: "Flags",
	3: "Hash",
	4: "Drop Count",
	5: "Packet ID",
	6: "Queue",
	7: "Verdict",
}

var packetDirections = []string{"not available", "inbound", "outbound", "invalid"}

func readEnhancedPacket(r reader, b block, iface *InterfaceDescription) (*EnhancedPacket, error) {
	const fixed = 20
	if err := b.need(fixed, "enhanced packet"); err != nil {
		return nil, err
	}
	o := b.bodyStart
	capLen := int(r.u32(o + 12))
	if o+fixed+capLen > b.bodyEnd {
		return nil, fmt.Errorf("%w: enhanced packet at offset %d captures %d bytes past its block",
			ErrBlockLength, b.offset, o+fixed+capLen-b.bodyEnd)
	}
	ts := uint64(r.u32(o+4))<<32 | uint64(r.u32(o+8))
	p := &EnhancedPacket{
		recordMeta: b.record(),
		block:      b,
		packetMeta: packetMeta{
			data:       dissect.NewWindow(r.buf, o+fixed, capLen),
			link:       iface.Link,
			ts:         iface.res.time(ts),
			origLen:    int(r.u32(o + 16)),
			iface:      iface.ID,
			ifaceLabel: iface.Label(),
			hasIface:   true,
		},
		order:   r.order,
		options: readOptions(r, o+fixed+pad4(capLen), b.bodyEnd),
	}
	for _, opt := range p.options {
		switch opt.code {
		case 2:
			p.Flags = opt.u32(r.order)
		case 4:
			p.DropCount = opt.u64(r.order)
		}
	}
	p.comments = comments(p.options)
	return p, nil
}

// Direction is the inbound/outbound value of epb_flags.
func (p *EnhancedPacket) Direction() string {
	return packetDirections[p.Flags&0x03]
}

func (p *EnhancedPacket) Summary() string { return p.summary() }

func (p *EnhancedPacket) optionValue(o option) string {
	switch o.code {
	case 2:
		return fmt.Sprintf("0x%08x, %s", p.Flags, p.Direction())
	case 4, 5:
		return fmt.Sprint(o.u64(p.order))
	}
	return fmt.Sprintf("% x", o.value)
}

func (p *EnhancedPacket) Fields() []*dissect.Field {
	f := p.frameFields(&p.recordMeta, blockHeaderLen+20)
	o := p.bodyStart
	f.Children[0].Add(
		field("Interface ID", fmt.Sprint(p.iface), o, 4),
		field("Timestamp", fmt.Sprint(p.ts.UnixNano()), o+4, 8),
	)
	if opts := optionFields(p.options, optionName(packetOptionNames), p.optionValue); opts != nil {
		f.Add(opts)
	}
	return []*dissect.Field{f}
}

// SimplePacket is a pcapng Simple Packet Block. It always belongs to the
// first interface of its section and has no timestamp.
type SimplePacket struct {
	recordMeta
	packetMeta
	block
}

func readSimplePacket(r reader, b block, iface *InterfaceDescription) (*SimplePacket, error) {
	if err := b.need(4, "simple packet"); err != nil {
		return nil, err
	}
	origLen := int(r.u32(b.bodyStart))
	capLen := origLen
	if iface.SnapLen > 0 && capLen > int(iface.SnapLen) {
		capLen = int(iface.SnapLen)
	}
	if room := b.bodyEnd - b.bodyStart - 4; capLen > room {
		capLen = room
	}
	return &SimplePacket{
		recordMeta: b.record(),
		block:      b,
		packetMeta: packetMeta{
			data:       dissect.NewWindow(r.buf, b.bodyStart+4, capLen),
			link:       iface.Link,
			origLen:    origLen,
			iface:      iface.ID,
			ifaceLabel: iface.Label(),
			hasIface:   true,
		},
	}, nil
}

func (p *SimplePacket) Summary() string { return p.summary() }

func (p *SimplePacket) Fields() []*dissect.Field {
	return []*dissect.Field{p.frameFields(&p.recordMeta, blockHeaderLen+4)}
}

// ObsoletePacket is the pre-standard pcapng Packet Block.
type ObsoletePacket struct {
	recordMeta
	packetMeta
	block
	Drops   uint16
	options []option
}

func readObsoletePacket(r reader, b block, ifaces []*InterfaceDescription) (*ObsoletePacket, error) {
	const fixed = 20
	if err := b.need(fixed, "packet"); err != nil {
		return nil, err
	}
	o := b.bodyStart
	iface, err := lookupInterface(ifaces, int(r.u16(o)), b.offset)
	if err != nil {
		return nil, err
	}
	capLen := int(r.u32(o + 12))
	if o+fixed+capLen > b.bodyEnd {
		return nil, fmt.Errorf("%w: packet at offset %d captures %d bytes past its block",
			ErrBlockLength, b.offset, o+fixed+capLen-b.bodyEnd)
	}
	ts := uint64(r.u32(o+4))<<32 | uint64(r.u32(o+8))
	p := &ObsoletePacket{
		recordMeta: b.record(),
		block:      b,
		Drops:      r.u16(o + 2),
		packetMeta: packetMeta{
			data:       dissect.NewWindow(r.buf, o+fixed, capLen),
			link:       iface.Link,
			ts:         iface.res.time(ts),
			origLen:    int(r.u32(o + 16)),
			iface:      iface.ID,
			ifaceLabel: iface.Label(),
			hasIface:   true,
		},
		options: readOptions(r, o+fixed+pad4(capLen), b.bodyEnd),
	}
	p.comments = comments(p.options)
	return p, nil
}

func (p *ObsoletePacket) Summary() string { return p.summary() }

func (p *ObsoletePacket) Fields() []*dissect.Field {
	f := p.frameFields(&p.recordMeta, blockHeaderLen+20)
	f.Children[0].Add(field("Drops Count", fmt.Sprint(p.Drops), p.bodyStart+2, 2))
	return []*dissect.Field{f}
}

func lookupInterface(ifaces []*InterfaceDescription, id, off int) (*InterfaceDescription, error) {
	if id < 0 || id >= len(ifaces) {
		return nil, fmt.Errorf("%w: block at offset %d refers to undescribed interface %d", ErrFrame, off, id)
	}
	return ifaces[id], nil
}

// NameEntry is one address resolved in a Name Resolution Block.
type NameEntry struct {
	Address string
	Names   []string
	offset  int
	length  int
}

// NameResolution is a pcapng Name Resolution Block.
type NameResolution struct {
	recordMeta
	block
	Entries []NameEntry
	options []option
}

func readNameResolution(r reader, b block) (*NameResolution, error) {
	n := &NameResolution{recordMeta: b.record(), block: b}
	off := b.bodyStart
	for off+4 <= b.bodyEnd {
		typ, ln := r.u16(off), int(r.u16(off+2))
		if typ == 0 {
			off += 4
			break
		}
		if off+4+ln > b.bodyEnd {
			return nil, fmt.Errorf("%w: name record at offset %d overruns its block", ErrBlockLength, off)
		}
		v := r.buf[off+4 : off+4+ln]
		e := NameEntry{offset: off, length: 4 + ln}
		switch {
		case typ == 1 && ln >= 4:
			e.Address = netip.AddrFrom4([4]byte(v[:4])).String()
			e.Names = splitNames(v[4:])
		case typ == 2 && ln >= 16:
			e.Address = netip.AddrFrom16([16]byte(v[:16])).String()
			e.Names = splitNames(v[16:])
		default:
			e.Address = fmt.Sprintf("record type %d", typ)
		}
		n.Entries = append(n.Entries, e)
		off += 4 + pad4(ln)
	}
	n.options = readOptions(r, off, b.bodyEnd)
	n.comments = comments(n.options)
	return n, nil
}

func splitNames(b []byte) []string {
	var names []string
	for _, s := range strings.Split(string(b), "\x00") {
		if s != "" {
			names = append(names, s)
		}
	}
	return names
}

func (n *NameResolution) Summary() string {
	parts := make([]string, 0, len(n.Entries))
	for _, e := range n.Entries {
		parts = append(parts, fmt.Sprintf("%s = %s", e.Address, strings.Join(e.Names, ", ")))
	}
	return "Name resolution: " + strings.Join(parts, "; ")
}

func (n *NameResolution) Fields() []*dissect.Field {
	root := blockNode(n.block, "Name Resolution Block", fmt.Sprintf("%d records", len(n.Entries)))
	for _, e := range n.Entries {
		root.Add(field(e.Address, strings.Join(e.Names, ", "), e.offset, e.length))
	}
	if opts := optionFields(n.options, optionName(map[uint16]string{2: "DNS Name", 3: "DNS IPv4 Address", 4: "DNS IPv6 Address"}),
		func(o option) string { return o.text() }); opts != nil {
		root.Add(opts)
	}
	return []*dissect.Field{root}
}

// InterfaceStatistics is a pcapng Interface Statistics Block.
type InterfaceStatistics struct {
	recordMeta
	block
	InterfaceID int
	Time        time.Time
	Received    uint64
	Dropped     uint64
	hasCounts   bool
	order       binary.ByteOrder
	res         resolution
	options     []option
}

var statisticsOptionNames = map[uint16]string{
	2: "Capture Start",
	3: "Capture End",
	4: "Received",
	5: "Dropped",
	6: "Accepted by Filter",
	7: "Dropped by OS",
	8: "Delivered to User",
}

func readStatistics(r reader, b block, ifaces []*InterfaceDescription) (*InterfaceStatistics, error) {
	if err := b.need(12, "interface statistics"); err != nil {
		return nil, err
	}
	o := b.bodyStart
	s := &InterfaceStatistics{
		recordMeta:  b.record(),
		block:       b,
		InterfaceID: int(r.u32(o)),
		order:       r.order,
		res:         microseconds,
		options:     readOptions(r, o+12, b.bodyEnd),
	}
	if s.InterfaceID < len(ifaces) {
		s.res = ifaces[s.InterfaceID].res
	}
	s.Time = s.res.time(uint64(r.u32(o+4))<<32 | uint64(r.u32(o+8)))
	for _, opt := range s.options {
		switch opt.code {
		case 4:
			s.Received, s.hasCounts = opt.u64(r.order), true
		case 5:
			s.Dropped, s.hasCounts = opt.u64(r.order), true
		}
	}
	s.comments = comments(s.options)
	return s, nil
}

func (s *InterfaceStatistics) Summary() string {
	if s.hasCounts {
		return fmt.Sprintf("Interface %d statistics: %d received, %d dropped", s.InterfaceID, s.Received, s.Dropped)
	}
	return fmt.Sprintf("Interface %d statistics", s.InterfaceID)
}

func (s *InterfaceStatistics) optionValue(o option) string {
	switch o.code {
	case 2, 3:
		if len(o.value) >= 8 {
			hi, lo := s.order.Uint32(o.value), s.order.Uint32(o.value[4:])
			return s.res.time(uint64(hi)<<32 | uint64(lo)).Format(time.RFC3339Nano)
		}
	case 4, 5, 6, 7, 8:
		return fmt.Sprint(o.u64(s.order))
	}
	return fmt.Sprintf("% x", o.value)
}

func (s *InterfaceStatistics) Fields() []*dissect.Field {
	o := s.bodyStart
	return []*dissect.Field{blockNode(s.block, "Interface Statistics Block", s.Summary(),
		field("Interface ID", fmt.Sprint(s.InterfaceID), o, 4),
		field("Timestamp", s.Time.Format(time.RFC3339Nano), o+4, 8),
		optionFields(s.options, optionName(statisticsOptionNames), s.optionValue),
	)}
}

// JournalExport is a pcapng systemd Journal Export Block. It is numbered
// like a packet.
type JournalExport struct {
	recordMeta
	block
	Entry   map[string]string
	ts      time.Time
	text    string
	textLen int
}

func readJournalExport(r reader, b block) *JournalExport {
	raw := r.buf[b.bodyStart:b.bodyEnd]
	j := &JournalExport{
		recordMeta: b.record(),
		block:      b,
		Entry:      make(map[string]string),
		text:       strings.TrimRight(string(raw), "\x00\n"),
	}
	j.textLen = len(j.text)
	for _, line := range strings.Split(j.text, "\n") {
		k, v, ok := strings.Cut(line, "=")
		if ok {
			j.Entry[k] = v
		}
	}
	if us, ok := j.Entry["__REALTIME_TIMESTAMP"]; ok {
		if n, err := strconv.ParseInt(us, 10, 64); err == nil {
			j.ts = time.UnixMicro(n).UTC()
		}
	}
	return j
}

// Timestamp is the entry's __REALTIME_TIMESTAMP, or the zero time.
func (j *JournalExport) Timestamp() time.Time { return j.ts }

func (j *JournalExport) Summary() string {
	if m, ok := j.Entry["MESSAGE"]; ok {
		return m
	}
	first, _, _ := strings.Cut(j.text, "\n")
	return first
}

func (j *JournalExport) Fields() []*dissect.Field {
	root := blockNode(j.block, "Systemd Journal Export Block", "")
	off := j.bodyStart
	for _, line := range strings.Split(j.text, "\n") {
		k, v, _ := strings.Cut(line, "=")
		root.Add(field(k, v, off, len(line)))
		off += len(line) + 1
	}
	return []*dissect.Field{root}
}

var secretsTypes = map[uint32]string{
	0x544c534b: "TLS Key Log",
	0x57474b4c: "WireGuard Key Log",
	0x5a4e574b: "Zigbee NWK Key",
	0x5a415053: "Zigbee APS Key",
	0x6f707563: "OPC UA Key Log",
}

// DecryptionSecrets is a pcapng Decryption Secrets Block. The secrets are
// shown, never applied.
type DecryptionSecrets struct {
	recordMeta
	block
	SecretsType uint32
	Data        []byte
	dataAt      int
	options     []option
}

func readSecrets(r reader, b block) (*DecryptionSecrets, error) {
	if err := b.need(8, "decryption secrets"); err != nil {
		return nil, err
	}
	o := b.bodyStart
	n := int(r.u32(o + 4))
	if o+8+n > b.bodyEnd {
		return nil, fmt.Errorf("%w: secrets at offset %d overrun their block", ErrBlockLength, b.offset)
	}
	s := &DecryptionSecrets{
		recordMeta:  b.record(),
		block:       b,
		SecretsType: r.u32(o),
		Data:        r.buf[o+8 : o+8+n],
		dataAt:      o + 8,
		options:     readOptions(r, o+8+pad4(n), b.bodyEnd),
	}
	s.comments = comments(s.options)
	return s, nil
}

func (s *DecryptionSecrets) typeName() string {
	if n, ok := secretsTypes[s.SecretsType]; ok {
		return n
	}
	return fmt.Sprintf("Unknown secrets (0x%08x)", s.SecretsType)
}

func (s *DecryptionSecrets) Summary() string {
	if s.SecretsType == 0x544c534b {
		lines := strings.Count(strings.TrimRight(string(s.Data), "\n"), "\n") + 1
		return fmt.Sprintf("Decryption secrets: %s, %d lines", s.typeName(), lines)
	}
	return fmt.Sprintf("Decryption secrets: %s, %d bytes", s.typeName(), len(s.Data))
}

func (s *DecryptionSecrets) Fields() []*dissect.Field {
	o := s.bodyStart
	return []*dissect.Field{blockNode(s.block, "Decryption Secrets Block", s.typeName(),
		field("Secrets Type", fmt.Sprintf("%s (0x%08x)", s.typeName(), s.SecretsType), o, 4),
		field("Secrets Length", fmt.Sprint(len(s.Data)), o+4, 4),
		field("Secrets Data", fmt.Sprintf("%d bytes", len(s.Data)), s.dataAt, len(s.Data)),
		optionFields(s.options, unknownOption, func(o option) string { return fmt.Sprintf("% x", o.value) }),
	)}
}

// Custom is a pcapng Custom Block identified by a private enterprise number.
type Custom struct {
	recordMeta
	block
	PEN      uint32
	Copyable bool
}

func readCustom(r reader, b block) (*Custom, error) {
	if err := b.need(4, "custom block"); err != nil {
		return nil, err
	}
	return &Custom{
		recordMeta: b.record(),
		block:      b,
		PEN:        r.u32(b.bodyStart),
		Copyable:   b.typ == blockCustom,
	}, nil
}

func (c *Custom) Summary() string {
	s := fmt.Sprintf("Custom block, PEN %d, %d bytes", c.PEN, c.bodyEnd-c.bodyStart-4)
	if !c.Copyable {
		s += ", not copyable"
	}
	return s
}

func (c *Custom) Fields() []*dissect.Field {
	o := c.bodyStart
	return []*dissect.Field{blockNode(c.block, "Custom Block", "",
		field("Private Enterprise Number", fmt.Sprint(c.PEN), o, 4),
		field("Custom Data", fmt.Sprintf("%d bytes", c.bodyEnd-o-4), o+4, c.bodyEnd-o-4),
	)}
}

// UnknownBlock is any pcapng block of a type this package does not decode.
type UnknownBlock struct {
	recordMeta
	block
}

func (u *UnknownBlock) Summary() string {
	return fmt.Sprintf("Block type 0x%08x, %d bytes", u.typ, u.length)
}

func (u *UnknownBlock) Fields() []*dissect.Field {
	return []*dissect.Field{blockNode(u.block, "Unknown Block", fmt.Sprintf("0x%08x", u.typ),
		field("Block Body", fmt.Sprintf("%d bytes", u.bodyEnd-u.bodyStart), u.bodyStart, u.bodyEnd-u.bodyStart),
	)}
}
