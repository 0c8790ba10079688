package capture

import (
	"encoding/binary"
	"net"
	"net/netip"
	"sort"
	"sync"

	"github.com/endorses/pcapview/internal/pkg/dissect"
	"github.com/endorses/pcapview/internal/pkg/logger"
)

// Context owns one capture buffer, its records and the indices built while
// the records were dissected.
type Context struct {
	buf      []byte
	fileType FileType
	order    binary.ByteOrder
	opts     Options
	frameErr error
	records  []Record
	packets  int

	mu         sync.RWMutex
	protocols  map[string][]Record
	addresses  map[string][]Record
	interfaces map[string][]Record
}

func newContext(buf []byte, opts Options) *Context {
	return &Context{
		buf:        buf,
		opts:       opts,
		protocols:  make(map[string][]Record),
		addresses:  make(map[string][]Record),
		interfaces: make(map[string][]Record),
	}
}

// Bytes returns the capture buffer. It must not be modified.
func (c *Context) Bytes() []byte { return c.buf }

// FileType is the detected container format.
func (c *Context) FileType() FileType { return c.fileType }

// ByteOrder is the byte order of the file header or first section, or nil
// when the format is unknown.
func (c *Context) ByteOrder() binary.ByteOrder { return c.order }

// Options returns the rendering options the capture was parsed with.
func (c *Context) Options() Options { return c.opts }

// FrameError is the error that stopped framing, or nil if the whole buffer
// was framed.
func (c *Context) FrameError() error { return c.frameErr }

// Records returns every framed record in file order.
func (c *Context) Records() []Record { return c.records }

// PacketCount is the number of numbered records.
func (c *Context) PacketCount() int { return c.packets }

func (c *Context) fail(off int, err error) {
	c.frameErr = err
	logger.Warn("Stopped framing capture",
		"offset", off,
		"records", len(c.records),
		"error", err)
}

// add appends rec, numbers it, and dissects it once with an observer bound to it.
func (c *Context) add(rec Record) {
	m := rec.meta()
	m.index = len(c.records)
	c.records = append(c.records, rec)

	if _, ok := rec.(*JournalExport); ok {
		c.packets++
		m.number = c.packets
	}
	p, ok := rec.(Packet)
	if !ok {
		return
	}
	c.packets++
	m.number = c.packets
	if pm := p.packet(); pm.hasIface {
		c.mu.Lock()
		c.interfaces[pm.ifaceLabel] = append(c.interfaces[pm.ifaceLabel], rec)
		c.mu.Unlock()
	}
	dissect.Dissect(p.Data(), p.LinkType(), c.Observer(rec), c.opts.Dissect)
}

// Observer returns an Observer that files observations under rec. It panics
// if rec is nil: observations must always belong to a record.
func (c *Context) Observer(rec Record) dissect.Observer {
	if rec == nil {
		panic("capture: observer requested without a record")
	}
	return &recordObserver{ctx: c, rec: rec}
}

type recordObserver struct {
	ctx *Context
	rec Record
}

func (o *recordObserver) ObserveProtocol(name string) { o.ctx.register(o.ctx.protocols, name, o.rec) }
func (o *recordObserver) ObserveAddress(addr string)  { o.ctx.register(o.ctx.addresses, addr, o.rec) }

func (c *Context) register(index map[string][]Record, key string, rec Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	index[key] = append(index[key], rec)
}

// Dissect decodes a packet for display. Nothing is added to the indices.
func (c *Context) Dissect(p Packet) dissect.Dissector {
	return dissect.Dissect(p.Data(), p.LinkType(), dissect.Discard, c.opts.Dissect)
}

// Fields is the record's own layout followed, for packets, by every dissected layer.
func (c *Context) Fields(rec Record) []*dissect.Field {
	fields := rec.Fields()
	if p, ok := rec.(Packet); ok {
		fields = append(fields, c.Dissect(p).Fields()...)
	}
	return fields
}

// FieldsAt is Fields narrowed to the nodes overlapping [offset, offset+length).
func (c *Context) FieldsAt(rec Record, offset, length int) []*dissect.Field {
	return dissect.Narrow(c.Fields(rec), offset, length)
}

// IndexEntry is one key of the protocol, address or interface index with the
// records it was observed in, in file order. A record appears once per
// observation.
type IndexEntry struct {
	Key     string
	Records []Record
}

// Count is the number of distinct records in the entry.
func (e IndexEntry) Count() int {
	n, last := 0, -1
	for _, r := range e.Records {
		if r.Index() != last {
			n++
			last = r.Index()
		}
	}
	return n
}

func (c *Context) sorted(index map[string][]Record) []IndexEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]IndexEntry, 0, len(index))
	for k, recs := range index {
		out = append(out, IndexEntry{Key: k, Records: append([]Record(nil), recs...)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Protocols lists the protocol index sorted by name.
func (c *Context) Protocols() []IndexEntry { return c.sorted(c.protocols) }

// Addresses lists the address index sorted by address text.
func (c *Context) Addresses() []IndexEntry { return c.sorted(c.addresses) }

// Interfaces lists the packets of each described interface.
func (c *Context) Interfaces() []IndexEntry { return c.sorted(c.interfaces) }

// ProtocolRecords returns the records the protocol was observed in.
func (c *Context) ProtocolRecords(name string) []Record { return c.lookup(c.protocols, name) }

// AddressRecords returns the records the address was observed in.
func (c *Context) AddressRecords(addr string) []Record { return c.lookup(c.addresses, addr) }

func (c *Context) lookup(index map[string][]Record, key string) []Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Record(nil), index[key]...)
}

// Address groups
const (
	GroupHardware = "Hardware"
	GroupIPv4     = "IPv4"
	GroupIPv6     = "IPv6"
)

// AddressGroup is one family of the address index.
type AddressGroup struct {
	Name    string
	Entries []IndexEntry
}

// AddressGroups splits the address index into hardware, IPv4 and IPv6
// addresses. Groups are always present, possibly empty. Anything that is
// neither a MAC nor an IPv4 address is filed as IPv6.
func (c *Context) AddressGroups() []AddressGroup {
	groups := []AddressGroup{{Name: GroupHardware}, {Name: GroupIPv4}, {Name: GroupIPv6}}
	for _, e := range c.Addresses() {
		i := 2
		switch AddressFamily(e.Key) {
		case GroupHardware:
			i = 0
		case GroupIPv4:
			i = 1
		}
		groups[i].Entries = append(groups[i].Entries, e)
	}
	return groups
}

// AddressFamily classifies an address string.
func AddressFamily(addr string) string {
	if hw, err := net.ParseMAC(addr); err == nil && len(hw) == 6 {
		return GroupHardware
	}
	if ip, err := netip.ParseAddr(addr); err == nil && ip.Is4() {
		return GroupIPv4
	}
	return GroupIPv6
}
