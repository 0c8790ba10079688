// Package dissect decodes captured frames into one-line summaries and field
// trees. Every dissector reads a Window of the shared capture buffer, decodes
// its own header, and hands the rest of the window to at most one inner
// dissector chosen from a dispatch table.
package dissect

import (
	"errors"
	"fmt"

	"github.com/endorses/pcapview/internal/pkg/logger"
)

var (
	// ErrShortHeader is returned when a window cannot hold a dissector's fixed header.
	ErrShortHeader = errors.New("header too short")
	// ErrTruncated is returned when a length-prefixed structure runs past its window.
	ErrTruncated = errors.New("truncated")
	// ErrPointerLoop is returned when DNS name compression exceeds the jump limit.
	ErrPointerLoop = errors.New("too many compression pointers")
)

// Dissector is one decoded protocol layer. The set of implementations is
// closed to this package.
type Dissector interface {
	// Summary is the one-line description, including every inner layer.
	Summary() string
	// Fields is this layer's field tree followed by the inner layer's.
	Fields() []*Field
	// Window is the byte range this layer was given.
	Window() Window
	// Inner is the next layer, or nil.
	Inner() Dissector
	// HeaderLen is the number of leading window bytes decoded by this layer itself.
	HeaderLen() int

	sealed()
}

// Observer receives the protocol names and addresses seen while a frame is
// being dissected. Implementations are bound to the record being decoded.
type Observer interface {
	ObserveProtocol(name string)
	ObserveAddress(addr string)
}

// Discard is an Observer that drops everything. It is used when a record is
// decoded again for display after its observations were already indexed.
var Discard Observer = discard{}

type discard struct{}

func (discard) ObserveProtocol(string) {}
func (discard) ObserveAddress(string)  {}

// Observations collects observations in the order they were made.
type Observations struct {
	Protocols []string
	Addresses []string
}

func (o *Observations) ObserveProtocol(name string) { o.Protocols = append(o.Protocols, name) }
func (o *Observations) ObserveAddress(addr string)  { o.Addresses = append(o.Addresses, addr) }

// Options are display flags. They change summary text, never structure.
type Options struct {
	ShowHardwareAddresses bool
}

// Dissect decodes w starting at the link layer given by link. It never fails:
// anything that cannot be decoded is reported as unparsed data.
func Dissect(w Window, link LinkType, obs Observer, opts Options) Dissector {
	if obs == nil {
		obs = Discard
	}
	d := &decoder{obs: obs, opts: opts}
	return d.link(link, w)
}

// decoder carries the per-frame state every constructor needs.
type decoder struct {
	obs  Observer
	opts Options
}

type constructor func(d *decoder, w Window) (Dissector, error)

// entry is one row of a dispatch table.
type entry struct {
	name string
	ctor constructor
}

func (d *decoder) protocol(name string) { d.obs.ObserveProtocol(name) }
func (d *decoder) address(addr string)  { d.obs.ObserveAddress(addr) }

// build runs ctor over w and degrades to unparsed data if the header is short.
func (d *decoder) build(e entry, w Window) Dissector {
	ds, err := e.ctor(d, w)
	if err != nil {
		logger.Debug("Dissector fell back to unparsed data",
			"protocol", e.name,
			"offset", w.Offset(),
			"length", w.Len(),
			"error", err)
		return newGeneric(w)
	}
	return ds
}

// unknown registers a synthetic protocol name for an unrecognised code so the
// frame stays discoverable in the protocol index.
func (d *decoder) unknown(w Window, name string) Dissector {
	d.protocol(name)
	return newGeneric(w)
}

func need(w Window, n int, proto string) error {
	if w.Len() < n {
		return fmt.Errorf("%w: %s needs %d bytes, have %d", ErrShortHeader, proto, n, w.Len())
	}
	return nil
}

// base holds what every dissector shares.
type base struct {
	win   Window
	inner Dissector
	hdr   int
}

func (b *base) Window() Window   { return b.win }
func (b *base) Inner() Dissector { return b.inner }
func (b *base) HeaderLen() int   { return b.hdr }
func (b *base) sealed()          {}

func (b *base) innerSummary() string {
	if b.inner == nil {
		return ""
	}
	return b.inner.Summary()
}

func (b *base) withInner(fields ...*Field) []*Field {
	if b.inner == nil {
		return fields
	}
	return append(fields, b.inner.Fields()...)
}

// Generic is the fallback for bytes no dissector claims.
type Generic struct {
	base
}

func newGeneric(w Window) *Generic {
	return &Generic{base{win: w, hdr: w.Len()}}
}

func (g *Generic) Summary() string {
	if g.win.Len() == 0 {
		return ""
	}
	return fmt.Sprintf("+%d bytes unparsed data", g.win.Len())
}

func (g *Generic) Fields() []*Field {
	if g.win.Len() == 0 {
		return nil
	}
	data := g.win.field("Data", g.Summary(), 0, g.win.Len())
	return []*Field{g.win.node("Unparsed Data", "", 0, g.win.Len(), data)}
}
