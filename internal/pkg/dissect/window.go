package dissect

import "encoding/binary"

// Window is a view of length n starting at absolute offset off in a shared,
// immutable capture buffer. It never copies the buffer.
//
// Reads through the accessors are bounds-safe: a read that falls outside the
// window returns zero. Dissectors check their fixed header length up front and
// use Has before reading variable-length parts.
type Window struct {
	buf []byte
	off int
	n   int
}

// NewWindow returns the window [off, off+n) of buf, clamped to the buffer.
func NewWindow(buf []byte, off, n int) Window {
	if off < 0 {
		off = 0
	}
	if off > len(buf) {
		off = len(buf)
	}
	if n < 0 {
		n = 0
	}
	if off+n > len(buf) {
		n = len(buf) - off
	}
	return Window{buf: buf, off: off, n: n}
}

// Offset is the absolute offset of the first byte of the window.
func (w Window) Offset() int { return w.off }

// Len is the number of bytes in the window.
func (w Window) Len() int { return w.n }

// End is the absolute offset one past the last byte of the window.
func (w Window) End() int { return w.off + w.n }

// Buffer returns the whole capture buffer the window points into.
func (w Window) Buffer() []byte { return w.buf }

// Bytes returns the bytes covered by the window without copying.
func (w Window) Bytes() []byte { return w.buf[w.off : w.off+w.n] }

// Has reports whether [rel, rel+n) lies inside the window.
func (w Window) Has(rel, n int) bool {
	return rel >= 0 && n >= 0 && rel+n <= w.n
}

// Slice returns the sub-window starting rel bytes into w with length n. Both
// are clamped so the result is always contained in w.
func (w Window) Slice(rel, n int) Window {
	if rel < 0 {
		rel = 0
	}
	if rel > w.n {
		rel = w.n
	}
	if n < 0 {
		n = 0
	}
	if rel+n > w.n {
		n = w.n - rel
	}
	return Window{buf: w.buf, off: w.off + rel, n: n}
}

// From returns the sub-window from rel to the end of w.
func (w Window) From(rel int) Window {
	return w.Slice(rel, w.n-rel)
}

// Range returns the raw bytes [rel, rel+n) clamped to the window.
func (w Window) Range(rel, n int) []byte {
	return w.Slice(rel, n).Bytes()
}

// U8 reads the byte at rel.
func (w Window) U8(rel int) uint8 {
	if !w.Has(rel, 1) {
		return 0
	}
	return w.buf[w.off+rel]
}

// U16 reads a big-endian uint16 at rel.
func (w Window) U16(rel int) uint16 {
	if !w.Has(rel, 2) {
		return 0
	}
	return binary.BigEndian.Uint16(w.buf[w.off+rel:])
}

// U24 reads a big-endian 24-bit value at rel.
func (w Window) U24(rel int) uint32 {
	if !w.Has(rel, 3) {
		return 0
	}
	b := w.buf[w.off+rel:]
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
}

// U32 reads a big-endian uint32 at rel.
func (w Window) U32(rel int) uint32 {
	if !w.Has(rel, 4) {
		return 0
	}
	return binary.BigEndian.Uint32(w.buf[w.off+rel:])
}

// U64 reads a big-endian uint64 at rel.
func (w Window) U64(rel int) uint64 {
	if !w.Has(rel, 8) {
		return 0
	}
	return binary.BigEndian.Uint64(w.buf[w.off+rel:])
}

// field builds a leaf at rel within the window, clamping its length so it
// never claims bytes outside w.
func (w Window) field(label, value string, rel, n int) *Field {
	s := w.Slice(rel, n)
	return &Field{Label: label, Value: value, Offset: s.off, Length: s.n}
}

// node is field with children attached.
func (w Window) node(label, value string, rel, n int, children ...*Field) *Field {
	f := w.field(label, value, rel, n)
	f.Children = children
	return f
}
