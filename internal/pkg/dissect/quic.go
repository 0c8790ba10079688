package dissect

import (
	"fmt"
	"strings"
)

var quicLongTypes = []string{"Initial", "0RTT", "Handshake", "Retry"}

// varint reads a QUIC variable-length integer at rel and returns it with its
// encoded size.
func varint(w Window, rel int) (uint64, int) {
	switch w.U8(rel) >> 6 {
	case 0:
		return uint64(w.U8(rel) & 0x3f), 1
	case 1:
		return uint64(w.U16(rel) & 0x3fff), 2
	case 2:
		return uint64(w.U32(rel) & 0x3fffffff), 4
	default:
		return w.U64(rel) & 0x3fffffffffffffff, 8
	}
}

// QUIC is a QUIC packet header. Only long headers carry enough cleartext to
// decode; short headers are reported as 1RTT.
type QUIC struct {
	base
	Long       bool
	PacketType uint8
	Version    uint32
	DCID       []byte
	SCID       []byte
	versions   []uint32
	token      Window
	length     uint64
	lengthAt   int
	lengthLen  int
}

func newQUIC(d *decoder, w Window) (Dissector, error) {
	if err := need(w, 1, "QUIC"); err != nil {
		return nil, err
	}
	q := &QUIC{base: base{win: w, hdr: w.Len()}, Long: w.U8(0)&0x80 != 0}
	if q.Long {
		if err := need(w, 7, "QUIC"); err != nil {
			return nil, err
		}
		q.PacketType = (w.U8(0) >> 4) & 0x03
		q.Version = w.U32(1)
		dl := int(w.U8(5))
		q.DCID = w.Range(6, dl)
		sl := int(w.U8(6 + dl))
		q.SCID = w.Range(7+dl, sl)
		pos := 7 + dl + sl
		switch {
		case q.Version == 0:
			for i := pos; w.Has(i, 4); i += 4 {
				q.versions = append(q.versions, w.U32(i))
			}
		case q.PacketType == 0:
			n, sz := varint(w, pos)
			q.token = w.Slice(pos+sz, int(n))
			pos += sz + int(n)
			fallthrough
		case q.PacketType != 3:
			q.lengthAt = pos
			q.length, q.lengthLen = varint(w, pos)
		}
	}
	d.protocol("QUIC")
	return q, nil
}

func (q *QUIC) typeName() string {
	switch {
	case !q.Long:
		return "1RTT"
	case q.Version == 0:
		return "Version Negotiation"
	}
	return quicLongTypes[q.PacketType]
}

func (q *QUIC) Summary() string {
	parts := []string{"QUIC " + q.typeName()}
	if q.Long && q.Version == 0 {
		vs := make([]string, len(q.versions))
		for i, v := range q.versions {
			vs[i] = fmt.Sprintf("0x%08x", v)
		}
		parts = append(parts, "Versions "+strings.Join(vs, " "))
	}
	if len(q.DCID) > 0 {
		parts = append(parts, "DCID="+hexString(q.DCID))
	}
	if len(q.SCID) > 0 {
		parts = append(parts, "SCID="+hexString(q.SCID))
	}
	return strings.Join(parts, ", ")
}

func (q *QUIC) Fields() []*Field {
	w := q.win
	root := w.node("QUIC", q.typeName(), 0, w.Len())
	b := w.U8(0)
	form := "Short Header (0)"
	if q.Long {
		form = "Long Header (1)"
	}
	root.Add(w.field("Header form", form, 0, 1))
	root.Add(w.field("Fixed bit", fmt.Sprint((b>>6)&1), 0, 1))
	if !q.Long {
		return []*Field{root}
	}
	dl := len(q.DCID)
	root.Add(
		w.field("Packet Type", fmt.Sprintf("%s (%d)", quicLongTypes[q.PacketType], q.PacketType), 0, 1),
		w.field("Version", fmt.Sprintf("0x%08x", q.Version), 1, 4),
		w.field("Destination Connection ID Length", fmt.Sprint(dl), 5, 1),
	)
	if dl > 0 {
		root.Add(w.field("Destination Connection ID", hexString(q.DCID), 6, dl))
	}
	root.Add(w.field("Source Connection ID Length", fmt.Sprint(len(q.SCID)), 6+dl, 1))
	if len(q.SCID) > 0 {
		root.Add(w.field("Source Connection ID", hexString(q.SCID), 7+dl, len(q.SCID)))
	}
	pos := 7 + dl + len(q.SCID)
	if q.Version == 0 {
		for i, v := range q.versions {
			root.Add(w.field("Supported Version", fmt.Sprintf("0x%08x", v), pos+4*i, 4))
		}
		return []*Field{root}
	}
	if q.PacketType == 0 {
		tl := q.token.Offset() - w.Offset() - pos
		root.Add(w.field("Token Length", fmt.Sprint(q.token.Len()), pos, tl))
		if q.token.Len() > 0 {
			root.Add(w.field("Token", hexString(q.token.Bytes()), pos+tl, q.token.Len()))
		}
	}
	if q.lengthLen > 0 {
		root.Add(w.field("Length", fmt.Sprint(q.length), q.lengthAt, q.lengthLen))
		pnLen := int(b&0x03) + 1
		root.Add(w.field("Packet Number Length", fmt.Sprint(pnLen), 0, 1))
		at := q.lengthAt + q.lengthLen
		root.Add(w.field("Packet Number", fmt.Sprint(w.U32(at)>>(8*(4-pnLen))), at, pnLen))
	}
	return []*Field{root}
}
