package capture

import (
	"encoding/binary"
	"fmt"
	"math/bits"
	"strings"
	"time"

	"github.com/endorses/pcapview/internal/pkg/dissect"
)

const (
	optEndOfOpt = 0
	optComment  = 1
)

// option is one pcapng option. offset is absolute and covers the 4-byte
// option header.
type option struct {
	code   uint16
	value  []byte
	offset int
	length int
}

func (o option) text() string {
	return strings.TrimRight(string(o.value), "\x00")
}

// readOptions walks the option list in [off, end). A list without an
// end-of-options marker simply stops at end; an option whose value runs past
// end stops the walk.
func readOptions(r reader, off, end int) []option {
	var opts []option
	for off+4 <= end {
		code, n := r.u16(off), int(r.u16(off+2))
		if code == optEndOfOpt {
			break
		}
		if off+4+n > end {
			break
		}
		opts = append(opts, option{
			code:   code,
			value:  r.buf[off+4 : off+4+n],
			offset: off,
			length: 4 + n,
		})
		off += 4 + pad4(n)
	}
	return opts
}

func pad4(n int) int {
	return (n + 3) &^ 3
}

func comments(opts []option) []string {
	var out []string
	for _, o := range opts {
		if o.code == optComment {
			out = append(out, o.text())
		}
	}
	return out
}

func (o option) u32(order binary.ByteOrder) uint32 {
	if len(o.value) < 4 {
		return 0
	}
	return order.Uint32(o.value)
}

func (o option) u64(order binary.ByteOrder) uint64 {
	if len(o.value) < 8 {
		return 0
	}
	return order.Uint64(o.value)
}

// optionFields renders opts as one "Options" node. name labels known codes;
// value renders them.
func optionFields(opts []option, name func(uint16) string, value func(option) string) *dissect.Field {
	if len(opts) == 0 {
		return nil
	}
	first, last := opts[0], opts[len(opts)-1]
	node := field("Options", "", first.offset, last.offset+last.length-first.offset)
	for _, o := range opts {
		label := "Comment"
		v := o.text()
		if o.code != optComment {
			label = name(o.code)
			v = value(o)
		}
		node.Add(field(label, v, o.offset, o.length))
	}
	return node
}

func unknownOption(code uint16) string {
	return fmt.Sprintf("Option %d", code)
}

// resolution is an interface's if_tsresol: timestamps count units of 10^-exp
// seconds, or 2^-exp seconds when base2 is set.
type resolution struct {
	base2 bool
	exp   uint8
}

var microseconds = resolution{exp: 6}

func parseResolution(b byte) resolution {
	return resolution{base2: b&0x80 != 0, exp: b & 0x7f}
}

func (r resolution) String() string {
	if r.base2 {
		return fmt.Sprintf("2^-%d s", r.exp)
	}
	return fmt.Sprintf("10^-%d s", r.exp)
}

// time converts a timestamp of r units since the epoch.
func (r resolution) time(v uint64) time.Time {
	if r.base2 {
		exp := uint(r.exp)
		if exp > 63 {
			exp = 63
		}
		sec, frac := v>>exp, v&(1<<exp-1)
		hi, lo := bits.Mul64(frac, uint64(time.Second))
		nsec, _ := bits.Div64(hi, lo, 1<<exp)
		return time.Unix(int64(sec), int64(nsec)).UTC()
	}
	exp := int(r.exp)
	if exp > 19 {
		exp = 19
	}
	unit := uint64(1)
	for i := 0; i < exp; i++ {
		unit *= 10
	}
	sec, frac := v/unit, v%unit
	var nsec uint64
	switch {
	case exp <= 9:
		nsec = frac * (uint64(time.Second) / unit)
	default:
		nsec = frac / (unit / uint64(time.Second))
	}
	return time.Unix(int64(sec), int64(nsec)).UTC()
}
