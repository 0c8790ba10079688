package dissect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewWindow_Clamps(t *testing.T) {
	buf := make([]byte, 10)
	tests := []struct {
		name          string
		off, n        int
		wantOff, want int
	}{
		{"inside", 2, 4, 2, 4},
		{"past end", 8, 10, 8, 2},
		{"negative offset", -3, 4, 0, 4},
		{"offset beyond buffer", 20, 4, 10, 0},
		{"negative length", 3, -1, 3, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWindow(buf, tt.off, tt.n)
			assert.Equal(t, tt.wantOff, w.Offset())
			assert.Equal(t, tt.want, w.Len())
			assert.Equal(t, tt.wantOff+tt.want, w.End())
		})
	}
}

func TestWindow_Slice(t *testing.T) {
	buf := []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	w := NewWindow(buf, 2, 6)

	s := w.Slice(1, 3)
	assert.Equal(t, 3, s.Offset())
	assert.Equal(t, []byte{3, 4, 5}, s.Bytes())

	assert.Equal(t, []byte{6, 7}, w.Slice(4, 100).Bytes())
	assert.Equal(t, 0, w.Slice(10, 2).Len())
	assert.Equal(t, 8, w.Slice(10, 2).Offset())
	assert.Equal(t, []byte{2, 3}, w.Slice(-5, 2).Bytes())
	assert.Equal(t, []byte{5, 6, 7}, w.From(3).Bytes())
	assert.Empty(t, w.From(7).Bytes())
	assert.Equal(t, []byte{7}, w.Range(5, 9))
	assert.Same(t, &buf[0], &w.Buffer()[0])
}

func TestWindow_Reads(t *testing.T) {
	buf := []byte{0xff, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0xff}
	w := NewWindow(buf, 1, 8)

	assert.Equal(t, uint8(0x01), w.U8(0))
	assert.Equal(t, uint16(0x0102), w.U16(0))
	assert.Equal(t, uint32(0x010203), w.U24(0))
	assert.Equal(t, uint32(0x01020304), w.U32(0))
	assert.Equal(t, uint64(0x0102030405060708), w.U64(0))

	// Reads that leave the window return zero, even when the buffer has data.
	assert.Equal(t, uint8(0), w.U8(8))
	assert.Equal(t, uint16(0), w.U16(7))
	assert.Equal(t, uint32(0), w.U32(5))
	assert.Equal(t, uint64(0), w.U64(1))
	assert.Equal(t, uint8(0), w.U8(-1))
}

func TestWindow_Has(t *testing.T) {
	w := win(make([]byte, 4))
	assert.True(t, w.Has(0, 4))
	assert.True(t, w.Has(4, 0))
	assert.False(t, w.Has(1, 4))
	assert.False(t, w.Has(-1, 1))
	assert.False(t, w.Has(0, -1))
}

func TestWindow_FieldClamps(t *testing.T) {
	w := NewWindow(make([]byte, 20), 4, 8)
	f := w.field("x", "", 6, 10)
	assert.Equal(t, 10, f.Offset)
	assert.Equal(t, 2, f.Length)
}
