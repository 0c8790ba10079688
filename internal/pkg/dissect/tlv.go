package dissect

// tlvLayout describes one family of type-length-value chains.
type tlvLayout struct {
	codeSize int
	lenSize  int
	// inclusive lengths count the code and length bytes themselves.
	inclusive bool
	// pad is a code that stands alone with no length byte, or -1.
	pad int
	// end is the code that terminates the chain.
	end int
	// endNeedsPadding makes end terminate only when every remaining byte is
	// zero; otherwise the end code is skipped as a single byte.
	endNeedsPadding bool
	// endHasLength means the end code carries a length field like any other entry.
	endHasLength bool
}

var (
	// IPv4 and TCP options.
	byteOptions = tlvLayout{codeSize: 1, lenSize: 1, inclusive: true, pad: 1, end: 0, endNeedsPadding: true}
	dhcpOptions = tlvLayout{codeSize: 1, lenSize: 1, pad: 0, end: 255}
	pppoeTags   = tlvLayout{codeSize: 2, lenSize: 2, pad: -1, end: 0, endHasLength: true}
	// pppOptions are LCP/IPCP configuration options.
	pppOptions = tlvLayout{codeSize: 1, lenSize: 1, inclusive: true, pad: -1, end: -1}
)

// tlv is one entry of a chain. offset is relative to the walked window and
// length covers the whole entry.
type tlv struct {
	code   int
	offset int
	length int
	value  Window
}

func readN(w Window, rel, size int) int {
	if size == 2 {
		return int(w.U16(rel))
	}
	return int(w.U8(rel))
}

func allZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

// walkTLV decodes the chain in w. Every iteration advances at least one
// byte, so the loop ends within w.Len() steps whatever the input. An entry
// whose declared length runs past the window ends the walk.
func walkTLV(w Window, l tlvLayout) []tlv {
	var out []tlv
	hdr := l.codeSize + l.lenSize
	for i := 0; i < w.Len(); {
		if !w.Has(i, l.codeSize) {
			break
		}
		code := readN(w, i, l.codeSize)
		switch {
		case code == l.end && (!l.endNeedsPadding || allZero(w.Range(i, w.Len()-i))):
			n := l.codeSize
			if l.endHasLength && w.Has(i, hdr) {
				n = hdr
			}
			return append(out, tlv{code: code, offset: i, length: n, value: w.Slice(i+n, 0)})
		case code == l.end:
			i++
			continue
		case code == l.pad:
			out = append(out, tlv{code: code, offset: i, length: l.codeSize, value: w.Slice(i+l.codeSize, 0)})
			i += l.codeSize
			continue
		}
		if !w.Has(i, hdr) {
			break
		}
		n := readN(w, i+l.codeSize, l.lenSize)
		total := n + hdr
		if l.inclusive {
			if n == 0 {
				// A zero length would stall the chain.
				i++
				continue
			}
			total = n
		}
		if !w.Has(i, total) {
			break
		}
		out = append(out, tlv{code: code, offset: i, length: total, value: w.Slice(i+hdr, total-hdr)})
		i += total
	}
	return out
}
