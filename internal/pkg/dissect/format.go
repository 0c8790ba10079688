package dissect

import (
	"encoding/hex"
	"fmt"
	"net/netip"
	"strings"
)

// mac renders b as colon separated hex pairs.
func mac(b []byte, upper bool) string {
	var sb strings.Builder
	for i, c := range b {
		if i > 0 {
			sb.WriteByte(':')
		}
		fmt.Fprintf(&sb, "%02x", c)
	}
	if upper {
		return strings.ToUpper(sb.String())
	}
	return sb.String()
}

// dotted renders b as dot separated decimal bytes, the way protocol
// addresses of any length are shown.
func dotted(b []byte) string {
	parts := make([]string, len(b))
	for i, c := range b {
		parts[i] = fmt.Sprint(c)
	}
	return strings.Join(parts, ".")
}

func ipv4(w Window, rel int) string {
	var a [4]byte
	copy(a[:], w.Range(rel, 4))
	return netip.AddrFrom4(a).String()
}

// ipv6 returns the canonical compressed form.
func ipv6(w Window, rel int) string {
	var a [16]byte
	copy(a[:], w.Range(rel, 16))
	return netip.AddrFrom16(a).String()
}

func hexString(b []byte) string {
	return hex.EncodeToString(b)
}

func hex16(v uint16) string {
	return fmt.Sprintf("0x%04x", v)
}

func setBit(set bool) string {
	if set {
		return "Set (1)"
	}
	return "Not set (0)"
}

// printable reports whether b is printable ASCII text.
func printable(b []byte) bool {
	for _, c := range b {
		if c < 0x20 || c > 0x7e {
			return false
		}
	}
	return true
}
