package dissect

import (
	"crypto/md5"
	"crypto/tls"
	"fmt"
	"strings"
)

const tlsRecordHeaderLen = 5

const (
	tlsChangeCipherSpec = 20
	tlsAlert            = 21
	tlsHandshake        = 22
	tlsApplicationData  = 23
)

var tlsContentTypes = map[uint8]string{
	tlsChangeCipherSpec: "Change Cipher Spec",
	tlsAlert:            "Alert",
	tlsHandshake:        "Handshake",
	tlsApplicationData:  "Application Data",
}

var tlsHandshakeTypes = map[uint8]string{
	1:   "Client Hello",
	2:   "Server Hello",
	4:   "New Session Ticket",
	5:   "End of Early Data",
	8:   "Encrypted Extensions",
	11:  "Certificate",
	12:  "Server Key Exchange",
	13:  "Certificate Request",
	14:  "Server Hello Done",
	15:  "Certificate Verify",
	16:  "Client Key Exchange",
	20:  "Finished",
	24:  "Key Update",
	254: "Message Hash",
}

var tlsExtensionNames = map[uint16]string{
	0:  "server_name",
	5:  "status_request",
	10: "supported_groups",
	11: "ec_point_formats",
	13: "signature_algorithms",
	16: "application_layer_protocol_negotiation",
	23: "extended_master_secret",
	35: "session_ticket",
	41: "pre_shared_key",
	43: "supported_versions",
	45: "psk_key_exchange_modes",
	51: "key_share",
}

// TLSRecord is one record of the record layer. Handshake records keep the
// type of the first message they carry.
type TLSRecord struct {
	ContentType   uint8
	Version       uint16
	Length        uint16
	HandshakeType uint8
	Hello         *TLSHello
	offset        int
}

// TLSHello holds the parts of a Client or Server Hello that fit the record.
// The unexported offsets are relative to the start of the hello body.
type TLSHello struct {
	Version      uint16
	SessionID    []byte
	CipherSuites []uint16
	Extensions   []uint16
	ServerName   string
	groups       []uint16
	pointFormats []uint8
	client       bool
	suitesAt     int
	extAt        []int
	sniAt        int
}

// JA3 is the MD5 fingerprint of a Client Hello, or "" for a Server Hello.
func (h *TLSHello) JA3() string {
	if !h.client {
		return ""
	}
	join := func(vs []uint16) string {
		var out []string
		for _, v := range vs {
			if v&0x0f0f != 0x0a0a {
				out = append(out, fmt.Sprint(v))
			}
		}
		return strings.Join(out, "-")
	}
	formats := make([]string, len(h.pointFormats))
	for i, f := range h.pointFormats {
		formats[i] = fmt.Sprint(f)
	}
	s := fmt.Sprintf("%d,%s,%s,%s,%s", h.Version, join(h.CipherSuites), join(h.Extensions),
		join(h.groups), strings.Join(formats, "-"))
	return fmt.Sprintf("%x", md5.Sum([]byte(s)))
}

// TLS is a run of TLS records inside one TCP segment.
type TLS struct {
	base
	Records []TLSRecord
}

func newTLS(d *decoder, w Window) (Dissector, error) {
	if err := need(w, tlsRecordHeaderLen, "TLS"); err != nil {
		return nil, err
	}
	if _, ok := tlsContentTypes[w.U8(0)]; !ok {
		return nil, fmt.Errorf("%w: TLS content type %d", ErrShortHeader, w.U8(0))
	}
	t := &TLS{base: base{win: w, hdr: w.Len()}}
	for pos := 0; w.Has(pos, tlsRecordHeaderLen); {
		ct := w.U8(pos)
		if _, ok := tlsContentTypes[ct]; !ok {
			break
		}
		r := TLSRecord{
			ContentType: ct,
			Version:     w.U16(pos + 1),
			Length:      w.U16(pos + 3),
			offset:      pos,
		}
		body := w.Slice(pos+tlsRecordHeaderLen, int(r.Length))
		if ct == tlsHandshake && body.Len() > 0 {
			r.HandshakeType = body.U8(0)
			if r.HandshakeType == 1 || r.HandshakeType == 2 {
				r.Hello = parseHello(body.From(4), r.HandshakeType == 1)
			}
		}
		t.Records = append(t.Records, r)
		pos += tlsRecordHeaderLen + int(r.Length)
	}
	d.protocol("TLS")
	return t, nil
}

func parseHello(w Window, client bool) *TLSHello {
	h := &TLSHello{Version: w.U16(0), client: client}
	pos := 34
	if !w.Has(pos, 1) {
		return h
	}
	sid := int(w.U8(pos))
	h.SessionID = w.Range(pos+1, sid)
	pos += 1 + sid
	if client {
		n := int(w.U16(pos))
		h.suitesAt = pos + 2
		for i := 0; i+1 < n && w.Has(pos+2+i, 2); i += 2 {
			h.CipherSuites = append(h.CipherSuites, w.U16(pos+2+i))
		}
		pos += 2 + n
		pos += 1 + int(w.U8(pos))
	} else {
		h.suitesAt = pos
		if w.Has(pos, 2) {
			h.CipherSuites = []uint16{w.U16(pos)}
		}
		pos += 3
	}
	if !w.Has(pos, 2) {
		return h
	}
	ext := w.Slice(pos+2, int(w.U16(pos)))
	for i := 0; ext.Has(i, 4); {
		typ := ext.U16(i)
		v := ext.Slice(i+4, int(ext.U16(i+2)))
		h.Extensions = append(h.Extensions, typ)
		h.extAt = append(h.extAt, pos+2+i)
		switch typ {
		case 0:
			if v.Has(3, 2) {
				h.ServerName = string(v.Range(5, int(v.U16(3))))
				h.sniAt = pos + 2 + i + 4 + 5
			}
		case 10:
			for j := 2; j+1 < 2+int(v.U16(0)) && v.Has(j, 2); j += 2 {
				h.groups = append(h.groups, v.U16(j))
			}
		case 11:
			h.pointFormats = append(h.pointFormats, v.Range(1, int(v.U8(0)))...)
		}
		i += 4 + v.Len()
	}
	return h
}

func (r TLSRecord) describe() string {
	if r.ContentType == tlsHandshake {
		if name, ok := tlsHandshakeTypes[r.HandshakeType]; ok {
			return name
		}
		return "Encrypted Handshake Message"
	}
	return tlsContentTypes[r.ContentType]
}

func (t *TLS) Summary() string {
	var parts []string
	for _, r := range t.Records {
		s := r.describe()
		if r.Hello != nil && r.Hello.ServerName != "" {
			s += " (" + r.Hello.ServerName + ")"
		}
		parts = append(parts, s)
	}
	return "TLS " + strings.Join(parts, ", ")
}

func (t *TLS) Fields() []*Field {
	w := t.win
	root := w.node("Transport Layer Security", "", 0, w.Len())
	for _, r := range t.Records {
		at := r.offset
		rec := w.node("TLS Record Layer", r.describe(), at, tlsRecordHeaderLen+int(r.Length),
			w.field("Content Type", fmt.Sprintf("%s (%d)", tlsContentTypes[r.ContentType], r.ContentType), at, 1),
			w.field("Version", fmt.Sprintf("%s (0x%04x)", tls.VersionName(r.Version), r.Version), at+1, 2),
			w.field("Length", fmt.Sprint(r.Length), at+3, 2),
		)
		if r.ContentType == tlsHandshake {
			if name, ok := tlsHandshakeTypes[r.HandshakeType]; ok {
				hs := w.node("Handshake Protocol", name, at+5, int(r.Length),
					w.field("Handshake Type", fmt.Sprintf("%s (%d)", name, r.HandshakeType), at+5, 1),
					w.field("Length", fmt.Sprint(w.U24(at+6)), at+6, 3),
				)
				if r.Hello != nil {
					t.helloFields(hs, r.Hello, at+9)
				}
				rec.Add(hs)
			}
		}
		root.Add(rec)
	}
	return []*Field{root}
}

func (t *TLS) helloFields(hs *Field, h *TLSHello, at int) {
	w := t.win
	hs.Add(
		w.field("Version", fmt.Sprintf("%s (0x%04x)", tls.VersionName(h.Version), h.Version), at, 2),
		w.field("Random", hexString(w.Range(at+2, 32)), at+2, 32),
		w.field("Session ID", hexString(h.SessionID), at+35, len(h.SessionID)),
	)
	suites := w.field("Cipher Suites", fmt.Sprintf("%d suites", len(h.CipherSuites)), at+h.suitesAt, 2*len(h.CipherSuites))
	for i, cs := range h.CipherSuites {
		suites.Add(w.field("Cipher Suite", fmt.Sprintf("%s (0x%04x)", tls.CipherSuiteName(cs), cs), at+h.suitesAt+2*i, 2))
	}
	hs.Add(suites)
	if len(h.Extensions) > 0 {
		first := at + h.extAt[0]
		exts := w.field("Extensions", fmt.Sprint(len(h.Extensions)), first, hs.Offset+hs.Length-w.Offset()-first)
		for i, e := range h.Extensions {
			name, ok := tlsExtensionNames[e]
			if !ok {
				name = "Unknown"
			}
			rel := at + h.extAt[i]
			exts.Add(w.field("Extension", fmt.Sprintf("%s (%d)", name, e), rel, 4+int(w.U16(rel+2))))
		}
		hs.Add(exts)
	}
	if h.ServerName != "" {
		hs.Add(w.field("Server Name", h.ServerName, at+h.sniAt, len(h.ServerName)))
	}
	if ja3 := h.JA3(); ja3 != "" {
		hs.Add(w.field("JA3", ja3, at, hs.Offset+hs.Length-w.Offset()-at))
	}
}
