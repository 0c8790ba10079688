package dissect

import (
	"fmt"
	"strings"

	"github.com/endorses/pcapview/internal/pkg/constants"
	"github.com/google/gopacket/layers"
)

const dnsHeaderLen = 12

var dnsTypeNames = map[layers.DNSType]string{
	layers.DNSTypeA:     "A",
	layers.DNSTypeNS:    "NS",
	layers.DNSTypeMD:    "MD",
	layers.DNSTypeMF:    "MF",
	layers.DNSTypeCNAME: "CNAME",
	layers.DNSTypeSOA:   "SOA",
	layers.DNSTypeMB:    "MB",
	layers.DNSTypeMG:    "MG",
	layers.DNSTypeMR:    "MR",
	layers.DNSTypeNULL:  "NULL",
	layers.DNSTypeWKS:   "WKS",
	layers.DNSTypePTR:   "PTR",
	layers.DNSTypeHINFO: "HINFO",
	layers.DNSTypeMINFO: "MINFO",
	layers.DNSTypeMX:    "MX",
	layers.DNSTypeTXT:   "TXT",
	layers.DNSType(18):  "AFSDB",
	layers.DNSTypeAAAA:  "AAAA",
	layers.DNSTypeSRV:   "SRV",
	layers.DNSTypeOPT:   "OPT",
	layers.DNSType(47):  "NSEC",
	layers.DNSType(252): "AXFR",
	layers.DNSType(253): "MAILB",
	layers.DNSType(254): "MAILA",
	layers.DNSType(255): "*",
}

var dnsClassNames = map[layers.DNSClass]string{
	layers.DNSClassIN:  "IN",
	layers.DNSClassCS:  "CS",
	layers.DNSClassCH:  "CH",
	layers.DNSClassHS:  "HS",
	layers.DNSClassAny: "*",
}

func dnsTypeName(t layers.DNSType) string {
	if n, ok := dnsTypeNames[t]; ok {
		return n
	}
	return "Unknown"
}

var dnsOpcodes = []string{"Standard query", "Inverse query", "Server status request"}

// readName decodes the possibly compressed name at rel. n is the number of
// bytes the name occupies at rel itself; a compression pointer counts as two
// bytes no matter how long the name it points to is. Pointer offsets are
// relative to the start of the DNS message in w.
func readName(w Window, rel int) (name string, n int, err error) {
	var labels []string
	jumped := false
	jumps := 0
	pos := rel
	for {
		if !w.Has(pos, 1) {
			return "", 0, fmt.Errorf("%w: DNS name at %d", ErrTruncated, pos)
		}
		c := int(w.U8(pos))
		switch {
		case c == 0:
			if !jumped {
				n++
			}
			return strings.Join(labels, "."), n, nil
		case c&0xc0 == 0xc0:
			if !w.Has(pos, 2) {
				return "", 0, fmt.Errorf("%w: DNS pointer at %d", ErrTruncated, pos)
			}
			if jumps >= constants.DNSMaxPointerJumps {
				return "", 0, fmt.Errorf("%w: name at %d", ErrPointerLoop, rel)
			}
			jumps++
			if !jumped {
				n += 2
				jumped = true
			}
			pos = int(w.U16(pos) & 0x3fff)
		default:
			if !w.Has(pos+1, c) {
				return "", 0, fmt.Errorf("%w: DNS label at %d", ErrTruncated, pos)
			}
			labels = append(labels, string(w.Range(pos+1, c)))
			if !jumped {
				n += 1 + c
			}
			pos += 1 + c
		}
	}
}

// DNSQuestion is one entry of the question section.
type DNSQuestion struct {
	Name   string
	Type   layers.DNSType
	Class  layers.DNSClass
	offset int
	length int
}

func (q DNSQuestion) String() string {
	return fmt.Sprintf("%s: type %s (%d), class %s (%d)",
		q.Name, dnsTypeName(q.Type), q.Type, dnsClassNames[q.Class], q.Class)
}

// DNSRecord is one resource record of the answer, authority or additional section.
type DNSRecord struct {
	Name    string
	Type    layers.DNSType
	Class   layers.DNSClass
	TTL     uint32
	DataLen uint16
	offset  int
	nameLen int
}

func (r DNSRecord) length() int { return r.nameLen + 10 + int(r.DataLen) }

// DNS is a DNS message. A section that runs past the window stops parsing
// and marks the message truncated; everything decoded before it is kept.
type DNS struct {
	base
	ID          uint16
	Flags       uint16
	QDCount     uint16
	ANCount     uint16
	NSCount     uint16
	ARCount     uint16
	Questions   []DNSQuestion
	Answers     []DNSRecord
	Authorities []DNSRecord
	Additionals []DNSRecord
	Truncated   bool
}

func newDNS(d *decoder, w Window) (Dissector, error) {
	if err := need(w, dnsHeaderLen, "DNS"); err != nil {
		return nil, err
	}
	m := &DNS{
		base:    base{win: w, hdr: w.Len()},
		ID:      w.U16(0),
		Flags:   w.U16(2),
		QDCount: w.U16(4),
		ANCount: w.U16(6),
		NSCount: w.U16(8),
		ARCount: w.U16(10),
	}
	if err := m.parseSections(); err != nil {
		m.Truncated = true
	}
	d.protocol("DNS")
	return m, nil
}

func (m *DNS) parseSections() error {
	pos := dnsHeaderLen
	for i := 0; i < int(m.QDCount); i++ {
		name, n, err := readName(m.win, pos)
		if err != nil {
			return err
		}
		if !m.win.Has(pos+n, 4) {
			return fmt.Errorf("%w: DNS question at %d", ErrTruncated, pos)
		}
		m.Questions = append(m.Questions, DNSQuestion{
			Name:   name,
			Type:   layers.DNSType(m.win.U16(pos + n)),
			Class:  layers.DNSClass(m.win.U16(pos + n + 2)),
			offset: pos,
			length: n + 4,
		})
		pos += n + 4
	}
	sections := []struct {
		count uint16
		dst   *[]DNSRecord
	}{
		{m.ANCount, &m.Answers},
		{m.NSCount, &m.Authorities},
		{m.ARCount, &m.Additionals},
	}
	for _, s := range sections {
		for i := 0; i < int(s.count); i++ {
			r, err := m.readRecord(pos)
			if err != nil {
				return err
			}
			*s.dst = append(*s.dst, r)
			pos += r.length()
		}
	}
	return nil
}

func (m *DNS) readRecord(pos int) (DNSRecord, error) {
	name, n, err := readName(m.win, pos)
	if err != nil {
		return DNSRecord{}, err
	}
	if !m.win.Has(pos+n, 10) {
		return DNSRecord{}, fmt.Errorf("%w: DNS record at %d", ErrTruncated, pos)
	}
	r := DNSRecord{
		Name:    name,
		Type:    layers.DNSType(m.win.U16(pos + n)),
		Class:   layers.DNSClass(m.win.U16(pos + n + 2)),
		TTL:     m.win.U32(pos + n + 4),
		DataLen: m.win.U16(pos + n + 8),
		offset:  pos,
		nameLen: n,
	}
	if !m.win.Has(pos, r.length()) {
		return DNSRecord{}, fmt.Errorf("%w: DNS rdata at %d", ErrTruncated, pos+n+10)
	}
	return r, nil
}

func (m *DNS) IsResponse() bool { return m.Flags&0x8000 != 0 }
func (m *DNS) Opcode() uint8    { return uint8(m.Flags>>11) & 0x0f }

func (m *DNS) opMessage() string {
	if op := int(m.Opcode()); op < len(dnsOpcodes) {
		return dnsOpcodes[op]
	}
	return "Unknown query type"
}

func (m *DNS) Summary() string {
	var sb strings.Builder
	sb.WriteString("DNS ")
	sb.WriteString(m.opMessage())
	if m.IsResponse() {
		sb.WriteString(" response")
	}
	fmt.Fprintf(&sb, " 0x%04x", m.ID)
	if len(m.Questions) > 0 {
		names := make([]string, len(m.Questions))
		for i, q := range m.Questions {
			names[i] = q.Name
		}
		sb.WriteString(", " + strings.Join(names, " "))
	}
	if len(m.Answers) > 0 {
		names := make([]string, len(m.Answers))
		for i, r := range m.Answers {
			names[i] = m.answerText(r)
		}
		sb.WriteString(", " + strings.Join(names, " "))
	}
	if m.Truncated {
		sb.WriteString(" [Truncated]")
	}
	return sb.String()
}

// answerText is the short form of an answer used in the summary.
func (m *DNS) answerText(r DNSRecord) string {
	rd := m.win.Slice(r.offset+r.nameLen+10, int(r.DataLen))
	switch r.Type {
	case layers.DNSTypeA:
		if rd.Len() == 4 {
			return ipv4(rd, 0)
		}
	case layers.DNSTypeAAAA:
		if rd.Len() == 16 {
			return ipv6(rd, 0)
		}
	case layers.DNSTypeCNAME, layers.DNSTypePTR, layers.DNSTypeNS:
		if name, _, err := readName(m.win, r.offset+r.nameLen+10); err == nil {
			return name
		}
	}
	return r.Name
}

func notWord(set bool, word string) string {
	if set {
		return ""
	}
	return word
}

func (m *DNS) Fields() []*Field {
	w := m.win
	f := m.Flags
	resp := "Message is a query"
	if m.IsResponse() {
		resp = "Message is a response"
	}
	flags := w.node("Flags", fmt.Sprintf("0x%04x(%d) %s", f, m.Opcode(), m.opMessage()), 2, 2,
		w.field("Response", resp, 2, 1),
		w.field("Authoritative", fmt.Sprintf("Server is %san authority for domain", notWord(f&0x0400 != 0, "not ")), 2, 1),
		w.field("Truncated", fmt.Sprintf("Message is %struncated", notWord(f&0x0200 != 0, "not ")), 2, 1),
		w.field("Recursion desired", fmt.Sprintf("Do %squery recursively", notWord(f&0x0100 != 0, "not ")), 2, 1),
		w.field("Recursion available", fmt.Sprintf("Server can%s do recursive queries", notWord(f&0x0080 != 0, "not")), 3, 1),
		w.field("Z", fmt.Sprintf("Reserved (%d)", (f>>4)&0x07), 3, 1),
		w.field("Reply code", fmt.Sprint(f&0x0f), 3, 1),
	)
	root := w.node("Domain Name System", "", 0, w.Len(),
		w.field("Transaction ID", fmt.Sprint(m.ID), 0, 2),
		flags,
		w.field("Questions", fmt.Sprint(m.QDCount), 4, 2),
		w.field("Answer RRs", fmt.Sprint(m.ANCount), 6, 2),
		w.field("Authority RRs", fmt.Sprint(m.NSCount), 8, 2),
		w.field("Additional RRs", fmt.Sprint(m.ARCount), 10, 2),
	)
	if len(m.Questions) > 0 {
		q := m.Questions
		queries := w.node("Queries", "", q[0].offset, q[len(q)-1].offset+q[len(q)-1].length-q[0].offset)
		for _, e := range q {
			queries.Add(w.field(e.String(), "", e.offset, e.length))
		}
		root.Add(queries)
	}
	for _, s := range []struct {
		label   string
		records []DNSRecord
	}{
		{"Answers", m.Answers},
		{"Authoritative nameservers", m.Authorities},
		{"Additional records", m.Additionals},
	} {
		if len(s.records) == 0 {
			continue
		}
		first, last := s.records[0], s.records[len(s.records)-1]
		sec := w.node(s.label, "", first.offset, last.offset+last.length()-first.offset)
		for _, r := range s.records {
			sec.Add(m.recordField(r))
		}
		root.Add(sec)
	}
	if m.Truncated {
		root.Add(w.field("[Truncated]", "Message is truncated", w.Len(), 0))
	}
	return []*Field{root}
}

func (m *DNS) recordField(r DNSRecord) *Field {
	w := m.win
	at := r.offset + r.nameLen
	class := dnsClassNames[r.Class]
	if class == "" {
		class = fmt.Sprint(uint16(r.Class))
	}
	f := w.node(r.Name, fmt.Sprintf("Type %s, Class %s", dnsTypeName(r.Type), class), r.offset, r.length(),
		w.field("Time to live", fmt.Sprintf("%d sec", r.TTL), at+4, 4),
		w.field("Data length", fmt.Sprint(r.DataLen), at+8, 2),
	)
	for _, c := range m.rdataFields(r, at+10) {
		f.Add(c)
	}
	return f
}

// rdataFields decodes the record data at rel for the types with a known layout.
func (m *DNS) rdataFields(r DNSRecord, rel int) []*Field {
	w := m.win
	n := int(r.DataLen)
	name := func(label string, at int) (*Field, int) {
		s, l, err := readName(w, at)
		if err != nil {
			return w.field(label, "<invalid>", at, 0), 0
		}
		return w.field(label, s, at, l), l
	}
	switch r.Type {
	case layers.DNSTypeA:
		if n == 4 {
			return []*Field{w.field("Address", ipv4(w, rel), rel, 4)}
		}
	case layers.DNSTypeAAAA:
		if n == 16 {
			return []*Field{w.field("Address", ipv6(w, rel), rel, 16)}
		}
	case layers.DNSTypeCNAME:
		f, _ := name("CNAME", rel)
		return []*Field{f}
	case layers.DNSTypeNS:
		f, _ := name("Name Server", rel)
		return []*Field{f}
	case layers.DNSTypePTR:
		f, _ := name("Domain Name", rel)
		return []*Field{f}
	case layers.DNSTypeMX:
		f, _ := name("Mail Exchange", rel+2)
		return []*Field{w.field("Preference", fmt.Sprint(w.U16(rel)), rel, 2), f}
	case layers.DNSTypeSOA:
		mname, ml := name("Primary name server", rel)
		rname, rl := name("Responsible authority's mailbox", rel+ml)
		at := rel + ml + rl
		return []*Field{
			mname,
			rname,
			w.field("Serial Number", fmt.Sprint(w.U32(at)), at, 4),
			w.field("Refresh Interval", fmt.Sprintf("%d sec", w.U32(at+4)), at+4, 4),
			w.field("Retry Interval", fmt.Sprintf("%d sec", w.U32(at+8)), at+8, 4),
			w.field("Expire limit", fmt.Sprintf("%d sec", w.U32(at+12)), at+12, 4),
			w.field("Minimum TTL", fmt.Sprintf("%d sec", w.U32(at+16)), at+16, 4),
		}
	case layers.DNSTypeTXT:
		var out []*Field
		for at := rel; at < rel+n; {
			l := int(w.U8(at))
			out = append(out, w.field("TXT", string(w.Range(at+1, l)), at, l+1))
			at += l + 1
		}
		return out
	case layers.DNSTypeSRV:
		target, _ := name("Target", rel+6)
		return []*Field{
			w.field("Priority", fmt.Sprint(w.U16(rel)), rel, 2),
			w.field("Weight", fmt.Sprint(w.U16(rel+2)), rel+2, 2),
			w.field("Port", fmt.Sprint(w.U16(rel+4)), rel+4, 2),
			target,
		}
	}
	if n == 0 {
		return nil
	}
	return []*Field{w.field("Data", hexString(w.Range(rel, n)), rel, n)}
}
