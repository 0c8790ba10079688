package dissect

import "fmt"

const (
	greMinHeaderLen = 4
	mplsHeaderLen   = 4
	vlanHeaderLen   = 4
	vxlanHeaderLen  = 8
)

// GRE is a Generic Routing Encapsulation header. Each of the checksum, key
// and sequence flags adds four bytes to the header.
type GRE struct {
	base
	Flags        uint8
	Version      uint8
	ProtocolType uint16
	Checksum     uint16
	Key          uint32
	Sequence     uint32
}

func newGRE(d *decoder, w Window) (Dissector, error) {
	if err := need(w, greMinHeaderLen, "GRE"); err != nil {
		return nil, err
	}
	g := &GRE{
		Flags:        w.U8(0),
		Version:      w.U8(1) & 0x07,
		ProtocolType: w.U16(2),
	}
	hl := greMinHeaderLen
	if g.HasChecksum() {
		g.Checksum = w.U16(hl)
		hl += 4
	}
	if g.HasKey() {
		g.Key = w.U32(hl)
		hl += 4
	}
	if g.HasSequence() {
		g.Sequence = w.U32(hl)
		hl += 4
	}
	if err := need(w, hl, "GRE"); err != nil {
		return nil, err
	}
	d.protocol("GRE")
	g.base = base{win: w, hdr: hl}
	g.inner = d.etherPayload(g.ProtocolType, w.From(hl))
	return g, nil
}

func (g *GRE) HasChecksum() bool { return g.Flags&0x80 != 0 }
func (g *GRE) HasKey() bool      { return g.Flags&0x20 != 0 }
func (g *GRE) HasSequence() bool { return g.Flags&0x10 != 0 }

func (g *GRE) Summary() string {
	return fmt.Sprintf("GRE (%s) %s", hex16(g.ProtocolType), g.innerSummary())
}

func (g *GRE) Fields() []*Field {
	w := g.win
	name := "Possible GRE Keepalive Packet"
	if g.ProtocolType != 0 {
		name = etherTypeName(g.ProtocolType)
	}
	root := w.node("Generic Routing Encapsulation (GRE)", name, 0, g.hdr,
		w.node("Flags and Version", fmt.Sprintf("0x%04x", w.U16(0)), 0, 2,
			w.field("Checksum Bit", setBit(g.HasChecksum()), 0, 1),
			w.field("Key Bit", setBit(g.HasKey()), 0, 1),
			w.field("Sequence Number Bit", setBit(g.HasSequence()), 0, 1),
			w.field("Version", fmt.Sprint(g.Version), 1, 1),
		),
		w.field("Protocol Type", fmt.Sprintf("%s (%s)", name, hex16(g.ProtocolType)), 2, 2),
	)
	at := greMinHeaderLen
	if g.HasChecksum() {
		root.Add(w.field("Checksum", hex16(g.Checksum), at, 2))
		at += 4
	}
	if g.HasKey() {
		root.Add(w.field("Key", fmt.Sprintf("%d (0x%08x)", g.Key, g.Key), at, 4))
		at += 4
	}
	if g.HasSequence() {
		root.Add(w.field("Sequence", fmt.Sprintf("%d (0x%08x)", g.Sequence, g.Sequence), at, 4))
	}
	return g.withInner(root)
}

// MPLS is one label stack entry. Below the bottom of the stack the payload
// is IP, picked by version nibble.
type MPLS struct {
	base
	Label uint32
	TC    uint8
	BOS   bool
	TTL   uint8
}

func newMPLS(d *decoder, w Window) (Dissector, error) {
	if err := need(w, mplsHeaderLen, "MPLS"); err != nil {
		return nil, err
	}
	v := w.U32(0)
	m := &MPLS{
		base:  base{win: w, hdr: mplsHeaderLen},
		Label: v >> 12,
		TC:    uint8(v>>9) & 0x07,
		BOS:   v&0x100 != 0,
		TTL:   uint8(v),
	}
	d.protocol("MPLS")
	payload := w.From(mplsHeaderLen)
	if m.BOS {
		if payload.Len() == 0 {
			m.inner = newGeneric(payload)
		} else {
			m.inner = d.ipVersion(payload)
		}
	} else {
		m.inner = d.build(entry{"MPLS", newMPLS}, payload)
	}
	return m, nil
}

// Summary names MPLS once for the whole label stack.
func (m *MPLS) Summary() string {
	if m.BOS {
		return "MPLS " + m.innerSummary()
	}
	return m.innerSummary()
}

func (m *MPLS) Fields() []*Field {
	w := m.win
	root := w.node("Multi-Protocol Label Switching (MPLS)",
		fmt.Sprintf("Label: %d, EXP: %d, S: %t, TTL: %d", m.Label, m.TC, m.BOS, m.TTL), 0, mplsHeaderLen,
		w.field("Label", fmt.Sprint(m.Label), 0, 3),
		w.field("Experimental Bits", fmt.Sprint(m.TC), 2, 1),
		w.field("Bottom of Label Stack", fmt.Sprint(m.BOS), 2, 1),
		w.field("TTL", fmt.Sprint(m.TTL), 3, 1),
	)
	return m.withInner(root)
}

var vlanPriorities = []string{
	"Best effort (default)",
	"Background (lowest)",
	"Excellent effort",
	"Critical applications",
	"Video, <100 ms latency and jitter",
	"Video, <10ms latency and jitter",
	"Internetwork control",
	"Network control",
}

// VLAN is an 802.1Q tag.
type VLAN struct {
	base
	Priority uint8
	DEI      bool
	ID       uint16
	Type     uint16
}

func newVLAN(d *decoder, w Window) (Dissector, error) {
	if err := need(w, vlanHeaderLen, "VLAN"); err != nil {
		return nil, err
	}
	tci := w.U16(0)
	v := &VLAN{
		base:     base{win: w, hdr: vlanHeaderLen},
		Priority: uint8(tci >> 13),
		DEI:      tci&0x1000 != 0,
		ID:       tci & 0x0fff,
		Type:     w.U16(2),
	}
	d.protocol("VLAN")
	v.inner = d.etherPayload(v.Type, w.From(vlanHeaderLen))
	return v, nil
}

func (v *VLAN) Summary() string {
	return fmt.Sprintf("VLAN %d (%s) %s", v.ID, hex16(v.Type), v.innerSummary())
}

func (v *VLAN) Fields() []*Field {
	w := v.win
	dei := "Ineligible"
	if v.DEI {
		dei = "Eligible"
	}
	root := w.node("802.1Q Virtual LAN", fmt.Sprintf("PRI: %d, DEI: %d, ID: %d", v.Priority, w.U8(0)>>4&1, v.ID), 0, vlanHeaderLen,
		w.field("PRI", fmt.Sprintf("%s (%d)", vlanPriorities[v.Priority], v.Priority), 0, 1),
		w.field("DEI", dei, 0, 1),
		w.field("ID", fmt.Sprint(v.ID), 0, 2),
		w.field("Type", fmt.Sprintf("%s (%s)", etherTypeName(v.Type), hex16(v.Type)), 2, 2),
	)
	return v.withInner(root)
}

// VXLAN is a VXLAN header. The payload is always an Ethernet frame.
type VXLAN struct {
	base
	Flags         uint16
	GroupPolicyID uint16
	VNI           uint32
}

func newVXLAN(d *decoder, w Window) (Dissector, error) {
	if err := need(w, vxlanHeaderLen, "VXLAN"); err != nil {
		return nil, err
	}
	x := &VXLAN{
		base:          base{win: w, hdr: vxlanHeaderLen},
		Flags:         w.U16(0),
		GroupPolicyID: w.U16(2),
		VNI:           w.U32(4) >> 8,
	}
	d.protocol("VXLAN")
	x.inner = d.build(entry{"Ethernet", newEthernet}, w.From(vxlanHeaderLen))
	return x, nil
}

func (x *VXLAN) Summary() string {
	return fmt.Sprintf("VXLAN %d: %s", x.VNI, x.innerSummary())
}

func (x *VXLAN) Fields() []*Field {
	w := x.win
	f := x.Flags
	root := w.node("Virtual eXtensible Local Area Network", fmt.Sprintf("VNI: %d", x.VNI), 0, vxlanHeaderLen,
		w.node("Flags", hex16(f), 0, 2,
			w.field("GBP Extension", setBit(f&0x8000 != 0), 0, 1),
			w.field("VXLAN Network ID (VNI)", setBit(f&0x0800 != 0), 0, 1),
			w.field("Don't Learn", setBit(f&0x0040 != 0), 1, 1),
			w.field("Policy Applied", setBit(f&0x0008 != 0), 1, 1),
		),
		w.field("Group Policy ID", fmt.Sprint(x.GroupPolicyID), 2, 2),
		w.field("VXLAN Network Identifier (VNI)", fmt.Sprint(x.VNI), 4, 3),
	)
	return x.withInner(root)
}
