package dissect

// portRule routes a transport payload to an application dissector when the
// source or destination port matches. Rules are tried in order.
type portRule struct {
	ports   []uint16
	dstOnly bool
	e       entry
}

func (r portRule) match(src, dst uint16) bool {
	for _, p := range r.ports {
		if dst == p || (!r.dstOnly && src == p) {
			return true
		}
	}
	return false
}

func matchPort(rules []portRule, src, dst uint16) (entry, bool) {
	for _, r := range rules {
		if r.match(src, dst) {
			return r.e, true
		}
	}
	return entry{}, false
}

var (
	tcpPorts []portRule
	udpPorts []portRule
)

func init() {
	tcpPorts = []portRule{
		{ports: []uint16{53}, e: entry{"DNS", newDNS}},
		{ports: []uint16{80}, e: entry{"HTTP", newHTTP}},
		{ports: []uint16{443}, e: entry{"TLS", newTLS}},
	}
	udpPorts = []portRule{
		{ports: []uint16{53, 5353}, e: entry{"DNS", newDNS}},
		{ports: []uint16{67, 68}, e: entry{"DHCP", newDHCP}},
		{ports: []uint16{443}, e: entry{"QUIC", newQUIC}},
		{ports: []uint16{4789}, dstOnly: true, e: entry{"VXLAN", newVXLAN}},
	}
}
