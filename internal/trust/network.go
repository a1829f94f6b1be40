package trust

import (
	"fmt"
	"net/netip"
)

// defaultTrustedNetworks covers RFC1918, loopback, and IPv6 loopback plus
// link-local.
var defaultTrustedNetworks = []string{
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"127.0.0.0/8",
	"::1/128",
	"fe80::/10",
}

// NetworkClassifier decides whether a caller address is inside the trusted
// perimeter.
type NetworkClassifier struct {
	prefixes []netip.Prefix
}

// NewNetworkClassifier builds a classifier from CIDR strings. An empty list
// uses the private-network defaults.
func NewNetworkClassifier(cidrs []string) (*NetworkClassifier, error) {
	if len(cidrs) == 0 {
		cidrs = defaultTrustedNetworks
	}
	prefixes := make([]netip.Prefix, 0, len(cidrs))
	for _, cidr := range cidrs {
		p, err := netip.ParsePrefix(cidr)
		if err != nil {
			return nil, fmt.Errorf("%w: bad trusted network %q: %v", ErrConfig, cidr, err)
		}
		prefixes = append(prefixes, p.Masked())
	}
	return &NetworkClassifier{prefixes: prefixes}, nil
}

// IsInternal reports whether the address falls in any trusted range.
// Unparseable addresses are external.
func (n *NetworkClassifier) IsInternal(addr string) bool {
	ip, err := netip.ParseAddr(addr)
	if err != nil {
		return false
	}
	ip = ip.Unmap()
	for _, p := range n.prefixes {
		if p.Contains(ip) {
			return true
		}
	}
	return false
}
