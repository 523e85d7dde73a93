// Package netaddr tests client addresses against literal IP addresses
// and CIDR ranges for IPv4 and IPv6.
package netaddr

import (
	"net/netip"
	"strings"

	"go4.org/netipx"

	"github.com/vyrodovalexey/avaroute/internal/util"
)

// Matcher reports whether addr is contained in spec, where spec is a
// literal address or a CIDR range.
type Matcher interface {
	Contains(spec, addr string) bool
}

// MatcherFunc adapts a function to the Matcher interface.
type MatcherFunc func(spec, addr string) bool

// Contains calls f(spec, addr).
func (f MatcherFunc) Contains(spec, addr string) bool {
	return f(spec, addr)
}

// CIDRMatcher is the default Matcher. Unparsable input never matches.
type CIDRMatcher struct{}

// Contains implements Matcher.
func (CIDRMatcher) Contains(spec, addr string) bool {
	ip, err := ParseAddr(addr)
	if err != nil {
		return false
	}
	r, err := ParseRange(spec)
	if err != nil {
		return false
	}
	return r.Contains(ip)
}

// ParseAddr parses a client address. A trailing port and IPv6 zone are
// ignored and IPv4-mapped IPv6 addresses are unmapped.
func ParseAddr(s string) (netip.Addr, error) {
	if ap, err := netip.ParseAddrPort(s); err == nil {
		return ap.Addr().Unmap().WithZone(""), nil
	}
	a, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, util.NewAddressError(s, err)
	}
	return a.Unmap().WithZone(""), nil
}

// ParseRange parses a literal address or a CIDR range. Host bits set in a
// CIDR ("192.168.1.1/24") are ignored.
func ParseRange(s string) (netipx.IPRange, error) {
	if !strings.Contains(s, "/") {
		a, err := netip.ParseAddr(s)
		if err != nil {
			return netipx.IPRange{}, util.NewAddressError(s, err)
		}
		a = a.Unmap().WithZone("")
		return netipx.IPRangeFrom(a, a), nil
	}

	p, err := netip.ParsePrefix(s)
	if err != nil {
		return netipx.IPRange{}, util.NewAddressError(s, err)
	}
	if p.Addr().Is4In6() && p.Bits() >= 96 {
		p = netip.PrefixFrom(p.Addr().Unmap(), p.Bits()-96)
	}
	return netipx.RangeOfPrefix(p), nil
}
