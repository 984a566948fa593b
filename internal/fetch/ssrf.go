package fetch

import (
	"context"
	"net"
	"net/netip"
)

// forbiddenNets are the address ranges the fetcher must never contact.
// This is the SSRF guard: a user-supplied URL (or any redirect in its
// chain) must not be able to turn the scanner into a proxy against
// loopback, RFC1918, link-local, or multicast space.
var forbiddenNets = []netip.Prefix{
	netip.MustParsePrefix("127.0.0.0/8"),
	netip.MustParsePrefix("10.0.0.0/8"),
	netip.MustParsePrefix("172.16.0.0/12"),
	netip.MustParsePrefix("192.168.0.0/16"),
	netip.MustParsePrefix("169.254.0.0/16"),
	netip.MustParsePrefix("224.0.0.0/4"),
	netip.MustParsePrefix("::1/128"),
	netip.MustParsePrefix("fc00::/7"),
	netip.MustParsePrefix("fe80::/10"),
	netip.MustParsePrefix("ff00::/8"),
}

// IsForbiddenIP reports whether the string is an IP address inside a
// forbidden range. Unparseable strings return false; they are hostnames,
// not addresses, and are judged after resolution.
func IsForbiddenIP(s string) bool {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return false
	}
	return isForbiddenAddr(addr, forbiddenNets)
}

// isForbiddenAddr reports whether the address falls in one of the ranges.
// IPv4-mapped IPv6 addresses (::ffff:127.0.0.1) are unmapped first so
// they cannot smuggle a forbidden IPv4 address past the IPv6 prefixes.
func isForbiddenAddr(addr netip.Addr, ranges []netip.Prefix) bool {
	addr = addr.Unmap()
	for _, prefix := range ranges {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// Resolver resolves a hostname to all of its addresses. It exists as an
// interface so tests can stub DNS without a network.
type Resolver interface {
	LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error)
}

// resolveHost returns every address the host resolves to. A literal IP
// resolves to itself. An empty result means resolution failed.
func resolveHost(ctx context.Context, r Resolver, host string) []netip.Addr {
	if addr, err := netip.ParseAddr(host); err == nil {
		return []netip.Addr{addr}
	}
	addrs, err := r.LookupNetIP(ctx, "ip", host)
	if err != nil {
		return nil
	}
	return addrs
}

// defaultResolver adapts net.DefaultResolver to the Resolver interface.
func defaultResolver() Resolver {
	return net.DefaultResolver
}
