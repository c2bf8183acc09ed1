package crawler

import (
	"fmt"
	"net"
)

// Crawl queues are an easy vehicle for server-side request forgery: anyone
// who can enqueue a URL can point the crawler at internal infrastructure.
// addrGuard is the default PrivateNetworkDetector: it resolves the target
// host and refuses addresses that are not publicly routable, plus any
// ranges the operator blocks explicitly.

// builtinBlockedCIDRs covers the corner ranges the net.IP classifiers do
// not: the "this network" block and the limited broadcast address.
var builtinBlockedCIDRs = []string{
	"0.0.0.0/8",
	"255.255.255.255/32",
}

type addrGuard struct {
	blockedNets []*net.IPNet
}

// newAddrGuard builds the default detector. extraCIDRs come from the
// crawler configuration and extend the built-in blocks, e.g. to fence off
// a cloud metadata range or an internal VPN prefix.
func newAddrGuard(extraCIDRs ...string) (*addrGuard, error) {
	guard := new(addrGuard)

	for _, cidr := range append(append([]string{}, builtinBlockedCIDRs...), extraCIDRs...) {
		_, block, err := net.ParseCIDR(cidr)
		if err != nil {
			return nil, fmt.Errorf("parse blocked CIDR %q: %w", cidr, err)
		}

		guard.blockedNets = append(guard.blockedNets, block)
	}

	return guard, nil
}

// IsNetworkPrivate resolves host and reports whether any of its addresses
// is private, loopback, link-local or unspecified, or falls into one of the
// blocked CIDRs. A host is rejected when any single address trips the
// check: a DNS name with one public and one internal address is exactly the
// rebinding shape this guard exists for.
func (g *addrGuard) IsNetworkPrivate(host string) (bool, error) {
	ips, err := net.LookupIP(host)
	if err != nil {
		return false, err
	}

	for _, ip := range ips {
		if isNonPublic(ip) || g.isBlocked(ip) {
			return true, nil
		}
	}

	return false, nil
}

func isNonPublic(ip net.IP) bool {
	return ip.IsPrivate() ||
		ip.IsLoopback() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsUnspecified()
}

func (g *addrGuard) isBlocked(ip net.IP) bool {
	for _, block := range g.blockedNets {
		if block.Contains(ip) {
			return true
		}
	}

	return false
}
