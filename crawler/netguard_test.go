package crawler

import (
	check "gopkg.in/check.v1"
)

var _ = check.Suite(new(AddrGuardTestSuite))

type AddrGuardTestSuite struct {
	guard *addrGuard
}

func (s *AddrGuardTestSuite) SetUpTest(c *check.C) {
	guard, err := newAddrGuard()
	c.Assert(err, check.IsNil)
	s.guard = guard
}

func (s *AddrGuardTestSuite) TestNonPublicAddressesRejected(c *check.C) {
	// IP literals resolve without touching DNS.
	for _, addr := range []string{
		"127.0.0.1",       // loopback
		"::1",             // IPv6 loopback
		"10.42.0.1",       // RFC1918
		"172.17.3.9",      // RFC1918
		"192.168.1.254",   // RFC1918
		"169.254.169.254", // link-local (cloud metadata)
		"fe80::1",         // IPv6 link-local
		"fd00::2",         // IPv6 unique local
		"0.0.0.0",         // unspecified
		"0.1.2.3",         // "this network" block
	} {
		isPrivate, err := s.guard.IsNetworkPrivate(addr)
		c.Assert(err, check.IsNil, check.Commentf("addr %s", addr))
		c.Assert(isPrivate, check.Equals, true, check.Commentf("addr %s", addr))
	}
}

func (s *AddrGuardTestSuite) TestPublicAddressAllowed(c *check.C) {
	isPrivate, err := s.guard.IsNetworkPrivate("93.184.216.34")
	c.Assert(err, check.IsNil)
	c.Assert(isPrivate, check.Equals, false)
}

func (s *AddrGuardTestSuite) TestOperatorBlockedCIDR(c *check.C) {
	guard, err := newAddrGuard("203.0.113.0/24")
	c.Assert(err, check.IsNil)

	isPrivate, err := guard.IsNetworkPrivate("203.0.113.7")
	c.Assert(err, check.IsNil)
	c.Assert(isPrivate, check.Equals, true)

	// A neighbouring prefix stays reachable.
	isPrivate, err = guard.IsNetworkPrivate("203.0.112.7")
	c.Assert(err, check.IsNil)
	c.Assert(isPrivate, check.Equals, false)
}

func (s *AddrGuardTestSuite) TestMalformedCIDRRejected(c *check.C) {
	_, err := newAddrGuard("not-a-cidr")
	c.Assert(err, check.Not(check.IsNil))
}

func (s *AddrGuardTestSuite) TestUnresolvableHostErrors(c *check.C) {
	_, err := s.guard.IsNetworkPrivate("host.invalid")
	c.Assert(err, check.Not(check.IsNil))
}
