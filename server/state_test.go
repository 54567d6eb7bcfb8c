package server

import (
	check "gopkg.in/check.v1"
)

var _ = check.Suite(&StateSuite{})

type StateSuite struct{}

func (*StateSuite) TestValidTransitions(c *check.C) {
	for _, tr := range []struct{ src, dst Status }{
		{Installing, Stopped},
		{Installing, InstallFailed},
		{InstallFailed, Installing},
		{Stopped, Starting},
		{Starting, Running},
		{Running, Stopping},
		{Stopping, Stopped},
		{Running, Suspended},
		{Stopped, Suspended},
		{Suspended, Suspended},
		{Suspended, Stopped},
	} {
		c.Check(ValidStatusTransition(tr.src, tr.dst), check.Equals, true,
			check.Commentf("%s -> %s", tr.src, tr.dst))
	}
}

func (*StateSuite) TestInvalidTransitions(c *check.C) {
	for _, tr := range []struct{ src, dst Status }{
		{Stopped, Running},
		{Suspended, Running},
		{Suspended, Starting},
		{InstallFailed, Running},
		{Starting, Suspended},
	} {
		c.Check(ValidStatusTransition(tr.src, tr.dst), check.Equals, false,
			check.Commentf("%s -> %s", tr.src, tr.dst))
	}
}

func (*StateSuite) TestParseStatus(c *check.C) {
	s, ok := ParseStatus("SUSPENDED")
	c.Check(ok, check.Equals, true)
	c.Check(s, check.Equals, Suspended)

	_, ok = ParseStatus("HIBERNATING")
	c.Check(ok, check.Equals, false)
}

func (*StateSuite) TestStatusNamesRoundTrip(c *check.C) {
	for s := range statusNames {
		parsed, ok := ParseStatus(s.String())
		c.Check(ok, check.Equals, true)
		c.Check(parsed, check.Equals, s)
	}
}
