package server

import (
	check "gopkg.in/check.v1"
)

var _ = check.Suite(&BlueprintSuite{})

type BlueprintSuite struct{}

func (*BlueprintSuite) blueprint() *Blueprint {
	return &Blueprint{
		ID:      "mc-vanilla",
		Image:   "ghcr.io/stellar/java:17",
		Startup: "java -Xms128M -Xmx{{SERVER_MEMORY}}M -jar {{SERVER_JARFILE}}",
		Variables: []Variable{
			{Name: "Server Memory", EnvKey: "SERVER_MEMORY", Default: "1024"},
			{Name: "Jar File", EnvKey: "SERVER_JARFILE", Default: "server.jar"},
		},
	}
}

func (s *BlueprintSuite) TestResolveDefaults(c *check.C) {
	vars := s.blueprint().ResolveVariables(nil)
	c.Check(vars, check.DeepEquals, map[string]string{
		"SERVER_MEMORY":  "1024",
		"SERVER_JARFILE": "server.jar",
	})
}

func (s *BlueprintSuite) TestResolveOverrides(c *check.C) {
	vars := s.blueprint().ResolveVariables(map[string]string{
		"SERVER_MEMORY": "2048",
		"UNDECLARED":    "nope",
	})
	c.Check(vars["SERVER_MEMORY"], check.Equals, "2048")
	c.Check(vars["SERVER_JARFILE"], check.Equals, "server.jar")
	_, ok := vars["UNDECLARED"]
	c.Check(ok, check.Equals, false)
}

func (s *BlueprintSuite) TestInvocationSubstitution(c *check.C) {
	bp := s.blueprint()
	inv := bp.Invocation(bp.ResolveVariables(map[string]string{"SERVER_MEMORY": "4096"}))
	c.Check(inv, check.Equals, "java -Xms128M -Xmx4096M -jar server.jar")
}

func (s *BlueprintSuite) TestInvocationKeepsUnknownTokens(c *check.C) {
	bp := &Blueprint{Startup: "run {{MISSING}}"}
	c.Check(bp.Invocation(map[string]string{}), check.Equals, "run {{MISSING}}")
}
