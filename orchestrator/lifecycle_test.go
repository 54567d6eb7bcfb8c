package orchestrator

import (
	"context"
	"errors"

	check "gopkg.in/check.v1"

	"github.com/dcm2610/StellarStack-sub000/server"
)

var _ = check.Suite(&LifecycleSuite{})

type LifecycleSuite struct {
	OrchestratorSuite
}

func (s *LifecycleSuite) TestPowerStart(c *check.C) {
	srv := s.putServer(c, "n1", server.Resources{Memory: 1024, Disk: 2048, CPU: 100}, s.allocs[0])

	c.Assert(s.o.Power(context.Background(), srv.ID, "start"), check.IsNil)
	c.Check(s.fd.called("power:start:"+srv.ID.String()), check.Equals, true)
	c.Check(s.reload(c, srv.ID).Status, check.Equals, server.Starting)
	c.Check(s.rec.webhookCount("server.started"), check.Equals, 1)
}

func (s *LifecycleSuite) TestPowerUnknownAction(c *check.C) {
	srv := s.putServer(c, "n1", server.Resources{Memory: 1024, Disk: 2048, CPU: 100}, s.allocs[0])
	err := s.o.Power(context.Background(), srv.ID, "hibernate")
	c.Check(err, check.FitsTypeOf, &ValidationError{})
}

func (s *LifecycleSuite) TestPowerDuringInstallOnlyKill(c *check.C) {
	srv := s.putServer(c, "n1", server.Resources{Memory: 1024, Disk: 2048, CPU: 100}, s.allocs[0])
	srv.Status = server.Installing
	c.Assert(s.o.Servers.Put(srv.ID.String(), srv), check.IsNil)

	err := s.o.Power(context.Background(), srv.ID, "start")
	c.Check(err, check.FitsTypeOf, &ConflictError{})

	c.Assert(s.o.Power(context.Background(), srv.ID, "kill"), check.IsNil)
	c.Check(s.fd.called("power:kill:"+srv.ID.String()), check.Equals, true)
}

func (s *LifecycleSuite) TestPowerRemoteFailureLeavesStatus(c *check.C) {
	srv := s.putServer(c, "n1", server.Resources{Memory: 1024, Disk: 2048, CPU: 100}, s.allocs[0])
	s.fd.powerErr = errors.New("agent unreachable")

	err := s.o.Power(context.Background(), srv.ID, "start")
	c.Assert(err, check.NotNil)
	c.Check(s.reload(c, srv.ID).Status, check.Equals, server.Stopped)
}

func (s *LifecycleSuite) TestReinstall(c *check.C) {
	srv := s.putServer(c, "n1", server.Resources{Memory: 1024, Disk: 2048, CPU: 100}, s.allocs[0])

	c.Assert(s.o.Reinstall(context.Background(), srv.ID), check.IsNil)
	c.Check(s.fd.called("install:"+srv.ID.String()), check.Equals, true)
	c.Check(s.reload(c, srv.ID).Status, check.Equals, server.Installing)
}

func (s *LifecycleSuite) TestReinstallFailureRestoresStatus(c *check.C) {
	srv := s.putServer(c, "n1", server.Resources{Memory: 1024, Disk: 2048, CPU: 100}, s.allocs[0])
	s.fd.installErr = errors.New("agent unreachable")

	err := s.o.Reinstall(context.Background(), srv.ID)
	c.Assert(err, check.NotNil)
	c.Check(s.reload(c, srv.ID).Status, check.Equals, server.Stopped)
}

func (s *LifecycleSuite) TestDelete(c *check.C) {
	srv := s.putServer(c, "n1", server.Resources{Memory: 1024, Disk: 2048, CPU: 100}, s.allocs[0])

	c.Assert(s.o.Delete(context.Background(), srv.ID, false), check.IsNil)
	c.Check(s.fd.called("delete:"+srv.ID.String()), check.Equals, true)
	c.Check(s.serverCount(c), check.Equals, 0)
	c.Check(s.allocs[0].Assigned, check.Equals, false)
	c.Check(s.rec.webhookCount("server.deleted"), check.Equals, 1)
}

func (s *LifecycleSuite) TestDeleteRemoteFailureWithoutForce(c *check.C) {
	srv := s.putServer(c, "n1", server.Resources{Memory: 1024, Disk: 2048, CPU: 100}, s.allocs[0])
	s.fd.deleteErr = errors.New("agent unreachable")

	err := s.o.Delete(context.Background(), srv.ID, false)
	c.Assert(err, check.NotNil)
	c.Check(s.serverCount(c), check.Equals, 1)
	c.Check(s.allocs[0].Assigned, check.Equals, true)
}

func (s *LifecycleSuite) TestForceDeleteSkipsDeadAgent(c *check.C) {
	srv := s.putServer(c, "n1", server.Resources{Memory: 1024, Disk: 2048, CPU: 100}, s.allocs[0])
	s.fd.deleteErr = errors.New("agent unreachable")

	c.Assert(s.o.Delete(context.Background(), srv.ID, true), check.IsNil)
	c.Check(s.serverCount(c), check.Equals, 0)
	c.Check(s.allocs[0].Assigned, check.Equals, false)
}

func (s *LifecycleSuite) TestDeleteRejectedDuringTransfer(c *check.C) {
	srv := s.putServer(c, "n1", server.Resources{Memory: 1024, Disk: 2048, CPU: 100}, s.allocs[0])
	_, err := s.o.StartTransfer(context.Background(), srv.ID, "n2")
	c.Assert(err, check.IsNil)

	err = s.o.Delete(context.Background(), srv.ID, false)
	c.Check(err, check.FitsTypeOf, &ConflictError{})
}

func (s *LifecycleSuite) TestDeletingChildReturnsReservation(c *check.C) {
	parent := s.putServer(c, "n1", server.Resources{Memory: 2048, Disk: 8192, CPU: 200}, s.allocs[0])
	child, err := s.o.Split(context.Background(), SplitRequest{ServerID: parent.ID, Name: "kid", Memory: 50, Disk: 50, CPU: 50})
	c.Assert(err, check.IsNil)
	c.Check(s.reload(c, parent.ID).Resources.Memory, check.Equals, int64(1024))

	c.Assert(s.o.Delete(context.Background(), child.ID, false), check.IsNil)

	after := s.reload(c, parent.ID)
	c.Check(after.Resources, check.DeepEquals, server.Resources{Memory: 2048, Disk: 8192, CPU: 200})
	childAlloc, aerr := s.o.Allocations.Get(child.AllocationIDs[0])
	c.Assert(aerr, check.IsNil)
	c.Check(childAlloc.Assigned, check.Equals, false)
}
