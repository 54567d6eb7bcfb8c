package orchestrator

import (
	"context"
	"errors"

	check "gopkg.in/check.v1"

	"github.com/dcm2610/StellarStack-sub000/allocation"
	"github.com/dcm2610/StellarStack-sub000/server"
)

var _ = check.Suite(&SplitSuite{})

type SplitSuite struct {
	OrchestratorSuite
}

func (s *SplitSuite) split(parent *server.Server, mem, disk, cpu int64) (*server.Server, error) {
	return s.o.Split(context.Background(), SplitRequest{
		ServerID: parent.ID,
		Name:     "carved",
		Memory:   mem,
		Disk:     disk,
		CPU:      cpu,
	})
}

func (s *SplitSuite) TestSplitConservesReservation(c *check.C) {
	parent := s.putServer(c, "n1", server.Resources{Memory: 2048, Disk: 8192, CPU: 200}, s.allocs[0])

	child, err := s.split(parent, 25, 50, 50)
	c.Assert(err, check.IsNil)

	c.Check(child.Resources, check.DeepEquals, server.Resources{Memory: 512, Disk: 4096, CPU: 100})
	c.Check(*child.ParentID, check.Equals, parent.ID)
	c.Check(child.NodeID, check.Equals, "n1")

	after := s.reload(c, parent.ID)
	c.Check(after.Resources.Memory, check.Equals, int64(1536))
	c.Check(after.Resources.Disk, check.Equals, int64(4096))
	c.Check(after.Resources.CPU, check.Equals, int64(100))

	// the pair always sums to the original
	c.Check(child.Resources.Memory+after.Resources.Memory, check.Equals, int64(2048))
	c.Check(child.Resources.Disk+after.Resources.Disk, check.Equals, int64(8192))
	c.Check(child.Resources.CPU+after.Resources.CPU, check.Equals, int64(200))
}

func (s *SplitSuite) TestSplitRoundsChildDown(c *check.C) {
	parent := s.putServer(c, "n1", server.Resources{Memory: 1001, Disk: 2001, CPU: 101}, s.allocs[0])

	child, err := s.split(parent, 33, 50, 50)
	c.Assert(err, check.IsNil)

	c.Check(child.Resources.Memory, check.Equals, int64(330))
	after := s.reload(c, parent.ID)
	c.Check(child.Resources.Memory+after.Resources.Memory, check.Equals, int64(1001))
	c.Check(child.Resources.Disk+after.Resources.Disk, check.Equals, int64(2001))
	c.Check(child.Resources.CPU+after.Resources.CPU, check.Equals, int64(101))
}

func (s *SplitSuite) TestSplitGetsOwnEndpoint(c *check.C) {
	parent := s.putServer(c, "n1", server.Resources{Memory: 2048, Disk: 8192, CPU: 200}, s.allocs[0])

	child, err := s.split(parent, 50, 50, 50)
	c.Assert(err, check.IsNil)

	c.Assert(child.AllocationIDs, check.HasLen, 1)
	a, aerr := s.o.Allocations.Get(child.AllocationIDs[0])
	c.Assert(aerr, check.IsNil)
	c.Check(a.Assigned, check.Equals, true)
	c.Check(*a.ServerID, check.Equals, child.ID)
	c.Check(a.ID, check.Not(check.Equals), s.allocs[0].ID)
}

func (s *SplitSuite) TestSplitResyncsAndRestartsParent(c *check.C) {
	parent := s.putServer(c, "n1", server.Resources{Memory: 2048, Disk: 8192, CPU: 200}, s.allocs[0])

	_, err := s.split(parent, 50, 50, 50)
	c.Assert(err, check.IsNil)

	c.Check(s.fd.called("sync:"+parent.ID.String()), check.Equals, true)
	c.Check(s.fd.called("power:restart:"+parent.ID.String()), check.Equals, true)
}

func (s *SplitSuite) TestRejectsPercentOutOfBounds(c *check.C) {
	parent := s.putServer(c, "n1", server.Resources{Memory: 2048, Disk: 8192, CPU: 200}, s.allocs[0])

	for _, pct := range []int64{5, 95, 0, 100} {
		_, err := s.split(parent, pct, 50, 50)
		c.Check(err, check.FitsTypeOf, &ValidationError{})
	}
	c.Check(s.reload(c, parent.ID).Resources.Memory, check.Equals, int64(2048))
	c.Check(s.serverCount(c), check.Equals, 1)
}

func (s *SplitSuite) TestRejectsBelowFloorsBeforeMutating(c *check.C) {
	// 10% of 500 MiB memory is 50, below the 100 MiB floor
	parent := s.putServer(c, "n1", server.Resources{Memory: 500, Disk: 8192, CPU: 200}, s.allocs[0])
	_, err := s.split(parent, 10, 50, 50)
	c.Check(err, check.FitsTypeOf, &ValidationError{})

	// 90% carve leaves the parent 204 MiB, below the 500 MiB disk floor
	parent2 := s.putServer(c, "n1", server.Resources{Memory: 2048, Disk: 2048, CPU: 200}, s.allocs[1])
	_, err = s.split(parent2, 50, 90, 50)
	c.Check(err, check.FitsTypeOf, &ValidationError{})

	c.Check(s.reload(c, parent.ID).Resources.Memory, check.Equals, int64(500))
	c.Check(s.reload(c, parent2.ID).Resources.Disk, check.Equals, int64(2048))
	c.Check(s.serverCount(c), check.Equals, 2)
}

func (s *SplitSuite) TestRejectsSplittingAChild(c *check.C) {
	parent := s.putServer(c, "n1", server.Resources{Memory: 2048, Disk: 8192, CPU: 200}, s.allocs[0])
	child, err := s.split(parent, 50, 50, 50)
	c.Assert(err, check.IsNil)

	_, err = s.split(child, 50, 50, 50)
	c.Check(err, check.FitsTypeOf, &ConflictError{})
}

func (s *SplitSuite) TestRejectsWhenNoEndpointFree(c *check.C) {
	for i, a := range s.allocs {
		if i == 0 {
			continue
		}
		c.Assert(s.o.Allocations.Assign(a, s.allocs[i].ID), check.IsNil)
	}
	parent := s.putServer(c, "n1", server.Resources{Memory: 2048, Disk: 8192, CPU: 200}, s.allocs[0])

	_, err := s.split(parent, 50, 50, 50)
	c.Check(err, check.FitsTypeOf, &allocation.NotEnoughError{})
	c.Check(s.reload(c, parent.ID).Resources.Memory, check.Equals, int64(2048))
}

func (s *SplitSuite) TestRemoteFailureRestoresParent(c *check.C) {
	parent := s.putServer(c, "n1", server.Resources{Memory: 2048, Disk: 8192, CPU: 200}, s.allocs[0])
	s.fd.createErr = errors.New("agent exploded")

	_, err := s.split(parent, 50, 50, 50)
	c.Assert(err, check.NotNil)

	after := s.reload(c, parent.ID)
	c.Check(after.Resources, check.DeepEquals, server.Resources{Memory: 2048, Disk: 8192, CPU: 200})
	c.Check(s.serverCount(c), check.Equals, 1)
	for _, a := range s.allocs[1:] {
		c.Check(a.Assigned, check.Equals, false)
	}
}

// A parent-save failure inside the partition step unwinds the child
// record and its endpoint before the step returns.
func (s *SplitSuite) TestParentWriteFailureUnwindsPartition(c *check.C) {
	parent := s.putServer(c, "n1", server.Resources{Memory: 2048, Disk: 8192, CPU: 200}, s.allocs[0])
	// the partition step writes the child first, the deduction second
	s.o.Servers = &flakyStore{Store: s.o.Servers, failOn: 2, err: errors.New("disk full")}

	_, err := s.split(parent, 50, 50, 50)
	c.Assert(err, check.NotNil)

	c.Check(parent.Resources, check.DeepEquals, server.Resources{Memory: 2048, Disk: 8192, CPU: 200})
	n, cerr := s.o.Servers.Count()
	c.Assert(cerr, check.IsNil)
	c.Check(n, check.Equals, 1)
	for _, a := range s.allocs[1:] {
		c.Check(a.Assigned, check.Equals, false)
	}
}

func (s *SplitSuite) TestParentResyncFailureIsPartial(c *check.C) {
	parent := s.putServer(c, "n1", server.Resources{Memory: 2048, Disk: 8192, CPU: 200}, s.allocs[0])
	s.fd.syncErr = errors.New("agent busy")

	child, err := s.split(parent, 50, 50, 50)
	c.Assert(err, check.FitsTypeOf, &PartialFailure{})
	c.Assert(child, check.NotNil)

	// the child stands; only the parent resync is reported
	c.Check(s.serverCount(c), check.Equals, 2)
	c.Check(s.reload(c, parent.ID).Resources.Memory, check.Equals, int64(1024))
}
