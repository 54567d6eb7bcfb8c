package node

import (
	check "gopkg.in/check.v1"
)

var _ = check.Suite(&CapacitySuite{})

const MiB = int64(1 << 20)

type CapacitySuite struct{}

func (*CapacitySuite) node() *Node {
	return &Node{
		ID:     "n1",
		Memory: 4096 * MiB,
		Disk:   10240 * MiB,
		CPU:    400, // four cores
	}
}

func (s *CapacitySuite) TestFits(c *check.C) {
	err := Check(s.node(), Usage{}, Usage{Memory: 2000, Disk: 5000, CPU: 200})
	c.Check(err, check.IsNil)
}

func (s *CapacitySuite) TestExactFit(c *check.C) {
	err := Check(s.node(), Usage{Memory: 2096, Disk: 5240, CPU: 200}, Usage{Memory: 2000, Disk: 5000, CPU: 200})
	c.Check(err, check.IsNil)
}

func (s *CapacitySuite) TestMemoryOvershoot(c *check.C) {
	// 4096 MiB limit, 2000 used: a 2500 MiB request must fail even
	// though the raw byte limit looks roomy
	err := Check(s.node(), Usage{Memory: 2000}, Usage{Memory: 2500})
	c.Assert(err, check.FitsTypeOf, &CapacityError{})
	ce := err.(*CapacityError)
	c.Check(ce.Dimension, check.Equals, "memory")
	c.Check(ce.Available, check.Equals, int64(2096))
}

func (s *CapacitySuite) TestDiskOvershoot(c *check.C) {
	err := Check(s.node(), Usage{Disk: 10000}, Usage{Memory: 10, Disk: 500, CPU: 10})
	c.Assert(err, check.FitsTypeOf, &CapacityError{})
	c.Check(err.(*CapacityError).Dimension, check.Equals, "disk")
}

func (s *CapacitySuite) TestCPUOvershoot(c *check.C) {
	err := Check(s.node(), Usage{CPU: 350}, Usage{Memory: 10, Disk: 10, CPU: 100})
	c.Assert(err, check.FitsTypeOf, &CapacityError{})
	c.Check(err.(*CapacityError).Dimension, check.Equals, "cpu")
}

func (s *CapacitySuite) TestUsageAdd(c *check.C) {
	sum := Usage{Memory: 1, Disk: 2, CPU: 3}.Add(Usage{Memory: 10, Disk: 20, CPU: 30})
	c.Check(sum, check.DeepEquals, Usage{Memory: 11, Disk: 22, CPU: 33})
}

func (s *CapacitySuite) TestLocksSameMutexPerNode(c *check.C) {
	locks := NewLocks()
	c.Check(locks.Mutex("a"), check.Equals, locks.Mutex("a"))
	c.Check(locks.Mutex("a") == locks.Mutex("b"), check.Equals, false)
}
