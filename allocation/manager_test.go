package allocation

import (
	"fmt"

	"github.com/google/uuid"
	check "gopkg.in/check.v1"
)

var _ = check.Suite(&ManagerSuite{})

type memStore struct {
	db map[string]*Allocation
}

func (m *memStore) Put(key string, value interface{}) error {
	m.db[key] = value.(*Allocation)
	return nil
}

func (m *memStore) Get(key string) (interface{}, error) {
	a, ok := m.db[key]
	if !ok {
		return nil, fmt.Errorf("allocation with key %s does not exist", key)
	}
	return a, nil
}

func (m *memStore) List() (interface{}, error) {
	var out []*Allocation
	for _, a := range m.db {
		out = append(out, a)
	}
	return out, nil
}

type ManagerSuite struct {
	store *memStore
	mgr   *Manager
}

func (s *ManagerSuite) SetUpTest(c *check.C) {
	s.store = &memStore{db: make(map[string]*Allocation)}
	s.mgr = NewManager(s.store)
	for port := 25565; port < 25570; port++ {
		a := New("n1", "203.0.113.10", port)
		c.Assert(s.store.Put(a.ID.String(), a), check.IsNil)
	}
}

func (s *ManagerSuite) TestFindAvailable(c *check.C) {
	got, err := s.mgr.FindAvailable("n1", 3)
	c.Assert(err, check.IsNil)
	c.Check(got, check.HasLen, 3)
	for _, a := range got {
		c.Check(a.NodeID, check.Equals, "n1")
		c.Check(a.Assigned, check.Equals, false)
	}
}

func (s *ManagerSuite) TestFindAvailableNotEnough(c *check.C) {
	_, err := s.mgr.FindAvailable("n1", 6)
	c.Assert(err, check.FitsTypeOf, &NotEnoughError{})
	ne := err.(*NotEnoughError)
	c.Check(ne.Requested, check.Equals, 6)
	c.Check(ne.Free, check.Equals, 5)
}

func (s *ManagerSuite) TestFindAvailableWrongNode(c *check.C) {
	_, err := s.mgr.FindAvailable("other", 1)
	c.Check(err, check.FitsTypeOf, &NotEnoughError{})
}

func (s *ManagerSuite) TestAssignAndRelease(c *check.C) {
	got, err := s.mgr.FindAvailable("n1", 1)
	c.Assert(err, check.IsNil)
	a := got[0]

	sid := uuid.New()
	c.Assert(s.mgr.Assign(a, sid), check.IsNil)
	c.Check(a.Assigned, check.Equals, true)
	c.Check(*a.ServerID, check.Equals, sid)

	// same server again is a no-op
	c.Check(s.mgr.Assign(a, sid), check.IsNil)

	// a different server is never a silent overwrite
	err = s.mgr.Assign(a, uuid.New())
	c.Assert(err, check.FitsTypeOf, &AlreadyAssignedError{})
	c.Check(err.(*AlreadyAssignedError).ServerID, check.Equals, sid)

	c.Assert(s.mgr.Release(a), check.IsNil)
	c.Check(a.Assigned, check.Equals, false)
	c.Check(a.ServerID, check.IsNil)

	// releasing an unassigned endpoint stays a no-op
	c.Check(s.mgr.Release(a), check.IsNil)
}

func (s *ManagerSuite) TestAssignedExcludedFromFindAvailable(c *check.C) {
	got, err := s.mgr.FindAvailable("n1", 5)
	c.Assert(err, check.IsNil)
	c.Assert(s.mgr.Assign(got[0], uuid.New()), check.IsNil)

	_, err = s.mgr.FindAvailable("n1", 5)
	c.Check(err, check.FitsTypeOf, &NotEnoughError{})
}
