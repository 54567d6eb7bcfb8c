package allocation

import (
	"fmt"

	"github.com/google/uuid"
)

// Store is the slice of the storage layer the manager needs. The
// store package's allocation stores satisfy it.
type Store interface {
	Put(key string, value interface{}) error
	Get(key string) (interface{}, error)
	List() (interface{}, error)
}

// NotEnoughError is returned by FindAvailable when a node does not
// have the requested number of unassigned endpoints.
type NotEnoughError struct {
	NodeID    string
	Requested int
	Free      int
}

func (e *NotEnoughError) Error() string {
	return fmt.Sprintf("node %s: %d free allocations, %d requested", e.NodeID, e.Free, e.Requested)
}

// AlreadyAssignedError is returned by Assign when the endpoint is
// bound to a different server. Re-binding is never a silent
// overwrite.
type AlreadyAssignedError struct {
	ID       uuid.UUID
	ServerID uuid.UUID
}

func (e *AlreadyAssignedError) Error() string {
	return fmt.Sprintf("allocation %s already assigned to server %s", e.ID, e.ServerID)
}

// Manager tracks the pool of endpoints per node and binds them to
// servers. It does not decide which server gets which endpoint; the
// orchestration layer does.
type Manager struct {
	store Store
}

func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

func (m *Manager) Get(id uuid.UUID) (*Allocation, error) {
	v, err := m.store.Get(id.String())
	if err != nil {
		return nil, err
	}
	return v.(*Allocation), nil
}

// FindAvailable returns count unassigned endpoints on the given node.
func (m *Manager) FindAvailable(nodeID string, count int) ([]*Allocation, error) {
	v, err := m.store.List()
	if err != nil {
		return nil, err
	}
	var free []*Allocation
	for _, a := range v.([]*Allocation) {
		if a.NodeID == nodeID && !a.Assigned {
			free = append(free, a)
			if len(free) == count {
				return free, nil
			}
		}
	}
	return nil, &NotEnoughError{NodeID: nodeID, Requested: count, Free: len(free)}
}

// Assign binds the endpoint to a server. Assigning an endpoint that
// is already bound to the same server is a no-op; to any other server
// it is an error.
func (m *Manager) Assign(a *Allocation, serverID uuid.UUID) error {
	if a.Assigned {
		if a.ServerID != nil && *a.ServerID == serverID {
			return nil
		}
		bound := uuid.Nil
		if a.ServerID != nil {
			bound = *a.ServerID
		}
		return &AlreadyAssignedError{ID: a.ID, ServerID: bound}
	}
	a.Assigned = true
	a.ServerID = &serverID
	return m.store.Put(a.ID.String(), a)
}

// Release unbinds the endpoint. Releasing an unassigned endpoint is a
// no-op so compensation paths can run it blindly.
func (m *Manager) Release(a *Allocation) error {
	a.Assigned = false
	a.ServerID = nil
	return m.store.Put(a.ID.String(), a)
}
