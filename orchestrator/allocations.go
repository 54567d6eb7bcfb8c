package orchestrator

import (
	"fmt"

	"github.com/google/uuid"
)

// AddAllocation binds a further endpoint to an existing server. The
// endpoint must be on the server's node and unassigned.
func (o *Orchestrator) AddAllocation(serverID, allocationID uuid.UUID) error {
	s, err := o.getServer(serverID)
	if err != nil {
		return err
	}
	a, err := o.Allocations.Get(allocationID)
	if err != nil {
		return &NotFoundError{Kind: "allocation", ID: allocationID.String()}
	}
	if a.NodeID != s.NodeID {
		return &ValidationError{Msg: fmt.Sprintf("allocation %s does not belong to node %s", a.ID, s.NodeID)}
	}
	if a.Assigned {
		return &ConflictError{Msg: fmt.Sprintf("allocation %s is already assigned", a.ID)}
	}
	if err := o.Allocations.Assign(a, s.ID); err != nil {
		return err
	}
	s.AllocationIDs = append(s.AllocationIDs, a.ID)
	return o.saveServer(s)
}

// RemoveAllocation unbinds an endpoint. The designated primary and
// the last remaining endpoint can never be removed.
func (o *Orchestrator) RemoveAllocation(serverID, allocationID uuid.UUID) error {
	s, err := o.getServer(serverID)
	if err != nil {
		return err
	}
	if !s.HasAllocation(allocationID) {
		return &NotFoundError{Kind: "server allocation", ID: allocationID.String()}
	}
	if allocationID == s.PrimaryAllocationID {
		return &ConflictError{Msg: fmt.Sprintf("allocation %s is the primary endpoint", allocationID)}
	}
	if len(s.AllocationIDs) == 1 {
		return &ConflictError{Msg: fmt.Sprintf("server %s must retain at least one endpoint", s.ID)}
	}
	a, err := o.Allocations.Get(allocationID)
	if err != nil {
		return &NotFoundError{Kind: "allocation", ID: allocationID.String()}
	}
	if err := o.Allocations.Release(a); err != nil {
		return err
	}
	s.RemoveAllocation(allocationID)
	return o.saveServer(s)
}

// SetPrimaryAllocation redesignates which bound endpoint is primary.
func (o *Orchestrator) SetPrimaryAllocation(serverID, allocationID uuid.UUID) error {
	s, err := o.getServer(serverID)
	if err != nil {
		return err
	}
	if !s.HasAllocation(allocationID) {
		return &ConflictError{Msg: fmt.Sprintf("allocation %s is not bound to server %s", allocationID, s.ID)}
	}
	s.PrimaryAllocationID = allocationID
	return o.saveServer(s)
}
