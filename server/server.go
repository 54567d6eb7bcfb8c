package server

import (
	"time"

	"github.com/google/uuid"
)

// Resources is a server's reservation against its node. Memory, swap
// and disk are MiB; CPU is percent units where 100 equals one core.
// Conversion to the byte/absolute units the daemon expects happens at
// the daemon boundary, never here.
type Resources struct {
	Memory      int64  `json:"memory"`
	Swap        int64  `json:"swap"` // -1 means unlimited
	Disk        int64  `json:"disk"`
	CPU         int64  `json:"cpu"`
	Pinning     string `json:"pinning,omitempty"` // cpuset string, e.g. "0,2-3"
	OOMDisabled bool   `json:"oom_disabled"`
}

// Server represents one provisioned workload on a node.
type Server struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	NodeID  string    `json:"node_id"`
	OwnerID string    `json:"owner_id"`

	// ParentID is set when this server was carved out of another
	// server's reservation. A server with a parent can never itself
	// be split or transferred.
	ParentID *uuid.UUID `json:"parent_id,omitempty"`

	Status    Status    `json:"status"`
	Resources Resources `json:"resources"`

	BlueprintID string            `json:"blueprint_id"`
	Image       string            `json:"image"`
	Variables   map[string]string `json:"variables,omitempty"`

	// AllocationIDs is ordered; the first bound at creation time
	// starts out as primary. A server always keeps at least one
	// allocation once provisioning has succeeded.
	AllocationIDs       []uuid.UUID `json:"allocation_ids"`
	PrimaryAllocationID uuid.UUID   `json:"primary_allocation_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Server) HasParent() bool {
	return s.ParentID != nil
}

func (s *Server) HasAllocation(id uuid.UUID) bool {
	for _, a := range s.AllocationIDs {
		if a == id {
			return true
		}
	}
	return false
}

// RemoveAllocation drops id from the ordered set. The caller enforces
// the primary/last-endpoint rules before calling.
func (s *Server) RemoveAllocation(id uuid.UUID) {
	kept := s.AllocationIDs[:0]
	for _, a := range s.AllocationIDs {
		if a != id {
			kept = append(kept, a)
		}
	}
	s.AllocationIDs = kept
}
