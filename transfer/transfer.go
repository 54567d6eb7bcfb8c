package transfer

import (
	"time"

	"github.com/google/uuid"
)

// Status tracks one migration attempt through its state machine. The
// control plane only drives the Pending -> Archiving admission edge;
// everything after that is reported by the source node's agent.
type Status int

const (
	Pending Status = iota
	Archiving
	Restoring
	Completed
	Failed
)

var statusTransitionMap = map[Status][]Status{
	Pending:   {Archiving, Failed},
	Archiving: {Archiving, Restoring, Completed, Failed},
	Restoring: {Restoring, Completed, Failed},
	Completed: {},
	Failed:    {},
}

var statusNames = map[Status]string{
	Pending:   "PENDING",
	Archiving: "ARCHIVING",
	Restoring: "RESTORING",
	Completed: "COMPLETED",
	Failed:    "FAILED",
}

func (s Status) String() string {
	return statusNames[s]
}

func (s Status) Terminal() bool {
	return s == Completed || s == Failed
}

func ValidStatusTransition(src Status, dst Status) bool {
	for _, s := range statusTransitionMap[src] {
		if s == dst {
			return true
		}
	}
	return false
}

// Transfer records one attempt to move a server between nodes. At
// most one non-terminal Transfer exists per server at any time.
type Transfer struct {
	ID       uuid.UUID `json:"id"`
	ServerID uuid.UUID `json:"server_id"`

	SourceNodeID string `json:"source_node_id"`
	TargetNodeID string `json:"target_node_id"`

	// TargetAllocationID is reserved on the target before the source
	// daemon is told to begin, so the landing spot cannot be stolen
	// mid-flight.
	TargetAllocationID uuid.UUID `json:"target_allocation_id"`

	Status   Status `json:"status"`
	Progress int    `json:"progress"` // percent, daemon-reported
	Error    string `json:"error,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
