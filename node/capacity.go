package node

import "fmt"

const mib = 1024 * 1024

// Usage is an aggregate reservation against one node: memory and disk
// in MiB, CPU in percent units. It is the unit the ledger compares in;
// node limits are converted from bytes/percent before comparison so a
// unit mismatch cannot slip through.
type Usage struct {
	Memory int64 `json:"memory"`
	Disk   int64 `json:"disk"`
	CPU    int64 `json:"cpu"`
}

func (u Usage) Add(v Usage) Usage {
	return Usage{Memory: u.Memory + v.Memory, Disk: u.Disk + v.Disk, CPU: u.CPU + v.CPU}
}

// CapacityError reports the first dimension a reservation request
// would overshoot. Requested and Available are in the ledger's units
// (MiB, or percent units for cpu).
type CapacityError struct {
	NodeID    string
	Dimension string
	Requested int64
	Available int64
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("node %s: insufficient %s: requested %d, available %d",
		e.NodeID, e.Dimension, e.Requested, e.Available)
}

// Check answers whether req fits on n given the current aggregate
// usage. Pure accounting, no I/O; the caller is responsible for
// holding the node's lock so the read-check-write sequence is atomic
// with respect to other reservations.
func Check(n *Node, used Usage, req Usage) error {
	memLimit := n.Memory / mib
	if used.Memory+req.Memory > memLimit {
		return &CapacityError{NodeID: n.ID, Dimension: "memory", Requested: req.Memory, Available: memLimit - used.Memory}
	}
	diskLimit := n.Disk / mib
	if used.Disk+req.Disk > diskLimit {
		return &CapacityError{NodeID: n.ID, Dimension: "disk", Requested: req.Disk, Available: diskLimit - used.Disk}
	}
	// CPU compares in cores, not percent units.
	if float64(used.CPU+req.CPU)/100 > float64(n.CPU)/100 {
		return &CapacityError{NodeID: n.ID, Dimension: "cpu", Requested: req.CPU, Available: n.CPU - used.CPU}
	}
	return nil
}
