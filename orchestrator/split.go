package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dcm2610/StellarStack-sub000/allocation"
	"github.com/dcm2610/StellarStack-sub000/daemon"
	"github.com/dcm2610/StellarStack-sub000/server"
)

// Floors below which neither half of a split may fall, independent of
// the requested percentage. Memory and disk in MiB, CPU in percent
// units.
const (
	minSplitMemory = 100
	minSplitDisk   = 500
	minSplitCPU    = 10
)

// SplitRequest carves a percentage of a server's reservation into a
// new child server on the same node. Each percentage is bounded to
// 10-90 so both halves stay viable.
type SplitRequest struct {
	ServerID uuid.UUID `json:"server_id"`
	Name     string    `json:"name"`
	Memory   int64     `json:"memory"` // percent carved off
	Disk     int64     `json:"disk"`
	CPU      int64     `json:"cpu"`
}

func (r *SplitRequest) validate() error {
	if r.Name == "" {
		return &ValidationError{Msg: "child server name is required"}
	}
	for _, pct := range []int64{r.Memory, r.Disk, r.CPU} {
		if pct < 10 || pct > 90 {
			return &ValidationError{Msg: "split percentages must be between 10 and 90"}
		}
	}
	return nil
}

// carve computes the child's share: floor(parent * pct / 100) per
// dimension. The parent keeps the exact remainder, so the two halves
// always sum to the original.
func carve(parent server.Resources, req SplitRequest) (child, remainder server.Resources) {
	child = server.Resources{
		Memory:      parent.Memory * req.Memory / 100,
		Disk:        parent.Disk * req.Disk / 100,
		CPU:         parent.CPU * req.CPU / 100,
		Swap:        parent.Swap,
		OOMDisabled: parent.OOMDisabled,
	}
	remainder = parent
	remainder.Memory -= child.Memory
	remainder.Disk -= child.Disk
	remainder.CPU -= child.CPU
	return child, remainder
}

func checkFloors(r server.Resources) error {
	if r.Memory < minSplitMemory {
		return &ValidationError{Msg: fmt.Sprintf("split would leave %d MiB memory, minimum is %d", r.Memory, minSplitMemory)}
	}
	if r.Disk < minSplitDisk {
		return &ValidationError{Msg: fmt.Sprintf("split would leave %d MiB disk, minimum is %d", r.Disk, minSplitDisk)}
	}
	if r.CPU < minSplitCPU {
		return &ValidationError{Msg: fmt.Sprintf("split would leave %d cpu units, minimum is %d", r.CPU, minSplitCPU)}
	}
	return nil
}

// Split partitions an existing server's reservation into a
// parent/child pair. The paired writes (deduct parent, create child)
// commit together under the node lock; the remote provisioning of the
// child is compensated by restoring the parent if it fails. The
// post-split resync/restart of the parent is best-effort.
func (o *Orchestrator) Split(ctx context.Context, req SplitRequest) (*server.Server, error) {
	if err := req.validate(); err != nil {
		o.observe("split", "rejected")
		return nil, err
	}
	parent, err := o.getServer(req.ServerID)
	if err != nil {
		return nil, err
	}
	if parent.HasParent() {
		return nil, &ConflictError{Msg: fmt.Sprintf("server %s is itself a split child and cannot be split", parent.ID)}
	}
	n, err := o.getNode(parent.NodeID)
	if err != nil {
		return nil, err
	}
	if !n.Online {
		return nil, &ConflictError{Msg: fmt.Sprintf("node %s is offline", n.ID)}
	}
	bp, err := o.getBlueprint(parent.BlueprintID)
	if err != nil {
		return nil, err
	}

	original := parent.Resources
	childRes, remainder := carve(original, req)
	if err := checkFloors(childRes); err != nil {
		return nil, err
	}
	if err := checkFloors(remainder); err != nil {
		return nil, err
	}

	var child *server.Server
	var childAlloc *allocation.Allocation

	// both writes land together under the node lock: a reader never
	// sees the parent deducted without the child existing
	partition := func() error {
		mtx := o.Locks.Mutex(n.ID)
		mtx.Lock()
		defer mtx.Unlock()

		free, err := o.Allocations.FindAvailable(n.ID, 1)
		if err != nil {
			return err
		}
		childAlloc = free[0]

		now := time.Now().UTC()
		parentID := parent.ID
		child = &server.Server{
			ID:          uuid.New(),
			Name:        req.Name,
			NodeID:      n.ID,
			OwnerID:     parent.OwnerID,
			ParentID:    &parentID,
			Status:      server.Installing,
			Resources:   childRes,
			BlueprintID: parent.BlueprintID,
			Image:       parent.Image,
			Variables:   parent.Variables,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := o.Allocations.Assign(childAlloc, child.ID); err != nil {
			return err
		}
		child.AllocationIDs = []uuid.UUID{childAlloc.ID}
		child.PrimaryAllocationID = childAlloc.ID

		// partial effects are unwound here; the saga only compensates
		// steps that completed
		if err := o.Servers.Put(child.ID.String(), child); err != nil {
			o.Allocations.Release(childAlloc)
			return err
		}
		parent.Resources = remainder
		if err := o.saveServer(parent); err != nil {
			parent.Resources = original
			o.Servers.Delete(child.ID.String())
			o.Allocations.Release(childAlloc)
			return err
		}
		return nil
	}

	unpartition := func() error {
		mtx := o.Locks.Mutex(n.ID)
		mtx.Lock()
		defer mtx.Unlock()

		parent.Resources = original
		var firstErr error
		if err := o.saveServer(parent); err != nil {
			firstErr = err
		}
		if err := o.Allocations.Release(childAlloc); err != nil && firstErr == nil {
			firstErr = err
		}
		if err := o.Servers.Delete(child.ID.String()); err != nil && firstErr == nil {
			firstErr = err
		}
		return firstErr
	}

	createRemote := func() error {
		vars := bp.ResolveVariables(child.Variables)
		payload := daemon.NewProvisionPayload(child, bp, bp.Invocation(vars), vars, []*allocation.Allocation{childAlloc})
		return o.Daemon.CreateServer(ctx, n, payload)
	}

	err = o.runSaga("split", []step{
		{name: "partition reservation", run: partition, compensate: unpartition},
		{name: "create remote child", run: createRemote},
	})
	if err != nil {
		o.observe("split", "failed")
		return nil, err
	}

	o.observe("split", "ok")
	o.emit("server.created", child, map[string]interface{}{"name": child.Name, "parent": parent.ID.String()})

	// everything past this point is best-effort: the child exists
	// remotely, so failures are reported as warnings, never unwound
	if bp.HasInstall {
		if err := o.Daemon.InstallServer(ctx, n, child.ID.String()); err != nil {
			o.Logger.WithField("server", child.ID).WithError(err).Warn("child install trigger failed")
			return child, &PartialFailure{Op: "child install trigger", Err: err}
		}
	} else {
		child.Status = server.Stopped
		if err := o.saveServer(child); err != nil {
			return child, &PartialFailure{Op: "child status update", Err: err}
		}
		o.broadcastStatus(child)
	}
	if err := o.Daemon.SyncServer(ctx, n, parent.ID.String(), daemon.NewBuildSettings(parent.Resources)); err != nil {
		o.Logger.WithField("server", parent.ID).WithError(err).Warn("parent resync failed")
		return child, &PartialFailure{Op: "parent resync", Err: err}
	}
	if err := o.Daemon.PowerAction(ctx, n, parent.ID.String(), "restart"); err != nil {
		o.Logger.WithField("server", parent.ID).WithError(err).Warn("parent restart failed")
		return child, &PartialFailure{Op: "parent restart", Err: err}
	}
	return child, nil
}
