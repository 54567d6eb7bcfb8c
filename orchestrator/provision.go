package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dcm2610/StellarStack-sub000/allocation"
	"github.com/dcm2610/StellarStack-sub000/daemon"
	"github.com/dcm2610/StellarStack-sub000/node"
	"github.com/dcm2610/StellarStack-sub000/server"
)

// ProvisionRequest describes a new server to create.
type ProvisionRequest struct {
	NodeID        string            `json:"node_id"`
	Name          string            `json:"name"`
	OwnerID       string            `json:"owner_id"`
	BlueprintID   string            `json:"blueprint_id"`
	Image         string            `json:"image,omitempty"` // defaults to the blueprint's image
	Resources     server.Resources  `json:"resources"`
	AllocationIDs []uuid.UUID       `json:"allocation_ids"`
	Variables     map[string]string `json:"variables,omitempty"`
}

func (r *ProvisionRequest) validate() error {
	if r.Name == "" {
		return &ValidationError{Msg: "server name is required"}
	}
	if len(r.AllocationIDs) == 0 {
		return &ValidationError{Msg: "at least one allocation is required"}
	}
	if r.Resources.Memory <= 0 || r.Resources.Disk <= 0 || r.Resources.CPU <= 0 {
		return &ValidationError{Msg: "memory, disk and cpu reservations must be positive"}
	}
	return nil
}

// Provision creates a server end to end: capacity check, endpoint
// binding, record creation, then the remote container. Any failure of
// the remote call unwinds everything; a failed install trigger does
// not, because the container already exists.
func (o *Orchestrator) Provision(ctx context.Context, req ProvisionRequest) (*server.Server, error) {
	if err := req.validate(); err != nil {
		o.observe("provision", "rejected")
		return nil, err
	}
	n, err := o.getNode(req.NodeID)
	if err != nil {
		return nil, err
	}
	if !n.Online {
		return nil, &ConflictError{Msg: fmt.Sprintf("node %s is offline", n.ID)}
	}
	bp, err := o.getBlueprint(req.BlueprintID)
	if err != nil {
		return nil, err
	}
	image := req.Image
	if image == "" {
		image = bp.Image
	}

	var s *server.Server
	var allocs []*allocation.Allocation

	// check-and-reserve runs under the node's lock so two concurrent
	// requests cannot both observe headroom and both commit
	reserve := func() error {
		mtx := o.Locks.Mutex(n.ID)
		mtx.Lock()
		defer mtx.Unlock()

		allocs = allocs[:0]
		for _, id := range req.AllocationIDs {
			a, err := o.Allocations.Get(id)
			if err != nil {
				return &NotFoundError{Kind: "allocation", ID: id.String()}
			}
			if a.NodeID != n.ID {
				return &ValidationError{Msg: fmt.Sprintf("allocation %s does not belong to node %s", a.ID, n.ID)}
			}
			if a.Assigned {
				return &ConflictError{Msg: fmt.Sprintf("allocation %s is already assigned", a.ID)}
			}
			allocs = append(allocs, a)
		}

		used, err := o.nodeUsage(n.ID)
		if err != nil {
			return err
		}
		if err := node.Check(n, used, usageOf(req.Resources)); err != nil {
			return err
		}

		now := time.Now().UTC()
		s = &server.Server{
			ID:          uuid.New(),
			Name:        req.Name,
			NodeID:      n.ID,
			OwnerID:     req.OwnerID,
			Status:      server.Installing,
			Resources:   req.Resources,
			BlueprintID: bp.ID,
			Image:       image,
			Variables:   req.Variables,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		// the saga only compensates completed steps, so partial
		// effects of this one are unwound before returning
		for i, a := range allocs {
			if err := o.Allocations.Assign(a, s.ID); err != nil {
				for _, b := range allocs[:i] {
					o.Allocations.Release(b)
				}
				return err
			}
			s.AllocationIDs = append(s.AllocationIDs, a.ID)
		}
		s.PrimaryAllocationID = allocs[0].ID
		if err := o.Servers.Put(s.ID.String(), s); err != nil {
			for _, a := range allocs {
				o.Allocations.Release(a)
			}
			return err
		}
		return nil
	}

	unreserve := func() error {
		var firstErr error
		for _, a := range allocs {
			if err := o.Allocations.Release(a); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		if err := o.Servers.Delete(s.ID.String()); err != nil && firstErr == nil {
			firstErr = err
		}
		return firstErr
	}

	vars := bp.ResolveVariables(req.Variables)
	createRemote := func() error {
		payload := daemon.NewProvisionPayload(s, bp, bp.Invocation(vars), vars, allocs)
		return o.Daemon.CreateServer(ctx, n, payload)
	}

	err = o.runSaga("provision", []step{
		{name: "reserve", run: reserve, compensate: unreserve},
		{name: "create remote container", run: createRemote},
	})
	if err != nil {
		o.observe("provision", "failed")
		return nil, err
	}

	o.observe("provision", "ok")
	o.emit("server.created", s, map[string]interface{}{"name": s.Name, "node": s.NodeID})

	if bp.HasInstall {
		if err := o.Daemon.InstallServer(ctx, n, s.ID.String()); err != nil {
			o.observe("provision", "install_warn")
			o.Logger.WithField("server", s.ID).WithError(err).Warn("install trigger failed")
			return s, &PartialFailure{Op: "install trigger", Err: err}
		}
		return s, nil
	}

	s.Status = server.Stopped
	if err := o.saveServer(s); err != nil {
		return s, &PartialFailure{Op: "status update", Err: err}
	}
	o.broadcastStatus(s)
	return s, nil
}

// MarkInstalled is the agent's install-completion callback.
func (o *Orchestrator) MarkInstalled(serverID uuid.UUID, successful bool) error {
	s, err := o.getServer(serverID)
	if err != nil {
		return err
	}
	if successful {
		s.Status = server.Stopped
	} else {
		s.Status = server.InstallFailed
	}
	if err := o.saveServer(s); err != nil {
		return err
	}
	o.broadcastStatus(s)
	return nil
}
