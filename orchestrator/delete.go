package orchestrator

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Delete removes a server: the remote container first, then the local
// bookkeeping. With force set, a failing agent is logged and skipped
// so an operator can clear records for a dead node. A split child's
// reservation flows back to its parent.
func (o *Orchestrator) Delete(ctx context.Context, serverID uuid.UUID, force bool) error {
	s, err := o.getServer(serverID)
	if err != nil {
		return err
	}
	if active, err := o.ActiveTransfer(s.ID); err != nil {
		return err
	} else if active != nil {
		return &ConflictError{Msg: fmt.Sprintf("server %s has a transfer in %s", s.ID, active.Status)}
	}

	n, err := o.getNode(s.NodeID)
	if err != nil {
		return err
	}
	if err := o.Daemon.DeleteServer(ctx, n, s.ID.String()); err != nil {
		if !force {
			return err
		}
		o.Logger.WithField("server", s.ID).WithError(err).Warn("remote delete failed, forcing local removal")
	}

	mtx := o.Locks.Mutex(n.ID)
	mtx.Lock()
	defer mtx.Unlock()

	for _, id := range s.AllocationIDs {
		a, err := o.Allocations.Get(id)
		if err != nil {
			continue
		}
		if err := o.Allocations.Release(a); err != nil {
			o.Logger.WithField("allocation", id).WithError(err).Warn("release on delete failed")
		}
	}

	if s.HasParent() {
		if parent, err := o.getServer(*s.ParentID); err == nil {
			parent.Resources.Memory += s.Resources.Memory
			parent.Resources.Disk += s.Resources.Disk
			parent.Resources.CPU += s.Resources.CPU
			if err := o.saveServer(parent); err != nil {
				o.Logger.WithField("server", parent.ID).WithError(err).Error("returning reservation to parent failed")
			}
		}
	}

	if err := o.Servers.Delete(s.ID.String()); err != nil {
		return err
	}
	o.observe("delete", "ok")
	o.emit("server.deleted", s, map[string]interface{}{"name": s.Name})
	return nil
}
