package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dcm2610/StellarStack-sub000/allocation"
	"github.com/dcm2610/StellarStack-sub000/daemon"
	"github.com/dcm2610/StellarStack-sub000/node"
	"github.com/dcm2610/StellarStack-sub000/transfer"
)

func (o *Orchestrator) listTransfers(serverID uuid.UUID) ([]*transfer.Transfer, error) {
	v, err := o.Transfers.List()
	if err != nil {
		return nil, err
	}
	all, _ := v.([]*transfer.Transfer)
	var out []*transfer.Transfer
	for _, t := range all {
		if t.ServerID == serverID {
			out = append(out, t)
		}
	}
	return out, nil
}

// ActiveTransfer returns the server's non-terminal transfer, or nil.
func (o *Orchestrator) ActiveTransfer(serverID uuid.UUID) (*transfer.Transfer, error) {
	transfers, err := o.listTransfers(serverID)
	if err != nil {
		return nil, err
	}
	for _, t := range transfers {
		if !t.Status.Terminal() {
			return t, nil
		}
	}
	return nil, nil
}

// TransferHistory lists every migration attempt for a server.
func (o *Orchestrator) TransferHistory(serverID uuid.UUID) ([]*transfer.Transfer, error) {
	return o.listTransfers(serverID)
}

// StartTransfer admits a migration: it verifies the preconditions,
// reserves capacity and an endpoint on the target, records the
// transfer, and instructs the source agent to begin archiving. After
// the agent acknowledges, all further progress is agent-driven.
func (o *Orchestrator) StartTransfer(ctx context.Context, serverID uuid.UUID, targetNodeID string) (*transfer.Transfer, error) {
	s, err := o.getServer(serverID)
	if err != nil {
		return nil, err
	}
	if s.HasParent() {
		return nil, &ConflictError{Msg: fmt.Sprintf("server %s is a split child and cannot be transferred", s.ID)}
	}
	if targetNodeID == s.NodeID {
		return nil, &ValidationError{Msg: "target node must differ from the server's current node"}
	}
	src, err := o.getNode(s.NodeID)
	if err != nil {
		return nil, err
	}
	if !src.Online {
		return nil, &ConflictError{Msg: fmt.Sprintf("source node %s is offline", src.ID)}
	}
	tgt, err := o.getNode(targetNodeID)
	if err != nil {
		return nil, err
	}
	if !tgt.Online {
		return nil, &ConflictError{Msg: fmt.Sprintf("target node %s is offline", tgt.ID)}
	}
	if active, err := o.ActiveTransfer(s.ID); err != nil {
		return nil, err
	} else if active != nil {
		return nil, &ConflictError{Msg: fmt.Sprintf("server %s already has a transfer in %s", s.ID, active.Status)}
	}

	var t *transfer.Transfer
	var landing *allocation.Allocation

	admit := func() error {
		mtx := o.Locks.Mutex(tgt.ID)
		mtx.Lock()
		defer mtx.Unlock()

		used, err := o.nodeUsage(tgt.ID)
		if err != nil {
			return err
		}
		if err := node.Check(tgt, used, usageOf(s.Resources)); err != nil {
			return err
		}
		free, err := o.Allocations.FindAvailable(tgt.ID, 1)
		if err != nil {
			return err
		}
		landing = free[0]
		if err := o.Allocations.Assign(landing, s.ID); err != nil {
			return err
		}

		t = &transfer.Transfer{
			ID:                 uuid.New(),
			ServerID:           s.ID,
			SourceNodeID:       src.ID,
			TargetNodeID:       tgt.ID,
			TargetAllocationID: landing.ID,
			Status:             transfer.Pending,
			CreatedAt:          time.Now().UTC(),
		}
		if err := o.Transfers.Put(t.ID.String(), t); err != nil {
			o.Allocations.Release(landing)
			return err
		}
		return nil
	}

	unadmit := func() error {
		var firstErr error
		if err := o.Allocations.Release(landing); err != nil {
			firstErr = err
		}
		now := time.Now().UTC()
		t.Status = transfer.Failed
		t.Error = "source agent rejected the transfer"
		t.CompletedAt = &now
		if err := o.Transfers.Put(t.ID.String(), t); err != nil && firstErr == nil {
			firstErr = err
		}
		return firstErr
	}

	instructSource := func() error {
		return o.Daemon.StartTransfer(ctx, src, s.ID.String(), daemon.TransferRequest{
			ServerID: s.ID.String(),
			URL:      tgt.BaseURL(),
			Token:    fmt.Sprintf("%s.%s", tgt.ID, tgt.Token),
			Endpoint: daemon.EndpointRef{IP: landing.IP, Port: landing.Port},
			Build:    daemon.NewBuildSettings(s.Resources),
		})
	}

	err = o.runSaga("transfer", []step{
		{name: "admit on target", run: admit, compensate: unadmit},
		{name: "instruct source agent", run: instructSource},
	})
	if err != nil {
		o.observe("transfer", "failed")
		return nil, err
	}

	t.Status = transfer.Archiving
	if err := o.Transfers.Put(t.ID.String(), t); err != nil {
		return t, &PartialFailure{Op: "transfer status update", Err: err}
	}
	o.observe("transfer", "ok")
	o.emit("server.transfer_started", s, map[string]interface{}{
		"transfer": t.ID.String(),
		"source":   src.ID,
		"target":   tgt.ID,
	})
	return t, nil
}

// CancelTransfer aborts a migration that has not passed the archiving
// stage. It marks the record failed and frees the landing endpoint;
// any archiving the source already did is left for the agent to clean
// up.
func (o *Orchestrator) CancelTransfer(ctx context.Context, serverID uuid.UUID) (*transfer.Transfer, error) {
	t, err := o.ActiveTransfer(serverID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, &NotFoundError{Kind: "active transfer for server", ID: serverID.String()}
	}
	if t.Status != transfer.Pending && t.Status != transfer.Archiving {
		return nil, &ConflictError{Msg: fmt.Sprintf("transfer %s is in %s and can no longer be cancelled", t.ID, t.Status)}
	}

	now := time.Now().UTC()
	t.Status = transfer.Failed
	t.Error = "cancelled by operator"
	t.CompletedAt = &now
	if err := o.Transfers.Put(t.ID.String(), t); err != nil {
		return nil, err
	}
	o.releaseLanding(t)
	o.observe("transfer", "cancelled")
	return t, nil
}

// UpdateTransfer is the source agent's progress callback. Terminal
// success rebinds the server to the target node and its reserved
// endpoint; terminal failure frees the reservation.
func (o *Orchestrator) UpdateTransfer(transferID uuid.UUID, status transfer.Status, progress int, errText string) (*transfer.Transfer, error) {
	v, err := o.Transfers.Get(transferID.String())
	if err != nil {
		return nil, &NotFoundError{Kind: "transfer", ID: transferID.String()}
	}
	t := v.(*transfer.Transfer)
	if !transfer.ValidStatusTransition(t.Status, status) {
		return nil, &ConflictError{Msg: fmt.Sprintf("transfer %s cannot move from %s to %s", t.ID, t.Status, status)}
	}

	t.Status = status
	t.Progress = progress
	t.Error = errText
	if status.Terminal() {
		now := time.Now().UTC()
		t.CompletedAt = &now
	}
	if err := o.Transfers.Put(t.ID.String(), t); err != nil {
		return nil, err
	}

	switch status {
	case transfer.Completed:
		if err := o.rebindTransferred(t); err != nil {
			o.Logger.WithField("transfer", t.ID).WithError(err).Error("rebind after transfer failed")
			return t, &PartialFailure{Op: "rebind after transfer", Err: err}
		}
	case transfer.Failed:
		o.releaseLanding(t)
	}
	return t, nil
}

func (o *Orchestrator) rebindTransferred(t *transfer.Transfer) error {
	s, err := o.getServer(t.ServerID)
	if err != nil {
		return err
	}
	landing, err := o.Allocations.Get(t.TargetAllocationID)
	if err != nil {
		return err
	}

	// free the endpoints left behind on the source node
	for _, id := range s.AllocationIDs {
		a, err := o.Allocations.Get(id)
		if err != nil {
			continue
		}
		if err := o.Allocations.Release(a); err != nil {
			o.Logger.WithField("allocation", id).WithError(err).Warn("release of source endpoint failed")
		}
	}

	s.NodeID = t.TargetNodeID
	s.AllocationIDs = []uuid.UUID{landing.ID}
	s.PrimaryAllocationID = landing.ID
	if err := o.saveServer(s); err != nil {
		return err
	}
	o.broadcastStatus(s)
	return nil
}

func (o *Orchestrator) releaseLanding(t *transfer.Transfer) {
	landing, err := o.Allocations.Get(t.TargetAllocationID)
	if err != nil {
		return
	}
	if err := o.Allocations.Release(landing); err != nil {
		o.Logger.WithField("allocation", landing.ID).WithError(err).Warn("release of landing endpoint failed")
	}
}
