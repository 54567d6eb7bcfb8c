package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/dcm2610/StellarStack-sub000/server"
)

// SetStatus is the admin status override. The transition is validated
// against the lifecycle map; entering SUSPENDED cascades to children.
func (o *Orchestrator) SetStatus(ctx context.Context, serverID uuid.UUID, dst server.Status) error {
	s, err := o.getServer(serverID)
	if err != nil {
		return err
	}
	if !server.ValidStatusTransition(s.Status, dst) {
		return &ValidationError{Msg: fmt.Sprintf("server %s cannot move from %s to %s", s.ID, s.Status, dst)}
	}

	// the parent's own write must commit before any propagation, so a
	// crash mid-cascade leaves a resumable state
	s.Status = dst
	if err := o.saveServer(s); err != nil {
		return err
	}
	o.broadcastStatus(s)

	if dst == server.Suspended {
		o.propagateSuspension(ctx, s)
	}
	return nil
}

// propagateSuspension suspends every non-suspended child of parent.
// Children are independent, so the writes fan out concurrently; one
// notification is emitted per child actually changed. Re-running
// against an all-suspended family is a no-op.
func (o *Orchestrator) propagateSuspension(ctx context.Context, parent *server.Server) {
	servers, err := o.listServers()
	if err != nil {
		o.Logger.WithField("server", parent.ID).WithError(err).Error("loading children for suspension cascade failed")
		return
	}

	var wg sync.WaitGroup
	for _, c := range servers {
		if c.ParentID == nil || *c.ParentID != parent.ID || c.Status == server.Suspended {
			continue
		}
		wg.Add(1)
		go func(child *server.Server) {
			defer wg.Done()
			child.Status = server.Suspended
			if err := o.saveServer(child); err != nil {
				o.Logger.WithField("server", child.ID).WithError(err).Error("suspending child failed")
				return
			}
			o.emit("server.suspended", child, map[string]interface{}{"parent": parent.ID.String()})
		}(c)
	}
	wg.Wait()
	o.observe("suspend", "ok")
}
