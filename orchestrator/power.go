package orchestrator

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dcm2610/StellarStack-sub000/server"
)

var powerStatus = map[string]server.Status{
	"start":   server.Starting,
	"stop":    server.Stopping,
	"restart": server.Starting,
	"kill":    server.Stopped,
}

// Power proxies start/stop/restart/kill to the node agent and records
// the transient status the action implies. The authoritative runtime
// state remains with the agent.
func (o *Orchestrator) Power(ctx context.Context, serverID uuid.UUID, action string) error {
	dst, ok := powerStatus[action]
	if !ok {
		return &ValidationError{Msg: fmt.Sprintf("unknown power action %q", action)}
	}
	s, err := o.getServer(serverID)
	if err != nil {
		return err
	}
	if s.Status == server.Suspended {
		return &ConflictError{Msg: fmt.Sprintf("server %s is suspended", s.ID)}
	}
	if s.Status == server.Installing && action != "kill" {
		return &ConflictError{Msg: fmt.Sprintf("server %s is still installing", s.ID)}
	}
	n, err := o.getNode(s.NodeID)
	if err != nil {
		return err
	}

	if err := o.Daemon.PowerAction(ctx, n, s.ID.String(), action); err != nil {
		return err
	}

	if server.ValidStatusTransition(s.Status, dst) {
		s.Status = dst
		if err := o.saveServer(s); err != nil {
			return &PartialFailure{Op: "status update", Err: err}
		}
	}
	o.broadcastStatus(s)
	switch action {
	case "start", "restart":
		o.emit("server.started", s, nil)
	case "stop", "kill":
		o.emit("server.stopped", s, nil)
	}
	return nil
}

// Reinstall re-runs the blueprint's install step for a server that
// already exists on its node.
func (o *Orchestrator) Reinstall(ctx context.Context, serverID uuid.UUID) error {
	s, err := o.getServer(serverID)
	if err != nil {
		return err
	}
	if s.Status == server.Suspended {
		return &ConflictError{Msg: fmt.Sprintf("server %s is suspended", s.ID)}
	}
	n, err := o.getNode(s.NodeID)
	if err != nil {
		return err
	}

	prev := s.Status
	s.Status = server.Installing
	if err := o.saveServer(s); err != nil {
		return err
	}
	if err := o.Daemon.InstallServer(ctx, n, s.ID.String()); err != nil {
		s.Status = prev
		if serr := o.saveServer(s); serr != nil {
			o.Logger.WithField("server", s.ID).WithError(serr).Error("status restore after failed reinstall")
		}
		return err
	}
	o.broadcastStatus(s)
	return nil
}
