package orchestrator

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dcm2610/StellarStack-sub000/allocation"
	"github.com/dcm2610/StellarStack-sub000/daemon"
	"github.com/dcm2610/StellarStack-sub000/node"
	"github.com/dcm2610/StellarStack-sub000/server"
	"github.com/dcm2610/StellarStack-sub000/store"
	"github.com/dcm2610/StellarStack-sub000/transfer"
)

// DaemonClient is the slice of the daemon gateway the orchestrator
// uses. Tests substitute a fake; daemon.Gateway is the real thing.
type DaemonClient interface {
	CreateServer(ctx context.Context, n *node.Node, p daemon.ProvisionPayload) error
	InstallServer(ctx context.Context, n *node.Node, serverID string) error
	SyncServer(ctx context.Context, n *node.Node, serverID string, b daemon.BuildSettings) error
	PowerAction(ctx context.Context, n *node.Node, serverID, action string) error
	DeleteServer(ctx context.Context, n *node.Node, serverID string) error
	StartTransfer(ctx context.Context, n *node.Node, serverID string, req daemon.TransferRequest) error
}

// WebhookDispatcher receives named events for external delivery. The
// orchestrator never blocks on or inspects delivery.
type WebhookDispatcher interface {
	Dispatch(event, serverID, userID string, data map[string]interface{})
}

// Broadcaster pushes state changes to connected clients.
type Broadcaster interface {
	Publish(typ, serverID, userID string, data map[string]interface{})
}

// Orchestrator owns the four provisioning flows and the bookkeeping
// they share. All fields are required except metrics, which is wired
// by RegisterMetrics.
type Orchestrator struct {
	Servers     store.Store
	Nodes       store.Store
	Transfers   store.Store
	Blueprints  store.Store
	Allocations *allocation.Manager
	Daemon      DaemonClient
	Locks       *node.Locks
	Webhooks    WebhookDispatcher
	Broadcast   Broadcaster
	Logger      logrus.FieldLogger

	metrics *metrics
}

func (o *Orchestrator) getServer(id uuid.UUID) (*server.Server, error) {
	v, err := o.Servers.Get(id.String())
	if err != nil {
		return nil, &NotFoundError{Kind: "server", ID: id.String()}
	}
	return v.(*server.Server), nil
}

func (o *Orchestrator) getNode(id string) (*node.Node, error) {
	v, err := o.Nodes.Get(id)
	if err != nil {
		return nil, &NotFoundError{Kind: "node", ID: id}
	}
	return v.(*node.Node), nil
}

func (o *Orchestrator) getBlueprint(id string) (*server.Blueprint, error) {
	v, err := o.Blueprints.Get(id)
	if err != nil {
		return nil, &NotFoundError{Kind: "blueprint", ID: id}
	}
	return v.(*server.Blueprint), nil
}

func (o *Orchestrator) listServers() ([]*server.Server, error) {
	v, err := o.Servers.List()
	if err != nil {
		return nil, err
	}
	servers, _ := v.([]*server.Server)
	return servers, nil
}

// nodeUsage sums the reservations of every server currently assigned
// to the node, plus every non-terminal transfer inbound to it: an
// admitted migration holds its headroom on the target until it
// completes or fails, so a provision racing the migration cannot
// consume the space the rebind is counting on. Callers hold the
// node's lock when the result feeds a reservation decision.
func (o *Orchestrator) nodeUsage(nodeID string) (node.Usage, error) {
	servers, err := o.listServers()
	if err != nil {
		return node.Usage{}, err
	}
	var used node.Usage
	for _, s := range servers {
		if s.NodeID == nodeID {
			used = used.Add(usageOf(s.Resources))
		}
	}

	v, err := o.Transfers.List()
	if err != nil {
		return node.Usage{}, err
	}
	transfers, _ := v.([]*transfer.Transfer)
	for _, t := range transfers {
		if t.Status.Terminal() || t.TargetNodeID != nodeID {
			continue
		}
		s, err := o.getServer(t.ServerID)
		if err != nil || s.NodeID == nodeID {
			continue
		}
		used = used.Add(usageOf(s.Resources))
	}
	return used, nil
}

func usageOf(r server.Resources) node.Usage {
	return node.Usage{Memory: r.Memory, Disk: r.Disk, CPU: r.CPU}
}

func (o *Orchestrator) saveServer(s *server.Server) error {
	s.UpdatedAt = time.Now().UTC()
	return o.Servers.Put(s.ID.String(), s)
}

// emit sends one event to both collaborators. Fire and forget.
func (o *Orchestrator) emit(event string, s *server.Server, data map[string]interface{}) {
	if o.Webhooks != nil {
		o.Webhooks.Dispatch(event, s.ID.String(), s.OwnerID, data)
	}
	if o.Broadcast != nil {
		o.Broadcast.Publish(event, s.ID.String(), s.OwnerID, data)
	}
}

// broadcastStatus pushes a live status update without a webhook; used
// for transitions that only connected clients care about.
func (o *Orchestrator) broadcastStatus(s *server.Server) {
	if o.Broadcast != nil {
		o.Broadcast.Publish("server.status", s.ID.String(), s.OwnerID, map[string]interface{}{
			"status": s.Status.String(),
		})
	}
}
