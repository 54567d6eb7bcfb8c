package daemon

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dcm2610/StellarStack-sub000/node"
)

// CreateServer asks the agent to provision a new container. Not
// idempotent; a failed call means unknown remote state.
func (g *Gateway) CreateServer(ctx context.Context, n *node.Node, p ProvisionPayload) error {
	return g.Call(ctx, n, http.MethodPost, "/api/servers", p, nil)
}

// InstallServer triggers the blueprint's install script for an
// already-created server.
func (g *Gateway) InstallServer(ctx context.Context, n *node.Node, serverID string) error {
	return g.Call(ctx, n, http.MethodPost, fmt.Sprintf("/api/servers/%s/install", serverID), nil, nil)
}

// SyncServer pushes updated build settings to the agent.
func (g *Gateway) SyncServer(ctx context.Context, n *node.Node, serverID string, b BuildSettings) error {
	return g.Call(ctx, n, http.MethodPatch, fmt.Sprintf("/api/servers/%s/build", serverID), b, nil)
}

// PowerAction sends start/stop/restart/kill to the agent.
func (g *Gateway) PowerAction(ctx context.Context, n *node.Node, serverID, action string) error {
	body := map[string]string{"action": action}
	return g.Call(ctx, n, http.MethodPost, fmt.Sprintf("/api/servers/%s/power", serverID), body, nil)
}

// DeleteServer removes the container and its data from the node.
func (g *Gateway) DeleteServer(ctx context.Context, n *node.Node, serverID string) error {
	return g.Call(ctx, n, http.MethodDelete, fmt.Sprintf("/api/servers/%s", serverID), nil, nil)
}

// StartTransfer tells the source agent to begin archiving toward the
// target described in req. Acknowledgment only; progress is reported
// back asynchronously by the agent.
func (g *Gateway) StartTransfer(ctx context.Context, n *node.Node, serverID string, req TransferRequest) error {
	return g.Call(ctx, n, http.MethodPost, fmt.Sprintf("/api/servers/%s/transfer", serverID), req, nil)
}
