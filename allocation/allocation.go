package allocation

import (
	"fmt"

	"github.com/google/uuid"
)

// Allocation is one network endpoint (IP and port) on a node. It is
// bound to at most one server at a time and is never deleted by the
// orchestration layer, only rebound.
type Allocation struct {
	ID       uuid.UUID  `json:"id"`
	NodeID   string     `json:"node_id"`
	IP       string     `json:"ip"`
	Port     int        `json:"port"`
	Alias    string     `json:"alias,omitempty"`
	Assigned bool       `json:"assigned"`
	ServerID *uuid.UUID `json:"server_id,omitempty"`
}

func New(nodeID, ip string, port int) *Allocation {
	return &Allocation{ID: uuid.New(), NodeID: nodeID, IP: ip, Port: port}
}

func (a *Allocation) Address() string {
	return fmt.Sprintf("%s:%d", a.IP, a.Port)
}
