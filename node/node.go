package node

import "fmt"

// Node represents a physical or virtual machine running the remote
// agent that performs container work on the control plane's behalf.
// Capacity limits are declared at registration: memory and disk in
// bytes, CPU in percent units where 100 equals one core.
type Node struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Host   string `json:"host"`
	Port   int    `json:"port"`
	Scheme string `json:"scheme"` // "http" or "https"
	Online bool   `json:"online"`

	// Token authenticates the control plane to the agent. It crosses
	// the wire as "{id}.{token}".
	Token string `json:"-"`

	// AllowLocal permits agent addresses in loopback/link-local/
	// private ranges, for lab setups where panel and agent share a
	// network.
	AllowLocal bool `json:"allow_local"`

	Memory int64 `json:"memory"` // bytes
	Disk   int64 `json:"disk"`   // bytes
	CPU    int64 `json:"cpu"`    // percent units, 100 = one core
}

func New(id, name, host string, port int) *Node {
	return &Node{ID: id, Name: name, Host: host, Port: port, Scheme: "http"}
}

func (n *Node) BaseURL() string {
	scheme := n.Scheme
	if scheme == "" {
		scheme = "http"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, n.Host, n.Port)
}
