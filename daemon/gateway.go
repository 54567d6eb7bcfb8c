package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dcm2610/StellarStack-sub000/node"
)

// RemoteError is any failure talking to a node's agent: connection
// refused, timeout, or a non-2xx response. A timeout gives no
// information about whether the remote side applied the change, so
// callers must treat the remote state as unknown and compensate
// rather than retry a non-idempotent call.
type RemoteError struct {
	NodeID     string
	Method     string
	Path       string
	StatusCode int // 0 when the request never completed
	Err        error
}

func (e *RemoteError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("node %s: %s %s returned %d", e.NodeID, e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("node %s: %s %s: %v", e.NodeID, e.Method, e.Path, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// Gateway is the synchronous bridge to node agents. It never retries:
// retry policy belongs to the caller, and most agent calls are not
// idempotent.
type Gateway struct {
	client *http.Client
	logger logrus.FieldLogger
}

func NewGateway(timeout time.Duration, logger logrus.FieldLogger) *Gateway {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Gateway{
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// checkHost refuses agent addresses in the panel's own network unless
// the node is explicitly flagged for it. Hostnames are resolved and
// every returned address vetted, so a DNS name pointing at a loopback
// or private range is caught the same as a literal. This keeps a
// tampered node record from turning the panel into a request proxy
// against itself or internal infrastructure.
func checkHost(ctx context.Context, n *node.Node) error {
	if n.AllowLocal {
		return nil
	}
	var addrs []net.IP
	if ip := net.ParseIP(n.Host); ip != nil {
		addrs = []net.IP{ip}
	} else {
		resolved, err := net.DefaultResolver.LookupIPAddr(ctx, n.Host)
		if err != nil {
			return fmt.Errorf("node %s: resolving agent host %q: %w", n.ID, n.Host, err)
		}
		for _, a := range resolved {
			addrs = append(addrs, a.IP)
		}
	}
	for _, ip := range addrs {
		if ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsPrivate() || ip.IsUnspecified() {
			return fmt.Errorf("node %s: agent address %s is in a disallowed range", n.ID, ip)
		}
	}
	return nil
}

// Call performs one request against the node's agent and decodes the
// JSON response into out (when out is non-nil). The bearer credential
// is "{nodeId}.{token}".
func (g *Gateway) Call(ctx context.Context, n *node.Node, method, path string, body interface{}, out interface{}) error {
	if err := checkHost(ctx, n); err != nil {
		return &RemoteError{NodeID: n.ID, Method: method, Path: path, Err: err}
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return &RemoteError{NodeID: n.ID, Method: method, Path: path, Err: err}
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, n.BaseURL()+path, reader)
	if err != nil {
		return &RemoteError{NodeID: n.ID, Method: method, Path: path, Err: err}
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s.%s", n.ID, n.Token))
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.WithFields(logrus.Fields{"node": n.ID, "path": path}).WithError(err).Warn("agent request failed")
		return &RemoteError{NodeID: n.ID, Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return &RemoteError{NodeID: n.ID, Method: method, Path: path, StatusCode: resp.StatusCode}
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &RemoteError{NodeID: n.ID, Method: method, Path: path, Err: err}
		}
	}
	return nil
}
