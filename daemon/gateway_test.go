package daemon

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	check "gopkg.in/check.v1"

	"github.com/dcm2610/StellarStack-sub000/node"
)

var _ = check.Suite(&GatewaySuite{})

type GatewaySuite struct {
	gw *Gateway
}

func (s *GatewaySuite) SetUpTest(c *check.C) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	s.gw = NewGateway(5*time.Second, logger)
}

// testNode points a node record at an httptest server. The server
// listens on 127.0.0.1, so the node carries the AllowLocal flag.
func testNode(c *check.C, ts *httptest.Server) *node.Node {
	u, err := url.Parse(ts.URL)
	c.Assert(err, check.IsNil)
	port, err := strconv.Atoi(u.Port())
	c.Assert(err, check.IsNil)
	return &node.Node{
		ID:         "n1",
		Host:       u.Hostname(),
		Port:       port,
		Scheme:     "http",
		Online:     true,
		Token:      "sekrit",
		AllowLocal: true,
	}
}

func (s *GatewaySuite) TestBearerCredential(c *check.C) {
	var gotAuth, gotType string
	var gotBody map[string]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	n := testNode(c, ts)
	err := s.gw.Call(context.Background(), n, http.MethodPost, "/api/servers/x/power", map[string]string{"action": "start"}, nil)
	c.Assert(err, check.IsNil)
	c.Check(gotAuth, check.Equals, "Bearer n1.sekrit")
	c.Check(gotType, check.Equals, "application/json")
	c.Check(gotBody["action"], check.Equals, "start")
}

func (s *GatewaySuite) TestDecodesResponse(c *check.C) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"state": "running"})
	}))
	defer ts.Close()

	var out map[string]string
	err := s.gw.Call(context.Background(), testNode(c, ts), http.MethodGet, "/api/servers/x", nil, &out)
	c.Assert(err, check.IsNil)
	c.Check(out["state"], check.Equals, "running")
}

func (s *GatewaySuite) TestNonSuccessStatus(c *check.C) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer ts.Close()

	err := s.gw.Call(context.Background(), testNode(c, ts), http.MethodPost, "/api/servers", nil, nil)
	c.Assert(err, check.FitsTypeOf, &RemoteError{})
	c.Check(err.(*RemoteError).StatusCode, check.Equals, http.StatusConflict)
}

func (s *GatewaySuite) TestConnectionRefused(c *check.C) {
	n := &node.Node{ID: "n1", Host: "203.0.113.254", Port: 1, Scheme: "http", Token: "t"}
	gw := NewGateway(100*time.Millisecond, logrus.New())
	err := gw.Call(context.Background(), n, http.MethodGet, "/api/system", nil, nil)
	c.Assert(err, check.FitsTypeOf, &RemoteError{})
	c.Check(err.(*RemoteError).StatusCode, check.Equals, 0)
}

func (s *GatewaySuite) TestRejectsDisallowedRanges(c *check.C) {
	for _, host := range []string{"127.0.0.1", "10.0.0.5", "192.168.1.20", "169.254.1.1", "0.0.0.0", "localhost"} {
		n := &node.Node{ID: "n1", Host: host, Port: 8080, Scheme: "http", Token: "t"}
		err := s.gw.Call(context.Background(), n, http.MethodGet, "/api/system", nil, nil)
		c.Check(err, check.FitsTypeOf, &RemoteError{}, check.Commentf("host %s", host))
	}
}

// A DNS name pointing into a disallowed range must be caught by
// resolution, not waved through because it is not a literal address.
func (s *GatewaySuite) TestHostnameResolvingToLoopbackRejected(c *check.C) {
	var reached bool
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	}))
	defer ts.Close()

	u, err := url.Parse(ts.URL)
	c.Assert(err, check.IsNil)
	port, err := strconv.Atoi(u.Port())
	c.Assert(err, check.IsNil)

	// "localhost" resolves to 127.0.0.1/::1, both loopback
	n := &node.Node{ID: "n1", Host: "localhost", Port: port, Scheme: "http", Token: "t"}
	callErr := s.gw.Call(context.Background(), n, http.MethodGet, "/api/system", nil, nil)
	c.Assert(callErr, check.FitsTypeOf, &RemoteError{})
	c.Check(reached, check.Equals, false)
}

func (s *GatewaySuite) TestUnresolvableHostFailsClosed(c *check.C) {
	n := &node.Node{ID: "n1", Host: "agent.invalid", Port: 8080, Scheme: "http", Token: "t"}
	err := s.gw.Call(context.Background(), n, http.MethodGet, "/api/system", nil, nil)
	c.Assert(err, check.FitsTypeOf, &RemoteError{})
	c.Check(err.(*RemoteError).StatusCode, check.Equals, 0)
}

func (s *GatewaySuite) TestAllowLocalOverride(c *check.C) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("{}"))
	}))
	defer ts.Close()

	n := testNode(c, ts)
	c.Check(s.gw.Call(context.Background(), n, http.MethodGet, "/api/system", nil, nil), check.IsNil)

	n.AllowLocal = false
	err := s.gw.Call(context.Background(), n, http.MethodGet, "/api/system", nil, nil)
	c.Check(err, check.FitsTypeOf, &RemoteError{})
}
