package manager

import (
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/dcm2610/StellarStack-sub000/allocation"
	"github.com/dcm2610/StellarStack-sub000/broadcast"
	"github.com/dcm2610/StellarStack-sub000/daemon"
	"github.com/dcm2610/StellarStack-sub000/node"
	"github.com/dcm2610/StellarStack-sub000/orchestrator"
	"github.com/dcm2610/StellarStack-sub000/store"
	"github.com/dcm2610/StellarStack-sub000/webhook"
)

type Config struct {
	Host string
	Port int

	// DBDir enables bolt persistence for servers, allocations and
	// transfers. Empty means in-memory, which tests use.
	DBDir string

	WebhookURL    string
	DaemonTimeout time.Duration

	Logger logrus.FieldLogger
}

// Manager wires the stores, the orchestrator and its collaborators,
// and serves the admin control surface.
type Manager struct {
	Config

	Servers     store.Store
	Nodes       store.Store
	Transfers   store.Store
	Blueprints  store.Store
	Allocations store.Store

	Orchestrator *orchestrator.Orchestrator
	Hub          *broadcast.Hub
	Webhooks     *webhook.Dispatcher
	Registry     *prometheus.Registry

	router http.Handler
}

func New(cfg Config) (*Manager, error) {
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	m := &Manager{Config: cfg}

	m.Nodes = store.NewInMemoryNodeStore()
	m.Blueprints = store.NewInMemoryBlueprintStore()
	if cfg.DBDir == "" {
		m.Servers = store.NewInMemoryServerStore()
		m.Allocations = store.NewInMemoryAllocationStore()
		m.Transfers = store.NewInMemoryTransferStore()
	} else {
		servers, err := store.NewBoltServerStore(filepath.Join(cfg.DBDir, "servers.db"), 0600)
		if err != nil {
			return nil, err
		}
		allocations, err := store.NewBoltAllocationStore(filepath.Join(cfg.DBDir, "allocations.db"), 0600)
		if err != nil {
			return nil, err
		}
		transfers, err := store.NewBoltTransferStore(filepath.Join(cfg.DBDir, "transfers.db"), 0600)
		if err != nil {
			return nil, err
		}
		m.Servers = servers
		m.Allocations = allocations
		m.Transfers = transfers
	}

	m.Hub = broadcast.NewHub()
	m.Webhooks = webhook.NewDispatcher(cfg.WebhookURL, cfg.Logger.WithField("component", "webhook"))
	m.Registry = prometheus.NewRegistry()

	m.Orchestrator = &orchestrator.Orchestrator{
		Servers:     m.Servers,
		Nodes:       m.Nodes,
		Transfers:   m.Transfers,
		Blueprints:  m.Blueprints,
		Allocations: allocation.NewManager(m.Allocations),
		Daemon:      daemon.NewGateway(cfg.DaemonTimeout, cfg.Logger.WithField("component", "daemon")),
		Locks:       node.NewLocks(),
		Webhooks:    m.Webhooks,
		Broadcast:   m.Hub,
		Logger:      cfg.Logger.WithField("component", "orchestrator"),
	}
	m.Orchestrator.RegisterMetrics(m.Registry)
	m.router = m.routes()
	return m, nil
}

// Start runs the webhook worker and serves the API. Blocks.
func (m *Manager) Start() error {
	m.Webhooks.Start()
	addr := fmt.Sprintf("%s:%d", m.Host, m.Port)
	m.Logger.WithField("addr", addr).Info("control plane listening")
	return http.ListenAndServe(addr, m.router)
}
