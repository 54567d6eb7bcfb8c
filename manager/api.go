package manager

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (m *Manager) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", m.HealthHandler)
	r.Get("/stats", m.StatsHandler)
	r.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))

	r.Route("/api/nodes", func(r chi.Router) {
		r.Post("/", m.CreateNodeHandler)
		r.Get("/", m.ListNodesHandler)
		r.Route("/{nodeID}", func(r chi.Router) {
			r.Get("/", m.GetNodeHandler)
			r.Post("/allocations", m.CreateAllocationsHandler)
			r.Get("/allocations", m.ListAllocationsHandler)
		})
	})

	r.Route("/api/blueprints", func(r chi.Router) {
		r.Post("/", m.CreateBlueprintHandler)
		r.Get("/", m.ListBlueprintsHandler)
	})

	r.Route("/api/servers", func(r chi.Router) {
		r.Post("/", m.ProvisionHandler)
		r.Get("/", m.ListServersHandler)
		r.Route("/{serverID}", func(r chi.Router) {
			r.Get("/", m.GetServerHandler)
			r.Delete("/", m.DeleteServerHandler)
			r.Post("/power", m.PowerHandler)
			r.Post("/status", m.SetStatusHandler)
			r.Post("/split", m.SplitHandler)
			r.Post("/reinstall", m.ReinstallHandler)
			r.Post("/transfer", m.StartTransferHandler)
			r.Get("/transfer", m.ActiveTransferHandler)
			r.Delete("/transfer", m.CancelTransferHandler)
			r.Get("/transfers", m.TransferHistoryHandler)
			r.Post("/allocations", m.AddAllocationHandler)
			r.Delete("/allocations/{allocationID}", m.RemoveAllocationHandler)
			r.Post("/allocations/{allocationID}/primary", m.SetPrimaryHandler)
		})
	})

	// callbacks from node agents
	r.Route("/api/remote", func(r chi.Router) {
		r.Post("/servers/{serverID}/install", m.InstallCallbackHandler)
		r.Post("/transfers/{transferID}", m.TransferCallbackHandler)
	})

	return r
}
