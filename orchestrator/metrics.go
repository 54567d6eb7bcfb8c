package orchestrator

import "github.com/prometheus/client_golang/prometheus"

type metrics struct {
	flows *prometheus.CounterVec
}

// RegisterMetrics wires the orchestrator's counters into reg. Without
// it the orchestrator runs unmetered, which is what tests want.
func (o *Orchestrator) RegisterMetrics(reg *prometheus.Registry) {
	m := &metrics{
		flows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stellarstack",
			Subsystem: "orchestrator",
			Name:      "flow_outcomes_total",
			Help:      "Orchestration flow outcomes by flow name and result.",
		}, []string{"flow", "outcome"}),
	}
	reg.MustRegister(m.flows)
	o.metrics = m
}

func (o *Orchestrator) observe(flow, outcome string) {
	if o.metrics == nil {
		return
	}
	o.metrics.flows.WithLabelValues(flow, outcome).Inc()
}
