// Package telemetry carries the agent's self-observability: dispatch
// traffic and module failure counters, exposed on the /metrics endpoint.
// These describe the agent itself, never the values it routes.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the dispatch counters and their registry.
type Metrics struct {
	registry *prometheus.Registry

	RefreshTotal *prometheus.CounterVec
	FetchTotal   *prometheus.CounterVec
	ModuleErrors *prometheus.CounterVec
}

// New builds a fresh registry with the dispatch counters registered.
// Go runtime metrics stay off; the optional process collector matches
// what operators expect from a long-running agent.
func New(enableProcess bool) *Metrics {
	registry := prometheus.NewRegistry()
	if enableProcess {
		registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	}

	m := &Metrics{
		registry: registry,
		RefreshTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agent_refresh_requests_total",
			Help: "Refresh requests dispatched, per module.",
		}, []string{"module"}),
		FetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agent_fetch_requests_total",
			Help: "Fetch requests dispatched, per module.",
		}, []string{"module"}),
		ModuleErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agent_module_errors_total",
			Help: "Module failures caught at the dispatch boundary, per module and call type.",
		}, []string{"module", "op"}),
	}
	registry.MustRegister(m.RefreshTotal, m.FetchTotal, m.ModuleErrors)
	return m
}

// Registry exposes the underlying registry for the HTTP handler.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
