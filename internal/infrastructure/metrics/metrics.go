// Package metrics exposes the gateway's Prometheus gauges/counters for the
// /control/metrics surface (SPEC_FULL.md domain-stack additions).
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Recorder owns the gateway's Prometheus collectors and is the single
// place request/cooldown/cascade observations are reported from, mirroring
// the one-struct-per-concern shape the rest of internal/domain/service uses
// for its own collaborators.
type Recorder struct {
	requestsTotal           *prometheus.CounterVec
	cooldownActive          *prometheus.GaugeVec
	cascadeEscalationsTotal prometheus.Counter
}

// NewRecorder builds and registers every collector against reg.
func NewRecorder(reg *prometheus.Registry) *Recorder {
	r := &Recorder{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "relayplane_router_requests_total",
			Help: "Completed gateway requests by task type, resolved model, and upstream provider.",
		}, []string{"task", "model", "provider"}),
		cooldownActive: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "relayplane_cooldown_active",
			Help: "1 when the provider is currently in cooldown, 0 otherwise (spec 4.H).",
		}, []string{"provider"}),
		cascadeEscalationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "relayplane_cascade_escalations_total",
			Help: "Count of cascade escalations to a next candidate model (spec 4.I).",
		}),
	}
	reg.MustRegister(r.requestsTotal, r.cooldownActive, r.cascadeEscalationsTotal)
	return r
}

// IncRequest records one completed request for the given task/model/provider.
func (r *Recorder) IncRequest(task, model, provider string) {
	if r == nil {
		return
	}
	r.requestsTotal.WithLabelValues(task, model, provider).Inc()
}

// SetCooldownActive reports provider's current cooldown state.
func (r *Recorder) SetCooldownActive(provider string, active bool) {
	if r == nil {
		return
	}
	v := 0.0
	if active {
		v = 1.0
	}
	r.cooldownActive.WithLabelValues(provider).Set(v)
}

// IncCascadeEscalation records one cascade escalation to the next candidate.
func (r *Recorder) IncCascadeEscalation() {
	if r == nil {
		return
	}
	r.cascadeEscalationsTotal.Inc()
}
