// Package metrics exposes Prometheus counters for service operations.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Operation outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Recorder counts operations. A nil *Recorder is valid and records nothing.
type Recorder struct {
	reg        *prometheus.Registry
	ops        *prometheus.CounterVec
	rejections *prometheus.CounterVec
	sideEffect *prometheus.CounterVec
	logins     *prometheus.CounterVec
}

// New builds a Recorder on a private registry, including Go runtime collectors.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		reg: reg,
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Name:      "operations_total",
			Help:      "Service operations by name and outcome.",
		}, []string{"op", "outcome"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Name:      "rule_rejections_total",
			Help:      "Operations refused by an occupancy or numbering rule.",
		}, []string{"rule"}),
		sideEffect: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Name:      "chair_side_effect_failures_total",
			Help:      "Chair updates that failed after the patient write, by policy.",
		}, []string{"action", "policy"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Name:      "logins_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(
		r.ops, r.rejections, r.sideEffect, r.logins,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Op records one finished operation.
func (r *Recorder) Op(op, outcome string) {
	if r == nil {
		return
	}
	r.ops.WithLabelValues(op, outcome).Inc()
}

// Rejected records a rule rejection.
func (r *Recorder) Rejected(rule string) {
	if r == nil {
		return
	}
	r.rejections.WithLabelValues(rule).Inc()
}

// SideEffectFailed records a failed chair occupy/release.
func (r *Recorder) SideEffectFailed(action, policy string) {
	if r == nil {
		return
	}
	r.sideEffect.WithLabelValues(action, policy).Inc()
}

// Login records a login attempt result.
func (r *Recorder) Login(result string) {
	if r == nil {
		return
	}
	r.logins.WithLabelValues(result).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.reg
}
