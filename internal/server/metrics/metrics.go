// Package metrics exposes Prometheus counters for the authentication core.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	OutcomeSuccess            = "success"
	OutcomeInvalidCredentials = "invalid_credentials"
	OutcomeUnknownUser        = "unknown_user"
	OutcomeInvalidToken       = "invalid_token"
	OutcomeReuse              = "reuse"
	OutcomeError              = "error"
)

// Gate modes.
const (
	GateRequired = "required"
	GateOptional = "optional"
)

// Metrics groups the counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	logins         *prometheus.CounterVec
	refreshes      *prometheus.CounterVec
	logouts        prometheus.Counter
	gateRejections *prometheus.CounterVec
	registry       *prometheus.Registry
}

// New creates the counters on a fresh registry together with the Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vidtube_auth_logins_total",
			Help: "Login attempts by outcome",
		}, []string{"outcome"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vidtube_auth_refreshes_total",
			Help: "Refresh token rotations by outcome",
		}, []string{"outcome"}),
		logouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vidtube_auth_logouts_total",
			Help: "Completed logouts",
		}),
		gateRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vidtube_auth_gate_rejections_total",
			Help: "Requests rejected by the authorization gate",
		}, []string{"mode", "reason"}),
	}

	reg.MustRegister(
		m.logins,
		m.refreshes,
		m.logouts,
		m.gateRejections,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// RecordLogin counts a login attempt.
func (m *Metrics) RecordLogin(outcome string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(outcome).Inc()
}

// RecordRefresh counts a refresh attempt.
func (m *Metrics) RecordRefresh(outcome string) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(outcome).Inc()
}

// RecordLogout counts a logout.
func (m *Metrics) RecordLogout() {
	if m == nil {
		return
	}
	m.logouts.Inc()
}

// RecordGateRejection counts a request the gate turned away.
func (m *Metrics) RecordGateRejection(mode, reason string) {
	if m == nil {
		return
	}
	m.gateRejections.WithLabelValues(mode, reason).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
