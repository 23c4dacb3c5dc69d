// Package metrics collects and exposes Prometheus metrics for the auth flows.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the surface the handlers use; the Collector implements it and a
// no-op stand-in can replace it in tests.
type Recorder interface {
	RecordRegistration()
	RecordLogin(success bool)
	RecordTokenIssued(tokenType string)
	RecordRotation()
	RecordRevocation()
}

type Collector struct {
	registrations prometheus.Counter
	logins        *prometheus.CounterVec
	tokensIssued  *prometheus.CounterVec
	rotations     prometheus.Counter
	revocations   prometheus.Counter

	registry *prometheus.Registry
}

func NewCollector() *Collector {
	c := &Collector{
		registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auth_registrations_total",
			Help: "Total number of successful user registrations.",
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_logins_total",
			Help: "Total number of login attempts by result.",
		}, []string{"result"}),
		tokensIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_tokens_issued_total",
			Help: "Total number of tokens issued by type.",
		}, []string{"type"}),
		rotations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auth_refresh_rotations_total",
			Help: "Total number of refresh-token rotations.",
		}),
		revocations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auth_revocations_total",
			Help: "Total number of refresh-session revocations (logouts).",
		}),
		registry: prometheus.NewRegistry(),
	}

	c.registry.MustRegister(
		c.registrations,
		c.logins,
		c.tokensIssued,
		c.rotations,
		c.revocations,
	)

	return c
}

func (c *Collector) RecordRegistration() {
	c.registrations.Inc()
}

func (c *Collector) RecordLogin(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	c.logins.WithLabelValues(result).Inc()
}

func (c *Collector) RecordTokenIssued(tokenType string) {
	c.tokensIssued.WithLabelValues(tokenType).Inc()
}

func (c *Collector) RecordRotation() {
	c.rotations.Inc()
}

func (c *Collector) RecordRevocation() {
	c.revocations.Inc()
}

// Handler serves the /metrics endpoint for this collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
