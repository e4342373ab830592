// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	authEvents      *prometheus.CounterVec
	membership      *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewCollector creates the collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		authEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cragbase_auth_events_total",
			Help: "Authentication operations by event and outcome.",
		}, []string{"event", "outcome"}),
		membership: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cragbase_membership_mutations_total",
			Help: "Membership set mutations by kind, operation and outcome.",
		}, []string{"kind", "op", "outcome"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cragbase_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status code.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status_code"}),
	}

	reg.MustRegister(c.authEvents, c.membership, c.requestDuration)
	return c
}

func (c *Collector) RecordAuth(event, outcome string) {
	c.authEvents.WithLabelValues(event, outcome).Inc()
}

func (c *Collector) RecordMembership(kind, op, outcome string) {
	c.membership.WithLabelValues(kind, op, outcome).Inc()
}

func (c *Collector) ObserveRequest(method, route string, status int, d time.Duration) {
	c.requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
