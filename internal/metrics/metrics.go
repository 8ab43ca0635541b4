package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the counters exported on /metrics. A nil *Metrics is valid
// and records nothing, which keeps tests and optional wiring simple.
type Metrics struct {
	registry  *prometheus.Registry
	feeds     *prometheus.CounterVec
	fallbacks *prometheus.CounterVec
	relays    *prometheus.CounterVec
}

// New creates a private registry with the feed, fallback and relay counters.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		feeds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lwp_feed_synthesis_total",
			Help: "Feed documents synthesized, by feed and outcome.",
		}, []string{"feed", "outcome"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lwp_fetch_fallback_total",
			Help: "External data fetches that degraded to a fallback value.",
		}, []string{"source", "location"}),
		relays: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lwp_image_relay_total",
			Help: "Image relay requests, by source and outcome.",
		}, []string{"source", "outcome"}),
	}
	reg.MustRegister(m.feeds, m.fallbacks, m.relays)
	return m
}

// Feed records one synthesis outcome ("ok", "fatal").
func (m *Metrics) Feed(feed, outcome string) {
	if m == nil {
		return
	}
	m.feeds.WithLabelValues(feed, outcome).Inc()
}

// Fallback records a fetch for location that degraded to its fallback.
func (m *Metrics) Fallback(source, location string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(source, location).Inc()
}

// Relay records one image relay outcome ("live", "fallback", "not_found").
func (m *Metrics) Relay(source, outcome string) {
	if m == nil {
		return
	}
	m.relays.WithLabelValues(source, outcome).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
