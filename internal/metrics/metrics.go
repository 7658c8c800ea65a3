// Package metrics collects and exposes Prometheus metrics for the web
// front-end. All Collector methods are safe to call on a nil receiver so
// components can run without metrics in tests.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "knowledgehub"

// Login outcomes
const (
	LoginStarted = "started"
	LoginSuccess = "success"
	LoginFailure = "failure"
)

// Backend fetch outcomes
const (
	FetchSuccess = "success"
	FetchNetwork = "network"
	FetchStatus  = "status"
	FetchParse   = "parse"
)

type Collector struct {
	logins       *prometheus.CounterVec
	fetches      *prometheus.CounterVec
	fetchLatency prometheus.Histogram
	rateLimited  *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "OAuth login attempts by outcome.",
		}, []string{"outcome"}),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_fetch_total",
			Help:      "Measurements backend fetches by outcome.",
		}, []string{"outcome"}),
		fetchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_fetch_latency_seconds",
			Help:      "Latency of measurements backend fetches.",
			Buckets:   prometheus.DefBuckets,
		}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter, by route.",
		}, []string{"route"}),
	}

	reg.MustRegister(c.logins, c.fetches, c.fetchLatency, c.rateLimited)
	return c
}

func (c *Collector) RecordLogin(outcome string) {
	if c == nil {
		return
	}
	c.logins.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordFetch(outcome string, duration time.Duration) {
	if c == nil {
		return
	}
	c.fetches.WithLabelValues(outcome).Inc()
	c.fetchLatency.Observe(duration.Seconds())
}

func (c *Collector) RecordRateLimited(route string) {
	if c == nil {
		return
	}
	c.rateLimited.WithLabelValues(route).Inc()
}

// Handler returns the Prometheus scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
