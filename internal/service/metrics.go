package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Fetch kinds used as metric labels.
const (
	KindFeatures = "features"
	KindGraph    = "graph"
)

// Metrics are the Prometheus collectors of a Client.
type Metrics struct {
	requests  *prometheus.CounterVec
	failures  *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	cacheHits prometheus.Counter
}

// NewMetrics creates unregistered collectors.
func NewMetrics() *Metrics {
	return &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "geolink",
			Name:      "fetch_requests_total",
			Help:      "Remote fetches by kind.",
		}, []string{"kind"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "geolink",
			Name:      "fetch_failures_total",
			Help:      "Remote fetches that did not return a usable body.",
		}, []string{"kind"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "geolink",
			Name:      "fetch_duration_seconds",
			Help:      "Remote fetch latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "geolink",
			Name:      "graph_cache_hits_total",
			Help:      "Graph documents served from cache.",
		}),
	}
}

// Register adds the collectors to reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.requests, m.failures, m.latency, m.cacheHits} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) observe(kind string, d time.Duration) {
	m.requests.WithLabelValues(kind).Inc()
	m.latency.WithLabelValues(kind).Observe(d.Seconds())
}

func (m *Metrics) fail(kind string) {
	m.failures.WithLabelValues(kind).Inc()
}

func (m *Metrics) hit() {
	m.cacheHits.Inc()
}
