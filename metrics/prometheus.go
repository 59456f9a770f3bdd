// Package metrics exports build and ranking metrics in Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records embedding builds and ranking queries. It implements
// embedding.Observer and rank.Observer.
type Collector struct {
	registry *prometheus.Registry

	buildEntities *prometheus.CounterVec
	buildDuration prometheus.Histogram
	buildIndexed  prometheus.Gauge
	buildSkipped  prometheus.Gauge

	rankRequests *prometheus.CounterVec
	rankLatency  prometheus.Histogram
	rankReturned prometheus.Counter

	storeEntries prometheus.Gauge
}

// Config configures the Collector.
type Config struct {
	// Registry to use (if nil, creates a new one)
	Registry *prometheus.Registry
	// Namespace prefixes every metric name. Default: lookalike.
	Namespace string
	// Buckets for the ranking latency histogram (in seconds)
	LatencyBuckets []float64
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Namespace:      "lookalike",
		LatencyBuckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}
}

// New creates a Collector and registers its metrics.
func New(cfg Config) *Collector {
	def := DefaultConfig()
	if cfg.Namespace == "" {
		cfg.Namespace = def.Namespace
	}
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = def.LatencyBuckets
	}
	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	c := &Collector{registry: registry}

	c.buildEntities = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "build",
			Name:      "entities_total",
			Help:      "Entities processed by embedding builds, by outcome",
		},
		[]string{"outcome"},
	)
	c.buildDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: cfg.Namespace,
		Subsystem: "build",
		Name:      "duration_seconds",
		Help:      "Embedding build duration in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.1, 4, 8),
	})
	c.buildIndexed = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: cfg.Namespace,
		Subsystem: "build",
		Name:      "last_indexed",
		Help:      "Entities indexed by the last build",
	})
	c.buildSkipped = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: cfg.Namespace,
		Subsystem: "build",
		Name:      "last_skipped",
		Help:      "Entities skipped by the last build",
	})
	c.rankRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "rank",
			Name:      "requests_total",
			Help:      "Ranking requests, by outcome",
		},
		[]string{"outcome"},
	)
	c.rankLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: cfg.Namespace,
		Subsystem: "rank",
		Name:      "latency_seconds",
		Help:      "Ranking latency in seconds",
		Buckets:   cfg.LatencyBuckets,
	})
	c.rankReturned = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: "rank",
		Name:      "neighbors_returned_total",
		Help:      "Neighbors returned by ranking requests",
	})
	c.storeEntries = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: cfg.Namespace,
		Subsystem: "store",
		Name:      "entries",
		Help:      "Entries in the served embedding store",
	})

	registry.MustRegister(
		c.buildEntities, c.buildDuration, c.buildIndexed, c.buildSkipped,
		c.rankRequests, c.rankLatency, c.rankReturned,
		c.storeEntries,
	)
	return c
}

// ObserveEntity counts one build outcome ("indexed" or a skip reason).
func (c *Collector) ObserveEntity(outcome string) {
	c.buildEntities.WithLabelValues(outcome).Inc()
}

// ObserveBuild records a finished build.
func (c *Collector) ObserveBuild(duration time.Duration, indexed, skipped int) {
	c.buildDuration.Observe(duration.Seconds())
	c.buildIndexed.Set(float64(indexed))
	c.buildSkipped.Set(float64(skipped))
}

// ObserveRank records one ranking request.
func (c *Collector) ObserveRank(duration time.Duration, outcome string, returned int) {
	c.rankRequests.WithLabelValues(outcome).Inc()
	c.rankLatency.Observe(duration.Seconds())
	c.rankReturned.Add(float64(returned))
}

// SetStoreEntries publishes the size of the served store.
func (c *Collector) SetStoreEntries(n int) {
	c.storeEntries.Set(float64(n))
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler returns the HTTP handler serving the registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
