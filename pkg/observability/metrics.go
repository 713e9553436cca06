package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the application. Each collector
// owns its registry so tests can build as many as they like.
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Bus metrics
	Operations        *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec

	// Economy metrics
	Events    *prometheus.CounterVec
	YarnSpent *prometheus.CounterVec
	BonusPaid prometheus.Counter
}

// NewCollector creates a collector whose metrics live under namespace
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Queries and commands dispatched, by outcome",
			},
			[]string{"metric", "operation"},
		),
		OperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Query and command latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"metric", "operation"},
		),
		Events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "domain_events_total",
				Help:      "Domain events published, by type",
			},
			[]string{"type"},
		),
		YarnSpent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "yarn_spent_total",
				Help:      "Yarn debited by interactions, by interaction type",
			},
			[]string{"interaction_type"},
		),
		BonusPaid: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "absence_bonus_paid_total",
				Help:      "Yarn credited by absence bonuses",
			},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.Operations,
		c.OperationDuration,
		c.Events,
		c.YarnSpent,
		c.BonusPaid,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry exposes the underlying registry
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus text format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Increment bumps the counter for metric and operation
func (c *Collector) Increment(metric, operation string) {
	c.Operations.WithLabelValues(metric, operation).Inc()
}

// OperationTimer observes one operation's latency when stopped
type OperationTimer struct {
	observer prometheus.Observer
	start    time.Time
}

func (t *OperationTimer) Stop() {
	t.observer.Observe(time.Since(t.start).Seconds())
}

// StartOperationTimer starts timing metric for operation
func (c *Collector) StartOperationTimer(metric, operation string) *OperationTimer {
	return &OperationTimer{
		observer: c.OperationDuration.WithLabelValues(metric, operation),
		start:    time.Now(),
	}
}
