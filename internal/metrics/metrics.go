// Package metrics exposes Prometheus instrumentation for the store adapter
// and the record lifecycle.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dyluth/easel/pkg/kv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "easel"

// Metrics holds every collector. A nil *Metrics is valid and records
// nothing, so callers never need to check for it.
type Metrics struct {
	registry *prometheus.Registry

	storeCalls    *prometheus.CounterVec
	storeLatency  *prometheus.HistogramVec
	created       *prometheus.CounterVec
	deleted       prometheus.Counter
	migrated      prometheus.Counter
	httpRequests  *prometheus.CounterVec
	httpDurations *prometheus.HistogramVec
}

// New registers all collectors, plus the Go runtime and process
// collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		storeCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "calls_total",
			Help:      "Store calls by operation and outcome.",
		}, []string{"op", "outcome"}),
		storeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "call_duration_seconds",
			Help:      "Store call latency by operation.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"op"}),
		created: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_created_total",
			Help:      "Records created, by size.",
		}, []string{"size"}),
		deleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_deleted_total",
			Help:      "Records deleted.",
		}),
		migrated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_migrated_total",
			Help:      "Legacy records rewritten to the size-partitioned layout.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		httpDurations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.storeCalls, m.storeLatency,
		m.created, m.deleted, m.migrated,
		m.httpRequests, m.httpDurations,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveStoreCall implements kv.Observer.
func (m *Metrics) ObserveStoreCall(op string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.storeCalls.WithLabelValues(op, outcome(err)).Inc()
	m.storeLatency.WithLabelValues(op).Observe(elapsed.Seconds())
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, kv.ErrClosed):
		return "closed"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}

// RecordCreated implements gallery.Observer.
func (m *Metrics) RecordCreated(size int) {
	if m == nil {
		return
	}
	m.created.WithLabelValues(strconv.Itoa(size)).Inc()
}

// RecordDeleted implements gallery.Observer.
func (m *Metrics) RecordDeleted() {
	if m == nil {
		return
	}
	m.deleted.Inc()
}

// RecordsMigrated implements gallery.Observer.
func (m *Metrics) RecordsMigrated(n int) {
	if m == nil {
		return
	}
	m.migrated.Add(float64(n))
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(route, method string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.httpDurations.WithLabelValues(route).Observe(elapsed.Seconds())
}
