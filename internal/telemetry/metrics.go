// Package telemetry provides Prometheus instrumentation for the bridge.
package telemetry

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "crmbridge"

// Flow labels.
const (
	FlowForward = "forward"
	FlowReverse = "reverse"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	tokenRequests *prometheus.CounterVec
	syncAttempts  *prometheus.CounterVec
	syncOutcomes  *prometheus.CounterVec
	syncDuration  *prometheus.HistogramVec
	markerWrites  *prometheus.CounterVec
}

// NewMetrics creates the collectors on a fresh registry, together with the Go runtime
// and process collectors.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		tokenRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_requests_total",
			Help:      "Access token lookups by result (cached, refreshed, failed).",
		}, []string{"result"}),
		syncAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_attempts_total",
			Help:      "Remote write attempts by flow and result.",
		}, []string{"flow", "result"}),
		syncOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_outcomes_total",
			Help:      "Terminal sync outcomes by flow.",
		}, []string{"flow", "outcome"}),
		syncDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sync_duration_seconds",
			Help:      "Duration of sync operations in seconds, including backoff.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"flow", "outcome"}),
		markerWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failure_marker_writes_total",
			Help:      "Terminal failure marker writes by result.",
		}, []string{"result"}),
	}

	cs := []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.tokenRequests,
		m.syncAttempts,
		m.syncOutcomes,
		m.syncDuration,
		m.markerWrites,
	}

	var errs []error
	for _, c := range cs {
		if err := registry.Register(c); err != nil {
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	return m, nil
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}

	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}

	return m.registry
}

// RecordTokenRequest counts a token lookup. result is one of "cached", "refreshed", "failed".
func (m *Metrics) RecordTokenRequest(result string) {
	if m == nil {
		return
	}

	m.tokenRequests.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordSyncAttempt(flow string, success bool) {
	if m == nil {
		return
	}

	m.syncAttempts.WithLabelValues(flow, resultLabel(success)).Inc()
}

// RecordSyncOutcome counts a terminal outcome and observes how long the flow took.
func (m *Metrics) RecordSyncOutcome(flow, outcome string, duration time.Duration) {
	if m == nil {
		return
	}

	m.syncOutcomes.WithLabelValues(flow, outcome).Inc()
	m.syncDuration.WithLabelValues(flow, outcome).Observe(duration.Seconds())
}

func (m *Metrics) RecordFailureMarker(success bool) {
	if m == nil {
		return
	}

	m.markerWrites.WithLabelValues(resultLabel(success)).Inc()
}

func resultLabel(success bool) string {
	if success {
		return "success"
	}

	return "failure"
}
