package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Outcome labels for registry requests.
const (
	OutcomeOK          = "ok"
	OutcomeEmpty       = "empty"
	OutcomeUnavailable = "unavailable"
	OutcomeMalformed   = "malformed"
)

// Metrics provides observability for a matching run. All methods are safe to
// call on a nil *Metrics.
type Metrics struct {
	registry *prometheus.Registry

	// Registry requests by search mode ("exact", "wildcard", "lookup") and outcome
	RegistryRequests *prometheus.CounterVec

	// Registry round-trip latency by search mode
	RegistryLatency *prometheus.HistogramVec

	// Processed rows by final match method
	RowsProcessed *prometheus.CounterVec

	// Per-row duration including the mandatory pauses
	RowLatency prometheus.Histogram
}

// New creates a Metrics instance backed by its own registry, so repeated runs
// in one process (and tests) never collide on registration.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RegistryRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "npi_match_registry_requests_total",
			Help: "Total NPPES registry requests by search mode and outcome",
		}, []string{"mode", "outcome"}),

		RegistryLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "npi_match_registry_request_duration_seconds",
			Help:    "Duration of NPPES registry requests by search mode",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"mode"}),

		RowsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "npi_match_rows_processed_total",
			Help: "Total input rows processed by match method",
		}, []string{"method"}),

		RowLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "npi_match_row_duration_seconds",
			Help:    "Duration of one row including registry calls and pauses",
			Buckets: []float64{0.5, 1, 1.5, 2, 3, 5, 10, 30},
		}),
	}
}

// ObserveRegistryRequest records one registry request.
func (m *Metrics) ObserveRegistryRequest(mode, outcome string, d time.Duration) {
	if m != nil {
		m.RegistryRequests.WithLabelValues(mode, outcome).Inc()
		m.RegistryLatency.WithLabelValues(mode).Observe(d.Seconds())
	}
}

// ObserveRow records one processed row.
func (m *Metrics) ObserveRow(method string, d time.Duration) {
	if m != nil {
		m.RowsProcessed.WithLabelValues(method).Inc()
		m.RowLatency.Observe(d.Seconds())
	}
}

// Gatherer exposes the underlying registry.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	if m == nil {
		return prometheus.NewRegistry()
	}
	return m.registry
}

// Push sends the collected metrics to a Prometheus Pushgateway, grouped by
// run ID. An empty gateway URL disables the push.
func (m *Metrics) Push(ctx context.Context, gatewayURL, job, runID string) error {
	if m == nil || gatewayURL == "" {
		return nil
	}
	pusher := push.New(gatewayURL, job).Gatherer(m.registry)
	if runID != "" {
		pusher = pusher.Grouping("run_id", runID)
	}
	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("pushing metrics to %s: %w", gatewayURL, err)
	}
	return nil
}
