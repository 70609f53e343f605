package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registration outcomes
const (
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
)

// Metrics holds all Prometheus metrics. A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Registry metrics
	RegistrationsTotal *prometheus.CounterVec
	SnapshotItems      *prometheus.GaugeVec

	// Resolution metrics
	ResolvedTotal          *prometheus.CounterVec
	ResolveDuration        *prometheus.HistogramVec
	CustomizeFailuresTotal *prometheus.CounterVec

	// Command palette metrics
	SearchProviderTotal *prometheus.CounterVec
	SearchDuration      prometheus.Histogram
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		RegistrationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "extensions_registrations_total",
				Help: "Total number of plugin extension configs processed by a registry",
			},
			[]string{"registry", "status"},
		),
		SnapshotItems: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "extensions_snapshot_keys",
				Help: "Number of keys in the current registry snapshot",
			},
			[]string{"registry"},
		),
		ResolvedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "extensions_resolved_total",
				Help: "Total number of extensions handed to the host",
			},
			[]string{"type"},
		),
		ResolveDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "extensions_resolve_duration_seconds",
				Help:    "Resolution duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		CustomizeFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "extensions_customize_failures_total",
				Help: "Total number of extensions hidden because their configure callback failed",
			},
			[]string{"reason"},
		),
		SearchProviderTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "extensions_search_provider_total",
				Help: "Command palette provider invocations by outcome",
			},
			[]string{"outcome"},
		),
		SearchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "extensions_search_duration_seconds",
				Help:    "Command palette search duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
	}

	registry.MustRegister(
		m.RegistrationsTotal,
		m.SnapshotItems,
		m.ResolvedTotal,
		m.ResolveDuration,
		m.CustomizeFailuresTotal,
		m.SearchProviderTotal,
		m.SearchDuration,
	)

	return m
}

// RecordRegistration counts one processed config
func (m *Metrics) RecordRegistration(registry, status string) {
	if m == nil {
		return
	}
	m.RegistrationsTotal.WithLabelValues(registry, status).Inc()
}

// RecordSnapshot sets the key count of a freshly published snapshot
func (m *Metrics) RecordSnapshot(registry string, keys int) {
	if m == nil {
		return
	}
	m.SnapshotItems.WithLabelValues(registry).Set(float64(keys))
}

// RecordResolved counts extensions returned to the host
func (m *Metrics) RecordResolved(extensionType string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.ResolvedTotal.WithLabelValues(extensionType).Add(float64(n))
}

// ObserveResolve records how long a resolution took
func (m *Metrics) ObserveResolve(operation string, start time.Time) {
	if m == nil {
		return
	}
	m.ResolveDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// RecordCustomizeFailure counts an extension hidden by a failing configure callback
func (m *Metrics) RecordCustomizeFailure(reason string) {
	if m == nil {
		return
	}
	m.CustomizeFailuresTotal.WithLabelValues(reason).Inc()
}

// RecordSearchProvider counts a provider outcome (ok, empty, skipped, invalid, error, canceled)
func (m *Metrics) RecordSearchProvider(outcome string) {
	if m == nil {
		return
	}
	m.SearchProviderTotal.WithLabelValues(outcome).Inc()
}

// ObserveSearch records how long a command palette search took
func (m *Metrics) ObserveSearch(start time.Time) {
	if m == nil {
		return
	}
	m.SearchDuration.Observe(time.Since(start).Seconds())
}

// RegisterMetricsEndpoint registers the /metrics endpoint
func RegisterMetricsEndpoint(mux *http.ServeMux, registry *prometheus.Registry) {
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
