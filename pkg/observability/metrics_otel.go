package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OTelMetrics holds OpenTelemetry metric instruments for the manifest layer.
// A nil *OTelMetrics is valid and records nothing.
type OTelMetrics struct {
	// Manifest cache metrics
	cacheHitsTotal      metric.Int64Counter
	cacheMissesTotal    metric.Int64Counter
	cacheEvictionsTotal metric.Int64Counter
	cacheSize           metric.Int64Gauge

	// Manifest fetch metrics
	fetchDuration metric.Float64Histogram

	// Manifest reload metrics
	reloadsTotal    metric.Int64Counter
	manifestsLoaded metric.Int64Gauge
}

// NewOTelMetrics creates the instruments on the global meter provider
func NewOTelMetrics() (*OTelMetrics, error) {
	meter := otel.Meter(TracerName)

	m := &OTelMetrics{}
	var err error

	m.cacheHitsTotal, err = meter.Int64Counter(
		"manifest.cache.hits",
		metric.WithDescription("Total number of manifest cache hits"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create manifest_cache_hits counter: %w", err)
	}

	m.cacheMissesTotal, err = meter.Int64Counter(
		"manifest.cache.misses",
		metric.WithDescription("Total number of manifest cache misses"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create manifest_cache_misses counter: %w", err)
	}

	m.cacheEvictionsTotal, err = meter.Int64Counter(
		"manifest.cache.evictions",
		metric.WithDescription("Total number of manifests dropped from the cache"),
		metric.WithUnit("{eviction}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create manifest_cache_evictions counter: %w", err)
	}

	m.cacheSize, err = meter.Int64Gauge(
		"manifest.cache.size",
		metric.WithDescription("Number of manifests currently cached"),
		metric.WithUnit("{manifest}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create manifest_cache_size gauge: %w", err)
	}

	m.fetchDuration, err = meter.Float64Histogram(
		"manifest.fetch.duration",
		metric.WithDescription("Manifest fetch duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create manifest_fetch_duration histogram: %w", err)
	}

	m.reloadsTotal, err = meter.Int64Counter(
		"manifest.reloads",
		metric.WithDescription("Total number of manifest directory reloads"),
		metric.WithUnit("{reload}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create manifest_reloads counter: %w", err)
	}

	m.manifestsLoaded, err = meter.Int64Gauge(
		"manifest.loaded",
		metric.WithDescription("Number of manifests loaded by the last reload"),
		metric.WithUnit("{manifest}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create manifest_loaded gauge: %w", err)
	}

	return m, nil
}

// RecordCacheHit records a manifest cache hit
func (m *OTelMetrics) RecordCacheHit(ctx context.Context) {
	if m == nil {
		return
	}
	m.cacheHitsTotal.Add(ctx, 1)
}

// RecordCacheMiss records a manifest cache miss
func (m *OTelMetrics) RecordCacheMiss(ctx context.Context) {
	if m == nil {
		return
	}
	m.cacheMissesTotal.Add(ctx, 1)
}

// RecordCacheEviction records a manifest leaving the cache
func (m *OTelMetrics) RecordCacheEviction(ctx context.Context) {
	if m == nil {
		return
	}
	m.cacheEvictionsTotal.Add(ctx, 1)
}

// UpdateCacheSize records the current number of cached manifests
func (m *OTelMetrics) UpdateCacheSize(ctx context.Context, size int) {
	if m == nil {
		return
	}
	m.cacheSize.Record(ctx, int64(size))
}

// RecordManifestFetch records one fetch behind the cache
func (m *OTelMetrics) RecordManifestFetch(ctx context.Context, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.fetchDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(errorAttr(err)))
}

// RecordReload records a manifest directory reload and how many manifests it produced
func (m *OTelMetrics) RecordReload(ctx context.Context, count int, err error) {
	if m == nil {
		return
	}
	m.reloadsTotal.Add(ctx, 1, metric.WithAttributes(errorAttr(err)))
	if err == nil {
		m.manifestsLoaded.Record(ctx, int64(count))
	}
}

func errorAttr(err error) attribute.KeyValue {
	if err != nil {
		return attribute.String("error", "true")
	}
	return attribute.String("error", "false")
}
