package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// setupTestMeterProvider creates a test meter provider with a manual reader
func setupTestMeterProvider(t *testing.T) (*OTelMetrics, *metric.ManualReader) {
	t.Helper()
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	otel.SetMeterProvider(provider)
	t.Cleanup(func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			t.Logf("Error shutting down provider: %v", err)
		}
	})

	m, err := NewOTelMetrics()
	if err != nil {
		t.Fatalf("NewOTelMetrics() error = %v", err)
	}
	return m, reader
}

// collect returns the recorded metrics by name
func collect(t *testing.T, reader *metric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Failed to collect metrics: %v", err)
	}

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumValue(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("%s is not an int64 sum", m.Name)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func gaugeValue(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()
	gauge, ok := m.Data.(metricdata.Gauge[int64])
	if !ok || len(gauge.DataPoints) == 0 {
		t.Fatalf("%s is not an int64 gauge", m.Name)
	}
	return gauge.DataPoints[0].Value
}

func TestNewOTelMetrics(t *testing.T) {
	m, _ := setupTestMeterProvider(t)

	if m.cacheHitsTotal == nil {
		t.Error("cacheHitsTotal is nil")
	}
	if m.cacheMissesTotal == nil {
		t.Error("cacheMissesTotal is nil")
	}
	if m.cacheEvictionsTotal == nil {
		t.Error("cacheEvictionsTotal is nil")
	}
	if m.cacheSize == nil {
		t.Error("cacheSize is nil")
	}
	if m.fetchDuration == nil {
		t.Error("fetchDuration is nil")
	}
	if m.reloadsTotal == nil {
		t.Error("reloadsTotal is nil")
	}
	if m.manifestsLoaded == nil {
		t.Error("manifestsLoaded is nil")
	}
}

func TestOTelMetrics_CacheOperations(t *testing.T) {
	m, reader := setupTestMeterProvider(t)
	ctx := context.Background()

	m.RecordCacheHit(ctx)
	m.RecordCacheHit(ctx)
	m.RecordCacheMiss(ctx)
	m.RecordCacheEviction(ctx)
	m.UpdateCacheSize(ctx, 3)

	got := collect(t, reader)

	if v := sumValue(t, got["manifest.cache.hits"]); v != 2 {
		t.Errorf("manifest.cache.hits = %d, want 2", v)
	}
	if v := sumValue(t, got["manifest.cache.misses"]); v != 1 {
		t.Errorf("manifest.cache.misses = %d, want 1", v)
	}
	if v := sumValue(t, got["manifest.cache.evictions"]); v != 1 {
		t.Errorf("manifest.cache.evictions = %d, want 1", v)
	}
	if v := gaugeValue(t, got["manifest.cache.size"]); v != 3 {
		t.Errorf("manifest.cache.size = %d, want 3", v)
	}
}

func TestOTelMetrics_RecordManifestFetch(t *testing.T) {
	m, reader := setupTestMeterProvider(t)
	ctx := context.Background()

	m.RecordManifestFetch(ctx, 10*time.Millisecond, nil)
	m.RecordManifestFetch(ctx, 20*time.Millisecond, errors.New("boom"))

	got := collect(t, reader)
	hist, ok := got["manifest.fetch.duration"].Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatal("manifest.fetch.duration not recorded")
	}
	if len(hist.DataPoints) != 2 {
		t.Errorf("expected one data point per error attribute, got %d", len(hist.DataPoints))
	}
}

func TestOTelMetrics_RecordReload(t *testing.T) {
	m, reader := setupTestMeterProvider(t)
	ctx := context.Background()

	m.RecordReload(ctx, 4, nil)
	m.RecordReload(ctx, 0, errors.New("boom"))

	got := collect(t, reader)
	if v := sumValue(t, got["manifest.reloads"]); v != 2 {
		t.Errorf("manifest.reloads = %d, want 2", v)
	}
	if v := gaugeValue(t, got["manifest.loaded"]); v != 4 {
		t.Errorf("manifest.loaded = %d, want 4 (failed reloads keep the last count)", v)
	}
}

func TestOTelMetrics_NilSafe(t *testing.T) {
	var m *OTelMetrics
	ctx := context.Background()

	m.RecordCacheHit(ctx)
	m.RecordCacheMiss(ctx)
	m.RecordCacheEviction(ctx)
	m.UpdateCacheSize(ctx, 1)
	m.RecordManifestFetch(ctx, time.Millisecond, nil)
	m.RecordReload(ctx, 1, nil)
}
