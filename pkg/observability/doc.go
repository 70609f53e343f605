// Package observability provides structured logging, Prometheus metrics, and OpenTelemetry tracing.
//
// # Overview
//
// Every registry, resolver and search provider writes diagnostics here. Nothing in this
// module returns data-shaped problems to the host; they surface exclusively through the
// Logger and the metrics below.
//
// # Structured Logging
//
// Create logger:
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stderr)
//	logger.Info("registry ready", "registry", "addedLinks")
//
// Child loggers carry correlation fields:
//
//	log := logger.Child(observability.Fields{observability.FieldPluginID: "acme-app"})
//	log.Warning("Could not register link extension", "reason", "title is missing")
//
// Use NewNopLogger in tests that do not assert on log output.
//
// # Prometheus Metrics
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	metrics.RecordRegistration("addedLinks", observability.StatusAccepted)
//
// A nil *Metrics is valid and records nothing, so components never need to branch on it.
//
// # OpenTelemetry
//
//	providers, err := observability.InitOTel(ctx, observability.OTelConfig{
//		Enabled:     true,
//		Endpoint:    "otel-collector:4317",
//		ServiceName: "extensions",
//	}, logger)
//	defer observability.ShutdownOTel(ctx, providers, logger)
//
// Manifest cache and reload instruments live on the OTel meter provider:
//
//	otelMetrics, err := observability.NewOTelMetrics()
//	source := plugins.NewCachedSource(fetch, 256, 5*time.Minute, plugins.WithCacheMetrics(otelMetrics))
//
// # Health Checks and Shutdown
//
//	checker := observability.NewHealthChecker(version)
//	checker.AddCheck("plugins", true, checkPluginDirs)
//	observability.RegisterHealthRoutes(mux, checker)
//
//	sm := observability.NewShutdownManager(logger, server, 0)
//	sm.RegisterShutdownFunc(stopWatcher)
//	err := sm.WaitForShutdown(ctx)
//
// # Related Packages
//
//   - pkg/config: Observability configuration
//   - pkg/resolver: Spans around resolution and search
//   - pkg/plugins: Manifest cache and watcher instruments
package observability
