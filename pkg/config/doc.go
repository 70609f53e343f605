// Package config provides application configuration management from environment variables.
//
// # Overview
//
// This package loads and validates configuration from environment variables with
// sensible defaults for all settings.
//
// # Configuration Structure
//
// Registry settings:
//
//	EXTENSIONS_DEV_MODE="false"  # enforce manifest/contribution consistency
//
// Plugin manifest settings:
//
//	EXTENSIONS_PLUGINS_DIR="/var/lib/plugins:/opt/plugins"
//	EXTENSIONS_MANIFEST_CACHE_SIZE="256"
//	EXTENSIONS_MANIFEST_CACHE_TTL="5m"
//	EXTENSIONS_MANIFEST_WATCH="false"
//
// Command palette settings:
//
//	EXTENSIONS_SEARCH_TIMEOUT="10s"
//
// Observability settings:
//
//	EXTENSIONS_LOG_LEVEL="info"  # debug, info, warn, error
//	EXTENSIONS_METRICS_ENABLED="true"
//	EXTENSIONS_OTEL_ENABLED="true"
//	EXTENSIONS_OTEL_ENDPOINT="otel-collector:4317"
//
// # Usage Example
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatalf("Failed to load config: %v", err)
//	}
//	regs := extensions.NewRegistries(extensions.Options{DevMode: cfg.Registry.DevMode})
package config
