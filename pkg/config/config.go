package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/platinummonkey/extensions/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	// Registry configuration
	Registry RegistryConfig

	// Plugin manifest configuration
	Plugins PluginsConfig

	// Command palette configuration
	Search SearchConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// RegistryConfig holds extension registry settings
type RegistryConfig struct {
	// DevMode enables the manifest cross-check on every registration
	DevMode bool
}

// PluginsConfig holds plugin manifest settings
type PluginsConfig struct {
	// Dirs are scanned for <plugin>/plugin.yaml
	Dirs          []string
	CacheSize     int
	CacheTTL      time.Duration
	WatchManifest bool
}

// SearchConfig holds command palette settings
type SearchConfig struct {
	Timeout time.Duration
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel observability.LogLevel

	// Metrics
	MetricsEnabled bool

	// OpenTelemetry
	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool // Use insecure gRPC connection
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Registry:      loadRegistryConfig(),
		Plugins:       loadPluginsConfig(),
		Search:        loadSearchConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadRegistryConfig loads registry configuration from environment
func loadRegistryConfig() RegistryConfig {
	return RegistryConfig{
		DevMode: getEnvBool("EXTENSIONS_DEV_MODE", false),
	}
}

// loadPluginsConfig loads plugin manifest configuration from environment
func loadPluginsConfig() PluginsConfig {
	return PluginsConfig{
		Dirs:          getEnvList("EXTENSIONS_PLUGINS_DIR", nil),
		CacheSize:     getEnvInt("EXTENSIONS_MANIFEST_CACHE_SIZE", 256),
		CacheTTL:      getEnvDuration("EXTENSIONS_MANIFEST_CACHE_TTL", 5*time.Minute),
		WatchManifest: getEnvBool("EXTENSIONS_MANIFEST_WATCH", false),
	}
}

// loadSearchConfig loads command palette configuration from environment
func loadSearchConfig() SearchConfig {
	return SearchConfig{
		Timeout: getEnvDuration("EXTENSIONS_SEARCH_TIMEOUT", 10*time.Second),
	}
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:           parseLogLevel(getEnv("EXTENSIONS_LOG_LEVEL", "info")),
		MetricsEnabled:     getEnvBool("EXTENSIONS_METRICS_ENABLED", true),
		OTelEnabled:        getEnvBool("EXTENSIONS_OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("EXTENSIONS_OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv("EXTENSIONS_OTEL_SERVICE_NAME", "extensions"),
		OTelServiceVersion: getEnv("EXTENSIONS_OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       getEnvBool("EXTENSIONS_OTEL_INSECURE", true),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Registry.DevMode && len(c.Plugins.Dirs) == 0 {
		return fmt.Errorf("plugins directory is required in dev mode")
	}
	if c.Plugins.CacheSize <= 0 {
		return fmt.Errorf("manifest cache size must be positive, got %d", c.Plugins.CacheSize)
	}
	if c.Plugins.CacheTTL < 0 {
		return fmt.Errorf("manifest cache TTL must not be negative")
	}
	if c.Search.Timeout < 0 {
		return fmt.Errorf("search timeout must not be negative")
	}

	// Validate OpenTelemetry config
	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// OTel converts the observability settings for observability.InitOTel
func (c *Config) OTel() observability.OTelConfig {
	return observability.OTelConfig{
		Enabled:        c.Observability.OTelEnabled,
		Endpoint:       c.Observability.OTelEndpoint,
		ServiceName:    c.Observability.OTelServiceName,
		ServiceVersion: c.Observability.OTelServiceVersion,
		Insecure:       c.Observability.OTelInsecure,
	}
}

// parseLogLevel parses a log level string
func parseLogLevel(level string) observability.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return observability.DebugLevel
	case "info":
		return observability.InfoLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvList returns a list from a path-list-separated environment variable
// (":" on unix) or a default
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(value, string(os.PathListSeparator)) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
