package config

import (
	"os"
	"testing"
	"time"

	"github.com/platinummonkey/extensions/pkg/observability"
)

// TestGetEnv tests the getEnv helper function
func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		want         string
	}{
		{
			name:         "returns env value when set",
			key:          "TEST_VAR",
			defaultValue: "default",
			envValue:     "custom",
			want:         "custom",
		},
		{
			name:         "returns default when env not set",
			key:          "TEST_VAR_NOT_SET",
			defaultValue: "default",
			envValue:     "",
			want:         "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			}

			got := getEnv(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnv() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestGetEnvBool tests the getEnvBool helper function
func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue bool
		envValue     string
		want         bool
	}{
		{
			name:         "returns true for 'true'",
			key:          "TEST_BOOL",
			defaultValue: false,
			envValue:     "true",
			want:         true,
		},
		{
			name:         "returns true for '1'",
			key:          "TEST_BOOL",
			defaultValue: false,
			envValue:     "1",
			want:         true,
		},
		{
			name:         "returns false for 'false'",
			key:          "TEST_BOOL",
			defaultValue: true,
			envValue:     "false",
			want:         false,
		},
		{
			name:         "returns default when not set",
			key:          "TEST_BOOL_NOT_SET",
			defaultValue: true,
			envValue:     "",
			want:         true,
		},
		{
			name:         "returns true for 'TRUE' (case insensitive)",
			key:          "TEST_BOOL",
			defaultValue: false,
			envValue:     "TRUE",
			want:         true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			} else {
				os.Unsetenv(tt.key)
			}

			got := getEnvBool(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvBool() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestGetEnvInt tests the getEnvInt helper function
func TestGetEnvInt(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue int
		envValue     string
		want         int
	}{
		{
			name:         "returns parsed int",
			key:          "TEST_INT",
			defaultValue: 10,
			envValue:     "42",
			want:         42,
		},
		{
			name:         "returns default for invalid int",
			key:          "TEST_INT",
			defaultValue: 10,
			envValue:     "invalid",
			want:         10,
		},
		{
			name:         "returns default when not set",
			key:          "TEST_INT_NOT_SET",
			defaultValue: 10,
			envValue:     "",
			want:         10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			} else {
				os.Unsetenv(tt.key)
			}

			got := getEnvInt(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvInt() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestGetEnvDuration tests the getEnvDuration helper function
func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue time.Duration
		envValue     string
		want         time.Duration
	}{
		{
			name:         "returns parsed duration",
			key:          "TEST_DURATION",
			defaultValue: 10 * time.Second,
			envValue:     "30s",
			want:         30 * time.Second,
		},
		{
			name:         "returns default for invalid duration",
			key:          "TEST_DURATION",
			defaultValue: 10 * time.Second,
			envValue:     "invalid",
			want:         10 * time.Second,
		},
		{
			name:         "returns default when not set",
			key:          "TEST_DURATION_NOT_SET",
			defaultValue: 10 * time.Second,
			envValue:     "",
			want:         10 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			} else {
				os.Unsetenv(tt.key)
			}

			got := getEnvDuration(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestParseLogLevel tests the parseLogLevel function
func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		name  string
		level string
		want  observability.LogLevel
	}{
		{
			name:  "debug",
			level: "debug",
			want:  observability.DebugLevel,
		},
		{
			name:  "DEBUG uppercase",
			level: "DEBUG",
			want:  observability.DebugLevel,
		},
		{
			name:  "info",
			level: "info",
			want:  observability.InfoLevel,
		},
		{
			name:  "warn",
			level: "warn",
			want:  observability.WarnLevel,
		},
		{
			name:  "warning",
			level: "warning",
			want:  observability.WarnLevel,
		},
		{
			name:  "error",
			level: "error",
			want:  observability.ErrorLevel,
		},
		{
			name:  "invalid defaults to info",
			level: "invalid",
			want:  observability.InfoLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseLogLevel(tt.level)
			if got != tt.want {
				t.Errorf("parseLogLevel() = %v, want %v", got, tt.want)
			}
		})
	}
}


// TestGetEnvList tests the getEnvList helper function
func TestGetEnvList(t *testing.T) {
	sep := string(os.PathListSeparator)

	tests := []struct {
		name     string
		envValue string
		want     []string
	}{
		{
			name:     "single entry",
			envValue: "/plugins",
			want:     []string{"/plugins"},
		},
		{
			name:     "multiple entries with blanks dropped",
			envValue: "/a" + sep + " " + sep + "/b ",
			want:     []string{"/a", "/b"},
		},
		{
			name:     "only separators falls back to default",
			envValue: sep + sep,
			want:     []string{"/default"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_LIST", tt.envValue)

			got := getEnvList("TEST_LIST", []string{"/default"})
			if len(got) != len(tt.want) {
				t.Fatalf("getEnvList() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("getEnvList()[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

// clearEnv unsets every variable the package reads for the duration of the test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"EXTENSIONS_DEV_MODE",
		"EXTENSIONS_PLUGINS_DIR",
		"EXTENSIONS_MANIFEST_CACHE_SIZE",
		"EXTENSIONS_MANIFEST_CACHE_TTL",
		"EXTENSIONS_MANIFEST_WATCH",
		"EXTENSIONS_SEARCH_TIMEOUT",
		"EXTENSIONS_LOG_LEVEL",
		"EXTENSIONS_METRICS_ENABLED",
		"EXTENSIONS_OTEL_ENABLED",
		"EXTENSIONS_OTEL_ENDPOINT",
		"EXTENSIONS_OTEL_SERVICE_NAME",
		"EXTENSIONS_OTEL_SERVICE_VERSION",
		"EXTENSIONS_OTEL_INSECURE",
	} {
		t.Setenv(k, "")
	}
}

// TestLoadPluginsConfig tests the loadPluginsConfig function
func TestLoadPluginsConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		clearEnv(t)

		got := loadPluginsConfig()
		if len(got.Dirs) != 0 {
			t.Errorf("Dirs = %v, want empty", got.Dirs)
		}
		if got.CacheSize != 256 {
			t.Errorf("CacheSize = %v, want 256", got.CacheSize)
		}
		if got.CacheTTL != 5*time.Minute {
			t.Errorf("CacheTTL = %v, want 5m", got.CacheTTL)
		}
		if got.WatchManifest {
			t.Errorf("WatchManifest = true, want false")
		}
	})

	t.Run("custom values", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("EXTENSIONS_PLUGINS_DIR", "/var/lib/plugins")
		t.Setenv("EXTENSIONS_MANIFEST_CACHE_SIZE", "16")
		t.Setenv("EXTENSIONS_MANIFEST_CACHE_TTL", "30s")
		t.Setenv("EXTENSIONS_MANIFEST_WATCH", "1")

		got := loadPluginsConfig()
		if len(got.Dirs) != 1 || got.Dirs[0] != "/var/lib/plugins" {
			t.Errorf("Dirs = %v, want [/var/lib/plugins]", got.Dirs)
		}
		if got.CacheSize != 16 {
			t.Errorf("CacheSize = %v, want 16", got.CacheSize)
		}
		if got.CacheTTL != 30*time.Second {
			t.Errorf("CacheTTL = %v, want 30s", got.CacheTTL)
		}
		if !got.WatchManifest {
			t.Errorf("WatchManifest = false, want true")
		}
	})
}

// TestLoadObservabilityConfig tests the loadObservabilityConfig function
func TestLoadObservabilityConfig(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want ObservabilityConfig
	}{
		{
			name: "defaults",
			env:  map[string]string{},
			want: ObservabilityConfig{
				LogLevel:           observability.InfoLevel,
				MetricsEnabled:     true,
				OTelEnabled:        false,
				OTelEndpoint:       "localhost:4317",
				OTelServiceName:    "extensions",
				OTelServiceVersion: "1.0.0",
				OTelInsecure:       true,
			},
		},
		{
			name: "custom values",
			env: map[string]string{
				"EXTENSIONS_LOG_LEVEL":            "debug",
				"EXTENSIONS_METRICS_ENABLED":      "false",
				"EXTENSIONS_OTEL_ENABLED":         "true",
				"EXTENSIONS_OTEL_ENDPOINT":        "otel-collector:4317",
				"EXTENSIONS_OTEL_SERVICE_NAME":    "my-service",
				"EXTENSIONS_OTEL_SERVICE_VERSION": "2.0.0",
				"EXTENSIONS_OTEL_INSECURE":        "false",
			},
			want: ObservabilityConfig{
				LogLevel:           observability.DebugLevel,
				MetricsEnabled:     false,
				OTelEnabled:        true,
				OTelEndpoint:       "otel-collector:4317",
				OTelServiceName:    "my-service",
				OTelServiceVersion: "2.0.0",
				OTelInsecure:       false,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			got := loadObservabilityConfig()
			if got != tt.want {
				t.Errorf("loadObservabilityConfig() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

// validConfig returns a configuration that passes Validate
func validConfig() Config {
	return Config{
		Plugins: PluginsConfig{
			Dirs:      []string{"/plugins"},
			CacheSize: 256,
			CacheTTL:  5 * time.Minute,
		},
		Search: SearchConfig{Timeout: 10 * time.Second},
		Observability: ObservabilityConfig{
			OTelEndpoint:    "localhost:4317",
			OTelServiceName: "extensions",
		},
	}
}

// TestConfigValidate tests the Config.Validate method
func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:   "valid",
			mutate: func(*Config) {},
		},
		{
			name: "dev mode without plugin dirs",
			mutate: func(c *Config) {
				c.Registry.DevMode = true
				c.Plugins.Dirs = nil
			},
			wantErr: true,
		},
		{
			name: "dev mode with plugin dirs",
			mutate: func(c *Config) {
				c.Registry.DevMode = true
			},
		},
		{
			name:    "zero cache size",
			mutate:  func(c *Config) { c.Plugins.CacheSize = 0 },
			wantErr: true,
		},
		{
			name:    "negative cache ttl",
			mutate:  func(c *Config) { c.Plugins.CacheTTL = -time.Second },
			wantErr: true,
		},
		{
			name:    "negative search timeout",
			mutate:  func(c *Config) { c.Search.Timeout = -time.Second },
			wantErr: true,
		},
		{
			name: "otel enabled without endpoint",
			mutate: func(c *Config) {
				c.Observability.OTelEnabled = true
				c.Observability.OTelEndpoint = ""
			},
			wantErr: true,
		},
		{
			name: "otel enabled without service name",
			mutate: func(c *Config) {
				c.Observability.OTelEnabled = true
				c.Observability.OTelServiceName = ""
			},
			wantErr: true,
		},
		{
			name: "otel disabled ignores missing endpoint",
			mutate: func(c *Config) {
				c.Observability.OTelEndpoint = ""
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestLoadConfig tests the LoadConfig function end to end
func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		clearEnv(t)

		cfg, err := LoadConfig()
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if cfg.Registry.DevMode {
			t.Errorf("Registry.DevMode = true, want false")
		}
		if cfg.Search.Timeout != 10*time.Second {
			t.Errorf("Search.Timeout = %v, want 10s", cfg.Search.Timeout)
		}
	})

	t.Run("invalid cache size", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("EXTENSIONS_MANIFEST_CACHE_SIZE", "-1")

		if _, err := LoadConfig(); err == nil {
			t.Error("LoadConfig() expected error for negative cache size")
		}
	})

	t.Run("dev mode requires plugins dir", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("EXTENSIONS_DEV_MODE", "true")

		if _, err := LoadConfig(); err == nil {
			t.Error("LoadConfig() expected error for dev mode without plugins dir")
		}
	})
}

// TestOTel tests the OTel conversion
func TestOTel(t *testing.T) {
	cfg := validConfig()
	cfg.Observability.OTelEnabled = true
	cfg.Observability.OTelServiceVersion = "2.0.0"
	cfg.Observability.OTelInsecure = true

	got := cfg.OTel()
	want := observability.OTelConfig{
		Enabled:        true,
		Endpoint:       "localhost:4317",
		ServiceName:    "extensions",
		ServiceVersion: "2.0.0",
		Insecure:       true,
	}
	if got != want {
		t.Errorf("OTel() = %+v, want %+v", got, want)
	}
}
