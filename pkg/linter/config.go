package linter

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the linting configuration
type Config struct {
	Version string    `yaml:"version"`
	Lint    LintRules `yaml:"lint"`
}

// LintRules contains rule configuration
type LintRules struct {
	// Rules enables or disables individual rules by name. Rules not listed
	// are enabled.
	Rules map[string]bool `yaml:"rules"`
	// Ignore lists plugin ids that are never linted
	Ignore []string `yaml:"ignore"`
	// Severities overrides the severity reported by a rule
	Severities map[string]Severity `yaml:"severities"`
	// Categories overrides the severity of every rule in a category. A rule
	// override wins over its category.
	Categories map[Category]Severity `yaml:"categories"`
}

// DefaultConfig returns default linting configuration
func DefaultConfig() *Config {
	return &Config{
		Version: "v1",
		Lint: LintRules{
			Rules:      make(map[string]bool),
			Ignore:     []string{},
			Severities: make(map[string]Severity),
			Categories: make(map[Category]Severity),
		},
	}
}

// RuleEnabled reports whether the rule named name should run
func (c *Config) RuleEnabled(name string) bool {
	enabled, ok := c.Lint.Rules[name]
	return !ok || enabled
}

// Ignored reports whether pluginID is excluded from linting
func (c *Config) Ignored(pluginID string) bool {
	for _, id := range c.Lint.Ignore {
		if id == pluginID {
			return true
		}
	}
	return false
}

// SeverityOverride returns the configured severity for rule, if any
func (c *Config) SeverityOverride(rule Rule) (Severity, bool) {
	if s, ok := c.Lint.Severities[rule.Name()]; ok {
		return s, true
	}
	if s, ok := c.Lint.Categories[rule.Category()]; ok {
		return s, true
	}
	return "", false
}

// Validate checks that every override names a known severity
func (c *Config) Validate() error {
	for name, s := range c.Lint.Severities {
		if !s.Valid() {
			return fmt.Errorf("rule %s: unknown severity %q", name, s)
		}
	}
	for category, s := range c.Lint.Categories {
		if !s.Valid() {
			return fmt.Errorf("category %s: unknown severity %q", category, s)
		}
	}
	return nil
}

// LoadConfig loads configuration from a file. Sections missing from the file
// keep their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid lint config %s: %w", path, err)
	}

	return config, nil
}

// LoadConfigFromDir searches for config file in directory
func LoadConfigFromDir(dir string) (*Config, error) {
	configNames := []string{"extensions-lint.yaml", "extensions-lint.yml", ".extensions-lint.yaml", ".extensions-lint.yml"}

	for _, name := range configNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadConfig(path)
		}
	}

	// Return default if no config found
	return DefaultConfig(), nil
}

// SaveConfig saves configuration to a file
func SaveConfig(config *Config, path string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
