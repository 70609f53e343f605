package linter

import (
	"fmt"
	"sort"

	"github.com/platinummonkey/extensions/pkg/plugins"
)

// LintEngine orchestrates the linting process
type LintEngine struct {
	config   *Config
	registry *RuleRegistry
}

// NewLintEngine creates a new lint engine
func NewLintEngine(config *Config) *LintEngine {
	if config == nil {
		config = DefaultConfig()
	}

	return &LintEngine{
		config:   config,
		registry: NewRuleRegistry(),
	}
}

// Registry returns the engine's rule registry
func (e *LintEngine) Registry() *RuleRegistry {
	return e.registry
}

// Lint runs all enabled rules against one manifest. all is the full set of
// manifests being linted and is what cross-plugin rules check against.
func (e *LintEngine) Lint(manifest *plugins.Manifest, all []*plugins.Manifest) LintResult {
	result := LintResult{
		PluginID:   manifest.ID,
		Violations: make([]Violation, 0),
	}

	if e.config.Ignored(manifest.ID) {
		return result
	}

	ctx := &LintContext{
		Manifest:  manifest,
		Manifests: all,
		Config:    e.config,
	}

	for _, rule := range e.registry.GetEnabledRules(e.config) {
		override, overridden := e.config.SeverityOverride(rule)
		for _, v := range rule.Check(manifest, ctx) {
			switch {
			case overridden:
				v.Severity = override
			case v.Severity == "":
				v.Severity = rule.Severity()
			}
			result.Violations = append(result.Violations, v)
		}
	}

	return result
}

// LintManifests lints every manifest against the whole set. Results are
// sorted by plugin id.
func (e *LintEngine) LintManifests(manifests []*plugins.Manifest) []LintResult {
	results := make([]LintResult, 0, len(manifests))
	for _, m := range manifests {
		results = append(results, e.Lint(m, manifests))
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].PluginID < results[j].PluginID
	})
	return results
}

// GenerateSummary creates a summary of lint results
func (e *LintEngine) GenerateSummary(results []LintResult) Summary {
	summary := Summary{
		TotalPlugins: len(results),
	}

	for _, result := range results {
		summary.TotalViolations += len(result.Violations)
		for _, v := range result.Violations {
			switch v.Severity {
			case SeverityError:
				summary.Errors++
			case SeverityWarning:
				summary.Warnings++
			case SeverityInfo:
				summary.Infos++
			}
		}
	}

	return summary
}

// LintResult contains the result of linting a single manifest
type LintResult struct {
	PluginID   string      `json:"pluginId"`
	Violations []Violation `json:"violations"`
}

// HasErrors reports whether any violation is an error
func (r LintResult) HasErrors() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Violation represents a linting violation
type Violation struct {
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	Category Category `json:"category"`
	Field    string   `json:"field"`
	Message  string   `json:"message"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s %s: %s (%s)", v.Severity, v.Field, v.Message, v.Rule)
}

// Severity indicates how serious a violation is
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Valid reports whether s is a known severity
func (s Severity) Valid() bool {
	switch s {
	case SeverityError, SeverityWarning, SeverityInfo:
		return true
	}
	return false
}

// Category groups related rules
type Category string

const (
	CategoryNaming       Category = "naming"
	CategoryStructure    Category = "structure"
	CategoryDependencies Category = "dependencies"
)

// Summary provides an overview of all lint results
type Summary struct {
	TotalPlugins    int `json:"totalPlugins"`
	TotalViolations int `json:"totalViolations"`
	Errors          int `json:"errors"`
	Warnings        int `json:"warnings"`
	Infos           int `json:"infos"`
}

// LintContext provides context during rule checking
type LintContext struct {
	Manifest  *plugins.Manifest
	Manifests []*plugins.Manifest
	Config    *Config
}
