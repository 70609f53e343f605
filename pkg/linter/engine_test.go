package linter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/extensions/pkg/plugins"
)

func TestLintEngine_AppliesSeverity(t *testing.T) {
	config := DefaultConfig()
	engine := NewLintEngine(config)

	engine.Registry().Register(&mockRule{
		name:     "defaulted",
		category: CategoryStructure,
		severity: SeverityError,
		violations: []Violation{
			{Rule: "defaulted", Field: "id", Message: "no severity set"},
			{Rule: "defaulted", Field: "version", Message: "own severity", Severity: SeverityWarning},
		},
	})

	result := engine.Lint(&plugins.Manifest{ID: "acme-app"}, nil)

	require.Len(t, result.Violations, 2)
	assert.Equal(t, "acme-app", result.PluginID)
	assert.Equal(t, SeverityError, result.Violations[0].Severity)
	assert.Equal(t, SeverityWarning, result.Violations[1].Severity)
	assert.True(t, result.HasErrors())

	config.Lint.Severities["defaulted"] = SeverityInfo
	result = engine.Lint(&plugins.Manifest{ID: "acme-app"}, nil)
	for _, v := range result.Violations {
		assert.Equal(t, SeverityInfo, v.Severity)
	}
	assert.False(t, result.HasErrors())
}

func TestLintEngine_IgnoredPlugin(t *testing.T) {
	config := DefaultConfig()
	config.Lint.Ignore = []string{"legacy-app"}
	engine := NewLintEngine(config)
	engine.Registry().Register(&mockRule{
		name:       "always",
		severity:   SeverityError,
		violations: []Violation{{Rule: "always", Message: "boom"}},
	})

	assert.Empty(t, engine.Lint(&plugins.Manifest{ID: "legacy-app"}, nil).Violations)
	assert.Len(t, engine.Lint(&plugins.Manifest{ID: "acme-app"}, nil).Violations, 1)
}

func TestLintEngine_LintManifestsAndSummary(t *testing.T) {
	engine := NewLintEngine(nil)
	engine.Registry().Register(&mockRule{
		name:     "mixed",
		severity: SeverityWarning,
		violations: []Violation{
			{Rule: "mixed", Message: "a", Severity: SeverityError},
			{Rule: "mixed", Message: "b"},
			{Rule: "mixed", Message: "c", Severity: SeverityInfo},
		},
	})

	results := engine.LintManifests([]*plugins.Manifest{{ID: "zeta-app"}, {ID: "acme-app"}})
	require.Len(t, results, 2)
	assert.Equal(t, "acme-app", results[0].PluginID)
	assert.Equal(t, "zeta-app", results[1].PluginID)

	assert.Equal(t, Summary{
		TotalPlugins:    2,
		TotalViolations: 6,
		Errors:          2,
		Warnings:        2,
		Infos:           2,
	}, engine.GenerateSummary(results))
}

func TestViolationString(t *testing.T) {
	v := Violation{Rule: "manifest-structure", Severity: SeverityError, Field: "id", Message: "ID is required"}
	assert.Equal(t, "error id: ID is required (manifest-structure)", v.String())
}
