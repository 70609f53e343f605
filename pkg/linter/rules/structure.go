package rules

import (
	"github.com/platinummonkey/extensions/pkg/linter"
	"github.com/platinummonkey/extensions/pkg/plugins"
)

// ManifestStructureRule reports the structural problems found by
// plugins.ValidateManifest
type ManifestStructureRule struct {
	BaseRule
}

// NewManifestStructureRule creates a new manifest structure rule
func NewManifestStructureRule() *ManifestStructureRule {
	return &ManifestStructureRule{
		BaseRule: BaseRule{
			RuleName:        "manifest-structure",
			RuleCategory:    linter.CategoryStructure,
			RuleSeverity:    linter.SeverityError,
			RuleDescription: "Manifests must have a valid id, a semver version and complete extension declarations",
		},
	}
}

// Check validates the manifest. Problems plugins.ValidateManifest only warns
// about are reported as warnings unless the config overrides the severity.
func (r *ManifestStructureRule) Check(manifest *plugins.Manifest, ctx *linter.LintContext) []linter.Violation {
	violations := make([]linter.Violation, 0)

	for _, verr := range plugins.ValidateManifest(manifest) {
		v := r.violation(verr.Field, verr.Message)
		if verr.Severity == plugins.SeverityWarning {
			v.Severity = linter.SeverityWarning
		}
		violations = append(violations, v)
	}

	return violations
}
