package rules

import (
	"fmt"
	"strings"

	"github.com/platinummonkey/extensions/pkg/dependencies"
	"github.com/platinummonkey/extensions/pkg/linter"
	"github.com/platinummonkey/extensions/pkg/plugins"
)

// ExposedComponentDependencyRule checks that every exposed component a
// plugin depends on is exposed by some plugin in the linted set
type ExposedComponentDependencyRule struct {
	BaseRule
}

// NewExposedComponentDependencyRule creates a new dependency rule
func NewExposedComponentDependencyRule() *ExposedComponentDependencyRule {
	return &ExposedComponentDependencyRule{
		BaseRule: BaseRule{
			RuleName:        "exposed-component-dependency",
			RuleCategory:    linter.CategoryDependencies,
			RuleSeverity:    linter.SeverityWarning,
			RuleDescription: "Declared exposed component dependencies should be exposed by a loaded plugin",
		},
	}
}

// Check reports dependencies nothing in ctx.Manifests exposes
func (r *ExposedComponentDependencyRule) Check(manifest *plugins.Manifest, ctx *linter.LintContext) []linter.Violation {
	violations := make([]linter.Violation, 0)

	deps := manifest.Dependencies.Extensions.ExposedComponents
	if len(deps) == 0 {
		return violations
	}

	exposed := make(map[string]bool)
	for _, m := range ctx.Manifests {
		for _, c := range m.Extensions.ExposedComponents {
			exposed[c.ID] = true
		}
	}

	for i, id := range deps {
		if !exposed[id] {
			violations = append(violations, r.violation(
				fmt.Sprintf("dependencies.extensions.exposedComponents[%d]", i),
				fmt.Sprintf("no loaded plugin exposes component %q", id),
			))
		}
	}

	return violations
}

// DependencyCycleRule reports plugins whose exposed component dependencies
// lead back to themselves, which leaves no valid load order
type DependencyCycleRule struct {
	BaseRule
}

// NewDependencyCycleRule creates a new dependency cycle rule
func NewDependencyCycleRule() *DependencyCycleRule {
	return &DependencyCycleRule{
		BaseRule: BaseRule{
			RuleName:        "dependency-cycle",
			RuleCategory:    linter.CategoryDependencies,
			RuleSeverity:    linter.SeverityWarning,
			RuleDescription: "Plugins should not depend on each other's exposed components in a cycle",
		},
	}
}

// Check reports the cycle through the manifest's plugin, if any
func (r *DependencyCycleRule) Check(manifest *plugins.Manifest, ctx *linter.LintContext) []linter.Violation {
	violations := make([]linter.Violation, 0)
	if len(manifest.Dependencies.Extensions.ExposedComponents) == 0 {
		return violations
	}

	cycle := dependencies.BuildGraph(ctx.Manifests).CycleThrough(manifest.ID)
	if cycle != nil {
		violations = append(violations, r.violation(
			"dependencies.extensions.exposedComponents",
			"circular plugin dependency: "+strings.Join(cycle, " -> "),
		))
	}

	return violations
}
