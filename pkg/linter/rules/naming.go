package rules

import (
	"fmt"

	"github.com/platinummonkey/extensions/pkg/extensions"
	"github.com/platinummonkey/extensions/pkg/linter"
	"github.com/platinummonkey/extensions/pkg/plugins"
)

// idRef is one extension point or exposed component id and where it was
// declared in the manifest
type idRef struct {
	field string
	id    string
}

// extensionPointRefs lists every extension point id a manifest mentions:
// targets of its added links, components and functions, plus the points it
// declares itself
func extensionPointRefs(m *plugins.Manifest) []idRef {
	var refs []idRef

	decls := []struct {
		section string
		items   []plugins.ExtensionDecl
	}{
		{"addedLinks", m.Extensions.AddedLinks},
		{"addedComponents", m.Extensions.AddedComponents},
		{"addedFunctions", m.Extensions.AddedFunctions},
	}
	for _, d := range decls {
		for i, decl := range d.items {
			for j, target := range decl.Targets {
				refs = append(refs, idRef{
					field: fmt.Sprintf("extensions.%s[%d].targets[%d]", d.section, i, j),
					id:    target,
				})
			}
		}
	}

	for i, ep := range m.Extensions.ExtensionPoints {
		if ep.ID == "" {
			continue
		}
		refs = append(refs, idRef{field: fmt.Sprintf("extensions.extensionPoints[%d].id", i), id: ep.ID})
	}

	return refs
}

func exposedComponentRefs(m *plugins.Manifest) []idRef {
	var refs []idRef
	for i, c := range m.Extensions.ExposedComponents {
		if c.ID == "" {
			continue
		}
		refs = append(refs, idRef{field: fmt.Sprintf("extensions.exposedComponents[%d].id", i), id: c.ID})
	}
	return refs
}

// ExtensionPointNamingRule checks that extension point ids are well formed
// and owned by the declaring plugin or the host
type ExtensionPointNamingRule struct {
	BaseRule
}

// NewExtensionPointNamingRule creates a new extension point naming rule
func NewExtensionPointNamingRule() *ExtensionPointNamingRule {
	return &ExtensionPointNamingRule{
		BaseRule: BaseRule{
			RuleName:        "extension-point-naming",
			RuleCategory:    linter.CategoryNaming,
			RuleSeverity:    linter.SeverityError,
			RuleDescription: "Extension point ids must be prefixed with the host or the declaring plugin id",
		},
	}
}

// Check validates extension point ids. The host plugin is exempt.
func (r *ExtensionPointNamingRule) Check(manifest *plugins.Manifest, ctx *linter.LintContext) []linter.Violation {
	violations := make([]linter.Violation, 0)
	if extensions.IsReservedPluginID(manifest.ID) {
		return violations
	}

	for _, ref := range extensionPointRefs(manifest) {
		if err := extensions.ValidateExtensionPointID(manifest.ID, ref.id); err != nil {
			violations = append(violations, r.violation(ref.field, messageOf(err)))
		}
	}

	return violations
}

// ExtensionPointVersionRule checks that extension point ids end with a
// version segment
type ExtensionPointVersionRule struct {
	BaseRule
}

// NewExtensionPointVersionRule creates a new extension point version rule
func NewExtensionPointVersionRule() *ExtensionPointVersionRule {
	return &ExtensionPointVersionRule{
		BaseRule: BaseRule{
			RuleName:        "extension-point-version",
			RuleCategory:    linter.CategoryNaming,
			RuleSeverity:    linter.SeverityWarning,
			RuleDescription: "Extension point ids should end with a version segment such as /v1",
		},
	}
}

// Check reports well formed ids without a version suffix. Ids that fail
// extension-point-naming are left to that rule.
func (r *ExtensionPointVersionRule) Check(manifest *plugins.Manifest, ctx *linter.LintContext) []linter.Violation {
	violations := make([]linter.Violation, 0)
	if extensions.IsReservedPluginID(manifest.ID) {
		return violations
	}

	for _, ref := range extensionPointRefs(manifest) {
		if extensions.ValidateExtensionPointID(manifest.ID, ref.id) != nil {
			continue
		}
		if !extensions.HasVersionSuffix(ref.id) {
			violations = append(violations, r.violation(ref.field, versionMessage(ref.id)))
		}
	}

	return violations
}

// ExposedComponentNamingRule checks that exposed component ids are prefixed
// with the exposing plugin id
type ExposedComponentNamingRule struct {
	BaseRule
}

// NewExposedComponentNamingRule creates a new exposed component naming rule
func NewExposedComponentNamingRule() *ExposedComponentNamingRule {
	return &ExposedComponentNamingRule{
		BaseRule: BaseRule{
			RuleName:        "exposed-component-naming",
			RuleCategory:    linter.CategoryNaming,
			RuleSeverity:    linter.SeverityError,
			RuleDescription: "Exposed component ids must be prefixed with the exposing plugin id",
		},
	}
}

// Check validates exposed component ids
func (r *ExposedComponentNamingRule) Check(manifest *plugins.Manifest, ctx *linter.LintContext) []linter.Violation {
	violations := make([]linter.Violation, 0)

	for _, ref := range exposedComponentRefs(manifest) {
		if err := extensions.ValidateExposedComponentID(manifest.ID, ref.id); err != nil {
			violations = append(violations, r.violation(ref.field, messageOf(err)))
		}
	}

	return violations
}

// ExposedComponentVersionRule checks that exposed component ids end with a
// version segment
type ExposedComponentVersionRule struct {
	BaseRule
}

// NewExposedComponentVersionRule creates a new exposed component version rule
func NewExposedComponentVersionRule() *ExposedComponentVersionRule {
	return &ExposedComponentVersionRule{
		BaseRule: BaseRule{
			RuleName:        "exposed-component-version",
			RuleCategory:    linter.CategoryNaming,
			RuleSeverity:    linter.SeverityWarning,
			RuleDescription: "Exposed component ids should end with a version segment such as /v1",
		},
	}
}

// Check reports well formed exposed component ids without a version suffix
func (r *ExposedComponentVersionRule) Check(manifest *plugins.Manifest, ctx *linter.LintContext) []linter.Violation {
	violations := make([]linter.Violation, 0)

	for _, ref := range exposedComponentRefs(manifest) {
		if extensions.ValidateExposedComponentID(manifest.ID, ref.id) != nil {
			continue
		}
		if !extensions.HasVersionSuffix(ref.id) {
			violations = append(violations, r.violation(ref.field, versionMessage(ref.id)))
		}
	}

	return violations
}

func versionMessage(id string) string {
	return fmt.Sprintf("%q should end with a version segment such as /v1", id)
}
