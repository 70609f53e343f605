package rules

import "github.com/platinummonkey/extensions/pkg/linter"

// Registry interface for registering rules
type Registry interface {
	Register(rule linter.Rule)
}

// DefaultRules returns every built-in rule
func DefaultRules() []linter.Rule {
	return []linter.Rule{
		NewManifestStructureRule(),
		NewExtensionPointNamingRule(),
		NewExtensionPointVersionRule(),
		NewExposedComponentNamingRule(),
		NewExposedComponentVersionRule(),
		NewExposedComponentDependencyRule(),
		NewDependencyCycleRule(),
	}
}

// RegisterDefaultRules registers all built-in lint rules
func RegisterDefaultRules(registry Registry) {
	for _, rule := range DefaultRules() {
		registry.Register(rule)
	}
}
