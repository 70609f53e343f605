// Package linter checks plugin manifests against configurable rules.
//
// # Overview
//
// A LintEngine runs every enabled Rule against each manifest and collects
// Violations. Rules see the manifest being checked plus the whole set being
// linted, so cross-plugin checks such as dependency resolution work the same
// way as single-manifest checks.
//
// # Rule Categories
//
// Naming: extension point and exposed component id conventions
// Structure: required manifest fields and declaration completeness
// Dependencies: exposed components other plugins rely on
//
// # Configuration
//
// Rules are configured with an extensions-lint.yaml file:
//
//	version: v1
//	lint:
//	  rules:
//	    extension-point-version: false
//	  ignore:
//	    - legacy-app
//	  severities:
//	    exposed-component-dependency: error
//	  categories:
//	    naming: warning
//
// Unlisted rules are enabled. A rule severity override wins over its
// category override.
//
// # Usage Example
//
//	config, err := linter.LoadConfigFromDir(".")
//	if err != nil {
//		return err
//	}
//
//	engine := linter.NewLintEngine(config)
//	rules.RegisterDefaultRules(engine.Registry())
//
//	results := engine.LintManifests(manifests)
//	summary := engine.GenerateSummary(results)
//	fmt.Printf("Violations: %d errors, %d warnings\n",
//		summary.Errors, summary.Warnings)
//
// # Related Packages
//
//   - pkg/linter/rules: Built-in lint rules
//   - pkg/plugins: Manifest parsing and structural validation
//   - pkg/extensions: Id validation shared with the registries
package linter
