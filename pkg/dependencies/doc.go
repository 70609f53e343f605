// Package dependencies builds the plugin dependency graph induced by exposed
// component dependencies.
//
// # Overview
//
// A plugin depends on another when its manifest lists, under
// dependencies.extensions.exposedComponents, a component the other plugin
// exposes. The graph has one node per plugin and one edge per (consumer,
// owner) pair, recording which component ids the edge came from.
//
// # Key Features
//
// Graph Analysis: direct and transitive dependencies and dependents
// Circular Detection: find the dependency cycle a plugin is part of
// Load Order: providers sorted before the plugins consuming them
// Impact Analysis: which plugins are affected when one changes
//
// # Usage Example
//
//	graph := dependencies.BuildGraph(manifests)
//	if cycle := graph.CycleThrough("acme-app"); cycle != nil {
//		fmt.Println(strings.Join(cycle, " -> "))
//	}
//
//	ordered, err := dependencies.LoadOrder(manifests)
//
// # Related Packages
//
//   - pkg/plugins: Manifest types
//   - pkg/linter/rules: Reports cycles and unresolved dependencies
package dependencies
