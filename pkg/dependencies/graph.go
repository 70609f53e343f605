package dependencies

import (
	"fmt"
	"sort"

	"github.com/platinummonkey/extensions/pkg/plugins"
)

// Dependency is an edge from a plugin to a plugin whose exposed component it
// consumes
type Dependency struct {
	PluginID string   `json:"pluginId"`
	Version  string   `json:"version"`
	Type     string   `json:"type"` // "direct" or "transitive"
	Via      []string `json:"via,omitempty"`
}

// DependencyGraph is the plugin graph induced by exposed component
// dependencies. Every loaded plugin is a node, even with no edges.
type DependencyGraph struct {
	nodes map[string]*Node
	edges map[string][]string // plugin id -> ids it depends on, sorted
}

// Node represents a plugin in the dependency graph
type Node struct {
	PluginID     string
	Version      string
	Dependencies []Dependency
	// Unresolved lists exposed component ids no plugin in the graph exposes
	Unresolved []string
}

// NewDependencyGraph creates a new dependency graph
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		nodes: make(map[string]*Node),
		edges: make(map[string][]string),
	}
}

// BuildGraph derives the graph from manifests. A plugin depending on its own
// exposed component adds no edge.
func BuildGraph(manifests []*plugins.Manifest) *DependencyGraph {
	g := NewDependencyGraph()

	owners := make(map[string]*plugins.Manifest)
	for _, m := range manifests {
		for _, c := range m.Extensions.ExposedComponents {
			if _, taken := owners[c.ID]; !taken {
				owners[c.ID] = m
			}
		}
	}

	for _, m := range manifests {
		byOwner := make(map[string]*Dependency)
		var order []string
		var unresolved []string

		for _, id := range m.Dependencies.Extensions.ExposedComponents {
			owner, ok := owners[id]
			if !ok {
				unresolved = append(unresolved, id)
				continue
			}
			if owner.ID == m.ID {
				continue
			}
			dep, seen := byOwner[owner.ID]
			if !seen {
				dep = &Dependency{PluginID: owner.ID, Version: owner.Version, Type: "direct"}
				byOwner[owner.ID] = dep
				order = append(order, owner.ID)
			}
			dep.Via = append(dep.Via, id)
		}

		deps := make([]Dependency, 0, len(order))
		for _, id := range order {
			deps = append(deps, *byOwner[id])
		}
		g.AddNode(m.ID, m.Version, deps)
		g.nodes[m.ID].Unresolved = unresolved
	}

	return g
}

// AddNode adds a node to the graph
func (g *DependencyGraph) AddNode(pluginID, version string, deps []Dependency) {
	g.nodes[pluginID] = &Node{
		PluginID:     pluginID,
		Version:      version,
		Dependencies: deps,
	}

	edges := make([]string, 0, len(deps))
	for _, dep := range deps {
		edges = append(edges, dep.PluginID)
	}
	sort.Strings(edges)
	g.edges[pluginID] = edges
}

// GetNode retrieves a node from the graph
func (g *DependencyGraph) GetNode(pluginID string) *Node {
	return g.nodes[pluginID]
}

// PluginIDs returns every node id in sorted order
func (g *DependencyGraph) PluginIDs() []string {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// GetDependencies returns the direct dependencies of a plugin
func (g *DependencyGraph) GetDependencies(pluginID string) []Dependency {
	node := g.GetNode(pluginID)
	if node == nil {
		return nil
	}
	return node.Dependencies
}

// GetTransitiveDependencies returns every plugin reachable from pluginID,
// each listed once
func (g *DependencyGraph) GetTransitiveDependencies(pluginID string) []Dependency {
	visited := map[string]bool{pluginID: true}
	result := make([]Dependency, 0)

	var traverse func(string)
	traverse = func(id string) {
		for _, dep := range g.GetDependencies(id) {
			if visited[dep.PluginID] {
				continue
			}
			visited[dep.PluginID] = true
			result = append(result, Dependency{
				PluginID: dep.PluginID,
				Version:  dep.Version,
				Type:     "transitive",
			})
			traverse(dep.PluginID)
		}
	}

	traverse(pluginID)
	return result
}

// GetDependents returns all plugins that depend directly on pluginID
func (g *DependencyGraph) GetDependents(pluginID string) []Dependency {
	dependents := make([]Dependency, 0)

	for _, id := range g.PluginIDs() {
		for _, edge := range g.edges[id] {
			if edge == pluginID {
				node := g.nodes[id]
				dependents = append(dependents, Dependency{
					PluginID: node.PluginID,
					Version:  node.Version,
					Type:     "direct",
				})
				break
			}
		}
	}

	return dependents
}

// DetectCircularDependencies returns the cycle reachable from pluginID, as
// the path of ids ending where it started, or nil when there is none
func (g *DependencyGraph) DetectCircularDependencies(pluginID string) ([]string, error) {
	path := make([]string, 0)
	visited := make(map[string]bool)
	recStack := make(map[string]bool)
	var cycle []string

	var hasCycle func(string) bool
	hasCycle = func(id string) bool {
		visited[id] = true
		recStack[id] = true
		path = append(path, id)

		for _, dep := range g.edges[id] {
			if !visited[dep] {
				if hasCycle(dep) {
					return true
				}
			} else if recStack[dep] {
				for i, p := range path {
					if p == dep {
						cycle = append(append([]string{}, path[i:]...), dep)
						break
					}
				}
				return true
			}
		}

		recStack[id] = false
		path = path[:len(path)-1]
		return false
	}

	if hasCycle(pluginID) {
		return cycle, fmt.Errorf("circular dependency detected: %v", cycle)
	}

	return nil, nil
}

// CycleThrough returns a shortest dependency path leading from pluginID back
// to itself, or nil when pluginID is not on a cycle
func (g *DependencyGraph) CycleThrough(pluginID string) []string {
	parent := make(map[string]string)
	queue := []string{pluginID}
	visited := map[string]bool{}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		for _, dep := range g.edges[id] {
			if dep == pluginID {
				path := []string{pluginID}
				for cur := id; cur != pluginID; cur = parent[cur] {
					path = append(path, cur)
				}
				path = append(path, pluginID)
				// path was collected backwards from the closing edge
				for i, j := 1, len(path)-2; i < j; i, j = i+1, j-1 {
					path[i], path[j] = path[j], path[i]
				}
				return path
			}
			if !visited[dep] {
				visited[dep] = true
				parent[dep] = id
				queue = append(queue, dep)
			}
		}
	}

	return nil
}

// TopologicalSort returns every plugin with dependencies before dependents.
// Ties are broken by plugin id so the order is stable.
func (g *DependencyGraph) TopologicalSort() ([]Dependency, error) {
	visited := make(map[string]bool)
	recStack := make(map[string]bool)
	result := make([]Dependency, 0, len(g.nodes))

	var visit func(string) error
	visit = func(id string) error {
		if recStack[id] {
			return fmt.Errorf("circular dependency detected at %s", id)
		}
		if visited[id] {
			return nil
		}

		visited[id] = true
		recStack[id] = true

		// Visit dependencies first
		for _, dep := range g.edges[id] {
			if err := visit(dep); err != nil {
				return err
			}
		}

		recStack[id] = false

		if node, ok := g.nodes[id]; ok {
			result = append(result, Dependency{
				PluginID: node.PluginID,
				Version:  node.Version,
				Type:     "direct",
			})
		}

		return nil
	}

	for _, id := range g.PluginIDs() {
		if err := visit(id); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// GetImpactAnalysis returns what would be affected by changes to a plugin
func (g *DependencyGraph) GetImpactAnalysis(pluginID string) *ImpactAnalysis {
	directDependents := g.GetDependents(pluginID)

	visited := map[string]bool{pluginID: true}
	for _, dep := range directDependents {
		visited[dep.PluginID] = true
	}
	transitive := make([]Dependency, 0)

	var traverse func(string)
	traverse = func(id string) {
		for _, dep := range g.GetDependents(id) {
			if visited[dep.PluginID] {
				continue
			}
			visited[dep.PluginID] = true
			transitive = append(transitive, Dependency{
				PluginID: dep.PluginID,
				Version:  dep.Version,
				Type:     "transitive",
			})
			traverse(dep.PluginID)
		}
	}

	for _, dep := range directDependents {
		traverse(dep.PluginID)
	}

	version := ""
	if node := g.GetNode(pluginID); node != nil {
		version = node.Version
	}

	return &ImpactAnalysis{
		PluginID:             pluginID,
		Version:              version,
		DirectDependents:     directDependents,
		TransitiveDependents: transitive,
		TotalImpact:          len(directDependents) + len(transitive),
	}
}

// ImpactAnalysis represents the impact of changes
type ImpactAnalysis struct {
	PluginID             string       `json:"pluginId"`
	Version              string       `json:"version"`
	DirectDependents     []Dependency `json:"directDependents"`
	TransitiveDependents []Dependency `json:"transitiveDependents"`
	TotalImpact          int          `json:"totalImpact"`
}

// LoadOrder returns manifests reordered so every plugin comes after the
// plugins whose components it consumes. When the graph has a cycle the
// manifests are returned in their original order along with the error.
func LoadOrder(manifests []*plugins.Manifest) ([]*plugins.Manifest, error) {
	sorted, err := BuildGraph(manifests).TopologicalSort()
	if err != nil {
		return manifests, err
	}

	byID := make(map[string]*plugins.Manifest, len(manifests))
	for _, m := range manifests {
		if _, dup := byID[m.ID]; !dup {
			byID[m.ID] = m
		}
	}

	out := make([]*plugins.Manifest, 0, len(manifests))
	for _, dep := range sorted {
		if m, ok := byID[dep.PluginID]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}
