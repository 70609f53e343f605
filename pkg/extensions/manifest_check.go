package extensions

import (
	"github.com/platinummonkey/extensions/pkg/plugins"
)

// checkDeclared enforces, in developer mode only, that a contribution matches
// a declaration in the plugin's manifest: same title, and every target listed.
// Production mode skips the check since older manifests may be incomplete.
func (r *Registries) checkDeclared(pluginID, section, title string, targets []string, decls func(*plugins.Manifest) []plugins.ExtensionDecl) error {
	if !r.devMode || IsReservedPluginID(pluginID) {
		return nil
	}

	m, ok := r.manifests.Manifest(pluginID)
	if !ok {
		return invalid("manifest", "no manifest found for plugin %q", pluginID)
	}

	decl, ok := plugins.FindByTitle(decls(m), title)
	if !ok {
		return invalid("manifest", "%s entry %q is not declared in the plugin manifest", section, title)
	}
	for _, target := range targets {
		if !decl.HasTarget(target) {
			return invalid("manifest", "target %q of %s entry %q is not declared in the plugin manifest", target, section, title)
		}
	}
	return nil
}

// checkExposedDeclared is checkDeclared for exposed components, matched by id
func (r *Registries) checkExposedDeclared(pluginID, id string) error {
	if !r.devMode || IsReservedPluginID(pluginID) {
		return nil
	}

	m, ok := r.manifests.Manifest(pluginID)
	if !ok {
		return invalid("manifest", "no manifest found for plugin %q", pluginID)
	}
	if _, ok := m.Extensions.FindExposedComponent(id); !ok {
		return invalid("manifest", "exposed component %q is not declared in the plugin manifest", id)
	}
	return nil
}
