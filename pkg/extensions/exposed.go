package extensions

import (
	"github.com/platinummonkey/extensions/pkg/observability"
	"github.com/platinummonkey/extensions/pkg/registry"
)

func (r *Registries) mapExposedComponents(current registry.Snapshot[ExposedComponentItem], batch registry.Contribution[ExposedComponentConfig]) registry.Snapshot[ExposedComponentItem] {
	b := current.Edit()

	for _, cfg := range batch.Configs {
		log := r.configLogger(RegistryExposedComponents, batch.PluginID, cfg.Title).
			Child(observability.Fields{"id": cfg.ID})

		if err := r.validateExposedComponent(batch.PluginID, cfg, log); err != nil {
			r.reject(log, RegistryExposedComponents, err)
			continue
		}

		// First writer wins, within a batch as well as across batches
		if existing, ok := b.Get(cfg.ID); ok {
			r.reject(log, RegistryExposedComponents,
				invalid("id", "an exposed component with id %q is already registered by %q", cfg.ID, existing.PluginID))
			continue
		}

		b.Set(cfg.ID, ExposedComponentItem{
			PluginID:    batch.PluginID,
			ID:          cfg.ID,
			Title:       cfg.Title,
			Description: cfg.Description,
			Component:   wrapComponent(batch.PluginID, r.pluginVersion(batch.PluginID), cfg.Component),
		})
		r.accept(log, RegistryExposedComponents, []string{cfg.ID})
	}

	return b.Snapshot()
}

func (r *Registries) validateExposedComponent(pluginID string, cfg ExposedComponentConfig, log observability.Logger) error {
	if err := ValidateTitle(cfg.Title); err != nil {
		return err
	}
	if err := ValidateDescription(cfg.Description); err != nil {
		return err
	}
	if cfg.Component == nil {
		return invalid("component", "component must be a renderable component")
	}
	if err := ValidateExposedComponentID(pluginID, cfg.ID); err != nil {
		return err
	}
	if !HasVersionSuffix(cfg.ID) {
		log.Warning("Exposed component id should end with a version, e.g. \"/v1\"")
	}
	return r.checkExposedDeclared(pluginID, cfg.ID)
}

// CheckExposedComponentUsage reports whether consumerPluginID may render the
// exposed component id. In developer mode a consumer whose manifest does not
// list id under dependencies.extensions.exposedComponents gets a warning and
// false. The check never blocks rendering.
func (r *Registries) CheckExposedComponentUsage(consumerPluginID, id string) bool {
	if !r.devMode || consumerPluginID == "" || IsReservedPluginID(consumerPluginID) {
		return true
	}

	log := r.logger.Child(observability.Fields{
		observability.FieldPluginID: consumerPluginID,
		"exposedComponentId":        id,
	})

	m, ok := r.manifests.Manifest(consumerPluginID)
	if !ok {
		log.Warning("Plugin manifest not found, cannot verify exposed component dependency")
		return false
	}
	if !m.DependsOnExposedComponent(id) {
		log.Warning("Exposed component is used without being declared under dependencies.extensions.exposedComponents")
		return false
	}
	return true
}
