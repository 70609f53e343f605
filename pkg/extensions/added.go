package extensions

import (
	"github.com/platinummonkey/extensions/pkg/observability"
	"github.com/platinummonkey/extensions/pkg/plugins"
	"github.com/platinummonkey/extensions/pkg/registry"
)

func (r *Registries) mapLinks(current registry.Snapshot[[]LinkItem], batch registry.Contribution[LinkConfig]) registry.Snapshot[[]LinkItem] {
	b := current.Edit()

	for _, cfg := range batch.Configs {
		log := r.configLogger(RegistryAddedLinks, batch.PluginID, cfg.Title)

		targets, err := r.validateLink(batch.PluginID, cfg, log)
		if err != nil {
			r.reject(log, RegistryAddedLinks, err)
			continue
		}

		for _, target := range targets {
			appendItem(b, target, LinkItem{
				ItemMeta: ItemMeta{
					PluginID:         batch.PluginID,
					ExtensionPointID: target,
					Title:            cfg.Title,
					Description:      cfg.Description,
				},
				Path:      cfg.Path,
				OnClick:   cfg.OnClick,
				Icon:      cfg.Icon,
				Category:  cfg.Category,
				Configure: cfg.Configure,
			})
		}
		r.accept(log, RegistryAddedLinks, targets)
	}

	return b.Snapshot()
}

func (r *Registries) validateLink(pluginID string, cfg LinkConfig, log observability.Logger) ([]string, error) {
	if err := ValidateTitle(cfg.Title); err != nil {
		return nil, err
	}
	if err := ValidateDescription(cfg.Description); err != nil {
		return nil, err
	}
	if err := validConfigure(cfg.Configure); err != nil {
		return nil, err
	}
	if err := ValidateLinkTarget(pluginID, cfg.Path, cfg.OnClick != nil); err != nil {
		return nil, err
	}

	targets, err := r.validateTargets(log, pluginID, cfg.Targets)
	if err != nil {
		return nil, err
	}

	if err := r.checkDeclared(pluginID, RegistryAddedLinks, cfg.Title, targets, func(m *plugins.Manifest) []plugins.ExtensionDecl {
		return m.Extensions.AddedLinks
	}); err != nil {
		return nil, err
	}
	return targets, nil
}

func (r *Registries) mapComponents(current registry.Snapshot[[]ComponentItem], batch registry.Contribution[ComponentConfig]) registry.Snapshot[[]ComponentItem] {
	b := current.Edit()

	for _, cfg := range batch.Configs {
		log := r.configLogger(RegistryAddedComponents, batch.PluginID, cfg.Title)

		targets, err := r.validateComponent(batch.PluginID, cfg, log)
		if err != nil {
			r.reject(log, RegistryAddedComponents, err)
			continue
		}

		component := wrapComponent(batch.PluginID, r.pluginVersion(batch.PluginID), cfg.Component)
		for _, target := range targets {
			appendItem(b, target, ComponentItem{
				ItemMeta: ItemMeta{
					PluginID:         batch.PluginID,
					ExtensionPointID: target,
					Title:            cfg.Title,
					Description:      cfg.Description,
				},
				Component: component,
				Configure: cfg.Configure,
			})
		}
		r.accept(log, RegistryAddedComponents, targets)
	}

	return b.Snapshot()
}

func (r *Registries) validateComponent(pluginID string, cfg ComponentConfig, log observability.Logger) ([]string, error) {
	if err := ValidateTitle(cfg.Title); err != nil {
		return nil, err
	}
	if err := ValidateDescription(cfg.Description); err != nil {
		return nil, err
	}
	if cfg.Component == nil {
		return nil, invalid("component", "component must be a renderable component")
	}
	if err := validConfigure(cfg.Configure); err != nil {
		return nil, err
	}

	targets, err := r.validateTargets(log, pluginID, cfg.Targets)
	if err != nil {
		return nil, err
	}

	if err := r.checkDeclared(pluginID, RegistryAddedComponents, cfg.Title, targets, func(m *plugins.Manifest) []plugins.ExtensionDecl {
		return m.Extensions.AddedComponents
	}); err != nil {
		return nil, err
	}
	return targets, nil
}

func (r *Registries) mapFunctions(current registry.Snapshot[[]FunctionItem], batch registry.Contribution[FunctionConfig]) registry.Snapshot[[]FunctionItem] {
	b := current.Edit()

	for _, cfg := range batch.Configs {
		log := r.configLogger(RegistryAddedFunctions, batch.PluginID, cfg.Title)

		targets, err := r.validateFunction(batch.PluginID, cfg, log)
		if err != nil {
			r.reject(log, RegistryAddedFunctions, err)
			continue
		}

		for _, target := range targets {
			appendItem(b, target, FunctionItem{
				ItemMeta: ItemMeta{
					PluginID:         batch.PluginID,
					ExtensionPointID: target,
					Title:            cfg.Title,
					Description:      cfg.Description,
				},
				Fn: cfg.Fn,
			})
		}
		r.accept(log, RegistryAddedFunctions, targets)
	}

	return b.Snapshot()
}

func (r *Registries) validateFunction(pluginID string, cfg FunctionConfig, log observability.Logger) ([]string, error) {
	if err := ValidateTitle(cfg.Title); err != nil {
		return nil, err
	}
	if err := ValidateDescription(cfg.Description); err != nil {
		return nil, err
	}
	if cfg.Fn == nil {
		return nil, invalid("fn", "fn must be a function")
	}

	targets, err := r.validateTargets(log, pluginID, cfg.Targets)
	if err != nil {
		return nil, err
	}

	if err := r.checkDeclared(pluginID, RegistryAddedFunctions, cfg.Title, targets, func(m *plugins.Manifest) []plugins.ExtensionDecl {
		return m.Extensions.AddedFunctions
	}); err != nil {
		return nil, err
	}
	return targets, nil
}

func (r *Registries) mapURLRecognizers(current registry.Snapshot[[]URLRecognizerItem], batch registry.Contribution[URLRecognizerConfig]) registry.Snapshot[[]URLRecognizerItem] {
	b := current.Edit()

	for _, cfg := range batch.Configs {
		log := r.configLogger(RegistryURLRecognizers, batch.PluginID, cfg.Title)

		targets, err := r.validateURLRecognizer(batch.PluginID, cfg, log)
		if err != nil {
			r.reject(log, RegistryURLRecognizers, err)
			continue
		}

		for _, target := range targets {
			appendItem(b, target, URLRecognizerItem{
				ItemMeta: ItemMeta{
					PluginID:         batch.PluginID,
					ExtensionPointID: target,
					Title:            cfg.Title,
					Description:      cfg.Description,
				},
				Recognize: cfg.Recognize,
			})
		}
		r.accept(log, RegistryURLRecognizers, targets)
	}

	return b.Snapshot()
}

func (r *Registries) validateURLRecognizer(pluginID string, cfg URLRecognizerConfig, log observability.Logger) ([]string, error) {
	if err := ValidateTitle(cfg.Title); err != nil {
		return nil, err
	}
	if cfg.Recognize == nil {
		return nil, invalid("recognize", "recognize must be a function")
	}
	return r.validateTargets(log, pluginID, cfg.Targets)
}
