package extensions

import (
	"github.com/platinummonkey/extensions/pkg/registry"
)

// CommandPaletteKey is the registry key of a provider
func CommandPaletteKey(pluginID, title string) string {
	return pluginID + "/" + title
}

func (r *Registries) mapCommandPalette(current registry.Snapshot[CommandPaletteProviderItem], batch registry.Contribution[CommandPaletteProviderConfig]) registry.Snapshot[CommandPaletteProviderItem] {
	b := current.Edit()

	for _, cfg := range batch.Configs {
		log := r.configLogger(RegistryCommandPalette, batch.PluginID, cfg.Title)

		item, err := normalizeProvider(batch.PluginID, cfg)
		if err != nil {
			r.reject(log, RegistryCommandPalette, err)
			continue
		}

		if _, ok := b.Get(item.Key); ok {
			r.reject(log, RegistryCommandPalette, invalid("title", "provider %q is already registered", item.Key))
			continue
		}

		b.Set(item.Key, item)
		r.accept(log, RegistryCommandPalette, []string{item.Key})
	}

	return b.Snapshot()
}

// normalizeProvider validates cfg and fills in defaults
func normalizeProvider(pluginID string, cfg CommandPaletteProviderConfig) (CommandPaletteProviderItem, error) {
	if err := ValidateTitle(cfg.Title); err != nil {
		return CommandPaletteProviderItem{}, err
	}
	if cfg.Search == nil {
		return CommandPaletteProviderItem{}, invalid("search", "search must be a function")
	}

	minQueryLength := DefaultMinQueryLength
	if cfg.MinQueryLength != nil {
		if *cfg.MinQueryLength < 0 {
			return CommandPaletteProviderItem{}, invalid("minQueryLength", "must not be negative")
		}
		minQueryLength = *cfg.MinQueryLength
	}

	debounce := cfg.Debounce
	switch {
	case debounce < 0:
		return CommandPaletteProviderItem{}, invalid("debounce", "must not be negative")
	case debounce == 0:
		debounce = DefaultDebounce
	}

	category := cfg.Category
	if category == "" {
		category = pluginID
	}

	return CommandPaletteProviderItem{
		PluginID:       pluginID,
		Key:            CommandPaletteKey(pluginID, cfg.Title),
		Title:          cfg.Title,
		Description:    cfg.Description,
		Category:       category,
		MinQueryLength: minQueryLength,
		Debounce:       debounce,
		IsActive:       cfg.IsActive,
		Search:         cfg.Search,
	}, nil
}
