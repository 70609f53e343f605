package extensions

import (
	"github.com/platinummonkey/extensions/pkg/observability"
	"github.com/platinummonkey/extensions/pkg/plugins"
	"github.com/platinummonkey/extensions/pkg/registry"
)

// Options configures the typed registries
type Options struct {
	Logger  observability.Logger
	Metrics *observability.Metrics
	// DevMode enables the manifest cross-check for every non-reserved plugin
	DevMode bool
	// Manifests supplies static plugin manifests. Required for DevMode; in
	// production it only feeds plugin versions into component context.
	Manifests plugins.Source
}

// Registries bundles one registry per extension kind. Construct it once per
// process (or per test) and hand ReadOnly() to consumers that must not
// register.
type Registries struct {
	AddedLinks        *registry.Registry[LinkConfig, []LinkItem]
	AddedComponents   *registry.Registry[ComponentConfig, []ComponentItem]
	AddedFunctions    *registry.Registry[FunctionConfig, []FunctionItem]
	ExposedComponents *registry.Registry[ExposedComponentConfig, ExposedComponentItem]
	URLRecognizers    *registry.Registry[URLRecognizerConfig, []URLRecognizerItem]
	CommandPalette    *registry.Registry[CommandPaletteProviderConfig, CommandPaletteProviderItem]

	logger    observability.Logger
	metrics   *observability.Metrics
	devMode   bool
	manifests plugins.Source
}

// NewRegistries creates empty registries for every extension kind
func NewRegistries(opts Options) *Registries {
	if opts.Logger == nil {
		opts.Logger = observability.NewNopLogger()
	}
	if opts.Manifests == nil {
		opts.Manifests = plugins.NewStaticSource()
	}

	r := &Registries{
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		devMode:   opts.DevMode,
		manifests: opts.Manifests,
	}

	regOpts := registry.Options{Logger: opts.Logger, Metrics: opts.Metrics}
	r.AddedLinks = registry.New[LinkConfig, []LinkItem](RegistryAddedLinks, r.mapLinks, regOpts)
	r.AddedComponents = registry.New[ComponentConfig, []ComponentItem](RegistryAddedComponents, r.mapComponents, regOpts)
	r.AddedFunctions = registry.New[FunctionConfig, []FunctionItem](RegistryAddedFunctions, r.mapFunctions, regOpts)
	r.ExposedComponents = registry.New[ExposedComponentConfig, ExposedComponentItem](RegistryExposedComponents, r.mapExposedComponents, regOpts)
	r.URLRecognizers = registry.New[URLRecognizerConfig, []URLRecognizerItem](RegistryURLRecognizers, r.mapURLRecognizers, regOpts)
	r.CommandPalette = registry.New[CommandPaletteProviderConfig, CommandPaletteProviderItem](RegistryCommandPalette, r.mapCommandPalette, regOpts)

	return r
}

// ReadOnly returns a bundle sharing the same state whose registries refuse
// Register with registry.ErrReadOnly
func (r *Registries) ReadOnly() *Registries {
	ro := *r
	ro.AddedLinks = r.AddedLinks.ReadOnly()
	ro.AddedComponents = r.AddedComponents.ReadOnly()
	ro.AddedFunctions = r.AddedFunctions.ReadOnly()
	ro.ExposedComponents = r.ExposedComponents.ReadOnly()
	ro.URLRecognizers = r.URLRecognizers.ReadOnly()
	ro.CommandPalette = r.CommandPalette.ReadOnly()
	return &ro
}

// DevMode reports whether the manifest cross-check is enabled
func (r *Registries) DevMode() bool {
	return r.devMode
}

// Logger returns the logger the registries write to
func (r *Registries) Logger() observability.Logger {
	return r.logger
}

// Metrics returns the metrics the registries record to, possibly nil
func (r *Registries) Metrics() *observability.Metrics {
	return r.metrics
}

func (r *Registries) configLogger(registryName, pluginID, title string) observability.Logger {
	return r.logger.Child(observability.Fields{
		observability.FieldRegistry: registryName,
		observability.FieldPluginID: pluginID,
		observability.FieldTitle:    title,
	})
}

func (r *Registries) reject(log observability.Logger, registryName string, err error) {
	log.Error("Could not register extension", "reason", err.Error())
	r.metrics.RecordRegistration(registryName, observability.StatusRejected)
}

func (r *Registries) accept(log observability.Logger, registryName string, keys []string) {
	log.Debug("Registered extension", "keys", keys)
	r.metrics.RecordRegistration(registryName, observability.StatusAccepted)
}

// validateTargets normalizes targets and applies the naming rules. Ids
// without a version suffix only log a warning.
func (r *Registries) validateTargets(log observability.Logger, pluginID string, targets []string) ([]string, error) {
	targets, err := normalizeTargets(targets)
	if err != nil {
		return nil, err
	}

	if IsReservedPluginID(pluginID) {
		return targets, nil
	}

	for _, target := range targets {
		if err := ValidateExtensionPointID(pluginID, target); err != nil {
			return nil, err
		}
		if !HasVersionSuffix(target) {
			log.Warning("Extension point id should end with a version, e.g. \"/v1\"",
				observability.FieldExtensionPointID, target)
		}
	}
	return targets, nil
}

// pluginVersion looks the plugin version up in its manifest, if there is one
func (r *Registries) pluginVersion(pluginID string) string {
	if m, ok := r.manifests.Manifest(pluginID); ok {
		return m.Version
	}
	return ""
}

// appendItem appends item to the list under key without touching the list
// shared with the base snapshot
func appendItem[T any](b *registry.Builder[[]T], key string, item T) {
	existing, _ := b.Get(key)
	next := make([]T, len(existing), len(existing)+1)
	copy(next, existing)
	b.Set(key, append(next, item))
}

// validConfigure rejects a configure variant that wraps a nil function
func validConfigure[O any](c Configure[O]) error {
	switch fn := c.(type) {
	case nil:
		return nil
	case SyncConfigure[O]:
		if fn == nil {
			return invalid("configure", "configure must be a function")
		}
	case AsyncConfigure[O]:
		if fn == nil {
			return invalid("configure", "configure must be a function")
		}
	}
	return nil
}
