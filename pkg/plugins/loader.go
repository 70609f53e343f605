package plugins

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/platinummonkey/extensions/pkg/observability"
)

// Loader discovers plugin manifests in filesystem directories. Each plugin
// lives in its own subdirectory holding a plugin.yaml.
type Loader struct {
	pluginDirs []string
	log        observability.Logger
}

// NewLoader creates a new manifest loader
func NewLoader(dirs []string, log observability.Logger) *Loader {
	if log == nil {
		log = observability.NewNopLogger()
	}

	return &Loader{
		pluginDirs: dirs,
		log:        log,
	}
}

// Dirs returns the directories scanned by the loader
func (l *Loader) Dirs() []string {
	return append([]string(nil), l.pluginDirs...)
}

// DiscoverManifests scans plugin directories and returns every manifest that
// parsed and passed structural validation. Broken plugins are logged and
// skipped. When the same id appears twice the first directory wins.
func (l *Loader) DiscoverManifests(ctx context.Context) ([]*Manifest, error) {
	var manifests []*Manifest
	seen := make(map[string]string)

	for _, dir := range l.pluginDirs {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			l.log.Debug("Plugin directory does not exist", "dir", dir)
			continue
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			l.log.Warning("Failed to read plugin directory", "dir", dir, "error", err)
			continue
		}

		for _, entry := range entries {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if !entry.IsDir() {
				continue
			}

			pluginDir := filepath.Join(dir, entry.Name())
			manifest, err := l.LoadManifest(pluginDir)
			if err != nil {
				l.log.Warning("Failed to load plugin manifest", "dir", pluginDir, "error", err)
				continue
			}

			if prev, dup := seen[manifest.ID]; dup {
				l.log.Warning("Duplicate plugin id, keeping first",
					observability.FieldPluginID, manifest.ID,
					"dir", pluginDir,
					"previous", prev,
				)
				continue
			}
			seen[manifest.ID] = pluginDir
			manifests = append(manifests, manifest)
		}
	}

	return manifests, nil
}

// LoadManifest loads and validates the manifest in a single plugin directory
func (l *Loader) LoadManifest(pluginDir string) (*Manifest, error) {
	manifest, err := LoadManifestFromDir(pluginDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load manifest: %w", err)
	}

	validationErrors := ValidateManifest(manifest)
	for _, ve := range validationErrors {
		if ve.Severity == SeverityWarning {
			l.log.Warning("Manifest validation warning",
				observability.FieldPluginID, manifest.ID,
				"field", ve.Field,
				"message", ve.Message,
			)
		}
	}
	if HasErrors(validationErrors) {
		return nil, fmt.Errorf("manifest validation failed: %v", validationErrors)
	}

	return manifest, nil
}

// Load discovers manifests and replaces the content of dst with them
func (l *Loader) Load(ctx context.Context, dst *StaticSource) (int, error) {
	manifests, err := l.DiscoverManifests(ctx)
	if err != nil {
		return 0, err
	}

	dst.Replace(manifests)
	l.log.Info("Loaded plugin manifests", "count", len(manifests))
	return len(manifests), nil
}
