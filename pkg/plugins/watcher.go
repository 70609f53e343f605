package plugins

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/platinummonkey/extensions/pkg/observability"
)

// DefaultReloadDelay coalesces bursts of file events into one reload
const DefaultReloadDelay = 200 * time.Millisecond

// Watcher reloads manifests into a StaticSource whenever a plugin.yaml under
// one of the loader's directories changes
type Watcher struct {
	loader   *Loader
	dst      *StaticSource
	delay    time.Duration
	onReload func(count int)
	log      observability.Logger
	metrics  *observability.OTelMetrics
}

// WatcherOption configures a Watcher
type WatcherOption func(*Watcher)

// WithReloadDelay sets how long the watcher waits for events to settle
func WithReloadDelay(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.delay = d
	}
}

// WithReloadHook registers fn to run after every successful reload
func WithReloadHook(fn func(count int)) WatcherOption {
	return func(w *Watcher) {
		w.onReload = fn
	}
}

// WithReloadMetrics records every reload on m
func WithReloadMetrics(m *observability.OTelMetrics) WatcherOption {
	return func(w *Watcher) {
		w.metrics = m
	}
}

// NewWatcher creates a watcher feeding dst from loader
func NewWatcher(loader *Loader, dst *StaticSource, log observability.Logger, opts ...WatcherOption) *Watcher {
	if log == nil {
		log = observability.NewNopLogger()
	}

	w := &Watcher{
		loader: loader,
		dst:    dst,
		delay:  DefaultReloadDelay,
		log:    log,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run performs an initial load and then watches until ctx is done
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fsw.Close()

	for _, dir := range w.loader.Dirs() {
		if err := setupWatcher(fsw, dir); err != nil {
			w.log.Warning("Failed to watch plugin directory", "dir", dir, "error", err)
		}
	}

	w.reload(ctx)

	timer := time.NewTimer(w.delay)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}

			// New plugin directories need their own watch
			if event.Op&fsnotify.Create != 0 {
				if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
					if err := fsw.Add(event.Name); err != nil {
						w.log.Warning("Error watching new directory", "dir", event.Name, "error", err)
					}
				}
			}

			if !relevant(event) {
				continue
			}
			w.log.Debug("Manifest change detected", "file", event.Name, "op", event.Op.String())
			timer.Reset(w.delay)

		case <-timer.C:
			w.reload(ctx)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warning("Watcher error", "error", err)
		}
	}
}

func (w *Watcher) reload(ctx context.Context) {
	count, err := w.loader.Load(ctx, w.dst)
	w.metrics.RecordReload(ctx, count, err)
	if err != nil {
		w.log.Error("Failed to reload plugin manifests", "error", err)
		return
	}
	if w.onReload != nil {
		w.onReload(count)
	}
}

// relevant reports whether event may change the set of manifests
func relevant(event fsnotify.Event) bool {
	if filepath.Base(event.Name) == ManifestFileName {
		return true
	}
	// A removed or renamed plugin directory drops its manifest
	return event.Op&(fsnotify.Remove|fsnotify.Rename|fsnotify.Create) != 0 && filepath.Ext(event.Name) == ""
}

// setupWatcher adds root and its direct plugin subdirectories to the watcher
func setupWatcher(fsw *fsnotify.Watcher, root string) error {
	if err := fsw.Add(root); err != nil {
		return err
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			if err := fsw.Add(filepath.Join(root, entry.Name())); err != nil {
				return err
			}
		}
	}
	return nil
}
