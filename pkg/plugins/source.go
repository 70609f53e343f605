package plugins

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/platinummonkey/extensions/pkg/immutable"
	"github.com/platinummonkey/extensions/pkg/observability"
)

// ErrManifestNotFound is returned by a Fetcher when a plugin has no manifest
var ErrManifestNotFound = errors.New("manifest not found")

// Source looks up the static manifest of a plugin by id. Implementations must
// be safe for concurrent use. Returned manifests must be treated as read-only.
type Source interface {
	Manifest(pluginID string) (*Manifest, bool)
}

// StaticSource is an in-memory Source, filled by a Loader or by tests
type StaticSource struct {
	mu        sync.RWMutex
	manifests map[string]*Manifest
}

// NewStaticSource creates a source holding the given manifests
func NewStaticSource(manifests ...*Manifest) *StaticSource {
	s := &StaticSource{manifests: make(map[string]*Manifest, len(manifests))}
	for _, m := range manifests {
		s.Set(m)
	}
	return s
}

// Manifest returns a copy of the manifest registered for pluginID
func (s *StaticSource) Manifest(pluginID string) (*Manifest, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.manifests[pluginID]
	if !ok {
		return nil, false
	}
	return immutable.Freeze(m), true
}

// Set stores m under its id, replacing any previous manifest
func (s *StaticSource) Set(m *Manifest) {
	if m == nil || m.ID == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.manifests[m.ID] = immutable.Freeze(m)
}

// Delete removes the manifest for pluginID
func (s *StaticSource) Delete(pluginID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.manifests, pluginID)
}

// Replace swaps the whole content of the source in one step
func (s *StaticSource) Replace(manifests []*Manifest) {
	next := make(map[string]*Manifest, len(manifests))
	for _, m := range manifests {
		if m == nil || m.ID == "" {
			continue
		}
		next[m.ID] = immutable.Freeze(m)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.manifests = next
}

// IDs returns the ids of every stored manifest in sorted order
func (s *StaticSource) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.manifests))
	for id := range s.manifests {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Fetcher loads the manifest of one plugin from its backing store
type Fetcher func(pluginID string) (*Manifest, error)

// DirFetcher reads <dir>/<pluginID>/plugin.yaml
func DirFetcher(dir string) Fetcher {
	return func(pluginID string) (*Manifest, error) {
		if pluginID == "" || filepath.Base(pluginID) != pluginID {
			return nil, fmt.Errorf("invalid plugin id %q: %w", pluginID, ErrManifestNotFound)
		}

		m, err := LoadManifestFromDir(filepath.Join(dir, pluginID))
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("plugin %s: %w", pluginID, ErrManifestNotFound)
		}
		if err != nil {
			return nil, err
		}
		if m.ID != pluginID {
			return nil, fmt.Errorf("manifest in %s declares id %q", pluginID, m.ID)
		}
		return m, nil
	}
}

// CachedSource is a Source backed by a Fetcher with an expiring LRU cache in
// front of it. Concurrent misses for the same plugin share one fetch.
type CachedSource struct {
	fetch   Fetcher
	cache   *lru.LRU[string, *Manifest]
	group   singleflight.Group
	metrics *observability.OTelMetrics
}

// CachedSourceOption configures a CachedSource
type CachedSourceOption func(*CachedSource)

// WithCacheMetrics records hits, misses, evictions and fetch latency on m
func WithCacheMetrics(m *observability.OTelMetrics) CachedSourceOption {
	return func(c *CachedSource) {
		c.metrics = m
	}
}

// NewCachedSource creates a cached source. size <= 0 defaults to 256 entries
// and ttl <= 0 keeps entries until evicted by size.
func NewCachedSource(fetch Fetcher, size int, ttl time.Duration, opts ...CachedSourceOption) *CachedSource {
	if size <= 0 {
		size = 256
	}
	if ttl < 0 {
		ttl = 0
	}

	c := &CachedSource{fetch: fetch}
	for _, opt := range opts {
		opt(c)
	}

	// runs under the cache lock, so it must not call back into the cache
	onEvict := func(string, *Manifest) {
		c.metrics.RecordCacheEviction(context.Background())
	}
	c.cache = lru.NewLRU[string, *Manifest](size, onEvict, ttl)
	return c
}

// Manifest returns the cached manifest for pluginID, fetching it on a miss.
// Fetch failures are not cached.
func (c *CachedSource) Manifest(pluginID string) (*Manifest, bool) {
	ctx := context.Background()

	if m, ok := c.cache.Get(pluginID); ok {
		c.metrics.RecordCacheHit(ctx)
		return immutable.Freeze(m), true
	}
	c.metrics.RecordCacheMiss(ctx)

	v, err, _ := c.group.Do(pluginID, func() (interface{}, error) {
		start := time.Now()
		m, err := c.fetch(pluginID)
		c.metrics.RecordManifestFetch(ctx, time.Since(start), err)
		if err != nil {
			return nil, err
		}
		frozen := immutable.Freeze(m)
		c.cache.Add(pluginID, frozen)
		c.metrics.UpdateCacheSize(ctx, c.cache.Len())
		return frozen, nil
	})
	if err != nil {
		return nil, false
	}

	m, ok := v.(*Manifest)
	if !ok || m == nil {
		return nil, false
	}
	return immutable.Freeze(m), true
}

// Invalidate drops pluginID from the cache so the next lookup refetches it
func (c *CachedSource) Invalidate(pluginID string) {
	c.cache.Remove(pluginID)
}

// Purge empties the cache
func (c *CachedSource) Purge() {
	c.cache.Purge()
}

// Len returns the number of cached manifests
func (c *CachedSource) Len() int {
	return c.cache.Len()
}
