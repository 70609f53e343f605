package registry

import (
	"sort"

	"github.com/platinummonkey/extensions/pkg/immutable"
)

// Snapshot is one published, immutable state of a registry, keyed by
// extension point id (or provider key). Every read returns a frozen copy.
type Snapshot[V any] struct {
	entries map[string]V
	version uint64
}

// Immutable marks snapshots so immutable.Freeze returns them as they are
func (Snapshot[V]) Immutable() {}

// Get returns a copy of the value under key
func (s Snapshot[V]) Get(key string) (V, bool) {
	v, ok := s.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	return immutable.Freeze(v), true
}

// Has reports whether key is present
func (s Snapshot[V]) Has(key string) bool {
	_, ok := s.entries[key]
	return ok
}

// Keys returns all keys in sorted order
func (s Snapshot[V]) Keys() []string {
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of keys
func (s Snapshot[V]) Len() int {
	return len(s.entries)
}

// Version is the number of batches folded into this snapshot. The empty
// snapshot has version 0.
func (s Snapshot[V]) Version() uint64 {
	return s.version
}

// Range calls fn for every key in sorted order until fn returns false
func (s Snapshot[V]) Range(fn func(key string, v V) bool) {
	for _, k := range s.Keys() {
		if !fn(k, immutable.Freeze(s.entries[k])) {
			return
		}
	}
}

// Edit starts a copy-on-write edit of s. The snapshot itself never changes.
func (s Snapshot[V]) Edit() *Builder[V] {
	return &Builder[V]{base: s}
}

// Builder accumulates changes on top of a snapshot. Untouched keys keep
// sharing their values with the base snapshot.
type Builder[V any] struct {
	base    Snapshot[V]
	entries map[string]V
}

// Get returns the current value under key, including pending changes
func (b *Builder[V]) Get(key string) (V, bool) {
	if b.entries != nil {
		v, ok := b.entries[key]
		return v, ok
	}
	v, ok := b.base.entries[key]
	return v, ok
}

// Set stores a frozen copy of v under key
func (b *Builder[V]) Set(key string, v V) {
	if b.entries == nil {
		b.entries = make(map[string]V, len(b.base.entries)+1)
		for k, existing := range b.base.entries {
			b.entries[k] = existing
		}
	}
	b.entries[key] = immutable.Freeze(v)
}

// Snapshot returns the edited snapshot, or the base snapshot when nothing
// changed. Later edits on b start a fresh copy.
func (b *Builder[V]) Snapshot() Snapshot[V] {
	if b.entries == nil {
		return b.base
	}
	b.base = Snapshot[V]{entries: b.entries, version: b.base.version}
	b.entries = nil
	return b.base
}

// NewSnapshot builds a snapshot from entries, mainly for tests and fixtures
func NewSnapshot[V any](entries map[string]V) Snapshot[V] {
	b := Snapshot[V]{}.Edit()
	for k, v := range entries {
		b.Set(k, v)
	}
	return b.Snapshot()
}
