package registry

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/platinummonkey/extensions/pkg/immutable"
	"github.com/platinummonkey/extensions/pkg/observability"
)

// ErrReadOnly is returned by Register on a handle obtained from ReadOnly
var ErrReadOnly = errors.New("cannot register on read-only registry")

// Contribution is a batch of configs submitted atomically by one plugin
type Contribution[C any] struct {
	PluginID string
	Configs  []C
}

// MapFunc folds one contribution batch into the current snapshot and returns
// the next one. Implementations validate and normalize every config; invalid
// configs are logged and skipped.
type MapFunc[C, V any] func(current Snapshot[V], batch Contribution[C]) Snapshot[V]

// Options configures a Registry
type Options struct {
	Logger  observability.Logger
	Metrics *observability.Metrics
}

// Registry is an append-only state container. Each Register call folds a
// batch into a new snapshot and publishes it to every subscriber before
// returning. Subscribers receive the latest snapshot on subscribe, then every
// later snapshot in order.
type Registry[C, V any] struct {
	core     *core[C, V]
	readOnly bool
}

type core[C, V any] struct {
	name    string
	mapFn   MapFunc[C, V]
	logger  observability.Logger
	metrics *observability.Metrics

	mu      sync.Mutex
	current Snapshot[V]
	subs    map[string]*Subscription[V]
}

// New creates a registry whose first snapshot is empty
func New[C, V any](name string, mapFn MapFunc[C, V], opts Options) *Registry[C, V] {
	if opts.Logger == nil {
		opts.Logger = observability.NewNopLogger()
	}

	return &Registry[C, V]{
		core: &core[C, V]{
			name:    name,
			mapFn:   mapFn,
			logger:  opts.Logger.Child(observability.Fields{observability.FieldRegistry: name}),
			metrics: opts.Metrics,
			current: Snapshot[V]{entries: map[string]V{}},
			subs:    make(map[string]*Subscription[V]),
		},
	}
}

// Name returns the registry name, e.g. "addedLinks"
func (r *Registry[C, V]) Name() string {
	return r.core.name
}

// IsReadOnly reports whether Register is disabled on this handle
func (r *Registry[C, V]) IsReadOnly() bool {
	return r.readOnly
}

// Register folds batch into the registry. The resulting snapshot is visible
// through State and has been queued for every subscriber by the time Register
// returns.
func (r *Registry[C, V]) Register(batch Contribution[C]) error {
	if r.readOnly {
		return ErrReadOnly
	}

	c := r.core
	c.mu.Lock()
	defer c.mu.Unlock()

	next := immutable.Freeze(c.mapFn(c.current, batch))
	next.version = c.current.version + 1
	c.current = next

	for _, sub := range c.subs {
		sub.push(next)
	}

	c.metrics.RecordSnapshot(c.name, next.Len())
	c.logger.Debug("Published registry snapshot", "version", next.version, "pluginId", batch.PluginID)

	return nil
}

// State returns the current snapshot
func (r *Registry[C, V]) State() Snapshot[V] {
	r.core.mu.Lock()
	defer r.core.mu.Unlock()
	return r.core.current
}

// Subscribe returns a subscription that first delivers the current snapshot
// and then every later one. It ends when ctx is done or Close is called.
func (r *Registry[C, V]) Subscribe(ctx context.Context) *Subscription[V] {
	c := r.core
	sub := newSubscription[V](uuid.NewString())

	c.mu.Lock()
	sub.push(c.current)
	c.subs[sub.id] = sub
	c.mu.Unlock()

	go sub.run(ctx, func() {
		c.mu.Lock()
		delete(c.subs, sub.id)
		c.mu.Unlock()
	})

	return sub
}

// ReadOnly returns a handle sharing this registry's state whose Register
// always fails with ErrReadOnly
func (r *Registry[C, V]) ReadOnly() *Registry[C, V] {
	return &Registry[C, V]{core: r.core, readOnly: true}
}
