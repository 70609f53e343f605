package resolver

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/platinummonkey/extensions/pkg/async"
	"github.com/platinummonkey/extensions/pkg/extensions"
	"github.com/platinummonkey/extensions/pkg/immutable"
	"github.com/platinummonkey/extensions/pkg/observability"
)

// DefaultResolveTimeout bounds how long Resolve, Links and Components wait
// for asynchronous customizations
const DefaultResolveTimeout = 2 * time.Second

// Options configures a Resolver
type Options struct {
	// Logger defaults to the registries' logger
	Logger observability.Logger
	// Metrics defaults to the registries' metrics
	Metrics *observability.Metrics
	// SearchTimeout bounds a command palette search; 0 means only the
	// caller's context applies
	SearchTimeout time.Duration
	// ResolveTimeout bounds how long one-shot resolution waits for
	// asynchronous customizations; 0 means DefaultResolveTimeout
	ResolveTimeout time.Duration
}

// Resolver turns registry contents plus a runtime context into the extension
// lists handed to the host. It never returns errors for bad plugin data;
// failures are logged and the offending item is left out.
type Resolver struct {
	regs          *extensions.Registries
	logger        observability.Logger
	metrics       *observability.Metrics
	searchTimeout  time.Duration
	resolveTimeout time.Duration
}

// New creates a resolver reading from regs. A read-only bundle is enough.
func New(regs *extensions.Registries, opts Options) *Resolver {
	if opts.Logger == nil {
		opts.Logger = regs.Logger()
	}
	if opts.Metrics == nil {
		opts.Metrics = regs.Metrics()
	}
	if opts.ResolveTimeout <= 0 {
		opts.ResolveTimeout = DefaultResolveTimeout
	}

	return &Resolver{
		regs:           regs,
		logger:         opts.Logger,
		metrics:        opts.Metrics,
		searchTimeout:  opts.SearchTimeout,
		resolveTimeout: opts.ResolveTimeout,
	}
}

// Resolve returns the links and then the components registered under
// req.ExtensionPointID, in registration order, after customization.
// Asynchronous configure callbacks run concurrently; items whose callback
// has not settled within the resolve timeout, or before ctx is done, are left
// out.
func (r *Resolver) Resolve(ctx context.Context, req Request) []Extension {
	ctx, span := observability.StartSpan(ctx, "resolver.Resolve",
		attribute.String("extension_point_id", req.ExtensionPointID))
	defer span.End()
	defer r.metrics.ObserveResolve("resolve", time.Now())

	links, _ := r.regs.AddedLinks.State().Get(req.ExtensionPointID)
	components, _ := r.regs.AddedComponents.State().Get(req.ExtensionPointID)

	log := r.requestLogger(ctx, req.ExtensionPointID)
	out := r.collect(ctx, r.plan(req, links, components, contextView(req.Context), log))

	r.recordResolved(out)
	span.SetAttributes(attribute.Int("extensions.count", len(out)))
	return out
}

// Links is Resolve restricted to links
func (r *Resolver) Links(ctx context.Context, req Request) []Link {
	ctx, span := observability.StartSpan(ctx, "resolver.Links",
		attribute.String("extension_point_id", req.ExtensionPointID))
	defer span.End()
	defer r.metrics.ObserveResolve("links", time.Now())

	items, _ := r.regs.AddedLinks.State().Get(req.ExtensionPointID)
	log := r.requestLogger(ctx, req.ExtensionPointID)
	resolved := r.collect(ctx, r.plan(req, items, nil, contextView(req.Context), log))

	r.recordResolved(resolved)
	out := make([]Link, 0, len(resolved))
	for _, ext := range resolved {
		if link, ok := ext.(Link); ok {
			out = append(out, link)
		}
	}
	return out
}

// Components is Resolve restricted to components
func (r *Resolver) Components(ctx context.Context, req Request) []Component {
	ctx, span := observability.StartSpan(ctx, "resolver.Components",
		attribute.String("extension_point_id", req.ExtensionPointID))
	defer span.End()
	defer r.metrics.ObserveResolve("components", time.Now())

	items, _ := r.regs.AddedComponents.State().Get(req.ExtensionPointID)
	log := r.requestLogger(ctx, req.ExtensionPointID)
	resolved := r.collect(ctx, r.plan(req, nil, items, contextView(req.Context), log))

	r.recordResolved(resolved)
	out := make([]Component, 0, len(resolved))
	for _, ext := range resolved {
		if component, ok := ext.(Component); ok {
			out = append(out, component)
		}
	}
	return out
}

// candidate is one item that survived the per-plugin cap and, if its
// customization is synchronous, the customization itself
type candidate struct {
	key    candidateKey
	static Extension
	// settle is set when customization is asynchronous. It returns nil when
	// the item ends up hidden.
	settle func(ctx context.Context) (Extension, error)
}

// plan walks links before components. The per-plugin cap counts every item
// considered, before its customization runs.
func (r *Resolver) plan(req Request, links []extensions.LinkItem, components []extensions.ComponentItem, view *immutable.View, log observability.Logger) []candidate {
	counts := make(map[string]int)
	capped := func(pluginID string) bool {
		if req.LimitPerPlugin <= 0 {
			return false
		}
		if counts[pluginID] >= req.LimitPerPlugin {
			return true
		}
		counts[pluginID]++
		return false
	}

	var out []candidate
	for i, item := range links {
		if capped(item.PluginID) {
			continue
		}
		if c, ok := r.linkCandidate(item, view, log); ok {
			c.key = candidateKey{kind: extensions.KindLink, index: i}
			out = append(out, c)
		}
	}
	for i, item := range components {
		if capped(item.PluginID) {
			continue
		}
		if c, ok := r.componentCandidate(item, view, log); ok {
			c.key = candidateKey{kind: extensions.KindComponent, index: i}
			out = append(out, c)
		}
	}
	return out
}

// candidateKey identifies an item by its position in the list of its kind
// under one extension point. Those lists only grow, so a key names the same
// item in every later snapshot.
type candidateKey struct {
	kind  extensions.Kind
	index int
}

// collect waits for every asynchronous candidate until the resolve timeout or
// ctx ends, and returns the visible extensions in plan order
func (r *Resolver) collect(ctx context.Context, candidates []candidate) []Extension {
	results := make([]Extension, len(candidates))

	var tasks []func(context.Context) (Extension, error)
	var slots []int
	for i, c := range candidates {
		if c.settle != nil {
			tasks = append(tasks, c.settle)
			slots = append(slots, i)
			continue
		}
		results[i] = c.static
	}

	if len(tasks) > 0 {
		ctx, cancel := context.WithTimeout(ctx, r.resolveTimeout)
		defer cancel()

		for s := range async.Settle(ctx, tasks) {
			if s.Err == nil {
				results[slots[s.Index]] = s.Value
			}
		}
	}

	return compact(results)
}

func compact(results []Extension) []Extension {
	out := make([]Extension, 0, len(results))
	for _, ext := range results {
		if ext != nil {
			out = append(out, ext)
		}
	}
	return out
}

func (r *Resolver) recordResolved(out []Extension) {
	counts := make(map[extensions.Kind]int)
	for _, ext := range out {
		counts[ext.Base().Type]++
	}
	for kind, n := range counts {
		r.metrics.RecordResolved(string(kind), n)
	}
}

func (r *Resolver) requestLogger(ctx context.Context, extensionPointID string) observability.Logger {
	return observability.LoggerWithTraceContext(ctx, r.logger).Child(observability.Fields{
		observability.FieldExtensionPointID: extensionPointID,
	})
}

// contextView freezes the caller's context once so concurrent callbacks can
// read it without ever reaching the caller's map
func contextView(ctx map[string]any) *immutable.View {
	return immutable.NewView(immutable.Freeze(ctx))
}
