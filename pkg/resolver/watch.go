package resolver

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/platinummonkey/extensions/pkg/async"
	"github.com/platinummonkey/extensions/pkg/extensions"
	"github.com/platinummonkey/extensions/pkg/observability"
	"github.com/platinummonkey/extensions/pkg/registry"
)

// Watch streams the resolved links and components of req.ExtensionPointID.
//
// The first emission holds the items whose customization is absent or
// synchronous. Each asynchronous customization then settles on its own and
// triggers a further emission including its item, in settlement order; lists
// always keep registration order. A callback that never settles simply never
// contributes and never delays the others.
//
// Registrations that add links or components under req.ExtensionPointID
// produce a new emission. Items that already settled keep their result and
// only new or still pending callbacks run again. Registrations elsewhere
// produce nothing.
//
// The channel closes when ctx is done.
func (r *Resolver) Watch(ctx context.Context, req Request) <-chan []Extension {
	out := make(chan []Extension)

	links := r.regs.AddedLinks.Subscribe(ctx)
	components := r.regs.AddedComponents.Subscribe(ctx)
	view := contextView(req.Context)
	log := r.requestLogger(ctx, req.ExtensionPointID).Child(observability.Fields{"watch": true})

	go func() {
		defer close(out)
		defer links.Close()
		defer components.Close()

		var (
			linkSnap      registry.Snapshot[[]extensions.LinkItem]
			componentSnap registry.Snapshot[[]extensions.ComponentItem]
			haveLinks     bool
			haveComps     bool

			round   *watchRound
			settled <-chan async.Settled[Extension]

			planned        bool
			linkCount      int
			componentCount int
		)

		stopRound := func() {
			if round != nil {
				round.cancel()
				round = nil
			}
			settled = nil
		}
		defer stopRound()

		emit := func(list []Extension) bool {
			select {
			case out <- list:
				return true
			case <-ctx.Done():
				return false
			}
		}

		restart := func() bool {
			linkItems, _ := linkSnap.Get(req.ExtensionPointID)
			componentItems, _ := componentSnap.Get(req.ExtensionPointID)
			if planned && len(linkItems) == linkCount && len(componentItems) == componentCount {
				return true
			}
			planned, linkCount, componentCount = true, len(linkItems), len(componentItems)

			var carried map[candidateKey]Extension
			if round != nil {
				carried = round.done
			}
			stopRound()

			round = newWatchRound(ctx, r.plan(req, linkItems, componentItems, view, log), carried)
			if len(round.tasks) > 0 {
				settled = async.Settle(round.ctx, round.tasks)
			}

			list := round.visible()
			r.recordResolved(list)
			return emit(list)
		}

		for {
			select {
			case <-ctx.Done():
				return

			case snap, ok := <-links.C():
				if !ok {
					return
				}
				linkSnap, haveLinks = snap, true
				if haveComps && !restart() {
					return
				}

			case snap, ok := <-components.C():
				if !ok {
					return
				}
				componentSnap, haveComps = snap, true
				if haveLinks && !restart() {
					return
				}

			case s, ok := <-settled:
				if !ok {
					settled = nil
					continue
				}
				if s.Err != nil {
					continue
				}
				round.settle(s)
				if s.Value == nil {
					continue
				}
				_, span := observability.StartSpan(ctx, "resolver.Watch.settle",
					attribute.String("extension_point_id", req.ExtensionPointID))
				list := round.visible()
				span.SetAttributes(attribute.Int("extensions.count", len(list)))
				span.End()
				r.recordResolved([]Extension{s.Value})
				if !emit(list) {
					return
				}
			}
		}
	}()

	return out
}

// watchRound is the resolution of one snapshot pair
type watchRound struct {
	ctx     context.Context
	cancel  context.CancelFunc
	results []Extension
	keys    []candidateKey
	tasks   []func(context.Context) (Extension, error)
	slots   []int
	// done holds every settled asynchronous result, nil when the item ended
	// up hidden
	done map[candidateKey]Extension
}

// newWatchRound starts from the results carried over from the previous round;
// only asynchronous candidates missing from carried become tasks
func newWatchRound(parent context.Context, candidates []candidate, carried map[candidateKey]Extension) *watchRound {
	ctx, cancel := context.WithCancel(parent)
	w := &watchRound{
		ctx:     ctx,
		cancel:  cancel,
		results: make([]Extension, len(candidates)),
		keys:    make([]candidateKey, len(candidates)),
		done:    make(map[candidateKey]Extension),
	}
	for i, c := range candidates {
		w.keys[i] = c.key
		if c.settle == nil {
			w.results[i] = c.static
			continue
		}
		if ext, ok := carried[c.key]; ok {
			w.results[i] = ext
			w.done[c.key] = ext
			continue
		}
		w.tasks = append(w.tasks, c.settle)
		w.slots = append(w.slots, i)
	}
	return w
}

func (w *watchRound) settle(s async.Settled[Extension]) {
	slot := w.slots[s.Index]
	w.results[slot] = s.Value
	w.done[w.keys[slot]] = s.Value
}

func (w *watchRound) visible() []Extension {
	return compact(w.results)
}
