package resolver

import (
	"context"
	"errors"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/extensions/pkg/contextkeys"
	"github.com/platinummonkey/extensions/pkg/extensions"
	"github.com/platinummonkey/extensions/pkg/immutable"
	"github.com/platinummonkey/extensions/pkg/observability"
)

// MaxResultsPerProvider caps the items one provider contributes to a search
const MaxResultsPerProvider = 5

// Search provider outcomes, used as metric labels
const (
	outcomeOK        = "ok"
	outcomeEmpty     = "empty"
	outcomeInvalid   = "invalid"
	outcomeError     = "error"
	outcomeCancelled = "cancelled"
	outcomeSkipped   = "skipped"
)

// Search fans sc out to every active command palette provider at once and
// returns the valid results keyed by provider key. A provider is skipped when
// the query is shorter than its MinQueryLength or its IsActive returns false.
//
// Search returns once every provider has returned or ctx is done, whichever
// comes first; results arriving later are discarded. Providers see a ctx that
// is cancelled when Search returns. Providers with no valid item are left out
// of the map.
func (r *Resolver) Search(ctx context.Context, sc extensions.SearchContext) map[string]SearchResultSet {
	requestID := uuid.NewString()
	ctx = contextkeys.WithRequestID(ctx, requestID)

	if r.searchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.searchTimeout)
		defer cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ctx, span := observability.StartSpan(ctx, "resolver.Search",
		attribute.String("request_id", requestID),
		attribute.Int("query_length", utf8.RuneCountInString(sc.SearchQuery)))
	defer span.End()
	defer r.metrics.ObserveSearch(time.Now())

	log := observability.LoggerWithTraceContext(ctx, r.logger).Child(observability.Fields{
		observability.FieldRequestID: requestID,
	})

	providers := r.regs.CommandPalette.State()

	var (
		mu      sync.Mutex
		results = make(map[string]SearchResultSet)
		done    bool
	)

	g, gctx := errgroup.WithContext(ctx)
	providers.Range(func(key string, provider extensions.CommandPaletteProviderItem) bool {
		plog := log.Child(observability.Fields{
			observability.FieldProviderKey: key,
			observability.FieldPluginID:    provider.PluginID,
		})

		if !r.providerActive(sc, provider, plog) {
			r.metrics.RecordSearchProvider(outcomeSkipped)
			return true
		}

		g.Go(func() error {
			items := r.runProvider(gctx, sc, provider, plog)
			if len(items) == 0 {
				return nil
			}

			mu.Lock()
			defer mu.Unlock()
			if !done {
				results[key] = SearchResultSet{Items: items, Provider: provider}
			}
			return nil
		})
		return true
	})

	waited := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(waited)
	}()

	select {
	case <-waited:
	case <-ctx.Done():
		log.Warning("Search stopped before every provider returned", "error", ctx.Err())
	}

	mu.Lock()
	defer mu.Unlock()
	done = true

	span.SetAttributes(attribute.Int("providers.with_results", len(results)))
	return results
}

// providerActive applies the query length gate and the IsActive predicate
func (r *Resolver) providerActive(sc extensions.SearchContext, provider extensions.CommandPaletteProviderItem, log observability.Logger) (active bool) {
	if utf8.RuneCountInString(sc.SearchQuery) < provider.MinQueryLength {
		return false
	}
	if provider.IsActive == nil {
		return true
	}

	defer func() {
		if err := observability.MustRecover(recover()); err != nil {
			log.Error("Command palette provider isActive failed", "error", err)
			active = false
		}
	}()
	return provider.IsActive(withContextView(sc))
}

// runProvider calls the provider and validates what it returned
func (r *Resolver) runProvider(ctx context.Context, sc extensions.SearchContext, provider extensions.CommandPaletteProviderItem, log observability.Logger) []extensions.SearchItem {
	items, err := callProvider(ctx, provider.Search, withContextView(sc))
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			r.metrics.RecordSearchProvider(outcomeCancelled)
			return nil
		}
		log.Error("Command palette provider failed", "error", err)
		r.metrics.RecordSearchProvider(outcomeError)
		return nil
	}

	if items == nil {
		log.Warning("Command palette provider did not return a list of results")
		r.metrics.RecordSearchProvider(outcomeInvalid)
		return nil
	}

	valid := make([]extensions.SearchItem, 0, len(items))
	for i, item := range items {
		if item.ID == "" || item.Title == "" {
			log.Warning("Dropping command palette result without id or title", "index", i, "id", item.ID)
			continue
		}
		valid = append(valid, immutable.Freeze(item))
		if len(valid) == MaxResultsPerProvider {
			break
		}
	}

	if len(valid) == 0 {
		r.metrics.RecordSearchProvider(outcomeEmpty)
		return nil
	}
	r.metrics.RecordSearchProvider(outcomeOK)
	return valid
}

func callProvider(ctx context.Context, search extensions.SearchFunc, sc extensions.SearchContext) (items []extensions.SearchItem, err error) {
	defer func() {
		if p := observability.MustRecover(recover()); p != nil {
			items, err = nil, p
		}
	}()
	return search(ctx, sc)
}

// withContextView gives providers an empty read-only context when the host supplied none
func withContextView(sc extensions.SearchContext) extensions.SearchContext {
	if sc.Context == nil {
		sc.Context = immutable.NewView(nil)
	}
	return sc
}
