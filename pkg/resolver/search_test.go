package resolver

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/extensions/pkg/contextkeys"
	"github.com/platinummonkey/extensions/pkg/extensions"
	"github.com/platinummonkey/extensions/pkg/immutable"
	"github.com/platinummonkey/extensions/pkg/registry"
)

func (f *fixture) providers(t *testing.T, pluginID string, configs ...extensions.CommandPaletteProviderConfig) {
	t.Helper()
	require.NoError(t, f.regs.CommandPalette.Register(registry.Contribution[extensions.CommandPaletteProviderConfig]{
		PluginID: pluginID,
		Configs:  configs,
	}))
}

func results(n int) []extensions.SearchItem {
	out := make([]extensions.SearchItem, n)
	for i := range out {
		out[i] = extensions.SearchItem{ID: fmt.Sprintf("id-%d", i), Title: fmt.Sprintf("Result %d", i)}
	}
	return out
}

func (f *fixture) warnings(msg string) int {
	n := 0
	for _, e := range f.hook.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Message == msg {
			n++
		}
	}
	return n
}

func TestSearch_MinQueryLength(t *testing.T) {
	f := newFixture(t)

	var calls atomic.Int32
	f.providers(t, "acme-app", extensions.CommandPaletteProviderConfig{
		Title:          "Dashboards",
		MinQueryLength: extensions.Ptr(3),
		Search: func(context.Context, extensions.SearchContext) ([]extensions.SearchItem, error) {
			calls.Add(1)
			return results(1), nil
		},
	})

	out := f.resolver.Search(context.Background(), extensions.SearchContext{SearchQuery: "ab"})
	assert.Empty(t, out)
	assert.Equal(t, int32(0), calls.Load())

	out = f.resolver.Search(context.Background(), extensions.SearchContext{SearchQuery: "abc"})
	assert.Equal(t, int32(1), calls.Load())
	require.Contains(t, out, "acme-app/Dashboards")
	assert.Equal(t, "acme-app", out["acme-app/Dashboards"].Provider.Category)
}

func TestSearch_IsActive(t *testing.T) {
	f := newFixture(t)

	var called atomic.Bool
	search := func(context.Context, extensions.SearchContext) ([]extensions.SearchItem, error) {
		called.Store(true)
		return results(1), nil
	}
	f.providers(t, "acme-app",
		extensions.CommandPaletteProviderConfig{
			Title:    "Inactive",
			IsActive: func(sc extensions.SearchContext) bool { return sc.Context.Get("page") == "acme" },
			Search:   search,
		},
		extensions.CommandPaletteProviderConfig{
			Title:    "Broken",
			IsActive: func(extensions.SearchContext) bool { panic("boom") },
			Search:   search,
		},
	)

	out := f.resolver.Search(context.Background(), extensions.SearchContext{
		SearchQuery: "query",
		Context:     immutable.NewView(map[string]any{"page": "home"}),
	})
	assert.Empty(t, out)
	assert.False(t, called.Load())
	assert.Len(t, f.loggedErrors("Command palette provider isActive failed"), 1)

	out = f.resolver.Search(context.Background(), extensions.SearchContext{
		SearchQuery: "query",
		Context:     immutable.NewView(map[string]any{"page": "acme"}),
	})
	assert.Contains(t, out, "acme-app/Inactive")
}

func TestSearch_ValidatesResults(t *testing.T) {
	f := newFixture(t)

	f.providers(t, "acme-app",
		extensions.CommandPaletteProviderConfig{
			Title: "Many",
			Search: func(context.Context, extensions.SearchContext) ([]extensions.SearchItem, error) {
				return results(8), nil
			},
		},
		extensions.CommandPaletteProviderConfig{
			Title: "Mixed",
			Search: func(context.Context, extensions.SearchContext) ([]extensions.SearchItem, error) {
				return []extensions.SearchItem{
					{ID: "a", Title: "A"},
					{ID: "", Title: "No id"},
					{ID: "b", Title: ""},
					{ID: "c", Title: "C"},
				}, nil
			},
		},
		extensions.CommandPaletteProviderConfig{
			Title: "NotAList",
			Search: func(context.Context, extensions.SearchContext) ([]extensions.SearchItem, error) {
				return nil, nil
			},
		},
		extensions.CommandPaletteProviderConfig{
			Title: "Empty",
			Search: func(context.Context, extensions.SearchContext) ([]extensions.SearchItem, error) {
				return []extensions.SearchItem{}, nil
			},
		},
		extensions.CommandPaletteProviderConfig{
			Title: "AllInvalid",
			Search: func(context.Context, extensions.SearchContext) ([]extensions.SearchItem, error) {
				return []extensions.SearchItem{{Title: "no id"}}, nil
			},
		},
	)

	out := f.resolver.Search(context.Background(), extensions.SearchContext{SearchQuery: "query"})

	assert.ElementsMatch(t, []string{"acme-app/Many", "acme-app/Mixed"}, keys(out))
	assert.Len(t, out["acme-app/Many"].Items, MaxResultsPerProvider)
	assert.Equal(t, "id-0", out["acme-app/Many"].Items[0].ID)

	mixed := out["acme-app/Mixed"].Items
	require.Len(t, mixed, 2)
	assert.Equal(t, "a", mixed[0].ID)
	assert.Equal(t, "c", mixed[1].ID)

	assert.Equal(t, 1, f.warnings("Command palette provider did not return a list of results"))
	assert.Equal(t, 3, f.warnings("Dropping command palette result without id or title"))
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.SearchProviderTotal.WithLabelValues(outcomeOK)))
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.SearchProviderTotal.WithLabelValues(outcomeEmpty)))
}

func TestSearch_ErrorsAreIsolated(t *testing.T) {
	f := newFixture(t)

	f.providers(t, "acme-app",
		extensions.CommandPaletteProviderConfig{
			Title: "Failing",
			Search: func(context.Context, extensions.SearchContext) ([]extensions.SearchItem, error) {
				return nil, errors.New("backend down")
			},
		},
		extensions.CommandPaletteProviderConfig{
			Title: "Cancelled",
			Search: func(context.Context, extensions.SearchContext) ([]extensions.SearchItem, error) {
				return nil, fmt.Errorf("request aborted: %w", context.Canceled)
			},
		},
		extensions.CommandPaletteProviderConfig{
			Title: "Panicking",
			Search: func(context.Context, extensions.SearchContext) ([]extensions.SearchItem, error) {
				panic("boom")
			},
		},
		extensions.CommandPaletteProviderConfig{
			Title: "Working",
			Search: func(ctx context.Context, _ extensions.SearchContext) ([]extensions.SearchItem, error) {
				assert.NotEmpty(t, contextkeys.GetRequestID(ctx))
				return results(1), nil
			},
		},
	)

	out := f.resolver.Search(context.Background(), extensions.SearchContext{SearchQuery: "query"})
	assert.Equal(t, []string{"acme-app/Working"}, keys(out))

	failed := f.loggedErrors("Command palette provider failed")
	require.Len(t, failed, 2)
	for _, e := range failed {
		assert.NotEqual(t, "acme-app/Cancelled", e.Data["providerKey"])
		assert.NotEmpty(t, e.Data["requestId"])
	}
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.SearchProviderTotal.WithLabelValues(outcomeCancelled)))
}

func TestSearch_DoesNotWaitPastContext(t *testing.T) {
	f := newFixture(t)

	cancelled := make(chan struct{})
	f.providers(t, "acme-app",
		extensions.CommandPaletteProviderConfig{
			Title: "Stuck",
			Search: func(ctx context.Context, _ extensions.SearchContext) ([]extensions.SearchItem, error) {
				<-ctx.Done()
				close(cancelled)
				select {} // ignores cancellation
			},
		},
		extensions.CommandPaletteProviderConfig{
			Title: "Quick",
			Search: func(context.Context, extensions.SearchContext) ([]extensions.SearchItem, error) {
				return results(2), nil
			},
		},
	)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	out := f.resolver.Search(ctx, extensions.SearchContext{SearchQuery: "query"})
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, []string{"acme-app/Quick"}, keys(out))

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("provider context was not cancelled")
	}
}

func TestSearch_Timeout(t *testing.T) {
	f := newFixture(t)
	r := New(f.regs, Options{SearchTimeout: 20 * time.Millisecond})

	f.providers(t, "acme-app", extensions.CommandPaletteProviderConfig{
		Title: "Slow",
		Search: func(ctx context.Context, _ extensions.SearchContext) ([]extensions.SearchItem, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	})

	out := r.Search(context.Background(), extensions.SearchContext{SearchQuery: "query"})
	assert.Empty(t, out)

	// Search's own deadline is not a provider failure
	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(f.metrics.SearchProviderTotal.WithLabelValues(outcomeCancelled)) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Empty(t, f.loggedErrors("Command palette provider failed"))
	assert.Zero(t, testutil.ToFloat64(f.metrics.SearchProviderTotal.WithLabelValues(outcomeError)))
}

func keys(m map[string]SearchResultSet) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
