package registry

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/extensions/pkg/observability"
)

type testConfig struct {
	Target string
	Title  string
}

// appendByTarget groups titles under their target, skipping empty titles
func appendByTarget(current Snapshot[[]string], batch Contribution[testConfig]) Snapshot[[]string] {
	b := current.Edit()
	for _, cfg := range batch.Configs {
		if cfg.Title == "" {
			continue
		}
		existing, _ := b.Get(cfg.Target)
		b.Set(cfg.Target, append(append([]string{}, existing...), batch.PluginID+":"+cfg.Title))
	}
	return b.Snapshot()
}

func newTestRegistry() *Registry[testConfig, []string] {
	return New("test", appendByTarget, Options{})
}

func receive(t *testing.T, sub *Subscription[[]string]) Snapshot[[]string] {
	t.Helper()
	select {
	case snap, ok := <-sub.C():
		require.True(t, ok, "subscription closed unexpectedly")
		return snap
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for snapshot")
		return Snapshot[[]string]{}
	}
}

func TestRegistry_EmptyInitialState(t *testing.T) {
	r := newTestRegistry()

	state := r.State()
	assert.Equal(t, 0, state.Len())
	assert.Equal(t, uint64(0), state.Version())
	assert.Equal(t, "test", r.Name())
	assert.False(t, r.IsReadOnly())
}

func TestRegistry_RegisterIsVisibleImmediately(t *testing.T) {
	r := newTestRegistry()

	require.NoError(t, r.Register(Contribution[testConfig]{
		PluginID: "acme-app",
		Configs: []testConfig{
			{Target: "grafana/panel/menu", Title: "Open"},
			{Target: "grafana/panel/menu", Title: ""},
			{Target: "grafana/explore/toolbar", Title: "Explore"},
		},
	}))

	state := r.State()
	assert.Equal(t, uint64(1), state.Version())
	items, ok := state.Get("grafana/panel/menu")
	require.True(t, ok)
	assert.Equal(t, []string{"acme-app:Open"}, items)
	assert.Equal(t, []string{"grafana/explore/toolbar", "grafana/panel/menu"}, state.Keys())
}

func TestRegistry_AppendOrderIsRegistrationOrder(t *testing.T) {
	r := newTestRegistry()

	require.NoError(t, r.Register(Contribution[testConfig]{PluginID: "a", Configs: []testConfig{{Target: "x", Title: "1"}}}))
	require.NoError(t, r.Register(Contribution[testConfig]{PluginID: "b", Configs: []testConfig{{Target: "x", Title: "2"}}}))
	require.NoError(t, r.Register(Contribution[testConfig]{PluginID: "a", Configs: []testConfig{{Target: "x", Title: "3"}}}))

	items, _ := r.State().Get("x")
	assert.Equal(t, []string{"a:1", "b:2", "a:3"}, items)
}

func TestRegistry_SnapshotsAreImmutable(t *testing.T) {
	r := newTestRegistry()
	require.NoError(t, r.Register(Contribution[testConfig]{PluginID: "a", Configs: []testConfig{{Target: "x", Title: "1"}}}))

	before := r.State()
	items, _ := before.Get("x")
	items[0] = "mutated"

	again, _ := before.Get("x")
	assert.Equal(t, []string{"a:1"}, again)

	require.NoError(t, r.Register(Contribution[testConfig]{PluginID: "b", Configs: []testConfig{{Target: "x", Title: "2"}}}))
	old, _ := before.Get("x")
	assert.Equal(t, []string{"a:1"}, old, "earlier snapshots never change")
}

func TestRegistry_StructuralSharing(t *testing.T) {
	r := newTestRegistry()
	require.NoError(t, r.Register(Contribution[testConfig]{PluginID: "a", Configs: []testConfig{{Target: "x", Title: "1"}}}))
	first := r.State()

	require.NoError(t, r.Register(Contribution[testConfig]{PluginID: "a", Configs: []testConfig{{Target: "y", Title: "2"}}}))
	second := r.State()

	assert.Same(t, &first.entries["x"][0], &second.entries["x"][0], "untouched keys share storage")
}

func TestRegistry_SubscribeReplaysLatest(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := newTestRegistry()
	require.NoError(t, r.Register(Contribution[testConfig]{PluginID: "a", Configs: []testConfig{{Target: "x", Title: "1"}}}))
	require.NoError(t, r.Register(Contribution[testConfig]{PluginID: "a", Configs: []testConfig{{Target: "x", Title: "2"}}}))

	sub := r.Subscribe(ctx)
	snap := receive(t, sub)
	assert.Equal(t, uint64(2), snap.Version(), "late subscribers get exactly the latest snapshot")

	require.NoError(t, r.Register(Contribution[testConfig]{PluginID: "a", Configs: []testConfig{{Target: "x", Title: "3"}}}))
	snap = receive(t, sub)
	assert.Equal(t, uint64(3), snap.Version())
}

func TestRegistry_NoSnapshotSkipped(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := newTestRegistry()
	subA := r.Subscribe(ctx)
	subB := r.Subscribe(ctx)

	const batches = 50
	for i := 0; i < batches; i++ {
		require.NoError(t, r.Register(Contribution[testConfig]{PluginID: "p", Configs: []testConfig{{Target: "x", Title: "t"}}}))
	}

	for _, sub := range []*Subscription[[]string]{subA, subB} {
		for want := uint64(0); want <= batches; want++ {
			assert.Equal(t, want, receive(t, sub).Version())
		}
	}
}

func TestRegistry_ConcurrentRegisterTotalOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := newTestRegistry()
	sub := r.Subscribe(ctx)
	receive(t, sub)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = r.Register(Contribution[testConfig]{PluginID: "p", Configs: []testConfig{{Target: "x", Title: "t"}}})
		}()
	}
	wg.Wait()

	var last uint64
	for i := 0; i < 20; i++ {
		snap := receive(t, sub)
		items, _ := snap.Get("x")
		assert.Equal(t, last+1, snap.Version())
		assert.Len(t, items, int(snap.Version()))
		last = snap.Version()
	}
}

func TestRegistry_SubscriptionEnds(t *testing.T) {
	r := newTestRegistry()

	ctx, cancel := context.WithCancel(context.Background())
	sub := r.Subscribe(ctx)
	receive(t, sub)
	cancel()

	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-sub.C():
			return !ok
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)

	closed := r.Subscribe(context.Background())
	receive(t, closed)
	closed.Close()
	closed.Close()
	assert.Eventually(t, func() bool {
		r.core.mu.Lock()
		defer r.core.mu.Unlock()
		return len(r.core.subs) == 0
	}, time.Second, 10*time.Millisecond)
}

func TestRegistry_ReadOnly(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := newTestRegistry()
	ro := r.ReadOnly()

	assert.True(t, ro.IsReadOnly())
	err := ro.Register(Contribution[testConfig]{PluginID: "a", Configs: []testConfig{{Target: "x", Title: "1"}}})
	assert.ErrorIs(t, err, ErrReadOnly)
	assert.EqualError(t, err, "cannot register on read-only registry")

	sub := ro.Subscribe(ctx)
	receive(t, sub)

	require.NoError(t, r.Register(Contribution[testConfig]{PluginID: "a", Configs: []testConfig{{Target: "x", Title: "1"}}}))
	assert.Equal(t, uint64(1), ro.State().Version(), "read-only handle shares state")
	assert.Equal(t, uint64(1), receive(t, sub).Version())
}

func TestRegistry_RecordsSnapshotMetric(t *testing.T) {
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	r := New("test", appendByTarget, Options{Metrics: metrics})

	require.NoError(t, r.Register(Contribution[testConfig]{PluginID: "a", Configs: []testConfig{
		{Target: "x", Title: "1"},
		{Target: "y", Title: "2"},
	}}))

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.SnapshotItems.WithLabelValues("test")))
}
