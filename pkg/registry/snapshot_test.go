package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/extensions/pkg/immutable"
)

func TestSnapshot_BuilderCopyOnWrite(t *testing.T) {
	base := NewSnapshot(map[string][]string{"a": {"1"}})

	b := base.Edit()
	got, ok := b.Get("a")
	require.True(t, ok)
	assert.Equal(t, []string{"1"}, got)

	b.Set("b", []string{"2"})
	next := b.Snapshot()

	assert.False(t, base.Has("b"), "base snapshot is untouched")
	assert.True(t, next.Has("b"))
	assert.Equal(t, 2, next.Len())

	b.Set("c", []string{"3"})
	assert.False(t, next.Has("c"), "edits after Snapshot start a fresh copy")
}

func TestSnapshot_UnchangedBuilderReturnsBase(t *testing.T) {
	base := NewSnapshot(map[string]int{"a": 1})
	next := base.Edit().Snapshot()
	assert.Equal(t, base.entries, next.entries)
}

func TestSnapshot_SetFreezesValue(t *testing.T) {
	value := []string{"1"}
	snap := NewSnapshot(map[string][]string{"a": value})
	value[0] = "changed"

	got, _ := snap.Get("a")
	assert.Equal(t, []string{"1"}, got)
}

func TestSnapshot_Range(t *testing.T) {
	snap := NewSnapshot(map[string]int{"b": 2, "a": 1, "c": 3})

	var keys []string
	snap.Range(func(key string, v int) bool {
		keys = append(keys, key)
		return key != "b"
	})
	assert.Equal(t, []string{"a", "b"}, keys)
}

func TestSnapshot_FreezePassesThrough(t *testing.T) {
	snap := NewSnapshot(map[string]int{"a": 1})
	frozen := immutable.Freeze(snap)
	assert.Equal(t, snap.entries, frozen.entries)
	assert.Equal(t, snap.Version(), frozen.Version())
}

func TestSnapshot_MissingKey(t *testing.T) {
	snap := Snapshot[[]string]{}
	v, ok := snap.Get("missing")
	assert.False(t, ok)
	assert.Nil(t, v)
	assert.Empty(t, snap.Keys())
}
