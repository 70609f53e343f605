package immutable

import (
	"errors"
	"reflect"
	"sort"
	"sync"
)

// ErrReadOnlyView is returned by every mutator of View and List
var ErrReadOnlyView = errors.New("cannot mutate a read-only view")

// readOnly is the marker shared by View and List
type readOnly interface {
	readOnlyView()
}

// View is a read-only window over a map[string]any. Nested maps and slices
// are wrapped on first access, and the wrapper is cached so repeated access
// returns the same *View or *List. Mutators always fail with ErrReadOnlyView
// and the wrapped map is never written.
//
// View is safe for concurrent readers.
type View struct {
	data  map[string]any
	cache *wrapCache
}

// List is the read-only counterpart of View for []any values
type List struct {
	data  []any
	cache *wrapCache
}

// NewView wraps m. A nil map yields an empty view.
func NewView(m map[string]any) *View {
	return &View{data: m, cache: newWrapCache()}
}

// NewList wraps s
func NewList(s []any) *List {
	return &List{data: s, cache: newWrapCache()}
}

// Wrap returns x wrapped in a View or List when it is a map[string]any or
// []any, and x unchanged otherwise. Already wrapped values are not wrapped
// again.
func Wrap(x any) any {
	if IsView(x) {
		return x
	}
	switch t := x.(type) {
	case map[string]any:
		return NewView(t)
	case []any:
		return NewList(t)
	default:
		return x
	}
}

// IsView reports whether x is a *View or *List
func IsView(x any) bool {
	_, ok := x.(readOnly)
	return ok
}

func (*View) readOnlyView() {}
func (*List) readOnlyView() {}

// Immutable marks views so Freeze does not copy them
func (*View) Immutable() {}

// Immutable marks lists so Freeze does not copy them
func (*List) Immutable() {}

// Get returns the value under key, or nil
func (v *View) Get(key string) any {
	val, _ := v.Lookup(key)
	return val
}

// Lookup returns the value under key and whether it was present
func (v *View) Lookup(key string) (any, bool) {
	if v == nil {
		return nil, false
	}
	val, ok := v.data[key]
	if !ok {
		return nil, false
	}
	return v.cache.wrap(val), true
}

// GetString returns the value under key when it is a string
func (v *View) GetString(key string) (string, bool) {
	s, ok := v.Get(key).(string)
	return s, ok
}

// Path walks nested views, e.g. Path("panel", "datasource", "uid")
func (v *View) Path(keys ...string) (any, bool) {
	var cur any = v
	for _, key := range keys {
		view, ok := cur.(*View)
		if !ok {
			return nil, false
		}
		if cur, ok = view.Lookup(key); !ok {
			return nil, false
		}
	}
	return cur, true
}

// Keys returns the keys in sorted order
func (v *View) Keys() []string {
	if v == nil {
		return nil
	}
	keys := make([]string, 0, len(v.data))
	for k := range v.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of keys
func (v *View) Len() int {
	if v == nil {
		return 0
	}
	return len(v.data)
}

// Set always fails
func (v *View) Set(key string, value any) error {
	return ErrReadOnlyView
}

// Delete always fails
func (v *View) Delete(key string) error {
	return ErrReadOnlyView
}

// Clone returns a deep, mutable copy of the wrapped map
func (v *View) Clone() map[string]any {
	if v == nil || v.data == nil {
		return map[string]any{}
	}
	return Freeze(v.data)
}

// Index returns element i, or nil when out of range
func (l *List) Index(i int) any {
	if l == nil || i < 0 || i >= len(l.data) {
		return nil
	}
	return l.cache.wrap(l.data[i])
}

// Len returns the number of elements
func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.data)
}

// Set always fails
func (l *List) Set(i int, value any) error {
	return ErrReadOnlyView
}

// Append always fails
func (l *List) Append(values ...any) error {
	return ErrReadOnlyView
}

// Clone returns a deep, mutable copy of the wrapped slice
func (l *List) Clone() []any {
	if l == nil || l.data == nil {
		return []any{}
	}
	return Freeze(l.data)
}

type wrapKey struct {
	ptr   uintptr
	len   int
	isMap bool
}

// wrapCache is shared by a view and every view nested under it
type wrapCache struct {
	mu       sync.Mutex
	wrappers map[wrapKey]any
}

func newWrapCache() *wrapCache {
	return &wrapCache{wrappers: make(map[wrapKey]any)}
}

func (c *wrapCache) wrap(val any) any {
	var key wrapKey
	switch t := val.(type) {
	case map[string]any:
		if t == nil {
			return (*View)(nil)
		}
		key = wrapKey{ptr: reflect.ValueOf(t).Pointer(), isMap: true}
	case []any:
		if t == nil {
			return (*List)(nil)
		}
		key = wrapKey{ptr: reflect.ValueOf(t).Pointer(), len: len(t)}
	default:
		return freezeScalar(val)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if w, ok := c.wrappers[key]; ok {
		return w
	}

	var w any
	if key.isMap {
		w = &View{data: val.(map[string]any), cache: c}
	} else {
		w = &List{data: val.([]any), cache: c}
	}
	c.wrappers[key] = w
	return w
}

// freezeScalar copies reference-typed values that are not map[string]any or
// []any (typed slices, maps, pointers) so callers cannot write through them.
func freezeScalar(val any) any {
	if val == nil {
		return nil
	}
	switch reflect.TypeOf(val).Kind() {
	case reflect.Map, reflect.Slice, reflect.Pointer, reflect.Array, reflect.Struct:
		return Freeze(val)
	default:
		return val
	}
}
