package immutable

import (
	"reflect"
)

// Immutable is implemented by values that cannot be mutated through any
// exported API. Freeze returns them unchanged instead of copying them.
type Immutable interface {
	Immutable()
}

var immutableType = reflect.TypeOf((*Immutable)(nil)).Elem()

// Freeze returns a deep copy of v that shares no mutable memory with v.
//
// Maps, slices, arrays, pointers and interfaces are copied recursively, and
// exported struct fields are copied field by field. Functions and channels are
// shared, since they carry no data Freeze could copy. Unexported struct fields
// are copied shallowly. Values implementing Immutable pass through untouched.
//
// Cyclic graphs terminate: every reference is cloned at most once, keyed by its
// identity, so a revisited reference resolves to the clone already made. Two
// distinct but structurally equal subgraphs stay distinct.
func Freeze[T any](v T) T {
	rv := reflect.ValueOf(&v).Elem()
	f := freezer{visited: make(map[visitKey]reflect.Value)}
	out := f.clone(rv)
	if !out.IsValid() {
		return v
	}
	frozen, _ := out.Interface().(T)
	return frozen
}

type visitKey struct {
	ptr uintptr
	typ reflect.Type
	len int
}

type freezer struct {
	visited map[visitKey]reflect.Value
}

func (f freezer) clone(v reflect.Value) reflect.Value {
	if !v.IsValid() {
		return v
	}

	if v.Type().Implements(immutableType) && v.CanInterface() {
		return v
	}

	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return v
		}
		key := visitKey{ptr: v.Pointer(), typ: v.Type()}
		if done, ok := f.visited[key]; ok {
			return done
		}
		out := reflect.New(v.Type().Elem())
		f.visited[key] = out
		out.Elem().Set(f.clone(v.Elem()))
		return out

	case reflect.Map:
		if v.IsNil() {
			return v
		}
		key := visitKey{ptr: v.Pointer(), typ: v.Type()}
		if done, ok := f.visited[key]; ok {
			return done
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		f.visited[key] = out
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(f.clone(iter.Key()), f.assignable(iter.Value(), v.Type().Elem()))
		}
		return out

	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		key := visitKey{ptr: v.Pointer(), typ: v.Type(), len: v.Len()}
		if done, ok := f.visited[key]; ok {
			return done
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		f.visited[key] = out
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(f.assignable(v.Index(i), v.Type().Elem()))
		}
		return out

	case reflect.Array:
		out := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(f.assignable(v.Index(i), v.Type().Elem()))
		}
		return out

	case reflect.Struct:
		out := reflect.New(v.Type()).Elem()
		out.Set(v)
		for i := 0; i < v.NumField(); i++ {
			field := out.Field(i)
			if !field.CanSet() {
				continue
			}
			field.Set(f.assignable(v.Field(i), field.Type()))
		}
		return out

	case reflect.Interface:
		if v.IsNil() {
			return v
		}
		return f.assignable(v.Elem(), v.Type())

	default:
		return v
	}
}

// assignable clones v and converts the result so it can be stored in a slot of type t
func (f freezer) assignable(v reflect.Value, t reflect.Type) reflect.Value {
	out := f.clone(v)
	if !out.IsValid() {
		return reflect.Zero(t)
	}
	if out.Type() == t {
		return out
	}
	slot := reflect.New(t).Elem()
	slot.Set(out)
	return slot
}
