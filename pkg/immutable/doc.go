// Package immutable provides the two guards that keep shared extension state safe
// from plugin code.
//
// # Freeze
//
// Freeze deep-copies an object graph so the copy shares no mutable memory with the
// input. Registries freeze every item before publishing a snapshot:
//
//	item = immutable.Freeze(item)
//
// Cycles are handled with a visited set keyed by reference identity. Values that
// implement Immutable (snapshots, views) are returned as they are.
//
// # View
//
// View wraps a caller-supplied context map before it is handed to a configure
// callback. Reads return nested *View and *List wrappers, cached per nested value;
// Set, Delete and Append always return ErrReadOnlyView:
//
//	view := immutable.NewView(map[string]any{"dashboard": map[string]any{"uid": "abc"}})
//	uid, _ := view.Path("dashboard", "uid")
//	err := view.Set("dashboard", nil) // ErrReadOnlyView
//
// A plugin that needs a scratch copy calls Clone.
package immutable
