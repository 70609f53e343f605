// Package registry provides the generic, append-only state container behind every
// typed extension registry.
//
// # Overview
//
// A Registry accepts Contribution batches and folds each one into a new Snapshot
// through a kind-specific MapFunc. Snapshots form a total order: snapshot 0 is
// empty and snapshot n is the fold of snapshot n-1 with batch n.
//
//	links := registry.New("addedLinks", mapLinks, registry.Options{Logger: logger})
//	err := links.Register(registry.Contribution[LinkConfig]{PluginID: "acme-app", Configs: configs})
//	state := links.State()
//
// # Subscriptions
//
// Subscribe replays the current snapshot and then delivers every later one in
// publish order. Each subscriber has its own unbounded queue, so slow readers
// never miss a snapshot and never slow down Register.
//
//	sub := links.Subscribe(ctx)
//	for snap := range sub.C() {
//		render(snap)
//	}
//
// # Read-only handles
//
// ReadOnly returns a handle sharing the same state whose Register fails with
// ErrReadOnly. Hand it to consumers that must never contribute.
package registry
