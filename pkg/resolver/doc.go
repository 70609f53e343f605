// Package resolver turns the contents of the extension registries into the
// lists the host renders.
//
// # Resolution
//
// Resolve walks the links and then the components registered under one
// extension point, in registration order:
//
//  1. items beyond Request.LimitPerPlugin for their plugin are skipped
//  2. a configure callback, if any, runs with a read-only view of
//     Request.Context; nil overrides hide the item, an error hides it and is
//     logged, and an override that empties the title drops it
//  3. the id is derived from plugin id, extension point id and title
//  4. link paths get plugin-id and extension-point-id query parameters
//
// A failure in one item never affects the others, and nothing is returned to
// the caller as an error.
//
//	r := resolver.New(regs.ReadOnly(), resolver.Options{})
//	for _, ext := range r.Resolve(ctx, resolver.Request{ExtensionPointID: "grafana/panel/menu/v1"}) {
//		switch e := ext.(type) {
//		case resolver.Link:
//			render(e.Title, e.Path)
//		case resolver.Component:
//			e.Component(ctx, props)
//		}
//	}
//
// # Incremental resolution
//
// Watch emits the static items at once and re-emits as each asynchronous
// customization settles. A callback that never settles never blocks the
// others.
//
// # Command palette
//
// Search queries every active provider concurrently, validates and truncates
// their results, and returns them keyed by "<pluginId>/<title>".
package resolver
