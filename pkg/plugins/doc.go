// Package plugins holds the static plugin metadata the extension registries
// consult in developer mode.
//
// # Manifests
//
// Every plugin ships a plugin.yaml declaring the extensions its runtime code
// registers and the exposed components it consumes:
//
//	id: acme-app
//	name: Acme
//	version: 1.2.0
//	type: app
//	extensions:
//	  addedLinks:
//	    - title: Open
//	      targets: [grafana/panel/menu/v1]
//	  exposedComponents:
//	    - id: acme-app/status/v1
//	      title: Status
//	dependencies:
//	  extensions:
//	    exposedComponents: [other-app/widget/v1]
//
// # Sources
//
// Source is the lookup the registries depend on. StaticSource is an in-memory
// map filled by a Loader, optionally kept fresh by a Watcher. CachedSource
// fetches manifests lazily through an expiring LRU cache:
//
//	src := plugins.NewCachedSource(plugins.DirFetcher("/var/lib/plugins"), 256, 5*time.Minute)
//	m, ok := src.Manifest("acme-app")
//
// # Watching
//
//	static := plugins.NewStaticSource()
//	w := plugins.NewWatcher(plugins.NewLoader(dirs, logger), static, logger)
//	go w.Run(ctx)
package plugins
