// Package extensions specializes the generic registry engine into one
// registry per extension kind and holds the rules that gate what a plugin may
// register.
//
// # Kinds
//
//	addedLinks                      LinkConfig             -> []LinkItem per extension point
//	addedComponents                 ComponentConfig        -> []ComponentItem per extension point
//	addedFunctions                  FunctionConfig         -> []FunctionItem per extension point
//	exposedComponents               ExposedComponentConfig -> ExposedComponentItem per id
//	urlRecognizers                  URLRecognizerConfig    -> []URLRecognizerItem per extension point
//	commandPaletteDynamicProviders  CommandPaletteProviderConfig -> item per "<pluginId>/<title>"
//
// # Validation
//
// Each config is checked in order and skipped on the first failure; siblings
// in the same batch are still registered and nothing is returned to the
// caller. Rejections are logged with the plugin id and title attached.
//
//  1. title is required; description is required for links, components,
//     functions and exposed components
//  2. the payload must be present (component, function, recognizer, search)
//  3. links need a path or an onClick handler, and a path must start with
//     /a/<pluginId>/
//  4. targets must start with grafana/, <pluginId>/ or plugins/<pluginId>/,
//     except for the reserved "grafana" plugin. Ids without a "/vN" suffix
//     only log a warning.
//  5. in developer mode, the contribution must be declared in the plugin
//     manifest
//  6. exposed component ids must start with <pluginId>/ and the first
//     registration of an id wins
//
// # Usage
//
//	regs := extensions.NewRegistries(extensions.Options{Logger: logger})
//	regs.AddedLinks.Register(registry.Contribution[extensions.LinkConfig]{
//		PluginID: "acme-app",
//		Configs: []extensions.LinkConfig{{
//			Title:       "Open",
//			Description: "Open in Acme",
//			Path:        "/a/acme-app/open",
//			Targets:     []string{"grafana/panel/menu/v1"},
//		}},
//	})
//
//	host := regs.ReadOnly() // Register returns registry.ErrReadOnly
package extensions
