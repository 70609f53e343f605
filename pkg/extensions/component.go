package extensions

import (
	"context"

	"github.com/platinummonkey/extensions/pkg/contextkeys"
	"github.com/platinummonkey/extensions/pkg/immutable"
)

// wrapComponent binds c to the owning plugin so every render sees that
// plugin's metadata in ctx, whoever the caller is
func wrapComponent(pluginID, version string, c Component) Component {
	meta := contextkeys.PluginMeta{ID: pluginID, Version: version}
	return func(ctx context.Context, props *immutable.View) (any, error) {
		return c(contextkeys.WithPluginMeta(ctx, meta), props)
	}
}
