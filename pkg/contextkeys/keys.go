// Package contextkeys provides centralized context key definitions
//
// IMPORTANT: All context keys used across the module must be defined here.
// This prevents typos, documents dependencies, and makes key usage discoverable.
//
// USAGE PATTERN:
//
//	import "github.com/platinummonkey/extensions/pkg/contextkeys"
//	ctx = contextkeys.WithPluginMeta(ctx, contextkeys.PluginMeta{ID: "acme-app"})
//	meta, ok := contextkeys.GetPluginMeta(ctx)
package contextkeys

import "context"

// Key is the type for context keys to prevent collisions
type Key string

const (
	// PluginMetaKey contains PluginMeta
	// Set by: component wrappers built at registration time (pkg/extensions)
	// Required by: Plugin-supplied components that need their own runtime context
	// Type: PluginMeta
	PluginMetaKey Key = "plugin_meta"

	// RequestIDKey contains request ID string (UUID)
	// Set by: resolver.Search, host code
	// Used by: Logger, distributed tracing
	// Type: string
	RequestIDKey Key = "request_id"

	// LoggerKey contains observability.Logger
	// Set by: host code
	// Used by: Components and callbacks that need structured logging
	// Type: observability.Logger
	LoggerKey Key = "logger"
)

// PluginMeta is the runtime context of the plugin that owns an extension
type PluginMeta struct {
	ID      string
	Version string
}

// Helper functions for type-safe context operations

// WithPluginMeta adds the owning plugin's runtime context to the context
func WithPluginMeta(ctx context.Context, meta PluginMeta) context.Context {
	return context.WithValue(ctx, PluginMetaKey, meta)
}

// WithRequestID adds request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithLogger adds logger to the context
func WithLogger(ctx context.Context, logger interface{}) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// GetPluginMeta retrieves the plugin runtime context
func GetPluginMeta(ctx context.Context) (PluginMeta, bool) {
	meta, ok := ctx.Value(PluginMetaKey).(PluginMeta)
	return meta, ok
}

// GetRequestID retrieves request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}
