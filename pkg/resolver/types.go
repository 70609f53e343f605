package resolver

import (
	"context"

	"github.com/platinummonkey/extensions/pkg/extensions"
)

// Request asks for the extensions registered under one extension point
type Request struct {
	ExtensionPointID string
	// Context is handed read-only to configure callbacks. The caller's map is
	// never modified.
	Context map[string]any
	// LimitPerPlugin caps how many items one plugin contributes; 0 means no cap
	LimitPerPlugin int
}

// Envelope is the part every resolved extension shares
type Envelope struct {
	// ID is ExtensionID(PluginID, ExtensionPointID, registered title)
	ID               string
	Type             extensions.Kind
	PluginID         string
	ExtensionPointID string
	Title            string
	Description      string
}

// Base returns the shared envelope
func (e Envelope) Base() Envelope {
	return e
}

func (Envelope) isExtension() {}

// Extension is one of Link, Component or Function. Switch on the concrete
// type or on Base().Type.
type Extension interface {
	Base() Envelope
	isExtension()
}

// Link is a resolved link. Path already carries the tracking parameters.
type Link struct {
	Envelope
	Path     string
	Icon     string
	Category string
	// OnClick is nil when the link has no click handler. It runs the plugin's
	// handler with the context the link was resolved with.
	OnClick func(ctx context.Context) error
}

// Component is a resolved component, already bound to its plugin's context
type Component struct {
	Envelope
	Component extensions.Component
}

// Function is a resolved function. Panics inside Fn are returned as errors.
type Function struct {
	Envelope
	Fn extensions.Function
}

// ExposedComponent is the single component stored under an exposed id
type ExposedComponent struct {
	PluginID    string
	ID          string
	Title       string
	Description string
	Component   extensions.Component
}

// URLMatch is a non-nil answer from one URL recognizer
type URLMatch struct {
	PluginID         string
	ExtensionPointID string
	Title            string
	Metadata         map[string]any
}

// SearchResultSet is one provider's contribution to a command palette search
type SearchResultSet struct {
	Items    []extensions.SearchItem
	Provider extensions.CommandPaletteProviderItem
}
