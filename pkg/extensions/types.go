package extensions

import (
	"context"
	"net/url"
	"time"

	"github.com/platinummonkey/extensions/pkg/immutable"
)

// Kind discriminates resolved extensions and registry kinds
type Kind string

const (
	KindLink                   Kind = "link"
	KindComponent              Kind = "component"
	KindFunction               Kind = "function"
	KindExposedComponent       Kind = "exposedComponent"
	KindURLRecognizer          Kind = "urlRecognizer"
	KindCommandPaletteProvider Kind = "commandPaletteProvider"
)

// Registry names, used in logs and metrics
const (
	RegistryAddedLinks        = "addedLinks"
	RegistryAddedComponents   = "addedComponents"
	RegistryAddedFunctions    = "addedFunctions"
	RegistryExposedComponents = "exposedComponents"
	RegistryURLRecognizers    = "urlRecognizers"
	RegistryCommandPalette    = "commandPaletteDynamicProviders"
)

// Component renders an extension. props holds the host-supplied props and
// cannot be mutated. Components stored in a registry receive a ctx carrying
// the owning plugin's contextkeys.PluginMeta.
type Component func(ctx context.Context, props *immutable.View) (any, error)

// Function is a callable contributed to an extension point
type Function func(ctx context.Context, args ...any) (any, error)

// ClickHandler runs when the host activates a link. extCtx is the read-only
// context the link was resolved with.
type ClickHandler func(ctx context.Context, extCtx *immutable.View) error

// URLRecognizer inspects a URL and returns metadata about it, or nil when the
// URL is not one the plugin understands
type URLRecognizer func(ctx context.Context, u *url.URL) (map[string]any, error)

// SearchContext is handed to command palette providers
type SearchContext struct {
	SearchQuery string
	// Context is optional host state, read-only
	Context *immutable.View
}

// SearchItem is one command palette result
type SearchItem struct {
	ID          string
	Title       string
	Description string
	Path        string
	Icon        string
	Keywords    []string
	Data        map[string]any
}

// SearchFunc returns command palette results for a query. ctx is cancelled
// when the host abandons the search.
type SearchFunc func(ctx context.Context, sc SearchContext) ([]SearchItem, error)

// Configure is a per-item customization callback, either SyncConfigure or
// AsyncConfigure. A nil override hides the item for that resolution.
type Configure[O any] interface {
	isConfigure(*O)
}

// SyncConfigure customizes an item synchronously
type SyncConfigure[O any] func(extCtx *immutable.View) (*O, error)

// AsyncConfigure customizes an item in the background. Resolution never waits
// on it; the item appears once it settles.
type AsyncConfigure[O any] func(ctx context.Context, extCtx *immutable.View) (*O, error)

func (SyncConfigure[O]) isConfigure(*O)  {}
func (AsyncConfigure[O]) isConfigure(*O) {}

// LinkOverrides are the fields a link's configure callback may replace. Nil
// fields keep the registered value.
type LinkOverrides struct {
	Title       *string
	Description *string
	Path        *string
	Icon        *string
	Category    *string
}

// ComponentOverrides are the fields a component's configure callback may replace
type ComponentOverrides struct {
	Title       *string
	Description *string
}

// Ptr returns a pointer to v, for filling override structs
func Ptr[T any](v T) *T {
	return &v
}

// LinkConfig is a plugin-authored link declaration
type LinkConfig struct {
	Title       string
	Description string
	Targets     []string
	// Path must live under /a/<pluginId>/. Either Path or OnClick is required.
	Path      string
	OnClick   ClickHandler
	Icon      string
	Category  string
	Configure Configure[LinkOverrides]
}

// ComponentConfig is a plugin-authored component declaration
type ComponentConfig struct {
	Title       string
	Description string
	Targets     []string
	Component   Component
	Configure   Configure[ComponentOverrides]
}

// FunctionConfig is a plugin-authored function declaration
type FunctionConfig struct {
	Title       string
	Description string
	Targets     []string
	Fn          Function
}

// ExposedComponentConfig is a component a plugin exposes to others by id
type ExposedComponentConfig struct {
	// ID must start with the owning plugin id, e.g. "acme-app/status/v1"
	ID          string
	Title       string
	Description string
	Component   Component
}

// URLRecognizerConfig is a plugin-authored URL recognizer declaration
type URLRecognizerConfig struct {
	Title       string
	Description string
	Targets     []string
	Recognize   URLRecognizer
}

// CommandPaletteProviderConfig is a dynamic command palette search provider
type CommandPaletteProviderConfig struct {
	Title       string
	Description string
	// Category defaults to the plugin id
	Category string
	// MinQueryLength defaults to DefaultMinQueryLength when nil
	MinQueryLength *int
	// Debounce defaults to DefaultDebounce when zero
	Debounce time.Duration
	IsActive func(sc SearchContext) bool
	Search   SearchFunc
}

// Command palette defaults
const (
	DefaultMinQueryLength = 2
	DefaultDebounce       = 300 * time.Millisecond
)

// ItemMeta is the envelope every stored item carries
type ItemMeta struct {
	PluginID         string
	ExtensionPointID string
	Title            string
	Description      string
}

// LinkItem is a validated link stored under one extension point
type LinkItem struct {
	ItemMeta
	Path      string
	OnClick   ClickHandler
	Icon      string
	Category  string
	Configure Configure[LinkOverrides]
}

// ComponentItem is a validated component stored under one extension point.
// Component is already wrapped with the plugin's runtime context.
type ComponentItem struct {
	ItemMeta
	Component Component
	Configure Configure[ComponentOverrides]
}

// FunctionItem is a validated function stored under one extension point
type FunctionItem struct {
	ItemMeta
	Fn Function
}

// ExposedComponentItem is the single item stored under an exposed id
type ExposedComponentItem struct {
	PluginID    string
	ID          string
	Title       string
	Description string
	Component   Component
}

// URLRecognizerItem is a validated URL recognizer stored under one extension point
type URLRecognizerItem struct {
	ItemMeta
	Recognize URLRecognizer
}

// CommandPaletteProviderItem is a normalized provider stored under "<pluginId>/<title>"
type CommandPaletteProviderItem struct {
	PluginID       string
	Key            string
	Title          string
	Description    string
	Category       string
	MinQueryLength int
	Debounce       time.Duration
	IsActive       func(sc SearchContext) bool
	Search         SearchFunc
}
