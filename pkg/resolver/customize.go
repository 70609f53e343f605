package resolver

import (
	"context"
	"errors"
	"strings"

	"github.com/platinummonkey/extensions/pkg/extensions"
	"github.com/platinummonkey/extensions/pkg/immutable"
	"github.com/platinummonkey/extensions/pkg/observability"
)

// Customization failure reasons, used as metric labels
const (
	reasonError   = "error"
	reasonPanic   = "panic"
	reasonInvalid = "invalid"
)

var errEmptyTitle = errors.New("configure must not set an empty title")

// customize runs configure and turns its outcome into a candidate. apply
// builds the extension from the overrides (nil when there is no callback) and
// returns nil when the result is invalid. A callback returning nil overrides
// hides the item without logging.
func customize[O any](configure extensions.Configure[O], view *immutable.View, apply func(*O) Extension, fail func(reason string, err error)) (candidate, bool) {
	switch fn := configure.(type) {
	case extensions.SyncConfigure[O]:
		o, err := callConfigure(func() (*O, error) { return fn(view) })
		ext := settleOutcome(o, err, apply, fail)
		return candidate{static: ext}, ext != nil

	case extensions.AsyncConfigure[O]:
		return candidate{settle: func(ctx context.Context) (Extension, error) {
			o, err := callConfigure(func() (*O, error) { return fn(ctx, view) })
			return settleOutcome(o, err, apply, fail), nil
		}}, true

	default:
		ext := apply(nil)
		return candidate{static: ext}, ext != nil
	}
}

func settleOutcome[O any](o *O, err error, apply func(*O) Extension, fail func(string, error)) Extension {
	if err != nil {
		reason := reasonError
		if errors.Is(err, errConfigurePanic) {
			reason = reasonPanic
		}
		fail(reason, err)
		return nil
	}
	if o == nil {
		return nil
	}
	return apply(o)
}

var errConfigurePanic = errors.New("configure panicked")

// callConfigure runs fn, turning a panic into an error
func callConfigure[O any](fn func() (*O, error)) (o *O, err error) {
	defer func() {
		if p := observability.MustRecover(recover()); p != nil {
			o, err = nil, errors.Join(errConfigurePanic, p)
		}
	}()
	return fn()
}

func (r *Resolver) customizeFailed(log observability.Logger) func(reason string, err error) {
	return func(reason string, err error) {
		log.Error("Failed to configure extension, hiding it", "reason", reason, "error", err)
		r.metrics.RecordCustomizeFailure(reason)
	}
}

// isolate recovers a panic raised while preparing one item so the remaining
// items of the same resolution still get processed
func (r *Resolver) isolate(log observability.Logger, c *candidate, ok *bool) {
	if err := observability.MustRecover(recover()); err != nil {
		log.Error("Failed to resolve extension", "error", err)
		r.metrics.RecordCustomizeFailure(reasonPanic)
		*c, *ok = candidate{}, false
	}
}

func (r *Resolver) linkCandidate(item extensions.LinkItem, view *immutable.View, log observability.Logger) (c candidate, ok bool) {
	log = log.Child(observability.Fields{
		observability.FieldPluginID: item.PluginID,
		observability.FieldTitle:    item.Title,
	})
	defer r.isolate(log, &c, &ok)

	fail := r.customizeFailed(log)
	apply := func(o *extensions.LinkOverrides) Extension {
		link, err := buildLink(item, o, view, log)
		if err != nil {
			fail(reasonInvalid, err)
			return nil
		}
		return link
	}
	return customize(item.Configure, view, apply, fail)
}

func (r *Resolver) componentCandidate(item extensions.ComponentItem, view *immutable.View, log observability.Logger) (c candidate, ok bool) {
	log = log.Child(observability.Fields{
		observability.FieldPluginID: item.PluginID,
		observability.FieldTitle:    item.Title,
	})
	defer r.isolate(log, &c, &ok)

	fail := r.customizeFailed(log)
	apply := func(o *extensions.ComponentOverrides) Extension {
		component, err := buildComponent(item, o)
		if err != nil {
			fail(reasonInvalid, err)
			return nil
		}
		return component
	}
	return customize(item.Configure, view, apply, fail)
}

func envelope(kind extensions.Kind, meta extensions.ItemMeta) Envelope {
	return Envelope{
		ID:               ExtensionID(meta.PluginID, meta.ExtensionPointID, meta.Title),
		Type:             kind,
		PluginID:         meta.PluginID,
		ExtensionPointID: meta.ExtensionPointID,
		Title:            meta.Title,
		Description:      meta.Description,
	}
}

// buildLink merges overrides into item. Tracking parameters are appended to
// whatever path wins.
func buildLink(item extensions.LinkItem, o *extensions.LinkOverrides, view *immutable.View, log observability.Logger) (Link, error) {
	link := Link{
		Envelope: envelope(extensions.KindLink, item.ItemMeta),
		Path:     item.Path,
		Icon:     item.Icon,
		Category: item.Category,
	}

	if o != nil {
		if o.Title != nil {
			link.Title = *o.Title
		}
		if o.Description != nil {
			link.Description = *o.Description
		}
		if o.Path != nil {
			if extensions.IsLinkPathValid(item.PluginID, *o.Path) {
				link.Path = *o.Path
			} else {
				log.Error("Ignoring path override outside the plugin namespace", "path", *o.Path)
			}
		}
		if o.Icon != nil {
			link.Icon = *o.Icon
		}
		if o.Category != nil {
			link.Category = *o.Category
		}
	}

	if strings.TrimSpace(link.Title) == "" {
		return Link{}, errEmptyTitle
	}

	link.Path = appendTrackingParams(link.Path, item.PluginID, item.ExtensionPointID)
	if item.OnClick != nil {
		link.OnClick = bindClick(item.OnClick, view)
	}
	return link, nil
}

func buildComponent(item extensions.ComponentItem, o *extensions.ComponentOverrides) (Component, error) {
	component := Component{
		Envelope:  envelope(extensions.KindComponent, item.ItemMeta),
		Component: item.Component,
	}

	if o != nil {
		if o.Title != nil {
			component.Title = *o.Title
		}
		if o.Description != nil {
			component.Description = *o.Description
		}
	}

	if strings.TrimSpace(component.Title) == "" {
		return Component{}, errEmptyTitle
	}
	return component, nil
}

// bindClick closes the handler over the resolution context and recovers panics
func bindClick(handler extensions.ClickHandler, view *immutable.View) func(context.Context) error {
	return func(ctx context.Context) (err error) {
		defer func() {
			if p := observability.MustRecover(recover()); p != nil {
				err = p
			}
		}()
		return handler(ctx, view)
	}
}
