package resolver

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/extensions/pkg/extensions"
	"github.com/platinummonkey/extensions/pkg/observability"
)

// Functions returns the functions registered under req.ExtensionPointID in
// registration order, honoring LimitPerPlugin. Each returned Fn recovers
// panics from plugin code and reports them as errors.
func (r *Resolver) Functions(ctx context.Context, req Request) []Function {
	_, span := observability.StartSpan(ctx, "resolver.Functions",
		attribute.String("extension_point_id", req.ExtensionPointID))
	defer span.End()
	defer r.metrics.ObserveResolve("functions", time.Now())

	items, _ := r.regs.AddedFunctions.State().Get(req.ExtensionPointID)

	counts := make(map[string]int)
	out := make([]Function, 0, len(items))
	for _, item := range items {
		if req.LimitPerPlugin > 0 {
			if counts[item.PluginID] >= req.LimitPerPlugin {
				continue
			}
			counts[item.PluginID]++
		}

		out = append(out, Function{
			Envelope: envelope(extensions.KindFunction, item.ItemMeta),
			Fn:       safeFunction(item.Fn),
		})
	}

	r.metrics.RecordResolved(string(extensions.KindFunction), len(out))
	return out
}

func safeFunction(fn extensions.Function) extensions.Function {
	return func(ctx context.Context, args ...any) (result any, err error) {
		defer func() {
			if p := observability.MustRecover(recover()); p != nil {
				result, err = nil, p
			}
		}()
		return fn(ctx, args...)
	}
}

// ExposedComponent looks up an exposed component by id on behalf of
// consumerPluginID. In developer mode a consumer that did not declare the
// dependency in its manifest gets a warning logged; the lookup still succeeds.
func (r *Resolver) ExposedComponent(ctx context.Context, consumerPluginID, id string) (ExposedComponent, bool) {
	_, span := observability.StartSpan(ctx, "resolver.ExposedComponent",
		attribute.String("exposed_component_id", id))
	defer span.End()

	item, ok := r.regs.ExposedComponents.State().Get(id)
	if !ok {
		return ExposedComponent{}, false
	}

	r.regs.CheckExposedComponentUsage(consumerPluginID, id)
	r.metrics.RecordResolved(string(extensions.KindExposedComponent), 1)

	return ExposedComponent{
		PluginID:    item.PluginID,
		ID:          item.ID,
		Title:       item.Title,
		Description: item.Description,
		Component:   item.Component,
	}, true
}

// RecognizeURL asks every URL recognizer registered under extensionPointID
// about rawURL concurrently. Matches come back in registration order;
// recognizers that fail or panic are logged and skipped. Only an unparsable
// URL is returned as an error.
func (r *Resolver) RecognizeURL(ctx context.Context, extensionPointID, rawURL string) ([]URLMatch, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse url: %w", err)
	}

	ctx, span := observability.StartSpan(ctx, "resolver.RecognizeURL",
		attribute.String("extension_point_id", extensionPointID))
	defer span.End()
	defer r.metrics.ObserveResolve("recognize_url", time.Now())

	items, _ := r.regs.URLRecognizers.State().Get(extensionPointID)
	log := r.requestLogger(ctx, extensionPointID)

	var (
		mu      sync.Mutex
		matches = make([]*URLMatch, len(items))
		g       errgroup.Group
	)
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			metadata, err := recognize(ctx, item.Recognize, u)
			if err != nil {
				log.Error("URL recognizer failed",
					observability.FieldPluginID, item.PluginID,
					observability.FieldTitle, item.Title,
					"error", err,
				)
				return nil
			}
			if metadata == nil {
				return nil
			}

			mu.Lock()
			matches[i] = &URLMatch{
				PluginID:         item.PluginID,
				ExtensionPointID: item.ExtensionPointID,
				Title:            item.Title,
				Metadata:         metadata,
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	out := make([]URLMatch, 0, len(matches))
	for _, m := range matches {
		if m != nil {
			out = append(out, *m)
		}
	}
	span.SetAttributes(attribute.Int("matches", len(out)))
	return out, nil
}

func recognize(ctx context.Context, fn extensions.URLRecognizer, u *url.URL) (metadata map[string]any, err error) {
	defer func() {
		if p := observability.MustRecover(recover()); p != nil {
			metadata, err = nil, p
		}
	}()
	// Each recognizer gets its own copy so none can alter what the others see
	copied := *u
	if u.User != nil {
		user := *u.User
		copied.User = &user
	}
	return fn(ctx, &copied)
}
