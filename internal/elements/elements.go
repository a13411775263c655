// Package elements ships the built-in element capabilities, grouped into
// lazily loaded category bundles.
package elements

import (
	"context"
	"fmt"
	"html"

	"github.com/funnelforge/funnelforge"
)

// Categories lists the built-in bundle categories in load-priority order.
var Categories = []string{"basic", "media", "embed", "commerce"}

var bundleTypes = map[string][]string{
	"basic":    {"heading", "text", "button", "divider", "spacer"},
	"media":    {"image", "video"},
	"embed":    {"html"},
	"commerce": {"product-grid", "price"},
}

var bundleLoaders = map[string]func(*funnelforge.Registry){
	"basic":    registerBasic,
	"media":    registerMedia,
	"embed":    registerEmbed,
	"commerce": registerCommerce,
}

// RegisterBundles wires every built-in category into the registry as a
// lazy bundle. Capabilities are registered when a document first needs
// them.
func RegisterBundles(reg *funnelforge.Registry) {
	for _, category := range Categories {
		category := category
		reg.RegisterBundle(category, bundleTypes[category], func(_ context.Context, r *funnelforge.Registry) error {
			bundleLoaders[category](r)
			return nil
		})
	}
}

// RegisterAll registers every built-in capability immediately. Used by
// the CLI, which renders a document once and exits.
func RegisterAll(reg *funnelforge.Registry) {
	RegisterBundles(reg)
	if err := reg.LoadAll(context.Background()); err != nil {
		// Built-in loaders never fail; a non-nil error here is a bug.
		panic(fmt.Sprintf("elements: load built-ins: %v", err))
	}
}

// contentString pulls a string value out of element content, with a
// fallback when the key is absent or not a string.
func contentString(el *funnelforge.Element, key, fallback string) string {
	if el.Content == nil {
		return fallback
	}
	if s, ok := el.Content[key].(string); ok && s != "" {
		return s
	}
	return fallback
}

func escape(s string) string { return html.EscapeString(s) }
