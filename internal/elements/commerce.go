package elements

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/funnelforge/funnelforge"
)

func registerCommerce(reg *funnelforge.Registry) {
	reg.Register(&funnelforge.Capability{
		Type:        "product-grid",
		Name:        "Product Grid",
		Category:    "commerce",
		Icon:        "grid",
		Description: "Grid of product cards",
		DefaultContent: map[string]any{
			"products": []any{},
			"columns":  3,
		},
		Render: renderProductGrid,
	})

	reg.Register(&funnelforge.Capability{
		Type:        "price",
		Name:        "Price",
		Category:    "commerce",
		Icon:        "tag",
		Description: "Formatted price display",
		DefaultContent: map[string]any{
			"amount":   "0.00",
			"currency": "$",
		},
		Render: renderPrice,
	})
}

func renderProductGrid(ctx funnelforge.RenderContext, el *funnelforge.Element) (string, error) {
	cols := contentInt(el, "columns", 3)
	if cols < 1 || cols > 6 {
		cols = 3
	}
	if ctx.Device == funnelforge.DeviceMobile {
		cols = 1
	}

	products := contentSlice(el, "products")
	if len(products) == 0 {
		if ctx.Editing {
			return `<div class="ff-product-grid ff-placeholder">Add products</div>`, nil
		}
		return "", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<div class="ff-product-grid" style="display:grid;grid-template-columns:repeat(%d, 1fr);gap:16px">`, cols)
	for _, p := range products {
		product, ok := p.(map[string]any)
		if !ok {
			continue
		}
		b.WriteString(`<div class="ff-product-card">`)
		if img, _ := product["image"].(string); img != "" {
			fmt.Fprintf(&b, `<img src="%s" alt="%s" loading="lazy">`,
				escape(img), escape(stringOr(product["title"], "")))
		}
		if title, _ := product["title"].(string); title != "" {
			fmt.Fprintf(&b, `<div class="ff-product-title">%s</div>`, escape(title))
		}
		if price, _ := product["price"].(string); price != "" {
			fmt.Fprintf(&b, `<div class="ff-product-price">%s</div>`, escape(price))
		}
		b.WriteString(`</div>`)
	}
	b.WriteString(`</div>`)
	return b.String(), nil
}

func renderPrice(_ funnelforge.RenderContext, el *funnelforge.Element) (string, error) {
	amount := contentString(el, "amount", "0.00")
	currency := contentString(el, "currency", "$")
	compareAt := contentString(el, "compareAt", "")

	var b strings.Builder
	b.WriteString(`<div class="ff-price">`)
	if compareAt != "" {
		fmt.Fprintf(&b, `<s class="ff-price-compare">%s%s</s> `, escape(currency), escape(compareAt))
	}
	fmt.Fprintf(&b, `<span class="ff-price-amount">%s%s</span>`, escape(currency), escape(amount))
	b.WriteString(`</div>`)
	return b.String(), nil
}

func contentInt(el *funnelforge.Element, key string, fallback int) int {
	if el.Content == nil {
		return fallback
	}
	switch v := el.Content[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func contentSlice(el *funnelforge.Element, key string) []any {
	if el.Content == nil {
		return nil
	}
	s, _ := el.Content[key].([]any)
	return s
}

func stringOr(v any, fallback string) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fallback
}
