package elements

import (
	"github.com/funnelforge/funnelforge"
)

func registerEmbed(reg *funnelforge.Registry) {
	reg.Register(&funnelforge.Capability{
		Type:        "html",
		Name:        "Custom HTML",
		Category:    "embed",
		Icon:        "code",
		Description: "Raw HTML embed",
		DefaultContent: map[string]any{
			"html": "",
		},
		Render: renderHTML,
	})
}

func renderHTML(ctx funnelforge.RenderContext, el *funnelforge.Element) (string, error) {
	raw := contentString(el, "html", "")
	if ctx.Editing {
		// Never execute author HTML inside the editor; show an inert
		// preview block instead.
		if raw == "" {
			return `<div class="ff-html ff-placeholder">Custom HTML</div>`, nil
		}
		return `<div class="ff-html"><pre class="ff-html-preview">` + escape(raw) + `</pre></div>`, nil
	}
	return `<div class="ff-html">` + raw + `</div>`, nil
}
