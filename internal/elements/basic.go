package elements

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/funnelforge/funnelforge"
)

var textMarkdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

var headingTags = map[string]bool{
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

func registerBasic(reg *funnelforge.Registry) {
	reg.Register(&funnelforge.Capability{
		Type:        "heading",
		Name:        "Heading",
		Category:    "basic",
		Icon:        "type",
		Description: "Section heading (h1-h6)",
		DefaultContent: map[string]any{
			"text": "Your Headline Here",
			"tag":  "h2",
		},
		Render: renderHeading,
	})

	reg.Register(&funnelforge.Capability{
		Type:        "text",
		Name:        "Text",
		Category:    "basic",
		Icon:        "align-left",
		Description: "Paragraph text with markdown support",
		DefaultContent: map[string]any{
			"text": "Enter your text here",
		},
		Render: renderText,
	})

	reg.Register(&funnelforge.Capability{
		Type:        "button",
		Name:        "Button",
		Category:    "basic",
		Icon:        "square",
		Description: "Call-to-action button",
		DefaultContent: map[string]any{
			"text": "Click Me",
			"href": "#",
		},
		Render: renderButton,
	})

	reg.Register(&funnelforge.Capability{
		Type:        "divider",
		Name:        "Divider",
		Category:    "basic",
		Icon:        "minus",
		Description: "Horizontal rule",
		Render: func(_ funnelforge.RenderContext, _ *funnelforge.Element) (string, error) {
			return `<hr class="ff-divider">`, nil
		},
	})

	reg.Register(&funnelforge.Capability{
		Type:        "spacer",
		Name:        "Spacer",
		Category:    "basic",
		Icon:        "move-vertical",
		Description: "Vertical spacing",
		DefaultContent: map[string]any{
			"height": "40px",
		},
		Render: renderSpacer,
	})
}

func renderHeading(_ funnelforge.RenderContext, el *funnelforge.Element) (string, error) {
	tag := strings.ToLower(contentString(el, "tag", "h2"))
	if !headingTags[tag] {
		tag = "h2"
	}
	text := contentString(el, "text", "")
	return fmt.Sprintf(`<%s class="ff-heading">%s</%s>`, tag, escape(text), tag), nil
}

func renderText(_ funnelforge.RenderContext, el *funnelforge.Element) (string, error) {
	text := contentString(el, "text", "")
	var buf bytes.Buffer
	if err := textMarkdown.Convert([]byte(text), &buf); err != nil {
		return "", fmt.Errorf("text element: %w", err)
	}
	return `<div class="ff-text">` + buf.String() + `</div>`, nil
}

func renderButton(ctx funnelforge.RenderContext, el *funnelforge.Element) (string, error) {
	text := contentString(el, "text", "Click Me")
	href := contentString(el, "href", "#")
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(href)), "javascript:") {
		href = "#"
	}
	// Links are inert inside the editor so a click selects instead of
	// navigating.
	if ctx.Editing {
		return fmt.Sprintf(`<a class="ff-button" href="#" data-href="%s" onclick="return false">%s</a>`,
			escape(href), escape(text)), nil
	}
	return fmt.Sprintf(`<a class="ff-button" href="%s">%s</a>`, escape(href), escape(text)), nil
}

func renderSpacer(_ funnelforge.RenderContext, el *funnelforge.Element) (string, error) {
	height := contentString(el, "height", "40px")
	return fmt.Sprintf(`<div class="ff-spacer" style="height:%s"></div>`, escape(height)), nil
}
