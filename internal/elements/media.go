package elements

import (
	"fmt"

	"github.com/funnelforge/funnelforge"
)

func registerMedia(reg *funnelforge.Registry) {
	reg.Register(&funnelforge.Capability{
		Type:        "image",
		Name:        "Image",
		Category:    "media",
		Icon:        "image",
		Description: "Responsive image",
		DefaultContent: map[string]any{
			"src": "",
			"alt": "",
		},
		Render: renderImage,
	})

	reg.Register(&funnelforge.Capability{
		Type:        "video",
		Name:        "Video",
		Category:    "media",
		Icon:        "play",
		Description: "HTML5 video player",
		DefaultContent: map[string]any{
			"src":    "",
			"poster": "",
		},
		Render: renderVideo,
	})
}

func renderImage(ctx funnelforge.RenderContext, el *funnelforge.Element) (string, error) {
	src := contentString(el, "src", "")
	alt := contentString(el, "alt", "")
	if src == "" {
		if ctx.Editing {
			return `<div class="ff-image ff-placeholder">Add an image</div>`, nil
		}
		return "", nil
	}
	return fmt.Sprintf(`<img class="ff-image" src="%s" alt="%s" loading="lazy">`,
		escape(src), escape(alt)), nil
}

func renderVideo(ctx funnelforge.RenderContext, el *funnelforge.Element) (string, error) {
	src := contentString(el, "src", "")
	if src == "" {
		if ctx.Editing {
			return `<div class="ff-video ff-placeholder">Add a video</div>`, nil
		}
		return "", nil
	}
	poster := contentString(el, "poster", "")
	posterAttr := ""
	if poster != "" {
		posterAttr = fmt.Sprintf(` poster="%s"`, escape(poster))
	}
	controls := " controls"
	if ctx.Editing {
		// Playback controls would swallow drag events in the editor.
		controls = ""
	}
	return fmt.Sprintf(`<video class="ff-video" src="%s"%s%s preload="metadata"></video>`,
		escape(src), posterAttr, controls), nil
}
