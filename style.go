package funnelforge

import (
	"fmt"
	"strings"
)

// ResolvedStyles is the final flat property set for one node on one device.
// Keys stay camelCase as in the document JSON; the renderer converts them to
// CSS syntax when emitting markup.
type ResolvedStyles map[string]string

// Style keys with reserved, non-property meanings inside a StyleMap.
const (
	styleKeyResponsive = "responsive"
	byDeviceSuffix     = "ByDevice"
)

var shorthandSides = [4]string{"Top", "Right", "Bottom", "Left"}

// RenderStyles resolves a node's style map for a device: flat desktop-default
// properties, overridden by styles.responsive[device], then margin/padding
// shorthand expanded into longhand sides wherever no explicit side exists.
// Pure function of its inputs; the editor canvas and the storefront renderer
// call exactly this.
func RenderStyles(styles StyleMap, device Device) ResolvedStyles {
	return MergeResponsiveStyles(nil, styles, device)
}

// MergeResponsiveStyles overlays a node's styles for a device on top of an
// already-resolved base set. base may be nil.
func MergeResponsiveStyles(base ResolvedStyles, styles StyleMap, device Device) ResolvedStyles {
	out := make(ResolvedStyles, len(base)+len(styles))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range styles {
		if k == styleKeyResponsive || strings.HasSuffix(k, byDeviceSuffix) {
			continue
		}
		if s, ok := styleValueString(v); ok {
			out[k] = s
		}
	}
	for k, v := range responsiveOverrides(styles, device) {
		out[k] = v
	}
	for key, prop := range map[string]string{"marginByDevice": "margin", "paddingByDevice": "padding"} {
		if v := spacingBucket(styles, key, device); v != "" {
			out[prop] = v
		}
	}
	expandShorthand(out, "margin")
	expandShorthand(out, "padding")
	return out
}

// responsiveOverrides pulls the device bucket out of styles.responsive.
func responsiveOverrides(styles StyleMap, device Device) ResolvedStyles {
	resp, ok := styles[styleKeyResponsive].(map[string]any)
	if !ok {
		return nil
	}
	bucket, ok := resp[string(device)].(map[string]any)
	if !ok {
		return nil
	}
	out := make(ResolvedStyles, len(bucket))
	for k, v := range bucket {
		if s, ok := styleValueString(v); ok {
			out[k] = s
		}
	}
	return out
}

// spacingBucket resolves a <prop>ByDevice map: the bucket matching the
// device wins, falling back to desktop when a more specific one is absent.
func spacingBucket(styles StyleMap, key string, device Device) string {
	m, ok := styles[key].(map[string]any)
	if !ok {
		return ""
	}
	if s, ok := styleValueString(m[string(device)]); ok && s != "" {
		return s
	}
	if device != DeviceDesktop {
		if s, ok := styleValueString(m[string(DeviceDesktop)]); ok {
			return s
		}
	}
	return ""
}

// expandShorthand splits a margin/padding shorthand into the four longhand
// sides, but only for sides that have no explicit value already; explicit
// per-side overrides always win over shorthand.
func expandShorthand(out ResolvedStyles, prop string) {
	shorthand, ok := out[prop]
	if !ok || strings.TrimSpace(shorthand) == "" {
		return
	}
	sides := splitSides(shorthand)
	for i, side := range shorthandSides {
		key := prop + side
		if _, explicit := out[key]; !explicit {
			out[key] = sides[i]
		}
	}
	delete(out, prop)
}

// splitSides applies CSS shorthand rules: one value for all sides, two for
// vertical/horizontal, three for top/horizontal/bottom, four in TRBL order.
func splitSides(value string) [4]string {
	parts := strings.Fields(value)
	switch len(parts) {
	case 1:
		return [4]string{parts[0], parts[0], parts[0], parts[0]}
	case 2:
		return [4]string{parts[0], parts[1], parts[0], parts[1]}
	case 3:
		return [4]string{parts[0], parts[1], parts[2], parts[1]}
	default:
		if len(parts) >= 4 {
			return [4]string{parts[0], parts[1], parts[2], parts[3]}
		}
		return [4]string{}
	}
}

// GroupStyles resolves a grouped style bundle for compound widgets
// (e.g. a button element's "button" and "price" sub-styles), applying the
// same responsive merge as the node's own styles.
func GroupStyles(styles StyleMap, group string, device Device) ResolvedStyles {
	bundle, ok := styles[group].(map[string]any)
	if !ok {
		return nil
	}
	return RenderStyles(StyleMap(bundle), device)
}

// HasUserBackground reports whether the author set a real background, which
// the editor uses to suppress its default dashed chrome.
func HasUserBackground(styles StyleMap) bool {
	return anyStyleSet(styles, "background", "backgroundColor", "backgroundImage")
}

// HasUserShadow reports whether the author set a shadow.
func HasUserShadow(styles StyleMap) bool {
	return anyStyleSet(styles, "boxShadow", "textShadow")
}

func anyStyleSet(styles StyleMap, keys ...string) bool {
	for _, k := range keys {
		if s, ok := styleValueString(styles[k]); ok && strings.TrimSpace(s) != "" && s != "none" {
			return true
		}
	}
	return false
}

// styleValueString normalizes the scalar values JSON decoding can produce.
func styleValueString(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t)), true
		}
		return fmt.Sprintf("%g", t), true
	case int:
		return fmt.Sprintf("%d", t), true
	case bool:
		return fmt.Sprintf("%t", t), true
	default:
		return "", false
	}
}
