package funnelforge

import (
	"fmt"
	"html"
	"log"
	"sort"
	"strings"
	"unicode"
)

// RenderMode selects the renderer variant.
type RenderMode int

const (
	// ModeLive is the read-only storefront walk: invisible nodes produce no
	// output, element failures are isolated per node.
	ModeLive RenderMode = iota
	// ModeEdit is the canvas walk: invisible nodes render dimmed with a
	// badge, and every node carries editing affordances.
	ModeEdit
)

// skeletonDelayMS is the visual-fallback delay after which a still-loading
// element shows the "not available" placeholder instead of the skeleton.
// Emitted as a data attribute for the host to enforce; loading that
// completes later still replaces the placeholder via registry subscribers.
const skeletonDelayMS = 3000

// Renderer walks a document and produces HTML. Both modes share the same
// visibility and style resolution; they differ only in editing chrome and
// in how invisible or failing nodes are presented.
type Renderer struct {
	registry *Registry
	mode     RenderMode
}

// NewRenderer creates a renderer bound to a capability registry.
func NewRenderer(reg *Registry, mode RenderMode) *Renderer {
	return &Renderer{registry: reg, mode: mode}
}

// RenderDocument walks Section → Row → Column → Element in order and
// returns the page markup for a device. It never fails: every per-node
// problem degrades to a placeholder in place.
func (r *Renderer) RenderDocument(doc *Document, device Device) string {
	var b strings.Builder
	b.WriteString(`<div class="ff-page">`)
	for si := range doc.Sections {
		r.renderSection(&b, &doc.Sections[si], device)
	}
	b.WriteString(`</div>`)
	return b.String()
}

func (r *Renderer) renderSection(b *strings.Builder, s *Section, device Device) {
	visible := IsVisible(s.Visibility, device)
	if !visible && r.mode == ModeLive {
		return
	}
	styles := RenderStyles(s.Styles, device)
	styles["maxWidth"] = SectionMaxWidth(s)
	if styles["maxWidth"] != "none" {
		// Center constrained sections, but an author's own side margin wins.
		for _, side := range []string{"marginLeft", "marginRight"} {
			if _, ok := styles[side]; !ok {
				styles[side] = "auto"
			}
		}
	}

	b.WriteString(`<section`)
	writeAnchorID(b, s.Anchor)
	writeClasses(b, "ff-section", r.hiddenClass(visible))
	r.writeEditAttrs(b, KindSection, s.ID, "section-"+s.ID)
	writeStyleAttr(b, styles)
	b.WriteString(`>`)
	r.writeHiddenBadge(b, visible, device)
	for ri := range s.Rows {
		r.renderRow(b, &s.Rows[ri], device)
	}
	b.WriteString(`</section>`)
}

func (r *Renderer) renderRow(b *strings.Builder, row *Row, device Device) {
	visible := IsVisible(row.Visibility, device)
	if !visible && r.mode == ModeLive {
		return
	}
	styles := RenderStyles(row.Styles, device)
	styles["display"] = "grid"
	styles["gridTemplateColumns"] = GridTemplate(row, device)

	b.WriteString(`<div`)
	writeAnchorID(b, row.Anchor)
	writeClasses(b, "ff-row", GridClass(row.ColumnLayout), r.hiddenClass(visible))
	r.writeEditAttrs(b, KindRow, row.ID, "row-"+row.ID)
	writeStyleAttr(b, styles)
	b.WriteString(`>`)
	r.writeHiddenBadge(b, visible, device)
	for ci := range row.Columns {
		r.renderColumn(b, &row.Columns[ci], len(row.Columns), device)
	}
	b.WriteString(`</div>`)
}

func (r *Renderer) renderColumn(b *strings.Builder, col *Column, columnCount int, device Device) {
	visible := IsVisible(col.Visibility, device) && !columnHidden(col, device)
	if !visible && r.mode == ModeLive {
		return
	}
	styles := RenderStyles(col.Styles, device)

	b.WriteString(`<div`)
	writeAnchorID(b, col.Anchor)
	writeClasses(b, "ff-column", r.hiddenClass(visible))
	r.writeEditAttrs(b, KindColumn, col.ID, "column-"+col.ID)
	writeStyleAttr(b, styles)
	b.WriteString(`>`)
	r.writeHiddenBadge(b, visible, device)
	for ei := range col.Elements {
		r.renderElement(b, &col.Elements[ei], columnCount, device)
	}
	b.WriteString(`</div>`)
}

func (r *Renderer) renderElement(b *strings.Builder, el *Element, columnCount int, device Device) {
	visible := IsVisible(el.Visibility, device)
	if !visible && r.mode == ModeLive {
		return
	}
	styles := RenderStyles(el.Styles, device)

	b.WriteString(`<div`)
	writeAnchorID(b, el.Anchor)
	classes := []string{"ff-element", "ff-element-" + sanitizeAnchorPrefix(el.Type)}
	if r.mode == ModeEdit && !HasUserBackground(el.Styles) {
		classes = append(classes, "ff-element-chrome")
	}
	classes = append(classes, r.hiddenClass(visible))
	writeClasses(b, classes...)
	r.writeEditAttrs(b, KindElement, el.ID, "")
	if r.mode == ModeEdit {
		b.WriteString(` draggable="true"`)
	}
	writeStyleAttr(b, styles)
	b.WriteString(`>`)
	r.writeHiddenBadge(b, visible, device)

	c, ok := r.registry.Get(el.Type)
	switch {
	case ok:
		b.WriteString(r.invokeCapability(c, el, columnCount, device))
	case r.mode == ModeLive && r.pendingBundle(el.Type):
		// Bundle still loading: type-aware skeleton, host swaps it for the
		// placeholder after the fallback delay if nothing arrives.
		fmt.Fprintf(b, `<div class="ff-skeleton ff-skeleton-%s" data-element-type=%q data-fallback-delay="%d"></div>`,
			sanitizeAnchorPrefix(el.Type), html.EscapeString(el.Type), skeletonDelayMS)
	case r.mode == ModeEdit:
		fmt.Fprintf(b, `<div class="ff-placeholder">Unknown element type: %s</div>`, html.EscapeString(el.Type))
	default:
		fmt.Fprintf(b, `<div class="ff-placeholder">Element &#39;%s&#39; is not available</div>`, html.EscapeString(el.Type))
	}
	b.WriteString(`</div>`)
}

// invokeCapability runs an element's render function behind a failure
// boundary: a panic or error from one element never blanks its siblings.
func (r *Renderer) invokeCapability(c *Capability, el *Element, columnCount int, device Device) (out string) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("[Renderer] element %q (%s) panicked: %v", el.ID, el.Type, rec)
			out = `<div class="ff-placeholder ff-error">Error rendering element</div>`
		}
	}()
	ctx := RenderContext{
		Device:      device,
		Editing:     r.mode == ModeEdit,
		ColumnCount: columnCount,
		Anchor:      el.Anchor,
	}
	markup, err := c.Render(ctx, el)
	if err != nil {
		log.Printf("[Renderer] element %q (%s) failed: %v", el.ID, el.Type, err)
		return `<div class="ff-placeholder ff-error">Error rendering element</div>`
	}
	return markup
}

// pendingBundle reports whether a type belongs to a bundle whose load is
// still ahead or in flight. A load that already failed is not pending:
// server-rendered output has no later chance to swap a skeleton out, so a
// failed category's types take the unavailable placeholder instead.
func (r *Renderer) pendingBundle(typ string) bool {
	category, ok := r.registry.categoryFor(typ)
	if !ok {
		return false
	}
	return !r.registry.Loaded(category) && !r.registry.LoadFailed(category)
}

func (r *Renderer) hiddenClass(visible bool) string {
	if visible || r.mode != ModeEdit {
		return ""
	}
	return "ff-hidden-dimmed"
}

// writeHiddenBadge emits the editor's "hidden on <device>" badge so authors
// can still find and edit invisible content.
func (r *Renderer) writeHiddenBadge(b *strings.Builder, visible bool, device Device) {
	if visible || r.mode != ModeEdit {
		return
	}
	fmt.Fprintf(b, `<span class="ff-hidden-badge">Hidden on %s</span>`, device)
}

// writeEditAttrs emits the editing affordance attributes: node identity for
// selection and the drop-target path the drag-and-drop host dispatches on.
// Presentation-only; never alters style or visibility outcomes.
func (r *Renderer) writeEditAttrs(b *strings.Builder, kind NodeKind, id, dropPath string) {
	if r.mode != ModeEdit {
		return
	}
	fmt.Fprintf(b, ` data-node-kind=%q data-node-id=%q`, kind, id)
	if dropPath != "" {
		fmt.Fprintf(b, ` data-drop-target=%q`, dropPath)
	}
}

func columnHidden(col *Column, device Device) bool {
	if col.Responsive == nil {
		return false
	}
	var o *ColumnOverride
	switch device {
	case DeviceTablet:
		o = col.Responsive.Tablet
	case DeviceMobile:
		o = col.Responsive.Mobile
	default:
		o = col.Responsive.Desktop
	}
	return o != nil && o.Hidden
}

func writeAnchorID(b *strings.Builder, anchor string) {
	if anchor != "" {
		fmt.Fprintf(b, ` id=%q`, anchor)
	}
}

func writeClasses(b *strings.Builder, classes ...string) {
	kept := classes[:0]
	for _, c := range classes {
		if c != "" {
			kept = append(kept, c)
		}
	}
	fmt.Fprintf(b, ` class=%q`, strings.Join(kept, " "))
}

// writeStyleAttr emits a deterministic inline style attribute: keys sorted,
// camelCase converted to CSS property syntax.
func writeStyleAttr(b *strings.Builder, styles ResolvedStyles) {
	if len(styles) == 0 {
		return
	}
	keys := make([]string, 0, len(styles))
	for k := range styles {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	for _, k := range keys {
		v := styles[k]
		if v == "" {
			continue
		}
		sb.WriteString(cssPropertyName(k))
		sb.WriteString(":")
		sb.WriteString(v)
		sb.WriteString(";")
	}
	if sb.Len() == 0 {
		return
	}
	fmt.Fprintf(b, ` style=%q`, sb.String())
}

// cssPropertyName converts camelCase to kebab-case (backgroundColor →
// background-color).
func cssPropertyName(k string) string {
	var b strings.Builder
	for _, r := range k {
		if unicode.IsUpper(r) {
			b.WriteByte('-')
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
