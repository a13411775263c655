// Package funnelforge provides the core library for the funnelforge page
// builder: a hierarchical page document (sections, rows, columns, elements),
// an edit-time state machine with undo/redo, and a dual-mode renderer that
// produces identical style and visibility resolution in the editing canvas
// and on public storefronts.
package funnelforge

// Device identifies a rendering breakpoint.
type Device string

const (
	DeviceDesktop Device = "desktop"
	DeviceTablet  Device = "tablet"
	DeviceMobile  Device = "mobile"
)

// Viewport breakpoints in CSS pixels.
const (
	BreakpointDesktop = 1024
	BreakpointTablet  = 768
)

// DeviceForWidth maps a viewport width to a device bucket.
func DeviceForWidth(px int) Device {
	switch {
	case px >= BreakpointDesktop:
		return DeviceDesktop
	case px >= BreakpointTablet:
		return DeviceTablet
	default:
		return DeviceMobile
	}
}

// Valid reports whether d is one of the three known devices.
func (d Device) Valid() bool {
	return d == DeviceDesktop || d == DeviceTablet || d == DeviceMobile
}

// StyleMap holds loosely-typed style properties as they appear in the
// persisted document JSON. Keys are camelCase CSS property names; the value
// for the reserved "responsive" key is a nested map of per-device overrides.
type StyleMap map[string]any

// Visibility controls on which devices a node renders. A nil *Visibility
// means visible everywhere; documents persisted before the field existed
// are backfilled by RunMigrationIfNeeded.
type Visibility struct {
	Desktop bool `json:"desktop"`
	Tablet  bool `json:"tablet"`
	Mobile  bool `json:"mobile"`
}

// SectionWidth selects a max-width preset for a section.
type SectionWidth string

const (
	SectionFull   SectionWidth = "full"
	SectionWide   SectionWidth = "wide"
	SectionMedium SectionWidth = "medium"
	SectionSmall  SectionWidth = "small"
)

// Document is the root of a page. It is treated as an immutable value:
// every mutation in the editor produces a new Document.
type Document struct {
	Sections     []Section `json:"sections"`
	GlobalStyles StyleMap  `json:"globalStyles,omitempty"`
	PageStyles   StyleMap  `json:"pageStyles,omitempty"`
}

// Section is a top-level layout band of a page.
type Section struct {
	ID          string       `json:"id"`
	Anchor      string       `json:"anchor,omitempty"`
	Rows        []Row        `json:"rows"`
	Width       SectionWidth `json:"width,omitempty"`
	CustomWidth string       `json:"customWidth,omitempty"`
	Styles      StyleMap     `json:"styles,omitempty"`
	Visibility  *Visibility  `json:"visibility,omitempty"`
}

// Row holds columns in a named fraction layout.
type Row struct {
	ID                 string              `json:"id"`
	Anchor             string              `json:"anchor,omitempty"`
	Columns            []Column            `json:"columns"`
	ColumnLayout       string              `json:"columnLayout,omitempty"`
	CustomColumnWidths *CustomColumnWidths `json:"customColumnWidths,omitempty"`
	Styles             StyleMap            `json:"styles,omitempty"`
	Visibility         *Visibility         `json:"visibility,omitempty"`
}

// CustomColumnWidths overrides the fraction table with explicit per-device
// CSS width values (e.g. "30%", "240px"), one entry per column.
type CustomColumnWidths struct {
	Desktop []string `json:"desktop,omitempty"`
	Tablet  []string `json:"tablet,omitempty"`
	Mobile  []string `json:"mobile,omitempty"`
}

// For returns the explicit widths configured for a device, or nil.
// There is deliberately no desktop fallback here: stacking rules only
// bend for widths the author set for that exact device.
func (w *CustomColumnWidths) For(d Device) []string {
	if w == nil {
		return nil
	}
	switch d {
	case DeviceTablet:
		return w.Tablet
	case DeviceMobile:
		return w.Mobile
	default:
		return w.Desktop
	}
}

// ColumnOverride carries per-device column adjustments.
type ColumnOverride struct {
	Width       *int   `json:"width,omitempty"`
	Hidden      bool   `json:"hidden,omitempty"`
	CustomWidth string `json:"customWidth,omitempty"`
}

// ColumnResponsive groups per-device column overrides.
type ColumnResponsive struct {
	Desktop *ColumnOverride `json:"desktop,omitempty"`
	Tablet  *ColumnOverride `json:"tablet,omitempty"`
	Mobile  *ColumnOverride `json:"mobile,omitempty"`
}

// Column holds leaf elements in render order.
type Column struct {
	ID          string            `json:"id"`
	Anchor      string            `json:"anchor,omitempty"`
	Width       int               `json:"width"` // 1..12
	CustomWidth string            `json:"customWidth,omitempty"`
	Elements    []Element         `json:"elements"`
	Styles      StyleMap          `json:"styles,omitempty"`
	Visibility  *Visibility       `json:"visibility,omitempty"`
	Responsive  *ColumnResponsive `json:"responsive,omitempty"`
}

// Element is a leaf node. Type is an open string resolved against the
// capability registry at render time; Content is element-specific
// configuration.
type Element struct {
	ID         string         `json:"id"`
	Anchor     string         `json:"anchor,omitempty"`
	Type       string         `json:"type"`
	Content    map[string]any `json:"content,omitempty"`
	Styles     StyleMap       `json:"styles,omitempty"`
	Visibility *Visibility    `json:"visibility,omitempty"`
}

// NewDocument creates an empty document.
func NewDocument() *Document {
	return &Document{Sections: []Section{}}
}

// NodeKind identifies a level of the document tree.
type NodeKind string

const (
	KindSection NodeKind = "section"
	KindRow     NodeKind = "row"
	KindColumn  NodeKind = "column"
	KindElement NodeKind = "element"
)

// NodeRef points at exactly one node inside a document. At most one of the
// pointer fields is non-nil, matching Kind.
type NodeRef struct {
	Kind    NodeKind
	Section *Section
	Row     *Row
	Column  *Column
	Element *Element
}

// ID returns the node's id.
func (n NodeRef) ID() string {
	switch n.Kind {
	case KindSection:
		return n.Section.ID
	case KindRow:
		return n.Row.ID
	case KindColumn:
		return n.Column.ID
	case KindElement:
		return n.Element.ID
	}
	return ""
}

// Anchor returns the node's anchor.
func (n NodeRef) Anchor() string {
	switch n.Kind {
	case KindSection:
		return n.Section.Anchor
	case KindRow:
		return n.Row.Anchor
	case KindColumn:
		return n.Column.Anchor
	case KindElement:
		return n.Element.Anchor
	}
	return ""
}

// SetAnchor overwrites the node's anchor in place.
func (n NodeRef) SetAnchor(a string) {
	switch n.Kind {
	case KindSection:
		n.Section.Anchor = a
	case KindRow:
		n.Row.Anchor = a
	case KindColumn:
		n.Column.Anchor = a
	case KindElement:
		n.Element.Anchor = a
	}
}

// Visibility returns the node's visibility flags (nil means visible).
func (n NodeRef) Visibility() *Visibility {
	switch n.Kind {
	case KindSection:
		return n.Section.Visibility
	case KindRow:
		return n.Row.Visibility
	case KindColumn:
		return n.Column.Visibility
	case KindElement:
		return n.Element.Visibility
	}
	return nil
}

// SetVisibility overwrites the node's visibility in place.
func (n NodeRef) SetVisibility(v *Visibility) {
	switch n.Kind {
	case KindSection:
		n.Section.Visibility = v
	case KindRow:
		n.Row.Visibility = v
	case KindColumn:
		n.Column.Visibility = v
	case KindElement:
		n.Element.Visibility = v
	}
}

// Walk visits every node depth-first in render order. Returning false from
// fn stops the walk. The pointers handed to fn alias the document, so Walk
// over a fresh clone is the mutation primitive used by the editor.
func (d *Document) Walk(fn func(NodeRef) bool) {
	for si := range d.Sections {
		s := &d.Sections[si]
		if !fn(NodeRef{Kind: KindSection, Section: s}) {
			return
		}
		for ri := range s.Rows {
			r := &s.Rows[ri]
			if !fn(NodeRef{Kind: KindRow, Row: r}) {
				return
			}
			for ci := range r.Columns {
				c := &r.Columns[ci]
				if !fn(NodeRef{Kind: KindColumn, Column: c}) {
					return
				}
				for ei := range c.Elements {
					if !fn(NodeRef{Kind: KindElement, Element: &c.Elements[ei]}) {
						return
					}
				}
			}
		}
	}
}

// Find locates a node by id at any depth. Ids are matched structurally
// across all four levels, so the same lookup serves update and remove.
func (d *Document) Find(id string) (NodeRef, bool) {
	var found NodeRef
	ok := false
	d.Walk(func(n NodeRef) bool {
		if n.ID() == id {
			found = n
			ok = true
			return false
		}
		return true
	})
	return found, ok
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := &Document{
		Sections:     make([]Section, len(d.Sections)),
		GlobalStyles: cloneStyleMap(d.GlobalStyles),
		PageStyles:   cloneStyleMap(d.PageStyles),
	}
	for i := range d.Sections {
		out.Sections[i] = d.Sections[i].clone()
	}
	return out
}

func (s Section) clone() Section {
	out := s
	out.Rows = make([]Row, len(s.Rows))
	for i := range s.Rows {
		out.Rows[i] = s.Rows[i].clone()
	}
	out.Styles = cloneStyleMap(s.Styles)
	out.Visibility = cloneVisibility(s.Visibility)
	return out
}

func (r Row) clone() Row {
	out := r
	out.Columns = make([]Column, len(r.Columns))
	for i := range r.Columns {
		out.Columns[i] = r.Columns[i].clone()
	}
	if r.CustomColumnWidths != nil {
		w := CustomColumnWidths{
			Desktop: append([]string(nil), r.CustomColumnWidths.Desktop...),
			Tablet:  append([]string(nil), r.CustomColumnWidths.Tablet...),
			Mobile:  append([]string(nil), r.CustomColumnWidths.Mobile...),
		}
		out.CustomColumnWidths = &w
	}
	out.Styles = cloneStyleMap(r.Styles)
	out.Visibility = cloneVisibility(r.Visibility)
	return out
}

func (c Column) clone() Column {
	out := c
	out.Elements = make([]Element, len(c.Elements))
	for i := range c.Elements {
		out.Elements[i] = c.Elements[i].clone()
	}
	out.Styles = cloneStyleMap(c.Styles)
	out.Visibility = cloneVisibility(c.Visibility)
	if c.Responsive != nil {
		r := ColumnResponsive{
			Desktop: cloneOverride(c.Responsive.Desktop),
			Tablet:  cloneOverride(c.Responsive.Tablet),
			Mobile:  cloneOverride(c.Responsive.Mobile),
		}
		out.Responsive = &r
	}
	return out
}

func (e Element) clone() Element {
	out := e
	out.Content = cloneAnyMap(e.Content)
	out.Styles = cloneStyleMap(e.Styles)
	out.Visibility = cloneVisibility(e.Visibility)
	return out
}

func cloneVisibility(v *Visibility) *Visibility {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneOverride(o *ColumnOverride) *ColumnOverride {
	if o == nil {
		return nil
	}
	c := *o
	if o.Width != nil {
		w := *o.Width
		c.Width = &w
	}
	return &c
}

func cloneStyleMap(m StyleMap) StyleMap {
	if m == nil {
		return nil
	}
	return StyleMap(cloneAnyMap(map[string]any(m)))
}

func cloneAnyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

// cloneValue deep-copies the JSON-shaped values a document can carry.
func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneAnyMap(t)
	case StyleMap:
		return cloneStyleMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
