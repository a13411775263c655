package funnelforge

import (
	"fmt"
	"strings"
)

// ColumnLayouts maps layout keys to 12-based column width fractions.
// Every entry sums to 12. Unknown keys fail closed to a single
// full-width column.
var ColumnLayouts = map[string][]int{
	"1":           {12},
	"1-1":         {6, 6},
	"1-1-1":       {4, 4, 4},
	"1-1-1-1":     {3, 3, 3, 3},
	"1-2":         {4, 8},
	"2-1":         {8, 4},
	"1-2-1":       {3, 6, 3},
	"1-3":         {3, 9},
	"3-1":         {9, 3},
	"1-1-1-1-1-1": {2, 2, 2, 2, 2, 2},
}

// layoutGridClasses is the responsive-grid-class table parallel to
// ColumnLayouts, for hosts that style rows with utility classes instead of
// inline grid templates.
var layoutGridClasses = map[string]string{
	"1":           "ff-grid-1",
	"1-1":         "ff-grid-1 ff-grid-md-2",
	"1-1-1":       "ff-grid-1 ff-grid-md-3",
	"1-1-1-1":     "ff-grid-1 ff-grid-md-4",
	"1-2":         "ff-grid-1 ff-grid-md-1-2",
	"2-1":         "ff-grid-1 ff-grid-md-2-1",
	"1-2-1":       "ff-grid-1 ff-grid-md-1-2-1",
	"1-3":         "ff-grid-1 ff-grid-md-1-3",
	"3-1":         "ff-grid-1 ff-grid-md-3-1",
	"1-1-1-1-1-1": "ff-grid-1 ff-grid-md-6",
}

// LayoutFractions returns the column-width fractions for a layout key.
// Unknown keys return the single full-width column.
func LayoutFractions(key string) []int {
	if f, ok := ColumnLayouts[key]; ok {
		return f
	}
	return []int{12}
}

// GridClass returns the responsive class string for a layout key.
func GridClass(key string) string {
	if c, ok := layoutGridClasses[key]; ok {
		return c
	}
	return "ff-grid-1"
}

// GridTemplate computes the CSS grid-template-columns value for a row on a
// device. Mobile always collapses to a single column unless explicit custom
// widths are configured for mobile. Tablet stacks every multi-column layout
// unless the layout is "1" or explicit tablet custom widths are set.
// Desktop uses the fraction table, or custom desktop widths when present.
func GridTemplate(row *Row, device Device) string {
	if widths := row.CustomColumnWidths.For(device); len(widths) > 0 {
		return strings.Join(widths, " ")
	}
	// Mobile always stacks; tablet stacks every layout too (a "1" layout is
	// already single-column), so only desktop consults the fraction table.
	if device == DeviceMobile || device == DeviceTablet {
		return "1fr"
	}
	fractions := LayoutFractions(row.ColumnLayout)
	parts := make([]string, len(fractions))
	for i, f := range fractions {
		parts[i] = fmt.Sprintf("%dfr", f)
	}
	return strings.Join(parts, " ")
}

// SectionMaxWidth returns the CSS max-width for a section. CustomWidth,
// when set, overrides the preset.
func SectionMaxWidth(s *Section) string {
	if s.CustomWidth != "" {
		return s.CustomWidth
	}
	switch s.Width {
	case SectionWide:
		return "1280px"
	case SectionMedium:
		return "1024px"
	case SectionSmall:
		return "768px"
	default:
		return "none"
	}
}
