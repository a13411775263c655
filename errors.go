package funnelforge

import (
	"fmt"
	"strings"
)

// DocumentError describes a structural problem found while validating a
// document, with enough context to point an author at the offending node.
type DocumentError struct {
	Path    string // e.g. "sections[0].rows[1]"
	NodeID  string // id of the offending node, when known
	Message string
	Hint    string
}

// Error implements the error interface.
func (e *DocumentError) Error() string {
	var b strings.Builder
	if e.Path != "" {
		b.WriteString(e.Path)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Hint != "" {
		b.WriteString(" (hint: ")
		b.WriteString(e.Hint)
		b.WriteString(")")
	}
	return b.String()
}

// WithHint attaches a suggestion to the error.
func (e *DocumentError) WithHint(hint string) *DocumentError {
	e.Hint = hint
	return e
}

func newDocumentError(path, nodeID, format string, args ...any) *DocumentError {
	return &DocumentError{Path: path, NodeID: nodeID, Message: fmt.Sprintf(format, args...)}
}

// Validate checks the structural invariants of a document: non-empty unique
// ids, unique anchors, column counts consistent with the chosen layout, and
// column widths within 1..12. It returns every problem found rather than
// stopping at the first.
func Validate(doc *Document) []*DocumentError {
	var errs []*DocumentError
	ids := make(map[string]string)     // id -> first path
	anchors := make(map[string]string) // anchor -> first path

	checkID := func(path, id string) {
		if id == "" {
			errs = append(errs, newDocumentError(path, "", "missing id"))
			return
		}
		if first, dup := ids[id]; dup {
			errs = append(errs, newDocumentError(path, id, "duplicate id %q (first used at %s)", id, first).
				WithHint("every node id must be unique within the document"))
			return
		}
		ids[id] = path
	}
	checkAnchor := func(path, id, anchor string) {
		if anchor == "" {
			return // assigned on the next EnsureAnchors pass
		}
		if first, dup := anchors[anchor]; dup {
			errs = append(errs, newDocumentError(path, id, "duplicate anchor %q (first used at %s)", anchor, first).
				WithHint("run anchor repair to regenerate colliding anchors"))
			return
		}
		anchors[anchor] = path
	}

	for si := range doc.Sections {
		s := &doc.Sections[si]
		sp := fmt.Sprintf("sections[%d]", si)
		checkID(sp, s.ID)
		checkAnchor(sp, s.ID, s.Anchor)
		for ri := range s.Rows {
			r := &s.Rows[ri]
			rp := fmt.Sprintf("%s.rows[%d]", sp, ri)
			checkID(rp, r.ID)
			checkAnchor(rp, r.ID, r.Anchor)
			if r.ColumnLayout != "" {
				if _, known := ColumnLayouts[r.ColumnLayout]; !known {
					errs = append(errs, newDocumentError(rp, r.ID, "unknown columnLayout %q", r.ColumnLayout).
						WithHint("the row will render as a single full-width column"))
				} else if r.CustomColumnWidths == nil {
					want := len(ColumnLayouts[r.ColumnLayout])
					if len(r.Columns) != want {
						errs = append(errs, newDocumentError(rp, r.ID,
							"columnLayout %q expects %d columns, found %d", r.ColumnLayout, want, len(r.Columns)).
							WithHint("set customColumnWidths to override the fraction table"))
					}
				}
			}
			for ci := range r.Columns {
				c := &r.Columns[ci]
				cp := fmt.Sprintf("%s.columns[%d]", rp, ci)
				checkID(cp, c.ID)
				checkAnchor(cp, c.ID, c.Anchor)
				if c.Width < 1 || c.Width > 12 {
					errs = append(errs, newDocumentError(cp, c.ID, "column width %d out of range 1..12", c.Width))
				}
				for ei := range c.Elements {
					el := &c.Elements[ei]
					ep := fmt.Sprintf("%s.elements[%d]", cp, ei)
					checkID(ep, el.ID)
					checkAnchor(ep, el.ID, el.Anchor)
					if el.Type == "" {
						errs = append(errs, newDocumentError(ep, el.ID, "element has no type"))
					}
				}
			}
		}
	}
	return errs
}
