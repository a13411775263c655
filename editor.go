package funnelforge

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// defaultHistoryLimit caps how many past snapshots an editing session keeps.
const defaultHistoryLimit = 50

// SelectedNode mirrors the node the author currently has selected.
type SelectedNode struct {
	Kind NodeKind `json:"kind"`
	ID   string   `json:"id"`
}

// Editor is the edit-time state machine: the sole mutator of a document
// during an editing session. Every mutation produces a new immutable
// snapshot; undo/redo is a classic linear history over whole snapshots.
// All operations are no-ops when their target cannot be found, so fast
// successive UI edits never raise errors for stale ids.
type Editor struct {
	mu      sync.Mutex
	past    []*Document
	present *Document
	future  []*Document

	selected *SelectedNode
	device   Device
	preview  bool

	gen        IDGenerator
	newID      func() string
	maxHistory int
}

// EditorOption configures a new editor.
type EditorOption func(*Editor)

// WithIDGenerator injects the anchor suffix generator (deterministic in tests).
func WithIDGenerator(gen IDGenerator) EditorOption {
	return func(e *Editor) { e.gen = gen }
}

// WithNewID injects the node-id factory (deterministic in tests).
func WithNewID(fn func() string) EditorOption {
	return func(e *Editor) { e.newID = fn }
}

// WithHistoryLimit overrides the undo-history cap.
func WithHistoryLimit(n int) EditorOption {
	return func(e *Editor) {
		if n > 0 {
			e.maxHistory = n
		}
	}
}

// NewEditor starts an editing session. The document is migrated (visibility
// backfill) and anchor-repaired before the first snapshot, so undo never
// reaches a pre-migration shape.
func NewEditor(doc *Document, opts ...EditorOption) *Editor {
	e := &Editor{
		device:     DeviceDesktop,
		gen:        DefaultIDGenerator,
		newID:      uuid.NewString,
		maxHistory: defaultHistoryLimit,
	}
	for _, opt := range opts {
		opt(e)
	}
	if doc == nil {
		doc = NewDocument()
	}
	doc = RunMigrationIfNeeded(doc)
	e.present = EnsureAnchors(doc, e.gen)
	return e
}

// Document returns the current snapshot. Callers must treat it as read-only.
func (e *Editor) Document() *Document {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.present
}

// Device returns the active preview device.
func (e *Editor) Device() Device {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.device
}

// SetDevice switches the preview device. Unknown values are ignored.
func (e *Editor) SetDevice(d Device) {
	if !d.Valid() {
		return
	}
	e.mu.Lock()
	e.device = d
	e.mu.Unlock()
}

// PreviewMode reports whether the canvas is in preview mode.
func (e *Editor) PreviewMode() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.preview
}

// SetPreviewMode toggles preview. Entering preview clears the selection,
// since preview renders no selectable chrome.
func (e *Editor) SetPreviewMode(on bool) {
	e.mu.Lock()
	e.preview = on
	if on {
		e.selected = nil
	}
	e.mu.Unlock()
}

// Selected returns the current selection, or nil.
func (e *Editor) Selected() *SelectedNode {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.selected == nil {
		return nil
	}
	s := *e.selected
	return &s
}

// Select marks a node as selected. Selecting an id that does not exist
// clears the selection.
func (e *Editor) Select(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if ref, ok := e.present.Find(id); ok {
		e.selected = &SelectedNode{Kind: ref.Kind, ID: id}
	} else {
		e.selected = nil
	}
}

// CanUndo reports whether an undo step exists.
func (e *Editor) CanUndo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.past) > 0
}

// CanRedo reports whether a redo step exists.
func (e *Editor) CanRedo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.future) > 0
}

// Undo steps back one snapshot. No-op when the past is empty.
func (e *Editor) Undo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.past) == 0 {
		return false
	}
	e.future = append([]*Document{e.present}, e.future...)
	e.present = e.past[len(e.past)-1]
	e.past = e.past[:len(e.past)-1]
	e.refreshSelectionLocked()
	return true
}

// Redo reapplies the most recently undone snapshot. No-op when empty.
func (e *Editor) Redo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.future) == 0 {
		return false
	}
	e.past = append(e.past, e.present)
	e.present = e.future[0]
	e.future = e.future[1:]
	e.refreshSelectionLocked()
	return true
}

// commitLocked installs a new present snapshot and clears the redo stack.
func (e *Editor) commitLocked(next *Document) {
	e.past = append(e.past, e.present)
	if len(e.past) > e.maxHistory {
		e.past = e.past[len(e.past)-e.maxHistory:]
	}
	e.present = next
	e.future = nil
}

// refreshSelectionLocked drops the selection mirror when the selected node
// no longer exists in the present snapshot.
func (e *Editor) refreshSelectionLocked() {
	if e.selected == nil {
		return
	}
	if _, ok := e.present.Find(e.selected.ID); !ok {
		e.selected = nil
	}
}

// UpdateNode shallow-merges updates into the node with the given id, at any
// level of the tree. The "styles" and "content" keys are merged one level
// deeper so unspecified entries survive. Returns false (and changes nothing)
// when the id does not match any node.
func (e *Editor) UpdateNode(id string, updates map[string]any) bool {
	if len(updates) == 0 {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	next := e.present.Clone()
	ref, ok := next.Find(id)
	if !ok {
		return false
	}
	applyUpdates(ref, updates)
	e.commitLocked(next)
	return true
}

// AddNode dispatches on the target path shape: "root" (or elementType
// "section") appends a section; "section-<id>" appends a row with one
// full-width column; "column-<id>" appends an element with type-specific
// default content. Unmatched paths are a no-op. Returns the new node's id.
func (e *Editor) AddNode(elementType, targetPath string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	next := e.present.Clone()

	var newNodeID string
	switch {
	case targetPath == "root" || elementType == "section":
		s := Section{
			ID:    e.newID(),
			Rows:  []Row{},
			Width: SectionFull,
		}
		next.Sections = append(next.Sections, s)
		newNodeID = s.ID

	case strings.HasPrefix(targetPath, "section-"):
		sectionID := strings.TrimPrefix(targetPath, "section-")
		ref, ok := next.Find(sectionID)
		if !ok || ref.Kind != KindSection {
			return "", false
		}
		r := Row{
			ID:           e.newID(),
			ColumnLayout: "1",
			Columns: []Column{{
				ID:       e.newID(),
				Width:    12,
				Elements: []Element{},
			}},
		}
		ref.Section.Rows = append(ref.Section.Rows, r)
		newNodeID = r.ID

	case strings.HasPrefix(targetPath, "column-"):
		columnID := strings.TrimPrefix(targetPath, "column-")
		ref, ok := next.Find(columnID)
		if !ok || ref.Kind != KindColumn {
			return "", false
		}
		el := Element{
			ID:      e.newID(),
			Type:    elementType,
			Content: DefaultContent(elementType),
		}
		ref.Column.Elements = append(ref.Column.Elements, el)
		newNodeID = el.ID

	default:
		return "", false
	}

	e.commitLocked(EnsureAnchors(next, e.gen))
	return newNodeID, true
}

// RemoveNode removes the node with the given id at any level, cascading to
// its children. Clears the selection if the removed node was selected.
func (e *Editor) RemoveNode(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	next := e.present.Clone()
	if !removeByID(next, id) {
		return false
	}
	e.commitLocked(next)
	e.refreshSelectionLocked()
	return true
}

// MoveElement relocates an element into the column identified by the
// section/row/column id triple, inserting at index (clamped). No-op when
// the element or the target column cannot be found.
func (e *Editor) MoveElement(elementID, sectionID, rowID, columnID string, index int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	next := e.present.Clone()

	var moved *Element
	for si := range next.Sections {
		for ri := range next.Sections[si].Rows {
			for ci := range next.Sections[si].Rows[ri].Columns {
				col := &next.Sections[si].Rows[ri].Columns[ci]
				for ei := range col.Elements {
					if col.Elements[ei].ID == elementID {
						el := col.Elements[ei]
						moved = &el
						col.Elements = append(col.Elements[:ei], col.Elements[ei+1:]...)
						break
					}
				}
				if moved != nil {
					break
				}
			}
			if moved != nil {
				break
			}
		}
		if moved != nil {
			break
		}
	}
	if moved == nil {
		return false
	}

	target := findColumn(next, sectionID, rowID, columnID)
	if target == nil {
		return false
	}
	if index < 0 {
		index = 0
	}
	if index > len(target.Elements) {
		index = len(target.Elements)
	}
	target.Elements = append(target.Elements[:index],
		append([]Element{*moved}, target.Elements[index:]...)...)

	e.commitLocked(next)
	return true
}

// findColumn resolves the target column, verifying the section and row ids
// when provided.
func findColumn(doc *Document, sectionID, rowID, columnID string) *Column {
	for si := range doc.Sections {
		s := &doc.Sections[si]
		if sectionID != "" && s.ID != sectionID {
			continue
		}
		for ri := range s.Rows {
			r := &s.Rows[ri]
			if rowID != "" && r.ID != rowID {
				continue
			}
			for ci := range r.Columns {
				if r.Columns[ci].ID == columnID {
					return &r.Columns[ci]
				}
			}
		}
	}
	return nil
}

// removeByID deletes the node with the given id from whichever slice holds
// it. Children go with their parent.
func removeByID(doc *Document, id string) bool {
	for si := range doc.Sections {
		if doc.Sections[si].ID == id {
			doc.Sections = append(doc.Sections[:si], doc.Sections[si+1:]...)
			return true
		}
		s := &doc.Sections[si]
		for ri := range s.Rows {
			if s.Rows[ri].ID == id {
				s.Rows = append(s.Rows[:ri], s.Rows[ri+1:]...)
				return true
			}
			r := &s.Rows[ri]
			for ci := range r.Columns {
				if r.Columns[ci].ID == id {
					r.Columns = append(r.Columns[:ci], r.Columns[ci+1:]...)
					return true
				}
				c := &r.Columns[ci]
				for ei := range c.Elements {
					if c.Elements[ei].ID == id {
						c.Elements = append(c.Elements[:ei], c.Elements[ei+1:]...)
						return true
					}
				}
			}
		}
	}
	return false
}

// applyUpdates merges an update map into a node. Unknown keys for the
// node's kind are ignored.
func applyUpdates(ref NodeRef, updates map[string]any) {
	for key, value := range updates {
		switch key {
		case "styles":
			if m, ok := toAnyMap(value); ok {
				mergeStyles(ref, m)
			}
		case "visibility":
			if v, ok := toVisibility(value); ok {
				ref.SetVisibility(v)
			}
		case "anchor":
			if s, ok := value.(string); ok {
				ref.SetAnchor(s)
			}
		case "content":
			if ref.Kind == KindElement {
				if m, ok := toAnyMap(value); ok {
					if ref.Element.Content == nil {
						ref.Element.Content = make(map[string]any, len(m))
					}
					for k, v := range m {
						ref.Element.Content[k] = cloneValue(v)
					}
				}
			}
		case "type":
			if ref.Kind == KindElement {
				if s, ok := value.(string); ok {
					ref.Element.Type = s
				}
			}
		case "width":
			switch ref.Kind {
			case KindSection:
				if s, ok := value.(string); ok {
					ref.Section.Width = SectionWidth(s)
				}
			case KindColumn:
				if n, ok := toInt(value); ok {
					ref.Column.Width = n
				}
			}
		case "customWidth":
			if s, ok := value.(string); ok {
				switch ref.Kind {
				case KindSection:
					ref.Section.CustomWidth = s
				case KindColumn:
					ref.Column.CustomWidth = s
				}
			}
		case "columnLayout":
			if ref.Kind == KindRow {
				if s, ok := value.(string); ok {
					ref.Row.ColumnLayout = s
				}
			}
		}
	}
}

// mergeStyles merges style updates one level deep so untouched keys survive.
func mergeStyles(ref NodeRef, updates map[string]any) {
	var target *StyleMap
	switch ref.Kind {
	case KindSection:
		target = &ref.Section.Styles
	case KindRow:
		target = &ref.Row.Styles
	case KindColumn:
		target = &ref.Column.Styles
	case KindElement:
		target = &ref.Element.Styles
	default:
		return
	}
	if *target == nil {
		*target = make(StyleMap, len(updates))
	}
	for k, v := range updates {
		if v == nil {
			delete(*target, k)
			continue
		}
		(*target)[k] = cloneValue(v)
	}
}

func toAnyMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case StyleMap:
		return map[string]any(t), true
	}
	return nil, false
}

func toVisibility(v any) (*Visibility, bool) {
	switch t := v.(type) {
	case *Visibility:
		return cloneVisibility(t), true
	case Visibility:
		c := t
		return &c, true
	case map[string]any:
		vis := &Visibility{Desktop: true, Tablet: true, Mobile: true}
		if b, ok := t["desktop"].(bool); ok {
			vis.Desktop = b
		}
		if b, ok := t["tablet"].(bool); ok {
			vis.Tablet = b
		}
		if b, ok := t["mobile"].(bool); ok {
			vis.Mobile = b
		}
		return vis, true
	}
	return nil, false
}

func toInt(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case float64:
		return int(t), true
	}
	return 0, false
}

// DefaultContent returns the starter content for a new element of the given
// type. Types without defaults start empty.
func DefaultContent(elementType string) map[string]any {
	switch elementType {
	case "heading":
		return map[string]any{"text": "New Heading", "tag": "h2"}
	case "text":
		return map[string]any{"text": "Enter your text here"}
	case "button":
		return map[string]any{"text": "Click Me", "href": "#"}
	case "image":
		return map[string]any{"src": "", "alt": ""}
	case "video":
		return map[string]any{"src": "", "poster": ""}
	default:
		return map[string]any{}
	}
}
