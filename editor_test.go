package funnelforge

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEditor(doc *Document) *Editor {
	n := 0
	return NewEditor(doc,
		WithIDGenerator(sequentialIDs()),
		WithNewID(func() string { n++; return fmt.Sprintf("node-%d", n) }),
	)
}

func TestAddFlowEndToEnd(t *testing.T) {
	e := testEditor(nil)

	sectionID, ok := e.AddNode("section", "root")
	require.True(t, ok)

	rowID, ok := e.AddNode("row", "section-"+sectionID)
	require.True(t, ok)

	doc := e.Document()
	require.Len(t, doc.Sections, 1)
	require.Len(t, doc.Sections[0].Rows, 1)
	row := doc.Sections[0].Rows[0]
	assert.Equal(t, rowID, row.ID)
	assert.Equal(t, "1", row.ColumnLayout)
	require.Len(t, row.Columns, 1)
	assert.Equal(t, 12, row.Columns[0].Width)

	elementID, ok := e.AddNode("text", "column-"+row.Columns[0].ID)
	require.True(t, ok)

	doc = e.Document()
	elements := doc.Sections[0].Rows[0].Columns[0].Elements
	require.Len(t, elements, 1)
	assert.Equal(t, elementID, elements[0].ID)
	assert.Equal(t, "text", elements[0].Type)
	assert.Equal(t, "Enter your text here", elements[0].Content["text"])

	require.True(t, e.RemoveNode(elementID))
	doc = e.Document()
	assert.Empty(t, doc.Sections[0].Rows[0].Columns[0].Elements)
	assert.Len(t, doc.Sections, 1, "section untouched by element removal")
	assert.Len(t, doc.Sections[0].Rows, 1, "row untouched by element removal")
}

func TestAddNodeUnknownPathIsNoOp(t *testing.T) {
	e := testEditor(nil)
	before := e.Document()

	_, ok := e.AddNode("text", "column-nope")
	assert.False(t, ok)
	_, ok = e.AddNode("text", "garbage")
	assert.False(t, ok)
	assert.Same(t, before, e.Document(), "failed adds must not commit a snapshot")
	assert.False(t, e.CanUndo())
}

func TestHistoryLaws(t *testing.T) {
	e := testEditor(nil)
	d0 := e.Document()

	_, ok := e.AddNode("section", "root")
	require.True(t, ok)
	d1 := e.Document()
	require.False(t, reflect.DeepEqual(d0, d1))

	require.True(t, e.Undo())
	if !reflect.DeepEqual(e.Document(), d0) {
		t.Fatal("undo must restore exactly the previous snapshot")
	}

	require.True(t, e.Redo())
	if !reflect.DeepEqual(e.Document(), d1) {
		t.Fatal("redo must restore exactly the undone snapshot")
	}

	// A fresh edit after undo discards the redo stack.
	require.True(t, e.Undo())
	_, ok = e.AddNode("section", "root")
	require.True(t, ok)
	assert.False(t, e.CanRedo())
	assert.False(t, e.Redo())
}

func TestUndoRedoEmptyStacksAreNoOps(t *testing.T) {
	e := testEditor(nil)
	assert.False(t, e.Undo())
	assert.False(t, e.Redo())
}

func TestUpdateNodeMergesStylesOneLevelDeep(t *testing.T) {
	doc := sampleDocument()
	doc.Sections[0].Rows[0].Columns[0].Elements[0].Styles = StyleMap{
		"color":    "blue",
		"fontSize": "16px",
	}
	e := testEditor(doc)

	ok := e.UpdateNode("e1", map[string]any{
		"styles":  map[string]any{"color": "red"},
		"content": map[string]any{"text": "Hello"},
	})
	require.True(t, ok)

	el := e.Document().Sections[0].Rows[0].Columns[0].Elements[0]
	assert.Equal(t, "red", el.Styles["color"])
	assert.Equal(t, "16px", el.Styles["fontSize"], "unspecified style keys survive")
	assert.Equal(t, "Hello", el.Content["text"])
}

func TestUpdateNodeWorksAcrossAllLevels(t *testing.T) {
	e := testEditor(sampleDocument())

	require.True(t, e.UpdateNode("s1", map[string]any{"width": "wide"}))
	require.True(t, e.UpdateNode("r1", map[string]any{"columnLayout": "1-2"}))
	require.True(t, e.UpdateNode("c1", map[string]any{"width": 4}))
	require.True(t, e.UpdateNode("e1", map[string]any{"type": "text"}))

	doc := e.Document()
	assert.Equal(t, SectionWide, doc.Sections[0].Width)
	assert.Equal(t, "1-2", doc.Sections[0].Rows[0].ColumnLayout)
	assert.Equal(t, 4, doc.Sections[0].Rows[0].Columns[0].Width)
	assert.Equal(t, "text", doc.Sections[0].Rows[0].Columns[0].Elements[0].Type)
}

func TestUpdateNodeMissingIDIsNoOp(t *testing.T) {
	e := testEditor(sampleDocument())
	before := e.Document()
	assert.False(t, e.UpdateNode("missing", map[string]any{"width": 4}))
	assert.Same(t, before, e.Document())
}

func TestRemoveNodeCascades(t *testing.T) {
	e := testEditor(sampleDocument())
	require.True(t, e.RemoveNode("s1"))
	assert.Empty(t, e.Document().Sections)

	// The removed subtree's ids no longer resolve.
	_, found := e.Document().Find("e1")
	assert.False(t, found)
}

func TestRemoveNodeClearsSelection(t *testing.T) {
	e := testEditor(sampleDocument())
	e.Select("e1")
	require.NotNil(t, e.Selected())

	require.True(t, e.RemoveNode("e1"))
	assert.Nil(t, e.Selected())
}

func TestSelectionMirrorsKind(t *testing.T) {
	e := testEditor(sampleDocument())
	e.Select("r1")
	sel := e.Selected()
	require.NotNil(t, sel)
	assert.Equal(t, KindRow, sel.Kind)

	e.Select("does-not-exist")
	assert.Nil(t, e.Selected())
}

func TestPreviewModeClearsSelection(t *testing.T) {
	e := testEditor(sampleDocument())
	e.Select("c1")
	e.SetPreviewMode(true)
	assert.True(t, e.PreviewMode())
	assert.Nil(t, e.Selected())
}

func TestMoveElement(t *testing.T) {
	e := testEditor(sampleDocument())

	require.True(t, e.MoveElement("e1", "s1", "r1", "c2", 0))
	doc := e.Document()
	assert.Len(t, doc.Sections[0].Rows[0].Columns[0].Elements, 1)
	require.Len(t, doc.Sections[0].Rows[0].Columns[1].Elements, 1)
	assert.Equal(t, "e1", doc.Sections[0].Rows[0].Columns[1].Elements[0].ID)
}

func TestMoveElementClampsIndex(t *testing.T) {
	e := testEditor(sampleDocument())
	require.True(t, e.MoveElement("e1", "s1", "r1", "c1", 99))
	elements := e.Document().Sections[0].Rows[0].Columns[0].Elements
	require.Len(t, elements, 2)
	assert.Equal(t, "e1", elements[1].ID)
}

func TestMoveElementMissingTargetIsNoOp(t *testing.T) {
	e := testEditor(sampleDocument())
	before := e.Document()
	assert.False(t, e.MoveElement("e1", "s1", "r1", "nope", 0))
	assert.Same(t, before, e.Document())
}

func TestHistoryLimitCapsPast(t *testing.T) {
	e := NewEditor(nil,
		WithIDGenerator(sequentialIDs()),
		WithNewID(uuidLike()),
		WithHistoryLimit(3),
	)
	for i := 0; i < 10; i++ {
		_, ok := e.AddNode("section", "root")
		require.True(t, ok)
	}
	undone := 0
	for e.Undo() {
		undone++
	}
	assert.Equal(t, 3, undone)
}

func uuidLike() func() string {
	n := 0
	return func() string { n++; return fmt.Sprintf("id-%04d", n) }
}

func TestNewEditorMigratesAndAnchors(t *testing.T) {
	e := testEditor(sampleDocument())
	doc := e.Document()
	doc.Walk(func(n NodeRef) bool {
		assert.NotNil(t, n.Visibility(), "visibility backfilled on load")
		assert.NotEmpty(t, n.Anchor(), "anchors assigned on load")
		return true
	})
}

func TestDefaultContentTable(t *testing.T) {
	tests := []struct {
		elementType string
		wantKeys    []string
	}{
		{"heading", []string{"text", "tag"}},
		{"text", []string{"text"}},
		{"button", []string{"text", "href"}},
		{"image", []string{"src", "alt"}},
		{"video", []string{"src", "poster"}},
		{"custom-widget", nil},
	}
	for _, tt := range tests {
		got := DefaultContent(tt.elementType)
		if len(tt.wantKeys) == 0 {
			if len(got) != 0 {
				t.Errorf("DefaultContent(%q) = %v, want empty", tt.elementType, got)
			}
			continue
		}
		for _, k := range tt.wantKeys {
			if _, ok := got[k]; !ok {
				t.Errorf("DefaultContent(%q) missing key %q", tt.elementType, k)
			}
		}
	}
	if got := DefaultContent("heading"); got["tag"] != "h2" {
		t.Errorf("heading default tag = %v, want h2", got["tag"])
	}
	if !strings.HasPrefix(DefaultContent("button")["href"].(string), "#") {
		t.Error("button default href should be #")
	}
}
