package funnelforge

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sequentialIDs returns a deterministic generator for tests: aaaaaaaaaa,
// baaaaaaaaa, caaaaaaaaa, ...
func sequentialIDs() IDGenerator {
	n := 0
	return func(length int) string {
		s := string(base62Alphabet[10+n%26]) + strings.Repeat("a", length-1)
		n++
		return s
	}
}

func sampleDocument() *Document {
	return &Document{
		Sections: []Section{{
			ID: "s1",
			Rows: []Row{{
				ID:           "r1",
				ColumnLayout: "1-1",
				Columns: []Column{
					{ID: "c1", Width: 6, Elements: []Element{
						{ID: "e1", Type: "heading"},
						{ID: "e2", Type: "product_grid"},
					}},
					{ID: "c2", Width: 6, Elements: []Element{}},
				},
			}},
		}},
	}
}

func TestEnsureAnchorsAssignsUniqueAnchors(t *testing.T) {
	doc := EnsureAnchors(sampleDocument(), nil)

	seen := make(map[string]bool)
	doc.Walk(func(n NodeRef) bool {
		a := n.Anchor()
		require.NotEmpty(t, a, "node %s has no anchor", n.ID())
		require.False(t, seen[a], "anchor %q assigned twice", a)
		seen[a] = true
		return true
	})
	assert.Len(t, seen, 6)
}

func TestEnsureAnchorsIsIdempotent(t *testing.T) {
	first := EnsureAnchors(sampleDocument(), sequentialIDs())
	second := EnsureAnchors(first, sequentialIDs())

	var got, want []string
	first.Walk(func(n NodeRef) bool { want = append(want, n.Anchor()); return true })
	second.Walk(func(n NodeRef) bool { got = append(got, n.Anchor()); return true })
	assert.Equal(t, want, got, "second pass must preserve existing anchors")
}

func TestEnsureAnchorsDoesNotMutateInput(t *testing.T) {
	doc := sampleDocument()
	_ = EnsureAnchors(doc, nil)
	doc.Walk(func(n NodeRef) bool {
		assert.Empty(t, n.Anchor(), "input document must stay untouched")
		return true
	})
}

func TestEnsureAnchorsRegeneratesLegacyAnchors(t *testing.T) {
	doc := sampleDocument()
	doc.Sections[0].Anchor = "pb-section-abc123"
	doc.Sections[0].Rows[0].Anchor = "row-keepmeAAAA"

	out := EnsureAnchors(doc, nil)
	assert.NotEqual(t, "pb-section-abc123", out.Sections[0].Anchor)
	assert.True(t, strings.HasPrefix(out.Sections[0].Anchor, "section-"))
	assert.Equal(t, "row-keepmeAAAA", out.Sections[0].Rows[0].Anchor, "non-legacy anchors are preserved")
}

func TestEnsureAnchorsResolvesCollisions(t *testing.T) {
	doc := sampleDocument()
	doc.Sections[0].Rows[0].Columns[0].Anchor = "col-same"
	doc.Sections[0].Rows[0].Columns[1].Anchor = "col-same"

	out := EnsureAnchors(doc, nil)
	a := out.Sections[0].Rows[0].Columns[0].Anchor
	b := out.Sections[0].Rows[0].Columns[1].Anchor
	assert.NotEqual(t, a, b)
}

func TestBuildAnchorPrefixes(t *testing.T) {
	gen := func(n int) string { return strings.Repeat("x", n) }
	tests := []struct {
		kind        NodeKind
		elementType string
		wantPrefix  string
	}{
		{KindSection, "", "section-"},
		{KindRow, "", "row-"},
		{KindColumn, "", "col-"},
		{KindElement, "heading", "heading-"},
		{KindElement, "Product Grid!", "product-grid-"},
		{KindElement, "", "element-"},
		{KindElement, "///", "element-"},
	}
	for _, tt := range tests {
		got := BuildAnchor(tt.kind, tt.elementType, gen)
		if !strings.HasPrefix(got, tt.wantPrefix) {
			t.Errorf("BuildAnchor(%s, %q) = %q, want prefix %q", tt.kind, tt.elementType, got, tt.wantPrefix)
		}
		if !strings.HasSuffix(got, strings.Repeat("x", anchorSuffixLen)) {
			t.Errorf("BuildAnchor(%s, %q) = %q, want %d-char suffix", tt.kind, tt.elementType, got, anchorSuffixLen)
		}
	}
}

func TestDefaultIDGeneratorShape(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := DefaultIDGenerator(anchorSuffixLen)
		require.Len(t, id, anchorSuffixLen)
		for _, c := range id {
			require.True(t, strings.ContainsRune(base62Alphabet, c), fmt.Sprintf("unexpected character %q", c))
		}
		seen[id] = true
	}
	assert.Greater(t, len(seen), 90, "generator output should not repeat")
}
