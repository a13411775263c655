package funnelforge

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCleanDocument(t *testing.T) {
	doc := EnsureAnchors(sampleDocument(), nil)
	assert.Empty(t, Validate(doc))
}

func TestValidateColumnCountMismatch(t *testing.T) {
	doc := sampleDocument()
	doc.Sections[0].Rows[0].Columns = doc.Sections[0].Rows[0].Columns[:1] // layout "1-1" wants 2

	errs := Validate(doc)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), `columnLayout "1-1" expects 2 columns, found 1`)
	assert.Equal(t, "r1", errs[0].NodeID)
}

func TestValidateCustomWidthsRelaxColumnCount(t *testing.T) {
	doc := sampleDocument()
	doc.Sections[0].Rows[0].Columns = doc.Sections[0].Rows[0].Columns[:1]
	doc.Sections[0].Rows[0].CustomColumnWidths = &CustomColumnWidths{Desktop: []string{"100%"}}
	assert.Empty(t, Validate(doc))
}

func TestValidateDuplicateIDs(t *testing.T) {
	doc := sampleDocument()
	doc.Sections[0].Rows[0].Columns[1].ID = "c1"

	errs := Validate(doc)
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0].Error(), `duplicate id "c1"`)
}

func TestValidateDuplicateAnchors(t *testing.T) {
	doc := sampleDocument()
	doc.Sections[0].Anchor = "same-anchor"
	doc.Sections[0].Rows[0].Anchor = "same-anchor"

	errs := Validate(doc)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "duplicate anchor")
	assert.Contains(t, errs[0].Error(), "hint:")
}

func TestValidateCollectsMultipleProblems(t *testing.T) {
	doc := sampleDocument()
	doc.Sections[0].Rows[0].ColumnLayout = "5-7"
	doc.Sections[0].Rows[0].Columns[0].Width = 0
	doc.Sections[0].Rows[0].Columns[0].Elements[0].Type = ""

	errs := Validate(doc)
	require.Len(t, errs, 3)
	joined := make([]string, len(errs))
	for i, e := range errs {
		joined[i] = e.Error()
	}
	all := strings.Join(joined, "\n")
	assert.Contains(t, all, "unknown columnLayout")
	assert.Contains(t, all, "out of range")
	assert.Contains(t, all, "element has no type")
}

func TestDocumentErrorFormatting(t *testing.T) {
	err := newDocumentError("sections[2]", "abc", "missing id").WithHint("assign one")
	assert.Equal(t, "sections[2]: missing id (hint: assign one)", err.Error())
}
