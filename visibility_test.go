package funnelforge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsVisibleDefaults(t *testing.T) {
	for _, d := range []Device{DeviceDesktop, DeviceTablet, DeviceMobile} {
		if !IsVisible(nil, d) {
			t.Errorf("missing visibility must default to visible on %s", d)
		}
	}
}

func TestIsVisiblePerDevice(t *testing.T) {
	v := &Visibility{Desktop: true, Tablet: false, Mobile: true}
	assert.True(t, IsVisible(v, DeviceDesktop))
	assert.False(t, IsVisible(v, DeviceTablet))
	assert.True(t, IsVisible(v, DeviceMobile))
}

func TestVisibilityStyles(t *testing.T) {
	v := &Visibility{Desktop: true, Tablet: false, Mobile: true}
	assert.Empty(t, VisibilityStyles(v, DeviceDesktop))
	assert.Equal(t, ResolvedStyles{"display": "none"}, VisibilityStyles(v, DeviceTablet))
}

func TestRunMigrationBackfillsAllLevels(t *testing.T) {
	doc := sampleDocument() // no node carries visibility
	out := RunMigrationIfNeeded(doc)

	assert.True(t, NeedsVisibilityMigration(doc), "input should be reported as legacy")
	count := 0
	out.Walk(func(n NodeRef) bool {
		v := n.Visibility()
		if assert.NotNil(t, v, "node %s not backfilled", n.ID()) {
			assert.True(t, v.Desktop && v.Tablet && v.Mobile)
		}
		count++
		return true
	})
	assert.Equal(t, 6, count)

	// The input document stays untouched.
	assert.Nil(t, doc.Sections[0].Visibility)
}

func TestRunMigrationIsNoOpWhenComplete(t *testing.T) {
	migrated := RunMigrationIfNeeded(sampleDocument())
	again := RunMigrationIfNeeded(migrated)
	if migrated != again {
		t.Error("fully-migrated document should be returned as-is")
	}
}

func TestRunMigrationHandlesPartialDocuments(t *testing.T) {
	doc := sampleDocument()
	doc.Sections[0].Visibility = &Visibility{Desktop: true, Tablet: false, Mobile: true}

	out := RunMigrationIfNeeded(doc)
	// Existing flags survive, missing ones are backfilled.
	assert.False(t, out.Sections[0].Visibility.Tablet)
	assert.NotNil(t, out.Sections[0].Rows[0].Visibility)
	assert.True(t, out.Sections[0].Rows[0].Visibility.Tablet)
}
