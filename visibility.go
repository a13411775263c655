package funnelforge

// IsVisible reports whether a node renders on a device. A nil visibility
// means visible everywhere, which keeps documents persisted before the
// field existed rendering unchanged.
func IsVisible(v *Visibility, device Device) bool {
	if v == nil {
		return true
	}
	switch device {
	case DeviceTablet:
		return v.Tablet
	case DeviceMobile:
		return v.Mobile
	default:
		return v.Desktop
	}
}

// VisibilityStyles returns the display override for a node on a device.
// Empty when visible.
func VisibilityStyles(v *Visibility, device Device) ResolvedStyles {
	if IsVisible(v, device) {
		return ResolvedStyles{}
	}
	return ResolvedStyles{"display": "none"}
}

// NeedsVisibilityMigration reports whether any node at any depth lacks the
// visibility field.
func NeedsVisibilityMigration(doc *Document) bool {
	needed := false
	doc.Walk(func(n NodeRef) bool {
		if n.Visibility() == nil {
			needed = true
			return false
		}
		return true
	})
	return needed
}

// RunMigrationIfNeeded backfills visibility on legacy documents: every node
// missing the field gets the visible-everywhere default. Returns the input
// document untouched when no node needs it, and a migrated copy otherwise.
// Partially-migrated documents are handled permissively; no shape is an
// error.
func RunMigrationIfNeeded(doc *Document) *Document {
	if !NeedsVisibilityMigration(doc) {
		return doc
	}
	out := doc.Clone()
	out.Walk(func(n NodeRef) bool {
		if n.Visibility() == nil {
			n.SetVisibility(&Visibility{Desktop: true, Tablet: true, Mobile: true})
		}
		return true
	})
	return out
}
