package funnelforge

import (
	cryptorand "crypto/rand"
	"math/rand/v2"
	"regexp"
	"strings"
)

// Anchors are the binding key for scoped custom CSS/JS and for SEO-snapshot
// DOM targeting: <type-prefix>-<10-char-base62>, unique within a document.

const anchorSuffixLen = 10

const base62Alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// legacyAnchorPattern matches anchors minted by the pre-rewrite builder.
// Nodes carrying one get a fresh anchor on the next EnsureAnchors pass.
var legacyAnchorPattern = regexp.MustCompile(`^pb-(?:section|row|col|column|element)-`)

var anchorPrefixSanitizer = regexp.MustCompile(`[^a-z0-9-]+`)

// IDGenerator produces n random base62 characters. It is injected so tests
// can supply a deterministic sequence.
type IDGenerator func(n int) string

// DefaultIDGenerator draws from crypto/rand and falls back to math/rand/v2
// if the system source fails.
func DefaultIDGenerator(n int) string {
	buf := make([]byte, n)
	if _, err := cryptorand.Read(buf); err != nil {
		out := make([]byte, n)
		for i := range out {
			out[i] = base62Alphabet[rand.IntN(len(base62Alphabet))]
		}
		return string(out)
	}
	out := make([]byte, n)
	for i, b := range buf {
		out[i] = base62Alphabet[int(b)%len(base62Alphabet)]
	}
	return string(out)
}

// BuildAnchor generates an anchor for a node. Element anchors are prefixed
// by their sanitized type; structural nodes by section/row/col.
func BuildAnchor(kind NodeKind, elementType string, gen IDGenerator) string {
	if gen == nil {
		gen = DefaultIDGenerator
	}
	prefix := anchorPrefix(kind, elementType)
	return prefix + "-" + gen(anchorSuffixLen)
}

func anchorPrefix(kind NodeKind, elementType string) string {
	if kind == KindElement {
		if p := sanitizeAnchorPrefix(elementType); p != "" {
			return p
		}
		return "element"
	}
	switch kind {
	case KindSection:
		return "section"
	case KindRow:
		return "row"
	case KindColumn:
		return "col"
	}
	return "node"
}

func sanitizeAnchorPrefix(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = anchorPrefixSanitizer.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// EnsureAnchors returns a copy of doc in which every node carries a unique,
// non-legacy anchor. Existing valid anchors are preserved, so the function
// is idempotent: running it on its own output changes nothing.
func EnsureAnchors(doc *Document, gen IDGenerator) *Document {
	if gen == nil {
		gen = DefaultIDGenerator
	}
	out := doc.Clone()
	used := make(map[string]struct{})
	out.Walk(func(n NodeRef) bool {
		anchor := n.Anchor()
		_, taken := used[anchor]
		if anchor == "" || taken || legacyAnchorPattern.MatchString(anchor) {
			elementType := ""
			if n.Kind == KindElement {
				elementType = n.Element.Type
			}
			for {
				anchor = BuildAnchor(n.Kind, elementType, gen)
				if _, dup := used[anchor]; !dup {
					break
				}
			}
			n.SetAnchor(anchor)
		}
		used[anchor] = struct{}{}
		return true
	})
	return out
}
