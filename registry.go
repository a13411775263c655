package funnelforge

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
)

// ErrUnknownType is returned when a type cannot be resolved even after
// alias normalization and fallback bundle loading. Renderers map it to an
// inert placeholder; it never aborts a page.
var ErrUnknownType = errors.New("unknown element type")

// RenderContext carries the per-render inputs handed to an element
// capability.
type RenderContext struct {
	Device      Device
	Editing     bool
	ColumnCount int
	Anchor      string
}

// RenderFunc produces the inner HTML for one element. Returned markup is
// embedded as-is; implementations escape author content themselves.
type RenderFunc func(ctx RenderContext, el *Element) (string, error)

// Capability is a renderable element implementation plus its metadata.
type Capability struct {
	Type           string
	Name           string
	Category       string
	Icon           string
	Description    string
	DefaultContent map[string]any
	Render         RenderFunc
}

// BundleLoader registers one category's capabilities into the registry.
// In the storefront it is invoked lazily; the editor loads everything
// eagerly during startup.
type BundleLoader func(ctx context.Context, reg *Registry) error

// bundleLoad memoizes a category load so concurrent callers share one
// in-flight attempt.
type bundleLoad struct {
	done chan struct{}
	err  error
}

// fallbackCategories are tried, in order, when a type maps to no known
// bundle.
var fallbackCategories = []string{"basic", "media", "embed"}

// defaultAliases resolves renamed types to their current names.
var defaultAliases = map[string]string{
	"product_grid": "product-grid",
	"rich-text":    "text",
	"img":          "image",
}

// Registry maps element type names to renderable capabilities. It is
// constructed explicitly at application start and passed to renderers;
// there is no package-level instance.
type Registry struct {
	mu           sync.RWMutex
	caps         map[string]*Capability
	aliases      map[string]string
	bundles      map[string]BundleLoader
	typeCategory map[string]string
	loads        map[string]*bundleLoad
	subscribers  []func(category string)
}

// NewRegistry creates an empty registry preloaded with the built-in alias
// table.
func NewRegistry() *Registry {
	aliases := make(map[string]string, len(defaultAliases))
	for k, v := range defaultAliases {
		aliases[k] = v
	}
	return &Registry{
		caps:         make(map[string]*Capability),
		aliases:      aliases,
		bundles:      make(map[string]BundleLoader),
		typeCategory: make(map[string]string),
		loads:        make(map[string]*bundleLoad),
	}
}

// Register adds a capability. Duplicate registration for the same type is a
// programming error and panics, keeping the register-before-first-use phase
// honest.
func (r *Registry) Register(c *Capability) {
	if c == nil || c.Type == "" {
		panic("registry: capability must have a type")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.caps[c.Type]; exists {
		panic(fmt.Sprintf("registry: duplicate registration for element type %q", c.Type))
	}
	r.caps[c.Type] = c
	if c.Category != "" {
		r.typeCategory[c.Type] = c.Category
	}
}

// RegisterAlias maps an old type name to its canonical replacement.
func (r *Registry) RegisterAlias(alias, canonical string) {
	r.mu.Lock()
	r.aliases[alias] = canonical
	r.mu.Unlock()
}

// RegisterBundle declares a lazily-loadable category: the types it owns and
// the loader that registers their capabilities on first use.
func (r *Registry) RegisterBundle(category string, types []string, loader BundleLoader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bundles[category] = loader
	for _, t := range types {
		r.typeCategory[t] = category
	}
}

// Get resolves a type synchronously: direct hit, then normalized form
// (underscores become hyphens), then the alias table.
func (r *Registry) Get(typ string) (*Capability, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.caps[typ]; ok {
		return c, true
	}
	normalized := strings.ReplaceAll(typ, "_", "-")
	if c, ok := r.caps[normalized]; ok {
		return c, true
	}
	for _, key := range []string{typ, normalized} {
		if canonical, ok := r.aliases[key]; ok {
			if c, ok := r.caps[canonical]; ok {
				return c, true
			}
		}
	}
	return nil, false
}

// Loaded reports whether a category's bundle has completed loading.
func (r *Registry) Loaded(category string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.loads[category]
	if !ok {
		return false
	}
	select {
	case <-l.done:
		return l.err == nil
	default:
		return false
	}
}

// LoadFailed reports whether a category's bundle load has completed with an
// error. A failed category is terminal for rendering purposes: its types
// fall through to the unavailable placeholder rather than a skeleton.
func (r *Registry) LoadFailed(category string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.loads[category]
	if !ok {
		return false
	}
	select {
	case <-l.done:
		return l.err != nil
	default:
		return false
	}
}

// Subscribe registers a callback invoked after each bundle load completes,
// successfully or not. Hosts use it to trigger re-renders.
func (r *Registry) Subscribe(fn func(category string)) {
	r.mu.Lock()
	r.subscribers = append(r.subscribers, fn)
	r.mu.Unlock()
}

// EnsureLoaded makes a type queryable in the lazy deployment: it loads the
// owning category's bundle, then the fixed fallback categories, before
// giving up with ErrUnknownType.
func (r *Registry) EnsureLoaded(ctx context.Context, typ string) error {
	if _, ok := r.Get(typ); ok {
		return nil
	}
	if category, ok := r.categoryFor(typ); ok {
		if err := r.loadCategory(ctx, category); err != nil {
			log.Printf("[Registry] bundle %q failed to load: %v", category, err)
		}
		if _, ok := r.Get(typ); ok {
			return nil
		}
	}
	for _, category := range fallbackCategories {
		if err := r.loadCategory(ctx, category); err != nil {
			continue
		}
		if _, ok := r.Get(typ); ok {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownType, typ)
}

// PreloadDocument walks a document once, collects the distinct element
// types, maps each to its owning category and loads all needed bundles in
// parallel. Load failures are logged and tolerated; rendering falls back to
// placeholders for anything still unresolved.
func (r *Registry) PreloadDocument(ctx context.Context, doc *Document) {
	categories := make(map[string]struct{})
	doc.Walk(func(n NodeRef) bool {
		if n.Kind == KindElement {
			if category, ok := r.categoryFor(n.Element.Type); ok {
				categories[category] = struct{}{}
			}
		}
		return true
	})
	var wg sync.WaitGroup
	for category := range categories {
		wg.Add(1)
		go func(cat string) {
			defer wg.Done()
			if err := r.loadCategory(ctx, cat); err != nil {
				log.Printf("[Registry] preload of bundle %q failed: %v", cat, err)
			}
		}(category)
	}
	wg.Wait()
}

func (r *Registry) categoryFor(typ string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.typeCategory[typ]; ok {
		return c, true
	}
	normalized := strings.ReplaceAll(typ, "_", "-")
	if c, ok := r.typeCategory[normalized]; ok {
		return c, true
	}
	if canonical, ok := r.aliases[normalized]; ok {
		if c, ok := r.typeCategory[canonical]; ok {
			return c, true
		}
	}
	return "", false
}

// loadCategory runs a bundle loader exactly once per category; concurrent
// callers wait on the same in-flight load. There is no cancellation of a
// load already underway, but waiters honor their own context.
func (r *Registry) loadCategory(ctx context.Context, category string) error {
	r.mu.Lock()
	if l, ok := r.loads[category]; ok {
		r.mu.Unlock()
		select {
		case <-l.done:
			return l.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	loader, ok := r.bundles[category]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("no bundle registered for category %q", category)
	}
	l := &bundleLoad{done: make(chan struct{})}
	r.loads[category] = l
	r.mu.Unlock()

	l.err = loader(ctx, r)
	close(l.done)

	r.mu.RLock()
	subs := append([]func(string){}, r.subscribers...)
	r.mu.RUnlock()
	for _, fn := range subs {
		fn(category)
	}
	return l.err
}

// LoadAll eagerly loads every registered bundle: the synchronous editor
// deployment, where all capabilities are available at startup.
func (r *Registry) LoadAll(ctx context.Context) error {
	r.mu.RLock()
	categories := make([]string, 0, len(r.bundles))
	for c := range r.bundles {
		categories = append(categories, c)
	}
	r.mu.RUnlock()
	var errs []error
	for _, c := range categories {
		if err := r.loadCategory(ctx, c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
