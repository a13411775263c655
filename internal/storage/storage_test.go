package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funnelforge/funnelforge"
	"github.com/funnelforge/funnelforge/internal/config"
)

func samplePage() *funnelforge.Document {
	return &funnelforge.Document{
		Sections: []funnelforge.Section{
			{
				ID:     "s1",
				Anchor: "section-abc1234567",
				Width:  funnelforge.SectionWide,
				Rows: []funnelforge.Row{
					{
						ID:           "r1",
						ColumnLayout: "1-1",
						Columns: []funnelforge.Column{
							{ID: "c1", Width: 6, Elements: []funnelforge.Element{
								{ID: "e1", Type: "heading", Content: map[string]any{"text": "Hello", "tag": "h2"}},
							}},
							{ID: "c2", Width: 6},
						},
					},
				},
			},
		},
	}
}

func TestValidPageID(t *testing.T) {
	valid := []string{"home", "landing-page", "Page_2", "a", "p1"}
	for _, id := range valid {
		if !ValidPageID(id) {
			t.Errorf("expected %q to be valid", id)
		}
	}
	invalid := []string{"", "-leading", "../etc/passwd", "a/b", "a b", ".hidden"}
	for _, id := range invalid {
		if ValidPageID(id) {
			t.Errorf("expected %q to be invalid", id)
		}
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	doc := samplePage()
	require.NoError(t, store.Save(ctx, "home", doc))

	loaded, err := store.Load(ctx, "home")
	require.NoError(t, err)
	assert.Equal(t, doc, loaded)

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"home"}, ids)

	require.NoError(t, store.Delete(ctx, "home"))
	_, err = store.Load(ctx, "home")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStoreMissingPage(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Delete(context.Background(), "nope"), ErrNotFound)
}

func TestFileStoreRejectsBadID(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load(context.Background(), "../escape")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Error(t, store.Save(context.Background(), "a/b", samplePage()))
}

func TestFileStoreOverwrite(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	first := samplePage()
	require.NoError(t, store.Save(ctx, "home", first))

	second := samplePage()
	second.Sections[0].Width = funnelforge.SectionFull
	require.NoError(t, store.Save(ctx, "home", second))

	loaded, err := store.Load(ctx, "home")
	require.NoError(t, err)
	assert.Equal(t, funnelforge.SectionFull, loaded.Sections[0].Width)
}

func TestFileStoreIgnoresNonPages(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden.json"), []byte("{}"), 0o644))
	require.NoError(t, store.Save(context.Background(), "home", samplePage()))

	ids, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"home"}, ids)
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	doc := samplePage()
	require.NoError(t, store.Save(ctx, "home", doc))

	loaded, err := store.Load(ctx, "home")
	require.NoError(t, err)
	assert.Equal(t, doc, loaded)

	// The store must not share memory with callers.
	loaded.Sections[0].ID = "mutated"
	again, err := store.Load(ctx, "home")
	require.NoError(t, err)
	assert.Equal(t, "s1", again.Sections[0].ID)
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "pages.db"), "pages")
	require.NoError(t, err)
	defer store.Close()

	doc := samplePage()
	require.NoError(t, store.Save(ctx, "home", doc))
	require.NoError(t, store.Save(ctx, "about", samplePage()))

	loaded, err := store.Load(ctx, "home")
	require.NoError(t, err)
	assert.Equal(t, doc, loaded)

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"about", "home"}, ids)

	require.NoError(t, store.Delete(ctx, "about"))
	assert.ErrorIs(t, store.Delete(ctx, "about"), ErrNotFound)
}

func TestSQLiteStoreUpsert(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "pages.db"), "pages")
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save(ctx, "home", samplePage()))
	second := samplePage()
	second.Sections[0].Width = funnelforge.SectionSmall
	require.NoError(t, store.Save(ctx, "home", second))

	loaded, err := store.Load(ctx, "home")
	require.NoError(t, err)
	assert.Equal(t, funnelforge.SectionSmall, loaded.Sections[0].Width)
}

func TestSQLiteStoreRejectsBadTable(t *testing.T) {
	_, err := NewSQLiteStore(filepath.Join(t.TempDir(), "pages.db"), "pages; DROP TABLE pages")
	assert.Error(t, err)
	_, err = NewSQLiteStore(filepath.Join(t.TempDir(), "pages.db"), "")
	assert.Error(t, err)
}

func TestIsValidIdentifier(t *testing.T) {
	tests := []struct {
		name  string
		valid bool
	}{
		{"pages", true},
		{"my_pages", true},
		{"Pages2", true},
		{"2pages", false},
		{"pages-2", false},
		{"pages; DROP", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := isValidIdentifier(tt.name); got != tt.valid {
			t.Errorf("isValidIdentifier(%q) = %v, want %v", tt.name, got, tt.valid)
		}
	}
}

func TestOpenSelectsBackend(t *testing.T) {
	dir := t.TempDir()

	cfg := &config.Config{}
	cfg.Store.Type = "file"
	cfg.Store.Dir = filepath.Join(dir, "pages")
	store, err := Open(cfg)
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, store)
	store.Close()

	cfg = &config.Config{}
	cfg.Store.Type = "memory"
	store, err = Open(cfg)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	cfg = &config.Config{}
	cfg.Store.Type = "carrier-pigeon"
	_, err = Open(cfg)
	assert.Error(t, err)
}
