package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatcherReportsPageID(t *testing.T) {
	dir := t.TempDir()
	changed := make(chan string, 8)

	w, err := NewWatcher(dir, func(pageID string) { changed <- pageID })
	require.NoError(t, err)
	defer w.Stop()
	w.Start()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "home.json"), []byte("{}"), 0o644))

	select {
	case id := <-changed:
		require.Equal(t, "home", id)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change event")
	}
}

func TestWatcherIgnoresTempAndNonJSON(t *testing.T) {
	dir := t.TempDir()
	changed := make(chan string, 8)

	w, err := NewWatcher(dir, func(pageID string) { changed <- pageID })
	require.NoError(t, err)
	defer w.Stop()
	w.Start()

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".home-123.tmp"), []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	select {
	case id := <-changed:
		t.Fatalf("unexpected change event for %q", id)
	case <-time.After(300 * time.Millisecond):
	}
}
