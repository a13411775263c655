package server

import (
	"log"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches the pages directory and reports which page changed.
type Watcher struct {
	watcher  *fsnotify.Watcher
	dir      string
	onChange func(pageID string)
	done     chan struct{}
}

// NewWatcher creates a watcher over a file-store pages directory. The
// callback receives the page id derived from the changed file name.
func NewWatcher(dir string, onChange func(pageID string)) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsWatcher.Add(dir); err != nil {
		fsWatcher.Close()
		return nil, err
	}
	return &Watcher{
		watcher:  fsWatcher,
		dir:      dir,
		onChange: onChange,
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching for page file changes.
func (w *Watcher) Start() {
	go func() {
		for {
			select {
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				name := filepath.Base(event.Name)
				// Temp files from atomic saves start with a dot.
				if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".json") {
					continue
				}
				w.onChange(strings.TrimSuffix(name, ".json"))

			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				log.Printf("[Watch] Error: %v", err)

			case <-w.done:
				return
			}
		}
	}()
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.watcher.Close()
}
