// Package storage persists page documents. Every backend stores the
// document's JSON shape verbatim so load/save round-trips losslessly.
package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/funnelforge/funnelforge"
	"github.com/funnelforge/funnelforge/internal/config"
)

// ErrNotFound is returned when a page id has no stored document.
var ErrNotFound = errors.New("page not found")

// Store is the persistence collaborator for page documents. Semantics are
// last-write-wins; no transactionality beyond a single Save is assumed.
type Store interface {
	Load(ctx context.Context, id string) (*funnelforge.Document, error)
	Save(ctx context.Context, id string, doc *funnelforge.Document) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]string, error)
	Close() error
}

var pageIDPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)

// ValidPageID reports whether an id is safe to use as a file name or
// database key.
func ValidPageID(id string) bool {
	return len(id) <= 128 && pageIDPattern.MatchString(id)
}

// Open constructs the store selected by the configuration.
func Open(cfg *config.Config) (Store, error) {
	switch cfg.StoreType() {
	case "file":
		return NewFileStore(cfg.PagesDir())
	case "sqlite":
		return NewSQLiteStore(cfg.DBPath(), cfg.StoreTable())
	case "postgres":
		return NewPostgresStore(cfg.Store.DSN, cfg.StoreTable())
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store type %q", cfg.StoreType())
	}
}
