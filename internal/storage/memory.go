package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/funnelforge/funnelforge"
)

// MemoryStore keeps pages in a map. Used in tests and for ephemeral demos.
type MemoryStore struct {
	mu    sync.RWMutex
	pages map[string]*funnelforge.Document
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{pages: make(map[string]*funnelforge.Document)}
}

func (s *MemoryStore) Load(_ context.Context, id string) (*funnelforge.Document, error) {
	if !ValidPageID(id) {
		return nil, fmt.Errorf("memory store: invalid page id %q", id)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.pages[id]
	if !ok {
		return nil, ErrNotFound
	}
	return doc.Clone(), nil
}

func (s *MemoryStore) Save(_ context.Context, id string, doc *funnelforge.Document) error {
	if !ValidPageID(id) {
		return fmt.Errorf("memory store: invalid page id %q", id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[id] = doc.Clone()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	if !ValidPageID(id) {
		return fmt.Errorf("memory store: invalid page id %q", id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pages[id]; !ok {
		return ErrNotFound
	}
	delete(s.pages, id)
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.pages))
	for id := range s.pages {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *MemoryStore) Close() error { return nil }
