// Package docstore holds document metadata keyed by reference. File bytes
// live in the upload pipeline; the case core only ever resolves references.
package docstore

import (
	"context"
	"fmt"
	"sync"

	"attache/internal/casefile/models"
	"attache/internal/casefile/service"
	"attache/pkg/platform/sentinel"
)

// InMemory is a map-backed document metadata store.
type InMemory struct {
	mu   sync.RWMutex
	docs map[models.DocumentRef]service.DocumentMeta
}

// NewInMemory creates an empty in-memory document store.
func NewInMemory() *InMemory {
	return &InMemory{docs: make(map[models.DocumentRef]service.DocumentMeta)}
}

// Put registers document metadata under its reference. An existing entry
// with the same reference is replaced.
func (s *InMemory) Put(_ context.Context, meta service.DocumentMeta) error {
	if meta.Ref == "" {
		return fmt.Errorf("document reference is required: %w", sentinel.ErrInvalidState)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.docs[meta.Ref] = meta
	return nil
}

// Get resolves a document reference.
func (s *InMemory) Get(_ context.Context, ref models.DocumentRef) (service.DocumentMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	meta, ok := s.docs[ref]
	if !ok {
		return service.DocumentMeta{}, fmt.Errorf("document %s: %w", ref, sentinel.ErrNotFound)
	}
	return meta, nil
}
