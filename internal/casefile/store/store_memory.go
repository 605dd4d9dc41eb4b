package store

import (
	"context"
	"slices"
	"strings"
	"sync"

	"attache/internal/casefile/models"
	id "attache/pkg/domain"
	"attache/pkg/platform/sentinel"
)

// InMemory implements Store with a mutex-guarded map. Clones on the way in
// and out keep callers from sharing state with the store.
type InMemory struct {
	mu    sync.RWMutex
	cases map[id.CaseID]*models.Case
}

// NewInMemory creates an empty in-memory store.
func NewInMemory() *InMemory {
	return &InMemory{cases: make(map[id.CaseID]*models.Case)}
}

func (s *InMemory) Create(_ context.Context, c *models.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.cases[c.ID]; exists {
		return sentinel.ErrConflict
	}
	s.cases[c.ID] = c.Clone()
	return nil
}

func (s *InMemory) Get(_ context.Context, caseID id.CaseID) (*models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cases[caseID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return c.Clone(), nil
}

func (s *InMemory) Update(_ context.Context, c *models.Case) (*models.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.cases[c.ID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if stored.Version != c.Version {
		return nil, sentinel.ErrVersionMismatch
	}

	updated := c.Clone()
	updated.Version++
	s.cases[c.ID] = updated
	return updated.Clone(), nil
}

func (s *InMemory) ListByOrgStatus(_ context.Context, orgID id.OrgID, status models.Status) ([]*models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Case
	for _, c := range s.cases {
		if c.OrgID == orgID && c.Status == status {
			out = append(out, c.Clone())
		}
	}
	sortByCreation(out)
	return out, nil
}

func (s *InMemory) ListByApplicant(_ context.Context, applicantID id.ApplicantID) ([]*models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Case
	for _, c := range s.cases {
		if c.ApplicantID == applicantID {
			out = append(out, c.Clone())
		}
	}
	sortByCreation(out)
	return out, nil
}

func sortByCreation(cases []*models.Case) {
	slices.SortFunc(cases, func(a, b *models.Case) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.Reference, b.Reference)
	})
}
