package store

import (
	"context"
	"sort"
	"sync"

	"onboard/internal/verification/models"
	"onboard/pkg/platform/sentinel"
)

// InMemory keeps verification rows in a map keyed by id.
type InMemory struct {
	mu   sync.RWMutex
	rows map[string]*models.VerifiedCredential
}

func NewInMemory() *InMemory {
	return &InMemory{rows: make(map[string]*models.VerifiedCredential)}
}

func (s *InMemory) Create(_ context.Context, c *models.VerifiedCredential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[c.ID]; ok {
		return sentinel.ErrConflict
	}
	s.rows[c.ID] = c.Clone()
	return nil
}

// Update persists a terminal transition. Only PENDING rows can be updated, so
// a concurrent second writer gets ErrConflict.
func (s *InMemory) Update(_ context.Context, c *models.VerifiedCredential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.rows[c.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if current.Status != models.StatusPending {
		return sentinel.ErrConflict
	}
	s.rows[c.ID] = c.Clone()
	return nil
}

func (s *InMemory) ListByTransaction(_ context.Context, transactionID string) ([]*models.VerifiedCredential, error) {
	return s.list(func(c *models.VerifiedCredential) bool {
		return c.VerifierTransactionID == transactionID
	}), nil
}

func (s *InMemory) ListByApplication(_ context.Context, applicationID string) ([]*models.VerifiedCredential, error) {
	return s.list(func(c *models.VerifiedCredential) bool {
		return c.ApplicationID == applicationID
	}), nil
}

// list returns matching rows ordered by creation time, then id.
func (s *InMemory) list(match func(*models.VerifiedCredential) bool) []*models.VerifiedCredential {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.VerifiedCredential, 0)
	for _, c := range s.rows {
		if match(c) {
			out = append(out, c.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
