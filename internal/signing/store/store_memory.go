package store

import (
	"context"
	"slices"
	"sort"
	"sync"

	"onboard/internal/signing/models"
	"onboard/pkg/platform/sentinel"
)

// InMemory keeps signing attempts in a map keyed by id with a state index.
type InMemory struct {
	mu      sync.RWMutex
	docs    map[string]*models.SignedDocument
	byState map[string]string
}

func NewInMemory() *InMemory {
	return &InMemory{
		docs:    make(map[string]*models.SignedDocument),
		byState: make(map[string]string),
	}
}

func (s *InMemory) Create(_ context.Context, doc *models.SignedDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[doc.ID]; ok {
		return sentinel.ErrConflict
	}
	if _, ok := s.byState[doc.State]; ok {
		return sentinel.ErrConflict
	}
	s.docs[doc.ID] = doc.Clone()
	s.byState[doc.State] = doc.ID
	return nil
}

// Update writes a terminal transition; content is never rewritten.
func (s *InMemory) Update(_ context.Context, doc *models.SignedDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.docs[doc.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if !stored.IsPending() {
		return sentinel.ErrConflict
	}
	updated := doc.Clone()
	updated.Content = stored.Content
	s.docs[doc.ID] = updated
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id string) (*models.SignedDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return doc.Metadata(), nil
}

func (s *InMemory) FindByState(_ context.Context, state string) (*models.SignedDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byState[state]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.docs[id].Metadata(), nil
}

func (s *InMemory) Content(_ context.Context, state string) ([]byte, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byState[state]
	if !ok {
		return nil, "", sentinel.ErrNotFound
	}
	doc := s.docs[id]
	return slices.Clone(doc.Content), doc.ContentType, nil
}

func (s *InMemory) ListByApplication(_ context.Context, applicationID string) ([]*models.SignedDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.SignedDocument, 0)
	for _, doc := range s.docs {
		if doc.ApplicationID == applicationID {
			out = append(out, doc.Metadata())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
