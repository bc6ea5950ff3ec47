package store

import (
	"context"
	"sync"

	"onboard/internal/application/models"
	"onboard/pkg/platform/sentinel"
)

// InMemory keeps applications in a map. Stored values are clones so callers
// never share aggregates or pending events with the store.
type InMemory struct {
	mu   sync.RWMutex
	apps map[string]*models.Application
}

func NewInMemory() *InMemory {
	return &InMemory{apps: make(map[string]*models.Application)}
}

func (s *InMemory) Create(_ context.Context, app *models.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.apps[app.ID]; ok {
		return sentinel.ErrConflict
	}
	s.apps[app.ID] = app.Clone()
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id string) (*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	app, ok := s.apps[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return app.Clone(), nil
}

// Update replaces the stored application only if its status still equals
// expected; otherwise it reports ErrConflict.
func (s *InMemory) Update(_ context.Context, app *models.Application, expected models.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.apps[app.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if current.Status != expected {
		return sentinel.ErrConflict
	}
	s.apps[app.ID] = app.Clone()
	return nil
}
