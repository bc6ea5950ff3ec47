package store

import (
	"context"
	"slices"
	"sync"

	"onboard/internal/audit"
)

type InMemory struct {
	mu      sync.RWMutex
	entries map[string][]audit.Entry
}

func NewInMemory() *InMemory {
	return &InMemory{entries: make(map[string][]audit.Entry)}
}

func (s *InMemory) Append(_ context.Context, entry audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.ApplicationID] = append(s.entries[entry.ApplicationID], entry)
	return nil
}

func (s *InMemory) ListByApplication(_ context.Context, applicationID string) ([]audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := slices.Clone(s.entries[applicationID])
	if out == nil {
		out = []audit.Entry{}
	}
	slices.SortStableFunc(out, func(a, b audit.Entry) int {
		return a.OccurredAt.Compare(b.OccurredAt)
	})
	return out, nil
}
