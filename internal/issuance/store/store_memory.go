package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"onboard/internal/credentials"
	"onboard/internal/issuance/models"
	"onboard/pkg/platform/sentinel"
)

// InMemory keeps offers in a map keyed by id with a pre-authorized code index.
type InMemory struct {
	mu     sync.RWMutex
	offers map[string]*models.IssuedCredential
	byCode map[string]string
}

func NewInMemory() *InMemory {
	return &InMemory{
		offers: make(map[string]*models.IssuedCredential),
		byCode: make(map[string]string),
	}
}

func (s *InMemory) Create(_ context.Context, offer *models.IssuedCredential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.offers[offer.ID]; ok {
		return sentinel.ErrConflict
	}
	if _, ok := s.byCode[offer.PreAuthorizedCode]; ok {
		return sentinel.ErrConflict
	}
	s.offers[offer.ID] = offer.Clone()
	s.byCode[offer.PreAuthorizedCode] = offer.ID
	return nil
}

// Update persists a claim. Offers already claimed are not rewritten.
func (s *InMemory) Update(_ context.Context, offer *models.IssuedCredential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.offers[offer.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if stored.Claimed {
		return sentinel.ErrConflict
	}
	updated := stored.Clone()
	updated.Claimed = offer.Claimed
	updated.ClaimedAt = offer.Clone().ClaimedAt
	updated.ExpiresAt = offer.ExpiresAt
	s.offers[offer.ID] = updated
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id string) (*models.IssuedCredential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	offer, ok := s.offers[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return offer.Clone(), nil
}

func (s *InMemory) FindByPreAuthorizedCode(_ context.Context, code string) (*models.IssuedCredential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byCode[code]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.offers[id].Clone(), nil
}

func (s *InMemory) ListByApplication(_ context.Context, applicationID string) ([]*models.IssuedCredential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.IssuedCredential, 0)
	for _, offer := range s.offers {
		if offer.ApplicationID == applicationID {
			out = append(out, offer.Clone())
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

// ExpireLive ends every live offer of the given type for the application and
// returns how many were ended.
func (s *InMemory) ExpireLive(_ context.Context, applicationID string, credentialType credentials.Type, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, offer := range s.offers {
		if offer.ApplicationID != applicationID || offer.CredentialType != credentialType {
			continue
		}
		if offer.Expire(now) {
			n++
		}
	}
	return n, nil
}
