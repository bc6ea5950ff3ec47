package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store persists audit entries.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	ListByApplication(ctx context.Context, applicationID string) ([]Entry, error)
}

// Publisher writes audit entries synchronously and reads the trail back.
type Publisher struct {
	store Store
}

func NewPublisher(store Store) *Publisher {
	return &Publisher{store: store}
}

func (p *Publisher) Emit(ctx context.Context, entry Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = time.Now().UTC()
	}
	return p.store.Append(ctx, entry)
}

// List returns the trail of one application, oldest first.
func (p *Publisher) List(ctx context.Context, applicationID string) ([]Entry, error) {
	return p.store.ListByApplication(ctx, applicationID)
}
