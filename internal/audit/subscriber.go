package audit

import (
	"context"

	"onboard/internal/events"
	"onboard/pkg/requestcontext"
)

// Subscriber turns domain events into audit entries and hands them to the
// worker inbox. It blocks while the inbox is full.
type Subscriber struct {
	inbox chan<- Entry
}

func NewSubscriber(inbox chan<- Entry) *Subscriber {
	return &Subscriber{inbox: inbox}
}

// Handle satisfies events.Handler.
func (s *Subscriber) Handle(ctx context.Context, e events.Event) error {
	entry := FromEvent(e)
	entry.RequestID = requestcontext.RequestID(ctx)
	select {
	case s.inbox <- entry:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
