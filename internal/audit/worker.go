package audit

import (
	"context"
	"log/slog"
)

// Worker consumes audit entries from a channel and persists them through the
// publisher. A failed write is logged and the worker moves on.
type Worker struct {
	publisher *Publisher
	inbox     <-chan Entry
	logger    *slog.Logger
}

func NewWorker(publisher *Publisher, inbox <-chan Entry, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{publisher: publisher, inbox: inbox, logger: logger}
}

// Run persists entries until ctx is cancelled, then drains what is already
// buffered.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.drain(context.WithoutCancel(ctx))
			return ctx.Err()
		case entry, ok := <-w.inbox:
			if !ok {
				return nil
			}
			w.persist(ctx, entry)
		}
	}
}

func (w *Worker) drain(ctx context.Context) {
	for {
		select {
		case entry, ok := <-w.inbox:
			if !ok {
				return
			}
			w.persist(ctx, entry)
		default:
			return
		}
	}
}

func (w *Worker) persist(ctx context.Context, entry Entry) {
	if err := w.publisher.Emit(ctx, entry); err != nil {
		w.logger.ErrorContext(ctx, "failed to persist audit entry",
			"application_id", entry.ApplicationID,
			"action", entry.Action,
			"error", err,
		)
	}
}
