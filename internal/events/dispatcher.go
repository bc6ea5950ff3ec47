package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Handler reacts to a dispatched event.
type Handler func(ctx context.Context, e Event) error

// Dispatcher is a synchronous in-process pub/sub. Handlers run in subscription
// order; a failing handler is logged and does not stop its siblings.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	all      []Handler
	logger   *slog.Logger
}

type Option func(*Dispatcher)

func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// NewDispatcher constructs an empty dispatcher.
func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{handlers: make(map[string][]Handler)}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d
}

// Subscribe registers a handler for one event name.
func (d *Dispatcher) Subscribe(name string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[name] = append(d.handlers[name], h)
}

// SubscribeAll registers a handler for every event.
func (d *Dispatcher) SubscribeAll(h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.all = append(d.all, h)
}

// Dispatch delivers events in order and returns the joined handler errors.
func (d *Dispatcher) Dispatch(ctx context.Context, evts ...Event) error {
	var errs []error
	for _, e := range evts {
		d.mu.RLock()
		handlers := make([]Handler, 0, len(d.handlers[e.Name()])+len(d.all))
		handlers = append(handlers, d.handlers[e.Name()]...)
		handlers = append(handlers, d.all...)
		d.mu.RUnlock()

		for _, h := range handlers {
			if err := d.invoke(ctx, h, e); err != nil {
				d.logger.ErrorContext(ctx, "event handler failed",
					"event", e.Name(),
					"aggregate_id", e.AggregateID(),
					"error", err,
				)
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (d *Dispatcher) invoke(ctx context.Context, h Handler, e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic for %s: %v", e.Name(), r)
		}
	}()
	return h(ctx, e)
}
