package events

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Handler processes events of the types it subscribed to.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, event Event) error

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus is an in-memory pub/sub bus. Handlers run synchronously on the
// publisher's goroutine; one handler's error or panic never blocks the rest.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   zerolog.Logger
}

// NewBus creates a new event bus
func NewBus(logger zerolog.Logger) *Bus {
	return &Bus{
		handlers: make(map[string][]Handler),
		logger:   logger,
	}
}

// Subscribe registers a handler for the given event types
func (b *Bus) Subscribe(handler Handler, eventTypes ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range eventTypes {
		b.handlers[t] = append(b.handlers[t], handler)
	}
	b.logger.Debug().Strs("event_types", eventTypes).Msg("Handler subscribed")
}

// Publish dispatches events to all registered handlers
func (b *Bus) Publish(ctx context.Context, evs ...Event) {
	for _, event := range evs {
		b.mu.RLock()
		handlers := b.handlers[event.EventType()]
		b.mu.RUnlock()

		for _, handler := range handlers {
			if err := b.dispatch(ctx, handler, event); err != nil {
				b.logger.Error().
					Err(err).
					Str("event_type", event.EventType()).
					Msg("Event handler failed")
			}
		}
	}
}

// dispatch safely dispatches an event to a handler
func (b *Bus) dispatch(ctx context.Context, handler Handler, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error().
				Str("event_type", event.EventType()).
				Interface("panic", r).
				Msg("Event handler panicked")
		}
	}()
	return handler.Handle(ctx, event)
}
