package events

import (
	"context"
	"errors"
	"sync"
)

// Handler consumes one booking lifecycle event.
type Handler func(context.Context, Event) error

// Dispatcher fans booking lifecycle events out to subscribed handlers.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler Handler)
}

// memoryDispatcher delivers events synchronously, in subscription order.
// A failing handler never blocks delivery to the rest; the joined errors
// go back to the publisher, which treats notification as best-effort.
type memoryDispatcher struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewInMemoryDispatcher creates the process-local dispatcher.
func NewInMemoryDispatcher() Dispatcher {
	return &memoryDispatcher{handlers: make(map[EventType][]Handler)}
}

func (d *memoryDispatcher) Publish(ctx context.Context, event Event) error {
	d.mu.RLock()
	subscribed := append([]Handler(nil), d.handlers[event.Type]...)
	d.mu.RUnlock()

	var errs []error
	for _, handler := range subscribed {
		if err := handler(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (d *memoryDispatcher) Subscribe(eventType EventType, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[eventType] = append(d.handlers[eventType], handler)
}
