// Package eventbus provides the single in-process typed emitter that the
// Stream Manager and Compaction Engine use to notify frontend bridges.
//
// Subscribers are not identified by the bus; the only contract is that each
// emission is dispatched synchronously to every subscriber in registration
// order, and that emission never panics regardless of what a subscriber
// does with the event.
package eventbus

import (
	"sync"

	"mux/pkg/logging"
)

// Handler receives one Event per call. Handlers run on the publisher's
// goroutine; a slow or blocking handler delays every subscriber after it in
// registration order, so handlers should hand events off (e.g. to a
// channel) rather than do real work inline.
type Handler func(Event)

// Bus is a single typed in-process emitter. The zero value is not usable;
// construct with New.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{}
}

// Subscribe registers h to receive every future emission, returning an
// unsubscribe function. Handlers are invoked in the order they were
// subscribed.
func (b *Bus) Subscribe(h Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	idx := len(b.handlers)
	b.handlers = append(b.handlers, h)

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if idx < len(b.handlers) {
			b.handlers[idx] = nil
		}
	}
}

// Publish dispatches ev to every subscriber in registration order. A
// subscriber that panics is logged and skipped; Publish itself never
// panics or returns an error.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, h := range handlers {
		if h == nil {
			continue
		}
		invokeSafely(h, ev)
	}
}

func invokeSafely(h Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("eventbus", nil, "subscriber panicked handling %s: %v", ev.Kind, r)
		}
	}()
	h(ev)
}
