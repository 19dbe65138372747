package event

import (
	"sync"

	"github.com/storefront/backend/internal/domain/shared"
)

// HandlerRegistry maps event types to the handlers subscribed to them
type HandlerRegistry struct {
	mu       sync.RWMutex
	handlers map[string][]shared.EventHandler
	wildcard []shared.EventHandler // receive every event
}

// NewHandlerRegistry creates an empty registry
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{handlers: make(map[string][]shared.EventHandler)}
}

// Register subscribes handler to eventTypes, or to every event when none are given.
// Registering the same handler twice for a type is a no-op.
func (r *HandlerRegistry) Register(handler shared.EventHandler, eventTypes ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(eventTypes) == 0 {
		r.wildcard = appendUnique(r.wildcard, handler)
		return
	}
	for _, t := range eventTypes {
		r.handlers[t] = appendUnique(r.handlers[t], handler)
	}
}

// Unregister removes handler from every subscription
func (r *HandlerRegistry) Unregister(handler shared.EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.wildcard = without(r.wildcard, handler)
	for t, hs := range r.handlers {
		if hs = without(hs, handler); len(hs) == 0 {
			delete(r.handlers, t)
		} else {
			r.handlers[t] = hs
		}
	}
}

// For returns the handlers for eventType followed by the wildcard handlers
func (r *HandlerRegistry) For(eventType string) []shared.EventHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	typed := r.handlers[eventType]
	out := make([]shared.EventHandler, 0, len(typed)+len(r.wildcard))
	out = append(out, typed...)
	return append(out, r.wildcard...)
}

// Len returns the number of distinct registered handlers
func (r *HandlerRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[shared.EventHandler]struct{})
	for _, h := range r.wildcard {
		seen[h] = struct{}{}
	}
	for _, hs := range r.handlers {
		for _, h := range hs {
			seen[h] = struct{}{}
		}
	}
	return len(seen)
}

func appendUnique(hs []shared.EventHandler, h shared.EventHandler) []shared.EventHandler {
	for _, existing := range hs {
		if existing == h {
			return hs
		}
	}
	return append(hs, h)
}

func without(hs []shared.EventHandler, target shared.EventHandler) []shared.EventHandler {
	out := make([]shared.EventHandler, 0, len(hs))
	for _, h := range hs {
		if h != target {
			out = append(out, h)
		}
	}
	return out
}
