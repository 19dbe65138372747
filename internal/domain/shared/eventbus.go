package shared

import "context"

// EventHandler reacts to domain events after the change that raised them
// has been committed. EventTypes lists the types it wants; an empty list
// subscribes it to every event.
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	EventTypes() []string
}

// EventPublisher is what application services see of the bus
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventSubscriber registers handlers. No event types means all of them.
type EventSubscriber interface {
	Subscribe(handler EventHandler, eventTypes ...string)
	Unsubscribe(handler EventHandler)
}

// EventBus is a publisher and subscriber with a lifecycle
type EventBus interface {
	EventPublisher
	EventSubscriber
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// NopEventPublisher drops every event. Services fall back to it when
// constructed without a bus.
type NopEventPublisher struct{}

// Publish implements EventPublisher
func (NopEventPublisher) Publish(context.Context, ...DomainEvent) error { return nil }
