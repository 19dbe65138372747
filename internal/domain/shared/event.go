package shared

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is a fact raised by an aggregate, such as a cart change or a
// settled order. Subscribers learn about it from the event bus.
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() string
	AggregateType() string
}

// BaseDomainEvent carries the envelope every event shares. Concrete events
// embed it and add their payload.
type BaseDomainEvent struct {
	ID            uuid.UUID `json:"id"`
	Type          string    `json:"type"`
	At            time.Time `json:"occurred_at"`
	Aggregate     string    `json:"aggregate_id"`
	AggregateKind string    `json:"aggregate_type"`
}

// NewBaseDomainEvent stamps a new envelope with a random id and the current
// time.
func NewBaseDomainEvent(eventType, aggregateType, aggregateID string) BaseDomainEvent {
	return BaseDomainEvent{
		ID:            uuid.New(),
		Type:          eventType,
		At:            time.Now(),
		Aggregate:     aggregateID,
		AggregateKind: aggregateType,
	}
}

// DomainEvent accessors

func (e *BaseDomainEvent) EventID() uuid.UUID { return e.ID }
func (e *BaseDomainEvent) EventType() string { return e.Type }
func (e *BaseDomainEvent) OccurredAt() time.Time { return e.At }
func (e *BaseDomainEvent) AggregateID() string { return e.Aggregate }
func (e *BaseDomainEvent) AggregateType() string { return e.AggregateKind }
