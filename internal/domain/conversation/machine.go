package conversation

import (
	"fmt"
	"time"

	"github.com/storefront/backend/internal/domain/shared"
)

// Trigger is the discriminator of an incoming action
type Trigger string

const (
	TriggerStartSearch           Trigger = "start_search"
	TriggerStartSearchInCategory Trigger = "start_search_in_category"
	TriggerStartRecommendation   Trigger = "start_recommendation"
	TriggerText                  Trigger = "text"
	TriggerCancel                Trigger = "cancel"
	// TriggerNavigate covers browsing, pagination and cart buttons.
	TriggerNavigate Trigger = "navigate"
)

// Intent tells the caller how to treat a consumed text message
type Intent string

const (
	IntentNone             Intent = ""
	IntentSearch           Intent = "search"
	IntentSearchInCategory Intent = "search_in_category"
	IntentRecommend        Intent = "recommend"
)

// Event is a trigger plus the data a transition needs
type Event struct {
	Trigger    Trigger
	CategoryID *int64
}

type transition struct {
	to     State
	intent Intent
}

var startTransitions = map[Trigger]transition{
	TriggerStartSearch:           {to: StateAwaitingSearchQuery},
	TriggerStartSearchInCategory: {to: StateAwaitingSearchQueryInCategory},
	TriggerStartRecommendation:   {to: StateAwaitingRecommendationRequest},
	TriggerCancel:                {to: StateIdle},
}

// transitions is keyed by current state, then trigger. Triggers missing
// from a row leave the state unchanged.
var transitions = map[State]map[Trigger]transition{
	StateIdle: withStarts(map[Trigger]transition{
		TriggerText: {to: StateIdle, intent: IntentSearch},
	}),
	StateAwaitingSearchQuery: withStarts(map[Trigger]transition{
		TriggerText: {to: StateIdle, intent: IntentSearch},
	}),
	StateAwaitingSearchQueryInCategory: withStarts(map[Trigger]transition{
		TriggerText: {to: StateIdle, intent: IntentSearchInCategory},
	}),
	StateAwaitingRecommendationRequest: withStarts(map[Trigger]transition{
		TriggerText: {to: StateIdle, intent: IntentRecommend},
	}),
}

func withStarts(row map[Trigger]transition) map[Trigger]transition {
	for k, v := range startTransitions {
		row[k] = v
	}
	return row
}

// Step describes the outcome of firing an event
type Step struct {
	From       State
	To         State
	Intent     Intent
	CategoryID *int64 // scope of an in-category search
	Expired    bool   // the waiting state timed out before this event
}

// Machine drives per-user sessions through the transition table
type Machine struct {
	idleTimeout time.Duration
	now         func() time.Time
}

// MachineOption configures a Machine
type MachineOption func(*Machine)

// WithClock overrides the time source
func WithClock(now func() time.Time) MachineOption {
	return func(m *Machine) { m.now = now }
}

// NewMachine creates a state machine. A zero idleTimeout keeps waiting
// states parked until the next matching input.
func NewMachine(idleTimeout time.Duration, opts ...MachineOption) *Machine {
	m := &Machine{idleTimeout: idleTimeout, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Now returns the machine's current time
func (m *Machine) Now() time.Time {
	return m.now()
}

// Expire reverts a waiting session that has been idle past the timeout.
// It reports whether the session was reset.
func (m *Machine) Expire(s *Session) bool {
	if m.idleTimeout <= 0 || !s.State.IsWaiting() {
		return false
	}
	if m.now().Sub(s.UpdatedAt) < m.idleTimeout {
		return false
	}
	s.reset(m.now())
	return true
}

// Fire applies an event to the session and returns the resulting step
func (m *Machine) Fire(s *Session, e Event) (Step, error) {
	expired := m.Expire(s)
	step := Step{From: s.State, To: s.State, Expired: expired}

	row, ok := transitions[s.State]
	if !ok {
		return step, shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("Unknown conversation state %q", s.State))
	}
	t, ok := row[e.Trigger]
	if !ok {
		return step, nil
	}

	if e.Trigger == TriggerStartSearchInCategory && e.CategoryID == nil {
		return step, shared.NewDomainError(shared.CodeInvalidInput, "Category is required to search in a category")
	}

	step.To = t.to
	step.Intent = t.intent
	if t.intent == IntentSearchInCategory {
		step.CategoryID = s.CategoryID
	}

	s.State = t.to
	s.CategoryID = nil
	if e.Trigger == TriggerStartSearchInCategory {
		id := *e.CategoryID
		s.CategoryID = &id
	}
	s.UpdatedAt = m.now()
	return step, nil
}
