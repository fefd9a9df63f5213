package events

import (
	"context"
	"sync"
	"time"
)

// Event types published on the bus under events.<TYPE>.
const (
	MembershipGraceStarted = "MEMBERSHIP_GRACE_STARTED"
	MembershipTerminated   = "MEMBERSHIP_TERMINATED"
	MembershipExpired      = "MEMBERSHIP_EXPIRED"
	TrainerGraceStarted    = "TRAINER_GRACE_STARTED"
	TrainerAccessRevoked   = "TRAINER_ACCESS_REVOKED"
	TrainerRenewalApproved = "TRAINER_RENEWAL_APPROVED"
	LifecycleRunCompleted  = "LIFECYCLE_RUN_COMPLETED"
)

// Event is the interface that all domain events must implement.
type Event interface {
	EventType() string
	Payload() interface{}
	Timestamp() time.Time
}

// BaseEvent provides a default implementation of Event.
type BaseEvent struct {
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	OccurredAt time.Time              `json:"occurred_at"`
}

func New(eventType string, data map[string]interface{}, at time.Time) BaseEvent {
	return BaseEvent{Type: eventType, Data: data, OccurredAt: at}
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// Publisher is what the lifecycle and renewal code publish through.
// Publish failures are reported but callers treat them as best-effort.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, event Event) error { return nil }

// Recorder keeps every published event in memory. gymctl prints them after a
// simulated run.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	Err    error
}

func (r *Recorder) Publish(ctx context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.events = append(r.events, event)
	return nil
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// OfType returns the recorded events with the given type.
func (r *Recorder) OfType(eventType string) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.EventType() == eventType {
			out = append(out, e)
		}
	}
	return out
}
