package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Outcome is the terminal state of a mutation.
type Outcome string

// Terminal mutation outcomes
const (
	OutcomeCommitted  Outcome = "committed"
	OutcomeRolledBack Outcome = "rolled_back"
)

// MutationEvent reports that a mutation of the local state settled, either
// because the remote service confirmed it or because it was rolled back.
type MutationEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// MutationID identifies the mutation that settled
	MutationID uuid.UUID `json:"mutation_id"`

	// Kind is the operation, e.g. "toggle_bookmark"
	Kind string `json:"kind"`

	// Key is the entity key the mutation was serialized on
	Key string `json:"key"`

	// Outcome is committed or rolled_back
	Outcome Outcome `json:"outcome"`

	// Error holds the failure message of a rolled back mutation
	Error string `json:"error,omitempty"`

	// Duration is how long the remote call took
	Duration time.Duration `json:"duration"`

	// Payload contains operation-specific data serialized as JSON
	Payload json.RawMessage `json:"payload,omitempty"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *MutationEvent) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewMutationEvent creates a MutationEvent. A nil payload is omitted.
func NewMutationEvent(
	mutationID uuid.UUID,
	kind, key string,
	outcome Outcome,
	duration time.Duration,
	cause error,
	payload interface{},
) (*MutationEvent, error) {
	event := &MutationEvent{
		ID:         uuid.New(),
		MutationID: mutationID,
		Kind:       kind,
		Key:        key,
		Outcome:    outcome,
		Duration:   duration,
		CreatedAt:  time.Now(),
	}
	if cause != nil {
		event.Error = cause.Error()
	}
	if payload != nil {
		payloadBytes, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		event.Payload = payloadBytes
	}
	return event, nil
}

// EventHandler defines an interface for components that react to settled
// mutations, such as persistence and metrics.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *MutationEvent) error
}

// EventHandlerFunc adapts a function to the EventHandler interface.
type EventHandlerFunc func(ctx context.Context, event *MutationEvent) error

// HandleEvent calls f.
func (f EventHandlerFunc) HandleEvent(ctx context.Context, event *MutationEvent) error {
	return f(ctx, event)
}

// EventEmitter defines an interface for components that can emit events.
// This allows the coordinator to publish outcomes without knowing the handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *MutationEvent) error
}
