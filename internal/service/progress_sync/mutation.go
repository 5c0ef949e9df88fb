package progress_sync

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// State is the lifecycle position of a mutation.
type State string

// Mutation states
const (
	StateIdle       State = "idle"
	StatePending    State = "pending"
	StateCommitted  State = "committed"
	StateRolledBack State = "rolled_back"
)

// Settled reports whether s is terminal.
func (s State) Settled() bool {
	return s == StateCommitted || s == StateRolledBack
}

// Mutation tracks one speculative change from the moment it is applied
// until the remote service confirms or refuses it. S is the snapshot of the
// sub-state the change affects.
//
//	Idle -> Pending(snapshot) -> Committed
//	                          -> RolledBack
type Mutation[S any] struct {
	ID        uuid.UUID
	Kind      Kind
	Key       string
	state     State
	snapshot  S
	startedAt time.Time
	settledAt time.Time
}

// NewMutation creates an idle mutation.
func NewMutation[S any](kind Kind, key string) *Mutation[S] {
	return &Mutation[S]{
		ID:    uuid.New(),
		Kind:  kind,
		Key:   key,
		state: StateIdle,
	}
}

// State returns the current state.
func (m *Mutation[S]) State() State {
	return m.state
}

// Snapshot returns the sub-state captured by Begin.
func (m *Mutation[S]) Snapshot() S {
	return m.snapshot
}

// Elapsed is the time between Begin and settlement, or zero while pending.
func (m *Mutation[S]) Elapsed() time.Duration {
	if m.settledAt.IsZero() {
		return 0
	}
	return m.settledAt.Sub(m.startedAt)
}

// Begin records the snapshot and moves Idle to Pending.
func (m *Mutation[S]) Begin(snapshot S) error {
	if err := m.transition(StateIdle, StatePending); err != nil {
		return err
	}
	m.snapshot = snapshot
	m.startedAt = time.Now()
	return nil
}

// Commit moves Pending to Committed.
func (m *Mutation[S]) Commit() error {
	if err := m.transition(StatePending, StateCommitted); err != nil {
		return err
	}
	m.settledAt = time.Now()
	return nil
}

// RollBack moves Pending to RolledBack and returns the snapshot to restore.
func (m *Mutation[S]) RollBack() (S, error) {
	if err := m.transition(StatePending, StateRolledBack); err != nil {
		var zero S
		return zero, err
	}
	m.settledAt = time.Now()
	return m.snapshot, nil
}

func (m *Mutation[S]) transition(from, to State) error {
	if m.state != from {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.state, to)
	}
	m.state = to
	return nil
}
