package progress_sync

import "errors"

var (
	// ErrInvalidTransition is returned when a mutation is moved to a state
	// that cannot follow its current one.
	ErrInvalidTransition = errors.New("invalid mutation state transition")

	// errNoop signals from an apply step that the requested change matches
	// the current state and no remote call is needed.
	errNoop = errors.New("mutation is a no-op")
)
