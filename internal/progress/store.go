package progress

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/phrazzld/vocab-trainer/internal/domain"
)

// ErrNotInitialized is returned when the store is mutated before an initial
// state has been installed.
var ErrNotInitialized = errors.New("progress store is not initialized")

// Reader is the read-only view of the store handed to consumers.
type Reader interface {
	Now() time.Time
	Ready() bool
	Version() uint64
	State() domain.UserState
	Word(id string) (domain.Word, bool)
	Words() []domain.Word
	LearnedWords() []domain.Word
	WordsToLearn() []domain.Word
	WordsToReview() []domain.Word
	BookmarkedWords() []domain.Word
	IsBookmarked(id string) bool
	QuizStats() domain.QuizStats
	Progress() domain.ProgressSnapshot
	History() []domain.PracticeSession
	Settings() domain.Settings
	FriendIDs() []int64
	IsFriend(id int64) bool
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used to decide which words are due.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Store holds the canonical local copy of the user state. Reads return deep
// copies; writes go through Update and are atomic with respect to every read.
type Store struct {
	mu      sync.RWMutex
	state   domain.UserState
	ready   bool
	version uint64
	now     func() time.Time
}

var _ Reader = (*Store)(nil)

// NewStore creates an empty, uninitialized store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		state: domain.NewUserState(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Replace installs an authoritative state, e.g. after loading it from the
// remote service. The state is validated and deep-copied.
func (s *Store) Replace(state domain.UserState) error {
	if err := state.Validate(); err != nil {
		return fmt.Errorf("replace user state: %w", err)
	}
	normalized := normalize(state.Clone())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = normalized
	s.ready = true
	s.version++
	return nil
}

// ReplaceIfVersion installs state only if the store is still at version. It
// reports whether the state was installed. A refresh started before a local
// mutation must not overwrite that mutation's result.
func (s *Store) ReplaceIfVersion(version uint64, state domain.UserState) (bool, error) {
	if err := state.Validate(); err != nil {
		return false, fmt.Errorf("replace user state: %w", err)
	}
	normalized := normalize(state.Clone())

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.version != version {
		return false, nil
	}
	s.state = normalized
	s.ready = true
	s.version++
	return true, nil
}

// Update runs fn against a working copy of the state and commits it only when
// fn returns nil. Readers observe either the state before fn or the state
// after it, never a partial mutation.
func (s *Store) Update(fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready {
		return ErrNotInitialized
	}

	tx := &Tx{state: s.state.Clone(), now: s.now()}
	if err := fn(tx); err != nil {
		return err
	}
	if !tx.dirty {
		return nil
	}

	s.state = tx.state
	s.version++
	return nil
}

// Now returns the store clock's current time.
func (s *Store) Now() time.Time {
	return s.now()
}

// Ready reports whether an initial state has been installed.
func (s *Store) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Version increases on every committed change.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// State returns a deep copy of the whole state.
func (s *Store) State() domain.UserState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

func (s *Store) read(fn func(state *domain.UserState)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(&s.state)
}

// normalize replaces nil collections so JSON encodes empty lists.
func normalize(state domain.UserState) domain.UserState {
	if state.Words == nil {
		state.Words = []domain.Word{}
	}
	if state.BookmarkedWords == nil {
		state.BookmarkedWords = []string{}
	}
	if state.FriendIDs == nil {
		state.FriendIDs = []int64{}
	}
	if state.PracticeHistory == nil {
		state.PracticeHistory = []domain.PracticeSession{}
	}
	if state.Settings == (domain.Settings{}) {
		state.Settings = domain.DefaultSettings()
	}
	return state
}
