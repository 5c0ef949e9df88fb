// Package memgateway is an in-process implementation of gateway.StateGateway.
// It backs the offline mode of vocabd and the integration tests of the sync
// coordinator, and schedules reviews authoritatively with the SRS engine.
package memgateway

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/vocab-trainer/internal/domain"
	"github.com/phrazzld/vocab-trainer/internal/domain/srs"
	"github.com/phrazzld/vocab-trainer/internal/gateway"
)

// WordSource supplies new vocabulary.
type WordSource interface {
	GenerateWords(ctx context.Context, count int) ([]domain.Word, error)
}

// Interceptor runs before every operation. A non-nil error fails the
// operation without touching the backend state.
type Interceptor func(ctx context.Context, op string) error

// Option configures a Backend.
type Option func(*Backend)

// WithClock sets the backend clock.
func WithClock(now func() time.Time) Option {
	return func(b *Backend) { b.now = now }
}

// WithSRS sets the scheduling service.
func WithSRS(svc srs.Service) Option {
	return func(b *Backend) { b.srs = svc }
}

// WithWordSource sets where GenerateNewWords draws from.
func WithWordSource(src WordSource) Option {
	return func(b *Backend) { b.words = src }
}

// WithInterceptor installs an operation hook.
func WithInterceptor(fn Interceptor) Option {
	return func(b *Backend) { b.intercept = fn }
}

// Operation names passed to interceptors
const (
	OpGetUserState         = "get_user_state"
	OpGenerateNewWords     = "generate_new_words"
	OpRecordInteraction    = "record_interaction"
	OpToggleBookmark       = "toggle_bookmark"
	OpAddPracticeSession   = "add_practice_session"
	OpClearPracticeHistory = "clear_practice_history"
	OpUpdateSettings       = "update_settings"
	OpUpdateFriends        = "update_friends"
)

// Backend holds one user's state in memory.
type Backend struct {
	mu        sync.Mutex
	state     domain.UserState
	srs       srs.Service
	words     WordSource
	now       func() time.Time
	intercept Interceptor
}

var _ gateway.StateGateway = (*Backend)(nil)

// New creates a backend seeded with initial.
func New(initial domain.UserState, opts ...Option) *Backend {
	b := &Backend{
		state: initial.Clone(),
		srs:   srs.NewDefaultService(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Backend) before(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", gateway.ErrUnavailable, err)
	}
	if b.intercept != nil {
		if err := b.intercept(ctx, op); err != nil {
			return err
		}
	}
	return nil
}

// GetUserState implements gateway.StateGateway.
func (b *Backend) GetUserState(ctx context.Context) (domain.UserState, error) {
	if err := b.before(ctx, OpGetUserState); err != nil {
		return domain.UserState{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.Clone(), nil
}

// GenerateNewWords implements gateway.StateGateway. Generated words already
// present in the vocabulary are dropped.
func (b *Backend) GenerateNewWords(ctx context.Context, count int) ([]domain.Word, error) {
	if err := b.before(ctx, OpGenerateNewWords); err != nil {
		return nil, err
	}
	if count <= 0 {
		return nil, fmt.Errorf("%w: count must be positive", gateway.ErrRejected)
	}
	if b.words == nil {
		return nil, fmt.Errorf("%w: no word source configured", gateway.ErrUnavailable)
	}

	generated, err := b.words.GenerateWords(ctx, count)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", gateway.ErrUnavailable, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	added := make([]domain.Word, 0, len(generated))
	for _, w := range generated {
		if b.indexOf(w.Word) >= 0 || w.Validate() != nil {
			continue
		}
		w.Srs = nil
		b.state.Words = append(b.state.Words, w.Clone())
		added = append(added, w.Clone())
	}
	return added, nil
}

// RecordInteraction implements gateway.StateGateway.
func (b *Backend) RecordInteraction(ctx context.Context, wordID string, quality int) (domain.Word, error) {
	if err := b.before(ctx, OpRecordInteraction); err != nil {
		return domain.Word{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.indexOf(wordID)
	if i < 0 {
		return domain.Word{}, fmt.Errorf("%w: %w: %q", gateway.ErrRejected, domain.ErrWordNotFound, wordID)
	}

	record, err := b.srs.Schedule(b.state.Words[i].Srs, quality, b.now())
	if err != nil {
		return domain.Word{}, fmt.Errorf("%w: %w", gateway.ErrRejected, err)
	}

	b.state.Words[i].Srs = record
	b.state.QuizStats.TotalAnswered++
	if domain.IsSuccess(quality) {
		b.state.QuizStats.TotalCorrect++
	}
	return b.state.Words[i].Clone(), nil
}

// ToggleBookmark implements gateway.StateGateway.
func (b *Backend) ToggleBookmark(ctx context.Context, wordID string) error {
	if err := b.before(ctx, OpToggleBookmark); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if i := slices.Index(b.state.BookmarkedWords, wordID); i >= 0 {
		b.state.BookmarkedWords = slices.Delete(b.state.BookmarkedWords, i, i+1)
		return nil
	}
	b.state.BookmarkedWords = append(b.state.BookmarkedWords, wordID)
	return nil
}

// AddPracticeSession implements gateway.StateGateway.
func (b *Backend) AddPracticeSession(
	ctx context.Context,
	session domain.NewPracticeSession,
) ([]domain.PracticeSession, error) {
	if err := b.before(ctx, OpAddPracticeSession); err != nil {
		return nil, err
	}
	if err := session.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", gateway.ErrRejected, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	recorded := domain.PracticeSession{
		ID:    uuid.NewString(),
		Type:  session.Type,
		Score: session.Score,
		Total: session.Total,
		Date:  b.now(),
	}
	b.state.PracticeHistory = append([]domain.PracticeSession{recorded}, b.state.PracticeHistory...)
	return slices.Clone(b.state.PracticeHistory), nil
}

// ClearPracticeHistory implements gateway.StateGateway.
func (b *Backend) ClearPracticeHistory(ctx context.Context) error {
	if err := b.before(ctx, OpClearPracticeHistory); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.state.PracticeHistory = []domain.PracticeSession{}
	return nil
}

// UpdateSettings implements gateway.StateGateway.
func (b *Backend) UpdateSettings(ctx context.Context, settings domain.Settings) error {
	if err := b.before(ctx, OpUpdateSettings); err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("%w: %w", gateway.ErrRejected, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.state.Settings = settings
	return nil
}

// UpdateFriends implements gateway.StateGateway.
func (b *Backend) UpdateFriends(ctx context.Context, friendIDs []int64) error {
	if err := b.before(ctx, OpUpdateFriends); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.state.FriendIDs = slices.Clone(friendIDs)
	return nil
}

// Snapshot returns a copy of the backend state.
func (b *Backend) Snapshot() domain.UserState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.Clone()
}

func (b *Backend) indexOf(id string) int {
	return slices.IndexFunc(b.state.Words, func(w domain.Word) bool { return w.Word == id })
}
