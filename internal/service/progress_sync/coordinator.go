package progress_sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/vocab-trainer/internal/domain"
	"github.com/phrazzld/vocab-trainer/internal/domain/srs"
	"github.com/phrazzld/vocab-trainer/internal/events"
	"github.com/phrazzld/vocab-trainer/internal/gateway"
	"github.com/phrazzld/vocab-trainer/internal/platform/logger"
	"github.com/phrazzld/vocab-trainer/internal/progress"
	"github.com/phrazzld/vocab-trainer/internal/redact"
)

// Kind names a coordinator operation.
type Kind string

// Operation kinds
const (
	KindRecordInteraction    Kind = "record_interaction"
	KindToggleBookmark       Kind = "toggle_bookmark"
	KindAddPracticeSession   Kind = "add_practice_session"
	KindClearPracticeHistory Kind = "clear_practice_history"
	KindUpdateSettings       Kind = "update_settings"
	KindUpdateFriends        Kind = "update_friends"
	KindFetchNewWords        Kind = "fetch_new_words"
)

// Entity keys mutations are serialized on
const (
	KeyHistory  = "history"
	KeySettings = "settings"
	KeyFriends  = "friends"
	KeyWords    = "words"
)

// WordKey is the serialization key of a word's review record.
func WordKey(id string) string { return "word:" + id }

// BookmarkKey is the serialization key of a word's bookmark flag.
func BookmarkKey(id string) string { return "bookmark:" + id }

// Defaults
const (
	DefaultRemoteTimeout = 10 * time.Second
	DefaultNewWordsBatch = 5
)

// Result describes how a mutation settled.
type Result struct {
	MutationID uuid.UUID `json:"mutation_id"`
	Kind       Kind      `json:"kind"`
	Key        string    `json:"key"`
	State      State     `json:"state"`
}

// Noop reports whether the mutation was skipped because it changed nothing.
func (r Result) Noop() bool {
	return r.State == StateIdle
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithRemoteTimeout bounds every remote call.
func WithRemoteTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.remoteTimeout = d
		}
	}
}

// WithEmitter publishes a MutationEvent whenever a mutation settles.
func WithEmitter(e events.EventEmitter) Option {
	return func(c *Coordinator) { c.emitter = e }
}

// WithLogger sets the base logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithSRS sets the scheduler used for speculative review records.
func WithSRS(svc srs.Service) Option {
	return func(c *Coordinator) {
		if svc != nil {
			c.srs = svc
		}
	}
}

// WithNewWordsBatch sets how many words FetchNewWords requests by default.
func WithNewWordsBatch(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.newWordsBatch = n
		}
	}
}

// Coordinator applies mutations to the progress store optimistically and
// reconciles them with the remote service. It is safe for concurrent use.
type Coordinator struct {
	store         *progress.Store
	remote        gateway.StateGateway
	srs           srs.Service
	emitter       events.EventEmitter
	logger        *slog.Logger
	locks         *keyLock
	pending       atomic.Int64
	remoteTimeout time.Duration
	newWordsBatch int
}

// NewCoordinator creates a Coordinator for store backed by remote.
func NewCoordinator(store *progress.Store, remote gateway.StateGateway, opts ...Option) *Coordinator {
	if store == nil {
		panic("store cannot be nil")
	}
	if remote == nil {
		panic("remote cannot be nil")
	}

	c := &Coordinator{
		store:         store,
		remote:        remote,
		srs:           srs.NewDefaultService(),
		logger:        slog.Default(),
		locks:         newKeyLock(),
		remoteTimeout: DefaultRemoteTimeout,
		newWordsBatch: DefaultNewWordsBatch,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(slog.String("component", "sync_coordinator"))
	return c
}

// Store returns the read-only view of the local state.
func (c *Coordinator) Store() progress.Reader {
	return c.store
}

// Pending returns the number of mutations waiting for the remote service.
func (c *Coordinator) Pending() int {
	return int(c.pending.Load())
}

// step describes one optimistic mutation. S is the snapshot type and R the
// remote response type.
type step[S, R any] struct {
	kind    Kind
	key     string
	payload any

	// apply captures the snapshot and installs the speculative change.
	// Returning errNoop skips the remote call.
	apply func(tx *progress.Tx) (S, error)

	// remote performs the gateway call.
	remote func(ctx context.Context) (R, error)

	// commit replaces the speculative value with the authoritative one.
	// Nil means the speculative value is already authoritative.
	commit func(tx *progress.Tx, snapshot S, result R) error

	// rollback restores the snapshot.
	rollback func(tx *progress.Tx, snapshot S) error

	// classify turns a remote failure into the error returned to callers.
	// Nil wraps it as a *domain.SyncError.
	classify func(err error) error
}

// execute runs st under its key lock.
func execute[S, R any](ctx context.Context, c *Coordinator, st step[S, R]) (R, Result, error) {
	var zero R
	log := logger.FromContextOrDefault(ctx, c.logger).With(
		slog.String("kind", string(st.kind)),
		slog.String("key", st.key),
	)

	unlock, err := c.locks.Lock(ctx, st.key)
	if err != nil {
		return zero, Result{}, fmt.Errorf("wait for %s: %w", st.key, err)
	}
	defer unlock()

	// Counted before the speculative change so Refresh never observes a
	// version that includes an unsettled mutation.
	c.pending.Add(1)
	defer c.pending.Add(-1)

	m := NewMutation[S](st.kind, st.key)
	result := Result{MutationID: m.ID, Kind: st.kind, Key: st.key, State: StateIdle}

	var snapshot S
	err = c.store.Update(func(tx *progress.Tx) error {
		s, err := st.apply(tx)
		snapshot = s
		return err
	})
	if errors.Is(err, errNoop) {
		log.Debug("mutation skipped, nothing to change")
		return zero, result, nil
	}
	if err != nil {
		return zero, result, err
	}
	if err := m.Begin(snapshot); err != nil {
		return zero, result, err
	}

	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.remoteTimeout)
	response, remoteErr := st.remote(rctx)
	cancel()

	if remoteErr == nil && st.commit != nil {
		remoteErr = c.store.Update(func(tx *progress.Tx) error {
			return st.commit(tx, snapshot, response)
		})
		if remoteErr != nil {
			remoteErr = fmt.Errorf("apply authoritative value: %w", remoteErr)
		}
	}

	if remoteErr == nil {
		if err := m.Commit(); err != nil {
			return zero, result, err
		}
		result.State = m.State()
		log.Debug("mutation committed", slog.Duration("duration", m.Elapsed()))
		c.emit(ctx, log, m.ID, st.kind, st.key, st.payload, events.OutcomeCommitted, m.Elapsed(), nil)
		return response, result, nil
	}

	restore, err := m.RollBack()
	if err != nil {
		return zero, result, err
	}
	result.State = m.State()

	var failure error
	if st.classify != nil {
		failure = st.classify(remoteErr)
	} else {
		failure = domain.NewSyncError(string(st.kind), st.key, remoteErr)
	}

	if err := c.store.Update(func(tx *progress.Tx) error {
		return st.rollback(tx, restore)
	}); err != nil {
		log.Error("failed to restore snapshot after remote failure",
			redact.ErrAttr(err),
			slog.String("cause", redact.Error(remoteErr)))
		failure = errors.Join(failure, fmt.Errorf("restore snapshot: %w", err))
	} else {
		log.Warn("remote mutation failed, local change rolled back",
			redact.ErrAttr(remoteErr),
			slog.Duration("duration", m.Elapsed()))
	}

	c.emit(ctx, log, m.ID, st.kind, st.key, st.payload, events.OutcomeRolledBack, m.Elapsed(), remoteErr)
	return zero, result, failure
}

func (c *Coordinator) emit(
	ctx context.Context,
	log *slog.Logger,
	mutationID uuid.UUID,
	kind Kind,
	key string,
	payload any,
	outcome events.Outcome,
	duration time.Duration,
	cause error,
) {
	if c.emitter == nil {
		return
	}
	if cause != nil {
		cause = errors.New(redact.Error(cause))
	}

	event, err := events.NewMutationEvent(mutationID, string(kind), key, outcome, duration, cause, payload)
	if err != nil {
		log.Warn("failed to build mutation event", redact.ErrAttr(err))
		return
	}
	if err := c.emitter.EmitEvent(context.WithoutCancel(ctx), event); err != nil {
		log.Warn("failed to emit mutation event", redact.ErrAttr(err))
	}
}
