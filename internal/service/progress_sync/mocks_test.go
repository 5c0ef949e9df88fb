package progress_sync_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/vocab-trainer/internal/domain"
	"github.com/phrazzld/vocab-trainer/internal/events"
	"github.com/phrazzld/vocab-trainer/internal/gateway"
	"github.com/phrazzld/vocab-trainer/internal/platform/logger"
	"github.com/phrazzld/vocab-trainer/internal/progress"
	"github.com/phrazzld/vocab-trainer/internal/service/progress_sync"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockStateGateway is a testify mock of gateway.StateGateway.
type MockStateGateway struct {
	mock.Mock
}

var _ gateway.StateGateway = (*MockStateGateway)(nil)

func (m *MockStateGateway) GetUserState(ctx context.Context) (domain.UserState, error) {
	args := m.Called(ctx)
	state, _ := args.Get(0).(domain.UserState)
	return state, args.Error(1)
}

func (m *MockStateGateway) GenerateNewWords(ctx context.Context, count int) ([]domain.Word, error) {
	args := m.Called(ctx, count)
	words, _ := args.Get(0).([]domain.Word)
	return words, args.Error(1)
}

func (m *MockStateGateway) RecordInteraction(ctx context.Context, wordID string, quality int) (domain.Word, error) {
	args := m.Called(ctx, wordID, quality)
	word, _ := args.Get(0).(domain.Word)
	return word, args.Error(1)
}

func (m *MockStateGateway) ToggleBookmark(ctx context.Context, wordID string) error {
	return m.Called(ctx, wordID).Error(0)
}

func (m *MockStateGateway) AddPracticeSession(
	ctx context.Context,
	session domain.NewPracticeSession,
) ([]domain.PracticeSession, error) {
	args := m.Called(ctx, session)
	history, _ := args.Get(0).([]domain.PracticeSession)
	return history, args.Error(1)
}

func (m *MockStateGateway) ClearPracticeHistory(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockStateGateway) UpdateSettings(ctx context.Context, settings domain.Settings) error {
	return m.Called(ctx, settings).Error(0)
}

func (m *MockStateGateway) UpdateFriends(ctx context.Context, friendIDs []int64) error {
	return m.Called(ctx, friendIDs).Error(0)
}

// eventRecorder collects settled mutation events.
type eventRecorder struct {
	mu     sync.Mutex
	events []*events.MutationEvent
}

func (r *eventRecorder) HandleEvent(_ context.Context, e *events.MutationEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *eventRecorder) all() []*events.MutationEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*events.MutationEvent(nil), r.events...)
}

var testNow = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

func testWord(id string) domain.Word {
	return domain.Word{
		Word:          id,
		Pronunciation: "/" + id + "/",
		Definition:    "meaning of " + id,
		Example:       "A sentence using " + id + ".",
		Synonyms:      []string{},
		Difficulty:    domain.DifficultyMedium,
	}
}

func testState(ids ...string) domain.UserState {
	state := domain.NewUserState()
	for _, id := range ids {
		state.Words = append(state.Words, testWord(id))
	}
	return state
}

type fixture struct {
	store       *progress.Store
	gw          *MockStateGateway
	coordinator *progress_sync.Coordinator
	events      *eventRecorder
	logs        *logger.Recorder
}

func newFixture(t *testing.T, state domain.UserState, opts ...progress_sync.Option) *fixture {
	t.Helper()

	store := progress.NewStore(progress.WithClock(func() time.Time { return testNow }))
	require.NoError(t, store.Replace(state))

	log, logs := logger.NewTestLogger(t)
	recorder := &eventRecorder{}
	emitter := events.NewInMemoryEventEmitter(log)
	emitter.RegisterHandler(recorder)

	gw := &MockStateGateway{}
	opts = append([]progress_sync.Option{
		progress_sync.WithLogger(log),
		progress_sync.WithEmitter(emitter),
	}, opts...)

	return &fixture{
		store:       store,
		gw:          gw,
		coordinator: progress_sync.NewCoordinator(store, gw, opts...),
		events:      recorder,
		logs:        logs,
	}
}
