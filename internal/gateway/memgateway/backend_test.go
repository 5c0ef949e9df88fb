package memgateway_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/phrazzld/vocab-trainer/internal/domain"
	"github.com/phrazzld/vocab-trainer/internal/domain/srs"
	"github.com/phrazzld/vocab-trainer/internal/gateway"
	"github.com/phrazzld/vocab-trainer/internal/gateway/memgateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)

func word(id string) domain.Word {
	return domain.Word{
		Word:       id,
		Definition: "meaning of " + id,
		Example:    "An example of " + id + ".",
		Synonyms:   []string{},
		Difficulty: domain.DifficultyEasy,
	}
}

type wordList []domain.Word

func (l wordList) GenerateWords(_ context.Context, count int) ([]domain.Word, error) {
	return domain.CloneWords(l[:min(count, len(l))]), nil
}

type failingSource struct{}

func (failingSource) GenerateWords(context.Context, int) ([]domain.Word, error) {
	return nil, errors.New("model overloaded")
}

func newBackend(opts ...memgateway.Option) *memgateway.Backend {
	state := domain.NewUserState()
	state.Words = []domain.Word{word("lucid"), word("terse")}
	opts = append([]memgateway.Option{memgateway.WithClock(func() time.Time { return now })}, opts...)
	return memgateway.New(state, opts...)
}

func TestRecordInteraction(t *testing.T) {
	t.Parallel()

	b := newBackend()
	ctx := context.Background()

	got, err := b.RecordInteraction(ctx, "lucid", 4)
	require.NoError(t, err)

	want, err := srs.Schedule(nil, 4, now)
	require.NoError(t, err)
	assert.Equal(t, want, got.Srs)

	_, err = b.RecordInteraction(ctx, "terse", 2)
	require.NoError(t, err)
	assert.Equal(t, domain.QuizStats{TotalAnswered: 2, TotalCorrect: 1}, b.Snapshot().QuizStats)

	_, err = b.RecordInteraction(ctx, "absent", 4)
	assert.ErrorIs(t, err, gateway.ErrRejected)
	assert.ErrorIs(t, err, domain.ErrWordNotFound)

	_, err = b.RecordInteraction(ctx, "lucid", 9)
	assert.ErrorIs(t, err, gateway.ErrRejected)
	assert.ErrorIs(t, err, domain.ErrInvalidQuality)
}

func TestToggleBookmark(t *testing.T) {
	t.Parallel()

	b := newBackend()
	ctx := context.Background()

	require.NoError(t, b.ToggleBookmark(ctx, "lucid"))
	assert.Equal(t, []string{"lucid"}, b.Snapshot().BookmarkedWords)
	require.NoError(t, b.ToggleBookmark(ctx, "lucid"))
	assert.Empty(t, b.Snapshot().BookmarkedWords)
}

func TestPracticeHistory(t *testing.T) {
	t.Parallel()

	b := newBackend()
	ctx := context.Background()

	history, err := b.AddPracticeSession(ctx, domain.NewPracticeSession{Type: domain.GameQuiz, Score: 3, Total: 5})
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.NotEmpty(t, history[0].ID)
	assert.Equal(t, now, history[0].Date)

	history, err = b.AddPracticeSession(ctx, domain.NewPracticeSession{Type: domain.GameWordle, Score: 1, Total: 1})
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, domain.GameWordle, history[0].Type, "newest first")

	_, err = b.AddPracticeSession(ctx, domain.NewPracticeSession{Type: domain.GameQuiz, Score: 6, Total: 5})
	assert.ErrorIs(t, err, gateway.ErrRejected)

	require.NoError(t, b.ClearPracticeHistory(ctx))
	assert.Empty(t, b.Snapshot().PracticeHistory)
}

func TestSettingsAndFriends(t *testing.T) {
	t.Parallel()

	b := newBackend()
	ctx := context.Background()

	settings := domain.Settings{Theme: domain.ThemeCoral, UserName: "Ada"}
	require.NoError(t, b.UpdateSettings(ctx, settings))
	assert.Equal(t, settings, b.Snapshot().Settings)

	err := b.UpdateSettings(ctx, domain.Settings{Theme: "neon", UserName: "Ada"})
	assert.ErrorIs(t, err, gateway.ErrRejected)
	assert.Equal(t, settings, b.Snapshot().Settings)

	require.NoError(t, b.UpdateFriends(ctx, []int64{4, 8}))
	assert.Equal(t, []int64{4, 8}, b.Snapshot().FriendIDs)
}

func TestGenerateNewWords(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		source  memgateway.WordSource
		count   int
		want    []string
		wantErr error
	}{
		{
			name:   "skips known words",
			source: wordList{word("lucid"), word("ardent"), word("wistful")},
			count:  3,
			want:   []string{"ardent", "wistful"},
		},
		{
			name:    "no source",
			count:   2,
			wantErr: gateway.ErrUnavailable,
		},
		{
			name:    "source failure",
			source:  failingSource{},
			count:   2,
			wantErr: gateway.ErrUnavailable,
		},
		{
			name:    "non-positive count",
			source:  wordList{word("ardent")},
			count:   0,
			wantErr: gateway.ErrRejected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var opts []memgateway.Option
			if tt.source != nil {
				opts = append(opts, memgateway.WithWordSource(tt.source))
			}
			b := newBackend(opts...)

			added, err := b.GenerateNewWords(context.Background(), tt.count)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Len(t, b.Snapshot().Words, 2)
				return
			}
			require.NoError(t, err)
			ids := make([]string, 0, len(added))
			for _, w := range added {
				ids = append(ids, w.Word)
			}
			assert.Equal(t, tt.want, ids)
			assert.Len(t, b.Snapshot().Words, 2+len(tt.want))
		})
	}
}

func TestInterceptor(t *testing.T) {
	t.Parallel()

	var seen []string
	b := newBackend(memgateway.WithInterceptor(func(_ context.Context, op string) error {
		seen = append(seen, op)
		if op == memgateway.OpToggleBookmark {
			return gateway.ErrUnavailable
		}
		return nil
	}))
	ctx := context.Background()

	_, err := b.GetUserState(ctx)
	require.NoError(t, err)
	assert.ErrorIs(t, b.ToggleBookmark(ctx, "lucid"), gateway.ErrUnavailable)
	assert.Empty(t, b.Snapshot().BookmarkedWords)
	assert.Equal(t, []string{memgateway.OpGetUserState, memgateway.OpToggleBookmark}, seen)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = b.GetUserState(cancelled)
	assert.ErrorIs(t, err, gateway.ErrUnavailable)
}
