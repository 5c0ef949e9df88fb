package api_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/phrazzld/vocab-trainer/internal/api"
	"github.com/phrazzld/vocab-trainer/internal/api/middleware"
	"github.com/phrazzld/vocab-trainer/internal/api/shared"
	"github.com/phrazzld/vocab-trainer/internal/domain"
	"github.com/phrazzld/vocab-trainer/internal/gateway"
	"github.com/phrazzld/vocab-trainer/internal/gateway/memgateway"
	"github.com/phrazzld/vocab-trainer/internal/generation"
	"github.com/phrazzld/vocab-trainer/internal/progress"
	"github.com/phrazzld/vocab-trainer/internal/review"
	"github.com/phrazzld/vocab-trainer/internal/service/practice"
	"github.com/phrazzld/vocab-trainer/internal/service/progress_sync"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

type testServer struct {
	server  *httptest.Server
	coord   *progress_sync.Coordinator
	failing *atomic.Bool
}

func newTestServer(t *testing.T, initialize bool) testServer {
	t.Helper()

	clock := func() time.Time { return testNow }
	discard := slog.New(slog.NewTextHandler(io.Discard, nil))
	failing := &atomic.Bool{}
	catalogue := generation.MustLoadCatalogue()

	backend := memgateway.New(catalogue.InitialState(),
		memgateway.WithClock(clock),
		memgateway.WithInterceptor(func(_ context.Context, op string) error {
			if failing.Load() && op != memgateway.OpGetUserState {
				return gateway.ErrUnavailable
			}
			return nil
		}))
	store := progress.NewStore(progress.WithClock(clock))
	coord := progress_sync.NewCoordinator(store, backend, progress_sync.WithLogger(discard))
	if initialize {
		require.NoError(t, coord.Initialize(context.Background()))
	}

	content := generation.NewService(catalogue,
		generation.WithLogger(discard),
		generation.WithClock(clock))
	prac := practice.NewService(store, coord, content, review.NewSelector(rand.NewPCG(1, 2)),
		practice.WithSessionLength(3),
		practice.WithRand(rand.NewPCG(3, 4)),
		practice.WithLogger(discard))

	srv := httptest.NewServer(api.NewRouter(api.Deps{
		Reader:   store,
		Syncer:   coord,
		Practice: prac,
		Content:  content,
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, "# metrics\n")
		}),
		Logger: discard,
	}))
	t.Cleanup(srv.Close)

	return testServer{server: srv, coord: coord, failing: failing}
}

func (s testServer) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, s.server.URL+path, rdr)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestReadiness(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, false)

	resp := s.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	health := decode[api.HealthResponse](t, resp)
	assert.Equal(t, "ok", health.Status)
	assert.False(t, health.Ready)

	resp = s.do(t, http.MethodGet, "/api/state", "")
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	errResp := decode[shared.ErrorResponse](t, resp)
	assert.Equal(t, middleware.MsgNotReady, errResp.Error)
	assert.NotEmpty(t, errResp.TraceID)

	require.NoError(t, s.coord.Initialize(context.Background()))
	resp = s.do(t, http.MethodGet, "/api/state", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	state := decode[domain.UserState](t, resp)
	assert.Len(t, state.Words, 7)
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, false)

	resp := s.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "# metrics")
}

func TestListWords(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, true)

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantLen    int
	}{
		{name: "default view", query: "", wantStatus: http.StatusOK, wantLen: 7},
		{name: "to learn", query: "?view=to_learn", wantStatus: http.StatusOK, wantLen: 7},
		{name: "learned", query: "?view=learned", wantStatus: http.StatusOK, wantLen: 0},
		{name: "bookmarked", query: "?view=bookmarked", wantStatus: http.StatusOK, wantLen: 0},
		{name: "unknown view", query: "?view=everything", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := s.do(t, http.MethodGet, "/api/words"+tt.query, "")
			require.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantStatus == http.StatusOK {
				assert.Len(t, decode[[]domain.Word](t, resp), tt.wantLen)
			}
		})
	}
}

func TestRateWord(t *testing.T) {
	t.Parallel()

	t.Run("records the rating", func(t *testing.T) {
		s := newTestServer(t, true)
		resp := s.do(t, http.MethodPost, "/api/words/Ephemeral/rating", `{"rating":"good"}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		res := decode[practice.AnswerResult](t, resp)
		assert.True(t, res.Correct)
		require.NotNil(t, res.Word.Srs)
		assert.Equal(t, progress_sync.StateCommitted, res.Sync.State)

		progressResp := s.do(t, http.MethodGet, "/api/progress", "")
		require.Equal(t, http.StatusOK, progressResp.StatusCode)
		p := decode[api.ProgressResponse](t, progressResp)
		assert.Equal(t, 1, p.WordsLearned)
		assert.Equal(t, 1, p.QuizStats.TotalAnswered)
		require.NotNil(t, p.NextRank)
		assert.Equal(t, "Copper", p.NextRank.Name)
	})

	t.Run("unknown word", func(t *testing.T) {
		s := newTestServer(t, true)
		resp := s.do(t, http.MethodPost, "/api/words/Nonexistent/rating", `{"rating":"good"}`)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("invalid rating", func(t *testing.T) {
		s := newTestServer(t, true)
		resp := s.do(t, http.MethodPost, "/api/words/Ephemeral/rating", `{"rating":"perfect"}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("remote failure rolls back", func(t *testing.T) {
		s := newTestServer(t, true)
		s.failing.Store(true)
		resp := s.do(t, http.MethodPost, "/api/words/Ephemeral/rating", `{"rating":"easy"}`)
		require.Equal(t, http.StatusBadGateway, resp.StatusCode)

		learned := s.do(t, http.MethodGet, "/api/words?view=learned", "")
		assert.Empty(t, decode[[]domain.Word](t, learned))
	})
}

func TestToggleBookmark(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, true)

	resp := s.do(t, http.MethodPost, "/api/bookmarks/Ubiquitous/toggle", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode[api.BookmarkResponse](t, resp).Bookmarked)

	list := s.do(t, http.MethodGet, "/api/words?view=bookmarked", "")
	words := decode[[]domain.Word](t, list)
	require.Len(t, words, 1)
	assert.Equal(t, "Ubiquitous", words[0].Word)

	resp = s.do(t, http.MethodPost, "/api/bookmarks/Ubiquitous/toggle", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, decode[api.BookmarkResponse](t, resp).Bookmarked)
}

func TestSessions(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, true)

	resp := s.do(t, http.MethodGet, "/api/sessions/candidates?count=3", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]domain.Word](t, resp), 3)

	resp = s.do(t, http.MethodGet, "/api/sessions/quiz?count=2", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	questions := decode[[]domain.QuizQuestion](t, resp)
	require.Len(t, questions, 2)
	for _, q := range questions {
		assert.NoError(t, q.Validate())
	}

	resp = s.do(t, http.MethodGet, "/api/sessions/scramble?count=2", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]practice.ScrambledWord](t, resp), 2)

	resp = s.do(t, http.MethodGet, "/api/sessions/quiz?count=abc", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = s.do(t, http.MethodPost, "/api/sessions/answer",
		`{"game":"Quiz","word_id":"Benevolent","correct":true}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 4, decode[practice.AnswerResult](t, resp).Quality)

	resp = s.do(t, http.MethodPost, "/api/sessions/answer", `{"game":"Quiz","word":"Benevolent"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = s.do(t, http.MethodPost, "/api/sessions/answer", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHistory(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, true)

	resp := s.do(t, http.MethodPost, "/api/history", `{"type":"Juggling","score":1,"total":2}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = s.do(t, http.MethodPost, "/api/history", `{"type":"Quiz","score":4,"total":5}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = s.do(t, http.MethodGet, "/api/history", "")
	history := decode[[]domain.PracticeSession](t, resp)
	require.Len(t, history, 1)
	assert.Equal(t, domain.GameQuiz, history[0].Type)
	assert.Equal(t, 4, history[0].Score)

	resp = s.do(t, http.MethodDelete, "/api/history", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = s.do(t, http.MethodGet, "/api/history", "")
	assert.Empty(t, decode[[]domain.PracticeSession](t, resp))
}

func TestSettingsAndFriends(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, true)

	resp := s.do(t, http.MethodPut, "/api/settings", `{"theme":"neon","user_name":"Ada"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = s.do(t, http.MethodPut, "/api/settings", `{"theme":"ocean","user_name":"Ada"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = s.do(t, http.MethodGet, "/api/settings", "")
	settings := decode[domain.Settings](t, resp)
	assert.Equal(t, domain.ThemeOcean, settings.Theme)
	assert.Equal(t, "Ada", settings.UserName)

	resp = s.do(t, http.MethodPut, "/api/friends/42", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = s.do(t, http.MethodPut, "/api/friends/7", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = s.do(t, http.MethodDelete, "/api/friends/42", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = s.do(t, http.MethodGet, "/api/friends", "")
	assert.Equal(t, []int64{7}, decode[[]int64](t, resp))

	resp = s.do(t, http.MethodPut, "/api/friends/abc", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestContentEndpoints(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, true)

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{name: "word of the day", path: "/api/content/word-of-the-day", wantStatus: http.StatusOK},
		{name: "quote", path: "/api/content/quote", wantStatus: http.StatusOK},
		{name: "synonym pair", path: "/api/content/synonym-pair", wantStatus: http.StatusOK},
		{name: "lookup", path: "/api/content/lookup?word=Ephemeral", wantStatus: http.StatusOK},
		{name: "lookup without word", path: "/api/content/lookup", wantStatus: http.StatusBadRequest},
		{name: "reverse", path: "/api/content/reverse?definition=a+word+lover", wantStatus: http.StatusOK},
		{name: "reverse without definition", path: "/api/content/reverse", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := s.do(t, http.MethodGet, tt.path, "")
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}

	resp := s.do(t, http.MethodGet, "/api/content/synonym-pair", "")
	pair := decode[domain.SynonymPair](t, resp)
	assert.Equal(t, domain.SynonymPair{Word1: "Happy", Word2: "Joyful", AreSynonyms: true}, pair)
}
