package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/vocab-trainer/internal/api/middleware"
	"github.com/phrazzld/vocab-trainer/internal/domain"
	"github.com/phrazzld/vocab-trainer/internal/progress"
	"github.com/phrazzld/vocab-trainer/internal/service/practice"
	"github.com/phrazzld/vocab-trainer/internal/service/progress_sync"
)

// Syncer is the subset of the sync coordinator the API mutates through.
type Syncer interface {
	ToggleBookmark(ctx context.Context, wordID string) (bool, progress_sync.Result, error)
	FetchNewWords(ctx context.Context, count int) ([]domain.Word, progress_sync.Result, error)
	ClearPracticeHistory(ctx context.Context) (progress_sync.Result, error)
	UpdateSettings(ctx context.Context, settings domain.Settings) (progress_sync.Result, error)
	AddFriend(ctx context.Context, id int64) (progress_sync.Result, error)
	RemoveFriend(ctx context.Context, id int64) (progress_sync.Result, error)
	Pending() int
}

// Practice builds sessions and records answers.
type Practice interface {
	Candidates(desired int) ([]domain.Word, error)
	BuildQuiz(ctx context.Context, desired int) ([]domain.QuizQuestion, error)
	ScrambleWords(desired int) ([]practice.ScrambledWord, error)
	SubmitAnswer(ctx context.Context, a practice.Answer) (practice.AnswerResult, error)
	CompleteSession(ctx context.Context, session domain.NewPracticeSession) (progress_sync.Result, error)
}

// Content serves generated content with its fallbacks.
type Content interface {
	WordOfTheDay(ctx context.Context) (domain.Word, error)
	Quote(ctx context.Context) (domain.Quote, error)
	GenerateSynonymPair(ctx context.Context) (domain.SynonymPair, error)
	LookupWord(ctx context.Context, word string) (domain.Word, bool, error)
	ReverseLookup(ctx context.Context, definition string) ([]string, error)
}

// Deps holds everything the router needs.
type Deps struct {
	Reader   progress.Reader
	Syncer   Syncer
	Practice Practice
	Content  Content
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
	Logger  *slog.Logger
}

// Handler serves the local API.
type Handler struct {
	reader   progress.Reader
	syncer   Syncer
	practice Practice
	content  Content
}

// NewHandler creates a Handler.
func NewHandler(deps Deps) *Handler {
	if deps.Reader == nil {
		panic("reader cannot be nil")
	}
	if deps.Syncer == nil {
		panic("syncer cannot be nil")
	}
	if deps.Practice == nil {
		panic("practice cannot be nil")
	}
	if deps.Content == nil {
		panic("content cannot be nil")
	}
	return &Handler{
		reader:   deps.Reader,
		syncer:   deps.Syncer,
		practice: deps.Practice,
		content:  deps.Content,
	}
}

// NewRouter wires the middleware chain and every route of the local API.
func NewRouter(deps Deps) http.Handler {
	h := NewHandler(deps)
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.NewTraceMiddleware(log))
	r.Use(chimw.Recoverer)

	r.Get("/health", h.Health)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RequireReady(deps.Reader))

		r.Get("/state", h.GetState)
		r.Get("/progress", h.GetProgress)

		r.Get("/words", h.ListWords)
		r.Post("/words/generate", h.GenerateWords)
		r.Post("/words/{word}/rating", h.RateWord)
		r.Post("/bookmarks/{word}/toggle", h.ToggleBookmark)

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/candidates", h.GetCandidates)
			r.Get("/quiz", h.GetQuiz)
			r.Get("/scramble", h.GetScramble)
			r.Post("/answer", h.SubmitAnswer)
		})

		r.Get("/history", h.GetHistory)
		r.Post("/history", h.AddSession)
		r.Delete("/history", h.ClearHistory)

		r.Get("/settings", h.GetSettings)
		r.Put("/settings", h.UpdateSettings)

		r.Get("/friends", h.GetFriends)
		r.Put("/friends/{id}", h.AddFriend)
		r.Delete("/friends/{id}", h.RemoveFriend)

		r.Route("/content", func(r chi.Router) {
			r.Get("/word-of-the-day", h.WordOfTheDay)
			r.Get("/quote", h.Quote)
			r.Get("/synonym-pair", h.SynonymPair)
			r.Get("/lookup", h.Lookup)
			r.Get("/reverse", h.ReverseLookup)
		})
	})

	return r
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Ready   bool   `json:"ready"`
	Pending int    `json:"pending_mutations"`
}

// Health reports liveness. It answers even before the state is loaded.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, HealthResponse{
		Status:  "ok",
		Ready:   h.reader.Ready(),
		Pending: h.syncer.Pending(),
	})
}
