package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/vocab-trainer/internal/api/shared"
	"github.com/phrazzld/vocab-trainer/internal/domain"
	"github.com/phrazzld/vocab-trainer/internal/service/practice"
	"github.com/phrazzld/vocab-trainer/internal/service/progress_sync"
)

// Word list views accepted by GET /api/words.
const (
	ViewAll        = "all"
	ViewLearned    = "learned"
	ViewToLearn    = "to_learn"
	ViewToReview   = "to_review"
	ViewBookmarked = "bookmarked"
)

// ProgressResponse is the body of GET /api/progress.
type ProgressResponse struct {
	domain.ProgressSnapshot
	QuizStats domain.QuizStats `json:"quiz_stats"`
	NextRank  *domain.Rank     `json:"next_rank,omitempty"`
	Due       int              `json:"due"`
}

// MutationResponse reports how a mutation settled.
type MutationResponse struct {
	Sync progress_sync.Result `json:"sync"`
}

// BookmarkResponse is the body of POST /api/bookmarks/{word}/toggle.
type BookmarkResponse struct {
	Bookmarked bool                 `json:"bookmarked"`
	Sync       progress_sync.Result `json:"sync"`
}

// GenerateWordsRequest is the body of POST /api/words/generate.
type GenerateWordsRequest struct {
	Count int `json:"count" validate:"gte=0,lte=50"`
}

// GenerateWordsResponse lists the words that were added.
type GenerateWordsResponse struct {
	Added []domain.Word        `json:"added"`
	Sync  progress_sync.Result `json:"sync"`
}

// RateWordRequest is the body of POST /api/words/{word}/rating.
type RateWordRequest struct {
	Rating domain.Rating `json:"rating" validate:"required,oneof=hard good easy"`
}

// LookupResponse is the body of GET /api/content/lookup.
type LookupResponse struct {
	Found bool         `json:"found"`
	Word  *domain.Word `json:"word,omitempty"`
}

// ReverseLookupResponse is the body of GET /api/content/reverse.
type ReverseLookupResponse struct {
	Words []string `json:"words"`
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	shared.RespondWithJSON(w, r, status, data)
}

// decodeAndValidate decodes the body into v and validates it, answering 400
// on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := shared.DecodeJSON(r, v); err != nil {
		if errors.Is(err, shared.ErrEmptyBody) {
			respondError(w, r, err)
			return false
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return false
	}
	if err := shared.ValidateRequest(v); err != nil {
		respondError(w, r, err)
		return false
	}
	return true
}

// queryCount reads the count parameter, answering 400 when it is malformed.
func queryCount(w http.ResponseWriter, r *http.Request) (int, bool) {
	n, err := shared.QueryInt(r, "count", 0)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid count", err)
		return 0, false
	}
	return n, true
}

// wordParam returns the trimmed {word} path parameter.
func wordParam(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "word"))
}

// GetState returns the full user state.
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, h.reader.State())
}

// GetProgress returns the derived progress summary.
func (h *Handler) GetProgress(w http.ResponseWriter, r *http.Request) {
	state := h.reader.State()
	snap := state.Progress()
	resp := ProgressResponse{
		ProgressSnapshot: snap,
		QuizStats:        state.QuizStats,
		Due:              state.DueCount(h.reader.Now()),
	}
	if next, ok := domain.NextRank(snap.WordsLearned); ok {
		resp.NextRank = &next
	}
	respondJSON(w, r, http.StatusOK, resp)
}

// ListWords returns the words of the requested view.
func (h *Handler) ListWords(w http.ResponseWriter, r *http.Request) {
	var words []domain.Word
	switch view := r.URL.Query().Get("view"); view {
	case "", ViewAll:
		words = h.reader.Words()
	case ViewLearned:
		words = h.reader.LearnedWords()
	case ViewToLearn:
		words = h.reader.WordsToLearn()
	case ViewToReview:
		words = h.reader.WordsToReview()
	case ViewBookmarked:
		words = h.reader.BookmarkedWords()
	default:
		shared.RespondWithError(w, r, http.StatusBadRequest, fmt.Sprintf("Unknown view %q", view))
		return
	}
	if words == nil {
		words = []domain.Word{}
	}
	respondJSON(w, r, http.StatusOK, words)
}

// GenerateWords appends newly generated words to the vocabulary.
func (h *Handler) GenerateWords(w http.ResponseWriter, r *http.Request) {
	var req GenerateWordsRequest
	if r.ContentLength != 0 {
		if !decodeAndValidate(w, r, &req) {
			return
		}
	}
	added, result, err := h.syncer.FetchNewWords(r.Context(), req.Count)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if added == nil {
		added = []domain.Word{}
	}
	respondJSON(w, r, http.StatusOK, GenerateWordsResponse{Added: added, Sync: result})
}

// RateWord records a flashcard rating for a word.
func (h *Handler) RateWord(w http.ResponseWriter, r *http.Request) {
	var req RateWordRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	res, err := h.practice.SubmitAnswer(r.Context(), practice.Answer{
		Game:   domain.GameFlashcards,
		WordID: wordParam(r),
		Rating: req.Rating,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, res)
}

// ToggleBookmark flips a word's bookmark.
func (h *Handler) ToggleBookmark(w http.ResponseWriter, r *http.Request) {
	bookmarked, result, err := h.syncer.ToggleBookmark(r.Context(), wordParam(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, BookmarkResponse{Bookmarked: bookmarked, Sync: result})
}

// GetCandidates returns the words selected for the next session.
func (h *Handler) GetCandidates(w http.ResponseWriter, r *http.Request) {
	count, ok := queryCount(w, r)
	if !ok {
		return
	}
	words, err := h.practice.Candidates(count)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, words)
}

// GetQuiz builds a multiple-choice quiz.
func (h *Handler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	count, ok := queryCount(w, r)
	if !ok {
		return
	}
	questions, err := h.practice.BuildQuiz(r.Context(), count)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, questions)
}

// GetScramble returns scrambled words for the word scramble game.
func (h *Handler) GetScramble(w http.ResponseWriter, r *http.Request) {
	count, ok := queryCount(w, r)
	if !ok {
		return
	}
	words, err := h.practice.ScrambleWords(count)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, words)
}

// SubmitAnswer records a practice answer.
func (h *Handler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	var req practice.Answer
	if !decodeAndValidate(w, r, &req) {
		return
	}
	res, err := h.practice.SubmitAnswer(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, res)
}

// GetHistory returns the practice history, newest first.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	history := h.reader.History()
	if history == nil {
		history = []domain.PracticeSession{}
	}
	respondJSON(w, r, http.StatusOK, history)
}

// AddSession records a finished practice session.
func (h *Handler) AddSession(w http.ResponseWriter, r *http.Request) {
	var req domain.NewPracticeSession
	if !decodeAndValidate(w, r, &req) {
		return
	}
	result, err := h.practice.CompleteSession(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, MutationResponse{Sync: result})
}

// ClearHistory empties the practice history.
func (h *Handler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	result, err := h.syncer.ClearPracticeHistory(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, MutationResponse{Sync: result})
}

// GetSettings returns the user settings.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, h.reader.Settings())
}

// UpdateSettings replaces the user settings.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req domain.Settings
	if !decodeAndValidate(w, r, &req) {
		return
	}
	result, err := h.syncer.UpdateSettings(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, MutationResponse{Sync: result})
}

// GetFriends returns the friend identifiers.
func (h *Handler) GetFriends(w http.ResponseWriter, r *http.Request) {
	ids := h.reader.FriendIDs()
	if ids == nil {
		ids = []int64{}
	}
	respondJSON(w, r, http.StatusOK, ids)
}

func friendParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid friend ID")
		return 0, false
	}
	return id, true
}

// AddFriend adds a friend.
func (h *Handler) AddFriend(w http.ResponseWriter, r *http.Request) {
	id, ok := friendParam(w, r)
	if !ok {
		return
	}
	result, err := h.syncer.AddFriend(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, MutationResponse{Sync: result})
}

// RemoveFriend removes a friend.
func (h *Handler) RemoveFriend(w http.ResponseWriter, r *http.Request) {
	id, ok := friendParam(w, r)
	if !ok {
		return
	}
	result, err := h.syncer.RemoveFriend(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, MutationResponse{Sync: result})
}

// WordOfTheDay returns today's word.
func (h *Handler) WordOfTheDay(w http.ResponseWriter, r *http.Request) {
	word, err := h.content.WordOfTheDay(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, word)
}

// Quote returns today's vocabulary quote.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	quote, err := h.content.Quote(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, quote)
}

// SynonymPair returns a pair for the synonym swipe game.
func (h *Handler) SynonymPair(w http.ResponseWriter, r *http.Request) {
	pair, err := h.content.GenerateSynonymPair(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, pair)
}

// Lookup looks up a dictionary entry.
func (h *Handler) Lookup(w http.ResponseWriter, r *http.Request) {
	term := strings.TrimSpace(r.URL.Query().Get("word"))
	if term == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Query parameter word is required")
		return
	}
	word, found, err := h.content.LookupWord(r.Context(), term)
	if err != nil {
		respondError(w, r, err)
		return
	}
	resp := LookupResponse{Found: found}
	if found {
		resp.Word = &word
	}
	respondJSON(w, r, http.StatusOK, resp)
}

// ReverseLookup finds words matching a definition.
func (h *Handler) ReverseLookup(w http.ResponseWriter, r *http.Request) {
	definition := strings.TrimSpace(r.URL.Query().Get("definition"))
	if definition == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Query parameter definition is required")
		return
	}
	words, err := h.content.ReverseLookup(r.Context(), definition)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if words == nil {
		words = []string{}
	}
	respondJSON(w, r, http.StatusOK, ReverseLookupResponse{Words: words})
}
