// Package practice runs practice sessions: it picks the words of a session,
// builds quizzes and scrambles, turns answers into recall qualities for the
// sync coordinator and records finished sessions.
package practice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/phrazzld/vocab-trainer/internal/domain"
	"github.com/phrazzld/vocab-trainer/internal/gateway"
	"github.com/phrazzld/vocab-trainer/internal/platform/logger"
	"github.com/phrazzld/vocab-trainer/internal/progress"
	"github.com/phrazzld/vocab-trainer/internal/redact"
	"github.com/phrazzld/vocab-trainer/internal/review"
	"github.com/phrazzld/vocab-trainer/internal/service/progress_sync"
)

// DefaultSessionLength is the number of words of a session when the caller
// does not ask for a size.
const DefaultSessionLength = 5

// ErrInvalidAnswer is returned when an answer names neither a result nor a
// flashcard rating.
var ErrInvalidAnswer = errors.New("invalid answer")

// Syncer is the part of the sync coordinator used by practice sessions.
type Syncer interface {
	RecordInteraction(ctx context.Context, wordID string, quality int) (domain.Word, progress_sync.Result, error)
	AddPracticeSession(ctx context.Context, session domain.NewPracticeSession) (progress_sync.Result, error)
}

// Answer is the outcome of one practice prompt.
type Answer struct {
	Game   domain.GameType `json:"game"    validate:"required"`
	WordID string          `json:"word_id" validate:"required"`
	// Correct is the result of every mode except rated flashcards.
	Correct bool `json:"correct"`
	// Rating grades a flashcard and takes precedence over Correct.
	Rating domain.Rating `json:"rating,omitempty"`
}

// AnswerResult reports how an answer was applied.
type AnswerResult struct {
	Word    domain.Word          `json:"word"`
	Quality int                  `json:"quality"`
	Correct bool                 `json:"correct"`
	Sync    progress_sync.Result `json:"sync"`
}

// ScrambledWord is a Word Scramble prompt.
type ScrambledWord struct {
	Word      domain.Word `json:"word"`
	Scrambled string      `json:"scrambled"`
}

// Option configures a Service.
type Option func(*Service)

// WithSessionLength sets the default number of words of a session.
func WithSessionLength(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.sessionLength = n
		}
	}
}

// WithRand sets the source used to scramble words.
func WithRand(src rand.Source) Option {
	return func(s *Service) {
		if src != nil {
			s.rng = rand.New(src)
		}
	}
}

// WithLogger sets the base logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// Service coordinates practice sessions.
type Service struct {
	reader        progress.Reader
	syncer        Syncer
	content       gateway.ContentGateway
	selector      *review.Selector
	sessionLength int
	logger        *slog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewService creates a practice Service.
func NewService(
	reader progress.Reader,
	syncer Syncer,
	content gateway.ContentGateway,
	selector *review.Selector,
	opts ...Option,
) *Service {
	if reader == nil {
		panic("reader cannot be nil")
	}
	if syncer == nil {
		panic("syncer cannot be nil")
	}
	if content == nil {
		panic("content cannot be nil")
	}
	if selector == nil {
		selector = review.NewSelector(nil)
	}

	s := &Service{
		reader:        reader,
		syncer:        syncer,
		content:       content,
		selector:      selector,
		sessionLength: DefaultSessionLength,
		logger:        slog.Default(),
		rng:           rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(slog.String("component", "practice_service"))
	return s
}

// Candidates picks the words of a session, due words first. A desired size
// of zero or less uses the configured session length.
func (s *Service) Candidates(desired int) ([]domain.Word, error) {
	if desired <= 0 {
		desired = s.sessionLength
	}
	words := s.selector.SelectForSession(
		s.reader.Words(),
		s.reader.WordsToReview(),
		s.reader.LearnedWords(),
		desired,
	)
	if len(words) == 0 {
		return nil, domain.ErrNotEnoughContent
	}
	return words, nil
}

// BuildQuiz picks the session words and asks the content gateway for one
// question per word.
func (s *Service) BuildQuiz(ctx context.Context, desired int) ([]domain.QuizQuestion, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	words, err := s.Candidates(desired)
	if err != nil {
		return nil, err
	}

	questions, err := s.content.GenerateQuiz(ctx, words)
	if err != nil {
		log.Warn("quiz generation failed", redact.ErrAttr(err))
		return nil, err
	}

	log.Debug("quiz built", slog.Int("questions", len(questions)))
	return questions, nil
}

// ScrambleWords picks the session words and scrambles each one.
func (s *Service) ScrambleWords(desired int) ([]ScrambledWord, error) {
	words, err := s.Candidates(desired)
	if err != nil {
		return nil, err
	}

	out := make([]ScrambledWord, len(words))
	for i, w := range words {
		out[i] = ScrambledWord{Word: w, Scrambled: s.Scramble(w.Word)}
	}
	return out, nil
}

// Scramble shuffles the letters of word. The result differs from word
// whenever a different arrangement exists.
func (s *Service) Scramble(word string) string {
	letters := []rune(word)
	if !hasDistinctLetters(letters) {
		return word
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		s.rng.Shuffle(len(letters), func(i, j int) { letters[i], letters[j] = letters[j], letters[i] })
		if string(letters) != word {
			return string(letters)
		}
	}
}

func hasDistinctLetters(letters []rune) bool {
	for _, r := range letters[min(1, len(letters)):] {
		if r != letters[0] {
			return true
		}
	}
	return false
}

// QualityFor maps an answer to a recall quality.
func QualityFor(a Answer) (int, error) {
	if a.Rating != "" {
		if a.Game != domain.GameFlashcards {
			return 0, fmt.Errorf("%w: only flashcards are rated", ErrInvalidAnswer)
		}
		return domain.RatingQuality(a.Rating)
	}
	return domain.QualityFor(a.Game, a.Correct)
}

// SubmitAnswer records the answer through the sync coordinator. On a sync
// failure the result still describes the rolled back word together with the
// error.
func (s *Service) SubmitAnswer(ctx context.Context, a Answer) (AnswerResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	a.WordID = strings.TrimSpace(a.WordID)
	if a.WordID == "" {
		return AnswerResult{}, fmt.Errorf("%w: word is required", ErrInvalidAnswer)
	}
	quality, err := QualityFor(a)
	if err != nil {
		return AnswerResult{}, err
	}

	word, result, err := s.syncer.RecordInteraction(ctx, a.WordID, quality)
	out := AnswerResult{Word: word, Quality: quality, Correct: domain.IsSuccess(quality), Sync: result}
	if err != nil {
		if current, ok := s.reader.Word(a.WordID); ok {
			out.Word = current
		}
		log.Debug("answer not recorded",
			slog.String("word", a.WordID),
			slog.String("game", string(a.Game)),
			redact.ErrAttr(err))
		return out, err
	}
	return out, nil
}

// CompleteSession records a finished session.
func (s *Service) CompleteSession(ctx context.Context, session domain.NewPracticeSession) (progress_sync.Result, error) {
	return s.syncer.AddPracticeSession(ctx, session)
}
