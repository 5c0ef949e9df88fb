package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/vocab-trainer/internal/domain"
	"github.com/phrazzld/vocab-trainer/internal/gateway"
	"github.com/phrazzld/vocab-trainer/internal/redact"
	"github.com/phrazzld/vocab-trainer/internal/store"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Content operations, used in logs, errors and metrics.
const (
	OpGenerateWords       = "generate_words"
	OpGenerateQuiz        = "generate_quiz"
	OpGenerateSynonymPair = "generate_synonym_pair"
	OpWordOfTheDay        = "word_of_the_day"
	OpQuote               = "quote"
	OpLookupWord          = "lookup_word"
	OpReverseLookup       = "reverse_lookup"
)

// Outcomes reported to the Recorder.
const (
	// OutcomeGenerated means the source produced the content.
	OutcomeGenerated = "generated"
	// OutcomeCached means the content came from the cache.
	OutcomeCached = "cached"
	// OutcomeUnavailable means the source failed and fallback content was served.
	OutcomeUnavailable = "content_unavailable"
	// OutcomeInvalid means the source answered with malformed content.
	OutcomeInvalid = "validation_failure"
	// OutcomeOffline means no source is configured.
	OutcomeOffline = "offline"
)

// Cache lifetimes
const (
	dailyTTL  = 24 * time.Hour
	lookupTTL = 7 * 24 * time.Hour
)

const defaultConcurrency = 4

// Recorder observes the outcome of every content request.
type Recorder interface {
	ObserveContent(operation, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveContent(string, string) {}

// Option configures a Service.
type Option func(*Service)

// WithSource sets the generator. Without one every request is served from
// the catalogue.
func WithSource(src Source) Option {
	return func(s *Service) { s.source = src }
}

// WithCache enables caching of daily and lookup content.
func WithCache(kv store.KVStore) Option {
	return func(s *Service) { s.cache = kv }
}

// WithRecorder sets the outcome observer.
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
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

// WithClock sets the clock used for daily cache keys.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithConcurrency bounds the parallel question requests of one quiz.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// Service implements gateway.ContentGateway. Generator failures never reach
// the caller for content that has a fallback: they are logged, counted and
// replaced by catalogue content.
type Service struct {
	source      Source
	catalogue   *Catalogue
	cache       store.KVStore
	recorder    Recorder
	logger      *slog.Logger
	now         func() time.Time
	concurrency int
	group       singleflight.Group
}

var _ gateway.ContentGateway = (*Service)(nil)

// NewService creates a Service serving fallbacks from catalogue.
func NewService(catalogue *Catalogue, opts ...Option) *Service {
	if catalogue == nil {
		panic("generation: catalogue cannot be nil")
	}
	s := &Service{
		catalogue:   catalogue,
		recorder:    nopRecorder{},
		logger:      slog.Default(),
		now:         time.Now,
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(slog.String("component", "content_service"))
	return s
}

// Online reports whether a generator is configured.
func (s *Service) Online() bool {
	return s.source != nil
}

// degrade classifies a generator failure, logs and counts it.
func (s *Service) degrade(ctx context.Context, op string, err error) *domain.ContentError {
	cerr := Classify(op, err)
	outcome := OutcomeUnavailable
	if errors.Is(cerr, domain.ErrValidationFailure) {
		outcome = OutcomeInvalid
	}

	s.logger.WarnContext(ctx, "serving fallback content",
		slog.String("operation", op),
		slog.String("outcome", outcome),
		redact.ErrAttr(cerr))
	s.recorder.ObserveContent(op, outcome)
	return cerr
}

func (s *Service) offline(ctx context.Context, op string) {
	s.logger.DebugContext(ctx, "no generator configured, serving catalogue content", slog.String("operation", op))
	s.recorder.ObserveContent(op, OutcomeOffline)
}

// cachedValue reads key from the cache.
func cachedValue[T any](ctx context.Context, s *Service, key string) (T, bool) {
	var out T
	if s.cache == nil {
		return out, false
	}
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if !store.IsNotFoundError(err) {
			s.logger.WarnContext(ctx, "content cache read failed", slog.String("key", key), redact.ErrAttr(err))
		}
		return out, false
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		s.logger.WarnContext(ctx, "dropping undecodable cache entry", slog.String("key", key), redact.ErrAttr(err))
		_ = s.cache.Delete(ctx, key)
		return out, false
	}
	return out, true
}

func (s *Service) storeValue(ctx context.Context, key string, v any, ttl time.Duration) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err == nil {
		err = s.cache.Put(ctx, key, raw, ttl)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "content cache write failed", slog.String("key", key), redact.ErrAttr(err))
	}
}

// generateCached serves key from the cache, or calls gen once for all
// concurrent callers and caches its result.
func generateCached[T any](
	ctx context.Context,
	s *Service,
	op, key string,
	ttl time.Duration,
	gen func(ctx context.Context) (T, error),
) (T, error) {
	if v, ok := cachedValue[T](ctx, s, key); ok {
		s.recorder.ObserveContent(op, OutcomeCached)
		return v, nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		out, err := gen(ctx)
		if err != nil {
			return nil, err
		}
		s.storeValue(ctx, key, out, ttl)
		return out, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	s.recorder.ObserveContent(op, OutcomeGenerated)
	return v.(T), nil
}

func (s *Service) day() string {
	return s.now().UTC().Format("2006-01-02")
}

// GenerateQuiz implements gateway.ContentGateway. Each question is requested
// separately; a failed request is replaced by a question built from the
// word's own definition.
func (s *Service) GenerateQuiz(ctx context.Context, words []domain.Word) ([]domain.QuizQuestion, error) {
	if len(words) == 0 {
		return nil, domain.NewValidationFailure(OpGenerateQuiz, domain.ErrNotEnoughContent)
	}

	distractors := append(domain.CloneWords(words), s.catalogue.Words()...)
	questions := make([]domain.QuizQuestion, len(words))

	if s.source == nil {
		s.offline(ctx, OpGenerateQuiz)
		for i, w := range words {
			questions[i] = FallbackQuestion(w, distractors)
		}
		return questions, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, w := range words {
		g.Go(func() error {
			q, err := s.source.GenerateQuestion(gctx, w)
			if err != nil {
				s.degrade(gctx, OpGenerateQuiz, fmt.Errorf("question for %q: %w", w.Word, err))
				q = FallbackQuestion(w, distractors)
			} else {
				s.recorder.ObserveContent(OpGenerateQuiz, OutcomeGenerated)
			}
			questions[i] = q
			return nil
		})
	}
	_ = g.Wait()
	return questions, nil
}

// GenerateSynonymPair implements gateway.ContentGateway.
func (s *Service) GenerateSynonymPair(ctx context.Context) (domain.SynonymPair, error) {
	if s.source == nil {
		s.offline(ctx, OpGenerateSynonymPair)
		return s.catalogue.FallbackSynonymPair(), nil
	}

	pair, err := s.source.GenerateSynonymPair(ctx)
	if err != nil {
		s.degrade(ctx, OpGenerateSynonymPair, err)
		return s.catalogue.FallbackSynonymPair(), nil
	}
	s.recorder.ObserveContent(OpGenerateSynonymPair, OutcomeGenerated)
	return pair, nil
}

// WordOfTheDay implements gateway.ContentGateway. A generated word is cached
// for the rest of the day.
func (s *Service) WordOfTheDay(ctx context.Context) (domain.Word, error) {
	if s.source == nil {
		s.offline(ctx, OpWordOfTheDay)
		return s.catalogue.FallbackWordOfTheDay(), nil
	}

	w, err := generateCached(ctx, s, OpWordOfTheDay, store.ContentKey(OpWordOfTheDay, s.day()), dailyTTL,
		s.source.WordOfTheDay)
	if err != nil {
		s.degrade(ctx, OpWordOfTheDay, err)
		return s.catalogue.FallbackWordOfTheDay(), nil
	}
	return w, nil
}

// Quote implements gateway.ContentGateway. A generated quote is cached for
// the rest of the day.
func (s *Service) Quote(ctx context.Context) (domain.Quote, error) {
	if s.source == nil {
		s.offline(ctx, OpQuote)
		return s.catalogue.FallbackQuote(), nil
	}

	q, err := generateCached(ctx, s, OpQuote, store.ContentKey(OpQuote, s.day()), dailyTTL, s.source.Quote)
	if err != nil {
		s.degrade(ctx, OpQuote, err)
		return s.catalogue.FallbackQuote(), nil
	}
	return q, nil
}

// errNotAWord marks a lookup the generator answered with "not found". It
// keeps the miss out of the cache.
var errNotAWord = errors.New("not an english word")

// LookupWord implements gateway.ContentGateway. A malformed answer counts as
// not found. When the generator cannot be reached the catalogue is
// consulted, and a ContentUnavailable error is returned if it has no entry.
func (s *Service) LookupWord(ctx context.Context, word string) (domain.Word, bool, error) {
	if s.source == nil {
		s.offline(ctx, OpLookupWord)
		w, ok := s.catalogue.Lookup(word)
		return w, ok, nil
	}

	w, err := generateCached(ctx, s, OpLookupWord, store.ContentKey(OpLookupWord, word), lookupTTL,
		func(ctx context.Context) (domain.Word, error) {
			w, found, err := s.source.LookupWord(ctx, word)
			if err == nil && !found {
				err = errNotAWord
			}
			return w, err
		})
	switch {
	case errors.Is(err, domain.ErrValidation):
		return domain.Word{}, false, err
	case errors.Is(err, errNotAWord):
		s.recorder.ObserveContent(OpLookupWord, OutcomeGenerated)
		return domain.Word{}, false, nil
	case err != nil:
		cerr := s.degrade(ctx, OpLookupWord, err)
		if errors.Is(cerr, domain.ErrValidationFailure) {
			return domain.Word{}, false, nil
		}
		if w, ok := s.catalogue.Lookup(word); ok {
			return w, true, nil
		}
		return domain.Word{}, false, cerr
	default:
		return w, true, nil
	}
}

// ReverseLookup implements gateway.ContentGateway. A malformed answer yields
// no suggestions; an unreachable generator yields the catalogue's.
func (s *Service) ReverseLookup(ctx context.Context, definition string) ([]string, error) {
	if s.source == nil {
		s.offline(ctx, OpReverseLookup)
		return s.catalogue.FallbackReverseLookup(), nil
	}

	words, err := s.source.ReverseLookup(ctx, definition)
	switch {
	case errors.Is(err, domain.ErrValidation):
		return nil, err
	case err != nil:
		if cerr := s.degrade(ctx, OpReverseLookup, err); errors.Is(cerr, domain.ErrValidationFailure) {
			return []string{}, nil
		}
		return s.catalogue.FallbackReverseLookup(), nil
	}
	s.recorder.ObserveContent(OpReverseLookup, OutcomeGenerated)
	return words, nil
}

// GenerateWords supplies new vocabulary to the in-process backend, falling
// back to the catalogue's offline pool.
func (s *Service) GenerateWords(ctx context.Context, count int) ([]domain.Word, error) {
	if s.source == nil {
		s.offline(ctx, OpGenerateWords)
		return s.catalogue.GenerateWords(ctx, count)
	}

	words, err := s.source.GenerateWords(ctx, count)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return nil, err
		}
		s.degrade(ctx, OpGenerateWords, err)
		return s.catalogue.GenerateWords(ctx, count)
	}
	s.recorder.ObserveContent(OpGenerateWords, OutcomeGenerated)
	return words, nil
}
