package generation_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/phrazzld/vocab-trainer/internal/domain"
	"github.com/phrazzld/vocab-trainer/internal/generation"
	"github.com/phrazzld/vocab-trainer/internal/mocks"
	"github.com/phrazzld/vocab-trainer/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu       sync.Mutex
	outcomes map[string]int
}

func (r *recorder) ObserveContent(operation, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.outcomes == nil {
		r.outcomes = make(map[string]int)
	}
	r.outcomes[operation+"/"+outcome]++
}

func (r *recorder) count(operation, outcome string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.outcomes[operation+"/"+outcome]
}

var testNow = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

func newService(t *testing.T, src generation.Source, opts ...generation.Option) (*generation.Service, *recorder) {
	t.Helper()

	rec := &recorder{}
	base := []generation.Option{
		generation.WithRecorder(rec),
		generation.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		generation.WithClock(func() time.Time { return testNow }),
	}
	if src != nil {
		base = append(base, generation.WithSource(src))
	}
	return generation.NewService(generation.MustLoadCatalogue(), append(base, opts...)...), rec
}

func quizWords() []domain.Word {
	return []domain.Word{
		{Word: "Candid", Definition: "Truthful and straightforward.", Example: "e", Synonyms: []string{}},
		{Word: "Frugal", Definition: "Sparing or economical.", Example: "e", Synonyms: []string{}},
		{Word: "Cogent", Definition: "Clear, logical, and convincing.", Example: "e", Synonyms: []string{}},
	}
}

func TestGenerateQuiz(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("empty word list", func(t *testing.T) {
		t.Parallel()

		svc, _ := newService(t, nil)
		_, err := svc.GenerateQuiz(ctx, nil)
		assert.ErrorIs(t, err, domain.ErrNotEnoughContent)
	})

	t.Run("offline builds every question locally", func(t *testing.T) {
		t.Parallel()

		svc, rec := newService(t, nil)
		questions, err := svc.GenerateQuiz(ctx, quizWords())
		require.NoError(t, err)
		require.Len(t, questions, 3)
		for i, q := range questions {
			assert.Equal(t, quizWords()[i].Word, q.CorrectAnswer)
			assert.Len(t, q.Options, 4)
			assert.NoError(t, q.Validate())
		}
		assert.Equal(t, 1, rec.count(generation.OpGenerateQuiz, generation.OutcomeOffline))
	})

	t.Run("failed questions fall back individually", func(t *testing.T) {
		t.Parallel()

		src := &mocks.MockSource{
			GenerateQuestionFn: func(_ context.Context, w domain.Word) (domain.QuizQuestion, error) {
				switch w.Word {
				case "Frugal":
					return domain.QuizQuestion{}, generation.ErrTransientFailure
				case "Cogent":
					return domain.QuizQuestion{}, generation.ErrInvalidResponse
				}
				return domain.QuizQuestion{
					Word:          w.Word,
					Definition:    "Which word means honest?",
					Options:       []string{"Candid", "Sly", "Coy", "Vague"},
					CorrectAnswer: "Candid",
					Explanation:   "generated",
				}, nil
			},
		}
		svc, rec := newService(t, src, generation.WithConcurrency(2))

		questions, err := svc.GenerateQuiz(ctx, quizWords())
		require.NoError(t, err)
		require.Len(t, questions, 3)
		assert.Equal(t, "generated", questions[0].Explanation, "order follows the input")
		assert.Equal(t, generation.FallbackExplanation(quizWords()[1]), questions[1].Explanation)
		assert.Equal(t, "Sparing or economical.", questions[1].Definition)
		assert.Equal(t, "Cogent", questions[2].CorrectAnswer)

		assert.Equal(t, 3, src.Calls.Count("GenerateQuestion"))
		assert.Equal(t, 1, rec.count(generation.OpGenerateQuiz, generation.OutcomeGenerated))
		assert.Equal(t, 1, rec.count(generation.OpGenerateQuiz, generation.OutcomeUnavailable))
		assert.Equal(t, 1, rec.count(generation.OpGenerateQuiz, generation.OutcomeInvalid))
	})
}

func TestGenerateSynonymPair(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	want := domain.SynonymPair{Word1: "Happy", Word2: "Joyful", AreSynonyms: true}

	tests := []struct {
		name string
		src  generation.Source
		want domain.SynonymPair
	}{
		{name: "offline", src: nil, want: want},
		{name: "source failure", src: mocks.NewMockSourceWithError(generation.ErrContentBlocked), want: want},
		{
			name: "generated",
			src: &mocks.MockSource{GenerateSynonymPairFn: func(context.Context) (domain.SynonymPair, error) {
				return domain.SynonymPair{Word1: "Big", Word2: "Tiny"}, nil
			}},
			want: domain.SynonymPair{Word1: "Big", Word2: "Tiny"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc, _ := newService(t, tt.src)
			got, err := svc.GenerateSynonymPair(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuoteIsCachedPerDay(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	var n atomic.Int32
	src := &mocks.MockSource{QuoteFn: func(context.Context) (domain.Quote, error) {
		i := n.Add(1)
		return domain.Quote{Quote: fmt.Sprintf("quote %d", i), Author: "A"}, nil
	}}
	cache := store.NewMemoryStore(func() time.Time { return testNow })
	svc, rec := newService(t, src, generation.WithCache(cache))

	first, err := svc.Quote(ctx)
	require.NoError(t, err)
	second, err := svc.Quote(ctx)
	require.NoError(t, err)

	assert.Equal(t, "quote 1", first.Quote)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, src.Calls.Count("Quote"))
	assert.Equal(t, 1, rec.count(generation.OpQuote, generation.OutcomeCached))

	keys, err := cache.Keys(ctx, store.ContentKey(generation.OpQuote))
	require.NoError(t, err)
	assert.Equal(t, []string{"content:quote:2024-03-10"}, keys)
}

func TestWordOfTheDayFallback(t *testing.T) {
	t.Parallel()

	cache := store.NewMemoryStore(func() time.Time { return testNow })
	svc, rec := newService(t, mocks.NewMockSourceWithError(generation.ErrTransientFailure), generation.WithCache(cache))

	w, err := svc.WordOfTheDay(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Lexicographer", w.Word)
	assert.Equal(t, 1, rec.count(generation.OpWordOfTheDay, generation.OutcomeUnavailable))

	keys, err := cache.Keys(context.Background(), store.ContentKeyPrefix)
	require.NoError(t, err)
	assert.Empty(t, keys, "fallback content is not cached")
}

func TestWordOfTheDayCollapsesConcurrentRequests(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	src := &mocks.MockSource{WordOfTheDayFn: func(context.Context) (domain.Word, error) {
		<-release
		return domain.Word{Word: "Petrichor", Definition: "d", Example: "e", Synonyms: []string{}}, nil
	}}
	svc, _ := newService(t, src)

	var wg sync.WaitGroup
	results := make([]string, 5)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w, err := svc.WordOfTheDay(context.Background())
			assert.NoError(t, err)
			results[i] = w.Word
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, "Petrichor", r)
	}
	assert.LessOrEqual(t, src.Calls.Count("WordOfTheDay"), 5)
	assert.GreaterOrEqual(t, src.Calls.Count("WordOfTheDay"), 1)
}

func TestLookupWord(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	found := domain.Word{Word: "petrichor", Definition: "d", Example: "e", Synonyms: []string{}}

	tests := []struct {
		name      string
		src       generation.Source
		word      string
		wantWord  string
		wantFound bool
		wantErr   error
	}{
		{name: "offline hit", word: "Query", wantWord: "Query", wantFound: true},
		{name: "offline miss", word: "petrichor"},
		{
			name: "generated",
			src: &mocks.MockSource{LookupWordFn: func(context.Context, string) (domain.Word, bool, error) {
				return found, true, nil
			}},
			word: "petrichor", wantWord: "petrichor", wantFound: true,
		},
		{
			name: "not a word",
			src: &mocks.MockSource{LookupWordFn: func(context.Context, string) (domain.Word, bool, error) {
				return domain.Word{}, false, nil
			}},
			word: "qwzx",
		},
		{name: "malformed answer", src: mocks.NewMockSourceWithError(generation.ErrInvalidResponse), word: "Query"},
		{
			name:     "unreachable with catalogue entry",
			src:      mocks.NewMockSourceWithError(generation.ErrTransientFailure),
			word:     "candid",
			wantWord: "Candid", wantFound: true,
		},
		{
			name:    "unreachable without catalogue entry",
			src:     mocks.NewMockSourceWithError(generation.ErrTransientFailure),
			word:    "petrichor",
			wantErr: domain.ErrContentUnavailable,
		},
		{
			name:    "invalid input",
			src:     mocks.NewMockSourceWithError(fmt.Errorf("%w: empty word", domain.ErrValidation)),
			word:    " ",
			wantErr: domain.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc, _ := newService(t, tt.src)
			w, ok, err := svc.LookupWord(ctx, tt.word)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantFound, ok)
			assert.Equal(t, tt.wantWord, w.Word)
		})
	}
}

func TestLookupWordCachesOnlyHits(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	src := &mocks.MockSource{LookupWordFn: func(_ context.Context, word string) (domain.Word, bool, error) {
		if word == "petrichor" {
			return domain.Word{Word: word, Definition: "d", Example: "e", Synonyms: []string{}}, true, nil
		}
		return domain.Word{}, false, nil
	}}
	cache := store.NewMemoryStore(func() time.Time { return testNow })
	svc, _ := newService(t, src, generation.WithCache(cache))

	for range 2 {
		_, ok, err := svc.LookupWord(ctx, "petrichor")
		require.NoError(t, err)
		assert.True(t, ok)
		_, ok, err = svc.LookupWord(ctx, "qwzx")
		require.NoError(t, err)
		assert.False(t, ok)
	}
	assert.Equal(t, 3, src.Calls.Count("LookupWord"))

	keys, err := cache.Keys(ctx, store.ContentKeyPrefix)
	require.NoError(t, err)
	assert.Equal(t, []string{"content:lookup_word:petrichor"}, keys)
}

func TestReverseLookup(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		name string
		src  generation.Source
		want []string
	}{
		{name: "offline", want: []string{"Vocabulary", "Lexicon", "Glossary"}},
		{
			name: "unreachable",
			src:  mocks.NewMockSourceWithError(errors.New("connection reset")),
			want: []string{"Vocabulary", "Lexicon", "Glossary"},
		},
		{name: "malformed answer", src: mocks.NewMockSourceWithError(generation.ErrInvalidResponse), want: []string{}},
		{
			name: "generated",
			src: &mocks.MockSource{ReverseLookupFn: func(context.Context, string) ([]string, error) {
				return []string{"Petrichor"}, nil
			}},
			want: []string{"Petrichor"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc, _ := newService(t, tt.src)
			got, err := svc.ReverseLookup(ctx, "the smell of rain")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGenerateWordsFallsBackToPool(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc, rec := newService(t, mocks.NewMockSourceWithError(generation.ErrTransientFailure))
	words, err := svc.GenerateWords(ctx, 2)
	require.NoError(t, err)
	require.Len(t, words, 2)
	assert.Equal(t, "Laconic", words[0].Word)
	assert.Equal(t, 1, rec.count(generation.OpGenerateWords, generation.OutcomeUnavailable))

	_, err = svc.GenerateWords(ctx, 0)
	assert.Error(t, err)
}
