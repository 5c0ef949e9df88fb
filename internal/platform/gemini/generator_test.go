package gemini

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/vocab-trainer/internal/config"
	"github.com/phrazzld/vocab-trainer/internal/domain"
	"github.com/phrazzld/vocab-trainer/internal/generation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

// reply is one scripted answer of fakeModel.
type reply struct {
	text   string
	finish genai.FinishReason
	err    error
}

// fakeModel returns scripted replies in order and records the prompts.
type fakeModel struct {
	mu      sync.Mutex
	replies []reply
	prompts []string
	configs []*genai.GenerateContentConfig
}

func (f *fakeModel) GenerateContent(
	_ context.Context,
	_ string,
	contents []*genai.Content,
	cfg *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var prompt strings.Builder
	for _, c := range contents {
		for _, p := range c.Parts {
			prompt.WriteString(p.Text)
		}
	}
	f.prompts = append(f.prompts, prompt.String())
	f.configs = append(f.configs, cfg)

	if len(f.replies) == 0 {
		return nil, errors.New("no scripted reply")
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	if r.err != nil {
		return nil, r.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content:      &genai.Content{Parts: []*genai.Part{{Text: r.text}}},
			FinishReason: r.finish,
		}},
	}, nil
}

func (f *fakeModel) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func newTestGenerator(t *testing.T, replies ...reply) (*Generator, *fakeModel) {
	t.Helper()

	model := &fakeModel{replies: replies}
	g, err := newGenerator(model, slog.New(slog.NewTextHandler(io.Discard, nil)), config.LLMConfig{
		ModelName:   "gemini-2.5-flash",
		Temperature: 0.7,
		MaxRetries:  2,
	})
	require.NoError(t, err)
	g.retryDelay = time.Millisecond
	return g, model
}

func TestNewGeneratorValidatesConfig(t *testing.T) {
	t.Parallel()

	_, err := NewGenerator(context.Background(), nil, config.LLMConfig{ModelName: "m"})
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)

	_, err = newGenerator(&fakeModel{}, nil, config.LLMConfig{})
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)

	_, err = newGenerator(nil, nil, config.LLMConfig{ModelName: "m"})
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)
}

func TestRenderPrompt(t *testing.T) {
	t.Parallel()

	got, err := renderPrompt(promptQuizQuestion, promptData{Word: "Lucid", Definition: "Expressed clearly & \"simply\""})
	require.NoError(t, err)
	assert.Contains(t, got, `the word "Lucid"`)
	assert.Contains(t, got, `"Expressed clearly & "simply""`, "prompts are not HTML escaped")

	got, err = renderPrompt(promptNewWords, promptData{Count: 4})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "Provide 4 "))
}

func TestGenerateQuestion(t *testing.T) {
	t.Parallel()

	word := domain.Word{Word: "Ephemeral", Definition: "Lasting for a very short time."}

	tests := []struct {
		name            string
		reply           string
		wantErr         error
		wantExplanation string
	}{
		{
			name:            "complete",
			reply:           `{"question":"Which word means lasting a short time?","options":["Ephemeral","Eternal","Ancient","Ubiquitous"],"correctAnswer":"Ephemeral","explanation":"It fades fast."}`,
			wantExplanation: "It fades fast.",
		},
		{
			name:            "missing explanation",
			reply:           `{"question":"Which word means lasting a short time?","options":["Ephemeral","Eternal"],"correctAnswer":"Ephemeral"}`,
			wantExplanation: `The correct answer is "Ephemeral" as it means "Lasting for a very short time.".`,
		},
		{
			name:    "answer not among options",
			reply:   `{"question":"q","options":["Eternal","Ancient"],"correctAnswer":"Ephemeral"}`,
			wantErr: generation.ErrInvalidResponse,
		},
		{
			name:    "missing options",
			reply:   `{"question":"q","correctAnswer":"Ephemeral"}`,
			wantErr: generation.ErrInvalidResponse,
		},
		{
			name:    "not json",
			reply:   `Sure! Here is your question`,
			wantErr: generation.ErrInvalidResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			g, model := newTestGenerator(t, reply{text: tt.reply})
			q, err := g.GenerateQuestion(context.Background(), word)
			assert.Equal(t, 1, model.calls(), "invalid responses are not retried")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Ephemeral", q.Word)
			assert.Equal(t, "Ephemeral", q.CorrectAnswer)
			assert.Equal(t, tt.wantExplanation, q.Explanation)
		})
	}
}

func TestRetriesTransientFailures(t *testing.T) {
	t.Parallel()

	g, model := newTestGenerator(t,
		reply{err: errors.New("503 overloaded")},
		reply{err: errors.New("503 overloaded")},
		reply{text: `{"quote":"Words are, of course, the most powerful drug used by mankind.","author":"Rudyard Kipling"}`},
	)

	q, err := g.Quote(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Rudyard Kipling", q.Author)
	assert.Equal(t, 3, model.calls())

	model.mu.Lock()
	defer model.mu.Unlock()
	cfg := model.configs[0]
	assert.Equal(t, "application/json", cfg.ResponseMIMEType)
	assert.Equal(t, quoteResponse, cfg.ResponseSchema)
	require.NotNil(t, cfg.Temperature)
	assert.InDelta(t, 0.7, *cfg.Temperature, 1e-6)
}

func TestGivesUpAfterMaxRetries(t *testing.T) {
	t.Parallel()

	failure := reply{err: errors.New("connection reset")}
	g, model := newTestGenerator(t, failure, failure, failure, failure)

	_, err := g.GenerateSynonymPair(context.Background())
	assert.ErrorIs(t, err, generation.ErrTransientFailure)
	assert.Equal(t, 3, model.calls())
}

func TestBlockedContentIsNotRetried(t *testing.T) {
	t.Parallel()

	g, model := newTestGenerator(t, reply{finish: genai.FinishReasonSafety})

	_, err := g.WordOfTheDay(context.Background())
	assert.ErrorIs(t, err, generation.ErrContentBlocked)
	assert.Equal(t, 1, model.calls())
}

func TestCancelledDuringBackoff(t *testing.T) {
	t.Parallel()

	g, _ := newTestGenerator(t, reply{err: errors.New("timeout")}, reply{err: errors.New("timeout")})
	g.retryDelay = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := g.Quote(ctx)
	assert.ErrorIs(t, err, generation.ErrTransientFailure)
}

func TestGenerateSynonymPair(t *testing.T) {
	t.Parallel()

	g, _ := newTestGenerator(t, reply{text: `{"word1":"Happy","word2":"Sad","areSynonyms":false}`})
	pair, err := g.GenerateSynonymPair(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.SynonymPair{Word1: "Happy", Word2: "Sad"}, pair)

	g, _ = newTestGenerator(t, reply{text: `{"word1":"Happy","word2":"Sad"}`})
	_, err = g.GenerateSynonymPair(context.Background())
	assert.ErrorIs(t, err, generation.ErrInvalidResponse, "a missing verdict is not false")
}

func TestGenerateWords(t *testing.T) {
	t.Parallel()

	g, model := newTestGenerator(t, reply{text: `{"words":[
		{"word":"Lucid","pronunciation":"/ˈluːsɪd/","definition":"Expressed clearly.","example":"A lucid account.","synonyms":["clear"],"difficulty":"Easy"},
		{"word":"","pronunciation":"","definition":"","example":"","synonyms":[],"difficulty":"hard"},
		{"word":"Terse","pronunciation":"/tɜːs/","definition":"Sparing in the use of words.","example":"A terse reply.","synonyms":["brief"],"difficulty":"medium"},
		{"word":"Extra","pronunciation":"/ˈɛkstrə/","definition":"More than usual.","example":"Extra words.","synonyms":[],"difficulty":"easy"}
	]}`})

	words, err := g.GenerateWords(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, words, 2)
	assert.Equal(t, "Lucid", words[0].Word)
	assert.Equal(t, domain.DifficultyEasy, words[0].Difficulty)
	assert.Equal(t, "Terse", words[1].Word)
	assert.Contains(t, model.prompts[0], "Provide 2 ")

	g, _ = newTestGenerator(t, reply{text: `{"words":[]}`})
	_, err = g.GenerateWords(context.Background(), 2)
	assert.ErrorIs(t, err, generation.ErrInvalidResponse)

	_, err = g.GenerateWords(context.Background(), 0)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestLookupWord(t *testing.T) {
	t.Parallel()

	g, model := newTestGenerator(t,
		reply{text: `{"word":"Query","pronunciation":"/ˈkwɪəri/","definition":"A question.","example":"A sharp query.","synonyms":["question"]}`},
		reply{text: `{}`},
	)
	ctx := context.Background()

	w, found, err := g.LookupWord(ctx, "  query ")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Query", w.Word)
	assert.Equal(t, domain.DifficultyMedium, w.Difficulty)
	require.NoError(t, w.Validate())
	assert.Contains(t, model.prompts[0], `"query"`)

	_, found, err = g.LookupWord(ctx, "qwzx")
	require.NoError(t, err)
	assert.False(t, found)

	_, _, err = g.LookupWord(ctx, " ")
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, 2, model.calls())
}

func TestReverseLookup(t *testing.T) {
	t.Parallel()

	g, _ := newTestGenerator(t,
		reply{text: `{"words":["Vocabulary"," Lexicon ",""]}`},
		reply{text: `{"suggestions":["Vocabulary"]}`},
	)
	ctx := context.Background()

	words, err := g.ReverseLookup(ctx, "all the words a person knows")
	require.NoError(t, err)
	assert.Equal(t, []string{"Vocabulary", "Lexicon"}, words)

	_, err = g.ReverseLookup(ctx, "all the words a person knows")
	assert.ErrorIs(t, err, generation.ErrInvalidResponse)
}
