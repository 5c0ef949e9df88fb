package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/phrazzld/vocab-trainer/internal/config"
	"github.com/phrazzld/vocab-trainer/internal/domain"
	"github.com/phrazzld/vocab-trainer/internal/generation"
	"github.com/phrazzld/vocab-trainer/internal/platform/logger"
	"github.com/phrazzld/vocab-trainer/internal/redact"
	"google.golang.org/genai"
)

const (
	defaultMaxRetries = 3
	defaultRetryDelay = 2 * time.Second
)

// contentModel is the part of the genai client the generator uses.
// *genai.Models satisfies it.
type contentModel interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// Generator implements generation.Source using Google's Gemini API.
type Generator struct {
	// models sends the requests
	models contentModel
	// model is the name of the Gemini model to use
	model       string
	temperature float32
	maxRetries  int
	retryDelay  time.Duration
	logger      *slog.Logger
}

var _ generation.Source = (*Generator)(nil)

// NewGenerator creates a Generator backed by the Gemini API.
//
// Parameters:
//   - ctx: Context for client creation
//   - logger: A structured logger for operation logging
//   - cfg: LLM configuration containing API key, model name and retry settings
//
// Returns:
//   - A properly initialized Generator or an error wrapping
//     generation.ErrInvalidConfig
func NewGenerator(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*Generator, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v",
			generation.ErrInvalidConfig, redact.Error(err))
	}

	return newGenerator(client.Models, logger, cfg)
}

func newGenerator(models contentModel, log *slog.Logger, cfg config.LLMConfig) (*Generator, error) {
	if models == nil {
		return nil, fmt.Errorf("%w: content model cannot be nil", generation.ErrInvalidConfig)
	}
	if strings.TrimSpace(cfg.ModelName) == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}
	if log == nil {
		log = slog.Default()
	}

	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = defaultMaxRetries
	}
	retryDelay := time.Duration(cfg.RetryDelaySeconds) * time.Second
	if retryDelay <= 0 {
		retryDelay = defaultRetryDelay
	}

	return &Generator{
		models:      models,
		model:       cfg.ModelName,
		temperature: cfg.Temperature,
		maxRetries:  maxRetries,
		retryDelay:  retryDelay,
		logger:      log.With(slog.String("component", "gemini_generator")),
	}, nil
}

// GenerateWords asks the model for count new vocabulary words. Entries that
// fail validation are dropped; a response with no usable entry is invalid.
func (g *Generator) GenerateWords(ctx context.Context, count int) ([]domain.Word, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: word count must be positive, got %d", domain.ErrValidation, count)
	}

	parsed, err := generate[wordListSchema](ctx, g, "generate_words", promptNewWords,
		promptData{Count: count}, newWordsResponse)
	if err != nil {
		return nil, err
	}

	log := logger.FromContextOrDefault(ctx, g.logger)
	words := make([]domain.Word, 0, len(parsed.Words))
	for i, entry := range parsed.Words {
		w := entry.toWord(domain.Difficulty(strings.ToLower(entry.Difficulty)))
		if err := w.Validate(); err != nil {
			log.WarnContext(ctx, "Dropping invalid generated word", "index", i, "error", err)
			continue
		}
		words = append(words, w)
		if len(words) == count {
			break
		}
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("%w: no usable words in response", generation.ErrInvalidResponse)
	}
	return words, nil
}

// GenerateQuestion builds a multiple-choice question for word.
func (g *Generator) GenerateQuestion(ctx context.Context, word domain.Word) (domain.QuizQuestion, error) {
	if strings.TrimSpace(word.Word) == "" || strings.TrimSpace(word.Definition) == "" {
		return domain.QuizQuestion{}, fmt.Errorf("%w: question needs a word and a definition", domain.ErrValidation)
	}

	parsed, err := generate[quizSchema](ctx, g, "generate_question", promptQuizQuestion,
		promptData{Word: word.Word, Definition: word.Definition}, quizResponse)
	if err != nil {
		return domain.QuizQuestion{}, err
	}
	if parsed.Question == "" || parsed.CorrectAnswer == "" || len(parsed.Options) == 0 {
		return domain.QuizQuestion{}, fmt.Errorf("%w: incomplete question for %q", generation.ErrInvalidResponse, word.Word)
	}

	q := domain.QuizQuestion{
		Word:          word.Word,
		Definition:    parsed.Question,
		Options:       parsed.Options,
		CorrectAnswer: parsed.CorrectAnswer,
		Explanation:   parsed.Explanation,
	}
	if q.Explanation == "" {
		q.Explanation = generation.FallbackExplanation(word)
	}
	if err := q.Validate(); err != nil {
		return domain.QuizQuestion{}, fmt.Errorf("%w: %w", generation.ErrInvalidResponse, err)
	}
	return q, nil
}

// GenerateSynonymPair asks for two words that are synonyms about half the time.
func (g *Generator) GenerateSynonymPair(ctx context.Context) (domain.SynonymPair, error) {
	parsed, err := generate[synonymPairSchema](ctx, g, "generate_synonym_pair", promptSynonymPair,
		promptData{}, synonymPairResponse)
	if err != nil {
		return domain.SynonymPair{}, err
	}
	if parsed.AreSynonyms == nil {
		return domain.SynonymPair{}, fmt.Errorf("%w: synonym pair has no verdict", generation.ErrInvalidResponse)
	}

	pair := domain.SynonymPair{Word1: parsed.Word1, Word2: parsed.Word2, AreSynonyms: *parsed.AreSynonyms}
	if err := pair.Validate(); err != nil {
		return domain.SynonymPair{}, fmt.Errorf("%w: %w", generation.ErrInvalidResponse, err)
	}
	return pair, nil
}

// WordOfTheDay asks for one interesting word.
func (g *Generator) WordOfTheDay(ctx context.Context) (domain.Word, error) {
	parsed, err := generate[wordSchema](ctx, g, "word_of_the_day", promptWordOfTheDay,
		promptData{}, wordOfTheDayResponse)
	if err != nil {
		return domain.Word{}, err
	}
	if !parsed.complete() {
		return domain.Word{}, fmt.Errorf("%w: incomplete word of the day", generation.ErrInvalidResponse)
	}
	return parsed.toWord(domain.DifficultyMedium), nil
}

// Quote asks for a short quotation about language.
func (g *Generator) Quote(ctx context.Context) (domain.Quote, error) {
	parsed, err := generate[quoteSchema](ctx, g, "quote", promptQuote, promptData{}, quoteResponse)
	if err != nil {
		return domain.Quote{}, err
	}

	q := domain.Quote{Quote: parsed.Quote, Author: parsed.Author}
	if err := q.Validate(); err != nil {
		return domain.Quote{}, fmt.Errorf("%w: %w", generation.ErrInvalidResponse, err)
	}
	return q, nil
}

// LookupWord returns dictionary details for word. The model answers with an
// empty object for words that are not English; that and any incomplete entry
// report found as false.
func (g *Generator) LookupWord(ctx context.Context, word string) (domain.Word, bool, error) {
	word = strings.TrimSpace(word)
	if word == "" {
		return domain.Word{}, false, fmt.Errorf("%w: lookup word is empty", domain.ErrValidation)
	}

	parsed, err := generate[wordSchema](ctx, g, "lookup_word", promptLookupWord,
		promptData{Word: word}, lookupWordResponse)
	if err != nil {
		return domain.Word{}, false, err
	}
	if !parsed.complete() {
		return domain.Word{}, false, nil
	}
	return parsed.toWord(domain.DifficultyMedium), true, nil
}

// ReverseLookup suggests words that match a definition or concept.
func (g *Generator) ReverseLookup(ctx context.Context, definition string) ([]string, error) {
	definition = strings.TrimSpace(definition)
	if definition == "" {
		return nil, fmt.Errorf("%w: definition is empty", domain.ErrValidation)
	}

	parsed, err := generate[reverseLookupSchema](ctx, g, "reverse_lookup", promptReverseLookup,
		promptData{Definition: definition}, reverseLookupResponse)
	if err != nil {
		return nil, err
	}
	if parsed.Words == nil {
		return nil, fmt.Errorf("%w: reverse lookup returned no word list", generation.ErrInvalidResponse)
	}

	words := make([]string, 0, len(parsed.Words))
	for _, w := range parsed.Words {
		if w = strings.TrimSpace(w); w != "" {
			words = append(words, w)
		}
	}
	return words, nil
}

func (w wordSchema) complete() bool {
	return w.Word != "" && w.Pronunciation != "" && w.Definition != "" && w.Example != "" && w.Synonyms != nil
}

func (w wordSchema) toWord(difficulty domain.Difficulty) domain.Word {
	synonyms := w.Synonyms
	if synonyms == nil {
		synonyms = []string{}
	}
	return domain.Word{
		Word:          strings.TrimSpace(w.Word),
		Pronunciation: w.Pronunciation,
		Definition:    w.Definition,
		Example:       w.Example,
		Synonyms:      synonyms,
		Difficulty:    difficulty,
	}
}

// generate renders the prompt, calls the model and decodes the JSON answer
// into T.
func generate[T any](
	ctx context.Context,
	g *Generator,
	operation string,
	promptName string,
	data promptData,
	schema *genai.Schema,
) (T, error) {
	var out T

	prompt, err := renderPrompt(promptName, data)
	if err != nil {
		return out, err
	}

	text, err := g.callWithRetry(ctx, operation, prompt, schema)
	if err != nil {
		return out, err
	}

	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return out, fmt.Errorf("%w: failed to parse JSON response: %v", generation.ErrInvalidResponse, err)
	}
	return out, nil
}

// callWithRetry makes a call to the Gemini API with exponential backoff retry logic.
//
// It attempts the call up to maxRetries+1 times, using exponential backoff
// with jitter between retries for transient errors. Permanent errors (content
// blocked by safety filters, unusable responses) are returned immediately.
//
// Returns:
//   - The text of the first candidate
//   - An error wrapping generation.ErrTransientFailure, ErrInvalidResponse or
//     ErrContentBlocked
func (g *Generator) callWithRetry(
	ctx context.Context,
	operation string,
	prompt string,
	schema *genai.Schema,
) (string, error) {
	log := logger.FromContextOrDefault(ctx, g.logger).With("operation", operation)

	temperature := g.temperature
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
		Temperature:      &temperature,
	}

	for attempt := 0; ; attempt++ {
		attemptNum := attempt + 1
		log.DebugContext(ctx, "Making Gemini API call",
			"attempt", attemptNum,
			"max_attempts", g.maxRetries+1)

		resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
		var text string
		if err == nil {
			text, err = responseText(resp)
		} else {
			err = fmt.Errorf("%w: %v", generation.ErrTransientFailure, redact.Error(err))
		}

		if err == nil {
			log.DebugContext(ctx, "Gemini API call successful", "attempt", attemptNum)
			return text, nil
		}

		log.WarnContext(ctx, "Gemini API call failed",
			"attempt", attemptNum,
			redact.ErrAttr(err))

		if !generation.Retryable(err) {
			return "", err
		}
		if attempt >= g.maxRetries {
			return "", fmt.Errorf("%w: exceeded maximum retry attempts (%d)",
				generation.ErrTransientFailure, g.maxRetries)
		}

		// delay = baseDelay * (2^attempt) * (0.5 + rand(0, 0.5))
		backoff := float64(g.retryDelay) * math.Pow(2, float64(attempt))
		delay := time.Duration(backoff * (0.5 + rand.Float64()*0.5))

		log.InfoContext(ctx, "Retrying after delay",
			"attempt", attemptNum,
			"delay", delay)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %v", generation.ErrTransientFailure, ctx.Err())
		}
	}
}

// responseText extracts the text of the first candidate.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("%w: nil response", generation.ErrInvalidResponse)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return "", fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: content blocked by safety filters", generation.ErrContentBlocked)
	}
	if candidate.Content == nil {
		return "", fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("%w: response has no text", generation.ErrInvalidResponse)
	}
	return sb.String(), nil
}
