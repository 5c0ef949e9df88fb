package generation

import (
	"context"

	"github.com/phrazzld/vocab-trainer/internal/domain"
)

// Source produces learning material with a language model. This interface
// is the boundary between the application core and the external LLM
// service.
//
// Implementations report unusable answers with ErrInvalidResponse, safety
// blocks with ErrContentBlocked and exhausted retries with
// ErrTransientFailure. They never substitute fallback content.
type Source interface {
	// GenerateWords returns up to count new vocabulary words.
	GenerateWords(ctx context.Context, count int) ([]domain.Word, error)

	// GenerateQuestion builds a multiple-choice question for word.
	GenerateQuestion(ctx context.Context, word domain.Word) (domain.QuizQuestion, error)

	// GenerateSynonymPair returns two words that may or may not be synonyms.
	GenerateSynonymPair(ctx context.Context) (domain.SynonymPair, error)

	// WordOfTheDay returns an interesting word.
	WordOfTheDay(ctx context.Context) (domain.Word, error)

	// Quote returns a short quotation about language.
	Quote(ctx context.Context) (domain.Quote, error)

	// LookupWord returns dictionary details for word; found is false when
	// word is not an English word.
	LookupWord(ctx context.Context, word string) (w domain.Word, found bool, err error)

	// ReverseLookup suggests words matching a definition or concept.
	ReverseLookup(ctx context.Context, definition string) ([]string, error)
}
