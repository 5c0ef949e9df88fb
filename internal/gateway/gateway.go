// Package gateway defines the contract with the remote service that owns a
// learner's state and with the content generator that produces new material.
//
// Implementations live under internal/platform (HTTP backend, Gemini) and
// internal/gateway/memgateway (in-process backend for offline use and tests).
package gateway

import (
	"context"
	"errors"

	"github.com/phrazzld/vocab-trainer/internal/domain"
)

// Common gateway errors
var (
	// ErrUnavailable is returned when the remote side cannot be reached or
	// answered with a server error.
	ErrUnavailable = errors.New("remote service unavailable")

	// ErrRejected is returned when the remote side refused a request.
	ErrRejected = errors.New("remote service rejected the request")

	// ErrMalformedResponse is returned when a response cannot be decoded.
	ErrMalformedResponse = errors.New("malformed response from remote service")
)

// StateGateway is the remote source of truth for the user state. Every
// method is a single request; implementations must not retry mutations.
type StateGateway interface {
	// GetUserState loads the complete state for the current user.
	GetUserState(ctx context.Context) (domain.UserState, error)

	// GenerateNewWords asks the service for count new words.
	GenerateNewWords(ctx context.Context, count int) ([]domain.Word, error)

	// RecordInteraction stores a review of the word and returns the word with
	// its authoritative SRS record.
	RecordInteraction(ctx context.Context, wordID string, quality int) (domain.Word, error)

	// ToggleBookmark flips the bookmark state of a word.
	ToggleBookmark(ctx context.Context, wordID string) error

	// AddPracticeSession records a finished session and returns the complete
	// authoritative history.
	AddPracticeSession(ctx context.Context, session domain.NewPracticeSession) ([]domain.PracticeSession, error)

	// ClearPracticeHistory deletes every recorded session.
	ClearPracticeHistory(ctx context.Context) error

	// UpdateSettings replaces the user's settings.
	UpdateSettings(ctx context.Context, settings domain.Settings) error

	// UpdateFriends replaces the friend set.
	UpdateFriends(ctx context.Context, friendIDs []int64) error
}

// ContentGateway produces generated learning material.
type ContentGateway interface {
	// GenerateQuiz returns one multiple-choice question per word.
	GenerateQuiz(ctx context.Context, words []domain.Word) ([]domain.QuizQuestion, error)

	// GenerateSynonymPair returns a swipe-game prompt.
	GenerateSynonymPair(ctx context.Context) (domain.SynonymPair, error)

	// WordOfTheDay returns an interesting word.
	WordOfTheDay(ctx context.Context) (domain.Word, error)

	// Quote returns a short quotation about language.
	Quote(ctx context.Context) (domain.Quote, error)

	// LookupWord returns dictionary details for word. found is false when
	// the word is not a valid English word.
	LookupWord(ctx context.Context, word string) (w domain.Word, found bool, err error)

	// ReverseLookup suggests words matching a definition or concept.
	ReverseLookup(ctx context.Context, definition string) ([]string, error)
}

// RemoteGateway is everything the client needs from the remote side.
type RemoteGateway interface {
	StateGateway
	ContentGateway
}

// Compose joins a state backend and a content generator into one gateway.
func Compose(state StateGateway, content ContentGateway) RemoteGateway {
	return composite{StateGateway: state, ContentGateway: content}
}

type composite struct {
	StateGateway
	ContentGateway
}
