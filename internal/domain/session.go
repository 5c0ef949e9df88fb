package domain

import (
	"fmt"
	"time"
)

// GameType identifies a practice mode.
type GameType string

// Supported practice modes
const (
	GameQuiz         GameType = "Quiz"
	GameSynonymSwipe GameType = "Synonym Swipe"
	GameWordScramble GameType = "Word Scramble"
	GameSpellingBee  GameType = "Spelling Bee"
	GameWordle       GameType = "Wordle"
	GameFlashcards   GameType = "Flashcards"
)

// Valid reports whether g is a known practice mode.
func (g GameType) Valid() bool {
	switch g {
	case GameQuiz, GameSynonymSwipe, GameWordScramble, GameSpellingBee, GameWordle, GameFlashcards:
		return true
	default:
		return false
	}
}

// PracticeSession is a completed practice run. Sessions are append-only and
// carry an identifier assigned by the remote service.
type PracticeSession struct {
	ID    string    `json:"id"`
	Type  GameType  `json:"type"`
	Score int       `json:"score"`
	Total int       `json:"total"`
	Date  time.Time `json:"date"`
}

// NewPracticeSession holds the client-provided fields of a session about to
// be recorded.
type NewPracticeSession struct {
	Type  GameType `json:"type"  validate:"required"`
	Score int      `json:"score" validate:"gte=0"`
	Total int      `json:"total" validate:"gte=0"`
}

// Validate checks the score bounds and the game type.
func (s NewPracticeSession) Validate() error {
	if !s.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidGameType, s.Type)
	}
	if s.Score < 0 || s.Total < 0 {
		return fmt.Errorf("%w: score and total must be non-negative", ErrValidation)
	}
	if s.Score > s.Total {
		return fmt.Errorf("%w: score %d exceeds total %d", ErrValidation, s.Score, s.Total)
	}
	return nil
}
