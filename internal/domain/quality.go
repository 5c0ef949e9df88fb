package domain

import "fmt"

// Recall quality bounds on the SM-2 scale.
const (
	QualityMin = 0
	QualityMax = 5
	// QualityPass is the lowest quality counted as a successful recall.
	QualityPass = 3
)

// Rating is a self-assessed flashcard grade.
type Rating string

// Flashcard ratings
const (
	RatingHard Rating = "hard"
	RatingGood Rating = "good"
	RatingEasy Rating = "easy"
)

// ValidateQuality checks that q is on the 0..5 scale.
func ValidateQuality(q int) error {
	if q < QualityMin || q > QualityMax {
		return fmt.Errorf("%w: got %d", ErrInvalidQuality, q)
	}
	return nil
}

// IsSuccess reports whether q counts as a correct answer.
func IsSuccess(q int) bool {
	return q >= QualityPass
}

// QualityFor maps a practice-mode outcome to a recall quality.
// Word Scramble grades a miss 1 rather than 0 and Wordle grades a solve 5.
func QualityFor(game GameType, correct bool) (int, error) {
	switch game {
	case GameQuiz, GameSpellingBee, GameSynonymSwipe, GameFlashcards:
		return binaryQuality(correct), nil
	case GameWordScramble:
		if correct {
			return 4, nil
		}
		return 1, nil
	case GameWordle:
		if correct {
			return 5, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidGameType, game)
	}
}

// RatingQuality maps a flashcard rating to a recall quality.
func RatingQuality(r Rating) (int, error) {
	switch r {
	case RatingHard:
		return 2, nil
	case RatingGood:
		return 4, nil
	case RatingEasy:
		return 5, nil
	default:
		return 0, fmt.Errorf("%w: unknown rating %q", ErrValidation, r)
	}
}

func binaryQuality(correct bool) int {
	if correct {
		return 4
	}
	return 0
}
