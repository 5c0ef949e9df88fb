package domain

import (
	"fmt"
	"time"
)

// SM-2 bounds shared by the scheduler and record validation.
const (
	MinEaseFactor     = 1.3
	DefaultEaseFactor = 2.5
	MinInterval       = 1
)

// SrsRecord is the spaced-repetition state of a single word.
type SrsRecord struct {
	LastReviewed time.Time `json:"last_reviewed"`
	NextReview   time.Time `json:"next_review"`
	Interval     int       `json:"interval"`    // Days between LastReviewed and NextReview
	EaseFactor   float64   `json:"ease_factor"` // Never below MinEaseFactor
	Repetition   int       `json:"repetition"`  // Consecutive successful reviews
}

// Validate checks the record invariants.
func (r SrsRecord) Validate() error {
	if r.Interval < MinInterval {
		return fmt.Errorf("%w: interval %d is below %d", ErrValidation, r.Interval, MinInterval)
	}
	if r.EaseFactor < MinEaseFactor {
		return fmt.Errorf("%w: ease factor %.2f is below %.2f", ErrValidation, r.EaseFactor, MinEaseFactor)
	}
	if r.Repetition < 0 {
		return fmt.Errorf("%w: repetition %d is negative", ErrValidation, r.Repetition)
	}
	if !r.NextReview.Equal(r.LastReviewed.AddDate(0, 0, r.Interval)) {
		return fmt.Errorf("%w: next review does not match last review plus interval", ErrValidation)
	}
	return nil
}
