package srs

import (
	"math"
	"time"

	"github.com/phrazzld/vocab-trainer/internal/domain"
)

// intervalEpsilon absorbs float noise so that e.g. 10 × 2.1 schedules 21 days, not 22.
const intervalEpsilon = 1e-9

// newRecord returns the implicit state of a word that has never been rated.
func newRecord(params *Params) domain.SrsRecord {
	return domain.SrsRecord{
		Interval:   params.FirstInterval,
		EaseFactor: params.InitialEaseFactor,
		Repetition: 0,
	}
}

// calculateNewEaseFactor determines the new ease factor after a review.
//
// Parameters:
//   - currentEF: The current ease factor of the word
//   - success: Whether the recall quality reached params.PassQuality
//   - params: Configuration parameters for the SRS algorithm
//
// Returns:
//   - The new ease factor, never below params.MinEaseFactor
//
// Algorithm behavior:
//   - Successful recalls add params.EaseFactorBonus (typically +0.1)
//   - Failed recalls subtract params.EaseFactorPenalty (typically -0.2)
//   - The result is not rounded, so a remote ease factor such as 2.505 becomes 2.605
func calculateNewEaseFactor(currentEF float64, success bool, params *Params) float64 {
	newEF := currentEF
	if success {
		newEF += params.EaseFactorBonus
	} else {
		newEF -= params.EaseFactorPenalty
	}

	if newEF < params.MinEaseFactor {
		newEF = params.MinEaseFactor
	}
	return newEF
}

// calculateNewInterval determines the number of days until the next review.
//
// Parameters:
//   - repetition: The repetition count after this review has been applied
//   - currentInterval: The interval before this review
//   - easeFactor: The ease factor before this review
//   - success: Whether the recall quality reached params.PassQuality
//   - params: Configuration parameters for the SRS algorithm
//
// Returns:
//   - The new interval in days, always at least 1
//
// Algorithm behavior:
//   - Failed recalls reset the interval to params.FirstInterval
//   - The first successful repetition schedules params.FirstInterval days
//   - The second schedules params.SecondInterval days
//   - Later repetitions multiply the previous interval by the ease factor and round up
//   - A successful recall never returns less than currentInterval
//   - params.MaxIntervalDays caps the growth but never shrinks an interval that
//     was already above the cap
func calculateNewInterval(
	repetition int,
	currentInterval int,
	easeFactor float64,
	success bool,
	params *Params,
) int {
	if !success {
		return params.FirstInterval
	}

	var interval int
	switch repetition {
	case 1:
		interval = params.FirstInterval
	case 2:
		interval = params.SecondInterval
	default:
		interval = int(math.Ceil(float64(currentInterval)*easeFactor - intervalEpsilon))
	}

	// A successful recall never shortens the interval.
	interval = max(interval, currentInterval)

	if params.MaxIntervalDays > 0 && interval > params.MaxIntervalDays {
		interval = max(params.MaxIntervalDays, currentInterval)
	}
	return max(interval, domain.MinInterval)
}

// calculateNextRecord produces the record that follows current after a review
// of the given quality.
//
// Parameters:
//   - current: The existing record, or nil for a word that has never been rated
//   - quality: Recall quality on the 0..5 scale
//   - now: The time of the review
//   - params: Configuration parameters for the SRS algorithm
//
// Returns:
//   - A new record; current is never modified
//
// Algorithm behavior:
//   - A nil record starts from repetition 0, the initial ease factor and interval 1
//   - Success increments the repetition count; failure resets it to 0
//   - The interval uses the ease factor from before the review
//   - LastReviewed is set to now and NextReview to now plus the interval in days
func calculateNextRecord(
	current *domain.SrsRecord,
	quality int,
	now time.Time,
	params *Params,
) *domain.SrsRecord {
	base := newRecord(params)
	if current != nil {
		base = *current
	}

	success := quality >= params.PassQuality

	repetition := 0
	if success {
		repetition = base.Repetition + 1
	}

	interval := calculateNewInterval(repetition, base.Interval, base.EaseFactor, success, params)

	return &domain.SrsRecord{
		LastReviewed: now,
		NextReview:   now.AddDate(0, 0, interval),
		Interval:     interval,
		EaseFactor:   calculateNewEaseFactor(base.EaseFactor, success, params),
		Repetition:   repetition,
	}
}
