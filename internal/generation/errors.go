package generation

import (
	"errors"

	"github.com/phrazzld/vocab-trainer/internal/domain"
)

// Failure categories reported by a Source.
var (
	// ErrInvalidResponse marks an answer that could not be decoded or failed
	// validation. Retrying the same prompt is not expected to help.
	ErrInvalidResponse = errors.New("invalid response from language model")

	// ErrContentBlocked marks a prompt refused by the model's safety filters.
	ErrContentBlocked = errors.New("content blocked by language model safety filters")

	// ErrTransientFailure marks transport errors, rate limits and timeouts.
	ErrTransientFailure = errors.New("transient error during content generation")

	// ErrInvalidConfig is returned for an unusable generator setup or a
	// malformed built-in catalogue.
	ErrInvalidConfig = errors.New("invalid generator configuration")
)

// Retryable reports whether another attempt at the same request may succeed.
// Blocked and malformed answers are final.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrContentBlocked) && !errors.Is(err, ErrInvalidResponse)
}

// Classify maps a Source failure onto the content error taxonomy: malformed
// answers become a ValidationFailure, everything else ContentUnavailable.
func Classify(operation string, err error) *domain.ContentError {
	if errors.Is(err, ErrInvalidResponse) {
		return domain.NewValidationFailure(operation, err)
	}
	return domain.NewContentUnavailable(operation, err)
}
