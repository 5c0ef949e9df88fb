package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/vocab-trainer/internal/api/middleware"
	"github.com/phrazzld/vocab-trainer/internal/api/shared"
	"github.com/phrazzld/vocab-trainer/internal/domain"
	"github.com/phrazzld/vocab-trainer/internal/service/practice"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrInitialization):
		return http.StatusServiceUnavailable

	case errors.Is(err, domain.ErrWordNotFound):
		return http.StatusNotFound

	case errors.Is(err, domain.ErrNotEnoughContent):
		return http.StatusUnprocessableEntity

	// Rolled back mutations and unusable generated content
	case errors.Is(err, domain.ErrSyncFailure),
		errors.Is(err, domain.ErrValidationFailure):
		return http.StatusBadGateway

	case errors.Is(err, domain.ErrContentUnavailable):
		return http.StatusServiceUnavailable

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidQuality),
		errors.Is(err, domain.ErrInvalidGameType),
		errors.Is(err, domain.ErrInvalidTheme),
		errors.Is(err, domain.ErrDuplicateWord),
		errors.Is(err, practice.ErrInvalidAnswer),
		errors.Is(err, shared.ErrEmptyBody):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a user-facing message for err.
func GetSafeErrorMessage(err error) string {
	switch {
	case err == nil:
		return "An unexpected error occurred"
	case errors.Is(err, domain.ErrInitialization):
		return middleware.MsgNotReady
	case errors.Is(err, domain.ErrWordNotFound):
		return "Word not found"
	case errors.Is(err, domain.ErrNotEnoughContent):
		return "Not enough words for a session"
	case errors.Is(err, domain.ErrSyncFailure):
		return "The change could not be saved and was reverted"
	case errors.Is(err, domain.ErrValidationFailure):
		return "Generated content was invalid"
	case errors.Is(err, domain.ErrContentUnavailable):
		return "Content is temporarily unavailable"
	case errors.Is(err, domain.ErrInvalidQuality):
		return "Quality must be between 0 and 5"
	case errors.Is(err, domain.ErrInvalidGameType):
		return "Invalid game type"
	case errors.Is(err, domain.ErrInvalidTheme):
		return "Invalid theme"
	case errors.Is(err, domain.ErrDuplicateWord):
		return "Word already exists"
	case errors.Is(err, practice.ErrInvalidAnswer):
		return "Invalid answer"
	case errors.Is(err, shared.ErrEmptyBody):
		return "Request body is required"
	case errors.Is(err, domain.ErrValidation):
		return "Invalid request"
	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError turns validator errors into a short message naming
// the first offending field.
func SanitizeValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Validation error"
	}
	fe := verrs[0]
	return "Invalid " + strings.ToLower(fe.Field()) + ": " + getValidationTagMessage(fe.Tag())
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min", "gte", "gt":
		return "too small"
	case "max", "lte", "lt":
		return "too large"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}

// respondError answers with the status and message derived from err.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}
	shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
}
