package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidQuality is returned when a recall quality is outside 0..5.
	ErrInvalidQuality = errors.New("quality must be between 0 and 5")

	// ErrInvalidGameType is returned when a practice mode is not recognised.
	ErrInvalidGameType = errors.New("invalid game type")

	// ErrInvalidTheme is returned when a theme name is not recognised.
	ErrInvalidTheme = errors.New("invalid theme")

	// ErrDuplicateWord is returned when a word identifier is already present.
	ErrDuplicateWord = errors.New("word already exists")

	// ErrWordNotFound is returned when a word identifier is unknown.
	ErrWordNotFound = errors.New("word not found")

	// ErrNotEnoughContent is returned when a session cannot be assembled
	// because there are no candidate words.
	ErrNotEnoughContent = errors.New("not enough words for a session")
)

// Failure categories surfaced by the synchronization and content layers.
// Only ErrInitialization is fatal; every other category is recovered locally.
var (
	// ErrContentUnavailable means the content generator failed or timed out.
	// Callers degrade to cached or fallback content.
	ErrContentUnavailable = errors.New("content unavailable")

	// ErrValidationFailure means generated content was structurally invalid.
	// Callers substitute a safe default.
	ErrValidationFailure = errors.New("generated content failed validation")

	// ErrSyncFailure means a remote mutation failed and the speculative
	// change was rolled back.
	ErrSyncFailure = errors.New("sync failure")

	// ErrInitialization means the initial user state could not be loaded.
	ErrInitialization = errors.New("failed to load user data")
)

// SyncError describes a remote mutation that was rolled back.
type SyncError struct {
	// Operation is the remote operation that failed, e.g. "record_interaction".
	Operation string
	// Key is the entity key whose mutation was rolled back.
	Key string
	// Err is the underlying gateway error.
	Err error
}

// Error implements the error interface.
func (e *SyncError) Error() string {
	return fmt.Sprintf("%s %s (%s): %v", ErrSyncFailure, e.Operation, e.Key, e.Err)
}

// Unwrap exposes both the category and the cause to errors.Is.
func (e *SyncError) Unwrap() []error {
	return []error{ErrSyncFailure, e.Err}
}

// NewSyncError wraps a gateway failure as a SyncFailure.
func NewSyncError(operation, key string, err error) *SyncError {
	return &SyncError{Operation: operation, Key: key, Err: err}
}

// ContentError describes a content generation failure.
type ContentError struct {
	// Operation is the generator operation, e.g. "generate_quiz".
	Operation string
	// Category is ErrContentUnavailable or ErrValidationFailure.
	Category error
	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *ContentError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Operation, e.Category)
	}
	return fmt.Sprintf("%s: %s: %v", e.Operation, e.Category, e.Err)
}

// Unwrap exposes both the category and the cause to errors.Is.
func (e *ContentError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Category}
	}
	return []error{e.Category, e.Err}
}

// NewContentUnavailable wraps a generator failure.
func NewContentUnavailable(operation string, err error) *ContentError {
	return &ContentError{Operation: operation, Category: ErrContentUnavailable, Err: err}
}

// NewValidationFailure wraps a malformed generator response.
func NewValidationFailure(operation string, err error) *ContentError {
	return &ContentError{Operation: operation, Category: ErrValidationFailure, Err: err}
}
