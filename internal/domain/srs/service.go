package srs

import (
	"time"

	"github.com/phrazzld/vocab-trainer/internal/domain"
)

// Service defines the interface for SRS algorithm operations
type Service interface {
	// Schedule computes the record that follows current after a review of the
	// given quality (0..5). A nil current is treated as a word that has never
	// been rated. The returned record is always a new value.
	Schedule(current *domain.SrsRecord, quality int, now time.Time) (*domain.SrsRecord, error)

	// Params returns the parameters the service schedules with.
	Params() Params
}

// defaultService is the standard implementation of the Service interface
type defaultService struct {
	params *Params
}

// NewDefaultService creates a new SRS service with default parameters
func NewDefaultService() Service {
	return &defaultService{
		params: NewDefaultParams(),
	}
}

// NewServiceWithParams creates a new SRS service with custom parameters
func NewServiceWithParams(params *Params) Service {
	if params == nil {
		params = NewDefaultParams()
	}
	return &defaultService{
		params: params,
	}
}

// Schedule implements the Service interface
func (s *defaultService) Schedule(
	current *domain.SrsRecord,
	quality int,
	now time.Time,
) (*domain.SrsRecord, error) {
	if err := domain.ValidateQuality(quality); err != nil {
		return nil, err
	}

	return calculateNextRecord(current, quality, now, s.params), nil
}

// Params implements the Service interface
func (s *defaultService) Params() Params {
	return *s.params
}

// Schedule computes the next record with default parameters.
func Schedule(current *domain.SrsRecord, quality int, now time.Time) (*domain.SrsRecord, error) {
	return NewDefaultService().Schedule(current, quality, now)
}
