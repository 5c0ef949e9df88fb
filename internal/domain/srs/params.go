package srs

import "github.com/phrazzld/vocab-trainer/internal/domain"

// Params defines all configurable parameters for the SRS algorithm
type Params struct {
	// Core limits
	MinEaseFactor     float64
	InitialEaseFactor float64

	// Ease factor adjustments for successful and failed recalls
	EaseFactorBonus   float64
	EaseFactorPenalty float64

	// Fixed intervals for the first two successful repetitions
	FirstInterval  int
	SecondInterval int

	// Lowest quality that counts as a successful recall
	PassQuality int

	// Upper bound on a computed interval in days; 0 disables the cap
	MaxIntervalDays int
}

// ParamsConfig allows overriding the default parameters when creating a new Params instance
type ParamsConfig struct {
	MinEaseFactor     float64
	InitialEaseFactor float64
	EaseFactorBonus   float64
	EaseFactorPenalty float64
	FirstInterval     int
	SecondInterval    int

	// MaxIntervalDays overrides the cap when positive. Use DisableIntervalCap
	// to remove the cap entirely.
	MaxIntervalDays    int
	DisableIntervalCap bool
}

// NewDefaultParams creates a new Params instance with default values
func NewDefaultParams() *Params {
	return &Params{
		MinEaseFactor:     domain.MinEaseFactor,
		InitialEaseFactor: domain.DefaultEaseFactor,

		EaseFactorBonus:   0.1,
		EaseFactorPenalty: 0.2,

		FirstInterval:  1,
		SecondInterval: 6,

		PassQuality: domain.QualityPass,

		// One year, matching common SM-2 deployments
		MaxIntervalDays: 365,
	}
}

// NewParams creates a new Params instance with custom configuration
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if config.MinEaseFactor > 0 {
		params.MinEaseFactor = config.MinEaseFactor
	}
	if config.InitialEaseFactor > 0 {
		params.InitialEaseFactor = config.InitialEaseFactor
	}
	if config.EaseFactorBonus > 0 {
		params.EaseFactorBonus = config.EaseFactorBonus
	}
	if config.EaseFactorPenalty > 0 {
		params.EaseFactorPenalty = config.EaseFactorPenalty
	}
	if config.FirstInterval > 0 {
		params.FirstInterval = config.FirstInterval
	}
	if config.SecondInterval > 0 {
		params.SecondInterval = config.SecondInterval
	}

	switch {
	case config.DisableIntervalCap:
		params.MaxIntervalDays = 0
	case config.MaxIntervalDays > 0:
		params.MaxIntervalDays = config.MaxIntervalDays
	}

	return params
}
