package mocks

import (
	"context"

	"github.com/phrazzld/vocab-trainer/internal/domain"
	"github.com/phrazzld/vocab-trainer/internal/generation"
)

// MockSource implements generation.Source for testing. A method whose
// function field is nil returns Err and zero content.
type MockSource struct {
	GenerateWordsFn       func(ctx context.Context, count int) ([]domain.Word, error)
	GenerateQuestionFn    func(ctx context.Context, word domain.Word) (domain.QuizQuestion, error)
	GenerateSynonymPairFn func(ctx context.Context) (domain.SynonymPair, error)
	WordOfTheDayFn        func(ctx context.Context) (domain.Word, error)
	QuoteFn               func(ctx context.Context) (domain.Quote, error)
	LookupWordFn          func(ctx context.Context, word string) (domain.Word, bool, error)
	ReverseLookupFn       func(ctx context.Context, definition string) ([]string, error)

	// Err is returned by methods without a function field.
	Err error

	Calls Calls
}

var _ generation.Source = (*MockSource)(nil)

// NewMockSourceWithError creates a MockSource on which every call fails with err.
func NewMockSourceWithError(err error) *MockSource {
	return &MockSource{Err: err}
}

// GenerateWords implements generation.Source.
func (m *MockSource) GenerateWords(ctx context.Context, count int) ([]domain.Word, error) {
	m.Calls.record("GenerateWords")
	if m.GenerateWordsFn != nil {
		return m.GenerateWordsFn(ctx, count)
	}
	return nil, m.Err
}

// GenerateQuestion implements generation.Source.
func (m *MockSource) GenerateQuestion(ctx context.Context, word domain.Word) (domain.QuizQuestion, error) {
	m.Calls.record("GenerateQuestion")
	if m.GenerateQuestionFn != nil {
		return m.GenerateQuestionFn(ctx, word)
	}
	return domain.QuizQuestion{}, m.Err
}

// GenerateSynonymPair implements generation.Source.
func (m *MockSource) GenerateSynonymPair(ctx context.Context) (domain.SynonymPair, error) {
	m.Calls.record("GenerateSynonymPair")
	if m.GenerateSynonymPairFn != nil {
		return m.GenerateSynonymPairFn(ctx)
	}
	return domain.SynonymPair{}, m.Err
}

// WordOfTheDay implements generation.Source.
func (m *MockSource) WordOfTheDay(ctx context.Context) (domain.Word, error) {
	m.Calls.record("WordOfTheDay")
	if m.WordOfTheDayFn != nil {
		return m.WordOfTheDayFn(ctx)
	}
	return domain.Word{}, m.Err
}

// Quote implements generation.Source.
func (m *MockSource) Quote(ctx context.Context) (domain.Quote, error) {
	m.Calls.record("Quote")
	if m.QuoteFn != nil {
		return m.QuoteFn(ctx)
	}
	return domain.Quote{}, m.Err
}

// LookupWord implements generation.Source.
func (m *MockSource) LookupWord(ctx context.Context, word string) (domain.Word, bool, error) {
	m.Calls.record("LookupWord")
	if m.LookupWordFn != nil {
		return m.LookupWordFn(ctx, word)
	}
	return domain.Word{}, false, m.Err
}

// ReverseLookup implements generation.Source.
func (m *MockSource) ReverseLookup(ctx context.Context, definition string) ([]string, error) {
	m.Calls.record("ReverseLookup")
	if m.ReverseLookupFn != nil {
		return m.ReverseLookupFn(ctx, definition)
	}
	return nil, m.Err
}
