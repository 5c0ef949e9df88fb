package domain

import (
	"fmt"
	"slices"
	"strings"
)

// QuizQuestion is a multiple-choice question about a single word.
type QuizQuestion struct {
	Word          string   `json:"word"`
	Definition    string   `json:"definition"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
}

// Validate checks that the question can be answered.
func (q QuizQuestion) Validate() error {
	if strings.TrimSpace(q.Word) == "" || strings.TrimSpace(q.Definition) == "" {
		return fmt.Errorf("%w: question is missing its word or prompt", ErrValidation)
	}
	if len(q.Options) < 2 {
		return fmt.Errorf("%w: question for %q has %d options", ErrValidation, q.Word, len(q.Options))
	}
	if !slices.Contains(q.Options, q.CorrectAnswer) {
		return fmt.Errorf("%w: correct answer %q is not among the options", ErrValidation, q.CorrectAnswer)
	}
	return nil
}

// SynonymPair is a swipe-game prompt: two words that are or are not synonyms.
type SynonymPair struct {
	Word1       string `json:"word1"`
	Word2       string `json:"word2"`
	AreSynonyms bool   `json:"are_synonyms"`
}

// Validate checks that both words are present and distinct.
func (p SynonymPair) Validate() error {
	if strings.TrimSpace(p.Word1) == "" || strings.TrimSpace(p.Word2) == "" {
		return fmt.Errorf("%w: synonym pair is missing a word", ErrValidation)
	}
	if strings.EqualFold(p.Word1, p.Word2) {
		return fmt.Errorf("%w: synonym pair repeats %q", ErrValidation, p.Word1)
	}
	return nil
}

// Quote is a short quotation about language.
type Quote struct {
	Quote  string `json:"quote"`
	Author string `json:"author"`
}

// Validate checks that both fields are present.
func (q Quote) Validate() error {
	if strings.TrimSpace(q.Quote) == "" || strings.TrimSpace(q.Author) == "" {
		return fmt.Errorf("%w: quote is incomplete", ErrValidation)
	}
	return nil
}
