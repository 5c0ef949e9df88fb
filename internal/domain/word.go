package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Difficulty is the coarse difficulty tier of a word.
type Difficulty string

// Possible difficulty values
const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid reports whether d is a known difficulty tier.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	default:
		return false
	}
}

// Word is a vocabulary item. The Word field is the identifier and must be
// unique within a user's vocabulary.
type Word struct {
	Word          string     `json:"word"          yaml:"word"`
	Pronunciation string     `json:"pronunciation" yaml:"pronunciation"`
	Definition    string     `json:"definition"    yaml:"definition"`
	Example       string     `json:"example"       yaml:"example"`
	Synonyms      []string   `json:"synonyms"      yaml:"synonyms"`
	Difficulty    Difficulty `json:"difficulty"    yaml:"difficulty"`
	// Srs is nil until the word has been rated at least once.
	Srs *SrsRecord `json:"srs,omitempty" yaml:"-"`
}

// Validate checks that the content fields of a word are present.
func (w Word) Validate() error {
	if strings.TrimSpace(w.Word) == "" {
		return fmt.Errorf("%w: word identifier is empty", ErrValidation)
	}
	if strings.TrimSpace(w.Definition) == "" {
		return fmt.Errorf("%w: word %q has no definition", ErrValidation, w.Word)
	}
	if strings.TrimSpace(w.Example) == "" {
		return fmt.Errorf("%w: word %q has no example", ErrValidation, w.Word)
	}
	if w.Synonyms == nil {
		return fmt.Errorf("%w: word %q has no synonym list", ErrValidation, w.Word)
	}
	if w.Difficulty != "" && !w.Difficulty.Valid() {
		return fmt.Errorf("%w: word %q has difficulty %q", ErrValidation, w.Word, w.Difficulty)
	}
	if w.Srs != nil {
		if err := w.Srs.Validate(); err != nil {
			return fmt.Errorf("word %q: %w", w.Word, err)
		}
	}
	return nil
}

// IsLearned reports whether the word has been rated at least once.
func (w Word) IsLearned() bool {
	return w.Srs != nil
}

// IsDue reports whether a learned word's next review is at or before now.
func (w Word) IsDue(now time.Time) bool {
	return w.Srs != nil && !w.Srs.NextReview.After(now)
}

// Clone returns a deep copy of the word.
func (w Word) Clone() Word {
	c := w
	c.Synonyms = slices.Clone(w.Synonyms)
	if w.Srs != nil {
		rec := *w.Srs
		c.Srs = &rec
	}
	return c
}

// CloneWords deep-copies a slice of words.
func CloneWords(words []Word) []Word {
	if words == nil {
		return nil
	}
	out := make([]Word, len(words))
	for i, w := range words {
		out[i] = w.Clone()
	}
	return out
}
