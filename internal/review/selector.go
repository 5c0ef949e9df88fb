// Package review assembles the word lists used by practice sessions.
package review

import (
	"math/rand/v2"
	"sync"

	"github.com/phrazzld/vocab-trainer/internal/domain"
)

// Selector picks session candidates, preferring words that are due.
//
// The zero value is not usable; construct with NewSelector.
type Selector struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSelector creates a Selector backed by src. A nil src uses a randomly
// seeded PCG source.
func NewSelector(src rand.Source) *Selector {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &Selector{rng: rand.New(src)}
}

// SelectForSession returns up to desired words for a practice session.
//
// Fill order:
//  1. every due word, in the given order, up to desired
//  2. learned words not yet selected, uniformly shuffled
//  3. any remaining words from all, uniformly shuffled
//
// The result never contains the same identifier twice and is empty when no
// candidates exist.
func (s *Selector) SelectForSession(all, due, learned []domain.Word, desired int) []domain.Word {
	if desired <= 0 {
		return []domain.Word{}
	}

	selected := make([]domain.Word, 0, desired)
	seen := make(map[string]struct{}, desired)

	take := func(words []domain.Word) {
		for _, w := range words {
			if len(selected) == desired {
				return
			}
			if _, ok := seen[w.Word]; ok {
				continue
			}
			seen[w.Word] = struct{}{}
			selected = append(selected, w.Clone())
		}
	}

	take(due)
	if len(selected) < desired {
		take(s.shuffled(unseen(learned, seen)))
	}
	if len(selected) < desired {
		take(s.shuffled(unseen(all, seen)))
	}

	return selected
}

// Shuffle returns a uniformly shuffled copy of words.
func (s *Selector) Shuffle(words []domain.Word) []domain.Word {
	return s.shuffled(domain.CloneWords(words))
}

// shuffled permutes words in place with Fisher–Yates and returns it.
func (s *Selector) shuffled(words []domain.Word) []domain.Word {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(words) - 1; i > 0; i-- {
		j := s.rng.IntN(i + 1)
		words[i], words[j] = words[j], words[i]
	}
	return words
}

func unseen(words []domain.Word, seen map[string]struct{}) []domain.Word {
	out := make([]domain.Word, 0, len(words))
	for _, w := range words {
		if _, ok := seen[w.Word]; !ok {
			out = append(out, w)
		}
	}
	return out
}
