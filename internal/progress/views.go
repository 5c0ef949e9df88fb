package progress

import (
	"slices"
	"sort"

	"github.com/phrazzld/vocab-trainer/internal/domain"
)

// Word returns a copy of the word with the given identifier.
func (s *Store) Word(id string) (domain.Word, bool) {
	var (
		out   domain.Word
		found bool
	)
	s.read(func(state *domain.UserState) {
		if i := indexOf(state.Words, id); i >= 0 {
			out, found = state.Words[i].Clone(), true
		}
	})
	return out, found
}

// Words returns every word in insertion order.
func (s *Store) Words() []domain.Word {
	return s.filter(func(domain.Word) bool { return true })
}

// LearnedWords returns the words that have been rated at least once.
func (s *Store) LearnedWords() []domain.Word {
	return s.filter(domain.Word.IsLearned)
}

// WordsToLearn returns the words that have never been rated.
func (s *Store) WordsToLearn() []domain.Word {
	return s.filter(func(w domain.Word) bool { return !w.IsLearned() })
}

// WordsToReview returns the learned words whose next review is due now.
func (s *Store) WordsToReview() []domain.Word {
	now := s.now()
	return s.filter(func(w domain.Word) bool { return w.IsDue(now) })
}

// BookmarkedWords returns the bookmarked words in bookmark order.
func (s *Store) BookmarkedWords() []domain.Word {
	var out []domain.Word
	s.read(func(state *domain.UserState) {
		out = make([]domain.Word, 0, len(state.BookmarkedWords))
		for _, id := range state.BookmarkedWords {
			if i := indexOf(state.Words, id); i >= 0 {
				out = append(out, state.Words[i].Clone())
			}
		}
	})
	return out
}

// IsBookmarked reports whether id is bookmarked.
func (s *Store) IsBookmarked(id string) bool {
	var ok bool
	s.read(func(state *domain.UserState) {
		ok = slices.Contains(state.BookmarkedWords, id)
	})
	return ok
}

// QuizStats returns the answer counters.
func (s *Store) QuizStats() domain.QuizStats {
	var stats domain.QuizStats
	s.read(func(state *domain.UserState) { stats = state.QuizStats })
	return stats
}

// Progress returns the derived progress summary.
func (s *Store) Progress() domain.ProgressSnapshot {
	var snap domain.ProgressSnapshot
	s.read(func(state *domain.UserState) { snap = state.Progress() })
	return snap
}

// History returns the practice history, newest first.
func (s *Store) History() []domain.PracticeSession {
	var out []domain.PracticeSession
	s.read(func(state *domain.UserState) {
		out = slices.Clone(state.PracticeHistory)
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}

// Settings returns the user's settings.
func (s *Store) Settings() domain.Settings {
	var out domain.Settings
	s.read(func(state *domain.UserState) { out = state.Settings })
	return out
}

// FriendIDs returns the friend identifiers.
func (s *Store) FriendIDs() []int64 {
	var out []int64
	s.read(func(state *domain.UserState) { out = slices.Clone(state.FriendIDs) })
	return out
}

// IsFriend reports whether id is in the friend set.
func (s *Store) IsFriend(id int64) bool {
	var ok bool
	s.read(func(state *domain.UserState) { ok = slices.Contains(state.FriendIDs, id) })
	return ok
}

func (s *Store) filter(keep func(domain.Word) bool) []domain.Word {
	var out []domain.Word
	s.read(func(state *domain.UserState) {
		out = make([]domain.Word, 0, len(state.Words))
		for _, w := range state.Words {
			if keep(w) {
				out = append(out, w.Clone())
			}
		}
	})
	return out
}

func indexOf(words []domain.Word, id string) int {
	return slices.IndexFunc(words, func(w domain.Word) bool { return w.Word == id })
}
