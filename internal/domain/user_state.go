package domain

import (
	"fmt"
	"slices"
)

// QuizStats are the lifetime answer counters.
type QuizStats struct {
	TotalAnswered int `json:"total_answered"`
	TotalCorrect  int `json:"total_correct"`
}

// UserState is the full per-user state owned by the remote service and
// mirrored locally.
type UserState struct {
	Words           []Word            `json:"words"`
	BookmarkedWords []string          `json:"bookmarked_words"`
	QuizStats       QuizStats         `json:"quiz_stats"`
	Settings        Settings          `json:"settings"`
	FriendIDs       []int64           `json:"friend_ids"`
	PracticeHistory []PracticeSession `json:"practice_history"`
}

// NewUserState returns an empty state with default settings.
func NewUserState() UserState {
	return UserState{
		Words:           []Word{},
		BookmarkedWords: []string{},
		Settings:        DefaultSettings(),
		FriendIDs:       []int64{},
		PracticeHistory: []PracticeSession{},
	}
}

// Validate checks identifier uniqueness and the validity of every word.
func (s UserState) Validate() error {
	seen := make(map[string]struct{}, len(s.Words))
	for _, w := range s.Words {
		if _, dup := seen[w.Word]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateWord, w.Word)
		}
		seen[w.Word] = struct{}{}
		if err := w.Validate(); err != nil {
			return err
		}
	}
	if s.QuizStats.TotalCorrect > s.QuizStats.TotalAnswered {
		return fmt.Errorf("%w: more correct answers than answered", ErrValidation)
	}
	return nil
}

// Clone returns a deep copy of the state.
func (s UserState) Clone() UserState {
	return UserState{
		Words:           CloneWords(s.Words),
		BookmarkedWords: slices.Clone(s.BookmarkedWords),
		QuizStats:       s.QuizStats,
		Settings:        s.Settings,
		FriendIDs:       slices.Clone(s.FriendIDs),
		PracticeHistory: slices.Clone(s.PracticeHistory),
	}
}
