package progress

import (
	"fmt"
	"slices"
	"time"

	"github.com/phrazzld/vocab-trainer/internal/domain"
)

// Tx is a working copy of the state handed to Update callbacks. Changes made
// through a Tx become visible only when the callback returns nil.
type Tx struct {
	state domain.UserState
	now   time.Time
	dirty bool
}

// Now is the store clock reading taken when the transaction began.
func (tx *Tx) Now() time.Time {
	return tx.now
}

// Word returns a copy of the word with the given identifier.
func (tx *Tx) Word(id string) (domain.Word, bool) {
	if i := indexOf(tx.state.Words, id); i >= 0 {
		return tx.state.Words[i].Clone(), true
	}
	return domain.Word{}, false
}

// PutWord replaces an existing word, matched by identifier.
func (tx *Tx) PutWord(w domain.Word) error {
	i := indexOf(tx.state.Words, w.Word)
	if i < 0 {
		return fmt.Errorf("%w: %q", domain.ErrWordNotFound, w.Word)
	}
	tx.state.Words[i] = w.Clone()
	tx.dirty = true
	return nil
}

// AddWords appends words whose identifiers are not yet present and returns
// the ones that were added.
func (tx *Tx) AddWords(words ...domain.Word) []domain.Word {
	added := make([]domain.Word, 0, len(words))
	for _, w := range words {
		if indexOf(tx.state.Words, w.Word) >= 0 {
			continue
		}
		tx.state.Words = append(tx.state.Words, w.Clone())
		added = append(added, w.Clone())
	}
	if len(added) > 0 {
		tx.dirty = true
	}
	return added
}

// IsBookmarked reports whether id is bookmarked.
func (tx *Tx) IsBookmarked(id string) bool {
	return slices.Contains(tx.state.BookmarkedWords, id)
}

// SetBookmarked adds or removes id from the bookmark set.
func (tx *Tx) SetBookmarked(id string, on bool) {
	i := slices.Index(tx.state.BookmarkedWords, id)
	switch {
	case on && i < 0:
		tx.state.BookmarkedWords = append(tx.state.BookmarkedWords, id)
	case !on && i >= 0:
		tx.state.BookmarkedWords = slices.Delete(tx.state.BookmarkedWords, i, i+1)
	default:
		return
	}
	tx.dirty = true
}

// QuizStats returns the answer counters.
func (tx *Tx) QuizStats() domain.QuizStats {
	return tx.state.QuizStats
}

// AdjustQuizStats adds the deltas to the answer counters. Counters never go
// below zero.
func (tx *Tx) AdjustQuizStats(answered, correct int) {
	if answered == 0 && correct == 0 {
		return
	}
	tx.state.QuizStats.TotalAnswered = max(0, tx.state.QuizStats.TotalAnswered+answered)
	tx.state.QuizStats.TotalCorrect = max(0, tx.state.QuizStats.TotalCorrect+correct)
	tx.dirty = true
}

// History returns the stored practice history.
func (tx *Tx) History() []domain.PracticeSession {
	return slices.Clone(tx.state.PracticeHistory)
}

// SetHistory replaces the practice history.
func (tx *Tx) SetHistory(history []domain.PracticeSession) {
	tx.state.PracticeHistory = slices.Clone(history)
	if tx.state.PracticeHistory == nil {
		tx.state.PracticeHistory = []domain.PracticeSession{}
	}
	tx.dirty = true
}

// PrependSession adds session at the front of the history.
func (tx *Tx) PrependSession(session domain.PracticeSession) {
	tx.state.PracticeHistory = append([]domain.PracticeSession{session}, tx.state.PracticeHistory...)
	tx.dirty = true
}

// Settings returns the user's settings.
func (tx *Tx) Settings() domain.Settings {
	return tx.state.Settings
}

// SetSettings replaces the user's settings.
func (tx *Tx) SetSettings(settings domain.Settings) {
	if tx.state.Settings == settings {
		return
	}
	tx.state.Settings = settings
	tx.dirty = true
}

// FriendIDs returns the friend identifiers.
func (tx *Tx) FriendIDs() []int64 {
	return slices.Clone(tx.state.FriendIDs)
}

// SetFriendIDs replaces the friend set.
func (tx *Tx) SetFriendIDs(ids []int64) {
	tx.state.FriendIDs = slices.Clone(ids)
	if tx.state.FriendIDs == nil {
		tx.state.FriendIDs = []int64{}
	}
	tx.dirty = true
}
