package progress_sync

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/vocab-trainer/internal/domain"
	"github.com/phrazzld/vocab-trainer/internal/progress"
)

// ProvisionalSessionPrefix marks practice sessions that have not yet been
// confirmed by the remote service.
const ProvisionalSessionPrefix = "pending-"

// interactionSnapshot is what RecordInteraction must restore on failure.
type interactionSnapshot struct {
	word    domain.Word
	correct int
}

// RecordInteraction schedules the next review of a word after a review of
// the given quality. The word's record and the quiz counters change at once;
// the remote service's record replaces the local one when it answers.
func (c *Coordinator) RecordInteraction(
	ctx context.Context,
	wordID string,
	quality int,
) (domain.Word, Result, error) {
	if err := domain.ValidateQuality(quality); err != nil {
		return domain.Word{}, Result{}, err
	}

	st := step[interactionSnapshot, domain.Word]{
		kind:    KindRecordInteraction,
		key:     WordKey(wordID),
		payload: map[string]any{"word": wordID, "quality": quality},
		apply: func(tx *progress.Tx) (interactionSnapshot, error) {
			prev, ok := tx.Word(wordID)
			if !ok {
				return interactionSnapshot{}, fmt.Errorf("%w: %q", domain.ErrWordNotFound, wordID)
			}
			record, err := c.srs.Schedule(prev.Srs, quality, tx.Now())
			if err != nil {
				return interactionSnapshot{}, err
			}

			speculative := prev.Clone()
			speculative.Srs = record
			if err := tx.PutWord(speculative); err != nil {
				return interactionSnapshot{}, err
			}

			snap := interactionSnapshot{word: prev}
			if domain.IsSuccess(quality) {
				snap.correct = 1
			}
			tx.AdjustQuizStats(1, snap.correct)
			return snap, nil
		},
		remote: func(ctx context.Context) (domain.Word, error) {
			return c.remote.RecordInteraction(ctx, wordID, quality)
		},
		commit: func(tx *progress.Tx, _ interactionSnapshot, authoritative domain.Word) error {
			if authoritative.Word != wordID {
				return fmt.Errorf("remote returned word %q for %q", authoritative.Word, wordID)
			}
			return tx.PutWord(authoritative)
		},
		rollback: func(tx *progress.Tx, snap interactionSnapshot) error {
			if err := tx.PutWord(snap.word); err != nil {
				return err
			}
			// Inverse delta: counters may have moved since for other words.
			tx.AdjustQuizStats(-1, -snap.correct)
			return nil
		},
	}

	word, result, err := execute(ctx, c, st)
	if err != nil {
		return domain.Word{}, result, err
	}
	return word, result, nil
}

// ToggleBookmark flips the bookmark flag of a word and returns the new flag.
func (c *Coordinator) ToggleBookmark(ctx context.Context, wordID string) (bool, Result, error) {
	var bookmarked bool
	st := step[bool, struct{}]{
		kind:    KindToggleBookmark,
		key:     BookmarkKey(wordID),
		payload: map[string]any{"word": wordID},
		apply: func(tx *progress.Tx) (bool, error) {
			if _, ok := tx.Word(wordID); !ok {
				return false, fmt.Errorf("%w: %q", domain.ErrWordNotFound, wordID)
			}
			was := tx.IsBookmarked(wordID)
			bookmarked = !was
			tx.SetBookmarked(wordID, bookmarked)
			return was, nil
		},
		remote: func(ctx context.Context) (struct{}, error) {
			return struct{}{}, c.remote.ToggleBookmark(ctx, wordID)
		},
		rollback: func(tx *progress.Tx, was bool) error {
			tx.SetBookmarked(wordID, was)
			return nil
		},
	}

	_, result, err := execute(ctx, c, st)
	if err != nil {
		return c.store.IsBookmarked(wordID), result, err
	}
	return bookmarked, result, nil
}

// AddPracticeSession records a finished practice session. A provisional
// entry appears at the top of the history at once; the history returned by
// the remote service replaces it.
func (c *Coordinator) AddPracticeSession(
	ctx context.Context,
	session domain.NewPracticeSession,
) (Result, error) {
	if err := session.Validate(); err != nil {
		return Result{}, err
	}

	st := step[[]domain.PracticeSession, []domain.PracticeSession]{
		kind: KindAddPracticeSession,
		key:  KeyHistory,
		payload: map[string]any{
			"type":  session.Type,
			"score": session.Score,
			"total": session.Total,
		},
		apply: func(tx *progress.Tx) ([]domain.PracticeSession, error) {
			prev := tx.History()
			tx.PrependSession(domain.PracticeSession{
				ID:    ProvisionalSessionPrefix + uuid.NewString(),
				Type:  session.Type,
				Score: session.Score,
				Total: session.Total,
				Date:  tx.Now(),
			})
			return prev, nil
		},
		remote: func(ctx context.Context) ([]domain.PracticeSession, error) {
			return c.remote.AddPracticeSession(ctx, session)
		},
		commit: func(tx *progress.Tx, _ []domain.PracticeSession, history []domain.PracticeSession) error {
			tx.SetHistory(history)
			return nil
		},
		rollback: func(tx *progress.Tx, prev []domain.PracticeSession) error {
			tx.SetHistory(prev)
			return nil
		},
	}

	_, result, err := execute(ctx, c, st)
	return result, err
}

// ClearPracticeHistory deletes every recorded practice session.
func (c *Coordinator) ClearPracticeHistory(ctx context.Context) (Result, error) {
	st := step[[]domain.PracticeSession, struct{}]{
		kind: KindClearPracticeHistory,
		key:  KeyHistory,
		apply: func(tx *progress.Tx) ([]domain.PracticeSession, error) {
			prev := tx.History()
			tx.SetHistory(nil)
			return prev, nil
		},
		remote: func(ctx context.Context) (struct{}, error) {
			return struct{}{}, c.remote.ClearPracticeHistory(ctx)
		},
		rollback: func(tx *progress.Tx, prev []domain.PracticeSession) error {
			tx.SetHistory(prev)
			return nil
		},
	}

	_, result, err := execute(ctx, c, st)
	return result, err
}

// UpdateSettings replaces the user's settings.
func (c *Coordinator) UpdateSettings(ctx context.Context, settings domain.Settings) (Result, error) {
	return c.modifySettings(ctx, func(domain.Settings) domain.Settings { return settings })
}

// SetTheme changes only the theme.
func (c *Coordinator) SetTheme(ctx context.Context, theme domain.Theme) (Result, error) {
	return c.modifySettings(ctx, func(s domain.Settings) domain.Settings {
		s.Theme = theme
		return s
	})
}

// SetUserName changes only the display name.
func (c *Coordinator) SetUserName(ctx context.Context, name string) (Result, error) {
	name = strings.TrimSpace(name)
	return c.modifySettings(ctx, func(s domain.Settings) domain.Settings {
		s.UserName = name
		return s
	})
}

// modifySettings derives the new settings from the current ones inside the
// serialized section so concurrent partial updates compose.
func (c *Coordinator) modifySettings(
	ctx context.Context,
	modify func(domain.Settings) domain.Settings,
) (Result, error) {
	var next domain.Settings
	st := step[domain.Settings, struct{}]{
		kind: KindUpdateSettings,
		key:  KeySettings,
		apply: func(tx *progress.Tx) (domain.Settings, error) {
			prev := tx.Settings()
			next = modify(prev)
			if err := next.Validate(); err != nil {
				return prev, err
			}
			if next == prev {
				return prev, errNoop
			}
			tx.SetSettings(next)
			return prev, nil
		},
		remote: func(ctx context.Context) (struct{}, error) {
			return struct{}{}, c.remote.UpdateSettings(ctx, next)
		},
		rollback: func(tx *progress.Tx, prev domain.Settings) error {
			tx.SetSettings(prev)
			return nil
		},
	}
	st.payload = &next

	_, result, err := execute(ctx, c, st)
	return result, err
}

// UpdateFriends replaces the friend set. Duplicates are dropped.
func (c *Coordinator) UpdateFriends(ctx context.Context, friendIDs []int64) (Result, error) {
	return c.modifyFriends(ctx, func([]int64) []int64 { return friendIDs })
}

// AddFriend adds id to the friend set. Adding a current friend is a no-op.
func (c *Coordinator) AddFriend(ctx context.Context, id int64) (Result, error) {
	return c.modifyFriends(ctx, func(cur []int64) []int64 {
		return append(cur, id)
	})
}

// RemoveFriend removes id from the friend set. Removing a stranger is a no-op.
func (c *Coordinator) RemoveFriend(ctx context.Context, id int64) (Result, error) {
	return c.modifyFriends(ctx, func(cur []int64) []int64 {
		return slices.DeleteFunc(cur, func(v int64) bool { return v == id })
	})
}

// modifyFriends computes the new friend set from the current one inside the
// serialized section.
func (c *Coordinator) modifyFriends(ctx context.Context, modify func([]int64) []int64) (Result, error) {
	var next []int64
	st := step[[]int64, struct{}]{
		kind: KindUpdateFriends,
		key:  KeyFriends,
		apply: func(tx *progress.Tx) ([]int64, error) {
			prev := tx.FriendIDs()
			var err error
			next, err = normalizeFriendIDs(modify(slices.Clone(prev)))
			if err != nil {
				return prev, err
			}
			if slices.Equal(next, prev) {
				return prev, errNoop
			}
			tx.SetFriendIDs(next)
			return prev, nil
		},
		remote: func(ctx context.Context) (struct{}, error) {
			return struct{}{}, c.remote.UpdateFriends(ctx, next)
		},
		rollback: func(tx *progress.Tx, prev []int64) error {
			tx.SetFriendIDs(prev)
			return nil
		},
	}
	st.payload = &next

	_, result, err := execute(ctx, c, st)
	return result, err
}

// normalizeFriendIDs drops duplicates, keeping first occurrences in order.
func normalizeFriendIDs(ids []int64) ([]int64, error) {
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			return nil, fmt.Errorf("%w: friend id must be positive, got %d", domain.ErrValidation, id)
		}
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out, nil
}

// FetchNewWords asks the remote service for new words and appends the ones
// not already in the vocabulary. A count of zero or less requests the
// configured batch size. Nothing is shown speculatively; a failure is
// reported as content unavailability.
func (c *Coordinator) FetchNewWords(ctx context.Context, count int) ([]domain.Word, Result, error) {
	if count <= 0 {
		count = c.newWordsBatch
	}

	var added []domain.Word
	st := step[struct{}, []domain.Word]{
		kind:    KindFetchNewWords,
		key:     KeyWords,
		payload: map[string]any{"count": count},
		apply: func(*progress.Tx) (struct{}, error) {
			return struct{}{}, nil
		},
		remote: func(ctx context.Context) ([]domain.Word, error) {
			return c.remote.GenerateNewWords(ctx, count)
		},
		commit: func(tx *progress.Tx, _ struct{}, words []domain.Word) error {
			valid := make([]domain.Word, 0, len(words))
			for _, w := range words {
				if w.Validate() == nil {
					valid = append(valid, w)
				}
			}
			added = tx.AddWords(valid...)
			return nil
		},
		rollback: func(*progress.Tx, struct{}) error {
			return nil
		},
		classify: func(err error) error {
			return domain.NewContentUnavailable(string(KindFetchNewWords), err)
		},
	}

	_, result, err := execute(ctx, c, st)
	if err != nil {
		return nil, result, err
	}
	return added, result, nil
}
