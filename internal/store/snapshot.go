package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/phrazzld/vocab-trainer/internal/domain"
)

// Key layout
const (
	// SnapshotKey holds the last committed user state.
	SnapshotKey = "state:snapshot"
	// ProgressKeyPrefix prefixes one progress record per day, e.g.
	// "progress:2024-03-10".
	ProgressKeyPrefix = "progress:"
	// ContentKeyPrefix prefixes cached generated content.
	ContentKeyPrefix = "content:"
)

const dayLayout = "2006-01-02"

// Snapshot is the persisted copy of the user state.
type Snapshot struct {
	SavedAt time.Time        `json:"saved_at"`
	State   domain.UserState `json:"state"`
}

// DailyProgress is the progress summary recorded for one day.
type DailyProgress struct {
	Date       string `json:"date"`
	WordsTotal int    `json:"words_total"`
	Due        int    `json:"due"`
	domain.ProgressSnapshot
}

// SaveSnapshot writes the state and the progress record of its day in one
// atomic write.
func SaveSnapshot(ctx context.Context, kv KVStore, state domain.UserState, now time.Time) error {
	now = now.UTC()
	snapshot, err := json.Marshal(Snapshot{SavedAt: now, State: state})
	if err != nil {
		return NewOpError(OpEncode, SnapshotKey, "failed to encode snapshot", err)
	}

	day := now.Format(dayLayout)
	progress, err := json.Marshal(DailyProgress{
		Date:             day,
		WordsTotal:       len(state.Words),
		Due:              state.DueCount(now),
		ProgressSnapshot: state.Progress(),
	})
	if err != nil {
		return NewOpError(OpEncode, ProgressKeyPrefix+day, "failed to encode progress", err)
	}

	return kv.PutMany(ctx, []Entry{
		{Key: SnapshotKey, Value: snapshot},
		{Key: ProgressKeyPrefix + day, Value: progress},
	})
}

// LoadSnapshot reads the last saved state. It returns ErrSnapshotNotFound
// when nothing was saved.
func LoadSnapshot(ctx context.Context, kv KVStore) (Snapshot, error) {
	raw, err := kv.Get(ctx, SnapshotKey)
	if errors.Is(err, ErrNotFound) {
		return Snapshot{}, ErrSnapshotNotFound
	}
	if err != nil {
		return Snapshot{}, err
	}

	var s Snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return Snapshot{}, NewOpError(OpDecode, SnapshotKey, "failed to decode snapshot", err)
	}
	if err := s.State.Validate(); err != nil {
		return Snapshot{}, NewOpError(OpDecode, SnapshotKey, "stored snapshot is invalid", err)
	}
	return s, nil
}

// LoadDailyProgress returns the recorded progress, oldest day first.
func LoadDailyProgress(ctx context.Context, kv KVStore) ([]DailyProgress, error) {
	keys, err := kv.Keys(ctx, ProgressKeyPrefix)
	if err != nil {
		return nil, err
	}

	out := make([]DailyProgress, 0, len(keys))
	for _, key := range keys {
		raw, err := kv.Get(ctx, key)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		var p DailyProgress
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, NewOpError(OpDecode, key, "failed to decode progress", err)
		}
		if p.Date == "" {
			p.Date = strings.TrimPrefix(key, ProgressKeyPrefix)
		}
		out = append(out, p)
	}
	return out, nil
}

// ContentKey builds the cache key of a generated content item.
func ContentKey(parts ...string) string {
	norm := make([]string, len(parts))
	for i, p := range parts {
		norm[i] = strings.ToLower(strings.TrimSpace(p))
	}
	return fmt.Sprintf("%s%s", ContentKeyPrefix, strings.Join(norm, ":"))
}
