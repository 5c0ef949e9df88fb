package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/phrazzld/vocab-trainer/internal/progress"
	"github.com/phrazzld/vocab-trainer/internal/store"
)

// Job names
const (
	JobRefresh = "refresh"
	JobDigest  = "digest"
	JobPurge   = "purge"
)

// Refresher reloads the authoritative state. It reports whether the local
// state was replaced.
type Refresher interface {
	Refresh(ctx context.Context) (bool, error)
}

// Purger deletes expired cache entries.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// RefreshJob pulls the remote state every interval. onReplaced runs after
// the local state was replaced, e.g. to persist it.
func RefreshJob(r Refresher, interval time.Duration, onReplaced func(ctx context.Context) error) Job {
	return Job{
		Name:     JobRefresh,
		Interval: interval,
		Run: func(ctx context.Context) error {
			replaced, err := r.Refresh(ctx)
			if err != nil || !replaced || onReplaced == nil {
				return err
			}
			return onReplaced(ctx)
		},
	}
}

// Digest summarises the learner's standing at one moment.
type Digest struct {
	Due          int
	ToLearn      int
	WordsLearned int
	Accuracy     int
	Rank         string
}

// NewDigest reads a Digest from the store.
func NewDigest(r progress.Reader) Digest {
	p := r.Progress()
	return Digest{
		Due:          len(r.WordsToReview()),
		ToLearn:      len(r.WordsToLearn()),
		WordsLearned: p.WordsLearned,
		Accuracy:     p.Accuracy,
		Rank:         p.Rank.Name,
	}
}

// DigestJob logs how many reviews are due and saves the state with today's
// progress record to kv. It does nothing until the state is loaded.
func DigestJob(r progress.Reader, kv store.KVStore, interval time.Duration, now func() time.Time, logger *slog.Logger) Job {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return Job{
		Name:     JobDigest,
		Interval: interval,
		Run: func(ctx context.Context) error {
			if !r.Ready() {
				return nil
			}
			d := NewDigest(r)
			logger.InfoContext(ctx, "review digest",
				slog.Int("due", d.Due),
				slog.Int("to_learn", d.ToLearn),
				slog.Int("words_learned", d.WordsLearned),
				slog.Int("accuracy", d.Accuracy),
				slog.String("rank", d.Rank))
			return store.SaveSnapshot(ctx, kv, r.State(), now())
		},
	}
}

// PurgeJob removes expired cache entries every interval.
func PurgeJob(p Purger, interval time.Duration, logger *slog.Logger) Job {
	if logger == nil {
		logger = slog.Default()
	}
	return Job{
		Name:     JobPurge,
		Interval: interval,
		Run: func(ctx context.Context) error {
			n, err := p.PurgeExpired(ctx)
			if err != nil {
				return err
			}
			if n > 0 {
				logger.InfoContext(ctx, "expired cache entries purged", slog.Int64("count", n))
			}
			return nil
		},
	}
}
