package progress_sync

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/vocab-trainer/internal/domain"
	"github.com/phrazzld/vocab-trainer/internal/platform/logger"
	"github.com/phrazzld/vocab-trainer/internal/redact"
)

// Initialize loads the user state from the remote service and installs it
// in the store. A failure wraps domain.ErrInitialization and is the only
// coordinator error that callers should treat as fatal.
func (c *Coordinator) Initialize(ctx context.Context) error {
	log := logger.FromContextOrDefault(ctx, c.logger)

	rctx, cancel := context.WithTimeout(ctx, c.remoteTimeout)
	defer cancel()

	state, err := c.remote.GetUserState(rctx)
	if err != nil {
		log.Error("failed to load user state", redact.ErrAttr(err))
		return fmt.Errorf("%w: %w", domain.ErrInitialization, err)
	}
	if err := c.store.Replace(state); err != nil {
		log.Error("remote user state is invalid", redact.ErrAttr(err))
		return fmt.Errorf("%w: %w", domain.ErrInitialization, err)
	}

	log.Info("user state loaded",
		slog.Int("words", len(state.Words)),
		slog.Int("sessions", len(state.PracticeHistory)))
	return nil
}

// Refresh reloads the user state from the remote service. It reports whether
// the store was replaced. Nothing is replaced while a mutation is pending or
// when the store changed during the fetch, so an in-flight speculative value
// is never overwritten by an older remote view.
func (c *Coordinator) Refresh(ctx context.Context) (bool, error) {
	log := logger.FromContextOrDefault(ctx, c.logger)

	if !c.store.Ready() {
		return false, c.Initialize(ctx)
	}
	if n := c.Pending(); n > 0 {
		log.Debug("refresh skipped, mutations pending", slog.Int("pending", n))
		return false, nil
	}

	version := c.store.Version()

	rctx, cancel := context.WithTimeout(ctx, c.remoteTimeout)
	defer cancel()

	state, err := c.remote.GetUserState(rctx)
	if err != nil {
		log.Warn("failed to refresh user state", redact.ErrAttr(err))
		return false, fmt.Errorf("refresh user state: %w", err)
	}

	replaced, err := c.store.ReplaceIfVersion(version, state)
	if err != nil {
		log.Warn("remote user state is invalid", redact.ErrAttr(err))
		return false, fmt.Errorf("refresh user state: %w", err)
	}
	if !replaced {
		log.Debug("refresh discarded, local state changed during fetch")
		return false, nil
	}

	log.Debug("user state refreshed", slog.Int("words", len(state.Words)))
	return true, nil
}
