package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/phrazzld/vocab-trainer/internal/redact"
)

// InMemoryEventEmitter fans settled mutations out to registered handlers in
// registration order, synchronously on the emitting goroutine.
type InMemoryEventEmitter struct {
	mu       sync.RWMutex
	handlers []EventHandler
	logger   *slog.Logger
}

var _ EventEmitter = (*InMemoryEventEmitter)(nil)

// NewInMemoryEventEmitter creates an emitter without handlers.
func NewInMemoryEventEmitter(logger *slog.Logger) *InMemoryEventEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &InMemoryEventEmitter{
		logger: logger.With(slog.String("component", "mutation_events")),
	}
}

// RegisterHandler delivers every later event to handler.
func (e *InMemoryEventEmitter) RegisterHandler(handler EventHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = append(e.handlers, handler)
	e.logger.Debug("registered event handler", slog.Int("handler_count", len(e.handlers)))
}

// EmitEvent implements EventEmitter. A failing handler does not stop
// delivery to the others; all failures are joined into the returned error.
func (e *InMemoryEventEmitter) EmitEvent(ctx context.Context, event *MutationEvent) error {
	e.mu.RLock()
	handlers := make([]EventHandler, len(e.handlers))
	copy(handlers, e.handlers)
	e.mu.RUnlock()

	log := e.logger.With(
		slog.String("event_id", event.ID.String()),
		slog.String("mutation_kind", event.Kind),
		slog.String("outcome", string(event.Outcome)))

	var errs []error
	for i, h := range handlers {
		if err := h.HandleEvent(ctx, event); err != nil {
			log.ErrorContext(ctx, "event handler failed",
				slog.Int("handler_index", i),
				redact.ErrAttr(err))
			errs = append(errs, err)
		}
	}
	log.DebugContext(ctx, "event emitted",
		slog.Int("delivered", len(handlers)),
		slog.Int("failed", len(errs)))

	return errors.Join(errs...)
}
