package audit

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Sink is where the worker ships outbox events. The Kafka sink implements it;
// tests substitute an in-process recorder.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// Worker drains the outbox to the sink. Delivery is at-least-once: an event
// is only marked published after the sink accepted it, so a crash between
// publish and mark re-sends on the next pass.
type Worker struct {
	store    Store
	sink     Sink
	logger   *slog.Logger
	interval time.Duration
	batch    int
}

func NewWorker(store Store, sink Sink, logger *slog.Logger) *Worker {
	return &Worker{
		store:    store,
		sink:     sink,
		logger:   logger,
		interval: 2 * time.Second,
		batch:    100,
	}
}

func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Shutdown is not a failure.
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			if err := w.Drain(ctx); err != nil {
				w.logger.ErrorContext(ctx, "audit outbox drain failed", "error", err)
			}
		}
	}
}

// Drain publishes one batch from the outbox. Exported for tests and for a
// final flush during shutdown.
func (w *Worker) Drain(ctx context.Context) error {
	batch, err := w.store.NextBatch(ctx, w.batch)
	if err != nil {
		return err
	}
	if len(batch) == 0 {
		return nil
	}

	published := make([]uuid.UUID, 0, len(batch))
	for _, event := range batch {
		if err := w.sink.Publish(ctx, event); err != nil {
			// Stop at the first failure to preserve per-company ordering.
			w.logger.WarnContext(ctx, "audit publish failed, batch stalled",
				"event_id", event.ID,
				"action", event.Action,
				"error", err,
			)
			break
		}
		published = append(published, event.ID)
	}
	if len(published) == 0 {
		return nil
	}
	return w.store.MarkPublished(ctx, published)
}
