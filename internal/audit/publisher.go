package audit

import (
	"context"

	"github.com/google/uuid"

	"kycportal/pkg/requestcontext"
)

// Store is the append-only outbox the publisher writes to. Events stay in the
// outbox until the worker ships them to the broker.
type Store interface {
	Append(ctx context.Context, event Event) error
	NextBatch(ctx context.Context, limit int) ([]Event, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID) error
}

// Publisher captures structured audit events. It is append-only and uses the
// outbox for persistence so tests can swap sinks easily.
type Publisher struct {
	store Store
}

func NewPublisher(store Store) *Publisher {
	return &Publisher{store: store}
}

func (p *Publisher) Emit(ctx context.Context, base Event) error {
	if base.ID == uuid.Nil {
		base.ID = uuid.New()
	}
	if base.Timestamp.IsZero() {
		base.Timestamp = requestcontext.Now(ctx)
	}
	return p.store.Append(ctx, base)
}
