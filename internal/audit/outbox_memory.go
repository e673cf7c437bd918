package audit

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryOutbox is a mutex-guarded outbox for development and tests.
type MemoryOutbox struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryOutbox() *MemoryOutbox {
	return &MemoryOutbox{}
}

func (o *MemoryOutbox) Append(ctx context.Context, event Event) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.events = append(o.events, event)
	return nil
}

func (o *MemoryOutbox) NextBatch(ctx context.Context, limit int) ([]Event, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if limit > len(o.events) {
		limit = len(o.events)
	}
	batch := make([]Event, limit)
	copy(batch, o.events[:limit])
	return batch, nil
}

func (o *MemoryOutbox) MarkPublished(ctx context.Context, ids []uuid.UUID) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	published := make(map[uuid.UUID]bool, len(ids))
	for _, eventID := range ids {
		published[eventID] = true
	}
	remaining := o.events[:0]
	for _, e := range o.events {
		if !published[e.ID] {
			remaining = append(remaining, e)
		}
	}
	o.events = remaining
	return nil
}

// Pending returns how many events await publishing. Test helper.
func (o *MemoryOutbox) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.events)
}
