package audit

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

// =============================================================================
// Outbox Worker Test Suite
// =============================================================================

type fakeSink struct {
	published []Event
	failAfter int // fail every publish once this many succeeded; <0 never fails
}

func (f *fakeSink) Publish(_ context.Context, event Event) error {
	if f.failAfter >= 0 && len(f.published) >= f.failAfter {
		return errors.New("broker unavailable")
	}
	f.published = append(f.published, event)
	return nil
}

type WorkerSuite struct {
	suite.Suite
	outbox *MemoryOutbox
	sink   *fakeSink
	worker *Worker
}

func TestWorkerSuite(t *testing.T) {
	suite.Run(t, new(WorkerSuite))
}

func (s *WorkerSuite) SetupTest() {
	s.outbox = NewMemoryOutbox()
	s.sink = &fakeSink{failAfter: -1}
	s.worker = NewWorker(s.outbox, s.sink, slog.Default())
}

func (s *WorkerSuite) emit(n int) {
	publisher := NewPublisher(s.outbox)
	for i := 0; i < n; i++ {
		err := publisher.Emit(context.Background(), Event{
			CompanyID: uuid.NewString(),
			Action:    ActionComplianceDecision,
			Decision:  "approve",
		})
		s.Require().NoError(err)
	}
}

func (s *WorkerSuite) TestEmitFillsIDAndTimestamp() {
	s.emit(1)

	batch, err := s.outbox.NextBatch(context.Background(), 10)
	s.Require().NoError(err)
	s.Require().Len(batch, 1)
	s.NotEqual(uuid.Nil, batch[0].ID)
	s.False(batch[0].Timestamp.IsZero())
}

func (s *WorkerSuite) TestDrainPublishesAndMarks() {
	s.emit(3)

	s.Require().NoError(s.worker.Drain(context.Background()))

	s.Len(s.sink.published, 3)
	s.Equal(0, s.outbox.Pending())
}

func (s *WorkerSuite) TestDrainStopsAtFirstFailure() {
	s.emit(3)
	s.sink.failAfter = 1

	s.Require().NoError(s.worker.Drain(context.Background()))

	// One shipped, two stay queued for the next pass.
	s.Len(s.sink.published, 1)
	s.Equal(2, s.outbox.Pending())

	// Broker back up: the rest drain in order.
	s.sink.failAfter = -1
	s.Require().NoError(s.worker.Drain(context.Background()))
	s.Len(s.sink.published, 3)
	s.Equal(0, s.outbox.Pending())
}

func (s *WorkerSuite) TestDrainOnEmptyOutboxIsNoop() {
	s.NoError(s.worker.Drain(context.Background()))
	s.Empty(s.sink.published)
}

// A cancelled context means clean shutdown, so Run must not surface it as an
// error and turn graceful stops into non-zero exits.
func (s *WorkerSuite) TestRunReturnsNilOnShutdown() {
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.worker.Run(ctx) }()

	cancel()
	s.NoError(<-done)
}
