package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"kycportal/internal/notification/models"
	id "kycportal/pkg/domain"
	"kycportal/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *InMemory
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
}

func (s *MemoryStoreSuite) create(recipient id.UserID, message string, at time.Time) *models.Notification {
	n := &models.Notification{
		ID:        id.NotificationID(uuid.New()),
		Recipient: recipient,
		Message:   message,
		Audience:  models.AudienceInternal,
		CreatedAt: at,
	}
	s.Require().NoError(s.store.Create(context.Background(), n))
	return n
}

func (s *MemoryStoreSuite) TestListNewestFirst() {
	ctx := context.Background()
	recipient := id.UserID(uuid.New())
	base := time.Now().UTC()

	s.create(recipient, "older", base)
	s.create(recipient, "newer", base.Add(time.Minute))
	s.create(id.UserID(uuid.New()), "someone else's", base)

	list, err := s.store.ListByRecipient(ctx, recipient)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal("newer", list[0].Message)
	s.Equal("older", list[1].Message)
}

func (s *MemoryStoreSuite) TestUnreadTracking() {
	ctx := context.Background()
	recipient := id.UserID(uuid.New())
	n := s.create(recipient, "pending data", time.Now().UTC())

	has, err := s.store.HasUnread(ctx, recipient, "pending data")
	s.Require().NoError(err)
	s.True(has)

	count, err := s.store.UnreadCount(ctx, recipient)
	s.Require().NoError(err)
	s.Equal(1, count)

	s.Require().NoError(s.store.MarkRead(ctx, n.ID, recipient))

	has, err = s.store.HasUnread(ctx, recipient, "pending data")
	s.Require().NoError(err)
	s.False(has)

	count, err = s.store.UnreadCount(ctx, recipient)
	s.Require().NoError(err)
	s.Equal(0, count)
}

func (s *MemoryStoreSuite) TestMarkReadOwnership() {
	ctx := context.Background()
	recipient := id.UserID(uuid.New())
	n := s.create(recipient, "mine", time.Now().UTC())

	s.ErrorIs(s.store.MarkRead(ctx, n.ID, id.UserID(uuid.New())), sentinel.ErrNotFound)
	s.ErrorIs(s.store.MarkRead(ctx, id.NotificationID(uuid.New()), recipient), sentinel.ErrNotFound)
	s.NoError(s.store.MarkRead(ctx, n.ID, recipient))
}
