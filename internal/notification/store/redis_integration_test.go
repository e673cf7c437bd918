//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"kycportal/internal/notification/models"
	"kycportal/internal/notification/store"
	id "kycportal/pkg/domain"
	"kycportal/pkg/platform/sentinel"
	"kycportal/pkg/testutil/containers"
)

type RedisNotificationSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *store.Redis
}

func TestRedisNotificationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisNotificationSuite))
}

func (s *RedisNotificationSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	s.store = store.NewRedis(s.redis.Client)
}

func (s *RedisNotificationSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisNotificationSuite) newNotification(recipient id.UserID, message string) *models.Notification {
	return &models.Notification{
		ID:        id.NotificationID(uuid.New()),
		Recipient: recipient,
		Message:   message,
		Audience:  models.AudienceInternal,
		CreatedAt: time.Now().UTC(),
	}
}

func (s *RedisNotificationSuite) TestCreateAndList() {
	ctx := context.Background()
	recipient := id.UserID(uuid.New())

	first := s.newNotification(recipient, "first")
	second := s.newNotification(recipient, "second")
	second.CreatedAt = first.CreatedAt.Add(time.Second)
	s.Require().NoError(s.store.Create(ctx, first))
	s.Require().NoError(s.store.Create(ctx, second))

	list, err := s.store.ListByRecipient(ctx, recipient)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal("second", list[0].Message, "newest first")

	count, err := s.store.UnreadCount(ctx, recipient)
	s.Require().NoError(err)
	s.Equal(2, count)
}

func (s *RedisNotificationSuite) TestUnreadDedupSet() {
	ctx := context.Background()
	recipient := id.UserID(uuid.New())
	message := "Complete the minimum requirements to proceed: CNPJ"

	has, err := s.store.HasUnread(ctx, recipient, message)
	s.Require().NoError(err)
	s.False(has)

	n := s.newNotification(recipient, message)
	s.Require().NoError(s.store.Create(ctx, n))

	has, err = s.store.HasUnread(ctx, recipient, message)
	s.Require().NoError(err)
	s.True(has)

	// Reading the notification frees the message for future delivery.
	s.Require().NoError(s.store.MarkRead(ctx, n.ID, recipient))

	has, err = s.store.HasUnread(ctx, recipient, message)
	s.Require().NoError(err)
	s.False(has)
}

// Two unread notifications can carry the same text. Reading one must not
// clear the unread marker while the other is still outstanding.
func (s *RedisNotificationSuite) TestDuplicateMessagesKeepUnreadMarker() {
	ctx := context.Background()
	recipient := id.UserID(uuid.New())
	message := "Finance rejected. Pending client action."

	first := s.newNotification(recipient, message)
	second := s.newNotification(recipient, message)
	s.Require().NoError(s.store.Create(ctx, first))
	s.Require().NoError(s.store.Create(ctx, second))

	s.Require().NoError(s.store.MarkRead(ctx, first.ID, recipient))

	has, err := s.store.HasUnread(ctx, recipient, message)
	s.Require().NoError(err)
	s.True(has, "second copy is still unread")

	s.Require().NoError(s.store.MarkRead(ctx, second.ID, recipient))

	has, err = s.store.HasUnread(ctx, recipient, message)
	s.Require().NoError(err)
	s.False(has)
}

func (s *RedisNotificationSuite) TestMarkReadOwnership() {
	ctx := context.Background()
	recipient := id.UserID(uuid.New())
	stranger := id.UserID(uuid.New())

	n := s.newNotification(recipient, "for recipient only")
	s.Require().NoError(s.store.Create(ctx, n))

	s.ErrorIs(s.store.MarkRead(ctx, n.ID, stranger), sentinel.ErrNotFound)
	s.NoError(s.store.MarkRead(ctx, n.ID, recipient))
}
