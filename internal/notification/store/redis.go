package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/redis/go-redis/v9"

	"kycportal/internal/notification/models"
	id "kycportal/pkg/domain"
	"kycportal/pkg/platform/sentinel"
)

const (
	// Per-recipient hash of notification-id -> JSON payload.
	notifKeyPrefix = "notif:user:"
	// Per-recipient hash of unread message text -> count, used for
	// exact-match dedup without scanning the whole payload hash. A count is
	// kept because the same text can be unread more than once at a time.
	unreadKeyPrefix = "notif:unread:"
)

// Redis is a Redis-backed notification store for deployments where multiple
// instances share notification state without a relational database.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func notifKey(recipient id.UserID) string  { return notifKeyPrefix + recipient.String() }
func unreadKey(recipient id.UserID) string { return unreadKeyPrefix + recipient.String() }

func (s *Redis) Create(ctx context.Context, n *models.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, notifKey(n.Recipient), n.ID.String(), payload)
	if !n.IsRead {
		pipe.HIncrBy(ctx, unreadKey(n.Recipient), n.Message, 1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store notification: %w", err)
	}
	return nil
}

func (s *Redis) ListByRecipient(ctx context.Context, recipient id.UserID) ([]*models.Notification, error) {
	raw, err := s.client.HGetAll(ctx, notifKey(recipient)).Result()
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}

	out := make([]*models.Notification, 0, len(raw))
	for _, payload := range raw {
		var n models.Notification
		if err := json.Unmarshal([]byte(payload), &n); err != nil {
			return nil, fmt.Errorf("decode notification: %w", err)
		}
		out = append(out, &n)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Redis) MarkRead(ctx context.Context, notificationID id.NotificationID, recipient id.UserID) error {
	key := notifKey(recipient)
	payload, err := s.client.HGet(ctx, key, notificationID.String()).Result()
	if errors.Is(err, redis.Nil) {
		return sentinel.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load notification: %w", err)
	}

	var n models.Notification
	if err := json.Unmarshal([]byte(payload), &n); err != nil {
		return fmt.Errorf("decode notification: %w", err)
	}
	if n.IsRead {
		return nil
	}
	n.IsRead = true

	updated, err := json.Marshal(&n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, notificationID.String(), updated)
	remaining := pipe.HIncrBy(ctx, unreadKey(recipient), n.Message, -1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if remaining.Val() <= 0 {
		if err := s.client.HDel(ctx, unreadKey(recipient), n.Message).Err(); err != nil {
			return fmt.Errorf("clear unread marker: %w", err)
		}
	}
	return nil
}

func (s *Redis) HasUnread(ctx context.Context, recipient id.UserID, message string) (bool, error) {
	raw, err := s.client.HGet(ctx, unreadKey(recipient), message).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check unread notification: %w", err)
	}
	count, err := strconv.Atoi(raw)
	if err != nil {
		return false, fmt.Errorf("decode unread marker: %w", err)
	}
	return count > 0, nil
}

func (s *Redis) UnreadCount(ctx context.Context, recipient id.UserID) (int, error) {
	all, err := s.ListByRecipient(ctx, recipient)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, n := range all {
		if !n.IsRead {
			count++
		}
	}
	return count, nil
}
