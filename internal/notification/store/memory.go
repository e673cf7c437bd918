package store

import (
	"context"
	"sort"
	"sync"

	"kycportal/internal/notification/models"
	id "kycportal/pkg/domain"
	"kycportal/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded notification store for development and tests.
type InMemory struct {
	mu            sync.RWMutex
	notifications map[id.NotificationID]*models.Notification
}

func NewInMemory() *InMemory {
	return &InMemory{notifications: make(map[id.NotificationID]*models.Notification)}
}

func (s *InMemory) Create(ctx context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.notifications[n.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *n
	s.notifications[n.ID] = &cp
	return nil
}

// ListByRecipient returns the recipient's notifications, newest first.
func (s *InMemory) ListByRecipient(ctx context.Context, recipient id.UserID) ([]*models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Notification
	for _, n := range s.notifications {
		if n.Recipient == recipient {
			cp := *n
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// MarkRead flips the read flag on the recipient's own notification.
func (s *InMemory) MarkRead(ctx context.Context, notificationID id.NotificationID, recipient id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[notificationID]
	if !ok || n.Recipient != recipient {
		return sentinel.ErrNotFound
	}
	n.IsRead = true
	return nil
}

// HasUnread reports whether the recipient already has an unread notification
// with exactly this message text.
func (s *InMemory) HasUnread(ctx context.Context, recipient id.UserID, message string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, n := range s.notifications {
		if n.Recipient == recipient && !n.IsRead && n.Message == message {
			return true, nil
		}
	}
	return false, nil
}

func (s *InMemory) UnreadCount(ctx context.Context, recipient id.UserID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, n := range s.notifications {
		if n.Recipient == recipient && !n.IsRead {
			count++
		}
	}
	return count, nil
}
