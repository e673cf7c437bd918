package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"kycportal/internal/notification/metrics"
	"kycportal/internal/notification/models"
	id "kycportal/pkg/domain"
	dErrors "kycportal/pkg/domain-errors"
	"kycportal/pkg/platform/sentinel"
	"kycportal/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,Directory

// Store is the persistence port for notifications.
type Store interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByRecipient(ctx context.Context, recipient id.UserID) ([]*models.Notification, error)
	MarkRead(ctx context.Context, notificationID id.NotificationID, recipient id.UserID) error
	HasUnread(ctx context.Context, recipient id.UserID, message string) (bool, error)
	UnreadCount(ctx context.Context, recipient id.UserID) (int, error)
}

// Directory resolves role membership and internal/client classification.
type Directory interface {
	MembersOf(ctx context.Context, role string) ([]id.UserID, error)
	IsInternal(ctx context.Context, userID id.UserID) (bool, error)
}

// Service is the notification dispatcher. All notification emission in the
// portal goes through it so the workflow engine stays a pure state machine.
type Service struct {
	store     Store
	directory Directory
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(store Store, directory Directory, opts ...Option) *Service {
	s := &Service{store: store, directory: directory, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Notify creates one unread notification for the recipient. The audience tag
// is derived from the directory's internal/client classification. The URL and
// thread reference are optional.
func (s *Service) Notify(ctx context.Context, recipient id.UserID, message, url string, threadID id.ThreadID) error {
	if recipient.IsNil() {
		return nil
	}
	if message == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "notification message cannot be empty")
	}

	audience := models.AudienceInternal
	internal, err := s.directory.IsInternal(ctx, recipient)
	if err != nil {
		s.logger.WarnContext(ctx, "audience classification failed, defaulting to internal",
			"recipient", recipient,
			"error", err,
		)
	} else if !internal {
		audience = models.AudienceClient
	}

	n := &models.Notification{
		ID:        id.NotificationID(uuid.New()),
		Recipient: recipient,
		Message:   message,
		URL:       url,
		Audience:  audience,
		ThreadID:  threadID,
		CreatedAt: requestcontext.Now(ctx),
	}
	if err := s.store.Create(ctx, n); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create notification")
	}
	s.incrementCreated()
	return nil
}

// NotifyDedup creates the notification only if the recipient has no unread
// notification with exactly the same message text.
func (s *Service) NotifyDedup(ctx context.Context, recipient id.UserID, message, url string, threadID id.ThreadID) error {
	if recipient.IsNil() {
		return nil
	}
	exists, err := s.store.HasUnread(ctx, recipient, message)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check unread notifications")
	}
	if exists {
		if s.metrics != nil {
			s.metrics.Deduplicated.Inc()
		}
		return nil
	}
	return s.Notify(ctx, recipient, message, url, threadID)
}

// NotifyGroup fans one notification out to every member of the role group.
// A missing or empty group is silently skipped so compliance-critical
// transitions never fail because of a notification problem; per-member
// failures are logged and do not stop the rest of the fan-out.
func (s *Service) NotifyGroup(ctx context.Context, role, message, url string, threadID id.ThreadID) error {
	members, err := s.directory.MembersOf(ctx, role)
	if err != nil || len(members) == 0 {
		if err != nil {
			s.logger.WarnContext(ctx, "group lookup failed, skipping notification fan-out",
				"role", role,
				"error", err,
			)
		}
		if s.metrics != nil {
			s.metrics.GroupSkipped.Inc()
		}
		return nil
	}

	var g errgroup.Group
	g.SetLimit(8)
	for _, member := range members {
		recipient := member
		g.Go(func() error {
			if err := s.Notify(ctx, recipient, message, url, threadID); err != nil {
				s.logger.ErrorContext(ctx, "group notification failed",
					"role", role,
					"recipient", recipient,
					"error", err,
				)
			}
			// Per-member failures never abort the fan-out.
			return nil
		})
	}
	return g.Wait()
}

// List returns the caller's notifications, newest first.
func (s *Service) List(ctx context.Context, recipient id.UserID) ([]*models.Notification, error) {
	out, err := s.store.ListByRecipient(ctx, recipient)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list notifications")
	}
	return out, nil
}

// MarkRead flips the read flag on the caller's own notification.
func (s *Service) MarkRead(ctx context.Context, notificationID id.NotificationID, recipient id.UserID) error {
	if err := s.store.MarkRead(ctx, notificationID, recipient); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "notification not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to mark notification read")
	}
	return nil
}

// UnreadCount returns how many unread notifications the caller has.
func (s *Service) UnreadCount(ctx context.Context, recipient id.UserID) (int, error) {
	count, err := s.store.UnreadCount(ctx, recipient)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count unread notifications")
	}
	return count, nil
}

func (s *Service) incrementCreated() {
	if s.metrics != nil {
		s.metrics.Created.Inc()
	}
}
