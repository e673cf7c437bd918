package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"kycportal/internal/notification/models"
	id "kycportal/pkg/domain"
	"kycportal/pkg/platform/sentinel"
)

// Postgres persists notifications in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Create(ctx context.Context, n *models.Notification) error {
	query := `
		INSERT INTO notifications (id, recipient, message, url, is_read, audience, thread_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(n.ID), uuid.UUID(n.Recipient), n.Message, n.URL,
		n.IsRead, string(n.Audience), nullThreadID(n.ThreadID), n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

func (s *Postgres) ListByRecipient(ctx context.Context, recipient id.UserID) ([]*models.Notification, error) {
	query := `
		SELECT id, recipient, message, url, is_read, audience, thread_id, created_at
		FROM notifications
		WHERE recipient = $1
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(recipient))
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []*models.Notification
	for rows.Next() {
		var (
			n          models.Notification
			notifU     uuid.UUID
			recipientU uuid.UUID
			audience   string
			threadU    uuid.NullUUID
		)
		if err := rows.Scan(&notifU, &recipientU, &n.Message, &n.URL, &n.IsRead, &audience, &threadU, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.ID = id.NotificationID(notifU)
		n.Recipient = id.UserID(recipientU)
		n.Audience = models.Audience(audience)
		if threadU.Valid {
			n.ThreadID = id.ThreadID(threadU.UUID)
		}
		out = append(out, &n)
	}
	return out, rows.Err()
}

func (s *Postgres) MarkRead(ctx context.Context, notificationID id.NotificationID, recipient id.UserID) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = $1 AND recipient = $2`,
		uuid.UUID(notificationID), uuid.UUID(recipient))
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) HasUnread(ctx context.Context, recipient id.UserID, message string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM notifications
			WHERE recipient = $1 AND message = $2 AND is_read = FALSE
		)`, uuid.UUID(recipient), message).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check unread notification: %w", err)
	}
	return exists, nil
}

func (s *Postgres) UnreadCount(ctx context.Context, recipient id.UserID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE recipient = $1 AND is_read = FALSE`,
		uuid.UUID(recipient)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

func nullThreadID(threadID id.ThreadID) uuid.NullUUID {
	return uuid.NullUUID{UUID: uuid.UUID(threadID), Valid: !threadID.IsNil()}
}
