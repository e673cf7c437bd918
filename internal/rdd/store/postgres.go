package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"kycportal/internal/rdd/models"
	id "kycportal/pkg/domain"
	"kycportal/pkg/platform/sentinel"
)

const threadColumns = `id, company_id, created_by, subject, status, created_at, updated_at, last_message_at`

// Postgres persists RDD threads and messages in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) CreateThread(ctx context.Context, t *models.Thread) error {
	query := `
		INSERT INTO rdd_threads (` + threadColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(t.ID), uuid.UUID(t.CompanyID), uuid.UUID(t.CreatedBy),
		t.Subject, string(t.Status), t.CreatedAt, t.UpdatedAt, t.LastMessageAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code.Name() {
			case "unique_violation":
				return sentinel.ErrConflict
			case "foreign_key_violation":
				return sentinel.ErrNotFound
			}
		}
		return fmt.Errorf("create rdd thread: %w", err)
	}
	return nil
}

func (s *Postgres) UpdateThread(ctx context.Context, t *models.Thread) error {
	query := `
		UPDATE rdd_threads
		SET status = $2, updated_at = $3, last_message_at = $4
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		uuid.UUID(t.ID), string(t.Status), t.UpdatedAt, t.LastMessageAt)
	if err != nil {
		return fmt.Errorf("update rdd thread: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update rdd thread: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) FindThread(ctx context.Context, threadID id.ThreadID) (*models.Thread, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+threadColumns+` FROM rdd_threads WHERE id = $1`, uuid.UUID(threadID))
	return scanThread(row)
}

func (s *Postgres) ListThreads(ctx context.Context) ([]*models.Thread, error) {
	return s.listThreads(ctx,
		`SELECT `+threadColumns+` FROM rdd_threads ORDER BY last_message_at DESC`)
}

func (s *Postgres) ListThreadsByCreator(ctx context.Context, creator id.UserID) ([]*models.Thread, error) {
	return s.listThreads(ctx,
		`SELECT `+threadColumns+` FROM rdd_threads WHERE created_by = $1 ORDER BY last_message_at DESC`,
		uuid.UUID(creator))
}

func (s *Postgres) listThreads(ctx context.Context, query string, args ...any) ([]*models.Thread, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list rdd threads: %w", err)
	}
	defer rows.Close()

	var out []*models.Thread
	for rows.Next() {
		t, err := scanThread(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Postgres) AppendMessage(ctx context.Context, m *models.Message) error {
	query := `
		INSERT INTO rdd_messages (id, thread_id, author_id, body, internal, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(m.ID), uuid.UUID(m.ThreadID), uuid.UUID(m.AuthorID),
		m.Body, m.Internal, m.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation" {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("append rdd message: %w", err)
	}
	return nil
}

func (s *Postgres) ListMessages(ctx context.Context, threadID id.ThreadID) ([]*models.Message, error) {
	query := `
		SELECT id, thread_id, author_id, body, internal, created_at
		FROM rdd_messages
		WHERE thread_id = $1
		ORDER BY created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(threadID))
	if err != nil {
		return nil, fmt.Errorf("list rdd messages: %w", err)
	}
	defer rows.Close()

	var out []*models.Message
	for rows.Next() {
		var (
			m       models.Message
			msgU    uuid.UUID
			threadU uuid.UUID
			authorU uuid.UUID
		)
		if err := rows.Scan(&msgU, &threadU, &authorU, &m.Body, &m.Internal, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan rdd message: %w", err)
		}
		m.ID = id.MessageID(msgU)
		m.ThreadID = id.ThreadID(threadU)
		m.AuthorID = id.UserID(authorU)
		out = append(out, &m)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanThread(row rowScanner) (*models.Thread, error) {
	var (
		t        models.Thread
		threadU  uuid.UUID
		companyU uuid.UUID
		userU    uuid.UUID
		status   string
	)
	err := row.Scan(&threadU, &companyU, &userU, &t.Subject, &status,
		&t.CreatedAt, &t.UpdatedAt, &t.LastMessageAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan rdd thread: %w", err)
	}
	t.ID = id.ThreadID(threadU)
	t.CompanyID = id.CompanyID(companyU)
	t.CreatedBy = id.UserID(userU)
	t.Status = models.ThreadStatus(status)
	return &t, nil
}
