package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PostgresOutbox persists audit events in an outbox table so workflow
// transitions and their audit trail commit through the same database.
type PostgresOutbox struct {
	db *sql.DB
}

func NewPostgresOutbox(db *sql.DB) *PostgresOutbox {
	return &PostgresOutbox{db: db}
}

func (o *PostgresOutbox) Append(ctx context.Context, event Event) error {
	// System-originated events carry no actor; the column is nullable so an
	// empty actor maps to NULL rather than an invalid uuid literal.
	actor, err := nullActor(event.ActorID)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}

	query := `
		INSERT INTO audit_outbox (id, occurred_at, actor_id, company_id, action, decision, details)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := o.db.ExecContext(ctx, query,
		event.ID, event.Timestamp, actor, event.CompanyID,
		event.Action, event.Decision, event.Details,
	); err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (o *PostgresOutbox) NextBatch(ctx context.Context, limit int) ([]Event, error) {
	query := `
		SELECT id, occurred_at, actor_id, company_id, action, decision, details
		FROM audit_outbox
		WHERE published_at IS NULL
		ORDER BY occurred_at
		LIMIT $1
	`
	rows, err := o.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("read audit outbox: %w", err)
	}
	defer rows.Close()

	var batch []Event
	for rows.Next() {
		var (
			e     Event
			actor uuid.NullUUID
		)
		if err := rows.Scan(&e.ID, &e.Timestamp, &actor, &e.CompanyID, &e.Action, &e.Decision, &e.Details); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		if actor.Valid {
			e.ActorID = actor.UUID.String()
		}
		batch = append(batch, e)
	}
	return batch, rows.Err()
}

func nullActor(actorID string) (uuid.NullUUID, error) {
	if actorID == "" {
		return uuid.NullUUID{}, nil
	}
	u, err := uuid.Parse(actorID)
	if err != nil {
		return uuid.NullUUID{}, fmt.Errorf("parse actor id %q: %w", actorID, err)
	}
	return uuid.NullUUID{UUID: u, Valid: true}, nil
}

func (o *PostgresOutbox) MarkPublished(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	raw := make([]uuid.UUID, len(ids))
	copy(raw, ids)
	_, err := o.db.ExecContext(ctx,
		`UPDATE audit_outbox SET published_at = now() WHERE id = ANY($1)`,
		pq.Array(raw))
	if err != nil {
		return fmt.Errorf("mark audit events published: %w", err)
	}
	return nil
}
