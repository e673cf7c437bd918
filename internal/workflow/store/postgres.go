package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"kycportal/internal/workflow/models"
	id "kycportal/pkg/domain"
	"kycportal/pkg/requestcontext"
)

// Postgres persists status records in PostgreSQL. Execute wraps the
// validate-then-mutate cycle in a transaction holding a row lock so
// concurrent gate decisions serialize per company.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const statusColumns = `company_id, trading_qualified, compliance_qualified, treasury_qualified,
	min_requirements_met, is_pending, pending_owner, pending_details,
	client_onboarding_finished, treasury_risk, trading_reject_reason,
	last_updated_by, created_at, updated_at`

// GetOrCreate returns the company's status record, inserting the default
// record on first access.
func (s *Postgres) GetOrCreate(ctx context.Context, companyID id.CompanyID) (*models.StatusRecord, error) {
	sr, err := s.find(ctx, s.db, companyID, false)
	if err == nil {
		return sr, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	fresh := models.NewStatusRecord(companyID, requestcontext.Now(ctx))
	if err := s.insert(ctx, fresh); err != nil {
		return nil, err
	}
	// Another request may have inserted concurrently; read back the winner.
	return s.find(ctx, s.db, companyID, false)
}

// Execute runs an atomic validate-then-mutate cycle against the company's
// status record under SELECT ... FOR UPDATE. A validation error rolls back
// with no mutation. The updated record is returned.
func (s *Postgres) Execute(
	ctx context.Context,
	companyID id.CompanyID,
	validate func(sr *models.StatusRecord) error,
	mutate func(sr *models.StatusRecord),
) (*models.StatusRecord, error) {
	if _, err := s.GetOrCreate(ctx, companyID); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin status tx: %w", err)
	}
	defer tx.Rollback()

	sr, err := s.find(ctx, tx, companyID, true)
	if err != nil {
		return nil, err
	}

	if validate != nil {
		if err := validate(sr); err != nil {
			return nil, err
		}
	}
	if mutate != nil {
		mutate(sr)
	}

	if err := s.update(ctx, tx, sr); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit status tx: %w", err)
	}
	return sr, nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Postgres) find(ctx context.Context, q queryer, companyID id.CompanyID, forUpdate bool) (*models.StatusRecord, error) {
	query := `SELECT ` + statusColumns + ` FROM status_records WHERE company_id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var (
		sr            models.StatusRecord
		companyU      uuid.UUID
		pendingOwner  string
		lastUpdatedBy uuid.NullUUID
	)
	err := q.QueryRowContext(ctx, query, uuid.UUID(companyID)).Scan(
		&companyU, &sr.TradingQualified, &sr.ComplianceQualified, &sr.TreasuryQualified,
		&sr.MinRequirementsMet, &sr.IsPending, &pendingOwner, &sr.PendingDetails,
		&sr.ClientOnboardingFinished, &sr.TreasuryRisk, &sr.TradingRejectReason,
		&lastUpdatedBy, &sr.CreatedAt, &sr.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find status record: %w", err)
	}
	sr.CompanyID = id.CompanyID(companyU)
	sr.PendingOwner = models.PendingOwner(pendingOwner)
	if lastUpdatedBy.Valid {
		sr.LastUpdatedBy = id.UserID(lastUpdatedBy.UUID)
	}
	return &sr, nil
}

func (s *Postgres) insert(ctx context.Context, sr *models.StatusRecord) error {
	query := `
		INSERT INTO status_records (` + statusColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (company_id) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(sr.CompanyID), sr.TradingQualified, sr.ComplianceQualified, sr.TreasuryQualified,
		sr.MinRequirementsMet, sr.IsPending, string(sr.PendingOwner), sr.PendingDetails,
		sr.ClientOnboardingFinished, sr.TreasuryRisk, sr.TradingRejectReason,
		nullUserID(sr.LastUpdatedBy), sr.CreatedAt, sr.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert status record: %w", err)
	}
	return nil
}

func (s *Postgres) update(ctx context.Context, q queryer, sr *models.StatusRecord) error {
	query := `
		UPDATE status_records
		SET trading_qualified = $2, compliance_qualified = $3, treasury_qualified = $4,
			min_requirements_met = $5, is_pending = $6, pending_owner = $7, pending_details = $8,
			client_onboarding_finished = $9, treasury_risk = $10, trading_reject_reason = $11,
			last_updated_by = $12, updated_at = $13
		WHERE company_id = $1
	`
	_, err := q.ExecContext(ctx, query,
		uuid.UUID(sr.CompanyID), sr.TradingQualified, sr.ComplianceQualified, sr.TreasuryQualified,
		sr.MinRequirementsMet, sr.IsPending, string(sr.PendingOwner), sr.PendingDetails,
		sr.ClientOnboardingFinished, sr.TreasuryRisk, sr.TradingRejectReason,
		nullUserID(sr.LastUpdatedBy), sr.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update status record: %w", err)
	}
	return nil
}

func nullUserID(userID id.UserID) uuid.NullUUID {
	return uuid.NullUUID{UUID: uuid.UUID(userID), Valid: !userID.IsNil()}
}
