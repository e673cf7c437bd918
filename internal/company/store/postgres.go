package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"kycportal/internal/company/models"
	id "kycportal/pkg/domain"
	"kycportal/pkg/platform/sentinel"
)

// Postgres persists companies and ownership records in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const companyColumns = `id, full_company_name, previous_names, registered_business_address,
	tax_vat_number, cnpj, country_of_incorporation, client_type, created_by, created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, c *models.Company) error {
	query := `
		INSERT INTO companies (` + companyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(c.ID), c.FullCompanyName, c.PreviousNames, c.RegisteredBusinessAddress,
		c.TaxVATNumber, c.CNPJ, c.CountryOfIncorporation, string(c.ClientType),
		uuid.UUID(c.CreatedBy), c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create company: %w", err)
	}
	return nil
}

func (s *Postgres) Update(ctx context.Context, c *models.Company) error {
	query := `
		UPDATE companies
		SET full_company_name = $2, previous_names = $3, registered_business_address = $4,
			tax_vat_number = $5, cnpj = $6, country_of_incorporation = $7, client_type = $8,
			updated_at = $9
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		uuid.UUID(c.ID), c.FullCompanyName, c.PreviousNames, c.RegisteredBusinessAddress,
		c.TaxVATNumber, c.CNPJ, c.CountryOfIncorporation, string(c.ClientType), c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update company: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update company: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, companyID id.CompanyID) (*models.Company, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE id = $1`, uuid.UUID(companyID))
	return scanCompany(row)
}

func (s *Postgres) List(ctx context.Context) ([]*models.Company, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+companyColumns+` FROM companies ORDER BY full_company_name`)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	defer rows.Close()

	var out []*models.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Postgres) UpsertOwnership(ctx context.Context, o *models.Ownership) error {
	query := `
		INSERT INTO company_ownership (company_id, details, updated_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (company_id) DO UPDATE SET
			details = EXCLUDED.details,
			updated_by = EXCLUDED.updated_by,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(o.CompanyID), o.Details, uuid.UUID(o.UpdatedBy), o.CreatedAt, o.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation" {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("upsert ownership: %w", err)
	}
	return nil
}

func (s *Postgres) FindOwnership(ctx context.Context, companyID id.CompanyID) (*models.Ownership, error) {
	var (
		o         models.Ownership
		companyU  uuid.UUID
		updatedBy uuid.UUID
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT company_id, details, updated_by, created_at, updated_at
		 FROM company_ownership WHERE company_id = $1`, uuid.UUID(companyID)).
		Scan(&companyU, &o.Details, &updatedBy, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find ownership: %w", err)
	}
	o.CompanyID = id.CompanyID(companyU)
	o.UpdatedBy = id.UserID(updatedBy)
	return &o, nil
}

func (s *Postgres) HasOwnership(ctx context.Context, companyID id.CompanyID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM company_ownership WHERE company_id = $1)`,
		uuid.UUID(companyID)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check ownership: %w", err)
	}
	return exists, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCompany(row rowScanner) (*models.Company, error) {
	var (
		c          models.Company
		companyU   uuid.UUID
		createdBy  uuid.UUID
		clientType string
	)
	err := row.Scan(
		&companyU, &c.FullCompanyName, &c.PreviousNames, &c.RegisteredBusinessAddress,
		&c.TaxVATNumber, &c.CNPJ, &c.CountryOfIncorporation, &clientType,
		&createdBy, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan company: %w", err)
	}
	c.ID = id.CompanyID(companyU)
	c.CreatedBy = id.UserID(createdBy)
	c.ClientType = models.ClientType(clientType)
	return &c, nil
}
