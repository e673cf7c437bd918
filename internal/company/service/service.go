package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"kycportal/internal/company/models"
	id "kycportal/pkg/domain"
	dErrors "kycportal/pkg/domain-errors"
	"kycportal/pkg/platform/sentinel"
	"kycportal/pkg/requestcontext"
)

// Store is the persistence port for companies and ownership records.
type Store interface {
	Create(ctx context.Context, c *models.Company) error
	Update(ctx context.Context, c *models.Company) error
	FindByID(ctx context.Context, companyID id.CompanyID) (*models.Company, error)
	List(ctx context.Context) ([]*models.Company, error)
	UpsertOwnership(ctx context.Context, o *models.Ownership) error
	FindOwnership(ctx context.Context, companyID id.CompanyID) (*models.Ownership, error)
	HasOwnership(ctx context.Context, companyID id.CompanyID) (bool, error)
}

// Reevaluator is the reactive trigger: the workflow engine re-runs the
// eligibility evaluation whenever company data is persisted.
type Reevaluator interface {
	Reevaluate(ctx context.Context, company *models.Company) error
}

// UpdateRequest carries the mutable company fields. Nil pointers leave the
// field unchanged.
type UpdateRequest struct {
	FullCompanyName           *string `json:"full_company_name"`
	PreviousNames             *string `json:"previous_names"`
	RegisteredBusinessAddress *string `json:"registered_business_address"`
	TaxVATNumber              *string `json:"tax_vat_number"`
	CNPJ                      *string `json:"cnpj"`
	CountryOfIncorporation    *string `json:"country_of_incorporation"`
	ClientType                *string `json:"client_type"`
}

// Service orchestrates company data entry and keeps the workflow status in
// sync with it.
type Service struct {
	store       Store
	reevaluator Reevaluator
	logger      *slog.Logger
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(store Store, reevaluator Reevaluator, opts ...Option) *Service {
	s := &Service{store: store, reevaluator: reevaluator, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create registers a company owned by the caller and runs the initial
// eligibility evaluation.
func (s *Service) Create(ctx context.Context, name string) (*models.Company, error) {
	creator := requestcontext.UserID(ctx)
	if creator.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}

	company, err := models.NewCompany(id.CompanyID(uuid.New()), name, creator, requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}

	if err := s.store.Create(ctx, company); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "company already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create company")
	}

	if err := s.reevaluate(ctx, company); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "company created",
		"request_id", requestcontext.RequestID(ctx),
		"company_id", company.ID,
		"created_by", creator,
	)
	return company, nil
}

// Get returns a company by ID.
func (s *Service) Get(ctx context.Context, companyID id.CompanyID) (*models.Company, error) {
	company, err := s.store.FindByID(ctx, companyID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "company not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load company")
	}
	return company, nil
}

// List returns all companies ordered by name.
func (s *Service) List(ctx context.Context) ([]*models.Company, error) {
	companies, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list companies")
	}
	return companies, nil
}

// Update applies partial field changes and re-runs the eligibility
// evaluation in the same request, so approval gates never see stale data.
func (s *Service) Update(ctx context.Context, companyID id.CompanyID, req UpdateRequest) (*models.Company, error) {
	company, err := s.Get(ctx, companyID)
	if err != nil {
		return nil, err
	}

	if req.FullCompanyName != nil {
		name := strings.TrimSpace(*req.FullCompanyName)
		if name == "" {
			return nil, dErrors.New(dErrors.CodeValidation, "company name cannot be empty")
		}
		company.FullCompanyName = name
	}
	if req.PreviousNames != nil {
		company.PreviousNames = strings.TrimSpace(*req.PreviousNames)
	}
	if req.RegisteredBusinessAddress != nil {
		company.RegisteredBusinessAddress = strings.TrimSpace(*req.RegisteredBusinessAddress)
	}
	if req.TaxVATNumber != nil {
		company.TaxVATNumber = strings.TrimSpace(*req.TaxVATNumber)
	}
	if req.CNPJ != nil {
		company.CNPJ = strings.TrimSpace(*req.CNPJ)
	}
	if req.CountryOfIncorporation != nil {
		company.CountryOfIncorporation = strings.TrimSpace(*req.CountryOfIncorporation)
	}
	if req.ClientType != nil {
		clientType, err := models.ParseClientType(*req.ClientType)
		if err != nil {
			return nil, err
		}
		company.ClientType = clientType
	}
	company.UpdatedAt = requestcontext.Now(ctx)

	if err := s.store.Update(ctx, company); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "company not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update company")
	}

	if err := s.reevaluate(ctx, company); err != nil {
		return nil, err
	}
	return company, nil
}

// UpsertOwnership creates or updates the Ownership & Management record and
// re-runs the eligibility evaluation.
func (s *Service) UpsertOwnership(ctx context.Context, companyID id.CompanyID, details string) (*models.Ownership, error) {
	actor := requestcontext.UserID(ctx)
	if actor.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}

	company, err := s.Get(ctx, companyID)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	ownership := &models.Ownership{
		CompanyID: companyID,
		Details:   details,
		UpdatedBy: actor,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.UpsertOwnership(ctx, ownership); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "company not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save ownership record")
	}

	if err := s.reevaluate(ctx, company); err != nil {
		return nil, err
	}
	return ownership, nil
}

// GetOwnership returns the company's ownership record.
func (s *Service) GetOwnership(ctx context.Context, companyID id.CompanyID) (*models.Ownership, error) {
	ownership, err := s.store.FindOwnership(ctx, companyID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "ownership record not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load ownership record")
	}
	return ownership, nil
}

func (s *Service) reevaluate(ctx context.Context, company *models.Company) error {
	if s.reevaluator == nil {
		return nil
	}
	if err := s.reevaluator.Reevaluate(ctx, company); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to re-evaluate minimum requirements")
	}
	return nil
}
