package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"kycportal/internal/company/models"
	"kycportal/internal/company/store"
	id "kycportal/pkg/domain"
	dErrors "kycportal/pkg/domain-errors"
	"kycportal/pkg/requestcontext"
)

// =============================================================================
// Company Service Test Suite
// =============================================================================
// Justification for unit tests: the contract under test is that every save
// path runs the eligibility re-evaluation before returning, which only a
// recording trigger can observe.

type recordingReevaluator struct {
	calls []id.CompanyID
}

func (r *recordingReevaluator) Reevaluate(_ context.Context, company *models.Company) error {
	r.calls = append(r.calls, company.ID)
	return nil
}

type CompanyServiceSuite struct {
	suite.Suite
	store   *store.InMemory
	trigger *recordingReevaluator
	service *Service
	creator id.UserID
}

func TestCompanyServiceSuite(t *testing.T) {
	suite.Run(t, new(CompanyServiceSuite))
}

func (s *CompanyServiceSuite) SetupTest() {
	s.store = store.NewInMemory()
	s.trigger = &recordingReevaluator{}
	s.service = New(s.store, s.trigger)
	s.creator = id.UserID(uuid.New())
}

func (s *CompanyServiceSuite) ctx() context.Context {
	ctx := requestcontext.WithUserID(context.Background(), s.creator)
	return requestcontext.WithTime(ctx, time.Now().UTC())
}

func strPtr(v string) *string { return &v }

func (s *CompanyServiceSuite) TestCreateRunsTrigger() {
	company, err := s.service.Create(s.ctx(), "Acme Trading Ltd")
	s.Require().NoError(err)
	s.Equal(s.creator, company.CreatedBy)
	s.Equal([]id.CompanyID{company.ID}, s.trigger.calls)
}

func (s *CompanyServiceSuite) TestCreateValidation() {
	s.Run("empty name", func() {
		_, err := s.service.Create(s.ctx(), "   ")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Empty(s.trigger.calls)
	})

	s.Run("anonymous caller", func() {
		_, err := s.service.Create(context.Background(), "Acme")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *CompanyServiceSuite) TestUpdateIsPartialAndRunsTrigger() {
	company, err := s.service.Create(s.ctx(), "Acme Trading Ltd")
	s.Require().NoError(err)

	updated, err := s.service.Update(s.ctx(), company.ID, UpdateRequest{
		ClientType: strPtr("DOMESTIC"),
		CNPJ:       strPtr("12.345.678/0001-99"),
	})
	s.Require().NoError(err)
	s.Equal(models.ClientTypeDomestic, updated.ClientType)
	s.Equal("12.345.678/0001-99", updated.CNPJ)
	s.Equal("Acme Trading Ltd", updated.FullCompanyName, "absent fields stay unchanged")
	s.Len(s.trigger.calls, 2)

	s.Run("invalid client type is refused", func() {
		_, err := s.service.Update(s.ctx(), company.ID, UpdateRequest{ClientType: strPtr("OFFSHORE")})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("unknown company", func() {
		_, err := s.service.Update(s.ctx(), id.CompanyID(uuid.New()), UpdateRequest{})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *CompanyServiceSuite) TestUpsertOwnershipRunsTrigger() {
	company, err := s.service.Create(s.ctx(), "Foreign Holdings SA")
	s.Require().NoError(err)

	ownership, err := s.service.UpsertOwnership(s.ctx(), company.ID, "51% Holding BV, 49% founders")
	s.Require().NoError(err)
	s.Equal(company.ID, ownership.CompanyID)
	s.Len(s.trigger.calls, 2)

	has, err := s.store.HasOwnership(context.Background(), company.ID)
	s.Require().NoError(err)
	s.True(has)
}
