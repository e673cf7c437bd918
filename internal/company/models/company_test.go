package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	id "kycportal/pkg/domain"
)

// =============================================================================
// Eligibility Rules Test Suite
// =============================================================================

type CompanySuite struct {
	suite.Suite
}

func TestCompanySuite(t *testing.T) {
	suite.Run(t, new(CompanySuite))
}

func (s *CompanySuite) newCompany() *Company {
	c, err := NewCompany(id.CompanyID(uuid.New()), "Acme Trading Ltd", id.UserID(uuid.New()), time.Now().UTC())
	s.Require().NoError(err)
	return c
}

func (s *CompanySuite) TestParseClientType() {
	s.Run("accepts both branches case-insensitively", func() {
		ct, err := ParseClientType("domestic")
		s.NoError(err)
		s.Equal(ClientTypeDomestic, ct)

		ct, err = ParseClientType(" FOREIGN ")
		s.NoError(err)
		s.Equal(ClientTypeForeign, ct)
	})

	s.Run("empty string means undeclared", func() {
		ct, err := ParseClientType("")
		s.NoError(err)
		s.Equal(ClientTypeUnset, ct)
	})

	s.Run("rejects unknown values", func() {
		_, err := ParseClientType("OFFSHORE")
		s.Error(err)
	})
}

func (s *CompanySuite) TestDomesticEligibility() {
	c := s.newCompany()
	c.ClientType = ClientTypeDomestic

	s.Run("missing tax id", func() {
		s.False(c.MinRequirementsMet(false))
		s.Equal([]string{"CNPJ"}, c.MissingRequirements(false))
	})

	s.Run("tax id alone satisfies the branch", func() {
		c.CNPJ = "12.345.678/0001-99"
		s.True(c.MinRequirementsMet(false))
		s.Empty(c.MissingRequirements(false))
	})

	s.Run("ownership is irrelevant for domestic clients", func() {
		c.CNPJ = ""
		s.False(c.MinRequirementsMet(true))
		s.Equal([]string{"CNPJ"}, c.MissingRequirements(true))
	})
}

func (s *CompanySuite) TestForeignEligibility() {
	full := s.newCompany()
	full.ClientType = ClientTypeForeign
	full.PreviousNames = "Acme Holdings"
	full.RegisteredBusinessAddress = "1 Main St, London"
	full.TaxVATNumber = "GB123456789"
	full.CountryOfIncorporation = "United Kingdom"

	s.Run("all five fields plus ownership", func() {
		s.True(full.MinRequirementsMet(true))
		s.Empty(full.MissingRequirements(true))
	})

	s.Run("fields present but ownership missing", func() {
		s.False(full.MinRequirementsMet(false))
		s.Equal([]string{"Ownership & Management info"}, full.MissingRequirements(false))
	})

	s.Run("missing fields are listed in declared order", func() {
		c := s.newCompany()
		c.ClientType = ClientTypeForeign
		c.TaxVATNumber = "GB123456789"

		s.False(c.MinRequirementsMet(false))
		s.Equal([]string{
			"Previous Names",
			"Registered Business Address",
			"Country of Incorporation",
			"Ownership & Management info",
		}, c.MissingRequirements(false))
	})
}

func (s *CompanySuite) TestUndeclaredType() {
	c := s.newCompany()
	c.CNPJ = "12.345.678/0001-99"

	s.False(c.MinRequirementsMet(true))
	s.Equal([]string{"Client Type"}, c.MissingRequirements(true))
}

func (s *CompanySuite) TestNewCompanyValidation() {
	_, err := NewCompany(id.CompanyID(uuid.New()), "  ", id.UserID(uuid.New()), time.Now().UTC())
	s.Error(err)

	_, err = NewCompany(id.CompanyID(uuid.New()), "Acme", id.UserID{}, time.Now().UTC())
	s.Error(err)
}
