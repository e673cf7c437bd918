package models

import (
	"strings"
	"time"

	id "kycportal/pkg/domain"
	dErrors "kycportal/pkg/domain-errors"
)

// ClientType discriminates the two onboarding branches. It is a closed set:
// no other client types are recognized.
type ClientType string

const (
	ClientTypeUnset    ClientType = ""
	ClientTypeDomestic ClientType = "DOMESTIC"
	ClientTypeForeign  ClientType = "FOREIGN"
)

// ParseClientType validates a client type from its wire form. The empty
// string is accepted and means "not yet declared".
func ParseClientType(s string) (ClientType, error) {
	switch ClientType(strings.ToUpper(strings.TrimSpace(s))) {
	case ClientTypeUnset:
		return ClientTypeUnset, nil
	case ClientTypeDomestic:
		return ClientTypeDomestic, nil
	case ClientTypeForeign:
		return ClientTypeForeign, nil
	default:
		return ClientTypeUnset, dErrors.New(dErrors.CodeInvalidInput, "client_type must be DOMESTIC or FOREIGN")
	}
}

// Company is the aggregate root for one onboarding client. Its raw data
// fields are what the eligibility rules inspect; everything else about the
// company lives in form sections outside this service.
type Company struct {
	ID                        id.CompanyID `json:"id"`
	FullCompanyName           string       `json:"full_company_name"`
	PreviousNames             string       `json:"previous_names"`
	RegisteredBusinessAddress string       `json:"registered_business_address"`
	TaxVATNumber              string       `json:"tax_vat_number"`
	CNPJ                      string       `json:"cnpj"`
	CountryOfIncorporation    string       `json:"country_of_incorporation"`
	ClientType                ClientType   `json:"client_type"`
	CreatedBy                 id.UserID    `json:"created_by"`
	CreatedAt                 time.Time    `json:"created_at"`
	UpdatedAt                 time.Time    `json:"updated_at"`
}

// Ownership is the Ownership & Management sub-record for foreign companies.
// Eligibility only checks its existence, never its contents.
type Ownership struct {
	CompanyID id.CompanyID `json:"company_id"`
	Details   string       `json:"details"`
	UpdatedBy id.UserID    `json:"updated_by"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// NewCompany constructs a company owned by its creator.
func NewCompany(companyID id.CompanyID, name string, createdBy id.UserID, now time.Time) (*Company, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "company name cannot be empty")
	}
	if createdBy.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "company creator is required")
	}
	return &Company{
		ID:              companyID,
		FullCompanyName: name,
		CreatedBy:       createdBy,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// MinRequirementsMet reports whether the minimum data to advance to the
// approval gates is present for the company's declared type.
//
//   - DOMESTIC: the CNPJ tax identifier is filled in.
//   - FOREIGN: the five core fields are filled in and the Ownership &
//     Management record exists.
//   - Undeclared type: never satisfied.
func (c *Company) MinRequirementsMet(hasOwnership bool) bool {
	switch c.ClientType {
	case ClientTypeDomestic:
		return c.CNPJ != ""
	case ClientTypeForeign:
		basicsOK := c.FullCompanyName != "" &&
			c.PreviousNames != "" &&
			c.RegisteredBusinessAddress != "" &&
			c.TaxVATNumber != "" &&
			c.CountryOfIncorporation != ""
		return basicsOK && hasOwnership
	default:
		return false
	}
}

// MissingRequirements returns the human-readable names of the minimum fields
// still absent, in their declared order.
func (c *Company) MissingRequirements(hasOwnership bool) []string {
	var missing []string
	switch c.ClientType {
	case ClientTypeDomestic:
		if c.CNPJ == "" {
			missing = append(missing, "CNPJ")
		}
	case ClientTypeForeign:
		if c.FullCompanyName == "" {
			missing = append(missing, "Full Company Name")
		}
		if c.PreviousNames == "" {
			missing = append(missing, "Previous Names")
		}
		if c.RegisteredBusinessAddress == "" {
			missing = append(missing, "Registered Business Address")
		}
		if c.TaxVATNumber == "" {
			missing = append(missing, "VAT number")
		}
		if c.CountryOfIncorporation == "" {
			missing = append(missing, "Country of Incorporation")
		}
		if !hasOwnership {
			missing = append(missing, "Ownership & Management info")
		}
	default:
		missing = append(missing, "Client Type")
	}
	return missing
}
