package store

import (
	"context"
	"sort"
	"sync"

	"kycportal/internal/company/models"
	id "kycportal/pkg/domain"
	"kycportal/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded company store for development and tests.
type InMemory struct {
	mu        sync.RWMutex
	companies map[id.CompanyID]*models.Company
	ownership map[id.CompanyID]*models.Ownership
}

func NewInMemory() *InMemory {
	return &InMemory{
		companies: make(map[id.CompanyID]*models.Company),
		ownership: make(map[id.CompanyID]*models.Ownership),
	}
}

func (s *InMemory) Create(ctx context.Context, c *models.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.companies[c.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *c
	s.companies[c.ID] = &cp
	return nil
}

func (s *InMemory) Update(ctx context.Context, c *models.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.companies[c.ID]; !exists {
		return sentinel.ErrNotFound
	}
	cp := *c
	s.companies[c.ID] = &cp
	return nil
}

func (s *InMemory) FindByID(ctx context.Context, companyID id.CompanyID) (*models.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.companies[companyID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

// List returns all companies ordered by name for stable listings.
func (s *InMemory) List(ctx context.Context) ([]*models.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Company, 0, len(s.companies))
	for _, c := range s.companies {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].FullCompanyName < out[j].FullCompanyName
	})
	return out, nil
}

// UpsertOwnership creates or replaces the ownership record for a company.
func (s *InMemory) UpsertOwnership(ctx context.Context, o *models.Ownership) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.companies[o.CompanyID]; !exists {
		return sentinel.ErrNotFound
	}
	cp := *o
	if existing, ok := s.ownership[o.CompanyID]; ok {
		cp.CreatedAt = existing.CreatedAt
	}
	s.ownership[o.CompanyID] = &cp
	return nil
}

func (s *InMemory) FindOwnership(ctx context.Context, companyID id.CompanyID) (*models.Ownership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.ownership[companyID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

// HasOwnership reports whether an ownership record exists for the company.
func (s *InMemory) HasOwnership(ctx context.Context, companyID id.CompanyID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.ownership[companyID]
	return ok, nil
}
