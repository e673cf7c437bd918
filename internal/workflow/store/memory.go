package store

import (
	"context"
	"sync"

	"kycportal/internal/workflow/models"
	id "kycportal/pkg/domain"
	"kycportal/pkg/requestcontext"
)

// InMemory holds one status record per company behind a per-record mutex so
// Execute callbacks see a consistent record from validation through mutation.
type InMemory struct {
	mu      sync.Mutex
	records map[id.CompanyID]*entry
}

type entry struct {
	mu     sync.Mutex
	record *models.StatusRecord
}

func NewInMemory() *InMemory {
	return &InMemory{records: make(map[id.CompanyID]*entry)}
}

func (s *InMemory) entryFor(ctx context.Context, companyID id.CompanyID) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.records[companyID]
	if !ok {
		e = &entry{record: models.NewStatusRecord(companyID, requestcontext.Now(ctx))}
		s.records[companyID] = e
	}
	return e
}

// GetOrCreate returns the company's status record, materializing the default
// record on first access.
func (s *InMemory) GetOrCreate(ctx context.Context, companyID id.CompanyID) (*models.StatusRecord, error) {
	e := s.entryFor(ctx, companyID)
	e.mu.Lock()
	defer e.mu.Unlock()

	cp := *e.record
	return &cp, nil
}

// Execute runs an atomic validate-then-mutate cycle against the company's
// status record, holding the record lock for the whole cycle. A validation
// error aborts with no mutation. The updated record copy is returned.
func (s *InMemory) Execute(
	ctx context.Context,
	companyID id.CompanyID,
	validate func(sr *models.StatusRecord) error,
	mutate func(sr *models.StatusRecord),
) (*models.StatusRecord, error) {
	e := s.entryFor(ctx, companyID)
	e.mu.Lock()
	defer e.mu.Unlock()

	work := *e.record
	if validate != nil {
		if err := validate(&work); err != nil {
			return nil, err
		}
	}
	if mutate != nil {
		mutate(&work)
	}
	*e.record = work

	cp := work
	return &cp, nil
}
