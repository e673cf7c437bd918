package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	companymodels "kycportal/internal/company/models"
	companystore "kycportal/internal/company/store"
	"kycportal/internal/directory"
	"kycportal/internal/workflow/models"
	workflowstore "kycportal/internal/workflow/store"
	id "kycportal/pkg/domain"
	dErrors "kycportal/pkg/domain-errors"
	"kycportal/pkg/requestcontext"
)

// =============================================================================
// Workflow Service Test Suite
// =============================================================================
// Justification for unit tests: the engine combines role checks, the state
// machine, and notification fan-out. Driving it with in-memory stores and a
// recording notifier lets every scenario assert on exactly which side effects
// fired, which an HTTP-level test cannot see.

type recordedNotification struct {
	kind      string // "notify", "dedup", "group"
	recipient id.UserID
	role      string
	message   string
}

type fakeNotifier struct {
	sent []recordedNotification
}

func (f *fakeNotifier) Notify(_ context.Context, recipient id.UserID, message, _ string, _ id.ThreadID) error {
	f.sent = append(f.sent, recordedNotification{kind: "notify", recipient: recipient, message: message})
	return nil
}

func (f *fakeNotifier) NotifyDedup(_ context.Context, recipient id.UserID, message, _ string, _ id.ThreadID) error {
	f.sent = append(f.sent, recordedNotification{kind: "dedup", recipient: recipient, message: message})
	return nil
}

func (f *fakeNotifier) NotifyGroup(_ context.Context, role, message, _ string, _ id.ThreadID) error {
	f.sent = append(f.sent, recordedNotification{kind: "group", role: role, message: message})
	return nil
}

func (f *fakeNotifier) groupMessages(role string) []string {
	var out []string
	for _, n := range f.sent {
		if n.kind == "group" && n.role == role {
			out = append(out, n.message)
		}
	}
	return out
}

type fakeRoles struct {
	membership map[id.UserID]string
}

func (f *fakeRoles) IsMember(_ context.Context, userID id.UserID, role string) (bool, error) {
	return f.membership[userID] == role, nil
}

type WorkflowServiceSuite struct {
	suite.Suite
	companies *companystore.InMemory
	statuses  *workflowstore.InMemory
	notifier  *fakeNotifier
	roles     *fakeRoles
	service   *Service

	creator     id.UserID
	compliance  id.UserID
	finance     id.UserID
	trading     id.UserID
	procurement id.UserID
}

func TestWorkflowServiceSuite(t *testing.T) {
	suite.Run(t, new(WorkflowServiceSuite))
}

func (s *WorkflowServiceSuite) SetupTest() {
	s.companies = companystore.NewInMemory()
	s.statuses = workflowstore.NewInMemory()
	s.notifier = &fakeNotifier{}

	s.creator = id.UserID(uuid.New())
	s.compliance = id.UserID(uuid.New())
	s.finance = id.UserID(uuid.New())
	s.trading = id.UserID(uuid.New())
	s.procurement = id.UserID(uuid.New())
	s.roles = &fakeRoles{membership: map[id.UserID]string{
		s.compliance:  directory.RoleCompliance,
		s.finance:     directory.RoleFinance,
		s.trading:     directory.RoleTrading,
		s.procurement: directory.RoleProcurement,
	}}

	s.service = New(s.statuses, s.companies, s.roles, s.notifier)
}

func (s *WorkflowServiceSuite) ctx(actor id.UserID) context.Context {
	ctx := requestcontext.WithTime(context.Background(), time.Now().UTC())
	if !actor.IsNil() {
		ctx = requestcontext.WithUserID(ctx, actor)
	}
	return ctx
}

// domesticCompany stores a ready domestic company and runs the trigger so
// the status record reflects met requirements.
func (s *WorkflowServiceSuite) domesticCompany() *companymodels.Company {
	company, err := companymodels.NewCompany(id.CompanyID(uuid.New()), "Acme Trading Ltd", s.creator, time.Now().UTC())
	s.Require().NoError(err)
	company.ClientType = companymodels.ClientTypeDomestic
	company.CNPJ = "12.345.678/0001-99"
	s.Require().NoError(s.companies.Create(s.ctx(s.creator), company))
	s.Require().NoError(s.service.Reevaluate(s.ctx(s.creator), company))
	return company
}

func (s *WorkflowServiceSuite) status(companyID id.CompanyID) *models.StatusRecord {
	sr, err := s.statuses.GetOrCreate(context.Background(), companyID)
	s.Require().NoError(err)
	return sr
}

// =============================================================================
// Reactive Trigger
// =============================================================================

func (s *WorkflowServiceSuite) TestReevaluate() {
	s.Run("unmet requirements notify the creator with the missing list", func() {
		company, err := companymodels.NewCompany(id.CompanyID(uuid.New()), "Acme Trading Ltd", s.creator, time.Now().UTC())
		s.Require().NoError(err)
		company.ClientType = companymodels.ClientTypeDomestic
		s.Require().NoError(s.companies.Create(s.ctx(s.creator), company))

		s.Require().NoError(s.service.Reevaluate(s.ctx(s.creator), company))

		sr := s.status(company.ID)
		s.False(sr.MinRequirementsMet)
		s.True(sr.IsPending)
		s.Equal(models.OwnerUser, sr.PendingOwner)

		s.Require().Len(s.notifier.sent, 1)
		got := s.notifier.sent[0]
		s.Equal("dedup", got.kind)
		s.Equal(s.creator, got.recipient)
		s.Equal("Complete the minimum requirements to proceed: CNPJ", got.message)
	})

	s.Run("filling the tax id flips the record and alerts both review groups", func() {
		company := s.domesticCompany()

		sr := s.status(company.ID)
		s.True(sr.MinRequirementsMet)
		s.True(sr.IsPending)
		s.Equal(models.OwnerNone, sr.PendingOwner)

		s.Equal([]string{"Client ready for Compliance review: Acme Trading Ltd"},
			s.notifier.groupMessages(directory.RoleCompliance))
		s.Equal([]string{"Client ready for Finance review: Acme Trading Ltd"},
			s.notifier.groupMessages(directory.RoleFinance))
	})

	s.Run("a second save with requirements still met does not re-notify", func() {
		company := s.domesticCompany()
		before := len(s.notifier.sent)

		s.Require().NoError(s.service.Reevaluate(s.ctx(s.creator), company))

		s.Len(s.notifier.sent, before, "already-met records must not fan out again")
	})
}

// =============================================================================
// Gate Authorization
// =============================================================================

func (s *WorkflowServiceSuite) TestAuthorization() {
	company := s.domesticCompany()

	s.Run("actor outside the gate group is forbidden", func() {
		_, err := s.service.ComplianceDecision(s.ctx(s.finance), company.ID, models.DecisionApprove)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("anonymous caller is unauthorized", func() {
		_, err := s.service.ComplianceDecision(s.ctx(id.UserID{}), company.ID, models.DecisionApprove)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("unknown company is not found", func() {
		_, err := s.service.ComplianceDecision(s.ctx(s.compliance), id.CompanyID(uuid.New()), models.DecisionApprove)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

// =============================================================================
// Full Onboarding Path
// =============================================================================

func (s *WorkflowServiceSuite) TestHappyPath() {
	company := s.domesticCompany()

	sr, err := s.service.ComplianceDecision(s.ctx(s.compliance), company.ID, models.DecisionApprove)
	s.Require().NoError(err)
	s.Equal(models.OwnerFinance, sr.PendingOwner)

	sr, err = s.service.TreasuryDecision(s.ctx(s.finance), company.ID, models.DecisionApprove, "")
	s.Require().NoError(err)
	s.Equal(models.OwnerTrading, sr.PendingOwner)

	sr, err = s.service.TradingDecision(s.ctx(s.trading), company.ID, models.DecisionApprove, "")
	s.Require().NoError(err)
	s.True(sr.TradingQualified)
	s.False(sr.ClientOnboardingFinished)

	sr, err = s.service.FinalAnalysisDecision(s.ctx(s.trading), company.ID, models.DecisionApprove)
	s.Require().NoError(err)
	s.Equal(models.OwnerProcurement, sr.PendingOwner)

	sr, err = s.service.RegisterSAP(s.ctx(s.procurement), company.ID)
	s.Require().NoError(err)
	s.True(sr.ClientOnboardingFinished)
	s.False(sr.IsPending)
	s.Equal(models.OwnerNone, sr.PendingOwner)

	// Terminal success refuses further gate actions.
	_, err = s.service.ComplianceDecision(s.ctx(s.compliance), company.ID, models.DecisionApprove)
	s.True(dErrors.HasCode(err, dErrors.CodePreconditionFailed))
}

// =============================================================================
// Rejections
// =============================================================================

func (s *WorkflowServiceSuite) TestComplianceRejectionTerminates() {
	company := s.domesticCompany()

	sr, err := s.service.ComplianceDecision(s.ctx(s.compliance), company.ID, models.DecisionReject)
	s.Require().NoError(err)
	s.True(sr.Rejected())

	_, err = s.service.TreasuryDecision(s.ctx(s.finance), company.ID, models.DecisionApprove, "")
	s.True(dErrors.HasCode(err, dErrors.CodePreconditionFailed))

	_, err = s.service.RegisterSAP(s.ctx(s.procurement), company.ID)
	s.True(dErrors.HasCode(err, dErrors.CodePreconditionFailed))
}

func (s *WorkflowServiceSuite) TestTreasuryRejection() {
	company := s.domesticCompany()

	s.Run("empty risk is refused and state is untouched", func() {
		before := *s.status(company.ID)

		_, err := s.service.TreasuryDecision(s.ctx(s.finance), company.ID, models.DecisionReject, "  ")
		s.True(dErrors.HasCode(err, dErrors.CodePreconditionFailed))

		s.Equal(before, *s.status(company.ID))
	})

	s.Run("rejection with risk stays in the finance queue", func() {
		sr, err := s.service.TreasuryDecision(s.ctx(s.finance), company.ID, models.DecisionReject, "sanctions exposure")
		s.Require().NoError(err)

		s.False(sr.Rejected())
		s.True(sr.IsPending)
		s.Equal(models.OwnerFinance, sr.PendingOwner)
		s.Equal("sanctions exposure", sr.TreasuryRisk)

		// Finance can approve on revisit.
		sr, err = s.service.TreasuryDecision(s.ctx(s.finance), company.ID, models.DecisionApprove, "")
		s.Require().NoError(err)
		s.True(sr.TreasuryQualified)
	})
}

// =============================================================================
// Join Commutativity
// =============================================================================

func (s *WorkflowServiceSuite) TestJoinOrderDoesNotMatter() {
	company := s.domesticCompany()

	sr, err := s.service.TreasuryDecision(s.ctx(s.finance), company.ID, models.DecisionApprove, "")
	s.Require().NoError(err)
	s.Equal(models.OwnerCompliance, sr.PendingOwner)

	sr, err = s.service.ComplianceDecision(s.ctx(s.compliance), company.ID, models.DecisionApprove)
	s.Require().NoError(err)
	s.Equal(models.OwnerTrading, sr.PendingOwner)
	s.Equal("Compliance and Finance approved. Awaiting final analysis (Trading).", sr.PendingDetails)
}

// =============================================================================
// Creator Notifications
// =============================================================================

func (s *WorkflowServiceSuite) TestCreatorIsNotifiedOfDecisions() {
	company := s.domesticCompany()

	_, err := s.service.ComplianceDecision(s.ctx(s.compliance), company.ID, models.DecisionApprove)
	s.Require().NoError(err)

	var creatorMessages []string
	for _, n := range s.notifier.sent {
		if n.kind == "notify" && n.recipient == s.creator {
			creatorMessages = append(creatorMessages, n.message)
		}
	}
	s.Equal([]string{"Compliance approved for Acme Trading Ltd"}, creatorMessages)
}
