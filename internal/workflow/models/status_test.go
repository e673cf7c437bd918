package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	id "kycportal/pkg/domain"
	dErrors "kycportal/pkg/domain-errors"
)

// =============================================================================
// Status Record Test Suite
// =============================================================================
// Justification for unit tests: the gate transitions encode the whole approval
// state machine. Exercising every branch through HTTP would need full account
// and company provisioning per case; here each transition is driven directly.

type StatusRecordSuite struct {
	suite.Suite
	actor id.UserID
	now   time.Time
}

func TestStatusRecordSuite(t *testing.T) {
	suite.Run(t, new(StatusRecordSuite))
}

func (s *StatusRecordSuite) SetupTest() {
	s.actor = id.UserID(uuid.New())
	s.now = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
}

// readyRecord returns a record that passed the eligibility evaluation and is
// waiting for the parallel reviews.
func (s *StatusRecordSuite) readyRecord() *StatusRecord {
	sr := NewStatusRecord(id.CompanyID(uuid.New()), s.now)
	sr.ApplyRequirementsMet(s.now)
	return sr
}

// =============================================================================
// Defaults
// =============================================================================

func (s *StatusRecordSuite) TestNewStatusRecord() {
	sr := NewStatusRecord(id.CompanyID(uuid.New()), s.now)

	s.False(sr.MinRequirementsMet)
	s.False(sr.IsPending)
	s.False(sr.ComplianceQualified)
	s.False(sr.TreasuryQualified)
	s.False(sr.TradingQualified)
	s.False(sr.ClientOnboardingFinished)
	s.Equal(OwnerNone, sr.PendingOwner)
	s.False(sr.Rejected(), "a fresh record must not read as rejected")
}

// =============================================================================
// Eligibility Transitions
// =============================================================================

func (s *StatusRecordSuite) TestRequirementsTransitions() {
	s.Run("unmet hands the action back to the user", func() {
		sr := NewStatusRecord(id.CompanyID(uuid.New()), s.now)
		sr.ApplyRequirementsUnmet([]string{"CNPJ"}, s.now)

		s.False(sr.MinRequirementsMet)
		s.True(sr.IsPending)
		s.Equal(OwnerUser, sr.PendingOwner)
		s.Equal("Minimum requirements pending: CNPJ", sr.PendingDetails)
	})

	s.Run("met releases the company to the parallel reviews", func() {
		sr := s.readyRecord()

		s.True(sr.MinRequirementsMet)
		s.True(sr.IsPending)
		s.Equal(OwnerNone, sr.PendingOwner)
		s.Equal("Awaiting Compliance and Finance review.", sr.PendingDetails)
		s.False(sr.Rejected())
	})

	s.Run("gates refuse while requirements are unmet", func() {
		sr := NewStatusRecord(id.CompanyID(uuid.New()), s.now)
		sr.ApplyRequirementsUnmet([]string{"Client Type"}, s.now)

		s.True(dErrors.HasCode(sr.CanComplianceDecide(), dErrors.CodePreconditionFailed))
		s.True(dErrors.HasCode(sr.CanTreasuryDecide(), dErrors.CodePreconditionFailed))
	})
}

// =============================================================================
// Parallel Review Join
// =============================================================================

func (s *StatusRecordSuite) TestJoinIsCommutative() {
	s.Run("compliance first then treasury", func() {
		sr := s.readyRecord()
		s.NoError(sr.CanComplianceDecide())
		sr.ApplyComplianceApproval(s.actor, s.now)

		s.Equal(OwnerFinance, sr.PendingOwner)
		s.Equal("Compliance approved. Awaiting Finance decision.", sr.PendingDetails)

		s.NoError(sr.CanTreasuryDecide())
		sr.ApplyTreasuryApproval(s.actor, s.now)

		s.Equal(OwnerTrading, sr.PendingOwner)
		s.Equal("Compliance and Finance approved. Awaiting final analysis (Trading).", sr.PendingDetails)
	})

	s.Run("treasury first then compliance", func() {
		sr := s.readyRecord()
		sr.ApplyTreasuryApproval(s.actor, s.now)

		s.Equal(OwnerCompliance, sr.PendingOwner)
		s.Equal("Finance approved. Awaiting Compliance decision.", sr.PendingDetails)

		sr.ApplyComplianceApproval(s.actor, s.now)

		s.Equal(OwnerTrading, sr.PendingOwner)
		s.Equal("Compliance and Finance approved. Awaiting final analysis (Trading).", sr.PendingDetails)
	})
}

// =============================================================================
// Rejections
// =============================================================================

func (s *StatusRecordSuite) TestComplianceRejectionIsTerminal() {
	sr := s.readyRecord()
	sr.ApplyComplianceRejection(s.actor, s.now)

	s.True(sr.Rejected())
	s.False(sr.IsPending)
	s.Equal(OwnerNone, sr.PendingOwner)
	s.Equal("Client not registered (Compliance).", sr.PendingDetails)

	s.True(dErrors.HasCode(sr.CanComplianceDecide(), dErrors.CodePreconditionFailed))
	s.True(dErrors.HasCode(sr.CanTreasuryDecide(), dErrors.CodePreconditionFailed))
	s.True(dErrors.HasCode(sr.CanTradingDecide(), dErrors.CodePreconditionFailed))
	s.True(dErrors.HasCode(sr.CanFinalAnalysisDecide(), dErrors.CodePreconditionFailed))
	s.True(dErrors.HasCode(sr.CanRegisterSAP(), dErrors.CodePreconditionFailed))
}

func (s *StatusRecordSuite) TestTreasuryRejectionIsNotTerminal() {
	s.Run("empty risk is refused before any state changes", func() {
		err := ValidateTreasuryRisk("   ")
		s.True(dErrors.HasCode(err, dErrors.CodePreconditionFailed))
	})

	s.Run("rejection with risk keeps the company queued with finance", func() {
		sr := s.readyRecord()
		sr.ApplyTreasuryRejection(s.actor, "sanctions exposure", s.now)

		s.False(sr.Rejected())
		s.True(sr.IsPending)
		s.Equal(OwnerFinance, sr.PendingOwner)
		s.Equal("sanctions exposure", sr.TreasuryRisk)
		s.Equal("Finance rejected. Risk: sanctions exposure", sr.PendingDetails)

		// The decision can be revisited.
		s.NoError(sr.CanTreasuryDecide())
		sr.ApplyTreasuryApproval(s.actor, s.now)
		s.True(sr.TreasuryQualified)
	})
}

func (s *StatusRecordSuite) TestTradingRejection() {
	sr := s.readyRecord()
	sr.ApplyComplianceApproval(s.actor, s.now)

	s.Run("reason is appended when present", func() {
		cp := *sr
		cp.ApplyTradingRejection(s.actor, "volume too low", s.now)
		s.True(cp.Rejected())
		s.Equal("Client not registered (Trading). Reason: volume too low", cp.PendingDetails)
	})

	s.Run("reason is optional", func() {
		cp := *sr
		cp.ApplyTradingRejection(s.actor, "", s.now)
		s.True(cp.Rejected())
		s.Equal("Client not registered (Trading).", cp.PendingDetails)
	})
}

// =============================================================================
// Trading and Final Analysis
// =============================================================================

func (s *StatusRecordSuite) TestTradingGate() {
	s.Run("requires compliance approval", func() {
		sr := s.readyRecord()
		s.True(dErrors.HasCode(sr.CanTradingDecide(), dErrors.CodePreconditionFailed))
	})

	s.Run("treasury state is irrelevant", func() {
		sr := s.readyRecord()
		sr.ApplyComplianceApproval(s.actor, s.now)
		s.False(sr.TreasuryQualified)
		s.NoError(sr.CanTradingDecide())

		sr.ApplyTradingApproval(s.actor, s.now)
		s.True(sr.TradingQualified)
		s.False(sr.ClientOnboardingFinished)
		s.Equal(OwnerTrading, sr.PendingOwner)
		s.Equal("Trading enabled. Awaiting final analysis.", sr.PendingDetails)
	})
}

func (s *StatusRecordSuite) TestFinalAnalysis() {
	sr := s.readyRecord()
	sr.ApplyComplianceApproval(s.actor, s.now)
	sr.ApplyTreasuryApproval(s.actor, s.now)

	s.Run("approval routes to procurement", func() {
		cp := *sr
		s.NoError(cp.CanFinalAnalysisDecide())
		cp.ApplyFinalAnalysisApproval(s.actor, s.now)
		s.Equal(OwnerProcurement, cp.PendingOwner)
		s.Equal("Final analysis approved. Register in SAP.", cp.PendingDetails)
	})

	s.Run("rejection is terminal", func() {
		cp := *sr
		cp.ApplyFinalAnalysisRejection(s.actor, s.now)
		s.True(cp.Rejected())
		s.Equal("Client not registered (Final Analysis).", cp.PendingDetails)
	})
}

// =============================================================================
// Terminal Success
// =============================================================================

func (s *StatusRecordSuite) TestSAPRegistrationFinishesOnboarding() {
	sr := s.readyRecord()
	sr.ApplyComplianceApproval(s.actor, s.now)
	sr.ApplyTreasuryApproval(s.actor, s.now)
	sr.ApplyTradingApproval(s.actor, s.now)
	sr.ApplyFinalAnalysisApproval(s.actor, s.now)

	s.NoError(sr.CanRegisterSAP())
	sr.ApplySAPRegistration(s.actor, s.now)

	s.True(sr.Finished())
	s.False(sr.IsPending)
	s.Equal(OwnerNone, sr.PendingOwner)
	s.Equal("Registered in SAP.", sr.PendingDetails)
	s.False(sr.Rejected())

	s.True(dErrors.HasCode(sr.CanComplianceDecide(), dErrors.CodePreconditionFailed))
	s.True(dErrors.HasCode(sr.CanRegisterSAP(), dErrors.CodePreconditionFailed))
}
