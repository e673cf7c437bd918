package models

import (
	"fmt"
	"strings"
	"time"

	id "kycportal/pkg/domain"
	dErrors "kycportal/pkg/domain-errors"
)

// PendingOwner names whose action is currently required to advance the
// workflow. OwnerNone means no actor is expected: either the workflow is
// waiting for the parallel review queue to pick the company up, or it has
// terminated (fully onboarded or rejected).
type PendingOwner string

const (
	OwnerUser        PendingOwner = "USER"
	OwnerCompliance  PendingOwner = "COMPLIANCE"
	OwnerFinance     PendingOwner = "FINANCE"
	OwnerTrading     PendingOwner = "TRADING"
	OwnerProcurement PendingOwner = "PROCUREMENT"
	OwnerNone        PendingOwner = "NONE"
)

// StatusRecord is the single mutable workflow state for one company.
//
// Invariants:
//   - Exactly one record exists per company; it is lazily materialized with
//     the defaults from NewStatusRecord on first access.
//   - Each qualified flag is set by its owning role gate only.
//   - A rejection leaves PendingOwner=NONE and IsPending=false; no gate
//     operation moves the record out of that state. Only a data change that
//     re-runs the eligibility evaluation restarts a cycle.
//
// IsPending and PendingOwner are independently settable and the steady-state
// combinations are documented on the transitions rather than enforced as a
// model invariant, because the met-requirements state legitimately pairs
// PendingOwner=NONE with IsPending=true.
type StatusRecord struct {
	CompanyID                id.CompanyID `json:"company_id"`
	TradingQualified         bool         `json:"trading_qualified"`
	ComplianceQualified      bool         `json:"compliance_qualified"`
	TreasuryQualified        bool         `json:"treasury_qualified"`
	MinRequirementsMet       bool         `json:"min_requirements_met"`
	IsPending                bool         `json:"is_pending"`
	PendingOwner             PendingOwner `json:"pending_owner"`
	PendingDetails           string       `json:"pending_details"`
	ClientOnboardingFinished bool         `json:"client_onboarding_finished"`
	TreasuryRisk             string       `json:"treasury_risk,omitempty"`
	TradingRejectReason      string       `json:"trading_reject_reason,omitempty"`
	LastUpdatedBy            id.UserID    `json:"last_updated_by,omitempty"`
	CreatedAt                time.Time    `json:"created_at"`
	UpdatedAt                time.Time    `json:"updated_at"`
}

// NewStatusRecord returns the documented default state for a company that has
// not been evaluated or decided on yet.
func NewStatusRecord(companyID id.CompanyID, now time.Time) *StatusRecord {
	return &StatusRecord{
		CompanyID:    companyID,
		PendingOwner: OwnerNone,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Rejected reports whether the record sits in the terminal rejected state.
// Every rejection path leaves PendingOwner=NONE with IsPending=false while
// minimum requirements still hold and onboarding never finished; the fresh
// default state differs because MinRequirementsMet is false until the first
// evaluation runs.
func (sr *StatusRecord) Rejected() bool {
	return sr.PendingOwner == OwnerNone &&
		!sr.IsPending &&
		!sr.ClientOnboardingFinished &&
		sr.MinRequirementsMet
}

// Finished reports whether onboarding completed successfully.
func (sr *StatusRecord) Finished() bool {
	return sr.ClientOnboardingFinished
}

func (sr *StatusRecord) guardOpen() error {
	if sr.Rejected() {
		return dErrors.New(dErrors.CodePreconditionFailed, "company was rejected; amend its data to start a new cycle")
	}
	if sr.ClientOnboardingFinished {
		return dErrors.New(dErrors.CodePreconditionFailed, "client onboarding is already finished")
	}
	return nil
}

// CanComplianceDecide checks the Compliance gate precondition.
func (sr *StatusRecord) CanComplianceDecide() error {
	if err := sr.guardOpen(); err != nil {
		return err
	}
	if !sr.MinRequirementsMet {
		return dErrors.New(dErrors.CodePreconditionFailed, "minimum requirements not met; ask the client to complete the data")
	}
	return nil
}

// ApplyComplianceApproval marks the Compliance gate approved. If Treasury
// already approved, both parallel reviews are done and the record flips to
// Trading's final analysis; otherwise Finance is the outstanding reviewer.
func (sr *StatusRecord) ApplyComplianceApproval(actor id.UserID, now time.Time) {
	sr.ComplianceQualified = true
	sr.IsPending = true
	if sr.TreasuryQualified {
		sr.PendingOwner = OwnerTrading
		sr.PendingDetails = "Compliance and Finance approved. Awaiting final analysis (Trading)."
	} else {
		sr.PendingOwner = OwnerFinance
		sr.PendingDetails = "Compliance approved. Awaiting Finance decision."
	}
	sr.touch(actor, now)
}

// ApplyComplianceRejection terminates the workflow at the Compliance gate.
func (sr *StatusRecord) ApplyComplianceRejection(actor id.UserID, now time.Time) {
	sr.ComplianceQualified = false
	sr.IsPending = false
	sr.PendingOwner = OwnerNone
	sr.PendingDetails = "Client not registered (Compliance)."
	sr.touch(actor, now)
}

// CanTreasuryDecide checks the Treasury/Finance gate precondition.
func (sr *StatusRecord) CanTreasuryDecide() error {
	if err := sr.guardOpen(); err != nil {
		return err
	}
	if !sr.MinRequirementsMet {
		return dErrors.New(dErrors.CodePreconditionFailed, "minimum requirements not met")
	}
	return nil
}

// ApplyTreasuryApproval marks the Treasury gate approved, flipping to
// Trading's final analysis once Compliance has also approved.
func (sr *StatusRecord) ApplyTreasuryApproval(actor id.UserID, now time.Time) {
	sr.TreasuryQualified = true
	sr.IsPending = true
	if sr.ComplianceQualified {
		sr.PendingOwner = OwnerTrading
		sr.PendingDetails = "Compliance and Finance approved. Awaiting final analysis (Trading)."
	} else {
		sr.PendingOwner = OwnerCompliance
		sr.PendingDetails = "Finance approved. Awaiting Compliance decision."
	}
	sr.touch(actor, now)
}

// ValidateTreasuryRisk enforces the hard validation on the Treasury reject
// path: a rejection without a risk justification is refused outright, which
// is distinct from the business rejection itself.
func ValidateTreasuryRisk(risk string) error {
	if strings.TrimSpace(risk) == "" {
		return dErrors.New(dErrors.CodePreconditionFailed, "a risk justification is required to reject at the Finance gate")
	}
	return nil
}

// ApplyTreasuryRejection records the Finance rejection. Unlike the other
// gates this is not terminal: the company stays queued with Finance so the
// decision can be revisited after the risk is addressed.
func (sr *StatusRecord) ApplyTreasuryRejection(actor id.UserID, risk string, now time.Time) {
	sr.TreasuryQualified = false
	sr.IsPending = true
	sr.PendingOwner = OwnerFinance
	sr.TreasuryRisk = risk
	sr.PendingDetails = fmt.Sprintf("Finance rejected. Risk: %s", risk)
	sr.touch(actor, now)
}

// CanTradingDecide checks the Trading enablement precondition. Treasury
// state is deliberately irrelevant here.
func (sr *StatusRecord) CanTradingDecide() error {
	if err := sr.guardOpen(); err != nil {
		return err
	}
	if !sr.ComplianceQualified {
		return dErrors.New(dErrors.CodePreconditionFailed, "Compliance approval is required before Trading can act")
	}
	return nil
}

// ApplyTradingApproval enables trading and advances to the final-analysis
// sub-gate, still owned by Trading.
func (sr *StatusRecord) ApplyTradingApproval(actor id.UserID, now time.Time) {
	sr.TradingQualified = true
	sr.IsPending = true
	sr.ClientOnboardingFinished = false
	sr.PendingOwner = OwnerTrading
	sr.PendingDetails = "Trading enabled. Awaiting final analysis."
	sr.touch(actor, now)
}

// ApplyTradingRejection terminates the workflow at the Trading gate. The
// reason is optional free text.
func (sr *StatusRecord) ApplyTradingRejection(actor id.UserID, reason string, now time.Time) {
	sr.TradingQualified = false
	sr.IsPending = false
	sr.PendingOwner = OwnerNone
	sr.TradingRejectReason = reason
	sr.PendingDetails = "Client not registered (Trading)."
	if reason != "" {
		sr.PendingDetails += fmt.Sprintf(" Reason: %s", reason)
	}
	sr.touch(actor, now)
}

// CanFinalAnalysisDecide checks the final-analysis precondition.
func (sr *StatusRecord) CanFinalAnalysisDecide() error {
	if err := sr.guardOpen(); err != nil {
		return err
	}
	if !sr.MinRequirementsMet || !sr.ComplianceQualified {
		return dErrors.New(dErrors.CodePreconditionFailed, "minimum requirements and Compliance approval are required for final analysis")
	}
	return nil
}

// ApplyFinalAnalysisApproval routes the company to Procurement for SAP
// registration.
func (sr *StatusRecord) ApplyFinalAnalysisApproval(actor id.UserID, now time.Time) {
	sr.IsPending = true
	sr.PendingOwner = OwnerProcurement
	sr.PendingDetails = "Final analysis approved. Register in SAP."
	sr.touch(actor, now)
}

// ApplyFinalAnalysisRejection terminates the workflow at final analysis.
func (sr *StatusRecord) ApplyFinalAnalysisRejection(actor id.UserID, now time.Time) {
	sr.IsPending = false
	sr.PendingOwner = OwnerNone
	sr.PendingDetails = "Client not registered (Final Analysis)."
	sr.touch(actor, now)
}

// CanRegisterSAP checks the Procurement gate. The gate itself has no
// business precondition beyond the workflow still being open.
func (sr *StatusRecord) CanRegisterSAP() error {
	return sr.guardOpen()
}

// ApplySAPRegistration marks onboarding finished. Terminal success.
func (sr *StatusRecord) ApplySAPRegistration(actor id.UserID, now time.Time) {
	sr.ClientOnboardingFinished = true
	sr.IsPending = false
	sr.PendingOwner = OwnerNone
	sr.PendingDetails = "Registered in SAP."
	sr.touch(actor, now)
}

// ApplyRequirementsUnmet records a failed eligibility evaluation, handing the
// pending action back to the client user.
func (sr *StatusRecord) ApplyRequirementsUnmet(missing []string, now time.Time) {
	sr.MinRequirementsMet = false
	sr.IsPending = true
	sr.PendingOwner = OwnerUser
	if len(missing) > 0 {
		sr.PendingDetails = fmt.Sprintf("Minimum requirements pending: %s", strings.Join(missing, ", "))
	} else {
		sr.PendingDetails = "Minimum requirements pending."
	}
	sr.UpdatedAt = now
}

// ApplyRequirementsMet records a successful eligibility evaluation, releasing
// the company to the parallel Compliance and Finance reviews.
func (sr *StatusRecord) ApplyRequirementsMet(now time.Time) {
	sr.MinRequirementsMet = true
	sr.IsPending = true
	sr.PendingOwner = OwnerNone
	sr.PendingDetails = "Awaiting Compliance and Finance review."
	sr.UpdatedAt = now
}

func (sr *StatusRecord) touch(actor id.UserID, now time.Time) {
	sr.LastUpdatedBy = actor
	sr.UpdatedAt = now
}
