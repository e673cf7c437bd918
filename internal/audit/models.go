package audit

import (
	"time"

	"github.com/google/uuid"
)

// Event is emitted from domain logic to capture key workflow actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        uuid.UUID `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	ActorID   string    `json:"actor_id"`
	CompanyID string    `json:"company_id"`
	Action    string    `json:"action"`
	Decision  string    `json:"decision,omitempty"`
	Details   string    `json:"details,omitempty"`
}

// Actions recorded by the workflow engine and the reactive trigger.
const (
	ActionComplianceDecision    = "compliance_decision"
	ActionFinanceDecision       = "finance_decision"
	ActionTradingDecision       = "trading_decision"
	ActionFinalAnalysisDecision = "final_analysis_decision"
	ActionSAPRegistration       = "sap_registration"
	ActionRequirementsChanged   = "min_requirements_changed"
)
