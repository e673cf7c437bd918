package models

import (
	"strings"

	dErrors "kycportal/pkg/domain-errors"
)

// Decision is the approve/reject token carried by gate endpoints.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// ParseDecision validates a decision token from its wire form.
func ParseDecision(s string) (Decision, error) {
	switch Decision(strings.ToLower(strings.TrimSpace(s))) {
	case DecisionApprove:
		return DecisionApprove, nil
	case DecisionReject:
		return DecisionReject, nil
	default:
		return "", dErrors.New(dErrors.CodeInvalidInput, "decision must be approve or reject")
	}
}
