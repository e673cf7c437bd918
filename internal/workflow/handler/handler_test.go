package handler

import (
	"context"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"kycportal/internal/workflow/models"
	id "kycportal/pkg/domain"
	dErrors "kycportal/pkg/domain-errors"
	"kycportal/pkg/testutil"
)

// =============================================================================
// Workflow Handler Test Suite
// =============================================================================

type stubService struct {
	lastGate     string
	lastDecision models.Decision
	lastRisk     string
	record       *models.StatusRecord
	err          error
}

func (s *stubService) GetStatus(_ context.Context, companyID id.CompanyID) (*models.StatusRecord, error) {
	return s.record, s.err
}

func (s *stubService) ComplianceDecision(_ context.Context, _ id.CompanyID, decision models.Decision) (*models.StatusRecord, error) {
	s.lastGate, s.lastDecision = "compliance", decision
	return s.record, s.err
}

func (s *stubService) TreasuryDecision(_ context.Context, _ id.CompanyID, decision models.Decision, risk string) (*models.StatusRecord, error) {
	s.lastGate, s.lastDecision, s.lastRisk = "finance", decision, risk
	return s.record, s.err
}

func (s *stubService) TradingDecision(_ context.Context, _ id.CompanyID, decision models.Decision, _ string) (*models.StatusRecord, error) {
	s.lastGate, s.lastDecision = "trading", decision
	return s.record, s.err
}

func (s *stubService) FinalAnalysisDecision(_ context.Context, _ id.CompanyID, decision models.Decision) (*models.StatusRecord, error) {
	s.lastGate, s.lastDecision = "final_analysis", decision
	return s.record, s.err
}

func (s *stubService) RegisterSAP(_ context.Context, _ id.CompanyID) (*models.StatusRecord, error) {
	s.lastGate = "sap_registration"
	return s.record, s.err
}

type WorkflowHandlerSuite struct {
	suite.Suite
	service *stubService
	router  chi.Router
}

func TestWorkflowHandlerSuite(t *testing.T) {
	suite.Run(t, new(WorkflowHandlerSuite))
}

func (s *WorkflowHandlerSuite) SetupTest() {
	s.service = &stubService{
		record: models.NewStatusRecord(id.CompanyID(uuid.New()), time.Time{}),
	}
	h := New(s.service, slog.Default())
	s.router = chi.NewRouter()
	h.Register(s.router)
	h.RegisterDecisions(s.router)
}

func (s *WorkflowHandlerSuite) TestGetStatus() {
	companyID := uuid.NewString()

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/companies/"+companyID+"/status"))
	s.Equal(http.StatusOK, rr.Code)

	var body map[string]any
	testutil.DecodeJSON(s.T(), rr, &body)
	s.Equal("NONE", body["pending_owner"])
}

func (s *WorkflowHandlerSuite) TestDecisionRouting() {
	companyID := uuid.NewString()

	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(),
		http.MethodPost, "/companies/"+companyID+"/decisions/finance",
		map[string]string{"decision": "reject", "risk": "sanctions exposure"}))
	s.Equal(http.StatusOK, rr.Code)
	s.Equal("finance", s.service.lastGate)
	s.Equal(models.DecisionReject, s.service.lastDecision)
	s.Equal("sanctions exposure", s.service.lastRisk)
}

func (s *WorkflowHandlerSuite) TestInvalidInputs() {
	companyID := uuid.NewString()

	s.Run("malformed company id", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/companies/not-a-uuid/status"))
		s.Equal(http.StatusBadRequest, rr.Code)
	})

	s.Run("unknown decision token", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(),
			http.MethodPost, "/companies/"+companyID+"/decisions/compliance",
			map[string]string{"decision": "maybe"}))
		s.Equal(http.StatusBadRequest, rr.Code)
	})
}

func (s *WorkflowHandlerSuite) TestRefusalMapsToConflict() {
	companyID := uuid.NewString()
	s.service.err = dErrors.New(dErrors.CodePreconditionFailed, "minimum requirements not met")

	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(),
		http.MethodPost, "/companies/"+companyID+"/decisions/compliance",
		map[string]string{"decision": "approve"}))
	s.Equal(http.StatusConflict, rr.Code)

	var body map[string]string
	testutil.DecodeJSON(s.T(), rr, &body)
	s.Equal("minimum requirements not met", body["error_description"])
}
