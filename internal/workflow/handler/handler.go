package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"kycportal/internal/workflow/models"
	id "kycportal/pkg/domain"
	"kycportal/pkg/platform/httputil"
	"kycportal/pkg/requestcontext"
)

// Service defines the workflow operations the handler needs.
type Service interface {
	GetStatus(ctx context.Context, companyID id.CompanyID) (*models.StatusRecord, error)
	ComplianceDecision(ctx context.Context, companyID id.CompanyID, decision models.Decision) (*models.StatusRecord, error)
	TreasuryDecision(ctx context.Context, companyID id.CompanyID, decision models.Decision, risk string) (*models.StatusRecord, error)
	TradingDecision(ctx context.Context, companyID id.CompanyID, decision models.Decision, reason string) (*models.StatusRecord, error)
	FinalAnalysisDecision(ctx context.Context, companyID id.CompanyID, decision models.Decision) (*models.StatusRecord, error)
	RegisterSAP(ctx context.Context, companyID id.CompanyID) (*models.StatusRecord, error)
}

// Handler wires status and gate-decision endpoints to the workflow service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the status endpoint on the router. It is readable by any
// authenticated user, including the company creator.
func (h *Handler) Register(r chi.Router) {
	r.Get("/companies/{companyID}/status", h.HandleGetStatus)
}

// RegisterDecisions mounts the gate-decision endpoints. The router guards
// them with a coarse internal-roles check; the per-gate group check happens
// in the service.
func (h *Handler) RegisterDecisions(r chi.Router) {
	r.Post("/companies/{companyID}/decisions/compliance", h.HandleComplianceDecision)
	r.Post("/companies/{companyID}/decisions/finance", h.HandleFinanceDecision)
	r.Post("/companies/{companyID}/decisions/trading", h.HandleTradingDecision)
	r.Post("/companies/{companyID}/decisions/final-analysis", h.HandleFinalAnalysisDecision)
	r.Post("/companies/{companyID}/sap-registration", h.HandleSAPRegistration)
}

type decisionRequest struct {
	Decision string `json:"decision"`
	Risk     string `json:"risk,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

func (h *Handler) companyID(r *http.Request) (id.CompanyID, error) {
	return id.ParseCompanyID(chi.URLParam(r, "companyID"))
}

// HandleGetStatus handles GET /companies/{companyID}/status requests.
func (h *Handler) HandleGetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	companyID, err := h.companyID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	sr, err := h.service.GetStatus(ctx, companyID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sr)
}

type decide func(ctx context.Context, companyID id.CompanyID, req decisionRequest) (*models.StatusRecord, error)

func (h *Handler) handleDecision(w http.ResponseWriter, r *http.Request, gate string, apply decide) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	companyID, err := h.companyID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[decisionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	sr, err := apply(ctx, companyID, req)
	if err != nil {
		h.logger.WarnContext(ctx, "gate decision refused",
			"request_id", requestID,
			"gate", gate,
			"company_id", companyID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "gate decision handled",
		"request_id", requestID,
		"gate", gate,
		"company_id", companyID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, sr)
}

// HandleComplianceDecision handles POST /companies/{companyID}/decisions/compliance.
func (h *Handler) HandleComplianceDecision(w http.ResponseWriter, r *http.Request) {
	h.handleDecision(w, r, "compliance", func(ctx context.Context, companyID id.CompanyID, req decisionRequest) (*models.StatusRecord, error) {
		decision, err := models.ParseDecision(req.Decision)
		if err != nil {
			return nil, err
		}
		return h.service.ComplianceDecision(ctx, companyID, decision)
	})
}

// HandleFinanceDecision handles POST /companies/{companyID}/decisions/finance.
func (h *Handler) HandleFinanceDecision(w http.ResponseWriter, r *http.Request) {
	h.handleDecision(w, r, "finance", func(ctx context.Context, companyID id.CompanyID, req decisionRequest) (*models.StatusRecord, error) {
		decision, err := models.ParseDecision(req.Decision)
		if err != nil {
			return nil, err
		}
		return h.service.TreasuryDecision(ctx, companyID, decision, req.Risk)
	})
}

// HandleTradingDecision handles POST /companies/{companyID}/decisions/trading.
func (h *Handler) HandleTradingDecision(w http.ResponseWriter, r *http.Request) {
	h.handleDecision(w, r, "trading", func(ctx context.Context, companyID id.CompanyID, req decisionRequest) (*models.StatusRecord, error) {
		decision, err := models.ParseDecision(req.Decision)
		if err != nil {
			return nil, err
		}
		return h.service.TradingDecision(ctx, companyID, decision, req.Reason)
	})
}

// HandleFinalAnalysisDecision handles POST /companies/{companyID}/decisions/final-analysis.
func (h *Handler) HandleFinalAnalysisDecision(w http.ResponseWriter, r *http.Request) {
	h.handleDecision(w, r, "final_analysis", func(ctx context.Context, companyID id.CompanyID, req decisionRequest) (*models.StatusRecord, error) {
		decision, err := models.ParseDecision(req.Decision)
		if err != nil {
			return nil, err
		}
		return h.service.FinalAnalysisDecision(ctx, companyID, decision)
	})
}

// HandleSAPRegistration handles POST /companies/{companyID}/sap-registration.
// Single-outcome action: no decision token.
func (h *Handler) HandleSAPRegistration(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	companyID, err := h.companyID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	sr, err := h.service.RegisterSAP(ctx, companyID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sr)
}
