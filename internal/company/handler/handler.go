package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"kycportal/internal/company/models"
	"kycportal/internal/company/service"
	id "kycportal/pkg/domain"
	"kycportal/pkg/platform/httputil"
	"kycportal/pkg/requestcontext"
)

// Service defines the company operations the handler needs.
type Service interface {
	Create(ctx context.Context, name string) (*models.Company, error)
	Get(ctx context.Context, companyID id.CompanyID) (*models.Company, error)
	List(ctx context.Context) ([]*models.Company, error)
	Update(ctx context.Context, companyID id.CompanyID, req service.UpdateRequest) (*models.Company, error)
	UpsertOwnership(ctx context.Context, companyID id.CompanyID, details string) (*models.Ownership, error)
	GetOwnership(ctx context.Context, companyID id.CompanyID) (*models.Ownership, error)
}

// Handler wires the company data-entry endpoints to the company service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts company endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/companies", h.HandleCreate)
	r.Get("/companies", h.HandleList)
	r.Get("/companies/{companyID}", h.HandleGet)
	r.Put("/companies/{companyID}", h.HandleUpdate)
	r.Put("/companies/{companyID}/ownership", h.HandleUpsertOwnership)
	r.Get("/companies/{companyID}/ownership", h.HandleGetOwnership)
}

func (h *Handler) companyID(r *http.Request) (id.CompanyID, error) {
	return id.ParseCompanyID(chi.URLParam(r, "companyID"))
}

type createRequest struct {
	FullCompanyName string `json:"full_company_name"`
}

// HandleCreate handles POST /companies requests.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[createRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	company, err := h.service.Create(ctx, req.FullCompanyName)
	if err != nil {
		h.logger.WarnContext(ctx, "company creation refused",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, company)
}

// HandleList handles GET /companies requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	companies, err := h.service.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"companies": companies})
}

// HandleGet handles GET /companies/{companyID} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	companyID, err := h.companyID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	company, err := h.service.Get(r.Context(), companyID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, company)
}

// HandleUpdate handles PUT /companies/{companyID} requests. Absent fields
// are left unchanged; the eligibility evaluation runs before the response
// is written.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	companyID, err := h.companyID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[service.UpdateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	company, err := h.service.Update(ctx, companyID, req)
	if err != nil {
		h.logger.WarnContext(ctx, "company update refused",
			"request_id", requestID,
			"company_id", companyID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, company)
}

type ownershipRequest struct {
	Details string `json:"details"`
}

// HandleUpsertOwnership handles PUT /companies/{companyID}/ownership requests.
func (h *Handler) HandleUpsertOwnership(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	companyID, err := h.companyID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[ownershipRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	ownership, err := h.service.UpsertOwnership(ctx, companyID, req.Details)
	if err != nil {
		h.logger.WarnContext(ctx, "ownership update refused",
			"request_id", requestID,
			"company_id", companyID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ownership)
}

// HandleGetOwnership handles GET /companies/{companyID}/ownership requests.
func (h *Handler) HandleGetOwnership(w http.ResponseWriter, r *http.Request) {
	companyID, err := h.companyID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	ownership, err := h.service.GetOwnership(r.Context(), companyID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ownership)
}
