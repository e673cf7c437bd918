package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"kycportal/internal/rdd/models"
	"kycportal/internal/rdd/service"
	id "kycportal/pkg/domain"
	"kycportal/pkg/platform/httputil"
	"kycportal/pkg/requestcontext"
)

// Service defines the RDD operations the handler needs.
type Service interface {
	Create(ctx context.Context, companyID id.CompanyID, subject, body string) (*models.Thread, error)
	Get(ctx context.Context, threadID id.ThreadID) (*service.ThreadView, error)
	List(ctx context.Context) ([]*models.Thread, error)
	PostMessage(ctx context.Context, threadID id.ThreadID, body string) (*models.Message, error)
	Close(ctx context.Context, threadID id.ThreadID) (*models.Thread, error)
	Reopen(ctx context.Context, threadID id.ThreadID) (*models.Thread, error)
}

// Handler wires the Reverse Due Diligence endpoints to the RDD service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts RDD endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/rdd", h.HandleCreate)
	r.Get("/rdd", h.HandleList)
	r.Get("/rdd/{threadID}", h.HandleGet)
	r.Post("/rdd/{threadID}/messages", h.HandlePostMessage)
	r.Post("/rdd/{threadID}/close", h.HandleClose)
	r.Post("/rdd/{threadID}/reopen", h.HandleReopen)
}

func (h *Handler) threadID(r *http.Request) (id.ThreadID, error) {
	return id.ParseThreadID(chi.URLParam(r, "threadID"))
}

type createRequest struct {
	CompanyID string `json:"company_id"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
}

// HandleCreate handles POST /rdd requests.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[createRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	companyID, err := id.ParseCompanyID(req.CompanyID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	thread, err := h.service.Create(ctx, companyID, req.Subject, req.Body)
	if err != nil {
		h.logger.WarnContext(ctx, "rdd creation refused",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, thread)
}

// HandleList handles GET /rdd requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	threads, err := h.service.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"threads": threads})
}

// HandleGet handles GET /rdd/{threadID} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	threadID, err := h.threadID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	view, err := h.service.Get(r.Context(), threadID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

type messageRequest struct {
	Body string `json:"body"`
}

// HandlePostMessage handles POST /rdd/{threadID}/messages requests.
func (h *Handler) HandlePostMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	threadID, err := h.threadID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[messageRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	msg, err := h.service.PostMessage(ctx, threadID, req.Body)
	if err != nil {
		h.logger.WarnContext(ctx, "rdd message refused",
			"request_id", requestID,
			"thread_id", threadID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, msg)
}

// HandleClose handles POST /rdd/{threadID}/close requests.
func (h *Handler) HandleClose(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, h.service.Close)
}

// HandleReopen handles POST /rdd/{threadID}/reopen requests.
func (h *Handler) HandleReopen(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, h.service.Reopen)
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request, apply func(context.Context, id.ThreadID) (*models.Thread, error)) {
	threadID, err := h.threadID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	thread, err := apply(r.Context(), threadID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, thread)
}
