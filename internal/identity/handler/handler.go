package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"kycportal/internal/identity/models"
	"kycportal/internal/identity/service"
	"kycportal/pkg/platform/httputil"
	"kycportal/pkg/requestcontext"
)

// Service defines the identity operations the handler needs.
type Service interface {
	Login(ctx context.Context, email, password string) (string, *models.User, error)
}

// Handler wires authentication endpoints to the identity service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts identity endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/token", h.HandleToken)
}

type tokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// HandleToken handles POST /auth/token requests.
func (h *Handler) HandleToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[tokenRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	accessToken, _, err := h.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, tokenResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(service.AccessTokenTTL.Seconds()),
	})
}
