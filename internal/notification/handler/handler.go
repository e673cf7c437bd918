package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"kycportal/internal/notification/models"
	id "kycportal/pkg/domain"
	dErrors "kycportal/pkg/domain-errors"
	"kycportal/pkg/platform/httputil"
	"kycportal/pkg/requestcontext"
)

// Service defines the notification operations the handler needs.
type Service interface {
	List(ctx context.Context, recipient id.UserID) ([]*models.Notification, error)
	MarkRead(ctx context.Context, notificationID id.NotificationID, recipient id.UserID) error
	UnreadCount(ctx context.Context, recipient id.UserID) (int, error)
}

// Handler wires notification endpoints to the dispatcher service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts notification endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/notifications", h.HandleList)
	r.Get("/notifications/unread-count", h.HandleUnreadCount)
	r.Post("/notifications/{notificationID}/read", h.HandleMarkRead)
}

// HandleList handles GET /notifications requests for the caller's own
// notifications.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	notifications, err := h.service.List(ctx, userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if notifications == nil {
		notifications = []*models.Notification{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"notifications": notifications})
}

// HandleUnreadCount handles GET /notifications/unread-count requests.
func (h *Handler) HandleUnreadCount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	count, err := h.service.UnreadCount(ctx, userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]int{"unread": count})
}

// HandleMarkRead handles POST /notifications/{notificationID}/read requests.
func (h *Handler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	notificationID, err := id.ParseNotificationID(chi.URLParam(r, "notificationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.MarkRead(ctx, notificationID, userID); err != nil {
		h.logger.WarnContext(ctx, "mark notification read failed",
			"request_id", requestcontext.RequestID(ctx),
			"notification_id", notificationID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "read"})
}
