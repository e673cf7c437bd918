package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"kycportal/pkg/requestcontext"
)

// RequestID assigns a request ID to every request, honoring an incoming
// X-Request-ID header so IDs propagate across service boundaries.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
