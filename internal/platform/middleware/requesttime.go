package middleware

import (
	"net/http"
	"time"

	"kycportal/pkg/requestcontext"
)

// RequestTime captures a single timestamp at the start of each request so
// every layer touched by the request observes the same clock reading.
func RequestTime(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now().UTC())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
