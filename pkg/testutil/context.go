package testutil

import (
	"net/http"
	"time"

	id "kycportal/pkg/domain"
	"kycportal/pkg/requestcontext"
)

// WithUser stamps the request context the way the auth middleware would for
// an authenticated caller with the given role groups.
func WithUser(req *http.Request, userID id.UserID, roles ...string) *http.Request {
	ctx := requestcontext.WithUserID(req.Context(), userID)
	ctx = requestcontext.WithRoles(ctx, roles)
	ctx = requestcontext.WithTime(ctx, time.Now().UTC())
	return req.WithContext(ctx)
}
