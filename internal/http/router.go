// Package httpapi assembles the portal's HTTP surface: public auth and
// operational endpoints plus the authenticated onboarding API.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	companyhandler "kycportal/internal/company/handler"
	"kycportal/internal/directory"
	identityhandler "kycportal/internal/identity/handler"
	notificationhandler "kycportal/internal/notification/handler"
	"kycportal/internal/platform/middleware"
	rddhandler "kycportal/internal/rdd/handler"
	workflowhandler "kycportal/internal/workflow/handler"
	"kycportal/pkg/platform/httputil"
)

// HealthChecker reports the health of one backing dependency.
type HealthChecker func(ctx context.Context) error

// Deps carries everything the router mounts.
type Deps struct {
	Identity      *identityhandler.Handler
	Company       *companyhandler.Handler
	Workflow      *workflowhandler.Handler
	Notifications *notificationhandler.Handler
	RDD           *rddhandler.Handler

	JWTValidator middleware.JWTValidator
	Logger       *slog.Logger

	// HealthCheckers are probed by /healthz, keyed by component name.
	HealthCheckers map[string]HealthChecker
}

// internalRoles is the coarse guard on gate-decision routes. The service
// still enforces the exact group per gate.
var internalRoles = []string{
	directory.RoleCompliance,
	directory.RoleFinance,
	directory.RoleTrading,
	directory.RoleProcurement,
	directory.RoleStaff,
}

// NewRouter wires all endpoints with their middleware chains.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)

	r.Get("/healthz", handleHealth(deps.HealthCheckers))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	deps.Identity.Register(r)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(deps.JWTValidator, deps.Logger))

		deps.Company.Register(r)
		deps.Workflow.Register(r)
		deps.Notifications.Register(r)
		deps.RDD.Register(r)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(deps.Logger, internalRoles...))
			deps.Workflow.RegisterDecisions(r)
		})
	})
	return r
}

func handleHealth(checkers map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		components := make(map[string]string, len(checkers))
		healthy := true
		for name, check := range checkers {
			if err := check(ctx); err != nil {
				components[name] = err.Error()
				healthy = false
				continue
			}
			components[name] = "ok"
		}

		status := http.StatusOK
		state := "ok"
		if !healthy {
			status = http.StatusServiceUnavailable
			state = "degraded"
		}
		httputil.WriteJSON(w, status, map[string]any{
			"status":     state,
			"components": components,
		})
	}
}
