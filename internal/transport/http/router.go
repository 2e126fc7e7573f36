// Package httptransport is the thin HTTP layer. Handlers decode, delegate to
// the tenancy services and encode; authorization and isolation live below.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sanitrack/internal/platform/metrics"
	tenantmw "sanitrack/internal/tenancy/middleware"
	"sanitrack/pkg/platform/httputil"
	"sanitrack/pkg/platform/middleware/admin"
	authmw "sanitrack/pkg/platform/middleware/auth"
	"sanitrack/pkg/platform/middleware/metadata"
	request "sanitrack/pkg/platform/middleware/request"
	"sanitrack/pkg/platform/middleware/requesttime"
)

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// RouterDeps collects what the router mounts.
type RouterDeps struct {
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
	Validator  authmw.JWTValidator
	AdminToken string
	// AdminTokenHash, when set, is checked instead of AdminToken.
	AdminTokenHash string
	Entities       *EntityHandler
	Audit          *AuditHandler
	Health         map[string]HealthCheck
}

// NewRouter wires all public endpoints.
//
//	/healthz                         liveness and dependency checks
//	/metrics                         Prometheus (admin token)
//	/admin/audit/{orgID}             audit trail (admin token)
//	/v1/orgs/{orgID}/{entity}[/{id}] tenant-scoped entities (bearer token)
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}

	r.Get("/healthz", healthHandler(deps.Health))

	r.Group(func(r chi.Router) {
		if deps.AdminTokenHash != "" {
			r.Use(admin.RequireAdminTokenHash(deps.AdminTokenHash, deps.Logger))
		} else {
			r.Use(admin.RequireAdminToken(deps.AdminToken, deps.Logger))
		}
		if deps.Metrics != nil {
			r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
		}
		if deps.Audit != nil {
			r.Route("/admin", deps.Audit.Register)
		}
	})

	r.Route("/v1/orgs/{orgID}", func(r chi.Router) {
		r.Use(authmw.RequireAuth(deps.Validator, deps.Logger))
		r.Use(tenantmw.RequireOrganization("orgID", deps.Logger))
		deps.Entities.Register(r)
	})
	return r
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(r.Context()); err != nil {
				results[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}
		httputil.WriteJSON(w, status, map[string]any{"status": http.StatusText(status), "checks": results})
	}
}
