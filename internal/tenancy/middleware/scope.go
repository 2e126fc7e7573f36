// Package middleware binds the organization named in the route to the request
// context so every tenancy helper downstream resolves it.
package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"sanitrack/internal/tenancy"
	"sanitrack/pkg/platform/httputil"
	"sanitrack/pkg/requestcontext"
)

// HeaderOrgSlug optionally carries the organization slug.
const HeaderOrgSlug = "X-Org-Slug"

// RequireOrganization reads the organization from the chi URL parameter param.
// A missing or blank value is rejected before any handler runs.
func RequireOrganization(param string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			orgID := strings.TrimSpace(chi.URLParam(r, param))
			if orgID == "" {
				logger.WarnContext(ctx, "request missing organization scope",
					"request_id", requestcontext.RequestID(ctx),
					"path", r.URL.Path,
				)
				httputil.WriteError(w, tenancy.ErrOrganizationIDRequired)
				return
			}

			slug := strings.TrimSpace(r.Header.Get(HeaderOrgSlug))
			ctx = requestcontext.WithOrganization(ctx, orgID, slug)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
