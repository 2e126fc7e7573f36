package httptransport

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	dErrors "sanitrack/pkg/domain-errors"
	audit "sanitrack/pkg/platform/audit"
	"sanitrack/pkg/platform/httputil"
	"sanitrack/pkg/requestcontext"
)

// AuditHandler exposes the audit trail to operators.
type AuditHandler struct {
	reader audit.Reader
	logger *slog.Logger
}

func NewAuditHandler(reader audit.Reader, logger *slog.Logger) *AuditHandler {
	return &AuditHandler{reader: reader, logger: logger}
}

// Register mounts audit endpoints on the router. Mount behind admin auth.
func (h *AuditHandler) Register(r chi.Router) {
	r.Get("/audit/{orgID}", h.HandleListByOrganization)
}

// AuditListResponse is one organization's audit trail.
type AuditListResponse struct {
	OrganizationID string        `json:"organization_id"`
	Events         []audit.Event `json:"events"`
}

// HandleListByOrganization handles GET /admin/audit/{orgID}.
func (h *AuditHandler) HandleListByOrganization(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orgID := strings.TrimSpace(chi.URLParam(r, "orgID"))
	if orgID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeTenantRequired, "Organization ID required"))
		return
	}

	events, err := h.reader.ListByOrganization(ctx, orgID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list audit events",
			"request_id", requestcontext.RequestID(ctx),
			"organization_id", orgID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit events"))
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	httputil.WriteJSON(w, http.StatusOK, AuditListResponse{OrganizationID: orgID, Events: events})
}
