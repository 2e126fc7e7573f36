package tenancy

import (
	"context"
	"strings"

	dErrors "sanitrack/pkg/domain-errors"
)

// ErrOrganizationIDRequired is returned before any query is built when no
// usable organization id could be resolved.
var ErrOrganizationIDRequired = dErrors.New(dErrors.CodeTenantRequired, "Organization ID required")

// errIsolationRequiresOrg is the message the one-shot helpers attach.
const errIsolationRequiresOrg = "Multi-tenant data isolation requires organization_id to be set"

// RequireOrgID resolves orgID (see ResolveOrgID), trims it, and fails closed
// when nothing usable remains. It checks tenant identity only, not permission.
func RequireOrgID(ctx context.Context, orgID string) (string, error) {
	resolved := strings.TrimSpace(ResolveOrgID(ctx, orgID))
	if resolved == "" {
		return "", ErrOrganizationIDRequired
	}
	return resolved, nil
}
