// Package rolegate decides whether an actor may mutate an organization's data.
//
// A decision has two parts: the actor must hold a membership row in the target
// organization, and that membership's role must be one of the roles the
// operation allows. Any ambiguity denies.
package rolegate

import (
	"context"
	"slices"
	"strings"
)

// Role is an organization role.
type Role string

const (
	RoleOwner      Role = "owner"
	RoleAdmin      Role = "admin"
	RoleDispatcher Role = "dispatcher"
	RoleDriver     Role = "driver"
	RoleViewer     Role = "viewer"
)

// Members is every valid role. Requiring it checks membership only.
var Members = []Role{RoleOwner, RoleAdmin, RoleDispatcher, RoleDriver, RoleViewer}

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleDispatcher, RoleDriver, RoleViewer:
		return true
	}
	return false
}

// ParseRole normalizes a stored role value. Unknown values yield "" so they
// never match an allowed set.
func ParseRole(raw string) Role {
	r := Role(strings.ToLower(strings.TrimSpace(raw)))
	if !r.IsValid() {
		return ""
	}
	return r
}

// Check is one authorization question.
type Check struct {
	UserID         string
	OrganizationID string
	Allowed        []Role
}

// Actor is the membership the decision was made on.
type Actor struct {
	UserID         string `json:"user_id"`
	OrganizationID string `json:"organization_id"`
	Role           Role   `json:"role"`
}

// Gate authorizes a check, returning the resolved actor or an
// *AuthorizationError.
type Gate interface {
	RequireRole(ctx context.Context, check Check) (Actor, error)
}

// MembershipLookup finds a user's membership in one organization. It returns
// sentinel.ErrNotFound when the user is not a member.
type MembershipLookup interface {
	LookupMembership(ctx context.Context, userID, orgID string) (Actor, error)
}

// allows reports whether role is in allowed.
func allows(allowed []Role, role Role) bool {
	return role != "" && slices.Contains(allowed, role)
}
