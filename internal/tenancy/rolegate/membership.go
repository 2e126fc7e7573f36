package rolegate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sanitrack/internal/query"
	"sanitrack/pkg/platform/sentinel"
)

const (
	profilesTable     = "profiles"
	profileUserColumn = "clerk_user_id"
	profileOrgColumn  = "organization_id"
	profileRoleColumn = "role"
	profileColumns    = "clerk_user_id, organization_id, role"
)

// ProfileLookup reads memberships from the profiles table.
type ProfileLookup struct {
	client *query.Client
}

// NewProfileLookup constructs a lookup over client.
func NewProfileLookup(client *query.Client) *ProfileLookup {
	return &ProfileLookup{client: client}
}

// LookupMembership selects the single profile row for userID in orgID.
func (l *ProfileLookup) LookupMembership(ctx context.Context, userID, orgID string) (Actor, error) {
	resp := l.client.From(profilesTable).
		Select(profileColumns).
		Eq(profileUserColumn, userID).
		Eq(profileOrgColumn, orgID).
		Limit(1).
		Execute(ctx)
	if resp.Err != nil {
		return Actor{}, fmt.Errorf("lookup membership: %w", resp.Err)
	}
	row := resp.First()
	if row == nil {
		return Actor{}, sentinel.ErrNotFound
	}
	actor := Actor{UserID: userID, OrganizationID: orgID}
	if v, ok := row[profileOrgColumn].(string); ok {
		actor.OrganizationID = v
	}
	if v, ok := row[profileRoleColumn].(string); ok {
		actor.Role = ParseRole(v)
	}
	return actor, nil
}

// MembershipGate authorizes checks against a MembershipLookup.
type MembershipGate struct {
	lookup MembershipLookup
}

// NewMembershipGate constructs a gate.
func NewMembershipGate(lookup MembershipLookup) *MembershipGate {
	return &MembershipGate{lookup: lookup}
}

// RequireRole resolves the actor's membership in the target organization and
// checks its role. Lookup failures other than "not a member" are returned as
// is; the caller must treat them as a denial.
func (g *MembershipGate) RequireRole(ctx context.Context, check Check) (Actor, error) {
	check.UserID = strings.TrimSpace(check.UserID)
	check.OrganizationID = strings.TrimSpace(check.OrganizationID)
	if check.UserID == "" {
		return Actor{}, deny(check, "", ReasonUnauthenticated)
	}
	if check.OrganizationID == "" {
		return Actor{}, deny(check, "", ReasonNoOrganization)
	}

	actor, err := g.lookup.LookupMembership(ctx, check.UserID, check.OrganizationID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return Actor{}, deny(check, "", ReasonNotMember)
	}
	if err != nil {
		return Actor{}, err
	}
	if actor.OrganizationID != check.OrganizationID {
		return Actor{}, deny(check, actor.Role, ReasonNotMember)
	}
	if !allows(check.Allowed, actor.Role) {
		return Actor{}, deny(check, actor.Role, ReasonRoleNotAllowed)
	}
	return actor, nil
}
