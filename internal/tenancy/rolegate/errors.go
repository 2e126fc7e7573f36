package rolegate

import (
	"fmt"

	dErrors "sanitrack/pkg/domain-errors"
)

// ErrInsufficientRole is the coded error every AuthorizationError unwraps to.
var ErrInsufficientRole = dErrors.New(dErrors.CodeForbidden, "Insufficient role")

// Reasons recorded on an AuthorizationError.
const (
	ReasonUnauthenticated = "unauthenticated"
	ReasonNoOrganization  = "organization_missing"
	ReasonNotMember       = "not_a_member"
	ReasonRoleNotAllowed  = "role_not_allowed"
)

// AuthorizationError reports a failed role check. Its message is always
// "Insufficient role"; Reason tells operators which part of the check failed.
type AuthorizationError struct {
	UserID         string
	OrganizationID string
	Role           Role
	Reason         string
}

func (e *AuthorizationError) Error() string {
	return ErrInsufficientRole.Message
}

// Unwrap exposes ErrInsufficientRole so dErrors.HasCode(err, CodeForbidden) holds.
func (e *AuthorizationError) Unwrap() error {
	return ErrInsufficientRole
}

// Detail is a log-safe description of the failure.
func (e *AuthorizationError) Detail() string {
	if e.Role != "" {
		return fmt.Sprintf("%s: user %s role %s in organization %s", e.Reason, e.UserID, e.Role, e.OrganizationID)
	}
	return fmt.Sprintf("%s: user %s in organization %s", e.Reason, e.UserID, e.OrganizationID)
}

func deny(check Check, role Role, reason string) *AuthorizationError {
	return &AuthorizationError{
		UserID:         check.UserID,
		OrganizationID: check.OrganizationID,
		Role:           role,
		Reason:         reason,
	}
}
