package testutil

import (
	"context"
	"net/http"

	"sanitrack/pkg/requestcontext"
)

// WithUserID adds a user ID to the request context, as the auth middleware
// would for an authenticated request.
func WithUserID(req *http.Request, userID string) *http.Request {
	return req.WithContext(requestcontext.WithUserID(req.Context(), userID))
}

// WithOrganization scopes the request to orgID, as the organization
// middleware would.
func WithOrganization(req *http.Request, orgID string) *http.Request {
	return req.WithContext(requestcontext.WithOrganization(req.Context(), orgID, ""))
}

// WithAuth sets both the user and the organization scope.
func WithAuth(req *http.Request, userID, orgID string) *http.Request {
	return WithOrganization(WithUserID(req, userID), orgID)
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}
