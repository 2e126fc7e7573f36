// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// Middleware sets these values once at the transport boundary; services and the
// tenancy layer read them. Keeping the package free of net/http lets workers and
// CLIs populate the same values without pulling in HTTP code.
//
// Usage in services (read values):
//
//	userID := requestcontext.UserID(ctx)
//	orgID := requestcontext.OrganizationID(ctx)
//
// Usage in middleware (set values):
//
//	ctx = requestcontext.WithUserID(ctx, userID)
//	ctx = requestcontext.WithOrganization(ctx, orgID, slug)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"
)

// Context key types (unexported for encapsulation).
type (
	userIDKey         struct{}
	organizationIDKey struct{}
	orgSlugKey        struct{}
	clientIPKey       struct{}
	userAgentKey      struct{}
	deviceKey         struct{}
	requestIDKey      struct{}
	requestTimeKey    struct{}
)

// Exported context keys for direct use in tests that need context.WithValue.
var (
	ContextKeyUserID         = userIDKey{}
	ContextKeyOrganizationID = organizationIDKey{}
	ContextKeyOrgSlug        = orgSlugKey{}
	ContextKeyClientIP       = clientIPKey{}
	ContextKeyUserAgent      = userAgentKey{}
	ContextKeyDevice         = deviceKey{}
	ContextKeyRequestID      = requestIDKey{}
	ContextKeyRequestTime    = requestTimeKey{}
)

// -----------------------------------------------------------------------------
// Actor
// -----------------------------------------------------------------------------

// UserID retrieves the authenticated user ID from the context.
// Returns "" if not set.
func UserID(ctx context.Context) string {
	if userID, ok := ctx.Value(ContextKeyUserID).(string); ok {
		return userID
	}
	return ""
}

// WithUserID injects a user ID into the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ContextKeyUserID, userID)
}

// -----------------------------------------------------------------------------
// Organization (request-scoped tenant)
// -----------------------------------------------------------------------------

// OrganizationID retrieves the request-scoped organization ID.
// Returns "" if not set.
func OrganizationID(ctx context.Context) string {
	if orgID, ok := ctx.Value(ContextKeyOrganizationID).(string); ok {
		return orgID
	}
	return ""
}

// OrgSlug retrieves the request-scoped organization slug.
func OrgSlug(ctx context.Context) string {
	if slug, ok := ctx.Value(ContextKeyOrgSlug).(string); ok {
		return slug
	}
	return ""
}

// WithOrganization injects the organization ID and slug for the current request.
// An empty slug leaves any previously set slug untouched.
func WithOrganization(ctx context.Context, orgID, slug string) context.Context {
	ctx = context.WithValue(ctx, ContextKeyOrganizationID, orgID)
	if slug != "" {
		ctx = context.WithValue(ctx, ContextKeyOrgSlug, slug)
	}
	return ctx
}

// -----------------------------------------------------------------------------
// Client metadata (IP, User-Agent)
// -----------------------------------------------------------------------------

// ClientIP retrieves the client IP address from the context.
func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(ContextKeyClientIP).(string); ok {
		return ip
	}
	return ""
}

// UserAgent retrieves the User-Agent from the context.
func UserAgent(ctx context.Context) string {
	if ua, ok := ctx.Value(ContextKeyUserAgent).(string); ok {
		return ua
	}
	return ""
}

// Device retrieves the parsed client device summary, e.g. "Chrome on Windows 10".
func Device(ctx context.Context) string {
	if device, ok := ctx.Value(ContextKeyDevice).(string); ok {
		return device
	}
	return ""
}

// WithDevice injects the parsed client device summary.
func WithDevice(ctx context.Context, device string) context.Context {
	return context.WithValue(ctx, ContextKeyDevice, device)
}

// WithClientMetadata injects client IP and User-Agent into a context.
func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, ContextKeyClientIP, clientIP)
	ctx = context.WithValue(ctx, ContextKeyUserAgent, userAgent)
	return ctx
}

// -----------------------------------------------------------------------------
// Request metadata
// -----------------------------------------------------------------------------

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() if not set (workers, CLI, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
