package tenancy

import (
	"context"
	"sync"

	"sanitrack/pkg/requestcontext"
)

// OrgContext is the active organization identity.
type OrgContext struct {
	OrganizationID string
	OrgSlug        string
}

// OrgContextPatch carries the fields SetOrgContext should change. Nil fields
// are left untouched.
type OrgContextPatch struct {
	OrganizationID *string
	OrgSlug        *string
}

// OrgContextStore is a mutex-guarded holder of a default organization.
//
// Request handlers should put the organization on the request context
// (requestcontext.WithOrganization) instead; the store is a fallback for
// single-tenant processes such as CLIs and workers that serve one organization
// at a time. A server handling several tenants concurrently must not rely on it.
type OrgContextStore struct {
	mu      sync.RWMutex
	current OrgContext
}

// NewOrgContextStore returns an empty store.
func NewOrgContextStore() *OrgContextStore {
	return &OrgContextStore{}
}

// Set merges patch into the store.
func (s *OrgContextStore) Set(patch OrgContextPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if patch.OrganizationID != nil {
		s.current.OrganizationID = *patch.OrganizationID
	}
	if patch.OrgSlug != nil {
		s.current.OrgSlug = *patch.OrgSlug
	}
}

// Clear resets both fields.
func (s *OrgContextStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = OrgContext{}
}

// Get returns a snapshot of the stored context.
func (s *OrgContextStore) Get() OrgContext {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

var defaultStore = NewOrgContextStore()

// SetOrgContext merges patch into the process-wide fallback store.
func SetOrgContext(patch OrgContextPatch) { defaultStore.Set(patch) }

// ClearOrgContext resets the process-wide fallback store. Call on sign-out and
// before switching organizations.
func ClearOrgContext() { defaultStore.Clear() }

// GetOrgContext returns a snapshot of the process-wide fallback store.
func GetOrgContext() OrgContext { return defaultStore.Get() }

// ResolveOrgID picks the organization for an operation: the explicit orgID,
// then the request-scoped organization on ctx, then the process-wide store.
// Returns "" when none is set.
func ResolveOrgID(ctx context.Context, orgID string) string {
	if orgID != "" {
		return orgID
	}
	if fromCtx := requestcontext.OrganizationID(ctx); fromCtx != "" {
		return fromCtx
	}
	return defaultStore.Get().OrganizationID
}

// ResolveOrgSlug follows the same precedence as ResolveOrgID.
func ResolveOrgSlug(ctx context.Context, slug string) string {
	if slug != "" {
		return slug
	}
	if fromCtx := requestcontext.OrgSlug(ctx); fromCtx != "" {
		return fromCtx
	}
	return defaultStore.Get().OrgSlug
}
