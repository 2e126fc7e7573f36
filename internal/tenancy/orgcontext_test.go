package tenancy

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"sanitrack/pkg/requestcontext"
)

type OrgContextSuite struct {
	suite.Suite
}

func TestOrgContextSuite(t *testing.T) {
	suite.Run(t, new(OrgContextSuite))
}

func (s *OrgContextSuite) SetupTest() {
	ClearOrgContext()
}

func (s *OrgContextSuite) TearDownTest() {
	ClearOrgContext()
}

func strPtr(v string) *string { return &v }

func (s *OrgContextSuite) TestSetMergesProvidedFields() {
	SetOrgContext(OrgContextPatch{OrganizationID: strPtr("org-1"), OrgSlug: strPtr("acme")})
	SetOrgContext(OrgContextPatch{OrganizationID: strPtr("org-2")})

	s.Equal(OrgContext{OrganizationID: "org-2", OrgSlug: "acme"}, GetOrgContext())
}

func (s *OrgContextSuite) TestSnapshotIsDetached() {
	SetOrgContext(OrgContextPatch{OrganizationID: strPtr("org-1")})
	snap := GetOrgContext()
	snap.OrganizationID = "tampered"

	s.Equal("org-1", GetOrgContext().OrganizationID)
}

func (s *OrgContextSuite) TestResolveOrgID() {
	ctx := context.Background()

	s.Run("falls back to the store and clears to empty", func() {
		SetOrgContext(OrgContextPatch{OrganizationID: strPtr("org-42")})
		s.Equal("org-42", ResolveOrgID(ctx, ""))

		ClearOrgContext()
		s.Empty(ResolveOrgID(ctx, ""))
	})

	s.Run("explicit value wins", func() {
		SetOrgContext(OrgContextPatch{OrganizationID: strPtr("org-42")})
		reqCtx := requestcontext.WithOrganization(ctx, "org-ctx", "")
		s.Equal("org-explicit", ResolveOrgID(reqCtx, "org-explicit"))
	})

	s.Run("request context wins over the store", func() {
		SetOrgContext(OrgContextPatch{OrganizationID: strPtr("org-42")})
		reqCtx := requestcontext.WithOrganization(ctx, "org-ctx", "ctx-slug")
		s.Equal("org-ctx", ResolveOrgID(reqCtx, ""))
		s.Equal("ctx-slug", ResolveOrgSlug(reqCtx, ""))
	})

	s.Run("is repeatable", func() {
		SetOrgContext(OrgContextPatch{OrganizationID: strPtr("org-7")})
		first := ResolveOrgID(ctx, "")
		s.Equal(first, ResolveOrgID(ctx, ""))
	})
}

func (s *OrgContextSuite) TestResolveOrgSlug() {
	ctx := context.Background()
	SetOrgContext(OrgContextPatch{OrgSlug: strPtr("acme")})

	s.Equal("acme", ResolveOrgSlug(ctx, ""))
	s.Equal("other", ResolveOrgSlug(ctx, "other"))

	ClearOrgContext()
	s.Empty(ResolveOrgSlug(ctx, ""))
}

func (s *OrgContextSuite) TestStoreIsSafeForConcurrentUse() {
	store := NewOrgContextStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			store.Set(OrgContextPatch{OrganizationID: strPtr("org-a")})
		}()
		go func() {
			defer wg.Done()
			_ = store.Get()
		}()
	}
	wg.Wait()
	s.Equal("org-a", store.Get().OrganizationID)
}
