package rolegate_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"sanitrack/internal/tenancy/metrics"
	"sanitrack/internal/tenancy/rolegate"
	"sanitrack/internal/tenancy/rolegate/mocks"
	"sanitrack/pkg/platform/circuit"
	"sanitrack/pkg/platform/sentinel"
)

type CachingLookupSuite struct {
	suite.Suite
	ctx     context.Context
	mr      *miniredis.Miniredis
	client  *redis.Client
	ctrl    *gomock.Controller
	source  *mocks.MockMembershipLookup
	metrics *metrics.Metrics
	cache   *rolegate.CachingLookup
}

func TestCachingLookupSuite(t *testing.T) {
	suite.Run(t, new(CachingLookupSuite))
}

func (s *CachingLookupSuite) SetupTest() {
	s.ctx = context.Background()
	s.mr = miniredis.RunT(s.T())
	s.client = redis.NewClient(&redis.Options{Addr: s.mr.Addr()})
	s.ctrl = gomock.NewController(s.T())
	s.source = mocks.NewMockMembershipLookup(s.ctrl)
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.cache = rolegate.NewCachingLookup(s.source, s.client,
		rolegate.WithTTL(time.Minute),
		rolegate.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		rolegate.WithMetrics(s.metrics),
	)
}

func (s *CachingLookupSuite) TearDownTest() {
	s.client.Close()
}

var admin = rolegate.Actor{UserID: "user-1", OrganizationID: "org-1", Role: rolegate.RoleAdmin}

func (s *CachingLookupSuite) TestCachesFoundMembership() {
	s.source.EXPECT().LookupMembership(gomock.Any(), "user-1", "org-1").Return(admin, nil).Times(1)

	first, err := s.cache.LookupMembership(s.ctx, "user-1", "org-1")
	s.Require().NoError(err)
	second, err := s.cache.LookupMembership(s.ctx, "user-1", "org-1")
	s.Require().NoError(err)

	s.Equal(admin, first)
	s.Equal(admin, second)
	s.True(s.mr.Exists("membership:org-1:user-1"))
	s.Equal(time.Minute, s.mr.TTL("membership:org-1:user-1"))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.MembershipCache.WithLabelValues("hit")))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.MembershipCache.WithLabelValues("miss")))
}

func (s *CachingLookupSuite) TestNeverCachesMissingMembership() {
	s.source.EXPECT().LookupMembership(gomock.Any(), "user-1", "org-2").Return(rolegate.Actor{}, sentinel.ErrNotFound).Times(2)

	for range 2 {
		_, err := s.cache.LookupMembership(s.ctx, "user-1", "org-2")
		s.True(errors.Is(err, sentinel.ErrNotFound))
	}
	s.False(s.mr.Exists("membership:org-2:user-1"))
}

func (s *CachingLookupSuite) TestExpiredEntryGoesBackToSource() {
	s.source.EXPECT().LookupMembership(gomock.Any(), "user-1", "org-1").Return(admin, nil).Times(2)

	_, err := s.cache.LookupMembership(s.ctx, "user-1", "org-1")
	s.Require().NoError(err)
	s.mr.FastForward(2 * time.Minute)
	_, err = s.cache.LookupMembership(s.ctx, "user-1", "org-1")
	s.Require().NoError(err)
}

func (s *CachingLookupSuite) TestInvalidate() {
	s.source.EXPECT().LookupMembership(gomock.Any(), "user-1", "org-1").Return(admin, nil).Times(2)

	_, err := s.cache.LookupMembership(s.ctx, "user-1", "org-1")
	s.Require().NoError(err)
	s.Require().NoError(s.cache.Invalidate(s.ctx, "user-1", "org-1"))
	_, err = s.cache.LookupMembership(s.ctx, "user-1", "org-1")
	s.Require().NoError(err)
}

func (s *CachingLookupSuite) TestMalformedEntryIsIgnored() {
	s.Require().NoError(s.mr.Set("membership:org-1:user-1", `{"user_id":"user-9","organization_id":"org-1","role":"owner"}`))
	s.source.EXPECT().LookupMembership(gomock.Any(), "user-1", "org-1").Return(admin, nil)

	actor, err := s.cache.LookupMembership(s.ctx, "user-1", "org-1")
	s.Require().NoError(err)
	s.Equal(admin, actor)
}

func (s *CachingLookupSuite) TestRedisDownFallsThroughToSource() {
	s.mr.Close()
	s.source.EXPECT().LookupMembership(gomock.Any(), "user-1", "org-1").Return(admin, nil)

	actor, err := s.cache.LookupMembership(s.ctx, "user-1", "org-1")
	s.Require().NoError(err)
	s.Equal(admin, actor)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.MembershipCache.WithLabelValues("error")), "no write after a failed read")
}

func (s *CachingLookupSuite) TestBreakerBypassesRedisAfterFailures() {
	breaker := circuit.New("membership-cache", circuit.WithFailureThreshold(2), circuit.WithCooldown(time.Hour))
	cache := rolegate.NewCachingLookup(s.source, s.client,
		rolegate.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		rolegate.WithMetrics(s.metrics),
		rolegate.WithBreaker(breaker),
	)
	s.mr.Close()
	s.source.EXPECT().LookupMembership(gomock.Any(), "user-1", "org-1").Return(admin, nil).Times(3)

	for range 3 {
		actor, err := cache.LookupMembership(s.ctx, "user-1", "org-1")
		s.Require().NoError(err)
		s.Equal(admin, actor)
	}

	s.True(breaker.IsOpen())
	s.Equal(2.0, testutil.ToFloat64(s.metrics.MembershipCache.WithLabelValues("error")))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.MembershipCache.WithLabelValues("bypass")))
}

func (s *CachingLookupSuite) TestGateOverCache() {
	s.source.EXPECT().LookupMembership(gomock.Any(), "user-1", "org-1").Return(admin, nil).Times(1)
	gate := rolegate.NewMembershipGate(s.cache)

	_, err := gate.RequireRole(s.ctx, rolegate.Check{UserID: "user-1", OrganizationID: "org-1", Allowed: []rolegate.Role{rolegate.RoleAdmin}})
	s.Require().NoError(err)

	_, err = gate.RequireRole(s.ctx, rolegate.Check{UserID: "user-1", OrganizationID: "org-1", Allowed: []rolegate.Role{rolegate.RoleOwner}})
	var authErr *rolegate.AuthorizationError
	s.Require().ErrorAs(err, &authErr)
	s.Equal(rolegate.ReasonRoleNotAllowed, authErr.Reason)
}
