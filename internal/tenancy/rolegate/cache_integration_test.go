//go:build integration

package rolegate_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"sanitrack/internal/query"
	"sanitrack/internal/tenancy/metrics"
	"sanitrack/internal/tenancy/rolegate"
	"sanitrack/pkg/testutil/containers"
)

type CachingLookupRedisSuite struct {
	suite.Suite
	redis   *containers.RedisContainer
	exec    *query.MemoryExecutor
	metrics *metrics.Metrics
	gate    *rolegate.MembershipGate
	cache   *rolegate.CachingLookup
}

func TestCachingLookupRedisSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(CachingLookupRedisSuite))
}

func (s *CachingLookupRedisSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
}

func (s *CachingLookupRedisSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
	s.exec = query.NewMemoryExecutor()
	s.exec.Seed("profiles",
		query.Record{"id": "profile-1", "clerk_user_id": "user-1", "organization_id": "org-1", "role": "dispatcher"},
	)
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.cache = rolegate.NewCachingLookup(rolegate.NewProfileLookup(query.NewClient(s.exec)), s.redis.Client,
		rolegate.WithTTL(time.Minute),
		rolegate.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		rolegate.WithMetrics(s.metrics),
	)
	s.gate = rolegate.NewMembershipGate(s.cache)
}

func (s *CachingLookupRedisSuite) TestSecondCheckIsServedFromRedis() {
	ctx := context.Background()
	check := rolegate.Check{UserID: "user-1", OrganizationID: "org-1", Allowed: []rolegate.Role{rolegate.RoleDispatcher}}

	_, err := s.gate.RequireRole(ctx, check)
	s.Require().NoError(err)
	actor, err := s.gate.RequireRole(ctx, check)
	s.Require().NoError(err)

	s.Equal(rolegate.RoleDispatcher, actor.Role)
	s.Len(s.exec.StatementsFor("profiles", query.OpSelect), 1)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.MembershipCache.WithLabelValues("hit")))

	ttl, err := s.redis.Client.TTL(ctx, "membership:org-1:user-1").Result()
	s.Require().NoError(err)
	s.InDelta(time.Minute.Seconds(), ttl.Seconds(), 5)
}

func (s *CachingLookupRedisSuite) TestInvalidateForcesFreshLookup() {
	ctx := context.Background()

	_, err := s.cache.LookupMembership(ctx, "user-1", "org-1")
	s.Require().NoError(err)
	s.Require().NoError(s.cache.Invalidate(ctx, "user-1", "org-1"))
	_, err = s.cache.LookupMembership(ctx, "user-1", "org-1")
	s.Require().NoError(err)

	s.Len(s.exec.StatementsFor("profiles", query.OpSelect), 2)
}
