package rolegate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"sanitrack/internal/tenancy/metrics"
	"sanitrack/pkg/platform/circuit"
)

const (
	membershipKeyPrefix = "membership:"
	defaultCacheTTL     = 30 * time.Second
)

// CachingLookup keeps resolved memberships in Redis. Only found memberships
// are cached; a "not a member" answer always goes back to the source, so a
// newly granted membership is visible immediately. Revoked or downgraded
// memberships stay visible until the TTL expires or Invalidate is called.
type CachingLookup struct {
	next    MembershipLookup
	client  redis.Cmdable
	ttl     time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
	breaker *circuit.Breaker
}

// CacheOption configures a CachingLookup.
type CacheOption func(*CachingLookup)

// WithTTL sets how long a membership stays cached.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *CachingLookup) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithLogger sets the logger used for cache errors.
func WithLogger(logger *slog.Logger) CacheOption {
	return func(c *CachingLookup) {
		c.logger = logger
	}
}

// WithMetrics records hits, misses and errors.
func WithMetrics(m *metrics.Metrics) CacheOption {
	return func(c *CachingLookup) {
		c.metrics = m
	}
}

// WithBreaker skips Redis entirely while breaker is open.
func WithBreaker(b *circuit.Breaker) CacheOption {
	return func(c *CachingLookup) {
		c.breaker = b
	}
}

// NewCachingLookup wraps next with a Redis cache.
func NewCachingLookup(next MembershipLookup, client redis.Cmdable, opts ...CacheOption) *CachingLookup {
	c := &CachingLookup{
		next:   next,
		client: client,
		ttl:    defaultCacheTTL,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// LookupMembership serves from Redis when possible. Redis failures fall
// through to the source; they never grant access on their own.
func (c *CachingLookup) LookupMembership(ctx context.Context, userID, orgID string) (Actor, error) {
	key := membershipKey(userID, orgID)
	useCache := c.breaker == nil || c.breaker.Allow()

	if useCache {
		raw, err := c.client.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			c.redisOK()
			var actor Actor
			if jsonErr := json.Unmarshal(raw, &actor); jsonErr == nil && actor.UserID == userID && actor.OrganizationID == orgID {
				c.count("hit")
				return actor, nil
			}
			c.count("error")
			c.logger.WarnContext(ctx, "discarding malformed membership cache entry", "key", key)
		case errors.Is(err, redis.Nil):
			c.redisOK()
			c.count("miss")
		default:
			c.redisFailed(ctx)
			useCache = false
			c.count("error")
			c.logger.WarnContext(ctx, "membership cache read failed", "error", err)
		}
	} else {
		c.count("bypass")
	}

	actor, err := c.next.LookupMembership(ctx, userID, orgID)
	if err != nil {
		return Actor{}, err
	}
	if !useCache {
		return actor, nil
	}

	body, err := json.Marshal(actor)
	if err == nil {
		err = c.client.Set(ctx, key, body, c.ttl).Err()
	}
	if err != nil {
		c.redisFailed(ctx)
		c.count("error")
		c.logger.WarnContext(ctx, "membership cache write failed", "error", err)
	}
	return actor, nil
}

// Invalidate drops the cached membership, e.g. after a role change.
func (c *CachingLookup) Invalidate(ctx context.Context, userID, orgID string) error {
	return c.client.Del(ctx, membershipKey(userID, orgID)).Err()
}

func (c *CachingLookup) count(result string) {
	if c.metrics != nil {
		c.metrics.IncrementMembershipCache(result)
	}
}

func (c *CachingLookup) redisOK() {
	if c.breaker != nil {
		c.breaker.RecordSuccess()
	}
}

func (c *CachingLookup) redisFailed(ctx context.Context) {
	if c.breaker == nil {
		return
	}
	if _, change := c.breaker.RecordFailure(); change.Opened {
		c.logger.WarnContext(ctx, "membership cache disabled after repeated redis failures", "breaker", c.breaker.Name())
	}
}

func membershipKey(userID, orgID string) string {
	return membershipKeyPrefix + orgID + ":" + userID
}
