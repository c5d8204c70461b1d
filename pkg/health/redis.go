package health

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisChecker checks the analytics cache. The cache is optional, so an
// outage reports degraded rather than unhealthy.
type RedisChecker struct {
	client  redis.UniversalClient
	timeout time.Duration
}

func NewRedisChecker(client redis.UniversalClient, timeout time.Duration) *RedisChecker {
	if timeout == 0 {
		timeout = 3 * time.Second
	}
	return &RedisChecker{client: client, timeout: timeout}
}

func (c *RedisChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.client.Ping(ctx).Err(); err != nil {
		return NewDegradedResult("redis", "analytics cache unavailable, serving recomputed results", err).
			WithDuration(time.Since(start))
	}

	result := NewHealthyResult("redis", "connected").WithDuration(time.Since(start))
	if stats := c.client.PoolStats(); stats != nil {
		result = result.
			WithMetadata("hits", stats.Hits).
			WithMetadata("timeouts", stats.Timeouts)
	}
	return result
}

func (c *RedisChecker) Name() string {
	return "redis"
}
