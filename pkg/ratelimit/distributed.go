package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Limiter decides whether the caller identified by key may proceed
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Config defines rate limiter configuration
type Config struct {
	// Limit is the maximum number of requests allowed per Window
	Limit int64
	// Window is the sliding window length
	Window time.Duration
	// KeyPrefix is prepended to all Redis keys
	KeyPrefix string
}

// DistributedLimiter is a sliding window limiter shared by every replica through Redis
type DistributedLimiter struct {
	redis  redis.UniversalClient
	config Config
	logger *zap.Logger
}

// NewDistributedLimiter creates a new distributed rate limiter
func NewDistributedLimiter(client redis.UniversalClient, config Config, logger *zap.Logger) *DistributedLimiter {
	if config.KeyPrefix == "" {
		config.KeyPrefix = "ratelimit"
	}
	if config.Window <= 0 {
		config.Window = time.Minute
	}
	if config.Limit <= 0 {
		config.Limit = 60
	}
	return &DistributedLimiter{redis: client, config: config, logger: logger}
}

// PerIPLimiter limits each client address to limit requests per minute
func PerIPLimiter(client redis.UniversalClient, limit int64, logger *zap.Logger) *DistributedLimiter {
	return NewDistributedLimiter(client, Config{
		Limit:     limit,
		Window:    time.Minute,
		KeyPrefix: "portfolio:ratelimit:ip",
	}, logger)
}

// Allow checks if a request should be allowed
func (l *DistributedLimiter) Allow(ctx context.Context, key string) (bool, error) {
	return l.AllowN(ctx, key, 1)
}

// AllowN records n requests and reports whether the window still had room for them
func (l *DistributedLimiter) AllowN(ctx context.Context, key string, n int) (bool, error) {
	redisKey := l.makeKey(key)
	now := time.Now()
	windowStart := strconv.FormatInt(now.Add(-l.config.Window).UnixNano(), 10)

	pipe := l.redis.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "0", windowStart)
	countCmd := pipe.ZCount(ctx, redisKey, windowStart, "+inf")
	for i := 0; i < n; i++ {
		ts := now.Add(time.Duration(i)).UnixNano()
		pipe.ZAdd(ctx, redisKey, &redis.Z{Score: float64(ts), Member: ts})
	}
	pipe.Expire(ctx, redisKey, l.config.Window*2)

	if _, err := pipe.Exec(ctx); err != nil {
		l.logger.Error("Failed to execute rate limit pipeline",
			zap.Error(err),
			zap.String("key", key))
		return false, fmt.Errorf("rate limit check failed: %w", err)
	}

	current := countCmd.Val() + int64(n)
	allowed := current <= l.config.Limit
	if !allowed {
		l.logger.Debug("Rate limit exceeded",
			zap.String("key", key),
			zap.Int64("current", current),
			zap.Int64("limit", l.config.Limit))
	}
	return allowed, nil
}

// Remaining returns how many requests key may still make in the current window
func (l *DistributedLimiter) Remaining(ctx context.Context, key string) (int64, error) {
	windowStart := strconv.FormatInt(time.Now().Add(-l.config.Window).UnixNano(), 10)

	count, err := l.redis.ZCount(ctx, l.makeKey(key), windowStart, "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get remaining quota: %w", err)
	}
	if remaining := l.config.Limit - count; remaining > 0 {
		return remaining, nil
	}
	return 0, nil
}

// Reset clears the window for a key
func (l *DistributedLimiter) Reset(ctx context.Context, key string) error {
	if err := l.redis.Del(ctx, l.makeKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to reset rate limit: %w", err)
	}
	return nil
}

func (l *DistributedLimiter) makeKey(key string) string {
	return fmt.Sprintf("%s:%s", l.config.KeyPrefix, key)
}
