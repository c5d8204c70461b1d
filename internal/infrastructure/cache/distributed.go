package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stockdash/portfolio_service/internal/domain/entities"
	"github.com/stockdash/portfolio_service/internal/infrastructure/config"
	"github.com/stockdash/portfolio_service/pkg/metrics"
	"go.uber.org/zap"
)

const keyPrefix = "portfolio:analytics:"

// NewRedisClient connects to Redis from config. REDIS_URL wins over host/port.
func NewRedisClient(cfg config.RedisConfig) (redis.UniversalClient, error) {
	var opts *redis.Options
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

// AnalyticsCache keeps the last rendered analytics per portfolio in Redis
type AnalyticsCache struct {
	client     redis.UniversalClient
	logger     *zap.Logger
	defaultTTL time.Duration
}

func NewAnalyticsCache(client redis.UniversalClient, defaultTTL time.Duration, logger *zap.Logger) *AnalyticsCache {
	if defaultTTL <= 0 {
		defaultTTL = time.Minute
	}
	return &AnalyticsCache{
		client:     client,
		logger:     logger,
		defaultTTL: defaultTTL,
	}
}

func analyticsKey(portfolioID uuid.UUID) string {
	return keyPrefix + portfolioID.String()
}

// Get returns nil, nil on a miss
func (c *AnalyticsCache) Get(ctx context.Context, portfolioID uuid.UUID) (*entities.PortfolioAnalytics, error) {
	raw, err := c.client.Get(ctx, analyticsKey(portfolioID)).Bytes()
	if err == redis.Nil {
		metrics.RecordCacheRequest("miss")
		return nil, nil
	}
	if err != nil {
		metrics.RecordCacheRequest("error")
		return nil, fmt.Errorf("failed to read cached analytics: %w", err)
	}

	analytics, err := decodeAnalytics(raw)
	if err != nil {
		// a payload we cannot read is as good as absent
		c.logger.Warn("Dropping unreadable cached analytics",
			zap.String("portfolio_id", portfolioID.String()),
			zap.Error(err))
		c.client.Del(ctx, analyticsKey(portfolioID))
		metrics.RecordCacheRequest("miss")
		return nil, nil
	}

	metrics.RecordCacheRequest("hit")
	return analytics, nil
}

func (c *AnalyticsCache) Set(ctx context.Context, analytics *entities.PortfolioAnalytics, ttl time.Duration) error {
	if analytics == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	raw, err := json.Marshal(analytics)
	if err != nil {
		return fmt.Errorf("failed to encode analytics: %w", err)
	}

	if err := c.client.Set(ctx, analyticsKey(analytics.PortfolioID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache analytics: %w", err)
	}
	return nil
}

func (c *AnalyticsCache) Delete(ctx context.Context, portfolioID uuid.UUID) error {
	return c.client.Del(ctx, analyticsKey(portfolioID)).Err()
}

func decodeAnalytics(raw []byte) (*entities.PortfolioAnalytics, error) {
	var analytics entities.PortfolioAnalytics
	if err := json.Unmarshal(raw, &analytics); err != nil {
		return nil, err
	}
	if analytics.PortfolioID == uuid.Nil {
		return nil, fmt.Errorf("cached analytics missing portfolio id")
	}
	return &analytics, nil
}
