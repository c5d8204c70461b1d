package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stockdash/portfolio_service/internal/domain/entities"
	"github.com/stockdash/portfolio_service/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func unreachableClient() redis.UniversalClient {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 100 * time.Millisecond,
	})
}

func TestAnalyticsKey(t *testing.T) {
	id := uuid.MustParse("6f1c2a9e-3f57-4d2b-9a43-1f0e2d3c4b5a")
	assert.Equal(t, "portfolio:analytics:6f1c2a9e-3f57-4d2b-9a43-1f0e2d3c4b5a", analyticsKey(id))
}

func TestDecodeAnalytics(t *testing.T) {
	original := &entities.PortfolioAnalytics{
		PortfolioID:      uuid.New(),
		TotalValue:       2400,
		TotalCost:        2000,
		TotalGainLoss:    400,
		HoldingsCount:    2,
		SectorAllocation: map[string]float64{"Technology": 2400},
		TopHoldings:      []entities.HoldingAnalytics{},
	}
	raw, err := json.Marshal(original)
	require.NoError(t, err)

	decoded, err := decodeAnalytics(raw)

	require.NoError(t, err)
	assert.Equal(t, original.PortfolioID, decoded.PortfolioID)
	assert.Equal(t, 2400.0, decoded.TotalValue)
	assert.Equal(t, 2400.0, decoded.SectorAllocation["Technology"])

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := decodeAnalytics([]byte("not-json"))
		assert.Error(t, err)
	})

	t.Run("rejects payload without portfolio", func(t *testing.T) {
		_, err := decodeAnalytics([]byte(`{"totalValue": 10}`))
		assert.Error(t, err)
	})
}

func TestAnalyticsCache_Unreachable(t *testing.T) {
	client := unreachableClient()
	defer client.Close()
	c := NewAnalyticsCache(client, 0, zaptest.NewLogger(t))
	ctx := context.Background()

	assert.Equal(t, time.Minute, c.defaultTTL)

	_, err := c.Get(ctx, uuid.New())
	assert.Error(t, err)

	err = c.Set(ctx, &entities.PortfolioAnalytics{PortfolioID: uuid.New()}, 0)
	assert.Error(t, err)

	assert.NoError(t, c.Set(ctx, nil, 0))
	assert.Error(t, c.Delete(ctx, uuid.New()))
}

func TestNewRedisClient_BadURL(t *testing.T) {
	_, err := NewRedisClient(config.RedisConfig{URL: "http://not-redis"})
	assert.ErrorContains(t, err, "failed to parse redis url")
}

func TestNopCache(t *testing.T) {
	var c NopCache
	got, err := c.Get(context.Background(), uuid.New())
	assert.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, c.Set(context.Background(), &entities.PortfolioAnalytics{}, time.Second))
	assert.NoError(t, c.Delete(context.Background(), uuid.New()))
}
