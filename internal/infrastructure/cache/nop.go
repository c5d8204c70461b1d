package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stockdash/portfolio_service/internal/domain/entities"
)

// NopCache is used when Redis is disabled. Every read misses.
type NopCache struct{}

func (NopCache) Get(context.Context, uuid.UUID) (*entities.PortfolioAnalytics, error) {
	return nil, nil
}

func (NopCache) Set(context.Context, *entities.PortfolioAnalytics, time.Duration) error {
	return nil
}

func (NopCache) Delete(context.Context, uuid.UUID) error {
	return nil
}
