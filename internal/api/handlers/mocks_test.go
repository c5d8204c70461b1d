package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockdash/portfolio_service/internal/domain/entities"
	"github.com/stockdash/portfolio_service/pkg/health"
	"github.com/stretchr/testify/mock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type MockAnalyticsService struct {
	mock.Mock
}

func (m *MockAnalyticsService) Recompute(ctx context.Context, portfolioID, userID uuid.UUID) (*entities.PortfolioAnalytics, error) {
	args := m.Called(ctx, portfolioID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PortfolioAnalytics), args.Error(1)
}

func (m *MockAnalyticsService) GetCached(ctx context.Context, portfolioID uuid.UUID) (*entities.PortfolioAnalytics, error) {
	args := m.Called(ctx, portfolioID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PortfolioAnalytics), args.Error(1)
}

type MockPortfolioService struct {
	mock.Mock
}

func (m *MockPortfolioService) ListPortfolios(ctx context.Context, userID uuid.UUID) ([]*entities.Portfolio, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Portfolio), args.Error(1)
}

func (m *MockPortfolioService) CreatePortfolio(ctx context.Context, userID uuid.UUID, name string, description *string) (*entities.Portfolio, error) {
	args := m.Called(ctx, userID, name, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Portfolio), args.Error(1)
}

func (m *MockPortfolioService) GetHoldings(ctx context.Context, portfolioID uuid.UUID) ([]entities.Holding, error) {
	args := m.Called(ctx, portfolioID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.Holding), args.Error(1)
}

func (m *MockPortfolioService) AddHolding(ctx context.Context, portfolioID, stockID uuid.UUID, quantity, averagePrice decimal.Decimal) (*entities.Holding, error) {
	args := m.Called(ctx, portfolioID, stockID, quantity, averagePrice)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Holding), args.Error(1)
}

func (m *MockPortfolioService) RemoveHolding(ctx context.Context, portfolioID, holdingID uuid.UUID) error {
	return m.Called(ctx, portfolioID, holdingID).Error(0)
}

func (m *MockPortfolioService) EnsureOwner(ctx context.Context, portfolioID, userID uuid.UUID) error {
	return m.Called(ctx, portfolioID, userID).Error(0)
}

type MockHealthChecker struct {
	mock.Mock
}

func (m *MockHealthChecker) Check(ctx context.Context) (health.Status, map[string]health.CheckResult) {
	args := m.Called(ctx)
	return args.Get(0).(health.Status), args.Get(1).(map[string]health.CheckResult)
}

type MockStockCatalog struct {
	mock.Mock
}

func (m *MockStockCatalog) ListStocks(ctx context.Context) ([]entities.Stock, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.Stock), args.Error(1)
}

func (m *MockStockCatalog) GetStock(ctx context.Context, symbol string) (*entities.Stock, error) {
	args := m.Called(ctx, symbol)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Stock), args.Error(1)
}
