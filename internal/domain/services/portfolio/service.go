package portfolio

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockdash/portfolio_service/internal/domain/entities"
	"github.com/stockdash/portfolio_service/internal/domain/services/analytics"
	apperrors "github.com/stockdash/portfolio_service/pkg/errors"
	"github.com/stockdash/portfolio_service/pkg/logger"
	"github.com/stockdash/portfolio_service/pkg/sanitize"
)

// Service handles portfolio and holding CRUD around the aggregator
type Service struct {
	portfolioRepo PortfolioRepository
	holdingRepo   HoldingRepository
	stockRepo     StockRepository
	invalidator   AnalyticsInvalidator
	logger        *logger.Logger
}

// PortfolioRepository interface for portfolio persistence
type PortfolioRepository interface {
	Create(ctx context.Context, portfolio *entities.Portfolio) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Portfolio, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*entities.Portfolio, error)
}

// HoldingRepository interface for holding persistence
type HoldingRepository interface {
	Create(ctx context.Context, holding *entities.Holding) error
	ListWithStocks(ctx context.Context, portfolioID uuid.UUID) ([]entities.Holding, error)
	Delete(ctx context.Context, portfolioID, holdingID uuid.UUID) error
}

// StockRepository interface for stock lookups
type StockRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Stock, error)
	GetBySymbol(ctx context.Context, symbol string) (*entities.Stock, error)
	List(ctx context.Context) ([]entities.Stock, error)
}

// AnalyticsInvalidator drops cached analytics for a portfolio
type AnalyticsInvalidator interface {
	Invalidate(ctx context.Context, portfolioID uuid.UUID) error
}

// NewService creates a new portfolio service
func NewService(
	portfolioRepo PortfolioRepository,
	holdingRepo HoldingRepository,
	stockRepo StockRepository,
	invalidator AnalyticsInvalidator,
	logger *logger.Logger,
) *Service {
	return &Service{
		portfolioRepo: portfolioRepo,
		holdingRepo:   holdingRepo,
		stockRepo:     stockRepo,
		invalidator:   invalidator,
		logger:        logger,
	}
}

// ListPortfolios returns a user's portfolios, newest first
func (s *Service) ListPortfolios(ctx context.Context, userID uuid.UUID) ([]*entities.Portfolio, error) {
	portfolios, err := s.portfolioRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list portfolios: %w", err)
	}
	return portfolios, nil
}

// CreatePortfolio creates an empty portfolio for a user
func (s *Service) CreatePortfolio(ctx context.Context, userID uuid.UUID, name string, description *string) (*entities.Portfolio, error) {
	name = sanitize.String(name)
	if name == "" {
		return nil, apperrors.NewValidationError("portfolio name is required")
	}

	now := time.Now().UTC()
	portfolio := &entities.Portfolio{
		ID:                   uuid.New(),
		UserID:               userID,
		Name:                 name,
		Description:          sanitize.OptionalString(description),
		TotalValue:           decimal.Zero,
		TotalGainLoss:        decimal.Zero,
		TotalGainLossPercent: decimal.Zero,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if err := s.portfolioRepo.Create(ctx, portfolio); err != nil {
		return nil, fmt.Errorf("failed to create portfolio: %w", err)
	}

	s.logger.Info("Portfolio created",
		"portfolio_id", portfolio.ID,
		"user_id", userID,
		"name", sanitize.LogString(name))
	return portfolio, nil
}

// EnsureOwner fails with ErrForbidden when the portfolio belongs to someone else
func (s *Service) EnsureOwner(ctx context.Context, portfolioID, userID uuid.UUID) error {
	portfolio, err := s.portfolioRepo.GetByID(ctx, portfolioID)
	if err != nil {
		return err
	}
	if portfolio.UserID != userID {
		return apperrors.ErrForbidden
	}
	return nil
}

// ListStocks returns the stock catalog, largest market cap first
func (s *Service) ListStocks(ctx context.Context) ([]entities.Stock, error) {
	return s.stockRepo.List(ctx)
}

// GetStock looks a stock up by ticker symbol, case-insensitively
func (s *Service) GetStock(ctx context.Context, symbol string) (*entities.Stock, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, apperrors.NewValidationError("symbol is required")
	}
	return s.stockRepo.GetBySymbol(ctx, symbol)
}

// GetHoldings returns a portfolio's holdings joined with their stocks
func (s *Service) GetHoldings(ctx context.Context, portfolioID uuid.UUID) ([]entities.Holding, error) {
	holdings, err := s.holdingRepo.ListWithStocks(ctx, portfolioID)
	if err != nil {
		return nil, apperrors.WrapSentinel(apperrors.ErrHoldingsFetch, err)
	}
	return holdings, nil
}

// AddHolding opens a position. The initial valuation uses the stock's
// current price, or the average price when the stock has none.
func (s *Service) AddHolding(ctx context.Context, portfolioID, stockID uuid.UUID, quantity, averagePrice decimal.Decimal) (*entities.Holding, error) {
	if !quantity.IsPositive() {
		return nil, apperrors.NewValidationError("quantity must be positive")
	}
	if !averagePrice.IsPositive() {
		return nil, apperrors.NewValidationError("average price must be positive")
	}

	if _, err := s.portfolioRepo.GetByID(ctx, portfolioID); err != nil {
		return nil, err
	}

	stock, err := s.stockRepo.GetByID(ctx, stockID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	holding := entities.Holding{
		ID:           uuid.New(),
		PortfolioID:  portfolioID,
		StockID:      stockID,
		Quantity:     quantity,
		AveragePrice: averagePrice,
		CreatedAt:    now,
		UpdatedAt:    now,
		Stock:        stock,
	}

	v := analytics.ComputeValuation(holding, analytics.PriceFallbackAverageCost)
	holding.CurrentValue = decimal.NewNullDecimal(v.CurrentValue)
	holding.GainLoss = decimal.NewNullDecimal(v.GainLoss)
	holding.GainLossPercent = decimal.NewNullDecimal(v.GainLossPercent)

	if err := s.holdingRepo.Create(ctx, &holding); err != nil {
		return nil, fmt.Errorf("failed to add holding: %w", err)
	}

	s.invalidate(ctx, portfolioID)
	s.logger.Info("Holding added",
		"portfolio_id", portfolioID,
		"holding_id", holding.ID,
		"stock_id", stockID,
		"quantity", quantity.String(),
	)
	return &holding, nil
}

// RemoveHolding deletes a position from a portfolio
func (s *Service) RemoveHolding(ctx context.Context, portfolioID, holdingID uuid.UUID) error {
	if err := s.holdingRepo.Delete(ctx, portfolioID, holdingID); err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return err
		}
		return fmt.Errorf("failed to remove holding: %w", err)
	}

	s.invalidate(ctx, portfolioID)
	s.logger.Info("Holding removed", "portfolio_id", portfolioID, "holding_id", holdingID)
	return nil
}

func (s *Service) invalidate(ctx context.Context, portfolioID uuid.UUID) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.Invalidate(ctx, portfolioID); err != nil {
		s.logger.CtxWarn(ctx, "Failed to invalidate cached analytics", "portfolio_id", portfolioID, "error", err)
	}
}
