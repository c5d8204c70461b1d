package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stockdash/portfolio_service/internal/domain/entities"
	apperrors "github.com/stockdash/portfolio_service/pkg/errors"
	"github.com/stockdash/portfolio_service/pkg/tracing"
	"go.uber.org/zap"
)

// StockRepository reads the stocks and stock_prices tables
type StockRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewStockRepository creates a new stock repository
func NewStockRepository(db *sqlx.DB, logger *zap.Logger) *StockRepository {
	return &StockRepository{
		db:     db,
		logger: logger,
	}
}

const stockColumns = `id, symbol, name, current_price, sector, volume, market_cap, last_updated`

// GetByID retrieves a stock by ID
func (r *StockRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Stock, error) {
	query := `SELECT ` + stockColumns + ` FROM stocks WHERE id = $1`

	stock := &entities.Stock{}
	err := tracing.TraceQuery(ctx, tracing.DBSpanConfig{Operation: "SELECT", Table: "stocks"}, func(ctx context.Context) error {
		return r.db.GetContext(ctx, stock, query, id)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("stock")
	}
	if err != nil {
		r.logger.Error("failed to get stock", zap.Error(err), zap.String("stock_id", id.String()))
		return nil, fmt.Errorf("failed to get stock: %w", err)
	}
	return stock, nil
}

// GetBySymbol retrieves a stock by ticker symbol
func (r *StockRepository) GetBySymbol(ctx context.Context, symbol string) (*entities.Stock, error) {
	query := `SELECT ` + stockColumns + ` FROM stocks WHERE symbol = $1`

	stock := &entities.Stock{}
	err := tracing.TraceQuery(ctx, tracing.DBSpanConfig{Operation: "SELECT", Table: "stocks"}, func(ctx context.Context) error {
		return r.db.GetContext(ctx, stock, query, symbol)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("stock")
	}
	if err != nil {
		r.logger.Error("failed to get stock by symbol", zap.Error(err), zap.String("symbol", symbol))
		return nil, fmt.Errorf("failed to get stock %s: %w", symbol, err)
	}
	return stock, nil
}

// List returns every stock, largest market cap first
func (r *StockRepository) List(ctx context.Context) ([]entities.Stock, error) {
	query := `SELECT ` + stockColumns + ` FROM stocks ORDER BY market_cap DESC NULLS LAST, symbol`

	stocks := []entities.Stock{}
	err := tracing.TraceQuery(ctx, tracing.DBSpanConfig{Operation: "SELECT", Table: "stocks"}, func(ctx context.Context) error {
		return r.db.SelectContext(ctx, &stocks, query)
	})
	if err != nil {
		r.logger.Error("failed to list stocks", zap.Error(err))
		return nil, fmt.Errorf("failed to list stocks: %w", err)
	}
	return stocks, nil
}

// ListPriceHistory returns prices recorded since the given time, oldest first
func (r *StockRepository) ListPriceHistory(ctx context.Context, stockIDs []uuid.UUID, since time.Time) ([]entities.PricePoint, error) {
	if len(stockIDs) == 0 {
		return nil, nil
	}

	ids := make([]string, len(stockIDs))
	for i, id := range stockIDs {
		ids[i] = id.String()
	}

	query := `
		SELECT stock_id, price, recorded_at
		FROM stock_prices
		WHERE stock_id = ANY($1::uuid[]) AND recorded_at >= $2
		ORDER BY recorded_at
	`

	var points []entities.PricePoint
	err := tracing.TraceQuery(ctx, tracing.DBSpanConfig{Operation: "SELECT", Table: "stock_prices"}, func(ctx context.Context) error {
		return r.db.SelectContext(ctx, &points, query, pq.Array(ids), since)
	})
	if err != nil {
		r.logger.Error("failed to list price history", zap.Error(err), zap.Int("stocks", len(stockIDs)))
		return nil, fmt.Errorf("failed to list price history: %w", err)
	}
	return points, nil
}

// ListPriceHistoryBySymbol returns prices of one symbol recorded since the given time
func (r *StockRepository) ListPriceHistoryBySymbol(ctx context.Context, symbol string, since time.Time) ([]entities.PricePoint, error) {
	query := `
		SELECT p.stock_id, p.price, p.recorded_at
		FROM stock_prices p
		JOIN stocks s ON s.id = p.stock_id
		WHERE s.symbol = $1 AND p.recorded_at >= $2
		ORDER BY p.recorded_at
	`

	var points []entities.PricePoint
	err := tracing.TraceQuery(ctx, tracing.DBSpanConfig{Operation: "SELECT", Table: "stock_prices"}, func(ctx context.Context) error {
		return r.db.SelectContext(ctx, &points, query, symbol, since)
	})
	if err != nil {
		r.logger.Error("failed to list benchmark history", zap.Error(err), zap.String("symbol", symbol))
		return nil, fmt.Errorf("failed to list price history for %s: %w", symbol, err)
	}
	return points, nil
}
