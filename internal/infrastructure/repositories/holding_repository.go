package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stockdash/portfolio_service/internal/domain/entities"
	apperrors "github.com/stockdash/portfolio_service/pkg/errors"
	"github.com/stockdash/portfolio_service/pkg/tracing"
	"go.uber.org/zap"
)

// HoldingRepository handles portfolio_holdings persistence
type HoldingRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewHoldingRepository creates a new holding repository
func NewHoldingRepository(db *sqlx.DB, logger *zap.Logger) *HoldingRepository {
	return &HoldingRepository{
		db:     db,
		logger: logger,
	}
}

// holdingRow is a holding left-joined with its stock
type holdingRow struct {
	entities.Holding
	JoinedStockID sql.NullString      `db:"s_id"`
	Symbol        sql.NullString      `db:"s_symbol"`
	Name          sql.NullString      `db:"s_name"`
	CurrentPrice  decimal.NullDecimal `db:"s_current_price"`
	Sector        *string             `db:"s_sector"`
	Volume        *int64              `db:"s_volume"`
	MarketCap     decimal.NullDecimal `db:"s_market_cap"`
}

func (r holdingRow) toHolding() (entities.Holding, error) {
	h := r.Holding
	if !r.JoinedStockID.Valid {
		return h, nil
	}
	stockID, err := uuid.Parse(r.JoinedStockID.String)
	if err != nil {
		return h, fmt.Errorf("invalid stock id %q: %w", r.JoinedStockID.String, err)
	}
	h.Stock = &entities.Stock{
		ID:           stockID,
		Symbol:       r.Symbol.String,
		Name:         r.Name.String,
		CurrentPrice: r.CurrentPrice,
		Sector:       r.Sector,
		Volume:       r.Volume,
		MarketCap:    r.MarketCap,
	}
	return h, nil
}

const listHoldingsWithStocksQuery = `
	SELECT
		h.id, h.portfolio_id, h.stock_id, h.quantity, h.average_price,
		h.current_value, h.gain_loss, h.gain_loss_percent, h.created_at, h.updated_at,
		s.id AS s_id, s.symbol AS s_symbol, s.name AS s_name,
		s.current_price AS s_current_price, s.sector AS s_sector,
		s.volume AS s_volume, s.market_cap AS s_market_cap
	FROM portfolio_holdings h
	LEFT JOIN stocks s ON s.id = h.stock_id
	WHERE h.portfolio_id = $1
	ORDER BY h.created_at, h.id
`

// ListWithStocks returns every holding of a portfolio joined with its stock.
// A holding whose stock row is missing comes back with a nil Stock.
func (r *HoldingRepository) ListWithStocks(ctx context.Context, portfolioID uuid.UUID) ([]entities.Holding, error) {
	var rows []holdingRow
	err := tracing.TraceQuery(ctx, tracing.DBSpanConfig{Operation: "SELECT", Table: "portfolio_holdings"}, func(ctx context.Context) error {
		return r.db.SelectContext(ctx, &rows, listHoldingsWithStocksQuery, portfolioID)
	})
	if err != nil {
		r.logger.Error("failed to list holdings",
			zap.Error(err),
			zap.String("portfolio_id", portfolioID.String()),
		)
		return nil, fmt.Errorf("failed to list holdings: %w", err)
	}

	holdings := make([]entities.Holding, 0, len(rows))
	for _, row := range rows {
		h, err := row.toHolding()
		if err != nil {
			return nil, err
		}
		holdings = append(holdings, h)
	}
	return holdings, nil
}

const updateHoldingValuationQuery = `
	UPDATE portfolio_holdings
	SET current_value = $2, gain_loss = $3, gain_loss_percent = $4, updated_at = NOW()
	WHERE id = $1
`

// UpdateValuation writes the recomputed valuation fields of one holding
func (r *HoldingRepository) UpdateValuation(ctx context.Context, u entities.HoldingValuationUpdate) error {
	if err := updateHoldingValuation(ctx, r.db, u); err != nil {
		r.logger.Error("failed to update holding valuation",
			zap.Error(err),
			zap.String("holding_id", u.HoldingID.String()),
		)
		return err
	}
	return nil
}

func updateHoldingValuation(ctx context.Context, db sqlx.ExecerContext, u entities.HoldingValuationUpdate) error {
	rows, err := tracing.TraceExec(ctx, tracing.DBSpanConfig{Operation: "UPDATE", Table: "portfolio_holdings"}, func(ctx context.Context) (sql.Result, error) {
		return db.ExecContext(ctx, updateHoldingValuationQuery, u.HoldingID, u.CurrentValue, u.GainLoss, u.GainLossPercent)
	})
	if err != nil {
		return fmt.Errorf("failed to update holding valuation: %w", err)
	}
	if rows == 0 {
		return apperrors.NewNotFoundError("holding").WithDetail("holding_id", u.HoldingID.String())
	}
	return nil
}

// Create inserts a new holding
func (r *HoldingRepository) Create(ctx context.Context, h *entities.Holding) error {
	query := `
		INSERT INTO portfolio_holdings (
			id, portfolio_id, stock_id, quantity, average_price,
			current_value, gain_loss, gain_loss_percent, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := tracing.TraceExec(ctx, tracing.DBSpanConfig{Operation: "INSERT", Table: "portfolio_holdings"}, func(ctx context.Context) (sql.Result, error) {
		return r.db.ExecContext(ctx, query,
			h.ID,
			h.PortfolioID,
			h.StockID,
			h.Quantity,
			h.AveragePrice,
			h.CurrentValue,
			h.GainLoss,
			h.GainLossPercent,
			h.CreatedAt,
			h.UpdatedAt,
		)
	})
	if err != nil {
		r.logger.Error("failed to create holding",
			zap.Error(err),
			zap.String("holding_id", h.ID.String()),
			zap.String("portfolio_id", h.PortfolioID.String()),
		)
		return fmt.Errorf("failed to create holding: %w", err)
	}

	r.logger.Info("holding created",
		zap.String("holding_id", h.ID.String()),
		zap.String("portfolio_id", h.PortfolioID.String()),
		zap.String("quantity", h.Quantity.String()),
	)
	return nil
}

// Delete removes a holding from a portfolio
func (r *HoldingRepository) Delete(ctx context.Context, portfolioID, holdingID uuid.UUID) error {
	query := `DELETE FROM portfolio_holdings WHERE id = $1 AND portfolio_id = $2`

	rows, err := tracing.TraceExec(ctx, tracing.DBSpanConfig{Operation: "DELETE", Table: "portfolio_holdings"}, func(ctx context.Context) (sql.Result, error) {
		return r.db.ExecContext(ctx, query, holdingID, portfolioID)
	})
	if err != nil {
		r.logger.Error("failed to delete holding",
			zap.Error(err),
			zap.String("holding_id", holdingID.String()),
		)
		return fmt.Errorf("failed to delete holding: %w", err)
	}
	if rows == 0 {
		return apperrors.NewNotFoundError("holding")
	}
	return nil
}
