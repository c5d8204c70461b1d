package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stockdash/portfolio_service/internal/domain/entities"
	apperrors "github.com/stockdash/portfolio_service/pkg/errors"
	"github.com/stockdash/portfolio_service/pkg/tracing"
	"go.uber.org/zap"
)

// PortfolioRepository handles portfolios persistence
type PortfolioRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewPortfolioRepository creates a new portfolio repository
func NewPortfolioRepository(db *sqlx.DB, logger *zap.Logger) *PortfolioRepository {
	return &PortfolioRepository{
		db:     db,
		logger: logger,
	}
}

const portfolioColumns = `
	id, user_id, name, description, total_value, total_gain_loss,
	total_gain_loss_percent, created_at, updated_at
`

// Create inserts a new portfolio
func (r *PortfolioRepository) Create(ctx context.Context, p *entities.Portfolio) error {
	query := `
		INSERT INTO portfolios (` + portfolioColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := tracing.TraceExec(ctx, tracing.DBSpanConfig{Operation: "INSERT", Table: "portfolios"}, func(ctx context.Context) (sql.Result, error) {
		return r.db.ExecContext(ctx, query,
			p.ID,
			p.UserID,
			p.Name,
			p.Description,
			p.TotalValue,
			p.TotalGainLoss,
			p.TotalGainLossPercent,
			p.CreatedAt,
			p.UpdatedAt,
		)
	})
	if err != nil {
		r.logger.Error("failed to create portfolio",
			zap.Error(err),
			zap.String("portfolio_id", p.ID.String()),
			zap.String("user_id", p.UserID.String()),
		)
		return fmt.Errorf("failed to create portfolio: %w", err)
	}

	r.logger.Info("portfolio created",
		zap.String("portfolio_id", p.ID.String()),
		zap.String("user_id", p.UserID.String()),
	)
	return nil
}

// GetByID retrieves a portfolio by ID
func (r *PortfolioRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Portfolio, error) {
	query := `SELECT ` + portfolioColumns + ` FROM portfolios WHERE id = $1`

	portfolio := &entities.Portfolio{}
	err := tracing.TraceQuery(ctx, tracing.DBSpanConfig{Operation: "SELECT", Table: "portfolios"}, func(ctx context.Context) error {
		return r.db.GetContext(ctx, portfolio, query, id)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrPortfolioNotFound
	}
	if err != nil {
		r.logger.Error("failed to get portfolio",
			zap.Error(err),
			zap.String("portfolio_id", id.String()),
		)
		return nil, fmt.Errorf("failed to get portfolio: %w", err)
	}
	return portfolio, nil
}

// ListByUser returns a user's portfolios, newest first
func (r *PortfolioRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*entities.Portfolio, error) {
	query := `SELECT ` + portfolioColumns + ` FROM portfolios WHERE user_id = $1 ORDER BY created_at DESC`

	portfolios := []*entities.Portfolio{}
	err := tracing.TraceQuery(ctx, tracing.DBSpanConfig{Operation: "SELECT", Table: "portfolios"}, func(ctx context.Context) error {
		return r.db.SelectContext(ctx, &portfolios, query, userID)
	})
	if err != nil {
		r.logger.Error("failed to list portfolios",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return nil, fmt.Errorf("failed to list portfolios: %w", err)
	}
	return portfolios, nil
}

// ListIDs returns the ID of every portfolio
func (r *PortfolioRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := tracing.TraceQuery(ctx, tracing.DBSpanConfig{Operation: "SELECT", Table: "portfolios"}, func(ctx context.Context) error {
		return r.db.SelectContext(ctx, &ids, `SELECT id FROM portfolios ORDER BY id`)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list portfolio ids: %w", err)
	}
	return ids, nil
}

const updatePortfolioSummaryQuery = `
	UPDATE portfolios
	SET total_value = $2, total_gain_loss = $3, total_gain_loss_percent = $4, updated_at = $5
	WHERE id = $1
`

// UpdateSummary writes the recomputed totals onto a portfolio
func (r *PortfolioRepository) UpdateSummary(ctx context.Context, s entities.PortfolioSummary) error {
	if err := updatePortfolioSummary(ctx, r.db, s); err != nil {
		if !errors.Is(err, apperrors.ErrPortfolioNotFound) {
			r.logger.Error("failed to update portfolio summary",
				zap.Error(err),
				zap.String("portfolio_id", s.PortfolioID.String()),
			)
		}
		return err
	}
	return nil
}

func updatePortfolioSummary(ctx context.Context, db sqlx.ExecerContext, s entities.PortfolioSummary) error {
	rows, err := tracing.TraceExec(ctx, tracing.DBSpanConfig{Operation: "UPDATE", Table: "portfolios"}, func(ctx context.Context) (sql.Result, error) {
		return db.ExecContext(ctx, updatePortfolioSummaryQuery,
			s.PortfolioID, s.TotalValue, s.TotalGainLoss, s.TotalGainLossPercent, s.UpdatedAt)
	})
	if err != nil {
		return fmt.Errorf("failed to update portfolio summary: %w", err)
	}
	if rows == 0 {
		return apperrors.ErrPortfolioNotFound
	}
	return nil
}
