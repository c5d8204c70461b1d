package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stockdash/portfolio_service/internal/domain/entities"
	"go.uber.org/zap"
)

// AnalyticsStore is the holdings store used by the aggregator
type AnalyticsStore struct {
	db         *sqlx.DB
	holdings   *HoldingRepository
	portfolios *PortfolioRepository
	logger     *zap.Logger
}

// NewAnalyticsStore combines the holding and portfolio repositories
func NewAnalyticsStore(db *sqlx.DB, holdings *HoldingRepository, portfolios *PortfolioRepository, logger *zap.Logger) *AnalyticsStore {
	return &AnalyticsStore{
		db:         db,
		holdings:   holdings,
		portfolios: portfolios,
		logger:     logger,
	}
}

func (s *AnalyticsStore) ListHoldingsWithStocks(ctx context.Context, portfolioID uuid.UUID) ([]entities.Holding, error) {
	return s.holdings.ListWithStocks(ctx, portfolioID)
}

func (s *AnalyticsStore) UpdateHoldingValuation(ctx context.Context, update entities.HoldingValuationUpdate) error {
	return s.holdings.UpdateValuation(ctx, update)
}

func (s *AnalyticsStore) UpdatePortfolioSummary(ctx context.Context, summary entities.PortfolioSummary) error {
	return s.portfolios.UpdateSummary(ctx, summary)
}

// PersistValuations writes all holdings and the summary in one transaction.
// Any failure rolls back every row.
func (s *AnalyticsStore) PersistValuations(ctx context.Context, updates []entities.HoldingValuationUpdate, summary entities.PortfolioSummary) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Error("failed to roll back valuation transaction",
					zap.Error(rbErr),
					zap.String("portfolio_id", summary.PortfolioID.String()),
				)
			}
		}
	}()

	for _, u := range updates {
		if err = updateHoldingValuation(ctx, tx, u); err != nil {
			return err
		}
	}
	if err = updatePortfolioSummary(ctx, tx, summary); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit valuation transaction: %w", err)
	}
	return nil
}
