package repositories

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stockdash/portfolio_service/internal/domain/entities"
	apperrors "github.com/stockdash/portfolio_service/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

var holdingColumns = []string{
	"id", "portfolio_id", "stock_id", "quantity", "average_price",
	"current_value", "gain_loss", "gain_loss_percent", "created_at", "updated_at",
	"s_id", "s_symbol", "s_name", "s_current_price", "s_sector", "s_volume", "s_market_cap",
}

func TestHoldingRepository_ListWithStocks(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewHoldingRepository(db, zaptest.NewLogger(t))

	portfolioID := uuid.New()
	stockID := uuid.New()
	orphanStockID := uuid.New()
	now := time.Now()

	rows := sqlmock.NewRows(holdingColumns).
		AddRow(uuid.New().String(), portfolioID.String(), stockID.String(), "10", "100",
			nil, nil, nil, now, now,
			stockID.String(), "ACME", "Acme Corp", "150", "Technology", int64(1000), "5000000").
		AddRow(uuid.New().String(), portfolioID.String(), orphanStockID.String(), "2", "50",
			"100", "0", "0", now, now,
			nil, nil, nil, nil, nil, nil, nil)

	mock.ExpectQuery(regexp.QuoteMeta("FROM portfolio_holdings h")).
		WithArgs(portfolioID).
		WillReturnRows(rows)

	holdings, err := repo.ListWithStocks(context.Background(), portfolioID)

	require.NoError(t, err)
	require.Len(t, holdings, 2)

	first := holdings[0]
	require.NotNil(t, first.Stock)
	assert.Equal(t, stockID, first.Stock.ID)
	assert.Equal(t, "ACME", first.Stock.Symbol)
	assert.True(t, first.Stock.CurrentPrice.Valid)
	assert.True(t, decimal.NewFromInt(150).Equal(first.Stock.CurrentPrice.Decimal))
	assert.Equal(t, "Technology", first.Stock.SectorName())
	assert.True(t, decimal.NewFromInt(10).Equal(first.Quantity))
	assert.False(t, first.CurrentValue.Valid)

	assert.Nil(t, holdings[1].Stock)
	assert.Equal(t, orphanStockID, holdings[1].StockID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHoldingRepository_ListWithStocks_Error(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewHoldingRepository(db, zaptest.NewLogger(t))

	mock.ExpectQuery(regexp.QuoteMeta("FROM portfolio_holdings h")).WillReturnError(errors.New("connection refused"))

	_, err := repo.ListWithStocks(context.Background(), uuid.New())

	assert.ErrorContains(t, err, "failed to list holdings")
}

func TestHoldingRepository_UpdateValuation(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewHoldingRepository(db, zaptest.NewLogger(t))

	update := entities.HoldingValuationUpdate{
		HoldingID:       uuid.New(),
		CurrentValue:    decimal.NewFromInt(1500),
		GainLoss:        decimal.NewFromInt(500),
		GainLossPercent: decimal.NewFromInt(50),
	}

	mock.ExpectExec(regexp.QuoteMeta("UPDATE portfolio_holdings")).
		WithArgs(update.HoldingID, "1500", "500", "50").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE portfolio_holdings")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.UpdateValuation(context.Background(), update))

	err := repo.UpdateValuation(context.Background(), update)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHoldingRepository_Delete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewHoldingRepository(db, zaptest.NewLogger(t))
	portfolioID, holdingID := uuid.New(), uuid.New()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM portfolio_holdings")).
		WithArgs(holdingID, portfolioID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM portfolio_holdings")).
		WithArgs(holdingID, portfolioID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), portfolioID, holdingID))
	assert.ErrorIs(t, repo.Delete(context.Background(), portfolioID, holdingID), apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPortfolioRepository_GetByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPortfolioRepository(db, zaptest.NewLogger(t))
	id, userID := uuid.New(), uuid.New()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM portfolios WHERE id = $1")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "name", "description", "total_value", "total_gain_loss",
			"total_gain_loss_percent", "created_at", "updated_at",
		}).AddRow(id.String(), userID.String(), "Growth", nil, "2400", "400", "20", now, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM portfolios WHERE id = $1")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	p, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, userID, p.UserID)
	assert.Equal(t, "Growth", p.Name)
	assert.Nil(t, p.Description)
	assert.True(t, decimal.NewFromInt(2400).Equal(p.TotalValue))

	_, err = repo.GetByID(context.Background(), id)
	assert.ErrorIs(t, err, apperrors.ErrPortfolioNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPortfolioRepository_UpdateSummary(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPortfolioRepository(db, zaptest.NewLogger(t))
	summary := entities.PortfolioSummary{
		PortfolioID:          uuid.New(),
		TotalValue:           decimal.NewFromInt(2400),
		TotalGainLoss:        decimal.NewFromInt(400),
		TotalGainLossPercent: decimal.NewFromInt(20),
		UpdatedAt:            time.Now(),
	}

	mock.ExpectExec(regexp.QuoteMeta("UPDATE portfolios")).
		WithArgs(summary.PortfolioID, "2400", "400", "20", summary.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE portfolios")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.UpdateSummary(context.Background(), summary))
	assert.ErrorIs(t, repo.UpdateSummary(context.Background(), summary), apperrors.ErrPortfolioNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalyticsStore_PersistValuations(t *testing.T) {
	summary := entities.PortfolioSummary{PortfolioID: uuid.New(), UpdatedAt: time.Now()}
	updates := []entities.HoldingValuationUpdate{
		{HoldingID: uuid.New()},
		{HoldingID: uuid.New()},
	}

	t.Run("commits", func(t *testing.T) {
		db, mock := newMockDB(t)
		logger := zaptest.NewLogger(t)
		store := NewAnalyticsStore(db, NewHoldingRepository(db, logger), NewPortfolioRepository(db, logger), logger)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("UPDATE portfolio_holdings")).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta("UPDATE portfolio_holdings")).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta("UPDATE portfolios")).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, store.PersistValuations(context.Background(), updates, summary))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on holding failure", func(t *testing.T) {
		db, mock := newMockDB(t)
		logger := zaptest.NewLogger(t)
		store := NewAnalyticsStore(db, NewHoldingRepository(db, logger), NewPortfolioRepository(db, logger), logger)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("UPDATE portfolio_holdings")).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta("UPDATE portfolio_holdings")).WillReturnError(errors.New("deadlock detected"))
		mock.ExpectRollback()

		err := store.PersistValuations(context.Background(), updates, summary)

		assert.ErrorContains(t, err, "deadlock detected")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when portfolio is missing", func(t *testing.T) {
		db, mock := newMockDB(t)
		logger := zaptest.NewLogger(t)
		store := NewAnalyticsStore(db, NewHoldingRepository(db, logger), NewPortfolioRepository(db, logger), logger)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("UPDATE portfolios")).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := store.PersistValuations(context.Background(), nil, summary)

		assert.ErrorIs(t, err, apperrors.ErrPortfolioNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStockRepository_ListPriceHistory(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStockRepository(db, zaptest.NewLogger(t))
	stockID := uuid.New()
	since := time.Now().Add(-24 * time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta("FROM stock_prices")).
		WithArgs(sqlmock.AnyArg(), since).
		WillReturnRows(sqlmock.NewRows([]string{"stock_id", "price", "recorded_at"}).
			AddRow(stockID.String(), "101.5", since.Add(time.Hour)))

	points, err := repo.ListPriceHistory(context.Background(), []uuid.UUID{stockID}, since)

	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, stockID, points[0].StockID)
	assert.Equal(t, "101.5", points[0].Price.String())

	empty, err := repo.ListPriceHistory(context.Background(), nil, since)
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStockRepository_GetByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStockRepository(db, zaptest.NewLogger(t))

	mock.ExpectQuery(regexp.QuoteMeta("FROM stocks")).WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), uuid.New())

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

var stockRowColumns = []string{"id", "symbol", "name", "current_price", "sector", "volume", "market_cap", "last_updated"}

func TestStockRepository_List(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStockRepository(db, zaptest.NewLogger(t))
	bigID, smallID := uuid.New(), uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("FROM stocks ORDER BY market_cap DESC NULLS LAST")).
		WillReturnRows(sqlmock.NewRows(stockRowColumns).
			AddRow(bigID.String(), "ACME", "Acme Corp", "150", "Technology", int64(1000), "3000000000", time.Now()).
			AddRow(smallID.String(), "TINY", "Tiny Inc", nil, nil, nil, nil, nil))

	stocks, err := repo.List(context.Background())

	require.NoError(t, err)
	require.Len(t, stocks, 2)
	assert.Equal(t, bigID, stocks[0].ID)
	assert.True(t, stocks[0].CurrentPrice.Valid)
	assert.Equal(t, "TINY", stocks[1].Symbol)
	assert.False(t, stocks[1].CurrentPrice.Valid)
	assert.Equal(t, entities.UnknownSector, stocks[1].SectorName())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStockRepository_List_Error(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStockRepository(db, zaptest.NewLogger(t))

	mock.ExpectQuery(regexp.QuoteMeta("FROM stocks")).WillReturnError(errors.New("connection reset"))

	_, err := repo.List(context.Background())

	assert.ErrorContains(t, err, "failed to list stocks")
}

func TestStockRepository_GetBySymbol(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStockRepository(db, zaptest.NewLogger(t))
	stockID := uuid.New()

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("FROM stocks WHERE symbol = $1")).
			WithArgs("ACME").
			WillReturnRows(sqlmock.NewRows(stockRowColumns).
				AddRow(stockID.String(), "ACME", "Acme Corp", "150", "Technology", int64(1000), "3000000000", time.Now()))

		stock, err := repo.GetBySymbol(context.Background(), "ACME")

		require.NoError(t, err)
		assert.Equal(t, stockID, stock.ID)
		assert.Equal(t, "Acme Corp", stock.Name)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("FROM stocks WHERE symbol = $1")).
			WithArgs("NOPE").
			WillReturnRows(sqlmock.NewRows(stockRowColumns))

		_, err := repo.GetBySymbol(context.Background(), "NOPE")

		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
