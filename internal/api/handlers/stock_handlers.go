package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stockdash/portfolio_service/internal/domain/entities"
	"github.com/stockdash/portfolio_service/pkg/logger"
)

// StockCatalog looks up the stocks a holding can reference
type StockCatalog interface {
	ListStocks(ctx context.Context) ([]entities.Stock, error)
	GetStock(ctx context.Context, symbol string) (*entities.Stock, error)
}

type StockHandler struct {
	stocks StockCatalog
	logger *logger.Logger
}

func NewStockHandler(stocks StockCatalog, log *logger.Logger) *StockHandler {
	return &StockHandler{stocks: stocks, logger: log}
}

// ListStocks returns every stock, largest market cap first
// @Summary List stocks
// @Tags stocks
// @Produce json
// @Success 200 {array} entities.Stock
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/stocks [get]
func (h *StockHandler) ListStocks(c *gin.Context) {
	stocks, err := h.stocks.ListStocks(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if stocks == nil {
		stocks = []entities.Stock{}
	}

	c.JSON(http.StatusOK, stocks)
}

// GetStock returns one stock by ticker symbol
// @Summary Get a stock by symbol
// @Tags stocks
// @Produce json
// @Param symbol path string true "Ticker symbol"
// @Success 200 {object} entities.Stock
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/stocks/{symbol} [get]
func (h *StockHandler) GetStock(c *gin.Context) {
	stock, err := h.stocks.GetStock(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stock)
}
