package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockdash/portfolio_service/internal/domain/entities"
	"github.com/stockdash/portfolio_service/pkg/logger"
)

// PortfolioService manages portfolios and their holdings
type PortfolioService interface {
	ListPortfolios(ctx context.Context, userID uuid.UUID) ([]*entities.Portfolio, error)
	CreatePortfolio(ctx context.Context, userID uuid.UUID, name string, description *string) (*entities.Portfolio, error)
	GetHoldings(ctx context.Context, portfolioID uuid.UUID) ([]entities.Holding, error)
	AddHolding(ctx context.Context, portfolioID, stockID uuid.UUID, quantity, averagePrice decimal.Decimal) (*entities.Holding, error)
	RemoveHolding(ctx context.Context, portfolioID, holdingID uuid.UUID) error
	EnsureOwner(ctx context.Context, portfolioID, userID uuid.UUID) error
}

type PortfolioHandler struct {
	portfolios       PortfolioService
	enforceOwnership bool
	logger           *logger.Logger
}

func NewPortfolioHandler(portfolios PortfolioService, enforceOwnership bool, log *logger.Logger) *PortfolioHandler {
	return &PortfolioHandler{
		portfolios:       portfolios,
		enforceOwnership: enforceOwnership,
		logger:           log,
	}
}

type CreatePortfolioRequest struct {
	UserID      string  `json:"userId" binding:"required,uuid"`
	Name        string  `json:"name" binding:"required,max=120"`
	Description *string `json:"description"`
}

type AddHoldingRequest struct {
	StockID      string          `json:"stockId" binding:"required,uuid"`
	Quantity     decimal.Decimal `json:"quantity"`
	AveragePrice decimal.Decimal `json:"averagePrice"`
}

// ListPortfolios returns a user's portfolios, newest first
// @Summary List portfolios for a user
// @Tags portfolios
// @Produce json
// @Param userId path string true "User ID"
// @Success 200 {array} entities.Portfolio
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/users/{userId}/portfolios [get]
func (h *PortfolioHandler) ListPortfolios(c *gin.Context) {
	userID, ok := uuidParam(c, "userId")
	if !ok {
		return
	}

	portfolios, err := h.portfolios.ListPortfolios(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	if portfolios == nil {
		portfolios = []*entities.Portfolio{}
	}

	c.JSON(http.StatusOK, portfolios)
}

// CreatePortfolio creates an empty portfolio
// @Summary Create a portfolio
// @Tags portfolios
// @Accept json
// @Produce json
// @Param request body CreatePortfolioRequest true "Portfolio"
// @Success 201 {object} entities.Portfolio
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/portfolios [post]
func (h *PortfolioHandler) CreatePortfolio(c *gin.Context) {
	var req CreatePortfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	portfolio, err := h.portfolios.CreatePortfolio(c.Request.Context(), uuid.MustParse(req.UserID), req.Name, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, portfolio)
}

// GetHoldings lists a portfolio's holdings with their stocks
// @Summary List holdings
// @Tags holdings
// @Produce json
// @Param id path string true "Portfolio ID"
// @Success 200 {array} entities.Holding
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/portfolios/{id}/holdings [get]
func (h *PortfolioHandler) GetHoldings(c *gin.Context) {
	portfolioID, ok := h.portfolioFromPath(c)
	if !ok {
		return
	}

	holdings, err := h.portfolios.GetHoldings(c.Request.Context(), portfolioID)
	if err != nil {
		respondError(c, err)
		return
	}
	if holdings == nil {
		holdings = []entities.Holding{}
	}

	c.JSON(http.StatusOK, holdings)
}

// AddHolding opens a position in a portfolio
// @Summary Add a holding
// @Tags holdings
// @Accept json
// @Produce json
// @Param id path string true "Portfolio ID"
// @Param request body AddHoldingRequest true "Holding"
// @Success 201 {object} entities.Holding
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/portfolios/{id}/holdings [post]
func (h *PortfolioHandler) AddHolding(c *gin.Context) {
	portfolioID, ok := h.portfolioFromPath(c)
	if !ok {
		return
	}

	var req AddHoldingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	holding, err := h.portfolios.AddHolding(c.Request.Context(), portfolioID, uuid.MustParse(req.StockID), req.Quantity, req.AveragePrice)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, holding)
}

// RemoveHolding deletes a position
// @Summary Remove a holding
// @Tags holdings
// @Param id path string true "Portfolio ID"
// @Param holdingId path string true "Holding ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/portfolios/{id}/holdings/{holdingId} [delete]
func (h *PortfolioHandler) RemoveHolding(c *gin.Context) {
	portfolioID, ok := h.portfolioFromPath(c)
	if !ok {
		return
	}
	holdingID, ok := uuidParam(c, "holdingId")
	if !ok {
		return
	}

	if err := h.portfolios.RemoveHolding(c.Request.Context(), portfolioID, holdingID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// portfolioFromPath parses :id and applies the ownership check when enabled
func (h *PortfolioHandler) portfolioFromPath(c *gin.Context) (uuid.UUID, bool) {
	portfolioID, ok := uuidParam(c, "id")
	if !ok {
		return uuid.Nil, false
	}
	if !h.enforceOwnership {
		return portfolioID, true
	}

	userID, present, err := optionalUserID(c)
	if err != nil {
		respondError(c, err)
		return uuid.Nil, false
	}
	if !present {
		respondBadRequest(c, errMissingUserID)
		return uuid.Nil, false
	}
	if err := h.portfolios.EnsureOwner(c.Request.Context(), portfolioID, userID); err != nil {
		respondError(c, err)
		return uuid.Nil, false
	}
	return portfolioID, true
}
