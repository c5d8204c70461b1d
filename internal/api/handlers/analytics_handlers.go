package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stockdash/portfolio_service/internal/domain/entities"
	"github.com/stockdash/portfolio_service/pkg/logger"
)

// AnalyticsService recomputes and serves portfolio analytics
type AnalyticsService interface {
	Recompute(ctx context.Context, portfolioID, userID uuid.UUID) (*entities.PortfolioAnalytics, error)
	GetCached(ctx context.Context, portfolioID uuid.UUID) (*entities.PortfolioAnalytics, error)
}

// OwnershipChecker confirms a portfolio belongs to a user
type OwnershipChecker interface {
	EnsureOwner(ctx context.Context, portfolioID, userID uuid.UUID) error
}

type AnalyticsHandlers struct {
	analytics        AnalyticsService
	owners           OwnershipChecker
	enforceOwnership bool
	logger           *logger.Logger
}

func NewAnalyticsHandlers(analytics AnalyticsService, owners OwnershipChecker, enforceOwnership bool, log *logger.Logger) *AnalyticsHandlers {
	return &AnalyticsHandlers{
		analytics:        analytics,
		owners:           owners,
		enforceOwnership: enforceOwnership,
		logger:           log,
	}
}

// PortfolioAnalyticsRequest is the body of POST /portfolio-analytics
type PortfolioAnalyticsRequest struct {
	PortfolioID string `json:"portfolioId" binding:"required,uuid"`
	UserID      string `json:"userId" binding:"required,uuid"`
}

// ComputeAnalytics recomputes analytics for a portfolio and persists the results
// @Summary Recompute portfolio analytics
// @Description Revalues every holding, persists the valuations and returns the aggregate analytics
// @Tags analytics
// @Accept json
// @Produce json
// @Param request body PortfolioAnalyticsRequest true "Portfolio and user"
// @Success 200 {object} entities.PortfolioAnalytics
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/portfolio-analytics [post]
func (h *AnalyticsHandlers) ComputeAnalytics(c *gin.Context) {
	var req PortfolioAnalyticsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	portfolioID := uuid.MustParse(req.PortfolioID)
	userID := uuid.MustParse(req.UserID)

	h.recompute(c, portfolioID, userID)
}

// RecomputePortfolio recomputes analytics for the portfolio in the path
// @Summary Recompute analytics for a portfolio
// @Tags analytics
// @Produce json
// @Param id path string true "Portfolio ID"
// @Param userId query string false "Caller user ID"
// @Success 200 {object} entities.PortfolioAnalytics
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/portfolios/{id}/analytics/recompute [post]
func (h *AnalyticsHandlers) RecomputePortfolio(c *gin.Context) {
	portfolioID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	userID, _, err := optionalUserID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	h.recompute(c, portfolioID, userID)
}

// GetAnalytics returns cached analytics, recomputing on a miss
// @Summary Get portfolio analytics
// @Tags analytics
// @Produce json
// @Param id path string true "Portfolio ID"
// @Param userId query string false "Caller user ID"
// @Success 200 {object} entities.PortfolioAnalytics
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/portfolios/{id}/analytics [get]
func (h *AnalyticsHandlers) GetAnalytics(c *gin.Context) {
	portfolioID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	userID, _, err := optionalUserID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if !h.authorize(c, portfolioID, userID) {
		return
	}

	analytics, err := h.analytics.GetCached(c.Request.Context(), portfolioID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, analytics)
}

func (h *AnalyticsHandlers) recompute(c *gin.Context, portfolioID, userID uuid.UUID) {
	if !h.authorize(c, portfolioID, userID) {
		return
	}

	analytics, err := h.analytics.Recompute(c.Request.Context(), portfolioID, userID)
	if err != nil {
		requestLogger(c, h.logger).CtxError(c.Request.Context(), "Analytics recompute failed",
			"portfolio_id", portfolioID.String(),
			"error", err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, analytics)
}

// authorize applies the ownership check when enforcement is on. It writes
// the error response itself and reports whether the handler may continue.
func (h *AnalyticsHandlers) authorize(c *gin.Context, portfolioID, userID uuid.UUID) bool {
	return authorizePortfolio(c, h.owners, h.enforceOwnership, portfolioID, userID)
}
