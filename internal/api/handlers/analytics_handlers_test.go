package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stockdash/portfolio_service/internal/domain/entities"
	apperrors "github.com/stockdash/portfolio_service/pkg/errors"
	"github.com/stockdash/portfolio_service/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newAnalyticsRouter(svc *MockAnalyticsService, owners *MockPortfolioService, enforce bool) *gin.Engine {
	h := NewAnalyticsHandlers(svc, owners, enforce, logger.NewNop())
	r := gin.New()
	r.POST("/portfolio-analytics", h.ComputeAnalytics)
	r.GET("/portfolios/:id/analytics", h.GetAnalytics)
	r.POST("/portfolios/:id/analytics/recompute", h.RecomputePortfolio)
	return r
}

func postJSON(r http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case string:
		buf.WriteString(b)
	default:
		_ = json.NewEncoder(&buf).Encode(b)
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func sampleAnalytics(portfolioID uuid.UUID) *entities.PortfolioAnalytics {
	return &entities.PortfolioAnalytics{
		PortfolioID:          portfolioID,
		TotalValue:           2400,
		TotalCost:            2000,
		TotalGainLoss:        400,
		TotalGainLossPercent: 20,
		HoldingsCount:        2,
		SectorAllocation:     map[string]float64{"Tech": 2400},
		TopHoldings:          []entities.HoldingAnalytics{},
		RiskMetrics:          entities.RiskMetrics{DiversificationScore: 2, VolatilityScore: 12.5, BetaScore: 1.1},
	}
}

func TestComputeAnalytics(t *testing.T) {
	portfolioID, userID := uuid.New(), uuid.New()

	t.Run("returns analytics", func(t *testing.T) {
		svc := new(MockAnalyticsService)
		svc.On("Recompute", mock.Anything, portfolioID, userID).Return(sampleAnalytics(portfolioID), nil)

		w := postJSON(newAnalyticsRouter(svc, nil, false), "/portfolio-analytics", map[string]string{
			"portfolioId": portfolioID.String(),
			"userId":      userID.String(),
		})

		require.Equal(t, http.StatusOK, w.Code)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, 2400.0, body["totalValue"])
		assert.Equal(t, 20.0, body["totalGainLossPercent"])
		assert.Equal(t, map[string]interface{}{"Tech": 2400.0}, body["sectorAllocation"])
		assert.Contains(t, body, "riskMetrics")
		svc.AssertExpectations(t)
	})

	t.Run("rejects malformed json", func(t *testing.T) {
		svc := new(MockAnalyticsService)
		w := postJSON(newAnalyticsRouter(svc, nil, false), "/portfolio-analytics", "{not json")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), `"error"`)
		svc.AssertNotCalled(t, "Recompute", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects invalid ids", func(t *testing.T) {
		svc := new(MockAnalyticsService)
		w := postJSON(newAnalyticsRouter(svc, nil, false), "/portfolio-analytics", map[string]string{
			"portfolioId": "abc",
		})

		require.Equal(t, http.StatusBadRequest, w.Code)
		var body ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "Validation failed", body.Error)
		assert.Equal(t, "must be a valid UUID", body.Details["portfolioId"])
		assert.Equal(t, "is required", body.Details["userId"])
	})

	t.Run("fetch failure is a server error without partial analytics", func(t *testing.T) {
		svc := new(MockAnalyticsService)
		svc.On("Recompute", mock.Anything, portfolioID, userID).
			Return(nil, apperrors.WrapSentinel(apperrors.ErrHoldingsFetch, errors.New("pq: connection refused")))

		w := postJSON(newAnalyticsRouter(svc, nil, false), "/portfolio-analytics", map[string]string{
			"portfolioId": portfolioID.String(),
			"userId":      userID.String(),
		})

		require.Equal(t, http.StatusInternalServerError, w.Code)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "Failed to fetch portfolio holdings", body["error"])
		assert.Equal(t, apperrors.CodeHoldingsFetchFailed, body["code"])
		assert.NotContains(t, body, "totalValue")
		assert.NotContains(t, w.Body.String(), "connection refused")
	})

	t.Run("unknown portfolio is 404", func(t *testing.T) {
		svc := new(MockAnalyticsService)
		svc.On("Recompute", mock.Anything, portfolioID, userID).Return(nil, apperrors.ErrPortfolioNotFound)

		w := postJSON(newAnalyticsRouter(svc, nil, false), "/portfolio-analytics", map[string]string{
			"portfolioId": portfolioID.String(),
			"userId":      userID.String(),
		})

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), apperrors.CodePortfolioNotFound)
	})

	t.Run("ownership enforced", func(t *testing.T) {
		svc := new(MockAnalyticsService)
		owners := new(MockPortfolioService)
		owners.On("EnsureOwner", mock.Anything, portfolioID, userID).Return(apperrors.ErrForbidden)

		w := postJSON(newAnalyticsRouter(svc, owners, true), "/portfolio-analytics", map[string]string{
			"portfolioId": portfolioID.String(),
			"userId":      userID.String(),
		})

		assert.Equal(t, http.StatusForbidden, w.Code)
		svc.AssertNotCalled(t, "Recompute", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestGetAnalytics(t *testing.T) {
	portfolioID := uuid.New()

	t.Run("serves cached", func(t *testing.T) {
		svc := new(MockAnalyticsService)
		svc.On("GetCached", mock.Anything, portfolioID).Return(sampleAnalytics(portfolioID), nil)

		w := httptest.NewRecorder()
		newAnalyticsRouter(svc, nil, false).ServeHTTP(w,
			httptest.NewRequest(http.MethodGet, "/portfolios/"+portfolioID.String()+"/analytics", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), portfolioID.String())
	})

	t.Run("bad id", func(t *testing.T) {
		w := httptest.NewRecorder()
		newAnalyticsRouter(new(MockAnalyticsService), nil, false).ServeHTTP(w,
			httptest.NewRequest(http.MethodGet, "/portfolios/nope/analytics", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing user when enforced", func(t *testing.T) {
		w := httptest.NewRecorder()
		newAnalyticsRouter(new(MockAnalyticsService), new(MockPortfolioService), true).ServeHTTP(w,
			httptest.NewRequest(http.MethodGet, "/portfolios/"+portfolioID.String()+"/analytics", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "userId is required")
	})
}

func TestRecomputePortfolio(t *testing.T) {
	portfolioID, userID := uuid.New(), uuid.New()
	svc := new(MockAnalyticsService)
	svc.On("Recompute", mock.Anything, portfolioID, userID).Return(sampleAnalytics(portfolioID), nil)

	w := postJSON(newAnalyticsRouter(svc, nil, false),
		"/portfolios/"+portfolioID.String()+"/analytics/recompute?userId="+userID.String(), "")

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}
