package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	apperrors "github.com/stockdash/portfolio_service/pkg/errors"
	"github.com/stockdash/portfolio_service/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func dialStream(t *testing.T, svc *MockAnalyticsService, portfolioID string) *websocket.Conn {
	t.Helper()
	h := NewStreamHandler(svc, new(MockPortfolioService), false, 20*time.Millisecond, logger.NewNop())
	r := gin.New()
	r.GET("/ws/portfolios/:id/analytics", h.StreamAnalytics)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/portfolios/" + portfolioID + "/analytics"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestStreamAnalytics_PushesOnInterval(t *testing.T) {
	portfolioID := uuid.New()
	svc := new(MockAnalyticsService)
	svc.On("GetCached", mock.Anything, portfolioID).Return(sampleAnalytics(portfolioID), nil)

	conn := dialStream(t, svc, portfolioID.String())
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	for i := 0; i < 2; i++ {
		var msg map[string]interface{}
		require.NoError(t, conn.ReadJSON(&msg))
		assert.Equal(t, "analytics", msg["type"])
		data := msg["data"].(map[string]interface{})
		assert.Equal(t, 2400.0, data["totalValue"])
	}
}

func TestStreamAnalytics_ErrorFrame(t *testing.T) {
	portfolioID := uuid.New()
	svc := new(MockAnalyticsService)
	svc.On("GetCached", mock.Anything, portfolioID).Return(nil, apperrors.ErrPortfolioNotFound)

	conn := dialStream(t, svc, portfolioID.String())
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var msg StreamMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "error", msg.Type)
	assert.Contains(t, msg.Error, "Portfolio not found")
}

func TestStreamAnalytics_BadID(t *testing.T) {
	h := NewStreamHandler(new(MockAnalyticsService), new(MockPortfolioService), false, time.Second, logger.NewNop())
	r := gin.New()
	r.GET("/ws/portfolios/:id/analytics", h.StreamAnalytics)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/ws/portfolios/bad/analytics", nil))

	assert.Equal(t, 400, w.Code)
}

func TestStreamAnalytics_Ownership(t *testing.T) {
	portfolioID := uuid.New()
	path := "/ws/portfolios/" + portfolioID.String() + "/analytics"

	newRouter := func(svc *MockAnalyticsService, owners *MockPortfolioService) *gin.Engine {
		h := NewStreamHandler(svc, owners, true, time.Second, logger.NewNop())
		r := gin.New()
		r.GET("/ws/portfolios/:id/analytics", h.StreamAnalytics)
		return r
	}

	t.Run("missing userId", func(t *testing.T) {
		svc := new(MockAnalyticsService)
		owners := new(MockPortfolioService)
		w := httptest.NewRecorder()
		newRouter(svc, owners).ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		owners.AssertNotCalled(t, "EnsureOwner", mock.Anything, mock.Anything, mock.Anything)
		svc.AssertNotCalled(t, "GetCached", mock.Anything, mock.Anything)
	})

	t.Run("not the owner", func(t *testing.T) {
		userID := uuid.New()
		svc := new(MockAnalyticsService)
		owners := new(MockPortfolioService)
		owners.On("EnsureOwner", mock.Anything, portfolioID, userID).Return(apperrors.ErrForbidden)

		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("X-User-ID", userID.String())
		w := httptest.NewRecorder()
		newRouter(svc, owners).ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), apperrors.CodeForbidden)
		svc.AssertNotCalled(t, "GetCached", mock.Anything, mock.Anything)
	})

	t.Run("owner streams", func(t *testing.T) {
		userID := uuid.New()
		svc := new(MockAnalyticsService)
		svc.On("GetCached", mock.Anything, portfolioID).Return(sampleAnalytics(portfolioID), nil)
		owners := new(MockPortfolioService)
		owners.On("EnsureOwner", mock.Anything, portfolioID, userID).Return(nil)

		srv := httptest.NewServer(newRouter(svc, owners))
		defer srv.Close()

		url := "ws" + strings.TrimPrefix(srv.URL, "http") + path + "?userId=" + userID.String()
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		defer conn.Close()
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))

		var msg StreamMessage
		require.NoError(t, conn.ReadJSON(&msg))
		assert.Equal(t, "analytics", msg.Type)
	})
}
