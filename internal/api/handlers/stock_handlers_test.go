package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockdash/portfolio_service/internal/domain/entities"
	apperrors "github.com/stockdash/portfolio_service/pkg/errors"
	"github.com/stockdash/portfolio_service/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newStockRouter(catalog *MockStockCatalog) *gin.Engine {
	h := NewStockHandler(catalog, logger.NewNop())
	r := gin.New()
	r.GET("/stocks", h.ListStocks)
	r.GET("/stocks/:symbol", h.GetStock)
	return r
}

func TestListStocks(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		catalog := new(MockStockCatalog)
		stockID := uuid.New()
		catalog.On("ListStocks", mock.Anything).Return([]entities.Stock{{
			ID:           stockID,
			Symbol:       "ACME",
			Name:         "Acme Corp",
			CurrentPrice: decimal.NewNullDecimal(decimal.NewFromInt(150)),
		}}, nil)

		w := httptest.NewRecorder()
		newStockRouter(catalog).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stocks", nil))

		require.Equal(t, http.StatusOK, w.Code)
		var body []map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		require.Len(t, body, 1)
		assert.Equal(t, stockID.String(), body[0]["id"])
		assert.Equal(t, "ACME", body[0]["symbol"])
	})

	t.Run("empty catalog renders array", func(t *testing.T) {
		catalog := new(MockStockCatalog)
		catalog.On("ListStocks", mock.Anything).Return(nil, nil)

		w := httptest.NewRecorder()
		newStockRouter(catalog).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stocks", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
	})

	t.Run("store failure hides driver text", func(t *testing.T) {
		catalog := new(MockStockCatalog)
		catalog.On("ListStocks", mock.Anything).Return(nil, errors.New("pq: connection reset"))

		w := httptest.NewRecorder()
		newStockRouter(catalog).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stocks", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "pq:")
	})
}

func TestGetStock(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		catalog := new(MockStockCatalog)
		stock := &entities.Stock{ID: uuid.New(), Symbol: "ACME", Name: "Acme Corp"}
		catalog.On("GetStock", mock.Anything, "acme").Return(stock, nil)

		w := httptest.NewRecorder()
		newStockRouter(catalog).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stocks/acme", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), stock.ID.String())
	})

	t.Run("not found", func(t *testing.T) {
		catalog := new(MockStockCatalog)
		catalog.On("GetStock", mock.Anything, "NOPE").Return(nil, apperrors.NewNotFoundError("stock"))

		w := httptest.NewRecorder()
		newStockRouter(catalog).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stocks/NOPE", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), apperrors.CodeNotFound)
	})
}
