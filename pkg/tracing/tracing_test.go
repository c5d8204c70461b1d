package tracing

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type fakeResult struct{ rows int64 }

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return r.rows, nil }

func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return recorder
}

func TestTraceExec(t *testing.T) {
	recorder := withRecorder(t)

	rows, err := TraceExec(context.Background(), DBSpanConfig{Operation: "UPDATE", Table: "portfolios"},
		func(context.Context) (sql.Result, error) { return fakeResult{rows: 3}, nil })

	require.NoError(t, err)
	assert.Equal(t, int64(3), rows)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "UPDATE portfolios", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
}

func TestTraceQuery_RecordsError(t *testing.T) {
	recorder := withRecorder(t)
	boom := errors.New("boom")

	err := TraceQuery(context.Background(), DBSpanConfig{Operation: "SELECT", Table: "stocks"},
		func(context.Context) error { return boom })

	assert.ErrorIs(t, err, boom)
	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
}

func TestTraceQuery_NoRowsIsNotAnError(t *testing.T) {
	recorder := withRecorder(t)

	_ = TraceQuery(context.Background(), DBSpanConfig{Operation: "SELECT", Table: "stocks"},
		func(context.Context) error { return sql.ErrNoRows })

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
}

func TestHTTPMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := withRecorder(t)

	router := gin.New()
	router.Use(HTTPMiddleware())
	router.GET("/portfolios/:id/analytics", func(c *gin.Context) {
		assert.NotEmpty(t, TraceIDFromContext(c.Request.Context()))
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/portfolios/abc/analytics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Trace-ID"))
	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /portfolios/:id/analytics", spans[0].Name())
}

func TestInitProvider_Disabled(t *testing.T) {
	shutdown, err := InitProvider(context.Background(), Config{Enabled: false})

	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
