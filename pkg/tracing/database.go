package tracing

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/stockdash/portfolio_service/pkg/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	dbTracerName = "database"
)

// DBSpanConfig describes one database call
type DBSpanConfig struct {
	Operation string // SELECT, INSERT, UPDATE, DELETE
	Table     string
}

// StartDBSpan creates a client span for a database call
func StartDBSpan(ctx context.Context, cfg DBSpanConfig) (context.Context, trace.Span) {
	spanName := cfg.Operation
	if cfg.Table != "" {
		spanName = cfg.Operation + " " + cfg.Table
	}

	return otel.Tracer(dbTracerName).Start(ctx, spanName,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.operation", cfg.Operation),
			attribute.String("db.sql.table", cfg.Table),
		),
	)
}

// EndDBSpan ends a database span. sql.ErrNoRows is not an error status.
func EndDBSpan(span trace.Span, err error, rowsAffected int64) {
	switch {
	case err == nil:
		span.SetStatus(codes.Ok, "")
	case errors.Is(err, sql.ErrNoRows):
		span.SetStatus(codes.Ok, "no rows found")
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	if rowsAffected >= 0 {
		span.SetAttributes(attribute.Int64("db.rows_affected", rowsAffected))
	}

	span.End()
}

// TraceQuery runs fn inside a database span and records its duration
func TraceQuery(ctx context.Context, cfg DBSpanConfig, fn func(context.Context) error) error {
	ctx, span := StartDBSpan(ctx, cfg)
	start := time.Now()

	err := fn(ctx)

	metrics.RecordDatabaseQuery(cfg.Operation, cfg.Table, time.Since(start).Seconds())
	EndDBSpan(span, err, -1)
	return err
}

// TraceExec runs a statement inside a database span and returns rows affected
func TraceExec(ctx context.Context, cfg DBSpanConfig, fn func(context.Context) (sql.Result, error)) (int64, error) {
	ctx, span := StartDBSpan(ctx, cfg)
	start := time.Now()

	var rows int64 = -1
	result, err := fn(ctx)
	if err == nil && result != nil {
		rows, err = result.RowsAffected()
	}

	metrics.RecordDatabaseQuery(cfg.Operation, cfg.Table, time.Since(start).Seconds())
	EndDBSpan(span, err, rows)
	return rows, err
}
