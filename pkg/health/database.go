package health

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// schemaProbe confirms migrations have run, not just that Postgres answers
const schemaProbe = `SELECT to_regclass('public.portfolio_holdings') IS NOT NULL`

// DatabaseChecker checks the holdings database
type DatabaseChecker struct {
	db      *sql.DB
	timeout time.Duration
}

func NewDatabaseChecker(db *sql.DB, timeout time.Duration) *DatabaseChecker {
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &DatabaseChecker{db: db, timeout: timeout}
}

func (c *DatabaseChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.db.PingContext(ctx); err != nil {
		return NewUnhealthyResult("database", err).WithDuration(time.Since(start))
	}

	var migrated bool
	if err := c.db.QueryRowContext(ctx, schemaProbe).Scan(&migrated); err != nil {
		return NewUnhealthyResult("database", err).WithDuration(time.Since(start))
	}
	if !migrated {
		return NewUnhealthyResult("database", fmt.Errorf("portfolio schema not migrated")).
			WithDuration(time.Since(start))
	}

	stats := c.db.Stats()
	result := NewHealthyResult("database", "connected").
		WithDuration(time.Since(start)).
		WithMetadata("open_connections", stats.OpenConnections).
		WithMetadata("in_use", stats.InUse)

	// recompute fan-out can starve the pool before it errors
	if stats.MaxOpenConnections > 0 {
		utilization := float64(stats.InUse) / float64(stats.MaxOpenConnections)
		result = result.WithMetadata("pool_utilization", utilization)
		if utilization > 0.8 {
			result.Status = StatusDegraded
			result.Message = "high connection pool utilization"
		}
	}

	return result
}

func (c *DatabaseChecker) Name() string {
	return "database"
}
