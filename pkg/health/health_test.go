package health

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticChecker struct {
	name   string
	status Status
}

func (s staticChecker) Check(context.Context) CheckResult {
	return CheckResult{Component: s.name, Status: s.status}
}

func (s staticChecker) Name() string { return s.name }

func TestHealthChecker_Overall(t *testing.T) {
	tests := []struct {
		name     string
		statuses []Status
		want     Status
	}{
		{"no checkers", nil, StatusHealthy},
		{"all healthy", []Status{StatusHealthy, StatusHealthy}, StatusHealthy},
		{"one degraded", []Status{StatusHealthy, StatusDegraded}, StatusDegraded},
		{"unhealthy wins", []Status{StatusDegraded, StatusUnhealthy}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthChecker(time.Second)
			for i, s := range tt.statuses {
				h.Register(staticChecker{name: string(rune('a' + i)), status: s})
			}

			status, results := h.Check(context.Background())

			assert.Equal(t, tt.want, status)
			assert.Len(t, results, len(tt.statuses))
		})
	}
}

func TestDatabaseChecker(t *testing.T) {
	t.Run("healthy when schema present", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectPing()
		mock.ExpectQuery(regexp.QuoteMeta(schemaProbe)).
			WillReturnRows(sqlmock.NewRows([]string{"ok"}).AddRow(true))

		result := NewDatabaseChecker(db, time.Second).Check(context.Background())

		assert.Equal(t, StatusHealthy, result.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unhealthy when schema missing", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectPing()
		mock.ExpectQuery(regexp.QuoteMeta(schemaProbe)).
			WillReturnRows(sqlmock.NewRows([]string{"ok"}).AddRow(false))

		result := NewDatabaseChecker(db, time.Second).Check(context.Background())

		assert.Equal(t, StatusUnhealthy, result.Status)
		assert.Contains(t, result.Error, "not migrated")
	})

	t.Run("unhealthy when ping fails", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectPing().WillReturnError(errors.New("connection refused"))

		result := NewDatabaseChecker(db, time.Second).Check(context.Background())

		assert.Equal(t, StatusUnhealthy, result.Status)
		assert.Equal(t, "database", result.Component)
	})
}

func TestRedisChecker_DegradesWhenUnreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 100 * time.Millisecond,
	})
	defer client.Close()

	result := NewRedisChecker(client, time.Second).Check(context.Background())

	assert.Equal(t, StatusDegraded, result.Status)
	assert.NotEmpty(t, result.Error)
}
