package analytics_scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/sony/gobreaker"
	"github.com/stockdash/portfolio_service/internal/domain/entities"
	"github.com/stockdash/portfolio_service/pkg/circuitbreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// PortfolioLister enumerates every portfolio the job should refresh
type PortfolioLister interface {
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
}

// Recomputer refreshes a single portfolio's analytics
type Recomputer interface {
	RecomputeScheduled(ctx context.Context, portfolioID uuid.UUID) (*entities.PortfolioAnalytics, error)
}

type Config struct {
	// Schedule is a cron expression with a leading seconds field
	Schedule    string
	Concurrency int
	RunTimeout  time.Duration
	Breaker     circuitbreaker.Config
}

func DefaultConfig() Config {
	return Config{
		Schedule:    "0 */15 * * * *",
		Concurrency: 4,
		RunTimeout:  10 * time.Minute,
		Breaker:     circuitbreaker.DefaultConfig(),
	}
}

// RunStats summarizes one pass over all portfolios
type RunStats struct {
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
	Portfolios int           `json:"portfolios"`
	Succeeded  int64         `json:"succeeded"`
	Failed     int64         `json:"failed"`
	// Skipped counts portfolios not attempted, because the breaker was open
	// or the pass ran out of time before dispatching them
	Skipped int64 `json:"skipped"`
}

// Scheduler periodically recomputes analytics for every portfolio
type Scheduler struct {
	cron       *cron.Cron
	portfolios PortfolioLister
	analytics  Recomputer
	breaker    *gobreaker.CircuitBreaker
	config     Config
	logger     *zap.Logger
	tracer     trace.Tracer

	mu      sync.Mutex
	running bool

	// statsMu is separate from mu so a pass can finish while Stop waits on it
	statsMu sync.RWMutex
	lastRun *RunStats
}

// zapCronLogger adapts zap to cron's printf logger
type zapCronLogger struct {
	logger *zap.Logger
}

func (l *zapCronLogger) Printf(format string, args ...interface{}) {
	l.logger.Sugar().Debugf(format, args...)
}

func NewScheduler(portfolios PortfolioLister, analytics Recomputer, config Config, logger *zap.Logger) (*Scheduler, error) {
	if config.Concurrency <= 0 {
		config.Concurrency = 1
	}
	if config.RunTimeout <= 0 {
		config.RunTimeout = DefaultConfig().RunTimeout
	}
	if _, err := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor).Parse(config.Schedule); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", config.Schedule, err)
	}

	c := cron.New(
		cron.WithSeconds(),
		cron.WithLocation(time.UTC),
		cron.WithLogger(cron.VerbosePrintfLogger(&zapCronLogger{logger: logger})),
		// a slow pass must not overlap the next tick
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	return &Scheduler{
		cron:       c,
		portfolios: portfolios,
		analytics:  analytics,
		breaker:    circuitbreaker.New("analytics-recompute", config.Breaker),
		config:     config,
		logger:     logger,
		tracer:     otel.Tracer("analytics-scheduler"),
	}, nil
}

// Start registers the recompute job and starts the cron loop
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	if _, err := s.cron.AddFunc(s.config.Schedule, s.execute); err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.cron.Start()
	s.running = true

	var next time.Time
	if entries := s.cron.Entries(); len(entries) > 0 {
		next = entries[0].Next
	}
	s.logger.Info("Analytics scheduler started",
		zap.String("schedule", s.config.Schedule),
		zap.Int("concurrency", s.config.Concurrency),
		zap.Time("next_run", next))

	return nil
}

// Stop waits for an in-flight pass to finish, up to 30 seconds
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	ctx := s.cron.Stop()
	s.mu.Unlock()

	select {
	case <-ctx.Done():
		s.logger.Info("Analytics scheduler stopped")
	case <-time.After(30 * time.Second):
		s.logger.Warn("Analytics scheduler stop timed out")
	}
}

// Run starts the scheduler and blocks until ctx is done
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	s.Stop()
	return nil
}

// LastRun returns the stats of the most recent pass, or nil
func (s *Scheduler) LastRun() *RunStats {
	s.statsMu.RLock()
	defer s.statsMu.RUnlock()
	if s.lastRun == nil {
		return nil
	}
	stats := *s.lastRun
	return &stats
}

func (s *Scheduler) execute() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.RunTimeout)
	defer cancel()

	if _, err := s.RunOnce(ctx); err != nil {
		s.logger.Error("Scheduled analytics recompute failed", zap.Error(err))
	}
}

// RunOnce recomputes every portfolio with bounded fan-out. A failure on one
// portfolio does not stop the others.
func (s *Scheduler) RunOnce(ctx context.Context) (*RunStats, error) {
	stats := &RunStats{StartedAt: time.Now()}

	ctx, span := s.tracer.Start(ctx, "scheduler.recompute_all")
	defer span.End()

	ids, err := s.portfolios.ListIDs(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list portfolios failed")
		return nil, fmt.Errorf("failed to list portfolios: %w", err)
	}
	stats.Portfolios = len(ids)
	span.SetAttributes(attribute.Int("portfolios", len(ids)))

	var succeeded, failed, skipped atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Concurrency)

	for i, id := range ids {
		if gctx.Err() != nil {
			// never dispatched
			skipped.Add(int64(len(ids) - i))
			break
		}
		portfolioID := id
		g.Go(func() error {
			_, err := s.breaker.Execute(func() (interface{}, error) {
				return s.analytics.RecomputeScheduled(gctx, portfolioID)
			})
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
				skipped.Add(1)
			default:
				failed.Add(1)
				s.logger.Warn("Portfolio recompute failed",
					zap.String("portfolio_id", portfolioID.String()),
					zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()

	stats.Succeeded = succeeded.Load()
	stats.Failed = failed.Load()
	stats.Skipped = skipped.Load()
	stats.Duration = time.Since(stats.StartedAt)

	s.statsMu.Lock()
	s.lastRun = stats
	s.statsMu.Unlock()

	s.logger.Info("Scheduled analytics recompute completed",
		zap.Int("portfolios", stats.Portfolios),
		zap.Int64("succeeded", stats.Succeeded),
		zap.Int64("failed", stats.Failed),
		zap.Int64("skipped", stats.Skipped),
		zap.Duration("duration", stats.Duration))

	if err := ctx.Err(); err != nil {
		return stats, fmt.Errorf("recompute pass interrupted: %w", err)
	}
	return stats, nil
}
