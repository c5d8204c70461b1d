package analytics

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/stockdash/portfolio_service/internal/domain/entities"
	"github.com/stockdash/portfolio_service/pkg/bulk"
	apperrors "github.com/stockdash/portfolio_service/pkg/errors"
	"github.com/stockdash/portfolio_service/pkg/logger"
	"github.com/stockdash/portfolio_service/pkg/metrics"
	"github.com/stockdash/portfolio_service/pkg/retry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Trigger labels what started a recomputation
type Trigger string

const (
	TriggerAPI         Trigger = "api"
	TriggerReadThrough Trigger = "read_through"
	TriggerScheduler   Trigger = "scheduler"
)

// Store is the holdings store the aggregator reads from and writes to
type Store interface {
	ListHoldingsWithStocks(ctx context.Context, portfolioID uuid.UUID) ([]entities.Holding, error)
	UpdateHoldingValuation(ctx context.Context, update entities.HoldingValuationUpdate) error
	UpdatePortfolioSummary(ctx context.Context, summary entities.PortfolioSummary) error
	// PersistValuations writes every holding and the summary in one transaction
	PersistValuations(ctx context.Context, updates []entities.HoldingValuationUpdate, summary entities.PortfolioSummary) error
}

// Cache stores rendered analytics. Get returns nil, nil on a miss.
type Cache interface {
	Get(ctx context.Context, portfolioID uuid.UUID) (*entities.PortfolioAnalytics, error)
	Set(ctx context.Context, analytics *entities.PortfolioAnalytics, ttl time.Duration) error
	Delete(ctx context.Context, portfolioID uuid.UUID) error
}

// Config holds aggregator settings
type Config struct {
	TopHoldings      int
	WriteConcurrency int
	WriteRetries     int
	WritePolicy      WritePolicy
	PersistMode      PersistMode
	PriceFallback    PriceFallback
	CacheTTL         time.Duration
}

// DefaultConfig mirrors the dashboard's behavior
func DefaultConfig() Config {
	return Config{
		TopHoldings:      5,
		WriteConcurrency: 4,
		WriteRetries:     2,
		WritePolicy:      WritePolicyBestEffort,
		PersistMode:      PersistModePerRow,
		PriceFallback:    PriceFallbackZero,
		CacheTTL:         time.Minute,
	}
}

// Service is the holdings aggregator
type Service struct {
	store  Store
	cache  Cache
	risk   RiskModel
	cfg    Config
	retry  retry.RetryConfig
	logger *logger.Logger
	tracer trace.Tracer
	now    func() time.Time
}

// NewService creates the aggregator. cache may be nil.
func NewService(store Store, cache Cache, risk RiskModel, cfg Config, log *logger.Logger) *Service {
	if cfg.TopHoldings <= 0 {
		cfg.TopHoldings = 5
	}
	if cfg.WriteConcurrency <= 0 {
		cfg.WriteConcurrency = 1
	}
	if risk == nil {
		risk = NewPlaceholderRiskModel(nil)
	}
	return &Service{
		store:  store,
		cache:  cache,
		risk:   risk,
		cfg:    cfg,
		retry:  retry.DefaultConfig().WithAttempts(cfg.WriteRetries + 1),
		logger: log,
		tracer: otel.Tracer("portfolio-analytics"),
		now:    time.Now,
	}
}

// Recompute runs one aggregation pass for a portfolio. userID is only
// used for logging; ownership is checked by the caller.
func (s *Service) Recompute(ctx context.Context, portfolioID, userID uuid.UUID) (*entities.PortfolioAnalytics, error) {
	return s.recompute(ctx, portfolioID, userID, TriggerAPI)
}

// RecomputeScheduled is Recompute for background refreshes
func (s *Service) RecomputeScheduled(ctx context.Context, portfolioID uuid.UUID) (*entities.PortfolioAnalytics, error) {
	return s.recompute(ctx, portfolioID, uuid.Nil, TriggerScheduler)
}

// GetCached returns cached analytics when present, otherwise recomputes.
// Cache failures degrade to a recomputation.
func (s *Service) GetCached(ctx context.Context, portfolioID uuid.UUID) (*entities.PortfolioAnalytics, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, portfolioID)
		if err != nil {
			s.logger.CtxWarn(ctx, "Analytics cache read failed", "portfolio_id", portfolioID, "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}
	return s.recompute(ctx, portfolioID, uuid.Nil, TriggerReadThrough)
}

// Invalidate drops cached analytics after holdings change
func (s *Service) Invalidate(ctx context.Context, portfolioID uuid.UUID) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Delete(ctx, portfolioID); err != nil {
		return apperrors.WrapWithType(err, apperrors.ErrorTypeStorage, apperrors.CodeCacheFailed, "Failed to invalidate analytics cache")
	}
	return nil
}

func (s *Service) recompute(ctx context.Context, portfolioID, userID uuid.UUID, trigger Trigger) (*entities.PortfolioAnalytics, error) {
	ctx, span := s.tracer.Start(ctx, "analytics.recompute", trace.WithAttributes(
		attribute.String("portfolio_id", portfolioID.String()),
		attribute.String("trigger", string(trigger)),
	))
	defer span.End()

	start := s.now()
	log := s.logger.ForPortfolio(portfolioID.String()).WithContext(ctx)

	holdings, err := s.store.ListHoldingsWithStocks(ctx, portfolioID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "holdings fetch failed")
		metrics.RecordRecompute(string(trigger), "failed", 0, time.Since(start).Seconds())
		log.Errorw("Failed to fetch holdings", "error", err)
		return nil, apperrors.WrapSentinel(apperrors.ErrHoldingsFetch, err)
	}

	vals := make([]entities.HoldingValuation, len(holdings))
	for i, h := range holdings {
		vals[i] = ComputeValuation(h, s.cfg.PriceFallback)
		if vals[i].PriceMissing {
			metrics.RecordMissingPrice()
			log.Warnw("Holding has no current price",
				"holding_id", h.ID,
				"stock_id", h.StockID,
				"price_fallback", s.cfg.PriceFallback,
			)
		}
	}

	totals := Summarize(vals)
	ApplyWeights(vals, totals.TotalValue)

	risk, err := s.risk.Score(ctx, vals)
	if err != nil {
		log.Warnw("Risk model failed, reporting neutral scores", "risk_model", s.risk.Name(), "error", err)
		risk = NeutralRiskScores
	}

	summary := entities.PortfolioSummary{
		PortfolioID:          portfolioID,
		TotalValue:           totals.TotalValue,
		TotalGainLoss:        totals.TotalGainLoss,
		TotalGainLossPercent: totals.TotalGainLossPercent,
		UpdatedAt:            s.now().UTC(),
	}

	batch, err := s.persist(ctx, vals, summary)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		metrics.RecordRecompute(string(trigger), "failed", len(vals), time.Since(start).Seconds())
		log.Errorw("Failed to persist analytics", "error", err)
		return nil, err
	}

	analytics := BuildAnalytics(vals, totals, s.cfg.TopHoldings, risk)
	analytics.PortfolioID = portfolioID
	analytics.FailedWrites = len(batch.Failed())

	outcome := "success"
	if batch.Degraded() {
		outcome = "degraded"
	}
	metrics.RecordRecompute(string(trigger), outcome, len(vals), time.Since(start).Seconds())

	if s.cache != nil {
		if err := s.cache.Set(ctx, analytics, s.cfg.CacheTTL); err != nil {
			log.Warnw("Failed to cache analytics", "error", err)
		}
	}

	log.Infow("Portfolio analytics recomputed",
		"user_id", userID,
		"trigger", trigger,
		"holdings_count", totals.HoldingsCount,
		"total_value", totals.TotalValue.String(),
		"failed_writes", analytics.FailedWrites,
	)

	return analytics, nil
}

// persist writes holding valuations and then the portfolio summary
func (s *Service) persist(ctx context.Context, vals []entities.HoldingValuation, summary entities.PortfolioSummary) (entities.BatchWriteResult, error) {
	updates := valuationUpdates(vals)

	if s.cfg.PersistMode == PersistModeTransactional {
		if err := s.store.PersistValuations(ctx, updates, summary); err != nil {
			return entities.BatchWriteResult{}, s.portfolioWriteError(err)
		}
		batch := entities.BatchWriteResult{Results: make([]entities.HoldingWriteResult, len(updates))}
		for i, u := range updates {
			batch.Results[i] = entities.HoldingWriteResult{HoldingID: u.HoldingID, Attempts: 1}
		}
		return batch, nil
	}

	batch := s.writeHoldings(ctx, updates)
	if failed := batch.Failed(); len(failed) > 0 {
		metrics.RecordHoldingWriteFailures(len(failed))
		for _, f := range failed {
			s.logger.CtxWarn(ctx, "Holding valuation write failed",
				"portfolio_id", summary.PortfolioID,
				"holding_id", f.HoldingID,
				"attempts", f.Attempts,
				"error", f.Err,
			)
		}
	}
	if err := s.cfg.WritePolicy.Evaluate(batch); err != nil {
		return batch, err
	}

	if err := s.store.UpdatePortfolioSummary(ctx, summary); err != nil {
		return batch, s.portfolioWriteError(err)
	}
	return batch, nil
}

type holdingWrite struct {
	update   entities.HoldingValuationUpdate
	attempts int
}

// writeHoldings issues independent, retried writes through a bounded pool
func (s *Service) writeHoldings(ctx context.Context, updates []entities.HoldingValuationUpdate) entities.BatchWriteResult {
	tasks := make([]*holdingWrite, len(updates))
	for i, u := range updates {
		tasks[i] = &holdingWrite{update: u}
	}

	results := bulk.ProcessConcurrent(ctx, tasks, s.cfg.WriteConcurrency, func(ctx context.Context, t *holdingWrite) error {
		return retry.WithExponentialBackoff(ctx, s.retry, func() error {
			t.attempts++
			return s.store.UpdateHoldingValuation(ctx, t.update)
		}, apperrors.ShouldRetry)
	})

	batch := entities.BatchWriteResult{Results: make([]entities.HoldingWriteResult, len(results))}
	for i, r := range results {
		res := entities.HoldingWriteResult{
			HoldingID: r.Item.update.HoldingID,
			Attempts:  r.Item.attempts,
		}
		if r.Error != nil {
			res.Err = apperrors.WrapSentinel(apperrors.ErrHoldingWrite, r.Error)
		}
		batch.Results[i] = res
	}
	return batch
}

func (s *Service) portfolioWriteError(err error) error {
	if errors.Is(err, apperrors.ErrPortfolioNotFound) {
		return err
	}
	return apperrors.WrapSentinel(apperrors.ErrPortfolioWrite, err)
}

func valuationUpdates(vals []entities.HoldingValuation) []entities.HoldingValuationUpdate {
	updates := make([]entities.HoldingValuationUpdate, 0, len(vals))
	for _, v := range vals {
		if v.Excluded {
			continue
		}
		updates = append(updates, entities.HoldingValuationUpdate{
			HoldingID:       v.Holding.ID,
			CurrentValue:    v.CurrentValue,
			GainLoss:        v.GainLoss,
			GainLossPercent: v.GainLossPercent,
		})
	}
	return updates
}
