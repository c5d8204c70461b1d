package di

import (
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/stockdash/portfolio_service/internal/domain/services/analytics"
	"github.com/stockdash/portfolio_service/internal/domain/services/portfolio"
	"github.com/stockdash/portfolio_service/internal/infrastructure/cache"
	"github.com/stockdash/portfolio_service/internal/infrastructure/config"
	"github.com/stockdash/portfolio_service/internal/infrastructure/repositories"
	"github.com/stockdash/portfolio_service/internal/workers/analytics_scheduler"
	"github.com/stockdash/portfolio_service/pkg/health"
	"github.com/stockdash/portfolio_service/pkg/logger"
	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	DB     *sqlx.DB
	// Redis is nil when the analytics cache is disabled
	Redis  redis.UniversalClient
	Logger *logger.Logger
	ZapLog *zap.Logger

	// Repositories
	PortfolioRepo  *repositories.PortfolioRepository
	HoldingRepo    *repositories.HoldingRepository
	StockRepo      *repositories.StockRepository
	AnalyticsStore *repositories.AnalyticsStore

	// Domain Services
	AnalyticsService *analytics.Service
	PortfolioService *portfolio.Service

	HealthChecker *health.HealthChecker
	Scheduler     *analytics_scheduler.Scheduler
}

// NewContainer wires repositories, services and workers. redisClient may be nil.
func NewContainer(cfg *config.Config, db *sqlx.DB, redisClient redis.UniversalClient, log *logger.Logger) (*Container, error) {
	zapLog := log.Zap()

	c := &Container{
		Config: cfg,
		DB:     db,
		Redis:  redisClient,
		Logger: log,
		ZapLog: zapLog,
	}

	c.PortfolioRepo = repositories.NewPortfolioRepository(db, zapLog)
	c.HoldingRepo = repositories.NewHoldingRepository(db, zapLog)
	c.StockRepo = repositories.NewStockRepository(db, zapLog)
	c.AnalyticsStore = repositories.NewAnalyticsStore(db, c.HoldingRepo, c.PortfolioRepo, zapLog)

	analyticsCfg, err := AnalyticsConfig(cfg.Analytics)
	if err != nil {
		return nil, err
	}

	riskModel, err := NewRiskModel(cfg.Analytics, c.StockRepo)
	if err != nil {
		return nil, err
	}

	var analyticsCache analytics.Cache = cache.NopCache{}
	if redisClient != nil {
		analyticsCache = cache.NewAnalyticsCache(redisClient, analyticsCfg.CacheTTL, zapLog)
	}

	c.AnalyticsService = analytics.NewService(c.AnalyticsStore, analyticsCache, riskModel, analyticsCfg, log)
	c.PortfolioService = portfolio.NewService(c.PortfolioRepo, c.HoldingRepo, c.StockRepo, c.AnalyticsService, log)

	c.HealthChecker = health.NewHealthChecker(10 * time.Second)
	c.HealthChecker.Register(health.NewDatabaseChecker(db.DB, 5*time.Second))
	if redisClient != nil {
		c.HealthChecker.Register(health.NewRedisChecker(redisClient, 3*time.Second))
	}

	if cfg.Scheduler.Enabled {
		schedCfg := analytics_scheduler.DefaultConfig()
		schedCfg.Schedule = cfg.Scheduler.Schedule
		schedCfg.Concurrency = cfg.Scheduler.Concurrency

		scheduler, err := analytics_scheduler.NewScheduler(c.PortfolioRepo, c.AnalyticsService, schedCfg, zapLog)
		if err != nil {
			return nil, fmt.Errorf("failed to create analytics scheduler: %w", err)
		}
		c.Scheduler = scheduler
	}

	log.Infow("Container initialized",
		"risk_model", riskModel.Name(),
		"write_policy", analyticsCfg.WritePolicy,
		"persist_mode", analyticsCfg.PersistMode,
		"price_fallback", analyticsCfg.PriceFallback,
		"cache_enabled", redisClient != nil,
		"scheduler_enabled", c.Scheduler != nil,
	)

	return c, nil
}

// AnalyticsConfig translates the config section into aggregator settings
func AnalyticsConfig(cfg config.AnalyticsConfig) (analytics.Config, error) {
	out := analytics.DefaultConfig()

	policy, err := analytics.ParseWritePolicy(cfg.WritePolicy)
	if err != nil {
		return out, err
	}
	mode, err := analytics.ParsePersistMode(cfg.PersistMode)
	if err != nil {
		return out, err
	}
	fallback, err := analytics.ParsePriceFallback(cfg.PriceFallback)
	if err != nil {
		return out, err
	}

	out.WritePolicy = policy
	out.PersistMode = mode
	out.PriceFallback = fallback
	if cfg.TopHoldings > 0 {
		out.TopHoldings = cfg.TopHoldings
	}
	if cfg.WriteConcurrency > 0 {
		out.WriteConcurrency = cfg.WriteConcurrency
	}
	if cfg.WriteRetries >= 0 {
		out.WriteRetries = cfg.WriteRetries
	}
	if ttl := cfg.CacheTTL(); ttl > 0 {
		out.CacheTTL = ttl
	}
	return out, nil
}

// NewRiskModel picks the risk model named in config
func NewRiskModel(cfg config.AnalyticsConfig, prices analytics.PriceHistory) (analytics.RiskModel, error) {
	switch cfg.RiskModel {
	case "", "historical":
		return analytics.NewHistoricalRiskModel(prices, cfg.RiskLookbackDays, cfg.BenchmarkSymbol), nil
	case "placeholder":
		return analytics.NewPlaceholderRiskModel(nil), nil
	default:
		return nil, fmt.Errorf("unknown risk model %q", cfg.RiskModel)
	}
}
