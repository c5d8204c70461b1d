package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	_ "github.com/stockdash/portfolio_service/docs"
	"github.com/stockdash/portfolio_service/internal/api/handlers"
	"github.com/stockdash/portfolio_service/internal/api/middleware"
	"github.com/stockdash/portfolio_service/internal/infrastructure/di"
	"github.com/stockdash/portfolio_service/pkg/ratelimit"
	"github.com/stockdash/portfolio_service/pkg/tracing"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// SetupRoutes configures all application routes
func SetupRoutes(container *di.Container) *gin.Engine {
	router := gin.New()

	// Global middleware, tracing first so every later span has a parent
	router.Use(tracing.HTTPMiddleware())
	router.Use(middleware.RequestID())
	router.Use(middleware.Metrics())
	router.Use(middleware.Logger(container.Logger))
	router.Use(middleware.Recovery(container.Logger))
	router.Use(middleware.CORS(container.Config.Server.AllowedOrigins))
	router.Use(middleware.SecurityHeaders())

	healthHandler := handlers.NewHealthHandler(container.HealthChecker)
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)
	router.GET("/live", healthHandler.Live)
	router.GET("/version", handlers.VersionHandler())
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Swagger documentation (development only)
	if container.Config.Environment != "production" {
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	enforce := container.Config.Analytics.EnforceOwnership
	analyticsHandlers := handlers.NewAnalyticsHandlers(container.AnalyticsService, container.PortfolioService, enforce, container.Logger)
	portfolioHandler := handlers.NewPortfolioHandler(container.PortfolioService, enforce, container.Logger)
	stockHandler := handlers.NewStockHandler(container.PortfolioService, container.Logger)
	streamHandler := handlers.NewStreamHandler(container.AnalyticsService, container.PortfolioService, enforce, container.Config.Stream.Interval(), container.Logger)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.RateLimit(newRateLimiter(container), container.Logger))
	{
		v1.POST("/portfolio-analytics", analyticsHandlers.ComputeAnalytics)

		v1.GET("/stocks", stockHandler.ListStocks)
		v1.GET("/stocks/:symbol", stockHandler.GetStock)

		v1.GET("/users/:userId/portfolios", portfolioHandler.ListPortfolios)
		v1.POST("/portfolios", portfolioHandler.CreatePortfolio)

		portfolios := v1.Group("/portfolios/:id")
		{
			portfolios.GET("/analytics", analyticsHandlers.GetAnalytics)
			portfolios.POST("/analytics/recompute", analyticsHandlers.RecomputePortfolio)

			portfolios.GET("/holdings", portfolioHandler.GetHoldings)
			portfolios.POST("/holdings", portfolioHandler.AddHolding)
			portfolios.DELETE("/holdings/:holdingId", portfolioHandler.RemoveHolding)
		}

		v1.GET("/ws/portfolios/:id/analytics", streamHandler.StreamAnalytics)
	}

	return router
}

// newRateLimiter shares quotas across replicas through Redis when it is available
func newRateLimiter(container *di.Container) ratelimit.Limiter {
	rpm := container.Config.Server.RateLimitPerMin
	if container.Redis != nil {
		return ratelimit.PerIPLimiter(container.Redis, int64(rpm), container.ZapLog)
	}
	return middleware.NewRateLimiter(rpm)
}
