package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portfolio_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Analytics metrics
	RecomputeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_analytics_recompute_total",
			Help: "Total number of portfolio analytics recomputations",
		},
		[]string{"trigger", "outcome"}, // trigger: api, scheduler, stream; outcome: success, degraded, failed
	)

	RecomputeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portfolio_analytics_recompute_duration_seconds",
			Help:    "Duration of a full aggregation pass",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		},
		[]string{"trigger"},
	)

	HoldingsPerPortfolio = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "portfolio_analytics_holdings_count",
			Help:    "Number of holdings seen per recomputation",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250},
		},
	)

	HoldingWriteFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "portfolio_analytics_holding_write_failures_total",
			Help: "Per-holding valuation writes that failed after retries",
		},
	)

	MissingPriceTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "portfolio_analytics_missing_price_total",
			Help: "Holdings valued without a current stock price",
		},
	)

	CacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_analytics_cache_requests_total",
			Help: "Analytics cache lookups",
		},
		[]string{"result"}, // hit, miss, error
	)

	// System metrics
	DatabaseQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portfolio_database_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		},
		[]string{"operation", "table"},
	)

	CircuitBreakerStateGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "portfolio_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
		[]string{"service"},
	)

	RateLimitHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_rate_limit_hits_total",
			Help: "Total number of rate limit hits",
		},
		[]string{"endpoint"},
	)

	StreamConnectionsGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "portfolio_analytics_stream_connections",
			Help: "Open websocket analytics streams",
		},
	)
)

// RecordHTTPRequest records HTTP request metrics
func RecordHTTPRequest(method, endpoint, statusCode string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration)
}

// RecordRecompute records the outcome of one aggregation pass
func RecordRecompute(trigger, outcome string, holdings int, duration float64) {
	RecomputeTotal.WithLabelValues(trigger, outcome).Inc()
	RecomputeDuration.WithLabelValues(trigger).Observe(duration)
	HoldingsPerPortfolio.Observe(float64(holdings))
}

// RecordHoldingWriteFailures adds n failed holding writes
func RecordHoldingWriteFailures(n int) {
	if n > 0 {
		HoldingWriteFailuresTotal.Add(float64(n))
	}
}

// RecordMissingPrice counts a holding valued without a price
func RecordMissingPrice() {
	MissingPriceTotal.Inc()
}

// RecordCacheRequest records a cache lookup result
func RecordCacheRequest(result string) {
	CacheRequestsTotal.WithLabelValues(result).Inc()
}

// RecordDatabaseQuery records database query metrics
func RecordDatabaseQuery(operation, table string, duration float64) {
	DatabaseQueryDuration.WithLabelValues(operation, table).Observe(duration)
}

// UpdateCircuitBreakerState updates circuit breaker state
func UpdateCircuitBreakerState(service string, state float64) {
	CircuitBreakerStateGauge.WithLabelValues(service).Set(state)
}

// RecordRateLimitHit records rate limit hit
func RecordRateLimitHit(endpoint string) {
	RateLimitHitsTotal.WithLabelValues(endpoint).Inc()
}
