package analytics

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stockdash/portfolio_service/internal/domain/entities"
	"gonum.org/v1/gonum/stat"
)

const tradingDaysPerYear = 252

// RiskScores are the model-dependent part of RiskMetrics
type RiskScores struct {
	Volatility float64
	Beta       float64
}

// NeutralRiskScores is reported when no model output is available
var NeutralRiskScores = RiskScores{Volatility: 0, Beta: 1}

// RiskModel scores volatility and beta for weighted valuations
type RiskModel interface {
	Name() string
	Score(ctx context.Context, vals []entities.HoldingValuation) (RiskScores, error)
}

// PlaceholderRiskModel reproduces the dashboard's stand-in scores:
// volatility uniform in [0,100) and beta uniform in [0.8,1.2).
// The values carry no information about the portfolio.
type PlaceholderRiskModel struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewPlaceholderRiskModel creates a placeholder model over src.
// A nil src seeds from the clock.
func NewPlaceholderRiskModel(src rand.Source) *PlaceholderRiskModel {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &PlaceholderRiskModel{rng: rand.New(src)}
}

func (m *PlaceholderRiskModel) Name() string { return "placeholder" }

func (m *PlaceholderRiskModel) Score(_ context.Context, _ []entities.HoldingValuation) (RiskScores, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return RiskScores{
		Volatility: m.rng.Float64() * 100,
		Beta:       0.8 + m.rng.Float64()*0.4,
	}, nil
}

// PriceHistory reads recorded prices from stock_prices
type PriceHistory interface {
	ListPriceHistory(ctx context.Context, stockIDs []uuid.UUID, since time.Time) ([]entities.PricePoint, error)
	ListPriceHistoryBySymbol(ctx context.Context, symbol string, since time.Time) ([]entities.PricePoint, error)
}

// HistoricalRiskModel derives volatility and beta from recorded prices.
// Volatility is the annualized standard deviation of the weighted daily
// portfolio return, in percent and capped at 100. Beta is measured
// against the benchmark symbol over the same days.
type HistoricalRiskModel struct {
	prices    PriceHistory
	lookback  time.Duration
	benchmark string
	now       func() time.Time
}

// NewHistoricalRiskModel creates a model reading lookbackDays of history
func NewHistoricalRiskModel(prices PriceHistory, lookbackDays int, benchmark string) *HistoricalRiskModel {
	if lookbackDays <= 0 {
		lookbackDays = 90
	}
	return &HistoricalRiskModel{
		prices:    prices,
		lookback:  time.Duration(lookbackDays) * 24 * time.Hour,
		benchmark: benchmark,
		now:       time.Now,
	}
}

func (m *HistoricalRiskModel) Name() string { return "historical" }

func (m *HistoricalRiskModel) Score(ctx context.Context, vals []entities.HoldingValuation) (RiskScores, error) {
	weights := stockWeights(vals)
	if len(weights) == 0 {
		return NeutralRiskScores, nil
	}

	ids := make([]uuid.UUID, 0, len(weights))
	for id := range weights {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	since := m.now().Add(-m.lookback)
	points, err := m.prices.ListPriceHistory(ctx, ids, since)
	if err != nil {
		return NeutralRiskScores, fmt.Errorf("failed to load price history: %w", err)
	}

	byStock := make(map[uuid.UUID][]entities.PricePoint, len(ids))
	for _, p := range points {
		byStock[p.StockID] = append(byStock[p.StockID], p)
	}

	stockReturns := make(map[uuid.UUID]map[string]float64, len(ids))
	for _, id := range ids {
		stockReturns[id] = dailyReturns(byStock[id])
	}

	days, portfolio := weightedReturns(ids, weights, stockReturns)
	if len(portfolio) < 2 {
		return NeutralRiskScores, nil
	}

	scores := RiskScores{
		Volatility: math.Min(100, stddev(portfolio)*math.Sqrt(tradingDaysPerYear)*100),
		Beta:       1,
	}

	if m.benchmark != "" {
		benchPoints, err := m.prices.ListPriceHistoryBySymbol(ctx, m.benchmark, since)
		if err != nil {
			return NeutralRiskScores, fmt.Errorf("failed to load benchmark history: %w", err)
		}
		scores.Beta = beta(days, portfolio, dailyReturns(benchPoints))
	}

	scores.Volatility = round2(scores.Volatility)
	scores.Beta = round2(scores.Beta)
	return scores, nil
}

// stockWeights folds holding weights into per-stock fractions
func stockWeights(vals []entities.HoldingValuation) map[uuid.UUID]float64 {
	weights := make(map[uuid.UUID]float64)
	for _, v := range vals {
		if v.Excluded || !v.Weight.IsPositive() {
			continue
		}
		weights[v.Holding.StockID] += v.Weight.InexactFloat64() / 100
	}
	return weights
}

// dailyReturns keeps the last price of each UTC day and returns simple
// returns keyed by day, for days that follow a recorded day.
func dailyReturns(points []entities.PricePoint) map[string]float64 {
	closes := make(map[string]float64)
	latest := make(map[string]time.Time)
	for _, p := range points {
		day := p.RecordedAt.UTC().Format("2006-01-02")
		if t, ok := latest[day]; ok && p.RecordedAt.Before(t) {
			continue
		}
		latest[day] = p.RecordedAt
		closes[day] = p.Price.InexactFloat64()
	}

	days := make([]string, 0, len(closes))
	for day := range closes {
		days = append(days, day)
	}
	sort.Strings(days)

	returns := make(map[string]float64, len(days))
	for i := 1; i < len(days); i++ {
		prev := closes[days[i-1]]
		if prev > 0 {
			returns[days[i]] = (closes[days[i]] - prev) / prev
		}
	}
	return returns
}

// weightedReturns builds the portfolio return on days every stock has a return
func weightedReturns(ids []uuid.UUID, weights map[uuid.UUID]float64, returns map[uuid.UUID]map[string]float64) ([]string, []float64) {
	var common []string
	for day := range returns[ids[0]] {
		shared := true
		for _, id := range ids[1:] {
			if _, ok := returns[id][day]; !ok {
				shared = false
				break
			}
		}
		if shared {
			common = append(common, day)
		}
	}
	sort.Strings(common)

	var total float64
	for _, id := range ids {
		total += weights[id]
	}

	series := make([]float64, len(common))
	for i, day := range common {
		var r float64
		for _, id := range ids {
			r += weights[id] / total * returns[id][day]
		}
		series[i] = r
	}
	return common, series
}

// beta is cov(portfolio, benchmark) / var(benchmark) over shared days
func beta(days []string, portfolio []float64, benchmark map[string]float64) float64 {
	var p, b []float64
	for i, day := range days {
		if r, ok := benchmark[day]; ok {
			p = append(p, portfolio[i])
			b = append(b, r)
		}
	}
	if len(b) < 2 {
		return 1
	}

	variance := stat.Variance(b, nil)
	if variance == 0 {
		return 1
	}
	return stat.Covariance(p, b, nil) / variance
}

// stddev is the sample standard deviation, 0 below two points
func stddev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
