package analytics

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/stockdash/portfolio_service/internal/domain/entities"
)

var hundred = decimal.NewFromInt(100)

// Totals are the portfolio-level sums of one recomputation
type Totals struct {
	TotalValue           decimal.Decimal
	TotalCost            decimal.Decimal
	TotalGainLoss        decimal.Decimal
	TotalGainLossPercent decimal.Decimal
	HoldingsCount        int
}

// ComputeValuation values one holding.
//
//	current_value     = quantity * price
//	gain_loss         = current_value - quantity * average_price
//	gain_loss_percent = gain_loss / cost_basis * 100 (0 when cost_basis is 0)
//
// fallback decides the price used when the stock or its price is missing.
// Under PriceFallbackAverageCost a quoted price of 0 also counts as missing.
func ComputeValuation(h entities.Holding, fallback PriceFallback) entities.HoldingValuation {
	v := entities.HoldingValuation{
		Holding:   h,
		CostBasis: h.CostBasis(),
	}

	price, ok := currentPrice(h)
	if ok && price.IsZero() && fallback == PriceFallbackAverageCost {
		ok = false
	}
	if !ok {
		v.PriceMissing = true
		switch fallback {
		case PriceFallbackAverageCost:
			price = h.AveragePrice
		case PriceFallbackExclude:
			v.Excluded = true
			v.Price = decimal.Zero
			return v
		default:
			price = decimal.Zero
		}
	}

	v.Price = price
	v.CurrentValue = h.Quantity.Mul(price)
	v.GainLoss = v.CurrentValue.Sub(v.CostBasis)
	v.GainLossPercent = percentOf(v.GainLoss, v.CostBasis)
	return v
}

func currentPrice(h entities.Holding) (decimal.Decimal, bool) {
	if h.Stock == nil || !h.Stock.CurrentPrice.Valid {
		return decimal.Zero, false
	}
	return h.Stock.CurrentPrice.Decimal, true
}

// percentOf returns part/whole*100, or 0 when whole is 0
func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred)
}

// Summarize accumulates totals over valuations. Excluded holdings count
// towards HoldingsCount only.
func Summarize(vals []entities.HoldingValuation) Totals {
	t := Totals{
		TotalValue:    decimal.Zero,
		TotalCost:     decimal.Zero,
		HoldingsCount: len(vals),
	}
	for _, v := range vals {
		if v.Excluded {
			continue
		}
		t.TotalValue = t.TotalValue.Add(v.CurrentValue)
		t.TotalCost = t.TotalCost.Add(v.CostBasis)
	}
	t.TotalGainLoss = t.TotalValue.Sub(t.TotalCost)
	t.TotalGainLossPercent = percentOf(t.TotalGainLoss, t.TotalCost)
	return t
}

// ApplyWeights sets each valuation's weight as a percent of total
func ApplyWeights(vals []entities.HoldingValuation, total decimal.Decimal) {
	for i := range vals {
		if vals[i].Excluded {
			vals[i].Weight = decimal.Zero
			continue
		}
		vals[i].Weight = percentOf(vals[i].CurrentValue, total)
	}
}

// SectorAllocation sums current value per sector. Stocks without a
// sector land in entities.UnknownSector.
func SectorAllocation(vals []entities.HoldingValuation) map[string]decimal.Decimal {
	alloc := make(map[string]decimal.Decimal)
	for _, v := range vals {
		if v.Excluded {
			continue
		}
		sector := v.Holding.Stock.SectorName()
		alloc[sector] = alloc[sector].Add(v.CurrentValue)
	}
	return alloc
}

// TopHoldings returns up to n valuations by descending current value.
// Ties keep their original order. vals is not modified.
func TopHoldings(vals []entities.HoldingValuation, n int) []entities.HoldingValuation {
	sorted := make([]entities.HoldingValuation, len(vals))
	copy(sorted, vals)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CurrentValue.GreaterThan(sorted[j].CurrentValue)
	})
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// DiversificationScore is holdings count * 10, capped at 100
func DiversificationScore(holdingsCount int) float64 {
	score := float64(holdingsCount) * 10
	if score > 100 {
		return 100
	}
	return score
}

// BuildAnalytics renders the response payload from computed values
func BuildAnalytics(
	vals []entities.HoldingValuation,
	totals Totals,
	topN int,
	risk RiskScores,
) *entities.PortfolioAnalytics {
	alloc := SectorAllocation(vals)
	sectors := make(map[string]float64, len(alloc))
	for sector, value := range alloc {
		sectors[sector] = value.InexactFloat64()
	}

	top := TopHoldings(vals, topN)
	topHoldings := make([]entities.HoldingAnalytics, 0, len(top))
	for _, v := range top {
		topHoldings = append(topHoldings, toHoldingAnalytics(v))
	}

	return &entities.PortfolioAnalytics{
		TotalValue:           totals.TotalValue.InexactFloat64(),
		TotalCost:            totals.TotalCost.InexactFloat64(),
		TotalGainLoss:        totals.TotalGainLoss.InexactFloat64(),
		TotalGainLossPercent: totals.TotalGainLossPercent.InexactFloat64(),
		HoldingsCount:        totals.HoldingsCount,
		SectorAllocation:     sectors,
		TopHoldings:          topHoldings,
		RiskMetrics: entities.RiskMetrics{
			DiversificationScore: DiversificationScore(totals.HoldingsCount),
			VolatilityScore:      risk.Volatility,
			BetaScore:            risk.Beta,
		},
	}
}

func toHoldingAnalytics(v entities.HoldingValuation) entities.HoldingAnalytics {
	h := v.Holding
	out := entities.HoldingAnalytics{
		ID:              h.ID,
		PortfolioID:     h.PortfolioID,
		StockID:         h.StockID,
		Quantity:        h.Quantity.InexactFloat64(),
		AveragePrice:    h.AveragePrice.InexactFloat64(),
		CurrentValue:    v.CurrentValue.InexactFloat64(),
		GainLoss:        v.GainLoss.InexactFloat64(),
		GainLossPercent: v.GainLossPercent.InexactFloat64(),
		Weight:          v.Weight.InexactFloat64(),
	}
	if h.Stock != nil {
		stock := &entities.StockSummary{
			ID:     h.Stock.ID,
			Symbol: h.Stock.Symbol,
			Name:   h.Stock.Name,
			Sector: h.Stock.Sector,
		}
		if h.Stock.CurrentPrice.Valid {
			price := h.Stock.CurrentPrice.Decimal.InexactFloat64()
			stock.CurrentPrice = &price
		}
		out.Stock = stock
	}
	return out
}
