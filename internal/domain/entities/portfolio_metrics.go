package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// HoldingValuation is the in-memory result of valuing one holding.
// Money stays in decimal until the payload is rendered.
type HoldingValuation struct {
	Holding         Holding
	Price           decimal.Decimal
	CostBasis       decimal.Decimal
	CurrentValue    decimal.Decimal
	GainLoss        decimal.Decimal
	GainLossPercent decimal.Decimal
	Weight          decimal.Decimal
	// PriceMissing is set when the stock or its current price was absent
	PriceMissing bool
	// Excluded holdings are reported but do not contribute to totals
	Excluded bool
}

// HoldingValuationUpdate carries the three fields written back to a holding row
type HoldingValuationUpdate struct {
	HoldingID       uuid.UUID
	CurrentValue    decimal.Decimal
	GainLoss        decimal.Decimal
	GainLossPercent decimal.Decimal
}

// PortfolioSummary carries the fields written back to a portfolio row
type PortfolioSummary struct {
	PortfolioID          uuid.UUID
	TotalValue           decimal.Decimal
	TotalGainLoss        decimal.Decimal
	TotalGainLossPercent decimal.Decimal
	UpdatedAt            time.Time
}

// HoldingWriteResult is the outcome of one per-holding write
type HoldingWriteResult struct {
	HoldingID uuid.UUID
	Attempts  int
	Err       error
}

// Succeeded reports whether the write landed
func (r HoldingWriteResult) Succeeded() bool {
	return r.Err == nil
}

// BatchWriteResult aggregates the per-holding writes of one recomputation
type BatchWriteResult struct {
	Results []HoldingWriteResult
}

// Failed returns the results whose write did not land
func (b BatchWriteResult) Failed() []HoldingWriteResult {
	var failed []HoldingWriteResult
	for _, r := range b.Results {
		if !r.Succeeded() {
			failed = append(failed, r)
		}
	}
	return failed
}

// Degraded reports whether at least one write failed
func (b BatchWriteResult) Degraded() bool {
	return len(b.Failed()) > 0
}

// RiskMetrics is the coarse risk summary of a portfolio
type RiskMetrics struct {
	DiversificationScore float64 `json:"diversificationScore"`
	VolatilityScore      float64 `json:"volatilityScore"`
	BetaScore            float64 `json:"betaScore"`
}

// StockSummary is the stock embedded in an analytics holding entry
type StockSummary struct {
	ID           uuid.UUID `json:"id"`
	Symbol       string    `json:"symbol"`
	Name         string    `json:"name"`
	CurrentPrice *float64  `json:"current_price"`
	Sector       *string   `json:"sector"`
}

// HoldingAnalytics is a holding row enriched with computed fields
type HoldingAnalytics struct {
	ID              uuid.UUID     `json:"id"`
	PortfolioID     uuid.UUID     `json:"portfolio_id"`
	StockID         uuid.UUID     `json:"stock_id"`
	Quantity        float64       `json:"quantity"`
	AveragePrice    float64       `json:"average_price"`
	CurrentValue    float64       `json:"current_value"`
	GainLoss        float64       `json:"gain_loss"`
	GainLossPercent float64       `json:"gain_loss_percent"`
	Weight          float64       `json:"weight"`
	Stock           *StockSummary `json:"stocks"`
}

// PortfolioAnalytics is the payload returned by a recomputation
type PortfolioAnalytics struct {
	PortfolioID          uuid.UUID          `json:"portfolioId"`
	TotalValue           float64            `json:"totalValue"`
	TotalCost            float64            `json:"totalCost"`
	TotalGainLoss        float64            `json:"totalGainLoss"`
	TotalGainLossPercent float64            `json:"totalGainLossPercent"`
	HoldingsCount        int                `json:"holdingsCount"`
	SectorAllocation     map[string]float64 `json:"sectorAllocation"`
	TopHoldings          []HoldingAnalytics `json:"topHoldings"`
	RiskMetrics          RiskMetrics        `json:"riskMetrics"`
	// FailedWrites counts holding rows whose valuation could not be persisted
	FailedWrites int `json:"failedWrites,omitempty"`
}
