package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UnknownSector is the allocation bucket for stocks without a sector
const UnknownSector = "Unknown"

// Stock is a row of the shared stocks reference table. Read-only here.
type Stock struct {
	ID           uuid.UUID           `json:"id" db:"id"`
	Symbol       string              `json:"symbol" db:"symbol"`
	Name         string              `json:"name" db:"name"`
	CurrentPrice decimal.NullDecimal `json:"current_price" db:"current_price"`
	Sector       *string             `json:"sector" db:"sector"`
	Volume       *int64              `json:"volume" db:"volume"`
	MarketCap    decimal.NullDecimal `json:"market_cap" db:"market_cap"`
	LastUpdated  *time.Time          `json:"last_updated,omitempty" db:"last_updated"`
}

// SectorName returns the stock sector, or UnknownSector when unset
func (s *Stock) SectorName() string {
	if s == nil || s.Sector == nil || *s.Sector == "" {
		return UnknownSector
	}
	return *s.Sector
}

// Holding is a user's position in one stock within a portfolio.
// Stock is nil when the referenced stock row could not be resolved.
type Holding struct {
	ID              uuid.UUID           `json:"id" db:"id"`
	PortfolioID     uuid.UUID           `json:"portfolio_id" db:"portfolio_id"`
	StockID         uuid.UUID           `json:"stock_id" db:"stock_id"`
	Quantity        decimal.Decimal     `json:"quantity" db:"quantity"`
	AveragePrice    decimal.Decimal     `json:"average_price" db:"average_price"`
	CurrentValue    decimal.NullDecimal `json:"current_value" db:"current_value"`
	GainLoss        decimal.NullDecimal `json:"gain_loss" db:"gain_loss"`
	GainLossPercent decimal.NullDecimal `json:"gain_loss_percent" db:"gain_loss_percent"`
	CreatedAt       time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at" db:"updated_at"`
	Stock           *Stock              `json:"stocks,omitempty" db:"-"`
}

// CostBasis is quantity times average price
func (h *Holding) CostBasis() decimal.Decimal {
	return h.Quantity.Mul(h.AveragePrice)
}

// Portfolio is a named collection of holdings owned by one user
type Portfolio struct {
	ID                   uuid.UUID       `json:"id" db:"id"`
	UserID               uuid.UUID       `json:"user_id" db:"user_id"`
	Name                 string          `json:"name" db:"name"`
	Description          *string         `json:"description" db:"description"`
	TotalValue           decimal.Decimal `json:"total_value" db:"total_value"`
	TotalGainLoss        decimal.Decimal `json:"total_gain_loss" db:"total_gain_loss"`
	TotalGainLossPercent decimal.Decimal `json:"total_gain_loss_percent" db:"total_gain_loss_percent"`
	CreatedAt            time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at" db:"updated_at"`
}

// PricePoint is one recorded price from stock_prices
type PricePoint struct {
	StockID    uuid.UUID       `json:"stock_id" db:"stock_id"`
	Price      decimal.Decimal `json:"price" db:"price"`
	RecordedAt time.Time       `json:"recorded_at" db:"recorded_at"`
}
