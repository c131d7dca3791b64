package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"ratepilot/internal/domain/pricing"
)

type PriceBounds struct {
	MinPrice int64 `json:"min_price,omitempty"`
	MaxPrice int64 `json:"max_price,omitempty"`
}

type PriceQuote struct {
	PropertyID     string          `json:"property_id"`
	Date           string          `json:"date"`
	OptimalPrice   int64           `json:"optimal_price"`
	BasePrice      int64           `json:"base_price"`
	Multiplier     decimal.Decimal `json:"multiplier"`
	Aggressiveness string          `json:"aggressiveness"`
	Factors        pricing.Factors `json:"factors"`
	Confidence     int             `json:"confidence"`
	Bounds         PriceBounds     `json:"bounds"`
	ComputedAt     time.Time       `json:"computed_at"`
	Stale          bool            `json:"stale,omitempty"`
}

func NewPriceQuote(q pricing.PriceQuote, bounds pricing.Bounds, stale bool) PriceQuote {
	return PriceQuote{
		PropertyID:     string(q.PropertyID),
		Date:           q.Date.Format(time.DateOnly),
		OptimalPrice:   q.OptimalPrice,
		BasePrice:      q.BasePrice,
		Multiplier:     decimal.NewFromFloat(q.Multiplier).Round(4),
		Aggressiveness: string(q.Aggression),
		Factors:        q.Factors,
		Confidence:     q.Confidence,
		Bounds:         PriceBounds{MinPrice: bounds.MinPrice, MaxPrice: bounds.MaxPrice},
		ComputedAt:     q.ComputedAt,
		Stale:          stale,
	}
}

type DailyRate struct {
	Date  string `json:"date"`
	Price int64  `json:"price"`
}

type PricingStrategyResult struct {
	StrategyID           string      `json:"strategy_id"`
	PropertyID           string      `json:"property_id"`
	Status               string      `json:"status"`
	NextUpdate           *time.Time  `json:"next_update,omitempty"`
	InitialPricesApplied int         `json:"initial_prices_applied"`
	Rates                []DailyRate `json:"rates"`
}

func NewDailyRates(rates []pricing.DailyRate) []DailyRate {
	out := make([]DailyRate, 0, len(rates))
	for _, r := range rates {
		out = append(out, DailyRate{Date: r.Date.Format(time.DateOnly), Price: r.Price})
	}
	return out
}
