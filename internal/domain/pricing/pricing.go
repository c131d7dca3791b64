package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ratepilot/internal/domain/property"
	"ratepilot/internal/domain/shared/errs"
)

var (
	ErrInvalidInput     = fmt.Errorf("pricing: %w", errs.ErrInvalidInput)
	ErrInvalidDate      = fmt.Errorf("pricing: %w", errs.ErrInvalidDate)
	ErrNonPositiveBase  = fmt.Errorf("%w: base price must be positive", ErrInvalidInput)
	ErrBoundsInverted   = fmt.Errorf("%w: min price exceeds max price", ErrInvalidInput)
	ErrNegativeBound    = fmt.Errorf("%w: price bounds must be non-negative", ErrInvalidInput)
	ErrCustomMultiplier = fmt.Errorf("%w: custom aggressiveness requires a positive multiplier", ErrInvalidInput)
	ErrAggressiveness   = fmt.Errorf("%w: unknown aggressiveness", ErrInvalidInput)
	ErrDateInPast       = fmt.Errorf("%w: target date is in the past", ErrInvalidDate)
	ErrEngineMisconfig  = errors.New("pricing: engine missing collaborators")
)

// FallbackBasePrice is used when neither an override nor a property average
// rate is available.
const FallbackBasePrice int64 = 100

type Aggressiveness string

const (
	Conservative Aggressiveness = "conservative"
	Moderate     Aggressiveness = "moderate"
	Aggressive   Aggressiveness = "aggressive"
	Custom       Aggressiveness = "custom"
)

// Factor returns the multiplier applied after all additive adjustments.
// Custom levels use the explicit multiplier.
func (a Aggressiveness) Factor(custom float64) (float64, error) {
	switch a {
	case "", Moderate:
		return 1.0, nil
	case Conservative:
		return 0.7, nil
	case Aggressive:
		return 1.3, nil
	case Custom:
		if custom <= 0 {
			return 0, ErrCustomMultiplier
		}
		return custom, nil
	default:
		return 0, fmt.Errorf("%w %q", ErrAggressiveness, string(a))
	}
}

func ParseAggressiveness(raw string) (Aggressiveness, error) {
	a := Aggressiveness(raw)
	if a == "" {
		return Moderate, nil
	}
	if _, err := a.Factor(1); err != nil {
		return "", err
	}
	return a, nil
}

type DemandLevel string

const (
	DemandHigh     DemandLevel = "high"
	DemandModerate DemandLevel = "moderate"
	DemandLow      DemandLevel = "low"
)

// Bounds are optional per-request constraints; zero means unset.
type Bounds struct {
	MinPrice  int64
	MaxPrice  int64
	BasePrice int64
}

func (b Bounds) Validate() error {
	if b.MinPrice < 0 || b.MaxPrice < 0 {
		return ErrNegativeBound
	}
	if b.BasePrice < 0 {
		return ErrNonPositiveBase
	}
	if b.MinPrice > 0 && b.MaxPrice > 0 && b.MinPrice > b.MaxPrice {
		return ErrBoundsInverted
	}
	return nil
}

// Clamp applies min then max to an already rounded price.
func (b Bounds) Clamp(price int64) int64 {
	if b.MinPrice > 0 && price < b.MinPrice {
		price = b.MinPrice
	}
	if b.MaxPrice > 0 && price > b.MaxPrice {
		price = b.MaxPrice
	}
	return price
}

type MarketData struct {
	SeasonalMultiplier float64
	EventMultiplier    float64
	Events             []string
	SampleSize         int
}

// CompetitorPricing carries a nil AveragePrice when no competitor set exists.
type CompetitorPricing struct {
	AveragePrice *float64
	Position     string
	SampleSize   int
}

func (c CompetitorPricing) HasPrice() bool {
	return c.AveragePrice != nil && *c.AveragePrice > 0
}

type DemandForecast struct {
	Level    DemandLevel
	Accuracy float64
}

type MarketDataProvider interface {
	MarketData(ctx context.Context, id property.ID, date time.Time) (MarketData, error)
}

type CompetitorProvider interface {
	CompetitorPricing(ctx context.Context, id property.ID, date time.Time) (CompetitorPricing, error)
}

type DemandProvider interface {
	DemandForecast(ctx context.Context, id property.ID, date time.Time) (DemandForecast, error)
}

type Factors struct {
	DemandLevel         DemandLevel `json:"demand_level"`
	CompetitionPosition string      `json:"competition_position"`
	SeasonalAdjustment  float64     `json:"seasonal_adjustment"`
	EventAdjustment     float64     `json:"event_adjustment"`
	Events              []string    `json:"events"`
	LeadTimeDays        int         `json:"lead_time_days"`
}

// PriceQuote is created per request and never mutated.
type PriceQuote struct {
	PropertyID   property.ID    `json:"property_id"`
	Date         time.Time      `json:"date"`
	OptimalPrice int64          `json:"optimal_price"`
	BasePrice    int64          `json:"base_price"`
	Multiplier   float64        `json:"multiplier"`
	Aggression   Aggressiveness `json:"aggressiveness"`
	Factors      Factors        `json:"factors"`
	Confidence   int            `json:"confidence"`
	ComputedAt   time.Time      `json:"computed_at"`
}

// Quoter is satisfied by Engine; sweeps and strategies depend on it.
type Quoter interface {
	Quote(ctx context.Context, req QuoteRequest) (PriceQuote, error)
}
