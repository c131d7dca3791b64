package revenue

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"ratepilot/internal/domain/property"
	"ratepilot/internal/domain/shared/daterange"
	"ratepilot/internal/domain/shared/errs"
)

var (
	ErrInvalidInput  = fmt.Errorf("revenue: %w", errs.ErrInvalidInput)
	ErrInvalidPeriod = fmt.Errorf("%w: period end before start", ErrInvalidInput)
	ErrPeriodTooLong = fmt.Errorf("%w: period longer than %d days", ErrInvalidInput, MaxPeriodDays)
	ErrCurrentPrice  = fmt.Errorf("%w: current price must be positive", ErrInvalidInput)

	ErrOptimizerMisconfig = errors.New("revenue: optimizer missing collaborators")
)

const (
	// Elasticity is the assumed occupancy response to a 1% price change.
	Elasticity = -0.5
	// ActionThreshold is the price gap, exclusive, below which no action is emitted.
	ActionThreshold = 5
	// MaxPeriodDays bounds a sweep, counting both ends.
	MaxPeriodDays = 366
)

// Period is an inclusive range of days.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (p Period) Validate() error {
	if p.Start.IsZero() || p.End.IsZero() {
		return fmt.Errorf("%w: start and end are required", ErrInvalidInput)
	}
	start, end := daterange.Truncate(p.Start), daterange.Truncate(p.End)
	if end.Before(start) {
		return ErrInvalidPeriod
	}
	if end.Sub(start) >= MaxPeriodDays*24*time.Hour {
		return ErrPeriodTooLong
	}
	return nil
}

func (p Period) Days() []time.Time {
	return daterange.Days(p.Start, p.End)
}

// Length is ceil(|end - start| / 24h).
func (p Period) Length() int {
	diff := p.End.Sub(p.Start)
	if diff < 0 {
		diff = -diff
	}
	return int(math.Ceil(float64(diff) / float64(daterange.Day)))
}

type Goals struct {
	TargetOccupancy     float64 `json:"target_occupancy,omitempty"`
	TargetRevenue       float64 `json:"target_revenue,omitempty"`
	PrioritizeOccupancy bool    `json:"prioritize_occupancy,omitempty"`
}

// CurrentPriceLookup returns the nightly price currently published for a day.
type CurrentPriceLookup interface {
	CurrentPrice(ctx context.Context, id property.ID, date time.Time) (int64, error)
}

// Forecast is the raw revenue and occupancy (0-1) expected over a period.
type Forecast struct {
	Revenue   float64
	Occupancy float64
}

type ProjectionSource interface {
	Forecast(ctx context.Context, id property.ID, period Period, goals Goals) (Forecast, error)
}

type Projection struct {
	Revenue     float64 `json:"revenue"`
	Occupancy   float64 `json:"occupancy"`
	AverageRate float64 `json:"average_rate"`
}

// Project derives the average nightly rate. It is zero when occupancy or the
// period length is zero.
func Project(f Forecast, period Period) Projection {
	p := Projection{Revenue: f.Revenue, Occupancy: f.Occupancy}
	denominator := f.Occupancy * float64(period.Length())
	if denominator != 0 {
		p.AverageRate = f.Revenue / denominator
	}
	return p
}

type Impact struct {
	PriceChangePct     float64 `json:"price_change_pct"`
	OccupancyImpactPct float64 `json:"occupancy_impact_pct"`
	RevenueDelta       float64 `json:"revenue_delta"`
}

func PriceImpact(current, recommended int64) (Impact, error) {
	if current <= 0 {
		return Impact{}, ErrCurrentPrice
	}
	change := float64(recommended-current) / float64(current) * 100
	occupancy := change * Elasticity
	return Impact{
		PriceChangePct:     change,
		OccupancyImpactPct: occupancy,
		RevenueDelta:       float64(recommended)*(1+occupancy/100) - float64(current),
	}, nil
}
