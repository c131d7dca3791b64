package revenue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ratepilot/internal/domain/pricing"
	"ratepilot/internal/domain/property"
)

type Action struct {
	Date             time.Time       `json:"date"`
	CurrentPrice     int64           `json:"current_price"`
	RecommendedPrice int64           `json:"recommended_price"`
	Impact           Impact          `json:"expected_impact"`
	Reasoning        pricing.Factors `json:"reasoning"`
}

type Report struct {
	PropertyID           property.ID `json:"property_id"`
	Period               Period      `json:"period"`
	Goals                Goals       `json:"goals"`
	Projection           *Projection `json:"current_projection,omitempty"`
	Actions              []Action    `json:"optimization_actions"`
	PotentialRevenueLift float64     `json:"potential_revenue_lift"`
	RecommendationsCount int         `json:"recommendations_count"`
	GeneratedAt          time.Time   `json:"generated_at"`
}

// Optimizer sweeps a period day by day and recommends price changes. Any
// lookup or quote failure aborts the sweep.
type Optimizer struct {
	Quoter      pricing.Quoter
	Prices      CurrentPriceLookup
	Projections ProjectionSource
	Now         func() time.Time
	Logger      *slog.Logger
}

func (o *Optimizer) Optimize(ctx context.Context, id property.ID, period Period, goals Goals) (Report, error) {
	if o == nil || o.Quoter == nil || o.Prices == nil {
		return Report{}, ErrOptimizerMisconfig
	}
	if err := period.Validate(); err != nil {
		return Report{}, err
	}

	report := Report{PropertyID: id, Period: period, Goals: goals, Actions: []Action{}}
	if o.Projections != nil {
		f, err := o.Projections.Forecast(ctx, id, period, goals)
		if err != nil {
			return Report{}, fmt.Errorf("revenue: forecast: %w", err)
		}
		p := Project(f, period)
		report.Projection = &p
	}

	for _, day := range period.Days() {
		if err := ctx.Err(); err != nil {
			return Report{}, err
		}
		current, err := o.Prices.CurrentPrice(ctx, id, day)
		if err != nil {
			return Report{}, fmt.Errorf("revenue: current price for %s: %w", day.Format(time.DateOnly), err)
		}
		if current <= 0 {
			return Report{}, fmt.Errorf("%w: %s has price %d", ErrCurrentPrice, day.Format(time.DateOnly), current)
		}
		quote, err := o.Quoter.Quote(ctx, pricing.QuoteRequest{PropertyID: id, Date: day})
		if err != nil {
			return Report{}, fmt.Errorf("revenue: quote for %s: %w", day.Format(time.DateOnly), err)
		}
		if abs(current-quote.OptimalPrice) <= ActionThreshold {
			continue
		}
		impact, err := PriceImpact(current, quote.OptimalPrice)
		if err != nil {
			return Report{}, err
		}
		report.Actions = append(report.Actions, Action{
			Date:             day,
			CurrentPrice:     current,
			RecommendedPrice: quote.OptimalPrice,
			Impact:           impact,
			Reasoning:        quote.Factors,
		})
		report.PotentialRevenueLift += impact.RevenueDelta
	}
	report.RecommendationsCount = len(report.Actions)
	report.GeneratedAt = o.now()

	if o.Logger != nil {
		o.Logger.Info("revenue optimization completed",
			"property_id", id,
			"days", len(period.Days()),
			"actions", report.RecommendationsCount,
			"lift", report.PotentialRevenueLift,
		)
	}
	return report, nil
}

func (o *Optimizer) now() time.Time {
	if o.Now != nil {
		return o.Now().UTC()
	}
	return time.Now().UTC()
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
