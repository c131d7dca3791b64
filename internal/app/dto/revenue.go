package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"ratepilot/internal/domain/pricing"
	"ratepilot/internal/domain/revenue"
)

// Money fields go out as JSON numbers.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

type Impact struct {
	PriceChangePct     decimal.Decimal `json:"price_change_pct"`
	OccupancyImpactPct decimal.Decimal `json:"occupancy_impact_pct"`
	RevenueDelta       decimal.Decimal `json:"revenue_delta"`
}

type OptimizationAction struct {
	Date             string          `json:"date"`
	CurrentPrice     int64           `json:"current_price"`
	RecommendedPrice int64           `json:"recommended_price"`
	ExpectedImpact   Impact          `json:"expected_impact"`
	Reasoning        pricing.Factors `json:"reasoning"`
}

type Projection struct {
	Revenue     decimal.Decimal `json:"revenue"`
	Occupancy   decimal.Decimal `json:"occupancy"`
	AverageRate decimal.Decimal `json:"average_rate"`
}

type RevenueReport struct {
	PropertyID           string               `json:"property_id"`
	Start                string               `json:"start"`
	End                  string               `json:"end"`
	CurrentProjection    *Projection          `json:"current_projection,omitempty"`
	Actions              []OptimizationAction `json:"optimization_actions"`
	PotentialRevenueLift decimal.Decimal      `json:"potential_revenue_lift"`
	RecommendationsCount int                  `json:"recommendations_count"`
	GeneratedAt          time.Time            `json:"generated_at"`
	ArchiveURL           string               `json:"archive_url,omitempty"`
}

// money rounds to cents; percentages keep two decimals as well.
func money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

func NewRevenueReport(r revenue.Report, archiveURL string) RevenueReport {
	out := RevenueReport{
		PropertyID:           string(r.PropertyID),
		Start:                r.Period.Start.Format(time.DateOnly),
		End:                  r.Period.End.Format(time.DateOnly),
		Actions:              make([]OptimizationAction, 0, len(r.Actions)),
		PotentialRevenueLift: money(r.PotentialRevenueLift),
		RecommendationsCount: r.RecommendationsCount,
		GeneratedAt:          r.GeneratedAt,
		ArchiveURL:           archiveURL,
	}
	if r.Projection != nil {
		out.CurrentProjection = &Projection{
			Revenue:     money(r.Projection.Revenue),
			Occupancy:   decimal.NewFromFloat(r.Projection.Occupancy).Round(4),
			AverageRate: money(r.Projection.AverageRate),
		}
	}
	for _, a := range r.Actions {
		out.Actions = append(out.Actions, OptimizationAction{
			Date:             a.Date.Format(time.DateOnly),
			CurrentPrice:     a.CurrentPrice,
			RecommendedPrice: a.RecommendedPrice,
			ExpectedImpact: Impact{
				PriceChangePct:     money(a.Impact.PriceChangePct),
				OccupancyImpactPct: money(a.Impact.OccupancyImpactPct),
				RevenueDelta:       money(a.Impact.RevenueDelta),
			},
			Reasoning: a.Reasoning,
		})
	}
	return out
}
