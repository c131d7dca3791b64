package revenue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ratepilot/internal/domain/pricing"
	"ratepilot/internal/domain/property"
	"ratepilot/internal/domain/shared/errs"
)

func dec(d int) time.Time {
	return time.Date(2026, 12, d, 0, 0, 0, 0, time.UTC)
}

type priceTable map[time.Time]int64

func (p priceTable) CurrentPrice(_ context.Context, _ property.ID, date time.Time) (int64, error) {
	price, ok := p[date]
	if !ok {
		return 0, errors.New("no published price")
	}
	return price, nil
}

type flatQuoter struct {
	price int64
	err   error
}

func (q flatQuoter) Quote(_ context.Context, req pricing.QuoteRequest) (pricing.PriceQuote, error) {
	if q.err != nil {
		return pricing.PriceQuote{}, q.err
	}
	return pricing.PriceQuote{
		PropertyID:   req.PropertyID,
		Date:         req.Date,
		OptimalPrice: q.price,
		Factors:      pricing.Factors{DemandLevel: pricing.DemandHigh},
	}, nil
}

type fixedForecast Forecast

func (f fixedForecast) Forecast(context.Context, property.ID, Period, Goals) (Forecast, error) {
	return Forecast(f), nil
}

func TestOptimizeThresholdIsExclusive(t *testing.T) {
	prices := priceTable{
		dec(1): 95,  // diff 5, skipped
		dec(2): 94,  // diff 6, included
		dec(3): 105, // diff 5, skipped
		dec(4): 110, // diff 10, included
	}
	now := dec(1).Add(-48 * time.Hour)
	o := &Optimizer{Quoter: flatQuoter{price: 100}, Prices: prices, Now: func() time.Time { return now }}

	report, err := o.Optimize(context.Background(), "loft", Period{Start: dec(1), End: dec(4)}, Goals{})
	require.NoError(t, err)
	require.Len(t, report.Actions, 2)
	assert.Equal(t, dec(2), report.Actions[0].Date)
	assert.Equal(t, int64(94), report.Actions[0].CurrentPrice)
	assert.Equal(t, int64(100), report.Actions[0].RecommendedPrice)
	assert.Equal(t, pricing.DemandHigh, report.Actions[0].Reasoning.DemandLevel)
	assert.Equal(t, dec(4), report.Actions[1].Date)
	assert.Equal(t, 2, report.RecommendationsCount)
	assert.Equal(t, now, report.GeneratedAt)
	assert.Nil(t, report.Projection)

	want := report.Actions[0].Impact.RevenueDelta + report.Actions[1].Impact.RevenueDelta
	assert.InDelta(t, want, report.PotentialRevenueLift, 1e-9)
}

func TestPriceImpact(t *testing.T) {
	impact, err := PriceImpact(100, 120)
	require.NoError(t, err)
	assert.InDelta(t, 20.0, impact.PriceChangePct, 1e-9)
	assert.InDelta(t, -10.0, impact.OccupancyImpactPct, 1e-9)
	assert.InDelta(t, 8.0, impact.RevenueDelta, 1e-9)

	impact, err = PriceImpact(200, 150)
	require.NoError(t, err)
	assert.InDelta(t, -25.0, impact.PriceChangePct, 1e-9)
	assert.InDelta(t, 12.5, impact.OccupancyImpactPct, 1e-9)
	assert.InDelta(t, -31.25, impact.RevenueDelta, 1e-9)

	_, err = PriceImpact(0, 100)
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestOptimizeRejectsInvalidInput(t *testing.T) {
	o := &Optimizer{Quoter: flatQuoter{price: 100}, Prices: priceTable{dec(1): 0}}

	_, err := o.Optimize(context.Background(), "loft", Period{Start: dec(5), End: dec(1)}, Goals{})
	assert.ErrorIs(t, err, errs.ErrInvalidInput)

	_, err = o.Optimize(context.Background(), "loft", Period{Start: dec(1), End: dec(1)}, Goals{})
	assert.ErrorIs(t, err, ErrCurrentPrice)

	_, err = (&Optimizer{}).Optimize(context.Background(), "loft", Period{Start: dec(1), End: dec(1)}, Goals{})
	assert.ErrorIs(t, err, ErrOptimizerMisconfig)
}

type countingQuoter struct {
	flatQuoter
	calls int
}

func (q *countingQuoter) Quote(ctx context.Context, req pricing.QuoteRequest) (pricing.PriceQuote, error) {
	q.calls++
	return q.flatQuoter.Quote(ctx, req)
}

func TestOptimizeRejectsOverlongPeriod(t *testing.T) {
	start := dec(1)
	assert.NoError(t, Period{Start: start, End: start.AddDate(0, 0, MaxPeriodDays-1)}.Validate())

	quoter := &countingQuoter{flatQuoter: flatQuoter{price: 100}}
	o := &Optimizer{Quoter: quoter, Prices: priceTable{}}
	_, err := o.Optimize(context.Background(), "loft", Period{Start: start, End: start.AddDate(200, 0, 0)}, Goals{})
	assert.ErrorIs(t, err, ErrPeriodTooLong)
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
	assert.Zero(t, quoter.calls)
}

func TestOptimizeAbortsOnQuoteFailure(t *testing.T) {
	cause := errs.Unavailable("market", errors.New("timeout"))
	o := &Optimizer{Quoter: flatQuoter{err: cause}, Prices: priceTable{dec(1): 90}}

	_, err := o.Optimize(context.Background(), "loft", Period{Start: dec(1), End: dec(1)}, Goals{})
	assert.ErrorIs(t, err, errs.ErrDataUnavailable)
}

func TestProjection(t *testing.T) {
	period := Period{Start: dec(1), End: dec(11)}
	assert.Equal(t, 10, period.Length())

	prices := priceTable{}
	for _, d := range period.Days() {
		prices[d] = 100
	}
	o := &Optimizer{
		Quoter:      flatQuoter{price: 100},
		Prices:      prices,
		Projections: fixedForecast{Revenue: 8000, Occupancy: 0.8},
	}
	report, err := o.Optimize(context.Background(), "loft", period, Goals{TargetOccupancy: 0.9})
	require.NoError(t, err)
	assert.Empty(t, report.Actions)
	require.NotNil(t, report.Projection)
	assert.InDelta(t, 1000.0, report.Projection.AverageRate, 1e-9)
	assert.Equal(t, 0.8, report.Projection.Occupancy)

	assert.Zero(t, Project(Forecast{Revenue: 8000}, period).AverageRate)
	assert.Zero(t, Project(Forecast{Revenue: 8000, Occupancy: 0.5}, Period{Start: dec(1), End: dec(1)}).AverageRate)
}

func TestPeriodLengthRoundsUp(t *testing.T) {
	p := Period{Start: dec(1), End: dec(2).Add(time.Hour)}
	assert.Equal(t, 2, p.Length())
}
