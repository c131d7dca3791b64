package pricing

import (
	"context"
	"log/slog"
	"time"

	"ratepilot/internal/domain/property"
	"ratepilot/internal/domain/shared/daterange"
	"ratepilot/internal/domain/shared/errs"
)

type QuoteRequest struct {
	PropertyID       property.ID
	Date             time.Time
	Bounds           Bounds
	Aggressiveness   Aggressiveness
	CustomMultiplier float64
}

// Engine resolves collaborators for a quote and hands the numbers to Compute.
// It keeps no state between calls.
type Engine struct {
	Properties      property.Reader
	Market          MarketDataProvider
	Competitors     CompetitorProvider
	Demand          DemandProvider
	Now             func() time.Time
	MultiplierFloor float64
	Logger          *slog.Logger
}

func (e *Engine) Quote(ctx context.Context, req QuoteRequest) (PriceQuote, error) {
	if e == nil || e.Properties == nil || e.Market == nil || e.Competitors == nil || e.Demand == nil {
		return PriceQuote{}, ErrEngineMisconfig
	}
	now := e.now()
	if req.Date.IsZero() {
		return PriceQuote{}, ErrInvalidDate
	}
	if daterange.Truncate(req.Date).Before(daterange.Truncate(now)) {
		return PriceQuote{}, ErrDateInPast
	}
	if err := req.Bounds.Validate(); err != nil {
		return PriceQuote{}, err
	}

	prop, err := e.Properties.ByID(ctx, req.PropertyID)
	if err != nil {
		return PriceQuote{}, err
	}

	market, err := e.Market.MarketData(ctx, req.PropertyID, req.Date)
	if err != nil {
		e.logFetchError("market", req.PropertyID, err)
		return PriceQuote{}, errs.Unavailable("market", err)
	}
	competitors, err := e.Competitors.CompetitorPricing(ctx, req.PropertyID, req.Date)
	if err != nil {
		e.logFetchError("competitor", req.PropertyID, err)
		return PriceQuote{}, errs.Unavailable("competitor", err)
	}
	demand, err := e.Demand.DemandForecast(ctx, req.PropertyID, req.Date)
	if err != nil {
		e.logFetchError("demand", req.PropertyID, err)
		return PriceQuote{}, errs.Unavailable("demand", err)
	}

	quote, err := Compute(Inputs{
		BasePrice:        ResolveBasePrice(req.Bounds.BasePrice, prop.AverageRate),
		Market:           market,
		Competitors:      competitors,
		Demand:           demand,
		DaysAhead:        daterange.DaysBetween(now, req.Date),
		Aggressiveness:   req.Aggressiveness,
		CustomMultiplier: req.CustomMultiplier,
		Bounds:           req.Bounds,
		MultiplierFloor:  e.MultiplierFloor,
		ComputedAt:       now.UTC(),
	})
	if err != nil {
		return PriceQuote{}, err
	}
	quote.PropertyID = req.PropertyID
	quote.Date = daterange.Truncate(req.Date)

	if e.Logger != nil {
		e.Logger.Debug("price quote computed",
			"property_id", req.PropertyID,
			"date", quote.Date.Format(time.DateOnly),
			"optimal_price", quote.OptimalPrice,
			"multiplier", quote.Multiplier,
			"confidence", quote.Confidence,
		)
	}
	return quote, nil
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Engine) logFetchError(source string, id property.ID, err error) {
	if e.Logger == nil {
		return
	}
	e.Logger.Warn("pricing data fetch failed", "source", source, "property_id", id, "error", err)
}

var _ Quoter = (*Engine)(nil)
