package pricing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ratepilot/internal/app/dto"
	"ratepilot/internal/app/handlers/support"
	"ratepilot/internal/app/middleware"
	"ratepilot/internal/app/policies"
	"ratepilot/internal/app/queries"
	domainpricing "ratepilot/internal/domain/pricing"
	"ratepilot/internal/domain/property"
	"ratepilot/internal/domain/shared/errs"
)

const getQuoteKey = "pricing.quote"

type GetQuoteQuery struct {
	PropertyID string
	Date       time.Time
	MinPrice   int64
	MaxPrice   int64
	// BasePrice overrides the property average when set; it must be positive.
	BasePrice        *int64
	Aggressiveness   string
	CustomMultiplier float64
}

func (q GetQuoteQuery) Key() string { return getQuoteKey }

func (q GetQuoteQuery) Validate() error {
	if q.Date.IsZero() {
		return fmt.Errorf("%w: date is required", domainpricing.ErrInvalidDate)
	}
	if _, err := domainpricing.ParseAggressiveness(q.Aggressiveness); err != nil {
		return err
	}
	if q.BasePrice != nil && *q.BasePrice <= 0 {
		return domainpricing.ErrNonPositiveBase
	}
	return q.bounds().Validate()
}

func (q GetQuoteQuery) bounds() domainpricing.Bounds {
	b := domainpricing.Bounds{MinPrice: q.MinPrice, MaxPrice: q.MaxPrice}
	if q.BasePrice != nil {
		b.BasePrice = *q.BasePrice
	}
	return b
}

// GetQuoteHandler quotes one night. When a provider is down it answers with
// the last cached quote marked stale, if there is one.
type GetQuoteHandler struct {
	Engine      domainpricing.Quoter
	Properties  property.Reader
	Bounds      policies.BoundsPolicy
	Cache       policies.QuoteCache
	StaleServed interface{ Inc() }
	Logger      *slog.Logger
}

func (h *GetQuoteHandler) Handle(ctx context.Context, q GetQuoteQuery) (dto.PriceQuote, error) {
	if h.Engine == nil {
		return dto.PriceQuote{}, domainpricing.ErrEngineMisconfig
	}
	aggr, err := domainpricing.ParseAggressiveness(q.Aggressiveness)
	if err != nil {
		return dto.PriceQuote{}, err
	}
	bounds, err := h.resolveBounds(ctx, q)
	if err != nil {
		return dto.PriceQuote{}, err
	}

	id := property.ID(q.PropertyID)
	quote, err := h.Engine.Quote(ctx, domainpricing.QuoteRequest{
		PropertyID:       id,
		Date:             q.Date,
		Bounds:           bounds,
		Aggressiveness:   aggr,
		CustomMultiplier: q.CustomMultiplier,
	})
	if err != nil {
		if errors.Is(err, errs.ErrDataUnavailable) {
			if cached, ok := h.cached(ctx, id, q.Date); ok {
				if h.StaleServed != nil {
					h.StaleServed.Inc()
				}
				h.log().Warn("serving cached quote", "property_id", q.PropertyID, "date", q.Date.Format(time.DateOnly), "error", err)
				return dto.NewPriceQuote(cached, bounds, true), nil
			}
		}
		return dto.PriceQuote{}, err
	}

	if h.Cache != nil {
		if err := h.Cache.Put(ctx, quote); err != nil {
			h.log().Warn("quote cache write failed", "property_id", q.PropertyID, "error", err)
		}
	}
	return dto.NewPriceQuote(quote, bounds, false), nil
}

// resolveBounds fills min/max from the location policy when the request
// carries neither.
func (h *GetQuoteHandler) resolveBounds(ctx context.Context, q GetQuoteQuery) (domainpricing.Bounds, error) {
	bounds := q.bounds()
	if bounds.MinPrice != 0 || bounds.MaxPrice != 0 || h.Bounds == nil || h.Properties == nil {
		return bounds, nil
	}
	prop, err := support.LoadProperty(ctx, h.Properties, q.PropertyID)
	if err != nil {
		return domainpricing.Bounds{}, err
	}
	defaults := h.Bounds.Defaults(prop.Location)
	bounds.MinPrice, bounds.MaxPrice = defaults.MinPrice, defaults.MaxPrice
	return bounds, nil
}

func (h *GetQuoteHandler) cached(ctx context.Context, id property.ID, date time.Time) (domainpricing.PriceQuote, bool) {
	if h.Cache == nil {
		return domainpricing.PriceQuote{}, false
	}
	quote, ok, err := h.Cache.Get(ctx, id, date)
	if err != nil {
		h.log().Warn("quote cache read failed", "property_id", id, "error", err)
		return domainpricing.PriceQuote{}, false
	}
	return quote, ok
}

func (h *GetQuoteHandler) log() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

var _ queries.Handler[GetQuoteQuery, dto.PriceQuote] = (*GetQuoteHandler)(nil)
var _ middleware.SelfValidating = GetQuoteQuery{}
