package policies

import (
	"context"
	"time"

	"ratepilot/internal/domain/pricing"
	"ratepilot/internal/domain/property"
)

// QuoteCache keeps the last good quote per property and day. It is read when
// an upstream provider is down.
type QuoteCache interface {
	Get(ctx context.Context, id property.ID, date time.Time) (pricing.PriceQuote, bool, error)
	Put(ctx context.Context, quote pricing.PriceQuote) error
}

// BoundsPolicy supplies default price bounds for a location when a request
// carries none.
type BoundsPolicy interface {
	Defaults(loc property.Location) pricing.Bounds
}
