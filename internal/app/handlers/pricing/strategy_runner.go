package pricing

import (
	"context"
	"fmt"
	"time"

	domainpricing "ratepilot/internal/domain/pricing"
	"ratepilot/internal/domain/property"
	"ratepilot/internal/domain/shared/daterange"
)

// strategyRunner computes a strategy's horizon of rates and pushes them to
// its platforms. Nothing is published when any day fails to quote.
type strategyRunner struct {
	engine    domainpricing.Quoter
	publisher domainpricing.RatePublisher
}

func (r strategyRunner) run(ctx context.Context, s domainpricing.Strategy, prop *property.Property, now time.Time) ([]domainpricing.DailyRate, []string, error) {
	if r.engine == nil {
		return nil, nil, domainpricing.ErrEngineMisconfig
	}
	rates, err := domainpricing.StrategicRates(ctx, r.engine, s, daterange.Truncate(now))
	if err != nil {
		return nil, nil, err
	}
	platforms := targetPlatforms(s, prop)
	if r.publisher != nil && len(platforms) > 0 {
		if err := r.publisher.PublishRates(ctx, s.PropertyID, platforms, rates); err != nil {
			return nil, nil, fmt.Errorf("pricing: publish rates: %w", err)
		}
	}
	return rates, platforms, nil
}

func targetPlatforms(s domainpricing.Strategy, prop *property.Property) []string {
	if len(s.TargetPlatforms) > 0 {
		return s.TargetPlatforms
	}
	if prop != nil {
		return prop.Platforms
	}
	return nil
}
