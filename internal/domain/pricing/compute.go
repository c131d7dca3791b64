package pricing

import (
	"math"
	"time"
)

const (
	highDemandPremium    = 0.3
	lowDemandDiscount    = 0.2
	competitorAdjustment = 0.15
	competitorHighRatio  = 1.2
	competitorLowRatio   = 0.8
	lastMinuteDays       = 7
	lastMinutePremium    = 0.1
	earlyBookingDays     = 90
	earlyBookingDiscount = 0.05

	baseConfidence          = 50
	marketSampleThreshold   = 100
	competitorSampleMinimum = 10
	demandAccuracyThreshold = 0.8
)

// Inputs is everything Compute needs; it does no I/O.
type Inputs struct {
	BasePrice        int64
	Market           MarketData
	Competitors      CompetitorPricing
	Demand           DemandForecast
	DaysAhead        int
	Aggressiveness   Aggressiveness
	CustomMultiplier float64
	Bounds           Bounds
	// MultiplierFloor, when positive, is the lowest multiplier allowed after
	// the aggressiveness factor.
	MultiplierFloor float64
	ComputedAt      time.Time
}

// ResolveBasePrice picks the explicit override, then the property average,
// then FallbackBasePrice.
func ResolveBasePrice(override, average int64) int64 {
	if override > 0 {
		return override
	}
	if average > 0 {
		return average
	}
	return FallbackBasePrice
}

// Compute runs the multiplier pipeline and returns the quote without
// property or date metadata.
func Compute(in Inputs) (PriceQuote, error) {
	if in.BasePrice <= 0 {
		return PriceQuote{}, ErrNonPositiveBase
	}
	if err := in.Bounds.Validate(); err != nil {
		return PriceQuote{}, err
	}
	factor, err := in.Aggressiveness.Factor(in.CustomMultiplier)
	if err != nil {
		return PriceQuote{}, err
	}

	multiplier := 1.0
	multiplier += demandAdjustment(in.Demand.Level)
	if in.Competitors.HasPrice() {
		multiplier += competitorAdjustmentFor(*in.Competitors.AveragePrice / float64(in.BasePrice))
	}
	multiplier += in.Market.SeasonalMultiplier
	multiplier += in.Market.EventMultiplier
	multiplier += leadTimeAdjustment(in.DaysAhead)
	multiplier *= factor
	if in.MultiplierFloor > 0 && multiplier < in.MultiplierFloor {
		multiplier = in.MultiplierFloor
	}

	optimal := roundHalfUp(float64(in.BasePrice) * multiplier)
	optimal = in.Bounds.Clamp(optimal)

	aggression := in.Aggressiveness
	if aggression == "" {
		aggression = Moderate
	}
	return PriceQuote{
		OptimalPrice: optimal,
		BasePrice:    in.BasePrice,
		Multiplier:   multiplier,
		Aggression:   aggression,
		Factors: Factors{
			DemandLevel:         in.Demand.Level,
			CompetitionPosition: in.Competitors.Position,
			SeasonalAdjustment:  in.Market.SeasonalMultiplier,
			EventAdjustment:     in.Market.EventMultiplier,
			Events:              append([]string(nil), in.Market.Events...),
			LeadTimeDays:        in.DaysAhead,
		},
		Confidence: Confidence(in.Market, in.Competitors, in.Demand),
		ComputedAt: in.ComputedAt,
	}, nil
}

// Confidence scores data quality from 50 up to 100.
func Confidence(market MarketData, competitors CompetitorPricing, demand DemandForecast) int {
	score := baseConfidence
	if market.SampleSize > marketSampleThreshold {
		score += 20
	}
	if competitors.SampleSize > competitorSampleMinimum {
		score += 15
	}
	if demand.Accuracy > demandAccuracyThreshold {
		score += 15
	}
	if score > 100 {
		score = 100
	}
	return score
}

func demandAdjustment(level DemandLevel) float64 {
	switch level {
	case DemandHigh:
		return highDemandPremium
	case DemandLow:
		return -lowDemandDiscount
	default:
		return 0
	}
}

func competitorAdjustmentFor(ratio float64) float64 {
	switch {
	case ratio > competitorHighRatio:
		return competitorAdjustment
	case ratio < competitorLowRatio:
		return -competitorAdjustment
	default:
		return 0
	}
}

func leadTimeAdjustment(daysAhead int) float64 {
	switch {
	case daysAhead < lastMinuteDays:
		return lastMinutePremium
	case daysAhead > earlyBookingDays:
		return -earlyBookingDiscount
	default:
		return 0
	}
}

// roundHalfUp rounds .5 toward positive infinity.
func roundHalfUp(v float64) int64 {
	return int64(math.Floor(v + 0.5))
}
