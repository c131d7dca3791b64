package insights

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"ratepilot/internal/domain/property"
	"ratepilot/internal/domain/shared/errs"
)

var (
	ErrTimeframe        = fmt.Errorf("insights: %w: timeframe must be week, month or quarter", errs.ErrInvalidInput)
	ErrServiceMisconfig = errors.New("insights: service missing collaborators")
)

type Timeframe string

const (
	Week    Timeframe = "week"
	Month   Timeframe = "month"
	Quarter Timeframe = "quarter"
)

// ParseTimeframe defaults to Month for an empty value.
func ParseTimeframe(raw string) (Timeframe, error) {
	switch tf := Timeframe(strings.ToLower(strings.TrimSpace(raw))); tf {
	case "":
		return Month, nil
	case Week, Month, Quarter:
		return tf, nil
	default:
		return "", ErrTimeframe
	}
}

func (tf Timeframe) Days() int {
	switch tf {
	case Week:
		return 7
	case Quarter:
		return 90
	default:
		return 30
	}
}

const PositionBelowAverage = "below_average"

type MarketTrends struct {
	AverageRate      float64 `json:"average_rate"`
	OccupancyRate    float64 `json:"occupancy_rate"`
	RevPAR           float64 `json:"rev_par"`
	Trend            string  `json:"trend_direction"`
	Seasonality      string  `json:"seasonality"`
	AverageRevenue   float64 `json:"-"`
	AverageOccupancy float64 `json:"-"`
}

type CompetitorAnalysis struct {
	Count        int     `json:"total_competitors"`
	AveragePrice float64 `json:"average_price"`
	Ranking      int     `json:"your_ranking"`
	Position     string  `json:"price_position"`
}

type Performance struct {
	Revenue              float64 `json:"revenue"`
	Bookings             int     `json:"bookings"`
	AverageStayLength    float64 `json:"average_stay_length"`
	GuestRating          float64 `json:"guest_rating"`
	ComparisonToPrevious float64 `json:"comparison_to_previous"`
	OccupancyRate        float64 `json:"-"`
}

type MarketTrendsProvider interface {
	MarketTrends(ctx context.Context, loc property.Location, tf Timeframe) (MarketTrends, error)
}

type CompetitorAnalysisProvider interface {
	CompetitorAnalysis(ctx context.Context, id property.ID, tf Timeframe) (CompetitorAnalysis, error)
}

type PerformanceProvider interface {
	Performance(ctx context.Context, id property.ID, tf Timeframe) (Performance, error)
}

type Report struct {
	PropertyID      property.ID        `json:"property_id"`
	Timeframe       Timeframe          `json:"timeframe"`
	Market          MarketTrends       `json:"market"`
	Competition     CompetitorAnalysis `json:"competition"`
	Performance     Performance        `json:"performance"`
	Recommendations []string           `json:"recommendations"`
	GeneratedAt     time.Time          `json:"generated_at"`
}

// Recommendations compares the property with its market and competitors.
func Recommendations(m MarketTrends, c CompetitorAnalysis, p Performance) []string {
	out := []string{}
	if p.Revenue < m.AverageRevenue {
		out = append(out, "Consider increasing your rates to match market average")
	}
	if p.OccupancyRate < m.AverageOccupancy {
		out = append(out, "Lower prices during low-demand periods to increase bookings")
	}
	if c.Position == PositionBelowAverage {
		out = append(out, "Your pricing is below competitors - consider strategic price increases")
	}
	return out
}

type Service struct {
	Properties  property.Reader
	Market      MarketTrendsProvider
	Competitors CompetitorAnalysisProvider
	Performance PerformanceProvider
	Now         func() time.Time
	Logger      *slog.Logger
}

func (s *Service) Insights(ctx context.Context, id property.ID, tf Timeframe) (Report, error) {
	if s == nil || s.Properties == nil || s.Market == nil || s.Competitors == nil || s.Performance == nil {
		return Report{}, ErrServiceMisconfig
	}
	if tf == "" {
		tf = Month
	}
	prop, err := s.Properties.ByID(ctx, id)
	if err != nil {
		return Report{}, err
	}
	market, err := s.Market.MarketTrends(ctx, prop.Location, tf)
	if err != nil {
		s.warn("market_trends", id, err)
		return Report{}, errs.Unavailable("market_trends", err)
	}
	competition, err := s.Competitors.CompetitorAnalysis(ctx, id, tf)
	if err != nil {
		s.warn("competitor_analysis", id, err)
		return Report{}, errs.Unavailable("competitor_analysis", err)
	}
	performance, err := s.Performance.Performance(ctx, id, tf)
	if err != nil {
		s.warn("performance", id, err)
		return Report{}, errs.Unavailable("performance", err)
	}
	return Report{
		PropertyID:      id,
		Timeframe:       tf,
		Market:          market,
		Competition:     competition,
		Performance:     performance,
		Recommendations: Recommendations(market, competition, performance),
		GeneratedAt:     s.now(),
	}, nil
}

func (s *Service) warn(source string, id property.ID, err error) {
	if s.Logger != nil {
		s.Logger.Warn("insights fetch failed", "source", source, "property_id", id, "error", err)
	}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
