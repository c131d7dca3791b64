package memory

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"ratepilot/internal/domain/calendar"
	"ratepilot/internal/domain/insights"
	"ratepilot/internal/domain/pricing"
	"ratepilot/internal/domain/property"
	"ratepilot/internal/domain/revenue"
	"ratepilot/internal/domain/shared/daterange"
)

//go:embed fixtures/demo.json
var demoFixtures []byte

// Fixtures is the seed format for memory mode. Market data is keyed by
// lower-cased city, everything else by property id.
type Fixtures struct {
	Properties  []fixtureProperty             `json:"properties"`
	Calendars   []fixtureCalendar             `json:"calendars"`
	Market      map[string]fixtureMarket      `json:"market"`
	Competitors map[string]fixtureCompetitors `json:"competitors"`
	Demand      map[string]fixtureDemand      `json:"demand"`
	Performance map[string]fixturePerformance `json:"performance"`
	Forecast    map[string]fixtureForecast    `json:"forecast"`
}

type fixtureProperty struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	City          string   `json:"city"`
	Country       string   `json:"country"`
	AverageRate   int64    `json:"average_rate"`
	OccupancyRate float64  `json:"occupancy_rate"`
	Platforms     []string `json:"platforms"`
}

type fixtureEntry struct {
	Date    string `json:"date"`
	EndDate string `json:"end_date"`
	Status  string `json:"status"`
}

type fixtureCalendar struct {
	PropertyID string         `json:"property_id"`
	Platform   string         `json:"platform"`
	Entries    []fixtureEntry `json:"entries"`
}

type fixtureMarket struct {
	SeasonalMultiplier float64  `json:"seasonal_multiplier"`
	EventMultiplier    float64  `json:"event_multiplier"`
	Events             []string `json:"events"`
	SampleSize         int      `json:"sample_size"`
	AverageRate        float64  `json:"average_rate"`
	OccupancyRate      float64  `json:"occupancy_rate"`
	RevPAR             float64  `json:"rev_par"`
	Trend              string   `json:"trend"`
	Seasonality        string   `json:"seasonality"`
	AverageRevenue     float64  `json:"average_revenue"`
	AverageOccupancy   float64  `json:"average_occupancy"`
}

type fixtureCompetitors struct {
	AveragePrice *float64 `json:"average_price"`
	Position     string   `json:"position"`
	SampleSize   int      `json:"sample_size"`
	Ranking      int      `json:"ranking"`
}

type fixtureDemand struct {
	Level    string  `json:"level"`
	Accuracy float64 `json:"accuracy"`
}

type fixturePerformance struct {
	Revenue              float64 `json:"revenue"`
	Bookings             int     `json:"bookings"`
	AverageStayLength    float64 `json:"average_stay_length"`
	GuestRating          float64 `json:"guest_rating"`
	ComparisonToPrevious float64 `json:"comparison_to_previous"`
	OccupancyRate        float64 `json:"occupancy_rate"`
}

type fixtureForecast struct {
	Revenue   float64 `json:"revenue"`
	Occupancy float64 `json:"occupancy"`
}

// LoadFixtures reads path, or the embedded demo set when path is empty.
func LoadFixtures(path string) (Fixtures, error) {
	raw := demoFixtures
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Fixtures{}, fmt.Errorf("memory: read fixtures: %w", err)
		}
		raw = data
	}
	var f Fixtures
	if err := json.Unmarshal(raw, &f); err != nil {
		return Fixtures{}, fmt.Errorf("memory: decode fixtures: %w", err)
	}
	return f, nil
}

// Seed writes properties and calendars into the stores.
func (f Fixtures) Seed(ctx context.Context, props property.Repository, cals calendar.Store) error {
	for _, p := range f.Properties {
		err := props.Save(ctx, &property.Property{
			ID:            property.ID(p.ID),
			Name:          p.Name,
			Location:      property.Location{City: p.City, Country: p.Country},
			AverageRate:   p.AverageRate,
			OccupancyRate: p.OccupancyRate,
			Platforms:     p.Platforms,
		})
		if err != nil {
			return fmt.Errorf("memory: seed property %s: %w", p.ID, err)
		}
	}
	for _, c := range f.Calendars {
		entries := make([]calendar.Entry, 0, len(c.Entries))
		for _, e := range c.Entries {
			entry, err := e.toEntry()
			if err != nil {
				return fmt.Errorf("memory: seed calendar %s/%s: %w", c.PropertyID, c.Platform, err)
			}
			entries = append(entries, entry)
		}
		if err := cals.Replace(ctx, property.ID(c.PropertyID), c.Platform, entries); err != nil {
			return err
		}
	}
	return nil
}

func (e fixtureEntry) toEntry() (calendar.Entry, error) {
	start, err := daterange.ParseDay(e.Date)
	if err != nil {
		return calendar.Entry{}, err
	}
	status, err := calendar.ParseStatus(e.Status)
	if err != nil {
		return calendar.Entry{}, err
	}
	entry := calendar.Entry{Date: start, Status: status}
	if e.EndDate != "" {
		if entry.EndDate, err = daterange.ParseDay(e.EndDate); err != nil {
			return calendar.Entry{}, err
		}
	}
	return entry, entry.Validate()
}

// FixtureProviders answers every upstream data port from fixtures. Missing
// keys yield neutral data rather than errors.
type FixtureProviders struct {
	Fixtures   Fixtures
	Properties property.Reader
}

func (p *FixtureProviders) market(ctx context.Context, id property.ID) (fixtureMarket, error) {
	prop, err := p.Properties.ByID(ctx, id)
	if err != nil {
		return fixtureMarket{}, err
	}
	return p.Fixtures.Market[strings.ToLower(strings.TrimSpace(prop.Location.City))], nil
}

func (p *FixtureProviders) MarketData(ctx context.Context, id property.ID, _ time.Time) (pricing.MarketData, error) {
	m, err := p.market(ctx, id)
	if err != nil {
		return pricing.MarketData{}, err
	}
	return pricing.MarketData{
		SeasonalMultiplier: m.SeasonalMultiplier,
		EventMultiplier:    m.EventMultiplier,
		Events:             m.Events,
		SampleSize:         m.SampleSize,
	}, nil
}

func (p *FixtureProviders) CompetitorPricing(_ context.Context, id property.ID, _ time.Time) (pricing.CompetitorPricing, error) {
	c := p.Fixtures.Competitors[string(id)]
	return pricing.CompetitorPricing{AveragePrice: c.AveragePrice, Position: c.Position, SampleSize: c.SampleSize}, nil
}

func (p *FixtureProviders) DemandForecast(_ context.Context, id property.ID, _ time.Time) (pricing.DemandForecast, error) {
	d, ok := p.Fixtures.Demand[string(id)]
	if !ok || d.Level == "" {
		return pricing.DemandForecast{Level: pricing.DemandModerate}, nil
	}
	return pricing.DemandForecast{Level: pricing.DemandLevel(strings.ToLower(d.Level)), Accuracy: d.Accuracy}, nil
}

func (p *FixtureProviders) MarketTrends(_ context.Context, loc property.Location, _ insights.Timeframe) (insights.MarketTrends, error) {
	m := p.Fixtures.Market[strings.ToLower(strings.TrimSpace(loc.City))]
	return insights.MarketTrends{
		AverageRate:      m.AverageRate,
		OccupancyRate:    m.OccupancyRate,
		RevPAR:           m.RevPAR,
		Trend:            m.Trend,
		Seasonality:      m.Seasonality,
		AverageRevenue:   m.AverageRevenue,
		AverageOccupancy: m.AverageOccupancy,
	}, nil
}

func (p *FixtureProviders) CompetitorAnalysis(_ context.Context, id property.ID, _ insights.Timeframe) (insights.CompetitorAnalysis, error) {
	c := p.Fixtures.Competitors[string(id)]
	out := insights.CompetitorAnalysis{Count: c.SampleSize, Ranking: c.Ranking, Position: c.Position}
	if c.AveragePrice != nil {
		out.AveragePrice = *c.AveragePrice
	}
	return out, nil
}

func (p *FixtureProviders) Performance(_ context.Context, id property.ID, _ insights.Timeframe) (insights.Performance, error) {
	perf := p.Fixtures.Performance[string(id)]
	return insights.Performance{
		Revenue:              perf.Revenue,
		Bookings:             perf.Bookings,
		AverageStayLength:    perf.AverageStayLength,
		GuestRating:          perf.GuestRating,
		ComparisonToPrevious: perf.ComparisonToPrevious,
		OccupancyRate:        perf.OccupancyRate,
	}, nil
}

func (p *FixtureProviders) Forecast(_ context.Context, id property.ID, _ revenue.Period, _ revenue.Goals) (revenue.Forecast, error) {
	f := p.Fixtures.Forecast[string(id)]
	return revenue.Forecast{Revenue: f.Revenue, Occupancy: f.Occupancy}, nil
}

var (
	_ pricing.MarketDataProvider          = (*FixtureProviders)(nil)
	_ pricing.CompetitorProvider          = (*FixtureProviders)(nil)
	_ pricing.DemandProvider              = (*FixtureProviders)(nil)
	_ insights.MarketTrendsProvider       = (*FixtureProviders)(nil)
	_ insights.CompetitorAnalysisProvider = (*FixtureProviders)(nil)
	_ insights.PerformanceProvider        = (*FixtureProviders)(nil)
	_ revenue.ProjectionSource            = (*FixtureProviders)(nil)
)
