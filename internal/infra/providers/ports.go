package providers

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ratepilot/internal/domain/insights"
	"ratepilot/internal/domain/pricing"
	"ratepilot/internal/domain/property"
	"ratepilot/internal/domain/revenue"
)

type marketDataResponse struct {
	SeasonalMultiplier float64  `json:"seasonal_multiplier"`
	EventMultiplier    float64  `json:"event_multiplier"`
	Events             []string `json:"events"`
	SampleSize         int      `json:"sample_size"`
}

func (c *Client) MarketData(ctx context.Context, id property.ID, date time.Time) (pricing.MarketData, error) {
	var resp marketDataResponse
	if err := c.getJSON(ctx, "/v1/market/"+url.PathEscape(string(id)), dayQuery(date), &resp); err != nil {
		return pricing.MarketData{}, err
	}
	return pricing.MarketData{
		SeasonalMultiplier: resp.SeasonalMultiplier,
		EventMultiplier:    resp.EventMultiplier,
		Events:             resp.Events,
		SampleSize:         resp.SampleSize,
	}, nil
}

type competitorResponse struct {
	AveragePrice *float64 `json:"average_price"`
	Position     string   `json:"position"`
	SampleSize   int      `json:"sample_size"`
}

func (c *Client) CompetitorPricing(ctx context.Context, id property.ID, date time.Time) (pricing.CompetitorPricing, error) {
	var resp competitorResponse
	if err := c.getJSON(ctx, "/v1/competitors/"+url.PathEscape(string(id)), dayQuery(date), &resp); err != nil {
		return pricing.CompetitorPricing{}, err
	}
	return pricing.CompetitorPricing{AveragePrice: resp.AveragePrice, Position: resp.Position, SampleSize: resp.SampleSize}, nil
}

type demandResponse struct {
	Level    string  `json:"level"`
	Accuracy float64 `json:"accuracy"`
}

// DemandForecast treats an empty level as moderate.
func (c *Client) DemandForecast(ctx context.Context, id property.ID, date time.Time) (pricing.DemandForecast, error) {
	var resp demandResponse
	if err := c.getJSON(ctx, "/v1/demand/"+url.PathEscape(string(id)), dayQuery(date), &resp); err != nil {
		return pricing.DemandForecast{}, err
	}
	level := pricing.DemandLevel(strings.ToLower(strings.TrimSpace(resp.Level)))
	if level == "" {
		level = pricing.DemandModerate
	}
	return pricing.DemandForecast{Level: level, Accuracy: resp.Accuracy}, nil
}

type trendsResponse struct {
	AverageRate      float64 `json:"average_rate"`
	OccupancyRate    float64 `json:"occupancy_rate"`
	RevPAR           float64 `json:"rev_par"`
	Trend            string  `json:"trend_direction"`
	Seasonality      string  `json:"seasonality"`
	AverageRevenue   float64 `json:"average_revenue"`
	AverageOccupancy float64 `json:"average_occupancy"`
}

func (c *Client) MarketTrends(ctx context.Context, loc property.Location, tf insights.Timeframe) (insights.MarketTrends, error) {
	q := url.Values{}
	q.Set("city", loc.City)
	q.Set("country", loc.Country)
	q.Set("timeframe", string(tf))
	var resp trendsResponse
	if err := c.getJSON(ctx, "/v1/trends", q, &resp); err != nil {
		return insights.MarketTrends{}, err
	}
	return insights.MarketTrends(resp), nil
}

type analysisResponse struct {
	Count        int     `json:"total_competitors"`
	AveragePrice float64 `json:"average_price"`
	Ranking      int     `json:"your_ranking"`
	Position     string  `json:"price_position"`
}

func (c *Client) CompetitorAnalysis(ctx context.Context, id property.ID, tf insights.Timeframe) (insights.CompetitorAnalysis, error) {
	var resp analysisResponse
	if err := c.getJSON(ctx, "/v1/competitors/"+url.PathEscape(string(id))+"/analysis", timeframeQuery(tf), &resp); err != nil {
		return insights.CompetitorAnalysis{}, err
	}
	return insights.CompetitorAnalysis(resp), nil
}

type performanceResponse struct {
	Revenue              float64 `json:"revenue"`
	Bookings             int     `json:"bookings"`
	AverageStayLength    float64 `json:"average_stay_length"`
	GuestRating          float64 `json:"guest_rating"`
	ComparisonToPrevious float64 `json:"comparison_to_previous"`
	OccupancyRate        float64 `json:"occupancy_rate"`
}

func (c *Client) Performance(ctx context.Context, id property.ID, tf insights.Timeframe) (insights.Performance, error) {
	var resp performanceResponse
	if err := c.getJSON(ctx, "/v1/performance/"+url.PathEscape(string(id)), timeframeQuery(tf), &resp); err != nil {
		return insights.Performance{}, err
	}
	return insights.Performance(resp), nil
}

type forecastResponse struct {
	Revenue   float64 `json:"revenue"`
	Occupancy float64 `json:"occupancy"`
}

func (c *Client) Forecast(ctx context.Context, id property.ID, period revenue.Period, goals revenue.Goals) (revenue.Forecast, error) {
	q := url.Values{}
	q.Set("start", period.Start.UTC().Format(time.DateOnly))
	q.Set("end", period.End.UTC().Format(time.DateOnly))
	if goals.TargetOccupancy > 0 {
		q.Set("target_occupancy", formatFloat(goals.TargetOccupancy))
	}
	var resp forecastResponse
	if err := c.getJSON(ctx, "/v1/forecast/"+url.PathEscape(string(id)), q, &resp); err != nil {
		return revenue.Forecast{}, err
	}
	return revenue.Forecast(resp), nil
}

func dayQuery(date time.Time) url.Values {
	q := url.Values{}
	q.Set("date", date.UTC().Format(time.DateOnly))
	return q
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func timeframeQuery(tf insights.Timeframe) url.Values {
	q := url.Values{}
	q.Set("timeframe", string(tf))
	return q
}

var (
	_ pricing.MarketDataProvider          = (*Client)(nil)
	_ pricing.CompetitorProvider          = (*Client)(nil)
	_ pricing.DemandProvider              = (*Client)(nil)
	_ insights.MarketTrendsProvider       = (*Client)(nil)
	_ insights.CompetitorAnalysisProvider = (*Client)(nil)
	_ insights.PerformanceProvider        = (*Client)(nil)
	_ revenue.ProjectionSource            = (*Client)(nil)
)
