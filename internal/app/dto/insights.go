package dto

import (
	"time"

	"ratepilot/internal/domain/insights"
)

type MarketInsights struct {
	PropertyID      string                      `json:"property_id"`
	Timeframe       string                      `json:"timeframe"`
	Market          insights.MarketTrends       `json:"market"`
	Competition     insights.CompetitorAnalysis `json:"competition"`
	Performance     insights.Performance        `json:"performance"`
	Recommendations []string                    `json:"recommendations"`
	GeneratedAt     time.Time                   `json:"generated_at"`
}

func NewMarketInsights(r insights.Report) MarketInsights {
	return MarketInsights{
		PropertyID:      string(r.PropertyID),
		Timeframe:       string(r.Timeframe),
		Market:          r.Market,
		Competition:     r.Competition,
		Performance:     r.Performance,
		Recommendations: r.Recommendations,
		GeneratedAt:     r.GeneratedAt,
	}
}
