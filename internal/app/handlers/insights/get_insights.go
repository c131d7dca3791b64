package insights

import (
	"context"
	"errors"
	"strings"

	"ratepilot/internal/app/dto"
	"ratepilot/internal/app/queries"
	domaininsights "ratepilot/internal/domain/insights"
	"ratepilot/internal/domain/property"
)

const getInsightsKey = "insights.get"

var ErrServiceRequired = errors.New("insights: service required")

type GetInsightsQuery struct {
	PropertyID string
	Timeframe  string
}

func (q GetInsightsQuery) Key() string { return getInsightsKey }

func (q GetInsightsQuery) Validate() error {
	_, err := domaininsights.ParseTimeframe(q.Timeframe)
	return err
}

type Service interface {
	Insights(ctx context.Context, id property.ID, tf domaininsights.Timeframe) (domaininsights.Report, error)
}

type GetInsightsHandler struct {
	Service Service
}

func (h *GetInsightsHandler) Handle(ctx context.Context, q GetInsightsQuery) (dto.MarketInsights, error) {
	if h.Service == nil {
		return dto.MarketInsights{}, ErrServiceRequired
	}
	tf, err := domaininsights.ParseTimeframe(q.Timeframe)
	if err != nil {
		return dto.MarketInsights{}, err
	}
	id := strings.TrimSpace(q.PropertyID)
	if id == "" {
		return dto.MarketInsights{}, property.ErrNotFound
	}
	report, err := h.Service.Insights(ctx, property.ID(id), tf)
	if err != nil {
		return dto.MarketInsights{}, err
	}
	return dto.NewMarketInsights(report), nil
}

var _ queries.Handler[GetInsightsQuery, dto.MarketInsights] = (*GetInsightsHandler)(nil)
