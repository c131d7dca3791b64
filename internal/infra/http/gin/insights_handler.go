package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"ratepilot/internal/app/dto"
	insightsapp "ratepilot/internal/app/handlers/insights"
	"ratepilot/internal/app/queries"
)

type InsightsHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

func (h InsightsHandler) Insights(c *gin.Context) {
	if h.Queries == nil {
		unavailable(c, errQueriesUnavailable)
		return
	}
	query := insightsapp.GetInsightsQuery{PropertyID: c.Param("id"), Timeframe: c.Query("timeframe")}
	result, err := queries.Ask[insightsapp.GetInsightsQuery, dto.MarketInsights](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ InsightsHTTP = InsightsHandler{}
