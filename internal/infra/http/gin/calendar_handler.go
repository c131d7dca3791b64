package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"ratepilot/internal/app/commands"
	"ratepilot/internal/app/dto"
	calendarapp "ratepilot/internal/app/handlers/calendar"
	"ratepilot/internal/app/queries"
)

type CalendarHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type syncRequest struct {
	Platforms []string `json:"platforms"`
}

// Sync accepts an empty body, which syncs every listed platform.
func (h CalendarHandler) Sync(c *gin.Context) {
	if h.Commands == nil {
		unavailable(c, errCommandsUnavailable)
		return
	}
	var req syncRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, h.Logger, err)
			return
		}
	}
	cmd := calendarapp.SyncCalendarsCommand{
		PropertyID:      c.Param("id"),
		Platforms:       req.Platforms,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[calendarapp.SyncCalendarsCommand, dto.SyncResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h CalendarHandler) Calendar(c *gin.Context) {
	if h.Queries == nil {
		unavailable(c, errQueriesUnavailable)
		return
	}
	query := calendarapp.GetCalendarQuery{PropertyID: c.Param("id"), Platform: c.Query("platform")}
	result, err := queries.Ask[calendarapp.GetCalendarQuery, dto.Calendar](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ CalendarHTTP = CalendarHandler{}
