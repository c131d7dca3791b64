package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"ratepilot/internal/app/commands"
	"ratepilot/internal/app/dto"
	revenueapp "ratepilot/internal/app/handlers/revenue"
	"ratepilot/internal/app/handlers/support"
	"ratepilot/internal/domain/revenue"
)

type RevenueHandler struct {
	Commands commands.Bus
	Logger   *slog.Logger
}

type optimizeRequest struct {
	Start string        `json:"start"`
	End   string        `json:"end"`
	Goals revenue.Goals `json:"goals"`
}

func (h RevenueHandler) Optimize(c *gin.Context) {
	if h.Commands == nil {
		unavailable(c, errCommandsUnavailable)
		return
	}
	var req optimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.Logger, err)
		return
	}
	start, err := support.Date(req.Start)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	end, err := support.Date(req.End)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	cmd := revenueapp.OptimizeRevenueCommand{PropertyID: c.Param("id"), Start: start, End: end, Goals: req.Goals}
	result, err := commands.Dispatch[revenueapp.OptimizeRevenueCommand, dto.RevenueReport](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ RevenueHTTP = RevenueHandler{}
