package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"ratepilot/internal/app/commands"
	"ratepilot/internal/app/dto"
	pricingapp "ratepilot/internal/app/handlers/pricing"
	"ratepilot/internal/app/handlers/support"
	"ratepilot/internal/app/queries"
)

type PricingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

// Quote serves GET /properties/:id/quote?date=&aggressiveness=&min=&max=&base=&multiplier=.
func (h PricingHandler) Quote(c *gin.Context) {
	if h.Queries == nil {
		unavailable(c, errQueriesUnavailable)
		return
	}
	date, err := support.Date(c.Query("date"))
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	query := pricingapp.GetQuoteQuery{
		PropertyID:     c.Param("id"),
		Date:           date,
		Aggressiveness: c.Query("aggressiveness"),
	}
	for key, dst := range map[string]*int64{"min": &query.MinPrice, "max": &query.MaxPrice} {
		if *dst, err = queryInt64(c, key); err != nil {
			badRequest(c, h.Logger, err)
			return
		}
	}
	if query.BasePrice, err = optionalQueryInt64(c, "base"); err != nil {
		badRequest(c, h.Logger, err)
		return
	}
	if query.CustomMultiplier, err = queryFloat(c, "multiplier"); err != nil {
		badRequest(c, h.Logger, err)
		return
	}
	result, err := queries.Ask[pricingapp.GetQuoteQuery, dto.PriceQuote](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type strategyRequest struct {
	Type            string   `json:"type"`
	Multiplier      float64  `json:"multiplier"`
	MinPrice        int64    `json:"min_price"`
	MaxPrice        int64    `json:"max_price"`
	HorizonDays     int      `json:"horizon_days"`
	Schedule        string   `json:"schedule"`
	TargetPlatforms []string `json:"target_platforms"`
}

func (h PricingHandler) UpdateStrategy(c *gin.Context) {
	if h.Commands == nil {
		unavailable(c, errCommandsUnavailable)
		return
	}
	var req strategyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.Logger, err)
		return
	}
	cmd := pricingapp.UpdatePricingStrategyCommand{
		PropertyID:      c.Param("id"),
		Type:            req.Type,
		Multiplier:      req.Multiplier,
		MinPrice:        req.MinPrice,
		MaxPrice:        req.MaxPrice,
		HorizonDays:     req.HorizonDays,
		Schedule:        req.Schedule,
		TargetPlatforms: req.TargetPlatforms,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[pricingapp.UpdatePricingStrategyCommand, dto.PricingStrategyResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ PricingHTTP = PricingHandler{}
