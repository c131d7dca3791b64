package ginserver

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"

	"ratepilot/internal/app/commands"
	"ratepilot/internal/app/dto"
	availabilityapp "ratepilot/internal/app/handlers/availability"
	"ratepilot/internal/app/handlers/support"
	"ratepilot/internal/app/queries"
	"ratepilot/internal/domain/availability"
	"ratepilot/internal/domain/property"
)

type AvailabilityHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type seasonalRuleRequest struct {
	Name    string `json:"name"`
	From    string `json:"from"`
	To      string `json:"to"`
	MinStay int    `json:"min_stay"`
	Closed  bool   `json:"closed"`
}

type maintenanceBlockRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Reason string `json:"reason"`
}

type rulesRequest struct {
	MinStay                  int                       `json:"min_stay"`
	MaxStay                  int                       `json:"max_stay"`
	CheckInDays              []int                     `json:"check_in_days"`
	CheckOutDays             []int                     `json:"check_out_days"`
	AdvanceBookingWindowDays int                       `json:"advance_booking_window_days"`
	LastMinuteWindowDays     int                       `json:"last_minute_window_days"`
	SeasonalRules            []seasonalRuleRequest     `json:"seasonal_rules"`
	MaintenanceBlocks        []maintenanceBlockRequest `json:"maintenance_blocks"`
	From                     string                    `json:"from"`
	To                       string                    `json:"to"`
}

func (r rulesRequest) toCommand(propertyID string) (availabilityapp.SetAvailabilityRulesCommand, error) {
	rule := availability.Rule{
		PropertyID:               property.ID(propertyID),
		MinStay:                  r.MinStay,
		MaxStay:                  r.MaxStay,
		CheckInDays:              r.CheckInDays,
		CheckOutDays:             r.CheckOutDays,
		AdvanceBookingWindowDays: r.AdvanceBookingWindowDays,
		LastMinuteWindowDays:     r.LastMinuteWindowDays,
	}
	for _, s := range r.SeasonalRules {
		from, to, err := dayPair(s.From, s.To)
		if err != nil {
			return availabilityapp.SetAvailabilityRulesCommand{}, err
		}
		rule.SeasonalRules = append(rule.SeasonalRules, availability.SeasonalRule{Name: s.Name, From: from, To: to, MinStay: s.MinStay, Closed: s.Closed})
	}
	for _, b := range r.MaintenanceBlocks {
		from, to, err := dayPair(b.From, b.To)
		if err != nil {
			return availabilityapp.SetAvailabilityRulesCommand{}, err
		}
		reason := availability.BlockReason(strings.ToUpper(strings.TrimSpace(b.Reason)))
		if reason == "" {
			reason = availability.ReasonMaintenance
		}
		rule.MaintenanceBlocks = append(rule.MaintenanceBlocks, availability.MaintenanceBlock{From: from, To: to, Reason: reason})
	}
	cmd := availabilityapp.SetAvailabilityRulesCommand{PropertyID: propertyID, Rule: rule}
	if r.From != "" || r.To != "" {
		from, to, err := dayPair(r.From, r.To)
		if err != nil {
			return availabilityapp.SetAvailabilityRulesCommand{}, err
		}
		cmd.From, cmd.To = from, to
	}
	return cmd, nil
}

func (h AvailabilityHandler) SetRules(c *gin.Context) {
	if h.Commands == nil {
		unavailable(c, errCommandsUnavailable)
		return
	}
	var req rulesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.Logger, err)
		return
	}
	cmd, err := req.toCommand(c.Param("id"))
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	cmd.IdempotencyKeyV = c.GetHeader("Idempotency-Key")
	result, err := commands.Dispatch[availabilityapp.SetAvailabilityRulesCommand, dto.AvailabilityResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// CheckStay serves GET /properties/:id/availability/check?check_in=&check_out=.
func (h AvailabilityHandler) CheckStay(c *gin.Context) {
	if h.Queries == nil {
		unavailable(c, errQueriesUnavailable)
		return
	}
	checkIn, checkOut, err := dayPair(c.Query("check_in"), c.Query("check_out"))
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	query := availabilityapp.CheckStayQuery{PropertyID: c.Param("id"), CheckIn: checkIn, CheckOut: checkOut}
	result, err := queries.Ask[availabilityapp.CheckStayQuery, availabilityapp.StayCheck](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func dayPair(rawFrom, rawTo string) (time.Time, time.Time, error) {
	from, err := support.Date(rawFrom)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := support.Date(rawTo)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}

var _ AvailabilityHTTP = AvailabilityHandler{}
