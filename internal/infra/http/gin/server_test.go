package ginserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	gin "github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ratepilot/internal/app/commands"
	"ratepilot/internal/app/dto"
	availabilityapp "ratepilot/internal/app/handlers/availability"
	calendarapp "ratepilot/internal/app/handlers/calendar"
	pricingapp "ratepilot/internal/app/handlers/pricing"
	revenueapp "ratepilot/internal/app/handlers/revenue"
	"ratepilot/internal/app/middleware"
	"ratepilot/internal/app/queries"
	"ratepilot/internal/domain/availability"
	"ratepilot/internal/domain/property"
	"ratepilot/internal/domain/shared/errs"
	"ratepilot/internal/infra/config"
	"ratepilot/internal/infra/obs"
)

type fakeCommands struct {
	got    commands.Command
	result any
	err    error
}

func (b *fakeCommands) Dispatch(_ context.Context, cmd commands.Command) (any, error) {
	b.got = cmd
	return b.result, b.err
}

type fakeQueries struct {
	got    queries.Query
	result any
	err    error
}

func (b *fakeQueries) Ask(_ context.Context, q queries.Query) (any, error) {
	b.got = q
	return b.result, b.err
}

func newTestRouter(cmds commands.Bus, qs queries.Bus) *gin.Engine {
	return NewRouter(config.Config{Env: "test"}, obs.Middleware{}, obs.HealthHandlers{}, Handlers{
		Pricing:      PricingHandler{Commands: cmds, Queries: qs},
		Revenue:      RevenueHandler{Commands: cmds},
		Calendar:     CalendarHandler{Commands: cmds, Queries: qs},
		Availability: AvailabilityHandler{Commands: cmds, Queries: qs},
		Insights:     InsightsHandler{Queries: qs},
	})
}

func do(r http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestQuoteParsesQuery(t *testing.T) {
	qs := &fakeQueries{result: dto.PriceQuote{PropertyID: "p1", OptimalPrice: 130}}
	r := newTestRouter(nil, qs)

	w := do(r, http.MethodGet, "/api/v1/properties/p1/quote?date=2026-11-03&aggressiveness=aggressive&min=80&max=300&multiplier=1.2", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"optimal_price":130`)

	q := qs.got.(pricingapp.GetQuoteQuery)
	assert.Equal(t, "p1", q.PropertyID)
	assert.Equal(t, "2026-11-03", q.Date.Format("2006-01-02"))
	assert.Equal(t, int64(80), q.MinPrice)
	assert.Equal(t, int64(300), q.MaxPrice)
	assert.Equal(t, "aggressive", q.Aggressiveness)
	assert.InDelta(t, 1.2, q.CustomMultiplier, 1e-9)
}

func TestQuoteRejectsBadInput(t *testing.T) {
	r := newTestRouter(nil, &fakeQueries{})

	w := do(r, http.MethodGet, "/api/v1/properties/p1/quote?date=tomorrow", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodGet, "/api/v1/properties/p1/quote?date=2026-11-03&min=cheap", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "min must be an integer")
}

func TestQuoteBaseOverride(t *testing.T) {
	fake := &fakeQueries{result: dto.PriceQuote{PropertyID: "p1"}}
	r := newTestRouter(nil, middleware.ChainQueries(fake, middleware.QueryValidation()))

	w := do(r, http.MethodGet, "/api/v1/properties/p1/quote?date=2026-11-03", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, fake.got.(pricingapp.GetQuoteQuery).BasePrice)

	w = do(r, http.MethodGet, "/api/v1/properties/p1/quote?date=2026-11-03&base=150", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	base := fake.got.(pricingapp.GetQuoteQuery).BasePrice
	require.NotNil(t, base)
	assert.Equal(t, int64(150), *base)

	for _, raw := range []string{"0", "-20"} {
		fake.got = nil
		w = do(r, http.MethodGet, "/api/v1/properties/p1/quote?date=2026-11-03&base="+raw, "", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, raw)
		assert.Contains(t, w.Body.String(), "base price must be positive")
		assert.Nil(t, fake.got)
	}
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{property.ErrNotFound, http.StatusNotFound},
		{availability.ErrStayTooShort, http.StatusBadRequest},
		{errs.ErrInvalidDate, http.StatusBadRequest},
		{errs.Unavailable("market_data", errors.New("down")), http.StatusServiceUnavailable},
		{middleware.ErrKeyReused, http.StatusConflict},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		r := newTestRouter(nil, &fakeQueries{err: tc.err})
		w := do(r, http.MethodGet, "/api/v1/properties/p1/insights", "", nil)
		assert.Equal(t, tc.want, w.Code, tc.err.Error())
	}

	r := newTestRouter(nil, &fakeQueries{err: errors.New("disk on fire")})
	w := do(r, http.MethodGet, "/api/v1/properties/p1/insights", "", nil)
	assert.NotContains(t, w.Body.String(), "disk")
}

func TestSyncPassesIdempotencyKey(t *testing.T) {
	cmds := &fakeCommands{result: dto.SyncResult{PropertyID: "p1", TotalPlatforms: 2, SuccessfulSyncs: 2}}
	r := newTestRouter(cmds, nil)

	w := do(r, http.MethodPost, "/api/v1/properties/p1/calendar/sync", `{"platforms":["airbnb","vrbo"]}`, map[string]string{"Idempotency-Key": "k-1"})
	require.Equal(t, http.StatusOK, w.Code)
	cmd := cmds.got.(calendarapp.SyncCalendarsCommand)
	assert.Equal(t, []string{"airbnb", "vrbo"}, cmd.Platforms)
	assert.Equal(t, "k-1", cmd.IdempotencyKey())

	w = do(r, http.MethodPost, "/api/v1/properties/p1/calendar/sync", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, cmds.got.(calendarapp.SyncCalendarsCommand).Platforms)
}

func TestCalendarQuery(t *testing.T) {
	qs := &fakeQueries{result: dto.Calendar{PropertyID: "p1", Platform: "airbnb"}}
	r := newTestRouter(nil, qs)
	w := do(r, http.MethodGet, "/api/v1/properties/p1/calendar?platform=airbnb", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "airbnb", qs.got.(calendarapp.GetCalendarQuery).Platform)
}

func TestOptimizeParsesPeriod(t *testing.T) {
	cmds := &fakeCommands{result: dto.RevenueReport{PropertyID: "p1"}}
	r := newTestRouter(cmds, nil)

	w := do(r, http.MethodPost, "/api/v1/properties/p1/optimize", `{"start":"2026-11-01","end":"2026-11-07","goals":{"target_occupancy":0.8}}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	cmd := cmds.got.(revenueapp.OptimizeRevenueCommand)
	assert.Equal(t, 1, cmd.Start.Day())
	assert.Equal(t, 7, cmd.End.Day())
	assert.InDelta(t, 0.8, cmd.Goals.TargetOccupancy, 1e-9)

	w = do(r, http.MethodPost, "/api/v1/properties/p1/optimize", `{"start":"soon","end":"2026-11-07"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSetRulesBuildsRule(t *testing.T) {
	cmds := &fakeCommands{result: dto.AvailabilityResult{Status: "applied"}}
	r := newTestRouter(cmds, nil)

	body := `{"min_stay":2,"max_stay":14,"check_in_days":[5,6],
		"seasonal_rules":[{"name":"summer","from":"2026-07-01","to":"2026-08-31","min_stay":5}],
		"maintenance_blocks":[{"from":"2026-11-10","to":"2026-11-12"}],
		"from":"2026-11-01","to":"2026-12-31"}`
	w := do(r, http.MethodPut, "/api/v1/properties/p1/availability-rules", body, map[string]string{"Idempotency-Key": "rules-1"})
	require.Equal(t, http.StatusOK, w.Code)

	cmd := cmds.got.(availabilityapp.SetAvailabilityRulesCommand)
	assert.Equal(t, property.ID("p1"), cmd.Rule.PropertyID)
	assert.Equal(t, 2, cmd.Rule.MinStay)
	require.Len(t, cmd.Rule.SeasonalRules, 1)
	assert.Equal(t, 5, cmd.Rule.SeasonalRules[0].MinStay)
	require.Len(t, cmd.Rule.MaintenanceBlocks, 1)
	assert.Equal(t, availability.ReasonMaintenance, cmd.Rule.MaintenanceBlocks[0].Reason)
	assert.Equal(t, 31, cmd.To.Day())
	assert.Equal(t, "rules-1", cmd.IdempotencyKey())

	w = do(r, http.MethodPut, "/api/v1/properties/p1/availability-rules", `{"seasonal_rules":[{"from":"x","to":"2026-08-31"}]}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckStay(t *testing.T) {
	qs := &fakeQueries{result: availabilityapp.StayCheck{PropertyID: "p1", Allowed: true}}
	r := newTestRouter(nil, qs)
	w := do(r, http.MethodGet, "/api/v1/properties/p1/availability/check?check_in=2026-11-06&check_out=2026-11-09", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"allowed":true`)

	w = do(r, http.MethodGet, "/api/v1/properties/p1/availability/check?check_in=2026-11-06", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateStrategy(t *testing.T) {
	cmds := &fakeCommands{result: dto.PricingStrategyResult{StrategyID: "s1", Status: "active"}}
	r := newTestRouter(cmds, nil)
	w := do(r, http.MethodPut, "/api/v1/properties/p1/pricing-strategy", `{"type":"moderate","schedule":"weekly","horizon_days":7}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	cmd := cmds.got.(pricingapp.UpdatePricingStrategyCommand)
	assert.Equal(t, "weekly", cmd.Schedule)
	assert.Equal(t, 7, cmd.HorizonDays)

	w = do(r, http.MethodPut, "/api/v1/properties/p1/pricing-strategy", `{"type":`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMissingBusesAndOps(t *testing.T) {
	r := newTestRouter(nil, nil)
	w := do(r, http.MethodGet, "/api/v1/properties/p1/insights", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = do(r, http.MethodGet, "/livez", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
