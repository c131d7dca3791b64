package pricing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ratepilot/internal/app/outbox"
	domainpricing "ratepilot/internal/domain/pricing"
	"ratepilot/internal/domain/property"
	"ratepilot/internal/domain/shared/errs"
)

var testNow = time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

type propertyMap map[property.ID]*property.Property

func (m propertyMap) ByID(_ context.Context, id property.ID) (*property.Property, error) {
	p, ok := m[id]
	if !ok {
		return nil, property.ErrNotFound
	}
	return p, nil
}

func testProperties() propertyMap {
	return propertyMap{
		"p1": {ID: "p1", Location: property.Location{City: "Lisbon", Country: "PT"}, AverageRate: 120, Platforms: []string{"airbnb", "booking"}},
	}
}

// priceByDay quotes base+day-of-month, or fails with err.
type priceByDay struct {
	mu    sync.Mutex
	err   error
	calls []domainpricing.QuoteRequest
}

func (q *priceByDay) Quote(_ context.Context, req domainpricing.QuoteRequest) (domainpricing.PriceQuote, error) {
	q.mu.Lock()
	q.calls = append(q.calls, req)
	q.mu.Unlock()
	if q.err != nil {
		return domainpricing.PriceQuote{}, q.err
	}
	price := int64(100 + req.Date.Day())
	return domainpricing.PriceQuote{
		PropertyID:   req.PropertyID,
		Date:         req.Date,
		OptimalPrice: req.Bounds.Clamp(price),
		BasePrice:    100,
		Multiplier:   1.23456,
		Aggression:   req.Aggressiveness,
		Confidence:   65,
		ComputedAt:   testNow,
	}, nil
}

type memCache struct {
	quotes map[string]domainpricing.PriceQuote
	puts   int
}

func (c *memCache) key(id property.ID, d time.Time) string { return string(id) + d.Format(time.DateOnly) }

func (c *memCache) Get(_ context.Context, id property.ID, d time.Time) (domainpricing.PriceQuote, bool, error) {
	q, ok := c.quotes[c.key(id, d)]
	return q, ok, nil
}

func (c *memCache) Put(_ context.Context, q domainpricing.PriceQuote) error {
	if c.quotes == nil {
		c.quotes = map[string]domainpricing.PriceQuote{}
	}
	c.puts++
	c.quotes[c.key(q.PropertyID, q.Date)] = q
	return nil
}

type cityBounds map[string]domainpricing.Bounds

func (b cityBounds) Defaults(loc property.Location) domainpricing.Bounds { return b[loc.City] }

type recordingOutbox struct{ records []outbox.EventRecord }

func (o *recordingOutbox) Add(_ context.Context, r outbox.EventRecord) error {
	o.records = append(o.records, r)
	return nil
}
func (o *recordingOutbox) Flush(context.Context) error { return nil }

func (o *recordingOutbox) names() []string {
	out := make([]string, 0, len(o.records))
	for _, r := range o.records {
		out = append(out, r.Name)
	}
	return out
}

type memStrategies struct {
	saved map[property.ID]domainpricing.Strategy
}

func (m *memStrategies) Save(_ context.Context, s domainpricing.Strategy) error {
	if m.saved == nil {
		m.saved = map[property.ID]domainpricing.Strategy{}
	}
	m.saved[s.PropertyID] = s
	return nil
}

func (m *memStrategies) ByProperty(_ context.Context, id property.ID) (domainpricing.Strategy, error) {
	s, ok := m.saved[id]
	if !ok {
		return domainpricing.Strategy{}, domainpricing.ErrStrategyNotFound
	}
	return s, nil
}

func (m *memStrategies) Active(context.Context) ([]domainpricing.Strategy, error) {
	out := make([]domainpricing.Strategy, 0, len(m.saved))
	for _, s := range m.saved {
		out = append(out, s)
	}
	return out, nil
}

type recordingPublisher struct {
	platforms []string
	rates     int
	err       error
}

func (p *recordingPublisher) PublishRates(_ context.Context, _ property.ID, platforms []string, rates []domainpricing.DailyRate) error {
	if p.err != nil {
		return p.err
	}
	p.platforms = platforms
	p.rates += len(rates)
	return nil
}

func TestGetQuoteAppliesPolicyBounds(t *testing.T) {
	engine := &priceByDay{}
	cache := &memCache{}
	h := &GetQuoteHandler{
		Engine:     engine,
		Properties: testProperties(),
		Bounds:     cityBounds{"Lisbon": {MinPrice: 50, MaxPrice: 110}},
		Cache:      cache,
	}

	res, err := h.Handle(context.Background(), GetQuoteQuery{PropertyID: "p1", Date: time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	assert.Equal(t, int64(110), res.OptimalPrice)
	assert.Equal(t, int64(110), res.Bounds.MaxPrice)
	assert.Equal(t, "1.2346", res.Multiplier.String())
	assert.False(t, res.Stale)
	assert.Equal(t, 1, cache.puts)
	require.Len(t, engine.calls, 1)
	assert.Equal(t, domainpricing.Moderate, engine.calls[0].Aggressiveness)
}

func TestGetQuoteExplicitBoundsWin(t *testing.T) {
	engine := &priceByDay{}
	h := &GetQuoteHandler{Engine: engine, Properties: testProperties(), Bounds: cityBounds{"Lisbon": {MaxPrice: 10}}}

	res, err := h.Handle(context.Background(), GetQuoteQuery{PropertyID: "p1", Date: testNow, MaxPrice: 500})
	require.NoError(t, err)
	assert.Equal(t, int64(101), res.OptimalPrice)
}

func TestGetQuoteFallsBackToCacheWhenProviderDown(t *testing.T) {
	day := time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC)
	cache := &memCache{}
	require.NoError(t, cache.Put(context.Background(), domainpricing.PriceQuote{PropertyID: "p1", Date: day, OptimalPrice: 150}))

	engine := &priceByDay{err: errs.Unavailable("market", errors.New("timeout"))}
	h := &GetQuoteHandler{Engine: engine, Cache: cache}

	res, err := h.Handle(context.Background(), GetQuoteQuery{PropertyID: "p1", Date: day})
	require.NoError(t, err)
	assert.True(t, res.Stale)
	assert.Equal(t, int64(150), res.OptimalPrice)

	_, err = h.Handle(context.Background(), GetQuoteQuery{PropertyID: "p1", Date: day.AddDate(0, 0, 1)})
	assert.ErrorIs(t, err, errs.ErrDataUnavailable)
}

func TestGetQuoteDoesNotMaskOtherErrors(t *testing.T) {
	cache := &memCache{}
	day := time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC)
	require.NoError(t, cache.Put(context.Background(), domainpricing.PriceQuote{PropertyID: "p1", Date: day}))
	h := &GetQuoteHandler{Engine: &priceByDay{err: property.ErrNotFound}, Cache: cache}

	_, err := h.Handle(context.Background(), GetQuoteQuery{PropertyID: "p1", Date: day})
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestGetQuoteQueryValidate(t *testing.T) {
	assert.ErrorIs(t, GetQuoteQuery{PropertyID: "p1"}.Validate(), errs.ErrInvalidDate)
	assert.ErrorIs(t, GetQuoteQuery{PropertyID: "p1", Date: testNow, Aggressiveness: "wild"}.Validate(), errs.ErrInvalidInput)
	assert.ErrorIs(t, GetQuoteQuery{PropertyID: "p1", Date: testNow, MinPrice: 300, MaxPrice: 200}.Validate(), errs.ErrInvalidInput)
	assert.NoError(t, GetQuoteQuery{PropertyID: "p1", Date: testNow, Aggressiveness: "aggressive"}.Validate())

	zero, override := int64(0), int64(240)
	assert.ErrorIs(t, GetQuoteQuery{PropertyID: "p1", Date: testNow, BasePrice: &zero}.Validate(), domainpricing.ErrNonPositiveBase)
	q := GetQuoteQuery{PropertyID: "p1", Date: testNow, BasePrice: &override}
	require.NoError(t, q.Validate())
	assert.Equal(t, int64(240), q.bounds().BasePrice)
}

func newStrategyHandler(engine *priceByDay, store *memStrategies, pub *recordingPublisher, box *recordingOutbox) *UpdatePricingStrategyHandler {
	return &UpdatePricingStrategyHandler{
		Properties: testProperties(),
		Strategies: store,
		Engine:     engine,
		Publisher:  pub,
		Outbox:     box,
		Now:        func() time.Time { return testNow },
		NewID:      func() string { return "strat-1" },
	}
}

func TestUpdatePricingStrategy(t *testing.T) {
	engine, store, pub, box := &priceByDay{}, &memStrategies{}, &recordingPublisher{}, &recordingOutbox{}
	h := newStrategyHandler(engine, store, pub, box)

	res, err := h.Handle(context.Background(), UpdatePricingStrategyCommand{
		PropertyID:  "p1",
		Type:        "Aggressive",
		HorizonDays: 7,
		Schedule:    "weekly",
	})
	require.NoError(t, err)

	assert.Equal(t, "strat-1", res.StrategyID)
	assert.Equal(t, domainpricing.StrategyActive, res.Status)
	assert.Equal(t, 7, res.InitialPricesApplied)
	require.NotNil(t, res.NextUpdate)
	assert.Equal(t, testNow.Add(7*24*time.Hour), *res.NextUpdate)
	assert.Equal(t, "2026-10-01", res.Rates[0].Date)
	assert.Equal(t, []string{"airbnb", "booking"}, pub.platforms)
	assert.Equal(t, 7, pub.rates)
	assert.Equal(t, domainpricing.Aggressive, store.saved["p1"].Type)
	assert.Equal(t, []string{"pricing.strategy_updated", "pricing.rates_published"}, box.names())
}

func TestUpdatePricingStrategyDefaultsToDailyAndHorizon(t *testing.T) {
	engine, store := &priceByDay{}, &memStrategies{}
	h := newStrategyHandler(engine, store, &recordingPublisher{}, &recordingOutbox{})

	res, err := h.Handle(context.Background(), UpdatePricingStrategyCommand{PropertyID: "p1", Type: "moderate", TargetPlatforms: []string{"vrbo"}})
	require.NoError(t, err)
	assert.Equal(t, domainpricing.DefaultHorizonDays, res.InitialPricesApplied)
	assert.Equal(t, testNow.Add(24*time.Hour), *res.NextUpdate)
	assert.Equal(t, domainpricing.ScheduleDaily, store.saved["p1"].Schedule)
}

func TestUpdatePricingStrategyFailuresSaveNothing(t *testing.T) {
	t.Run("invalid custom", func(t *testing.T) {
		store := &memStrategies{}
		h := newStrategyHandler(&priceByDay{}, store, &recordingPublisher{}, &recordingOutbox{})
		_, err := h.Handle(context.Background(), UpdatePricingStrategyCommand{PropertyID: "p1", Type: "custom"})
		assert.ErrorIs(t, err, errs.ErrInvalidInput)
		assert.Empty(t, store.saved)
	})
	t.Run("quote fails", func(t *testing.T) {
		store, box := &memStrategies{}, &recordingOutbox{}
		h := newStrategyHandler(&priceByDay{err: errs.Unavailable("demand", errors.New("down"))}, store, &recordingPublisher{}, box)
		_, err := h.Handle(context.Background(), UpdatePricingStrategyCommand{PropertyID: "p1", Type: "moderate"})
		assert.ErrorIs(t, err, errs.ErrDataUnavailable)
		assert.Empty(t, store.saved)
		assert.Empty(t, box.records)
	})
	t.Run("publish fails", func(t *testing.T) {
		store := &memStrategies{}
		h := newStrategyHandler(&priceByDay{}, store, &recordingPublisher{err: errors.New("channel manager down")}, &recordingOutbox{})
		_, err := h.Handle(context.Background(), UpdatePricingStrategyCommand{PropertyID: "p1", Type: "moderate"})
		assert.Error(t, err)
		assert.Empty(t, store.saved)
	})
	t.Run("unknown property", func(t *testing.T) {
		h := newStrategyHandler(&priceByDay{}, &memStrategies{}, &recordingPublisher{}, &recordingOutbox{})
		_, err := h.Handle(context.Background(), UpdatePricingStrategyCommand{PropertyID: "nope", Type: "moderate"})
		assert.ErrorIs(t, err, errs.ErrNotFound)
	})
}

func TestRunDueStrategies(t *testing.T) {
	store := &memStrategies{}
	require.NoError(t, store.Save(context.Background(), domainpricing.Strategy{
		ID: "due", PropertyID: "p1", Type: domainpricing.Moderate, Schedule: domainpricing.ScheduleDaily,
		Parameters: domainpricing.StrategyParameters{HorizonDays: 3},
		Status:     domainpricing.StrategyActive, NextRunAt: testNow.Add(-time.Minute),
	}))
	require.NoError(t, store.Save(context.Background(), domainpricing.Strategy{
		ID: "later", PropertyID: "p2", Type: domainpricing.Moderate, Schedule: domainpricing.ScheduleDaily,
		Status: domainpricing.StrategyActive, NextRunAt: testNow.Add(time.Hour),
	}))
	pub, box := &recordingPublisher{}, &recordingOutbox{}
	h := &RunDueStrategiesHandler{
		Properties: testProperties(),
		Strategies: store,
		Engine:     &priceByDay{},
		Publisher:  pub,
		Outbox:     box,
		Now:        func() time.Time { return testNow },
	}

	res, err := h.Handle(context.Background(), RunDueStrategiesCommand{})
	require.NoError(t, err)
	assert.Equal(t, RunDueStrategiesResult{Due: 1, Applied: 1}, res)
	assert.Equal(t, 3, pub.rates)
	assert.Equal(t, testNow.Add(24*time.Hour), store.saved["p1"].NextRunAt)
	assert.Equal(t, []string{"pricing.rates_published"}, box.names())
}

func TestRunDueStrategiesCountsFailures(t *testing.T) {
	store := &memStrategies{}
	require.NoError(t, store.Save(context.Background(), domainpricing.Strategy{
		ID: "ghost", PropertyID: "missing", Type: domainpricing.Moderate, Schedule: domainpricing.ScheduleWeekly,
		Status: domainpricing.StrategyActive, NextRunAt: testNow,
	}))
	h := &RunDueStrategiesHandler{Properties: testProperties(), Strategies: store, Engine: &priceByDay{}, Now: func() time.Time { return testNow }}

	res, err := h.Handle(context.Background(), RunDueStrategiesCommand{})
	require.NoError(t, err)
	assert.Equal(t, RunDueStrategiesResult{Due: 1, Failed: 1}, res)
	assert.Equal(t, testNow, store.saved["missing"].NextRunAt)
}
