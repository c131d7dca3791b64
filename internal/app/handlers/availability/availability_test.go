package availability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ratepilot/internal/app/outbox"
	domainavailability "ratepilot/internal/domain/availability"
	"ratepilot/internal/domain/calendar"
	"ratepilot/internal/domain/property"
	"ratepilot/internal/domain/shared/errs"
)

var now = time.Date(2026, 11, 1, 8, 0, 0, 0, time.UTC)

func nov(d int) time.Time { return time.Date(2026, 11, d, 0, 0, 0, 0, time.UTC) }

type properties struct{}

func (properties) ByID(_ context.Context, id property.ID) (*property.Property, error) {
	if id != "p1" {
		return nil, property.ErrNotFound
	}
	return &property.Property{ID: id}, nil
}

type ruleStore struct{ rules map[property.ID]domainavailability.Rule }

func (s *ruleStore) Save(_ context.Context, r domainavailability.Rule) error {
	if s.rules == nil {
		s.rules = map[property.ID]domainavailability.Rule{}
	}
	s.rules[r.PropertyID] = r
	return nil
}

func (s *ruleStore) Active(_ context.Context, id property.ID) (domainavailability.Rule, error) {
	r, ok := s.rules[id]
	if !ok {
		return domainavailability.Rule{}, domainavailability.ErrRuleNotFound
	}
	return r, nil
}

type masterStore struct{ entries []calendar.Entry }

func (s *masterStore) Entries(context.Context, property.ID, string) ([]calendar.Entry, error) {
	return s.entries, nil
}

func (s *masterStore) Replace(_ context.Context, _ property.ID, _ string, entries []calendar.Entry) error {
	s.entries = entries
	return nil
}

type box struct{ records []outbox.EventRecord }

func (b *box) Add(_ context.Context, r outbox.EventRecord) error {
	b.records = append(b.records, r)
	return nil
}
func (b *box) Flush(context.Context) error { return nil }

func TestSetAvailabilityRules(t *testing.T) {
	rules := &ruleStore{}
	cal := &masterStore{entries: []calendar.Entry{
		{Date: nov(3), Status: calendar.StatusBooked},
		{Date: nov(8), Status: calendar.StatusBlocked},
	}}
	events := &box{}
	h := &SetAvailabilityRulesHandler{
		Properties: properties{},
		Rules:      rules,
		Calendars:  cal,
		Outbox:     events,
		Now:        func() time.Time { return now },
		NewID:      func() string { return "rule-1" },
	}

	res, err := h.Handle(context.Background(), SetAvailabilityRulesCommand{
		PropertyID: "p1",
		Rule: domainavailability.Rule{
			MinStay: 2,
			MaintenanceBlocks: []domainavailability.MaintenanceBlock{
				{From: nov(3), To: nov(4), Reason: domainavailability.ReasonMaintenance},
			},
		},
		From: nov(1),
		To:   nov(10),
	})
	require.NoError(t, err)

	assert.Equal(t, "rule-1", res.RuleID)
	assert.Equal(t, "applied", res.Status)
	assert.Equal(t, []string{"2026-11-04", "2026-11-08"}, res.AffectedDates)

	saved := rules.rules["p1"]
	assert.Equal(t, domainavailability.StatusActive, saved.Status)
	assert.Equal(t, now, saved.LastApplied)

	byDay := map[string]calendar.Status{}
	for _, e := range cal.entries {
		byDay[e.Start().Format(time.DateOnly)] = e.Status
	}
	assert.Equal(t, calendar.StatusBooked, byDay["2026-11-03"])
	assert.Equal(t, calendar.StatusBlocked, byDay["2026-11-04"])
	assert.Equal(t, calendar.StatusAvailable, byDay["2026-11-08"])

	require.Len(t, events.records, 1)
	assert.Equal(t, "availability.rules_applied", events.records[0].Name)
}

func TestSetAvailabilityRulesRejectsInvalid(t *testing.T) {
	rules, cal := &ruleStore{}, &masterStore{}
	h := &SetAvailabilityRulesHandler{Properties: properties{}, Rules: rules, Calendars: cal, Now: func() time.Time { return now }}

	_, err := h.Handle(context.Background(), SetAvailabilityRulesCommand{PropertyID: "p1", Rule: domainavailability.Rule{MinStay: 5, MaxStay: 2}})
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
	assert.Empty(t, rules.rules)

	_, err = h.Handle(context.Background(), SetAvailabilityRulesCommand{PropertyID: "p1", From: nov(9), To: nov(2)})
	assert.Error(t, err)
	assert.Empty(t, rules.rules)

	_, err = h.Handle(context.Background(), SetAvailabilityRulesCommand{PropertyID: "ghost"})
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestCheckStay(t *testing.T) {
	rules := &ruleStore{}
	require.NoError(t, rules.Save(context.Background(), domainavailability.Rule{PropertyID: "p1", MinStay: 3}))
	cal := &masterStore{entries: []calendar.Entry{{Date: nov(12), Status: calendar.StatusBooked}}}
	h := &CheckStayHandler{Properties: properties{}, Rules: rules, Calendars: cal}

	ok, err := h.Handle(context.Background(), CheckStayQuery{PropertyID: "p1", CheckIn: nov(5), CheckOut: nov(9)})
	require.NoError(t, err)
	assert.True(t, ok.Allowed)

	short, err := h.Handle(context.Background(), CheckStayQuery{PropertyID: "p1", CheckIn: nov(11), CheckOut: nov(13)})
	require.NoError(t, err)
	assert.False(t, short.Allowed)
	assert.Len(t, short.Reasons, 2)

	_, err = h.Handle(context.Background(), CheckStayQuery{PropertyID: "p1", CheckIn: nov(9), CheckOut: nov(9)})
	assert.ErrorIs(t, err, errs.ErrInvalidDate)
}

func TestCheckStayWithoutRule(t *testing.T) {
	h := &CheckStayHandler{Properties: properties{}, Rules: &ruleStore{}, Calendars: &masterStore{}}
	res, err := h.Handle(context.Background(), CheckStayQuery{PropertyID: "p1", CheckIn: nov(1), CheckOut: nov(2)})
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}
