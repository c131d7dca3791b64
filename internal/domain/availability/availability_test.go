package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ratepilot/internal/domain/calendar"
	"ratepilot/internal/domain/shared/errs"
)

// 2026-11-02 is a Monday.
func nov(d int) time.Time {
	return time.Date(2026, 11, d, 0, 0, 0, 0, time.UTC)
}

func TestRuleValidate(t *testing.T) {
	require.NoError(t, Rule{MinStay: 2, MaxStay: 14, CheckInDays: []int{5, 6}}.Validate())

	tests := []struct {
		name string
		rule Rule
	}{
		{name: "negative min stay", rule: Rule{MinStay: -1}},
		{name: "min above max", rule: Rule{MinStay: 10, MaxStay: 3}},
		{name: "weekday out of range", rule: Rule{CheckOutDays: []int{7}}},
		{name: "inverted season", rule: Rule{SeasonalRules: []SeasonalRule{{From: nov(10), To: nov(1)}}}},
		{name: "inverted maintenance", rule: Rule{MaintenanceBlocks: []MaintenanceBlock{{From: nov(10), To: nov(9)}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rule.Validate()
			assert.ErrorIs(t, err, ErrInvalidRule)
			assert.ErrorIs(t, err, errs.ErrInvalidInput)
		})
	}
}

func TestValidateStay(t *testing.T) {
	rule := Rule{
		MinStay:      2,
		MaxStay:      7,
		CheckInDays:  []int{int(time.Friday), int(time.Saturday)},
		CheckOutDays: []int{int(time.Sunday), int(time.Monday)},
		SeasonalRules: []SeasonalRule{
			{Name: "festive", From: nov(20), To: nov(30), MinStay: 3},
		},
	}

	assert.NoError(t, rule.ValidateStay(nov(6), nov(8)))
	assert.ErrorIs(t, rule.ValidateStay(nov(7), nov(8)), ErrStayTooShort)
	assert.ErrorIs(t, rule.ValidateStay(nov(6), nov(16)), ErrStayTooLong)
	assert.ErrorIs(t, rule.ValidateStay(nov(5), nov(8)), ErrCheckInDay)
	assert.ErrorIs(t, rule.ValidateStay(nov(6), nov(10)), ErrCheckOutDay)
	assert.ErrorIs(t, rule.ValidateStay(nov(20), nov(22)), ErrStayTooShort)
	assert.NoError(t, rule.ValidateStay(nov(20), nov(23)))
	assert.ErrorIs(t, rule.ValidateStay(nov(8), nov(8)), ErrInvalidStay)
}

func TestApplyBlocksAndPreservesBookings(t *testing.T) {
	now := nov(1).Add(10 * time.Hour)
	rule := Rule{
		LastMinuteWindowDays:     2,
		AdvanceBookingWindowDays: 8,
		MaintenanceBlocks:        []MaintenanceBlock{{From: nov(4), To: nov(5), Reason: ReasonMaintenance}},
		SeasonalRules:            []SeasonalRule{{From: nov(7), To: nov(7), Closed: true}},
	}
	entries := []calendar.Entry{
		{Date: nov(1), Status: calendar.StatusBooked},
		{Date: nov(5), Status: calendar.StatusBooked},
		{Date: nov(6), Status: calendar.StatusBlocked},
		{Date: nov(20), Status: calendar.StatusBooked},
	}

	res, err := Apply(rule, entries, Window{From: nov(1), To: nov(10)}, now)
	require.NoError(t, err)

	// nov 1 booked, nov 2 last minute, nov 4 maintenance, nov 5 booked,
	// nov 6 blocked -> available, nov 7 closed, nov 10 past the window.
	assert.Equal(t, []time.Time{nov(2), nov(4), nov(6), nov(7), nov(10)}, res.Changed)

	statuses := map[time.Time]calendar.Status{}
	for _, e := range res.Entries {
		statuses[e.Start()] = e.Status
	}
	assert.Equal(t, calendar.StatusBooked, statuses[nov(1)])
	assert.Equal(t, calendar.StatusBlocked, statuses[nov(2)])
	assert.Equal(t, calendar.StatusBooked, statuses[nov(5)])
	assert.Equal(t, calendar.StatusAvailable, statuses[nov(6)])
	assert.Equal(t, calendar.StatusBooked, statuses[nov(20)])
	_, present := statuses[nov(3)]
	assert.False(t, present, "implicitly available days stay implicit")
}

func TestApplySplitsEntriesCrossingWindow(t *testing.T) {
	entries := []calendar.Entry{
		{Date: nov(1), EndDate: nov(10), Status: calendar.StatusBlocked},
	}

	res, err := Apply(Rule{}, entries, Window{From: nov(4), To: nov(5)}, nov(1))
	require.NoError(t, err)
	assert.Equal(t, []time.Time{nov(4), nov(5)}, res.Changed)
	assert.Equal(t, []calendar.Entry{
		{Date: nov(1), EndDate: nov(3), Status: calendar.StatusBlocked},
		{Date: nov(4), Status: calendar.StatusAvailable},
		{Date: nov(5), Status: calendar.StatusAvailable},
		{Date: nov(6), EndDate: nov(10), Status: calendar.StatusBlocked},
	}, res.Entries)
}

func TestApplyNoChanges(t *testing.T) {
	res, err := Apply(Rule{}, nil, DefaultWindow(nov(1)), nov(1))
	require.NoError(t, err)
	assert.Empty(t, res.Changed)
	assert.Empty(t, res.Entries)

	_, err = Apply(Rule{}, nil, Window{From: nov(5), To: nov(1)}, nov(1))
	assert.ErrorIs(t, err, errs.ErrInvalidDate)
}

func TestWindowIsBounded(t *testing.T) {
	require.NoError(t, DefaultWindow(nov(1)).Validate())

	_, err := Apply(Rule{MinStay: 2}, nil, Window{From: nov(1), To: nov(1).AddDate(300, 0, 0)}, nov(1))
	assert.ErrorIs(t, err, ErrWindowTooLong)
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}
