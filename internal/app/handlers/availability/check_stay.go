package availability

import (
	"context"
	"errors"
	"time"

	"ratepilot/internal/app/handlers/support"
	"ratepilot/internal/app/queries"
	domainavailability "ratepilot/internal/domain/availability"
	"ratepilot/internal/domain/calendar"
	"ratepilot/internal/domain/property"
	"ratepilot/internal/domain/shared/daterange"
)

const checkStayKey = "availability.stay.check"

type CheckStayQuery struct {
	PropertyID string
	CheckIn    time.Time
	CheckOut   time.Time
}

func (q CheckStayQuery) Key() string { return checkStayKey }

type StayCheck struct {
	PropertyID string   `json:"property_id"`
	CheckIn    string   `json:"check_in"`
	CheckOut   string   `json:"check_out"`
	Allowed    bool     `json:"allowed"`
	Reasons    []string `json:"reasons,omitempty"`
}

// CheckStayHandler answers whether a stay fits the active rule and the
// master calendar. Rule violations are reported, not returned as errors.
type CheckStayHandler struct {
	Properties property.Reader
	Rules      domainavailability.RuleStore
	Calendars  calendar.Store
}

func (h *CheckStayHandler) Handle(ctx context.Context, q CheckStayQuery) (StayCheck, error) {
	if h.Rules == nil || h.Calendars == nil {
		return StayCheck{}, ErrStoresRequired
	}
	prop, err := support.LoadProperty(ctx, h.Properties, q.PropertyID)
	if err != nil {
		return StayCheck{}, err
	}
	stay, err := daterange.New(daterange.Truncate(q.CheckIn), daterange.Truncate(q.CheckOut))
	if err != nil {
		return StayCheck{}, domainavailability.ErrInvalidStay
	}
	out := StayCheck{
		PropertyID: string(prop.ID),
		CheckIn:    stay.CheckIn.Format(time.DateOnly),
		CheckOut:   stay.CheckOut.Format(time.DateOnly),
	}

	rule, err := h.Rules.Active(ctx, prop.ID)
	switch {
	case err == nil:
		if vErr := rule.ValidateStay(stay.CheckIn, stay.CheckOut); vErr != nil {
			out.Reasons = append(out.Reasons, vErr.Error())
		}
	case !errors.Is(err, domainavailability.ErrRuleNotFound):
		return StayCheck{}, err
	}

	entries, err := h.Calendars.Entries(ctx, prop.ID, calendar.MasterPlatform)
	if err != nil {
		return StayCheck{}, err
	}
	cal := calendar.Calendar{PropertyID: prop.ID, Platform: calendar.MasterPlatform, Entries: entries}
	for d := stay.CheckIn; d.Before(stay.CheckOut); d = d.AddDate(0, 0, 1) {
		if status := cal.StatusOn(d); status != calendar.StatusAvailable {
			out.Reasons = append(out.Reasons, d.Format(time.DateOnly)+" is "+string(status))
		}
	}
	out.Allowed = len(out.Reasons) == 0
	return out, nil
}

var _ queries.Handler[CheckStayQuery, StayCheck] = (*CheckStayHandler)(nil)
