package availability

import (
	"context"
	"fmt"
	"time"

	"ratepilot/internal/domain/property"
	"ratepilot/internal/domain/shared/daterange"
	"ratepilot/internal/domain/shared/errs"
)

var (
	ErrInvalidRule  = fmt.Errorf("availability: %w: invalid rule", errs.ErrInvalidInput)
	ErrRuleNotFound = fmt.Errorf("availability: rule %w", errs.ErrNotFound)
	ErrStayTooShort = fmt.Errorf("availability: %w: stay shorter than minimum", errs.ErrInvalidInput)
	ErrStayTooLong  = fmt.Errorf("availability: %w: stay longer than maximum", errs.ErrInvalidInput)
	ErrCheckInDay   = fmt.Errorf("availability: %w: check-in not allowed on this weekday", errs.ErrInvalidInput)
	ErrCheckOutDay  = fmt.Errorf("availability: %w: check-out not allowed on this weekday", errs.ErrInvalidInput)
	ErrInvalidStay  = fmt.Errorf("availability: %w: check-out must be after check-in", errs.ErrInvalidDate)
)

type BlockReason string

const (
	ReasonMaintenance BlockReason = "MAINTENANCE"
	ReasonCleaning    BlockReason = "CLEANING"
	ReasonOwnerStay   BlockReason = "OWNER_STAY"
)

// SeasonalRule covers From..To inclusive. A positive MinStay overrides the
// rule-wide minimum for check-ins inside the season.
type SeasonalRule struct {
	Name    string    `json:"name,omitempty"`
	From    time.Time `json:"from"`
	To      time.Time `json:"to"`
	MinStay int       `json:"min_stay,omitempty"`
	Closed  bool      `json:"closed,omitempty"`
}

func (s SeasonalRule) Contains(day time.Time) bool {
	return within(day, s.From, s.To)
}

type MaintenanceBlock struct {
	From   time.Time   `json:"from"`
	To     time.Time   `json:"to"`
	Reason BlockReason `json:"reason,omitempty"`
}

func (b MaintenanceBlock) Contains(day time.Time) bool {
	return within(day, b.From, b.To)
}

// Rule is the availability policy of one property. Zero values disable the
// corresponding constraint.
type Rule struct {
	ID                       string             `json:"id"`
	PropertyID               property.ID        `json:"property_id"`
	MinStay                  int                `json:"min_stay,omitempty"`
	MaxStay                  int                `json:"max_stay,omitempty"`
	CheckInDays              []int              `json:"check_in_days,omitempty"`
	CheckOutDays             []int              `json:"check_out_days,omitempty"`
	AdvanceBookingWindowDays int                `json:"advance_booking_window_days,omitempty"`
	LastMinuteWindowDays     int                `json:"last_minute_window_days,omitempty"`
	SeasonalRules            []SeasonalRule     `json:"seasonal_rules,omitempty"`
	MaintenanceBlocks        []MaintenanceBlock `json:"maintenance_blocks,omitempty"`
	Status                   string             `json:"status"`
	CreatedAt                time.Time          `json:"created_at"`
	LastApplied              time.Time          `json:"last_applied,omitempty"`
}

const StatusActive = "active"

func (r Rule) Validate() error {
	if r.MinStay < 0 || r.MaxStay < 0 || r.AdvanceBookingWindowDays < 0 || r.LastMinuteWindowDays < 0 {
		return fmt.Errorf("%w: negative value", ErrInvalidRule)
	}
	if r.MinStay > 0 && r.MaxStay > 0 && r.MinStay > r.MaxStay {
		return fmt.Errorf("%w: min stay exceeds max stay", ErrInvalidRule)
	}
	for _, d := range append(append([]int(nil), r.CheckInDays...), r.CheckOutDays...) {
		if d < 0 || d > 6 {
			return fmt.Errorf("%w: weekday %d out of range", ErrInvalidRule, d)
		}
	}
	for _, s := range r.SeasonalRules {
		if s.From.IsZero() || s.To.IsZero() || daterange.Truncate(s.To).Before(daterange.Truncate(s.From)) {
			return fmt.Errorf("%w: seasonal rule %q has an inverted range", ErrInvalidRule, s.Name)
		}
		if s.MinStay < 0 {
			return fmt.Errorf("%w: seasonal rule %q has a negative min stay", ErrInvalidRule, s.Name)
		}
	}
	for _, b := range r.MaintenanceBlocks {
		if b.From.IsZero() || b.To.IsZero() || daterange.Truncate(b.To).Before(daterange.Truncate(b.From)) {
			return fmt.Errorf("%w: maintenance block has an inverted range", ErrInvalidRule)
		}
	}
	return nil
}

// MinStayOn returns the minimum stay for a check-in on day.
func (r Rule) MinStayOn(day time.Time) int {
	for _, s := range r.SeasonalRules {
		if s.MinStay > 0 && s.Contains(day) {
			return s.MinStay
		}
	}
	return r.MinStay
}

// ValidateStay checks the stay-level constraints for a booking.
func (r Rule) ValidateStay(checkIn, checkOut time.Time) error {
	stay, err := daterange.New(daterange.Truncate(checkIn), daterange.Truncate(checkOut))
	if err != nil {
		return ErrInvalidStay
	}
	nights := stay.Nights()
	if minStay := r.MinStayOn(stay.CheckIn); minStay > 0 && nights < minStay {
		return fmt.Errorf("%w: %d nights, minimum %d", ErrStayTooShort, nights, minStay)
	}
	if r.MaxStay > 0 && nights > r.MaxStay {
		return fmt.Errorf("%w: %d nights, maximum %d", ErrStayTooLong, nights, r.MaxStay)
	}
	if !allowedDay(r.CheckInDays, stay.CheckIn.Weekday()) {
		return fmt.Errorf("%w: %s", ErrCheckInDay, stay.CheckIn.Weekday())
	}
	if !allowedDay(r.CheckOutDays, stay.CheckOut.Weekday()) {
		return fmt.Errorf("%w: %s", ErrCheckOutDay, stay.CheckOut.Weekday())
	}
	return nil
}

type RuleStore interface {
	Save(ctx context.Context, r Rule) error
	Active(ctx context.Context, id property.ID) (Rule, error)
}

func allowedDay(days []int, wd time.Weekday) bool {
	if len(days) == 0 {
		return true
	}
	for _, d := range days {
		if time.Weekday(d) == wd {
			return true
		}
	}
	return false
}

func within(day, from, to time.Time) bool {
	day = daterange.Truncate(day)
	return !day.Before(daterange.Truncate(from)) && !day.After(daterange.Truncate(to))
}
