package availability

import (
	"fmt"
	"sort"
	"time"

	"ratepilot/internal/domain/calendar"
	"ratepilot/internal/domain/shared/daterange"
	"ratepilot/internal/domain/shared/errs"
)

var (
	ErrInvalidWindow = fmt.Errorf("availability: %w: window end before start", errs.ErrInvalidDate)
	ErrWindowTooLong = fmt.Errorf("availability: %w: window longer than %d days", errs.ErrInvalidInput, MaxWindowDays)
)

// DefaultWindowDays is how far ahead rules are applied when no window is given.
const DefaultWindowDays = 365

// MaxWindowDays bounds an explicit window, counting both ends.
const MaxWindowDays = DefaultWindowDays + 1

// Window is an inclusive range of UTC days.
type Window struct {
	From time.Time
	To   time.Time
}

func DefaultWindow(now time.Time) Window {
	today := daterange.Truncate(now)
	return Window{From: today, To: today.AddDate(0, 0, DefaultWindowDays)}
}

func (w Window) Validate() error {
	if w.From.IsZero() || w.To.IsZero() || daterange.Truncate(w.To).Before(daterange.Truncate(w.From)) {
		return ErrInvalidWindow
	}
	if daterange.Truncate(w.To).Sub(daterange.Truncate(w.From)) >= MaxWindowDays*24*time.Hour {
		return ErrWindowTooLong
	}
	return nil
}

type Result struct {
	Entries []calendar.Entry
	Changed []time.Time
}

// StatusFor evaluates the rule for a single day that is not booked.
func (r Rule) StatusFor(day, today time.Time) calendar.Status {
	for _, b := range r.MaintenanceBlocks {
		if b.Contains(day) {
			return calendar.StatusBlocked
		}
	}
	for _, s := range r.SeasonalRules {
		if s.Closed && s.Contains(day) {
			return calendar.StatusBlocked
		}
	}
	daysAhead := daterange.DaysBetween(today, daterange.Truncate(day))
	if r.AdvanceBookingWindowDays > 0 && daysAhead > r.AdvanceBookingWindowDays {
		return calendar.StatusBlocked
	}
	if r.LastMinuteWindowDays > 0 && daysAhead < r.LastMinuteWindowDays {
		return calendar.StatusBlocked
	}
	return calendar.StatusAvailable
}

// Apply evaluates the rule over every day of the window and returns the new
// entry list plus the days whose status changed. Booked days are never
// touched. Entries outside the window are kept, multi-day entries crossing it
// are split into single days inside it.
func Apply(rule Rule, entries []calendar.Entry, window Window, now time.Time) (Result, error) {
	if err := window.Validate(); err != nil {
		return Result{}, err
	}
	from, to := daterange.Truncate(window.From), daterange.Truncate(window.To)
	today := daterange.Truncate(now)

	previous := make(map[time.Time]calendar.Status)
	var kept []calendar.Entry
	for _, e := range entries {
		start, end := e.Start(), e.End()
		if end.Before(from) || start.After(to) {
			kept = append(kept, e)
			continue
		}
		if start.Before(from) {
			kept = append(kept, span(start, from.AddDate(0, 0, -1), e.Status))
		}
		if end.After(to) {
			kept = append(kept, span(to.AddDate(0, 0, 1), end, e.Status))
		}
		for _, d := range daterange.Days(maxTime(start, from), minTime(end, to)) {
			if _, seen := previous[d]; !seen {
				previous[d] = e.Status
			}
		}
	}

	var res Result
	res.Entries = kept
	for _, d := range daterange.Days(from, to) {
		prev, explicit := previous[d]
		if !explicit {
			prev = calendar.StatusAvailable
		}
		next := prev
		if prev != calendar.StatusBooked {
			next = rule.StatusFor(d, today)
		}
		if next != prev {
			res.Changed = append(res.Changed, d)
		}
		if explicit || next != calendar.StatusAvailable {
			res.Entries = append(res.Entries, calendar.Entry{Date: d, Status: next})
		}
	}
	sort.SliceStable(res.Entries, func(i, j int) bool {
		return res.Entries[i].Start().Before(res.Entries[j].Start())
	})
	return res, nil
}

func span(from, to time.Time, status calendar.Status) calendar.Entry {
	e := calendar.Entry{Date: from, Status: status}
	if to.After(from) {
		e.EndDate = to
	}
	return e
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
