package calendar

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ratepilot/internal/domain/property"
	"ratepilot/internal/domain/shared/daterange"
	"ratepilot/internal/domain/shared/errs"
)

var (
	ErrUnknownPlatform = fmt.Errorf("calendar: platform %w", errs.ErrNotFound)
	ErrInvalidStatus   = fmt.Errorf("calendar: %w: unknown status", errs.ErrInvalidInput)
	ErrInvalidEntry    = fmt.Errorf("calendar: %w: entry end date before start date", errs.ErrInvalidDate)
	ErrNoPlatforms     = fmt.Errorf("calendar: %w: at least one platform is required", errs.ErrInvalidInput)
	ErrSyncMisconfig   = errors.New("calendar: synchronizer missing store")
)

// MasterPlatform names the authoritative calendar of a property.
const MasterPlatform = "master"

type Status string

const (
	StatusAvailable Status = "available"
	StatusBooked    Status = "booked"
	StatusBlocked   Status = "blocked"
)

func ParseStatus(raw string) (Status, error) {
	switch s := Status(strings.ToLower(strings.TrimSpace(raw))); s {
	case StatusAvailable, StatusBooked, StatusBlocked:
		return s, nil
	default:
		return "", fmt.Errorf("%w %q", ErrInvalidStatus, raw)
	}
}

// Entry covers the inclusive day range Date..End(). A zero EndDate means a
// single day.
type Entry struct {
	Date    time.Time `json:"date"`
	EndDate time.Time `json:"end_date,omitempty"`
	Status  Status    `json:"status"`
}

func (e Entry) Start() time.Time { return daterange.Truncate(e.Date) }

func (e Entry) End() time.Time {
	if e.EndDate.IsZero() {
		return e.Start()
	}
	return daterange.Truncate(e.EndDate)
}

func (e Entry) Validate() error {
	if e.Date.IsZero() || e.End().Before(e.Start()) {
		return ErrInvalidEntry
	}
	if _, err := ParseStatus(string(e.Status)); err != nil {
		return err
	}
	return nil
}

// Overlaps treats both entries as inclusive day ranges.
func (e Entry) Overlaps(other Entry) bool {
	return !e.Start().After(other.End()) && !e.End().Before(other.Start())
}

func (e Entry) Covers(day time.Time) bool {
	day = daterange.Truncate(day)
	return !day.Before(e.Start()) && !day.After(e.End())
}

// Calendar is the entry list of one property on one platform.
type Calendar struct {
	PropertyID property.ID
	Platform   string
	Entries    []Entry
	UpdatedAt  time.Time
}

// StatusOn returns the status of the first entry covering day, or available.
func (c Calendar) StatusOn(day time.Time) Status {
	for _, e := range c.Entries {
		if e.Covers(day) {
			return e.Status
		}
	}
	return StatusAvailable
}

// Store reads and overwrites per-platform calendars. Replace is an
// idempotent full overwrite.
type Store interface {
	Entries(ctx context.Context, id property.ID, platform string) ([]Entry, error)
	Replace(ctx context.Context, id property.ID, platform string, entries []Entry) error
}

func NormalizePlatform(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
