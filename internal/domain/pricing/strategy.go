package pricing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ratepilot/internal/domain/property"
	"ratepilot/internal/domain/shared/errs"
)

var (
	ErrStrategyNotFound = fmt.Errorf("pricing: strategy %w", errs.ErrNotFound)
	ErrStrategyType     = fmt.Errorf("%w: unknown strategy type", ErrInvalidInput)
	ErrHorizon          = fmt.Errorf("%w: strategy horizon must be between 1 and 365 days", ErrInvalidInput)
)

const DefaultHorizonDays = 30

type Schedule string

const (
	ScheduleNone    Schedule = ""
	ScheduleDaily   Schedule = "daily"
	ScheduleWeekly  Schedule = "weekly"
	ScheduleMonthly Schedule = "monthly"
)

// Next returns the next run after now. Unknown cadences run daily.
func (s Schedule) Next(now time.Time) time.Time {
	switch Schedule(strings.ToLower(strings.TrimSpace(string(s)))) {
	case ScheduleWeekly:
		return now.Add(7 * 24 * time.Hour)
	case ScheduleMonthly:
		return now.AddDate(0, 1, 0)
	default:
		return now.Add(24 * time.Hour)
	}
}

type StrategyParameters struct {
	Multiplier  float64
	MinPrice    int64
	MaxPrice    int64
	HorizonDays int
}

type Strategy struct {
	ID              string
	PropertyID      property.ID
	Type            Aggressiveness
	Parameters      StrategyParameters
	Schedule        Schedule
	TargetPlatforms []string
	Status          string
	CreatedAt       time.Time
	NextRunAt       time.Time
}

const StrategyActive = "active"

func (s Strategy) Validate() error {
	if strings.TrimSpace(string(s.PropertyID)) == "" {
		return fmt.Errorf("%w: property id is required", ErrInvalidInput)
	}
	if s.Type == "" {
		return ErrStrategyType
	}
	if _, err := s.Type.Factor(s.Parameters.Multiplier); err != nil {
		return err
	}
	if s.Parameters.HorizonDays < 0 || s.Parameters.HorizonDays > 365 {
		return ErrHorizon
	}
	return s.Bounds().Validate()
}

func (s Strategy) Bounds() Bounds {
	return Bounds{MinPrice: s.Parameters.MinPrice, MaxPrice: s.Parameters.MaxPrice}
}

func (s Strategy) Horizon() int {
	if s.Parameters.HorizonDays <= 0 {
		return DefaultHorizonDays
	}
	return s.Parameters.HorizonDays
}

// Due reports whether a scheduled strategy should run at now.
func (s Strategy) Due(now time.Time) bool {
	if s.Status != StrategyActive || s.Schedule == ScheduleNone || s.NextRunAt.IsZero() {
		return false
	}
	return !now.Before(s.NextRunAt)
}

type StrategyStore interface {
	Save(ctx context.Context, s Strategy) error
	ByProperty(ctx context.Context, id property.ID) (Strategy, error)
	Active(ctx context.Context) ([]Strategy, error)
}

// DailyRate is one computed price pushed to booking platforms.
type DailyRate struct {
	Date  time.Time
	Price int64
}

// RatePublisher pushes computed rates to the listed platforms.
type RatePublisher interface {
	PublishRates(ctx context.Context, id property.ID, platforms []string, rates []DailyRate) error
}

// StrategicRates quotes every day of the strategy horizon starting at from.
func StrategicRates(ctx context.Context, q Quoter, s Strategy, from time.Time) ([]DailyRate, error) {
	horizon := s.Horizon()
	rates := make([]DailyRate, 0, horizon)
	for i := 0; i < horizon; i++ {
		day := from.AddDate(0, 0, i)
		quote, err := q.Quote(ctx, QuoteRequest{
			PropertyID:       s.PropertyID,
			Date:             day,
			Bounds:           s.Bounds(),
			Aggressiveness:   s.Type,
			CustomMultiplier: s.Parameters.Multiplier,
		})
		if err != nil {
			return nil, fmt.Errorf("pricing: strategic rate for %s: %w", day.Format(time.DateOnly), err)
		}
		rates = append(rates, DailyRate{Date: quote.Date, Price: quote.OptimalPrice})
	}
	return rates, nil
}
