package property

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ratepilot/internal/domain/shared/errs"
)

var (
	ErrNotFound       = fmt.Errorf("property: %w", errs.ErrNotFound)
	ErrIDRequired     = errors.New("property: id is required")
	ErrNegativeRate   = errors.New("property: average rate must be non-negative")
	ErrOccupancyRange = errors.New("property: occupancy rate must be between 0 and 1")
)

type ID string

type Location struct {
	City    string
	Country string
}

func (l Location) String() string {
	city := strings.TrimSpace(l.City)
	country := strings.TrimSpace(l.Country)
	switch {
	case city == "":
		return country
	case country == "":
		return city
	default:
		return city + ", " + country
	}
}

// Property is the read model the pricing core consumes. Rates are whole
// currency units.
type Property struct {
	ID            ID
	Name          string
	Location      Location
	AverageRate   int64
	OccupancyRate float64
	Platforms     []string
}

func (p Property) Validate() error {
	if strings.TrimSpace(string(p.ID)) == "" {
		return ErrIDRequired
	}
	if p.AverageRate < 0 {
		return ErrNegativeRate
	}
	if p.OccupancyRate < 0 || p.OccupancyRate > 1 {
		return ErrOccupancyRange
	}
	return nil
}

// Reader is the narrow lookup the engines depend on.
type Reader interface {
	ByID(ctx context.Context, id ID) (*Property, error)
}

type Repository interface {
	Reader
	Save(ctx context.Context, p *Property) error
	List(ctx context.Context) ([]*Property, error)
}
