// Package support holds small helpers shared by application handlers.
package support

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"ratepilot/internal/app/outbox"
	"ratepilot/internal/domain/property"
	"ratepilot/internal/domain/shared/daterange"
	"ratepilot/internal/domain/shared/errs"
)

var ErrPropertiesRequired = errors.New("support: property reader required")

// Clock returns now() in UTC, defaulting to time.Now.
func Clock(now func() time.Time) time.Time {
	if now != nil {
		return now().UTC()
	}
	return time.Now().UTC()
}

func NewID(gen func() string) string {
	if gen != nil {
		return gen()
	}
	return uuid.NewString()
}

// LoadProperty fails with property.ErrNotFound for blank or unknown ids.
func LoadProperty(ctx context.Context, r property.Reader, id string) (*property.Property, error) {
	if r == nil {
		return nil, ErrPropertiesRequired
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, property.ErrNotFound
	}
	return r.ByID(ctx, property.ID(id))
}

// Encoder returns enc or the JSON encoder.
func Encoder(enc outbox.EventEncoder) outbox.EventEncoder {
	if enc != nil {
		return enc
	}
	return outbox.JSONEventEncoder{}
}

// Date parses YYYY-MM-DD values, failing with errs.ErrInvalidDate.
func Date(raw string) (time.Time, error) {
	d, err := daterange.ParseDay(strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", errs.ErrInvalidDate, raw)
	}
	return d, nil
}
