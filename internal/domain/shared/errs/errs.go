// Package errs holds the error kinds shared by the pricing and calendar core.
// Packages derive their own sentinels from these so callers can match either
// the precise error or its kind with errors.Is.
package errs

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidDate     = errors.New("invalid date")
	ErrDataUnavailable = errors.New("data unavailable")
)

// DataUnavailableError reports a failed upstream fetch. It matches
// ErrDataUnavailable and unwraps to the provider's error.
type DataUnavailableError struct {
	Source string
	Err    error
}

func (e *DataUnavailableError) Error() string {
	return fmt.Sprintf("%s data unavailable: %v", e.Source, e.Err)
}

func (e *DataUnavailableError) Unwrap() error { return e.Err }

func (e *DataUnavailableError) Is(target error) bool {
	return target == ErrDataUnavailable
}

// Unavailable wraps err as a DataUnavailableError, or returns nil for a nil err.
func Unavailable(source string, err error) error {
	if err == nil {
		return nil
	}
	return &DataUnavailableError{Source: source, Err: err}
}

// Kind names the terminal kind of err: "invalid_date", "not_found" or
// "invalid_input". Data unavailability and unclassified errors return "".
func Kind(err error) string {
	switch {
	case err == nil, errors.Is(err, ErrDataUnavailable):
		return ""
	case errors.Is(err, ErrInvalidDate):
		return "invalid_date"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	}
	return ""
}

// FromKind returns the sentinel named by kind, or nil when kind is unknown.
func FromKind(kind string) error {
	switch kind {
	case "invalid_date":
		return ErrInvalidDate
	case "not_found":
		return ErrNotFound
	case "invalid_input":
		return ErrInvalidInput
	}
	return nil
}
