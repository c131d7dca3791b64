package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDataUnavailableWrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("quote: %w", Unavailable("market", cause))

	assert.ErrorIs(t, err, ErrDataUnavailable)
	assert.ErrorIs(t, err, cause)

	var typed *DataUnavailableError
	if assert.ErrorAs(t, err, &typed) {
		assert.Equal(t, "market", typed.Source)
	}
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Nil(t, Unavailable("market", nil))
}

func TestKindRoundTrip(t *testing.T) {
	cases := []struct {
		err  error
		kind string
	}{
		{fmt.Errorf("property: %w", ErrNotFound), "not_found"},
		{fmt.Errorf("platforms: %w", ErrInvalidInput), "invalid_input"},
		{fmt.Errorf("%w: %w", ErrInvalidInput, ErrInvalidDate), "invalid_date"},
		{Unavailable("market", fmt.Errorf("lookup: %w", ErrNotFound)), ""},
		{errors.New("timeout"), ""},
		{nil, ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.kind, Kind(tc.err))
		if tc.kind != "" {
			assert.ErrorIs(t, tc.err, FromKind(tc.kind))
		}
	}
	assert.Nil(t, FromKind("unknown"))
}
