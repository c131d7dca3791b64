package calendar

import (
	"context"
	"errors"

	"ratepilot/internal/app/dto"
	"ratepilot/internal/app/handlers/support"
	"ratepilot/internal/app/queries"
	domaincalendar "ratepilot/internal/domain/calendar"
	"ratepilot/internal/domain/property"
)

const getCalendarKey = "calendar.get"

var ErrStoreRequired = errors.New("calendar: store required")

type GetCalendarQuery struct {
	PropertyID string
	Platform   string
}

func (q GetCalendarQuery) Key() string { return getCalendarKey }

type GetCalendarHandler struct {
	Properties property.Reader
	Store      domaincalendar.Store
}

func (h *GetCalendarHandler) Handle(ctx context.Context, q GetCalendarQuery) (dto.Calendar, error) {
	if h.Store == nil {
		return dto.Calendar{}, ErrStoreRequired
	}
	prop, err := support.LoadProperty(ctx, h.Properties, q.PropertyID)
	if err != nil {
		return dto.Calendar{}, err
	}
	platform := domaincalendar.NormalizePlatform(q.Platform)
	if platform == "" {
		platform = domaincalendar.MasterPlatform
	}
	entries, err := h.Store.Entries(ctx, prop.ID, platform)
	if err != nil {
		return dto.Calendar{}, err
	}
	return dto.NewCalendar(string(prop.ID), platform, entries), nil
}

var _ queries.Handler[GetCalendarQuery, dto.Calendar] = (*GetCalendarHandler)(nil)
