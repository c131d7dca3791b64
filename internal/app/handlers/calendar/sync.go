package calendar

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"ratepilot/internal/app/commands"
	"ratepilot/internal/app/dto"
	"ratepilot/internal/app/handlers/support"
	"ratepilot/internal/app/middleware"
	"ratepilot/internal/app/outbox"
	domaincalendar "ratepilot/internal/domain/calendar"
	"ratepilot/internal/domain/property"
)

const syncCalendarsKey = "calendar.sync"

var ErrSynchronizerRequired = errors.New("calendar: synchronizer required")

type SyncCalendarsCommand struct {
	PropertyID      string
	Platforms       []string
	IdempotencyKeyV string
}

func (c SyncCalendarsCommand) Key() string { return syncCalendarsKey }

func (c SyncCalendarsCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c SyncCalendarsCommand) ResultPrototype() any { return &dto.SyncResult{} }

type Synchronizer interface {
	Sync(ctx context.Context, id property.ID, platforms []string) (domaincalendar.SyncResult, error)
}

// SyncCalendarsHandler pushes the master calendar to the requested
// platforms, or to every platform the property is listed on.
type SyncCalendarsHandler struct {
	Properties   property.Reader
	Synchronizer Synchronizer
	Outbox       outbox.Outbox
	Encoder      outbox.EventEncoder
	Now          func() time.Time
	Logger       *slog.Logger
}

func (h *SyncCalendarsHandler) Handle(ctx context.Context, cmd SyncCalendarsCommand) (dto.SyncResult, error) {
	if h.Synchronizer == nil {
		return dto.SyncResult{}, ErrSynchronizerRequired
	}
	prop, err := support.LoadProperty(ctx, h.Properties, cmd.PropertyID)
	if err != nil {
		return dto.SyncResult{}, err
	}
	platforms := cmd.Platforms
	if len(platforms) == 0 {
		platforms = prop.Platforms
	}

	result, err := h.Synchronizer.Sync(ctx, prop.ID, platforms)
	if err != nil {
		return dto.SyncResult{}, err
	}
	evs := domaincalendar.SyncEvents(result, support.Clock(h.Now))
	if err := outbox.Record(ctx, h.Outbox, support.Encoder(h.Encoder), evs...); err != nil {
		return dto.SyncResult{}, err
	}
	return dto.NewSyncResult(result), nil
}

var _ commands.Handler[SyncCalendarsCommand, dto.SyncResult] = (*SyncCalendarsHandler)(nil)
var _ middleware.IdempotentCommand = (*SyncCalendarsCommand)(nil)
