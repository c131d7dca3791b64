package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/IBM/sarama"

	"ratepilot/internal/app/commands"
	"ratepilot/internal/app/dto"
	calendarhandlers "ratepilot/internal/app/handlers/calendar"
	"ratepilot/internal/domain/shared/errs"
)

var ErrMalformedTrigger = fmt.Errorf("kafka: %w: malformed sync trigger", errs.ErrInvalidInput)

// syncTrigger accepts a bare payload or a CloudEvent wrapping one in data.
type syncTrigger struct {
	ID         string           `json:"id"`
	PropertyID string           `json:"property_id"`
	Platforms  []string         `json:"platforms"`
	Data       *syncTriggerData `json:"data"`
}

type syncTriggerData struct {
	PropertyID string   `json:"property_id"`
	Platforms  []string `json:"platforms"`
}

// SyncTriggerHandler turns sync requests from the broker into
// SyncCalendarsCommand dispatches. The event id becomes the idempotency
// key so redeliveries replay a stored result. Terminal rejections are
// acknowledged; any other failure is returned so the message is retried.
type SyncTriggerHandler struct {
	Bus    commands.Bus
	Logger *slog.Logger
}

func (h *SyncTriggerHandler) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	cmd, err := decodeSyncTrigger(msg)
	if err != nil {
		// Malformed messages are acknowledged and dropped.
		if h.Logger != nil {
			h.Logger.Warn("dropping sync trigger", "offset", msg.Offset, "error", err)
		}
		return nil
	}
	res, err := commands.Dispatch[calendarhandlers.SyncCalendarsCommand, dto.SyncResult](ctx, h.Bus, cmd)
	if err != nil {
		if errs.Kind(err) != "" {
			if h.Logger != nil {
				h.Logger.Warn("sync trigger rejected", "property_id", cmd.PropertyID, "error", err)
			}
			return nil
		}
		return err
	}
	if h.Logger != nil {
		h.Logger.Info("sync trigger handled",
			"property_id", cmd.PropertyID,
			"successful", res.SuccessfulSyncs,
			"total", res.TotalPlatforms,
		)
	}
	return nil
}

func decodeSyncTrigger(msg *sarama.ConsumerMessage) (calendarhandlers.SyncCalendarsCommand, error) {
	var t syncTrigger
	if err := json.Unmarshal(msg.Value, &t); err != nil {
		return calendarhandlers.SyncCalendarsCommand{}, fmt.Errorf("%w: %v", ErrMalformedTrigger, err)
	}
	if t.Data != nil {
		t.PropertyID, t.Platforms = t.Data.PropertyID, t.Data.Platforms
	}
	if strings.TrimSpace(t.PropertyID) == "" {
		return calendarhandlers.SyncCalendarsCommand{}, fmt.Errorf("%w: property_id missing", ErrMalformedTrigger)
	}
	key := t.ID
	if key == "" {
		key = fmt.Sprintf("%s/%d/%d", msg.Topic, msg.Partition, msg.Offset)
	}
	return calendarhandlers.SyncCalendarsCommand{
		PropertyID:      t.PropertyID,
		Platforms:       t.Platforms,
		IdempotencyKeyV: "sync-trigger:" + key,
	}, nil
}

var _ MessageHandler = (*SyncTriggerHandler)(nil)
