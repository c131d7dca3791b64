package calendar

import (
	"time"

	"ratepilot/internal/domain/property"
	"ratepilot/internal/domain/shared/events"
)

type CalendarSynced struct {
	PropertyID      string
	TotalPlatforms  int
	SuccessfulSyncs int
	Conflicts       int
	At              time.Time
}

func (e CalendarSynced) EventName() string     { return "calendar.synced" }
func (e CalendarSynced) AggregateID() string   { return e.PropertyID }
func (e CalendarSynced) OccurredAt() time.Time { return e.At }

type PlatformSyncFailed struct {
	PropertyID string
	Platform   string
	Reason     string
	At         time.Time
}

func (e PlatformSyncFailed) EventName() string     { return "calendar.platform_sync_failed" }
func (e PlatformSyncFailed) AggregateID() string   { return e.PropertyID }
func (e PlatformSyncFailed) OccurredAt() time.Time { return e.At }

// SyncEvents turns a sync result into the events relayed to subscribers.
func SyncEvents(r SyncResult, at time.Time) []events.DomainEvent {
	conflicts := 0
	failures := make([]events.DomainEvent, 0, len(r.Results))
	for _, o := range r.Results {
		conflicts += o.ConflictsResolved
		if o.Status == OutcomeError {
			failures = append(failures, PlatformSyncFailedEvent(r.PropertyID, o.Platform, o.Error, at))
		}
	}
	synced := CalendarSynced{
		PropertyID:      string(r.PropertyID),
		TotalPlatforms:  r.TotalPlatforms,
		SuccessfulSyncs: r.SuccessfulSyncs,
		Conflicts:       conflicts,
		At:              at,
	}
	return append([]events.DomainEvent{synced}, failures...)
}

func PlatformSyncFailedEvent(id property.ID, platform, reason string, at time.Time) PlatformSyncFailed {
	return PlatformSyncFailed{PropertyID: string(id), Platform: platform, Reason: reason, At: at}
}
