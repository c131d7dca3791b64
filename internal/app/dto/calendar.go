package dto

import (
	"time"

	"ratepilot/internal/domain/calendar"
)

type CalendarEntry struct {
	Date    string `json:"date"`
	EndDate string `json:"end_date,omitempty"`
	Status  string `json:"status"`
}

type Calendar struct {
	PropertyID string          `json:"property_id"`
	Platform   string          `json:"platform"`
	Entries    []CalendarEntry `json:"entries"`
}

func NewCalendar(id, platform string, entries []calendar.Entry) Calendar {
	out := Calendar{PropertyID: id, Platform: platform, Entries: make([]CalendarEntry, 0, len(entries))}
	for _, e := range entries {
		view := CalendarEntry{Date: e.Start().Format(time.DateOnly), Status: string(e.Status)}
		if !e.EndDate.IsZero() && e.End().After(e.Start()) {
			view.EndDate = e.End().Format(time.DateOnly)
		}
		out.Entries = append(out.Entries, view)
	}
	return out
}

type Conflict struct {
	Date           string `json:"date"`
	MasterStatus   string `json:"master_status"`
	PlatformStatus string `json:"platform_status"`
	Resolution     string `json:"resolution"`
}

type PlatformSync struct {
	Platform          string     `json:"platform"`
	Status            string     `json:"status"`
	ConflictsResolved int        `json:"conflicts_resolved"`
	Conflicts         []Conflict `json:"conflicts,omitempty"`
	Error             string     `json:"error,omitempty"`
	At                time.Time  `json:"at"`
}

type SyncResult struct {
	PropertyID      string         `json:"property_id"`
	TotalPlatforms  int            `json:"total_platforms"`
	SuccessfulSyncs int            `json:"successful_syncs"`
	Results         []PlatformSync `json:"results"`
}

func NewSyncResult(r calendar.SyncResult) SyncResult {
	out := SyncResult{
		PropertyID:      string(r.PropertyID),
		TotalPlatforms:  r.TotalPlatforms,
		SuccessfulSyncs: r.SuccessfulSyncs,
		Results:         make([]PlatformSync, 0, len(r.Results)),
	}
	for _, o := range r.Results {
		view := PlatformSync{
			Platform:          o.Platform,
			Status:            string(o.Status),
			ConflictsResolved: o.ConflictsResolved,
			Error:             o.Error,
			At:                o.At,
		}
		for _, c := range o.Conflicts {
			view.Conflicts = append(view.Conflicts, Conflict{
				Date:           c.Date.Format(time.DateOnly),
				MasterStatus:   string(c.MasterStatus),
				PlatformStatus: string(c.PlatformStatus),
				Resolution:     string(c.Resolution),
			})
		}
		out.Results = append(out.Results, view)
	}
	return out
}
