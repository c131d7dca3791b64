package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"ratepilot/internal/domain/property"
)

type OutcomeStatus string

const (
	OutcomeSuccess OutcomeStatus = "success"
	OutcomeError   OutcomeStatus = "error"
)

// SyncOutcome is the per-platform result of a sync pass.
type SyncOutcome struct {
	Platform          string           `json:"platform"`
	Status            OutcomeStatus    `json:"status"`
	ConflictsResolved int              `json:"conflicts_resolved"`
	Conflicts         []ConflictRecord `json:"conflicts,omitempty"`
	Error             string           `json:"error,omitempty"`
	At                time.Time        `json:"at"`
}

type SyncResult struct {
	PropertyID      property.ID   `json:"property_id"`
	TotalPlatforms  int           `json:"total_platforms"`
	SuccessfulSyncs int           `json:"successful_syncs"`
	Results         []SyncOutcome `json:"results"`
}

// ConflictResolver is told about conflicts before the master calendar is
// pushed, e.g. to notify the host or cancel a platform hold.
type ConflictResolver interface {
	Resolve(ctx context.Context, id property.ID, platform string, conflicts []ConflictRecord) error
}

// SyncLog keeps a history of sync passes.
type SyncLog interface {
	Append(ctx context.Context, result SyncResult) error
}

// Synchronizer pushes the master calendar to every requested platform.
// Platforms run concurrently and fail independently.
type Synchronizer struct {
	Store    Store
	Resolver ConflictResolver
	Log      SyncLog
	Now      func() time.Time
	Logger   *slog.Logger
}

func (s *Synchronizer) Sync(ctx context.Context, id property.ID, platforms []string) (SyncResult, error) {
	if s == nil || s.Store == nil {
		return SyncResult{}, ErrSyncMisconfig
	}
	if len(platforms) == 0 {
		return SyncResult{}, ErrNoPlatforms
	}
	master, err := s.Store.Entries(ctx, id, MasterPlatform)
	if err != nil {
		return SyncResult{}, fmt.Errorf("calendar: load master calendar: %w", err)
	}

	results := make([]SyncOutcome, len(platforms))
	var wg sync.WaitGroup
	for i, platform := range platforms {
		wg.Add(1)
		go func(i int, platform string) {
			defer wg.Done()
			results[i] = s.syncPlatform(ctx, id, platform, master)
		}(i, platform)
	}
	wg.Wait()

	out := SyncResult{PropertyID: id, TotalPlatforms: len(platforms), Results: results}
	for _, r := range results {
		if r.Status == OutcomeSuccess {
			out.SuccessfulSyncs++
		}
	}

	if s.Log != nil {
		if err := s.Log.Append(ctx, out); err != nil && s.Logger != nil {
			s.Logger.Warn("sync log append failed", "property_id", id, "error", err)
		}
	}
	if s.Logger != nil {
		s.Logger.Info("calendar sync finished",
			"property_id", id,
			"total", out.TotalPlatforms,
			"successful", out.SuccessfulSyncs,
		)
	}
	return out, nil
}

func (s *Synchronizer) syncPlatform(ctx context.Context, id property.ID, platform string, master []Entry) SyncOutcome {
	platform = NormalizePlatform(platform)
	fail := func(err error) SyncOutcome {
		if s.Logger != nil {
			s.Logger.Warn("platform sync failed", "property_id", id, "platform", platform, "error", err)
		}
		return SyncOutcome{Platform: platform, Status: OutcomeError, Error: err.Error(), At: s.now()}
	}
	if platform == "" || platform == MasterPlatform {
		return fail(fmt.Errorf("%w %q", ErrUnknownPlatform, platform))
	}

	current, err := s.Store.Entries(ctx, id, platform)
	if err != nil {
		return fail(err)
	}
	conflicts := DetectConflicts(master, current)
	if len(conflicts) > 0 && s.Resolver != nil {
		if err := s.Resolver.Resolve(ctx, id, platform, conflicts); err != nil {
			return fail(err)
		}
	}
	if err := s.Store.Replace(ctx, id, platform, master); err != nil {
		return fail(err)
	}
	return SyncOutcome{
		Platform:          platform,
		Status:            OutcomeSuccess,
		ConflictsResolved: len(conflicts),
		Conflicts:         conflicts,
		At:                s.now(),
	}
}

func (s *Synchronizer) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
