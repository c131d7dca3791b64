package scylla

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gocql/gocql"

	"ratepilot/internal/domain/calendar"
	"ratepilot/internal/domain/property"
)

var ErrSessionRequired = errors.New("scylla: session not initialized")

// SyncLog writes one row per platform outcome, grouped by a time-based run
// id so the newest runs read first.
type SyncLog struct {
	session *gocql.Session
	logger  *slog.Logger
}

func NewSyncLog(session *gocql.Session, logger *slog.Logger) *SyncLog {
	return &SyncLog{session: session, logger: logger}
}

type logRow struct {
	PropertyID        string
	RunID             gocql.UUID
	Platform          string
	Status            string
	ConflictsResolved int
	Error             string
	SyncedAt          time.Time
}

func rowsFor(result calendar.SyncResult, runID gocql.UUID) []logRow {
	rows := make([]logRow, 0, len(result.Results))
	for _, o := range result.Results {
		rows = append(rows, logRow{
			PropertyID:        string(result.PropertyID),
			RunID:             runID,
			Platform:          o.Platform,
			Status:            string(o.Status),
			ConflictsResolved: o.ConflictsResolved,
			Error:             o.Error,
			SyncedAt:          o.At.UTC(),
		})
	}
	return rows
}

func (l *SyncLog) Append(ctx context.Context, result calendar.SyncResult) error {
	if l.session == nil {
		return ErrSessionRequired
	}
	batch := l.session.NewBatch(gocql.UnloggedBatch).WithContext(ctx)
	for _, r := range rowsFor(result, gocql.TimeUUID()) {
		batch.Query(`INSERT INTO calendar_sync_log (property_id, run_id, platform, status, conflicts_resolved, error, synced_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			r.PropertyID, r.RunID, r.Platform, r.Status, r.ConflictsResolved, r.Error, r.SyncedAt)
	}
	if len(batch.Entries) == 0 {
		return nil
	}
	if err := l.session.ExecuteBatch(batch); err != nil {
		if l.logger != nil {
			l.logger.Warn("scylla sync log write failed", "property_id", result.PropertyID, "error", err)
		}
		return err
	}
	return nil
}

// Recent returns up to limit platform outcomes, newest run first.
func (l *SyncLog) Recent(ctx context.Context, id property.ID, limit int) ([]calendar.SyncOutcome, error) {
	if l.session == nil {
		return nil, ErrSessionRequired
	}
	if limit <= 0 {
		limit = 50
	}
	iter := l.session.
		Query(`SELECT platform, status, conflicts_resolved, error, synced_at FROM calendar_sync_log WHERE property_id = ? LIMIT ?`, string(id), limit).
		WithContext(ctx).
		Consistency(gocql.One).
		Iter()

	var (
		out       []calendar.SyncOutcome
		platform  string
		status    string
		conflicts int
		errText   string
		syncedAt  time.Time
	)
	for iter.Scan(&platform, &status, &conflicts, &errText, &syncedAt) {
		out = append(out, calendar.SyncOutcome{
			Platform:          platform,
			Status:            calendar.OutcomeStatus(status),
			ConflictsResolved: conflicts,
			Error:             errText,
			At:                syncedAt,
		})
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return out, nil
}

var _ calendar.SyncLog = (*SyncLog)(nil)
