package memory

import (
	"context"
	"sync"

	"ratepilot/internal/domain/calendar"
	"ratepilot/internal/domain/property"
)

// SyncLog keeps the most recent sync results per property.
type SyncLog struct {
	mu    sync.RWMutex
	limit int
	items map[property.ID][]calendar.SyncResult
}

func NewSyncLog(limit int) *SyncLog {
	if limit <= 0 {
		limit = 50
	}
	return &SyncLog{limit: limit, items: make(map[property.ID][]calendar.SyncResult)}
}

func (l *SyncLog) Append(ctx context.Context, r calendar.SyncResult) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	list := append(l.items[r.PropertyID], r)
	if len(list) > l.limit {
		list = list[len(list)-l.limit:]
	}
	l.items[r.PropertyID] = list
	return nil
}

// Recent returns results newest first.
func (l *SyncLog) Recent(id property.ID) []calendar.SyncResult {
	l.mu.RLock()
	defer l.mu.RUnlock()
	list := l.items[id]
	out := make([]calendar.SyncResult, 0, len(list))
	for i := len(list) - 1; i >= 0; i-- {
		out = append(out, list[i])
	}
	return out
}

var _ calendar.SyncLog = (*SyncLog)(nil)
