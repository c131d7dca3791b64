package memory

import (
	"context"
	"sync"
	"time"

	"ratepilot/internal/app/middleware"
)

const defaultIdempotencyTTL = 24 * time.Hour

type idempotencyEntry struct {
	record  middleware.IdempotencyRecord
	expires time.Time
}

// IdempotencyStore keeps command outcomes for ttl. Expired keys are dropped
// when they are next read or when a later save sweeps them.
type IdempotencyStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	items map[string]idempotencyEntry
}

func NewIdempotencyStore(ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	return &IdempotencyStore{ttl: ttl, now: time.Now, items: make(map[string]idempotencyEntry)}
}

func (s *IdempotencyStore) Get(_ context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.items[key]
	if !ok {
		return middleware.IdempotencyRecord{}, false, nil
	}
	if !s.now().Before(entry.expires) {
		delete(s.items, key)
		return middleware.IdempotencyRecord{}, false, nil
	}
	return entry.record, true, nil
}

func (s *IdempotencyStore) Save(_ context.Context, rec middleware.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for key, entry := range s.items {
		if !now.Before(entry.expires) {
			delete(s.items, key)
		}
	}
	s.items[rec.Key] = idempotencyEntry{record: rec, expires: now.Add(s.ttl)}
	return nil
}

// Len counts stored keys, expired or not.
func (s *IdempotencyStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
