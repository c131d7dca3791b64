package memory

import (
	"context"
	"sync"
	"time"

	appoutbox "ratepilot/internal/app/outbox"
	infraoutbox "ratepilot/internal/infra/outbox"
)

// Outbox buffers records until Flush, then exposes them to the relay
// worker through the claim API.
type Outbox struct {
	mu      sync.Mutex
	pending []appoutbox.EventRecord
	events  []*outboxEvent
	now     func() time.Time
}

type outboxEvent struct {
	record    appoutbox.EventRecord
	state     string
	attempts  int
	next      time.Time
	lastError string
}

func NewOutbox() *Outbox {
	return &Outbox{now: time.Now}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pending = append(o.pending, record)
	return nil
}

func (o *Outbox) Flush(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := o.now()
	for _, rec := range o.pending {
		o.events = append(o.events, &outboxEvent{record: rec, state: infraoutbox.StateNew, next: now})
	}
	o.pending = nil
	return nil
}

func (o *Outbox) Claim(ctx context.Context, workerID string) (*infraoutbox.Pending, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := o.now()
	for _, ev := range o.events {
		if ev.state != infraoutbox.StateNew && ev.state != infraoutbox.StateFailed {
			continue
		}
		if ev.next.After(now) {
			continue
		}
		ev.state = infraoutbox.StateClaimed
		return &infraoutbox.Pending{
			ID:         ev.record.ID,
			Name:       ev.record.Name,
			Payload:    ev.record.Payload,
			OccurredAt: ev.record.OccurredAt,
			Aggregate:  ev.record.Aggregate,
			Headers:    ev.record.Headers,
			Attempts:   ev.attempts,
		}, nil
	}
	return nil, nil
}

func (o *Outbox) MarkSent(ctx context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if ev := o.find(id); ev != nil {
		ev.state = infraoutbox.StateSent
	}
	return nil
}

func (o *Outbox) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if ev := o.find(id); ev != nil {
		ev.state = infraoutbox.StateFailed
		ev.attempts++
		ev.next = next
		ev.lastError = errMsg
	}
	return nil
}

// Sent drops delivered events and returns how many there were.
func (o *Outbox) Sent() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	kept := o.events[:0]
	sent := 0
	for _, ev := range o.events {
		if ev.state == infraoutbox.StateSent {
			sent++
			continue
		}
		kept = append(kept, ev)
	}
	o.events = kept
	return sent
}

// Len reports flushed events not yet delivered.
func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := 0
	for _, ev := range o.events {
		if ev.state != infraoutbox.StateSent {
			n++
		}
	}
	return n
}

func (o *Outbox) find(id string) *outboxEvent {
	for _, ev := range o.events {
		if ev.record.ID == id {
			return ev
		}
	}
	return nil
}

var (
	_ appoutbox.Outbox   = (*Outbox)(nil)
	_ infraoutbox.Source = (*Outbox)(nil)
)
