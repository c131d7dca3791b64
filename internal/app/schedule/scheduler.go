package schedule

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"ratepilot/internal/app/commands"
)

var ErrInvalidTicker = errors.New("schedule: bus, command and positive interval required")

// Ticker dispatches the same command on a fixed interval until ctx ends.
// A failed dispatch is logged and retried on the next tick.
type Ticker struct {
	Bus      commands.Bus
	Command  commands.Command
	Interval time.Duration
	Logger   *slog.Logger
}

func (t *Ticker) Run(ctx context.Context) error {
	if t.Bus == nil || t.Command == nil || t.Interval <= 0 {
		return ErrInvalidTicker
	}
	ticker := time.NewTicker(t.Interval)
	defer ticker.Stop()

	t.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			t.tick(ctx)
		}
	}
}

func (t *Ticker) tick(ctx context.Context) {
	if _, err := t.Bus.Dispatch(ctx, t.Command); err != nil && ctx.Err() == nil && t.Logger != nil {
		t.Logger.Warn("scheduled command failed", "command", t.Command.Key(), "error", err)
	}
}
