package pricing

import (
	"context"
	"log/slog"
	"time"

	"ratepilot/internal/app/commands"
	"ratepilot/internal/app/handlers/support"
	"ratepilot/internal/app/outbox"
	domainpricing "ratepilot/internal/domain/pricing"
	"ratepilot/internal/domain/property"
)

const runDueStrategiesKey = "pricing.strategy.run_due"

// RunDueStrategiesCommand is dispatched by the scheduler on every tick.
type RunDueStrategiesCommand struct{}

func (RunDueStrategiesCommand) Key() string { return runDueStrategiesKey }

type RunDueStrategiesResult struct {
	Due     int `json:"due"`
	Applied int `json:"applied"`
	Failed  int `json:"failed"`
}

// RunDueStrategiesHandler re-applies active strategies whose next run has
// passed. A failing strategy is logged and retried on its next slot.
type RunDueStrategiesHandler struct {
	Properties property.Reader
	Strategies domainpricing.StrategyStore
	Engine     domainpricing.Quoter
	Publisher  domainpricing.RatePublisher
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Now        func() time.Time
	Logger     *slog.Logger
}

func (h *RunDueStrategiesHandler) Handle(ctx context.Context, _ RunDueStrategiesCommand) (RunDueStrategiesResult, error) {
	if h.Strategies == nil {
		return RunDueStrategiesResult{}, ErrStrategyStoreRequired
	}
	now := support.Clock(h.Now)
	active, err := h.Strategies.Active(ctx)
	if err != nil {
		return RunDueStrategiesResult{}, err
	}

	var res RunDueStrategiesResult
	runner := strategyRunner{engine: h.Engine, publisher: h.Publisher}
	for _, s := range active {
		if !s.Due(now) {
			continue
		}
		res.Due++
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := h.runOne(ctx, runner, s, now); err != nil {
			res.Failed++
			h.log().Warn("scheduled strategy failed", "property_id", s.PropertyID, "strategy_id", s.ID, "error", err)
		} else {
			res.Applied++
		}
	}
	if res.Due > 0 {
		h.log().Info("scheduled strategies processed", "due", res.Due, "applied", res.Applied, "failed", res.Failed)
	}
	return res, nil
}

func (h *RunDueStrategiesHandler) runOne(ctx context.Context, runner strategyRunner, s domainpricing.Strategy, now time.Time) error {
	prop, err := support.LoadProperty(ctx, h.Properties, string(s.PropertyID))
	if err != nil {
		return err
	}
	rates, platforms, err := runner.run(ctx, s, prop, now)
	if err != nil {
		return err
	}
	s.NextRunAt = s.Schedule.Next(now)
	if err := h.Strategies.Save(ctx, s); err != nil {
		return err
	}
	return outbox.Record(ctx, h.Outbox, support.Encoder(h.Encoder), domainpricing.RatesPublishedEvent(s, platforms, rates, now))
}

func (h *RunDueStrategiesHandler) log() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

var _ commands.Handler[RunDueStrategiesCommand, RunDueStrategiesResult] = (*RunDueStrategiesHandler)(nil)
