package pricing

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"ratepilot/internal/app/commands"
	"ratepilot/internal/app/dto"
	"ratepilot/internal/app/handlers/support"
	"ratepilot/internal/app/middleware"
	"ratepilot/internal/app/outbox"
	domainpricing "ratepilot/internal/domain/pricing"
	"ratepilot/internal/domain/property"
	"ratepilot/internal/domain/shared/events"
)

const updateStrategyKey = "pricing.strategy.update"

var ErrStrategyStoreRequired = errors.New("pricing: strategy store required")

type UpdatePricingStrategyCommand struct {
	PropertyID      string
	Type            string
	Multiplier      float64
	MinPrice        int64
	MaxPrice        int64
	HorizonDays     int
	Schedule        string
	TargetPlatforms []string
	IdempotencyKeyV string
}

func (c UpdatePricingStrategyCommand) Key() string { return updateStrategyKey }

func (c UpdatePricingStrategyCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c UpdatePricingStrategyCommand) ResultPrototype() any { return &dto.PricingStrategyResult{} }

// UpdatePricingStrategyHandler replaces a property's strategy and applies
// its first horizon of rates immediately.
type UpdatePricingStrategyHandler struct {
	Properties property.Reader
	Strategies domainpricing.StrategyStore
	Engine     domainpricing.Quoter
	Publisher  domainpricing.RatePublisher
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Now        func() time.Time
	NewID      func() string
	Logger     *slog.Logger
}

func (h *UpdatePricingStrategyHandler) Handle(ctx context.Context, cmd UpdatePricingStrategyCommand) (dto.PricingStrategyResult, error) {
	if h.Strategies == nil {
		return dto.PricingStrategyResult{}, ErrStrategyStoreRequired
	}
	prop, err := support.LoadProperty(ctx, h.Properties, cmd.PropertyID)
	if err != nil {
		return dto.PricingStrategyResult{}, err
	}
	now := support.Clock(h.Now)

	schedule := domainpricing.Schedule(strings.ToLower(strings.TrimSpace(cmd.Schedule)))
	if schedule == domainpricing.ScheduleNone {
		schedule = domainpricing.ScheduleDaily
	}
	strategy := domainpricing.Strategy{
		ID:         support.NewID(h.NewID),
		PropertyID: prop.ID,
		Type:       domainpricing.Aggressiveness(strings.ToLower(strings.TrimSpace(cmd.Type))),
		Parameters: domainpricing.StrategyParameters{
			Multiplier:  cmd.Multiplier,
			MinPrice:    cmd.MinPrice,
			MaxPrice:    cmd.MaxPrice,
			HorizonDays: cmd.HorizonDays,
		},
		Schedule:        schedule,
		TargetPlatforms: cmd.TargetPlatforms,
		Status:          domainpricing.StrategyActive,
		CreatedAt:       now,
		NextRunAt:       schedule.Next(now),
	}
	if err := strategy.Validate(); err != nil {
		return dto.PricingStrategyResult{}, err
	}

	runner := strategyRunner{engine: h.Engine, publisher: h.Publisher}
	rates, platforms, err := runner.run(ctx, strategy, prop, now)
	if err != nil {
		return dto.PricingStrategyResult{}, err
	}
	if err := h.Strategies.Save(ctx, strategy); err != nil {
		return dto.PricingStrategyResult{}, err
	}

	evs := []events.DomainEvent{
		domainpricing.StrategyUpdatedEvent(strategy, now),
		domainpricing.RatesPublishedEvent(strategy, platforms, rates, now),
	}
	if err := outbox.Record(ctx, h.Outbox, support.Encoder(h.Encoder), evs...); err != nil {
		return dto.PricingStrategyResult{}, err
	}

	if h.Logger != nil {
		h.Logger.Info("pricing strategy updated",
			"property_id", prop.ID,
			"strategy_id", strategy.ID,
			"type", strategy.Type,
			"rates", len(rates),
			"platforms", len(platforms),
		)
	}
	next := strategy.NextRunAt
	return dto.PricingStrategyResult{
		StrategyID:           strategy.ID,
		PropertyID:           string(prop.ID),
		Status:               strategy.Status,
		NextUpdate:           &next,
		InitialPricesApplied: len(rates),
		Rates:                dto.NewDailyRates(rates),
	}, nil
}

var _ commands.Handler[UpdatePricingStrategyCommand, dto.PricingStrategyResult] = (*UpdatePricingStrategyHandler)(nil)
var _ middleware.IdempotentCommand = (*UpdatePricingStrategyCommand)(nil)
