package availability

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"ratepilot/internal/app/commands"
	"ratepilot/internal/app/dto"
	"ratepilot/internal/app/handlers/support"
	"ratepilot/internal/app/middleware"
	"ratepilot/internal/app/outbox"
	domainavailability "ratepilot/internal/domain/availability"
	"ratepilot/internal/domain/calendar"
	"ratepilot/internal/domain/property"
)

const setRulesKey = "availability.rules.set"

const statusApplied = "applied"

var ErrStoresRequired = errors.New("availability: rule and calendar stores required")

// SetAvailabilityRulesCommand carries the rule body; ID, PropertyID and
// timestamps are assigned by the handler. A zero window means today plus
// one year.
type SetAvailabilityRulesCommand struct {
	PropertyID      string
	Rule            domainavailability.Rule
	From            time.Time
	To              time.Time
	IdempotencyKeyV string
}

func (c SetAvailabilityRulesCommand) Key() string { return setRulesKey }

func (c SetAvailabilityRulesCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c SetAvailabilityRulesCommand) ResultPrototype() any { return &dto.AvailabilityResult{} }

func (c SetAvailabilityRulesCommand) Validate() error {
	return c.Rule.Validate()
}

type SetAvailabilityRulesHandler struct {
	Properties property.Reader
	Rules      domainavailability.RuleStore
	Calendars  calendar.Store
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Now        func() time.Time
	NewID      func() string
	Logger     *slog.Logger
}

func (h *SetAvailabilityRulesHandler) Handle(ctx context.Context, cmd SetAvailabilityRulesCommand) (dto.AvailabilityResult, error) {
	if h.Rules == nil || h.Calendars == nil {
		return dto.AvailabilityResult{}, ErrStoresRequired
	}
	prop, err := support.LoadProperty(ctx, h.Properties, cmd.PropertyID)
	if err != nil {
		return dto.AvailabilityResult{}, err
	}
	now := support.Clock(h.Now)

	rule := cmd.Rule
	rule.ID = support.NewID(h.NewID)
	rule.PropertyID = prop.ID
	rule.Status = domainavailability.StatusActive
	rule.CreatedAt = now
	if err := rule.Validate(); err != nil {
		return dto.AvailabilityResult{}, err
	}

	window := domainavailability.DefaultWindow(now)
	if !cmd.From.IsZero() || !cmd.To.IsZero() {
		window = domainavailability.Window{From: cmd.From, To: cmd.To}
	}
	if err := window.Validate(); err != nil {
		return dto.AvailabilityResult{}, err
	}

	master, err := h.Calendars.Entries(ctx, prop.ID, calendar.MasterPlatform)
	if err != nil {
		return dto.AvailabilityResult{}, err
	}
	applied, err := domainavailability.Apply(rule, master, window, now)
	if err != nil {
		return dto.AvailabilityResult{}, err
	}

	rule.LastApplied = now
	if err := h.Rules.Save(ctx, rule); err != nil {
		return dto.AvailabilityResult{}, err
	}
	if err := h.Calendars.Replace(ctx, prop.ID, calendar.MasterPlatform, applied.Entries); err != nil {
		return dto.AvailabilityResult{}, err
	}

	ev := domainavailability.RulesAppliedEvent(prop.ID, rule.ID, applied.Changed, now)
	if err := outbox.Record(ctx, h.Outbox, support.Encoder(h.Encoder), ev); err != nil {
		return dto.AvailabilityResult{}, err
	}
	if h.Logger != nil {
		h.Logger.Info("availability rules applied", "property_id", prop.ID, "rule_id", rule.ID, "affected", len(applied.Changed))
	}
	return dto.AvailabilityResult{
		RuleID:        rule.ID,
		PropertyID:    string(prop.ID),
		Status:        statusApplied,
		AffectedDates: dto.FormatDates(applied.Changed),
	}, nil
}

var _ commands.Handler[SetAvailabilityRulesCommand, dto.AvailabilityResult] = (*SetAvailabilityRulesHandler)(nil)
var _ middleware.IdempotentCommand = (*SetAvailabilityRulesCommand)(nil)
