package revenue

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"ratepilot/internal/app/commands"
	"ratepilot/internal/app/dto"
	"ratepilot/internal/app/handlers/support"
	"ratepilot/internal/app/outbox"
	"ratepilot/internal/app/policies"
	"ratepilot/internal/domain/property"
	domainrevenue "ratepilot/internal/domain/revenue"
)

const optimizeRevenueKey = "revenue.optimize"

var ErrOptimizerRequired = errors.New("revenue: optimizer required")

type OptimizeRevenueCommand struct {
	PropertyID string
	Start      time.Time
	End        time.Time
	Goals      domainrevenue.Goals
}

func (c OptimizeRevenueCommand) Key() string { return optimizeRevenueKey }

func (c OptimizeRevenueCommand) Validate() error {
	return domainrevenue.Period{Start: c.Start, End: c.End}.Validate()
}

type Optimizer interface {
	Optimize(ctx context.Context, id property.ID, period domainrevenue.Period, goals domainrevenue.Goals) (domainrevenue.Report, error)
}

// OptimizeRevenueHandler runs the sweep and archives the report. An archive
// failure only costs the report its URL.
type OptimizeRevenueHandler struct {
	Properties property.Reader
	Optimizer  Optimizer
	Archive    policies.ReportArchive
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *OptimizeRevenueHandler) Handle(ctx context.Context, cmd OptimizeRevenueCommand) (dto.RevenueReport, error) {
	if h.Optimizer == nil {
		return dto.RevenueReport{}, ErrOptimizerRequired
	}
	prop, err := support.LoadProperty(ctx, h.Properties, cmd.PropertyID)
	if err != nil {
		return dto.RevenueReport{}, err
	}
	period := domainrevenue.Period{Start: cmd.Start, End: cmd.End}
	report, err := h.Optimizer.Optimize(ctx, prop.ID, period, cmd.Goals)
	if err != nil {
		return dto.RevenueReport{}, err
	}

	var url string
	if h.Archive != nil {
		url, err = h.Archive.Archive(ctx, report)
		if err != nil {
			url = ""
			if h.Logger != nil {
				h.Logger.Warn("revenue report archive failed", "property_id", prop.ID, "error", err)
			}
		}
	}

	if err := outbox.Record(ctx, h.Outbox, support.Encoder(h.Encoder), report.CompletedEvent()); err != nil {
		return dto.RevenueReport{}, err
	}
	if h.Logger != nil {
		h.Logger.Info("revenue optimization completed",
			"property_id", prop.ID,
			"days", len(period.Days()),
			"recommendations", report.RecommendationsCount,
			"lift", report.PotentialRevenueLift,
		)
	}
	return dto.NewRevenueReport(report, url), nil
}

var _ commands.Handler[OptimizeRevenueCommand, dto.RevenueReport] = (*OptimizeRevenueHandler)(nil)
