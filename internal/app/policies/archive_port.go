package policies

import (
	"context"

	"ratepilot/internal/domain/revenue"
)

// ReportArchive stores optimization reports and returns where they live.
type ReportArchive interface {
	Archive(ctx context.Context, report revenue.Report) (string, error)
}
