package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ratepilot/internal/app/policies"
	"ratepilot/internal/domain/revenue"
)

var ErrUploaderRequired = errors.New("s3: uploader required")

// ReportArchive writes optimization reports as JSON objects under
// <prefix>/<property>/<yyyy-mm-dd>/<id>.json.
type ReportArchive struct {
	Uploader Uploader
	Prefix   string
	NewID    func() string
}

func (a *ReportArchive) Archive(ctx context.Context, report revenue.Report) (string, error) {
	if a == nil || a.Uploader == nil {
		return "", ErrUploaderRequired
	}
	body, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("s3: encode report: %w", err)
	}
	return a.Uploader.Upload(ctx, a.key(report), bytes.NewReader(body), int64(len(body)), "application/json")
}

func (a *ReportArchive) key(report revenue.Report) string {
	prefix := a.Prefix
	if prefix == "" {
		prefix = "reports"
	}
	newID := a.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	generated := report.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}
	return fmt.Sprintf("%s/%s/%s/%s.json", prefix, report.PropertyID, generated.UTC().Format(time.DateOnly), newID())
}

var _ policies.ReportArchive = (*ReportArchive)(nil)
