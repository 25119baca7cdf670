package reports

import (
	"context"
	"fmt"
	"path"
	"time"

	"truebite-api/services"

	json "github.com/goccy/go-json"
)

type DashboardReport struct {
	GeneratedAt time.Time                `json:"generated_at"`
	Stats       *services.DashboardStats `json:"stats"`
}

// BuildDashboardReport snapshots the manager dashboard
func BuildDashboardReport(ctx context.Context, analytics *services.AnalyticsService, now time.Time) (*DashboardReport, error) {
	stats, err := analytics.DashboardStats(ctx)
	if err != nil {
		return nil, err
	}
	return &DashboardReport{GeneratedAt: now.UTC(), Stats: stats}, nil
}

type Exporter struct {
	writer ObjectWriter
	prefix string
}

func NewExporter(w ObjectWriter, prefix string) *Exporter {
	return &Exporter{writer: w, prefix: prefix}
}

// Export writes the report as JSON and returns the object key it used
func (e *Exporter) Export(ctx context.Context, report *DashboardReport) (string, error) {
	body, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}
	key := path.Join(e.prefix, "dashboard-"+report.GeneratedAt.Format("20060102T150405Z")+".json")
	if err := e.writer.PutObject(ctx, key, body, "application/json"); err != nil {
		return "", err
	}
	return key, nil
}
