package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricIssuesProcessed = "flowfang.issues.processed"
	metricIssuesFailed    = "flowfang.issues.failed"
	metricExportDuration  = "flowfang.export.duration.seconds"

	attrReport = "report"
	attrSource = "source"
)

// exportBucketBoundaries covers 10ms to 60s; exports are file writes plus
// chart rendering and stay well under a minute even for large projects.
var exportBucketBoundaries = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}

// FlowMetrics holds the OTel instruments for batch processing and exports.
type FlowMetrics struct {
	issuesProcessed metric.Int64Counter
	issuesFailed    metric.Int64Counter
	exportDuration  metric.Float64Histogram
}

// NewFlowMetrics creates the flow metric instruments from the given meter.
func NewFlowMetrics(mt metric.Meter) (*FlowMetrics, error) {
	processed, err := mt.Int64Counter(metricIssuesProcessed,
		metric.WithDescription("Issues successfully processed into timelines"),
		metric.WithUnit("{issue}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricIssuesProcessed, err)
	}

	failed, err := mt.Int64Counter(metricIssuesFailed,
		metric.WithDescription("Issues skipped due to malformed input or inconsistent timelines"),
		metric.WithUnit("{issue}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricIssuesFailed, err)
	}

	duration, err := mt.Float64Histogram(metricExportDuration,
		metric.WithDescription("Report export duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(exportBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricExportDuration, err)
	}

	return &FlowMetrics{
		issuesProcessed: processed,
		issuesFailed:    failed,
		exportDuration:  duration,
	}, nil
}

// RecordBatch records the outcome of one batch build: how many issues made
// it into timelines and how many were skipped, tagged with the input source
// (snapshot, cache, live).
func (fm *FlowMetrics) RecordBatch(ctx context.Context, source string, processed, failed int) {
	attrs := metric.WithAttributes(attribute.String(attrSource, source))

	fm.issuesProcessed.Add(ctx, int64(processed), attrs)
	fm.issuesFailed.Add(ctx, int64(failed), attrs)
}

// RecordExport records the duration of one report export.
func (fm *FlowMetrics) RecordExport(ctx context.Context, report string, duration time.Duration) {
	fm.exportDuration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(attribute.String(attrReport, report)))
}
