package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricRunsTotal     = "crqscan.runs.total"
	metricRunDuration   = "crqscan.run.duration.seconds"
	metricCommitsTotal  = "crqscan.commits.total"
	metricLinesTotal    = "crqscan.lines.total"
	metricSkippedTotal  = "crqscan.lines.skipped.total"
	metricFindingsTotal = "crqscan.findings.appended.total"

	attrStatus   = "status"
	attrCategory = "category"
)

// Run statuses reported in ScanStats.Status.
const (
	StatusOK      = "ok"
	StatusAborted = "aborted"
)

// durationBucketBoundaries covers 10ms to 10min: an incremental run on a warm checkpoint
// is sub-second, a first run over a large history can take minutes.
var durationBucketBoundaries = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600}

// ScanMetrics holds the OTel instruments for scan runs.
type ScanMetrics struct {
	runsTotal     metric.Int64Counter
	runDuration   metric.Float64Histogram
	commitsTotal  metric.Int64Counter
	linesTotal    metric.Int64Counter
	skippedTotal  metric.Int64Counter
	findingsTotal metric.Int64Counter
}

// ScanStats holds the statistics of one scan run, decoupled from scan types.
type ScanStats struct {
	Status       string
	Duration     time.Duration
	Commits      int64
	Lines        int64
	SkippedLines int64

	// Appended maps a finding category to the number of values newly added to the result set.
	Appended map[string]int64
}

// NewScanMetrics creates scan metric instruments from the given meter.
func NewScanMetrics(mt metric.Meter) (*ScanMetrics, error) {
	runs, err := mt.Int64Counter(metricRunsTotal,
		metric.WithDescription("Scan runs by final status"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRunsTotal, err)
	}

	duration, err := mt.Float64Histogram(metricRunDuration,
		metric.WithDescription("Scan run duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRunDuration, err)
	}

	commits, err := mt.Int64Counter(metricCommitsTotal,
		metric.WithDescription("Commits diffed and scanned"),
		metric.WithUnit("{commit}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricCommitsTotal, err)
	}

	lines, err := mt.Int64Counter(metricLinesTotal,
		metric.WithDescription("Added and context lines passed to the pattern extractor"),
		metric.WithUnit("{line}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricLinesTotal, err)
	}

	skipped, err := mt.Int64Counter(metricSkippedTotal,
		metric.WithDescription("Lines skipped because their content is not valid UTF-8"),
		metric.WithUnit("{line}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricSkippedTotal, err)
	}

	findings, err := mt.Int64Counter(metricFindingsTotal,
		metric.WithDescription("Values appended to the persisted result set by category"),
		metric.WithUnit("{value}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricFindingsTotal, err)
	}

	return &ScanMetrics{
		runsTotal:     runs,
		runDuration:   duration,
		commitsTotal:  commits,
		linesTotal:    lines,
		skippedTotal:  skipped,
		findingsTotal: findings,
	}, nil
}

// RecordRun records the statistics of a finished run.
// Safe to call on a nil receiver (no-op).
func (sm *ScanMetrics) RecordRun(ctx context.Context, stats ScanStats) {
	if sm == nil {
		return
	}

	statusAttrs := metric.WithAttributes(attribute.String(attrStatus, stats.Status))
	sm.runsTotal.Add(ctx, 1, statusAttrs)
	sm.runDuration.Record(ctx, stats.Duration.Seconds(), statusAttrs)

	sm.commitsTotal.Add(ctx, stats.Commits)
	sm.linesTotal.Add(ctx, stats.Lines)
	sm.skippedTotal.Add(ctx, stats.SkippedLines)

	for category, n := range stats.Appended {
		sm.findingsTotal.Add(ctx, n, metric.WithAttributes(attribute.String(attrCategory, category)))
	}
}
