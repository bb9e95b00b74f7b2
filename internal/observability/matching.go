package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MatchMetrics records matching pipeline metrics (sweeps, comparisons,
// notification dispatch). Methods accept ctx for future exemplar support.
type MatchMetrics interface {
	RecordSweep(ctx context.Context, outcome string)
	RecordSweepDuration(ctx context.Context, duration time.Duration, outcome string)
	RecordComparison(ctx context.Context, status string)
	RecordCandidateSkipped(ctx context.Context, reason string)
	RecordDispatchError(ctx context.Context)
}

// matchMetrics implements MatchMetrics.
type matchMetrics struct {
	sweeps         metric.Int64Counter
	sweepDuration  metric.Float64Histogram
	comparisons    metric.Int64Counter
	skipped        metric.Int64Counter
	dispatchErrors metric.Int64Counter
}

// NewMatchMetrics creates MatchMetrics. Returns (nil, nil) when meter is nil
// (metrics disabled); callers check for nil before recording.
func NewMatchMetrics(meter metric.Meter) (MatchMetrics, error) {
	if meter == nil {
		//nolint:nilnil // intentional: callers use "if metrics != nil" when metrics disabled
		return nil, nil
	}

	sweeps, err := meter.Int64Counter(
		MetricNameSweeps,
		metric.WithDescription("Total match sweeps by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("create sweeps counter: %w", err)
	}

	sweepDuration, err := meter.Float64Histogram(
		MetricNameSweepDuration,
		metric.WithDescription("Match sweep duration (seconds)"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create sweep duration histogram: %w", err)
	}

	comparisons, err := meter.Int64Counter(
		MetricNameComparisons,
		metric.WithDescription("Total scored pair comparisons by status"),
	)
	if err != nil {
		return nil, fmt.Errorf("create comparisons counter: %w", err)
	}

	skipped, err := meter.Int64Counter(
		MetricNameCandidatesSkipped,
		metric.WithDescription("Total candidates skipped during sweeps by reason"),
	)
	if err != nil {
		return nil, fmt.Errorf("create candidates skipped counter: %w", err)
	}

	dispatchErrors, err := meter.Int64Counter(
		MetricNameDispatchErrors,
		metric.WithDescription("Total notification dispatch failures"),
	)
	if err != nil {
		return nil, fmt.Errorf("create dispatch errors counter: %w", err)
	}

	return &matchMetrics{
		sweeps:         sweeps,
		sweepDuration:  sweepDuration,
		comparisons:    comparisons,
		skipped:        skipped,
		dispatchErrors: dispatchErrors,
	}, nil
}

func (m *matchMetrics) RecordSweep(ctx context.Context, outcome string) {
	m.sweeps.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrOutcome, outcome)))
}

func (m *matchMetrics) RecordSweepDuration(ctx context.Context, duration time.Duration, outcome string) {
	m.sweepDuration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(attribute.String(AttrOutcome, outcome)))
}

func (m *matchMetrics) RecordComparison(ctx context.Context, status string) {
	m.comparisons.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrStatus, status)))
}

func (m *matchMetrics) RecordCandidateSkipped(ctx context.Context, reason string) {
	m.skipped.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrReason, reason)))
}

func (m *matchMetrics) RecordDispatchError(ctx context.Context) {
	m.dispatchErrors.Add(ctx, 1)
}

// ExtractionMetrics records embedding extraction outcomes and latency.
type ExtractionMetrics interface {
	RecordExtraction(ctx context.Context, outcome string)
	RecordExtractionDuration(ctx context.Context, duration time.Duration, outcome string)
}

type extractionMetrics struct {
	extractions metric.Int64Counter
	duration    metric.Float64Histogram
}

// NewExtractionMetrics creates ExtractionMetrics. Returns (nil, nil) when meter is nil.
func NewExtractionMetrics(meter metric.Meter) (ExtractionMetrics, error) {
	if meter == nil {
		//nolint:nilnil // intentional: callers use "if metrics != nil" when metrics disabled
		return nil, nil
	}

	extractions, err := meter.Int64Counter(
		MetricNameExtractions,
		metric.WithDescription("Total embedding extractions by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("create extractions counter: %w", err)
	}

	duration, err := meter.Float64Histogram(
		MetricNameExtractionTime,
		metric.WithDescription("Embedding extraction duration (seconds)"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create extraction duration histogram: %w", err)
	}

	return &extractionMetrics{extractions: extractions, duration: duration}, nil
}

func (m *extractionMetrics) RecordExtraction(ctx context.Context, outcome string) {
	m.extractions.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrOutcome, outcome)))
}

func (m *extractionMetrics) RecordExtractionDuration(ctx context.Context, duration time.Duration, outcome string) {
	m.duration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(attribute.String(AttrOutcome, outcome)))
}
