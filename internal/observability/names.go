package observability

// Metric names (Prometheus / OpenTelemetry).
const (
	MetricNameSweeps            = "reunite_match_sweeps_total"
	MetricNameSweepDuration     = "reunite_match_sweep_duration_seconds"
	MetricNameComparisons       = "reunite_match_comparisons_total"
	MetricNameCandidatesSkipped = "reunite_match_candidates_skipped_total"
	MetricNameDispatchErrors    = "reunite_match_dispatch_errors_total"
	MetricNameExtractions       = "reunite_embedding_extractions_total"
	MetricNameExtractionTime    = "reunite_embedding_extraction_duration_seconds"
)

// Attribute keys.
const (
	AttrOutcome = "outcome"
	AttrStatus  = "status"
	AttrReason  = "reason"
)
