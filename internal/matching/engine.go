package matching

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/reunite-hq/reunite/internal/models"
	"github.com/reunite-hq/reunite/internal/observability"
	"github.com/reunite-hq/reunite/internal/vision"
	"github.com/reunite-hq/reunite/pkg/vectors"
)

// SweepOutcome tells callers why a sweep returned the results it did. A
// degraded sweep and a sweep over a corpus with no similar items both return
// zero matches; the outcome lets internal consumers tell them apart even
// though the user-facing surface currently does not.
type SweepOutcome string

// Sweep outcomes.
const (
	SweepCompleted SweepOutcome = "completed"
	SweepNoImage   SweepOutcome = "no_image"
	SweepDegraded  SweepOutcome = "degraded"
)

// Embedder produces (and may cache or persist) the embedding for an item's
// image. Errors wrap the vision sentinels.
type Embedder interface {
	EmbeddingFor(ctx context.Context, item *models.Item) ([]float32, error)
}

// ResultStore appends match results. The matching path never updates or
// deletes; every scored pair becomes a new row.
type ResultStore interface {
	Append(ctx context.Context, result *models.MatchResult) error
}

// Dispatcher delivers a "match found" notification for a lost/found pair.
// Delivery is at-least-once from the engine's perspective: the result is
// persisted before dispatch and a dispatch failure is logged, not retried.
type Dispatcher interface {
	DispatchMatch(ctx context.Context, lost, found *models.Item, score float64) error
}

// Engine runs the pairwise comparison between a newly submitted item and the
// opposite-category corpus. Each comparison is independent; a per-candidate
// failure skips that candidate and the sweep continues.
type Engine struct {
	embedder   Embedder
	store      ResultStore
	dispatcher Dispatcher
	threshold  float64
	metrics    observability.MatchMetrics
	logger     *slog.Logger
}

// EngineParams configures an Engine. Metrics and Logger may be nil.
type EngineParams struct {
	Embedder   Embedder
	Store      ResultStore
	Dispatcher Dispatcher
	Threshold  float64
	Metrics    observability.MatchMetrics
	Logger     *slog.Logger
}

// NewEngine creates a match engine. A zero threshold falls back to DefaultThreshold.
func NewEngine(p EngineParams) *Engine {
	threshold := p.Threshold
	if threshold == 0 {
		threshold = DefaultThreshold
	}

	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		embedder:   p.Embedder,
		store:      p.Store,
		dispatcher: p.Dispatcher,
		threshold:  threshold,
		metrics:    p.Metrics,
		logger:     logger,
	}
}

// OnNewItem compares item against every candidate in the opposite-category
// corpus and returns the results persisted along the way. It never fails the
// sweep for a per-candidate problem: candidates without images, without
// obtainable embeddings, or with degenerate embeddings are skipped. When the
// new item itself yields no embedding the sweep produces no results and the
// outcome says why.
func (e *Engine) OnNewItem(ctx context.Context, item *models.Item, corpus []*models.Item) ([]models.MatchResult, SweepOutcome) {
	start := time.Now()

	results, outcome := e.sweep(ctx, item, corpus)

	if e.metrics != nil {
		e.metrics.RecordSweep(ctx, string(outcome))
		e.metrics.RecordSweepDuration(ctx, time.Since(start), string(outcome))
	}

	e.logger.Info("match sweep finished",
		"item_id", item.ID,
		"category", item.Category,
		"candidates", len(corpus),
		"results", len(results),
		"outcome", outcome,
	)

	return results, outcome
}

func (e *Engine) sweep(ctx context.Context, item *models.Item, corpus []*models.Item) ([]models.MatchResult, SweepOutcome) {
	if !item.HasImage() {
		return nil, SweepNoImage
	}

	embedding, err := e.embedder.EmbeddingFor(ctx, item)
	if err != nil {
		if errors.Is(err, vision.ErrUnavailable) {
			return nil, SweepDegraded
		}

		e.logger.Warn("match sweep: item embedding unavailable",
			"item_id", item.ID,
			"error", err,
		)

		return nil, SweepNoImage
	}

	results := make([]models.MatchResult, 0, len(corpus))

	for _, candidate := range corpus {
		result, ok := e.compare(ctx, item, embedding, candidate)
		if !ok {
			continue
		}

		results = append(results, *result)
	}

	return results, SweepCompleted
}

// compare scores one (item, candidate) pair, persists the result, and
// dispatches on a match. Returns false when the pair was skipped.
func (e *Engine) compare(ctx context.Context, item *models.Item, embedding []float32, candidate *models.Item) (*models.MatchResult, bool) {
	if !candidate.HasImage() {
		e.skip(ctx, "no_image")

		return nil, false
	}

	candidateEmbedding, err := e.embedder.EmbeddingFor(ctx, candidate)
	if err != nil {
		e.skip(ctx, "no_embedding")
		e.logger.Debug("match sweep: candidate skipped",
			"candidate_id", candidate.ID,
			"error", err,
		)

		return nil, false
	}

	score, err := Score(embedding, candidateEmbedding)
	if err != nil {
		e.skip(ctx, "degenerate_embedding")
		e.logger.Warn("match sweep: pair cannot be scored",
			"item_id", item.ID,
			"candidate_id", candidate.ID,
			"error", err,
		)

		return nil, false
	}

	status := Classify(score, e.threshold)
	lost, found := orient(item, candidate)

	result := &models.MatchResult{
		ID:             uuid.Must(uuid.NewV7()),
		LostItemID:     lost.ID,
		FoundItemID:    found.ID,
		LostEmbedding:  embeddingFor(lost, item, embedding, candidateEmbedding),
		FoundEmbedding: embeddingFor(found, item, embedding, candidateEmbedding),
		Score:          score,
		Threshold:      e.threshold,
		Status:         status,
	}

	if err := e.store.Append(ctx, result); err != nil {
		e.skip(ctx, "store_failed")
		e.logger.Error("match sweep: result not persisted",
			"lost_item_id", result.LostItemID,
			"found_item_id", result.FoundItemID,
			"error", err,
		)

		return nil, false
	}

	if e.metrics != nil {
		e.metrics.RecordComparison(ctx, string(status))
	}

	// Dispatch after the result is durably stored; a delivery failure must
	// not undo or retry the persisted comparison.
	if status == models.StatusMatched {
		if err := e.dispatcher.DispatchMatch(ctx, lost, found, score); err != nil {
			if e.metrics != nil {
				e.metrics.RecordDispatchError(ctx)
			}

			e.logger.Error("match sweep: notification dispatch failed",
				"lost_item_id", lost.ID,
				"found_item_id", found.ID,
				"error", err,
			)
		}
	}

	return result, true
}

func (e *Engine) skip(ctx context.Context, reason string) {
	if e.metrics != nil {
		e.metrics.RecordCandidateSkipped(ctx, reason)
	}
}

// orient returns (lost, found) regardless of which side was the new item.
func orient(item, candidate *models.Item) (lost, found *models.Item) {
	if item.Category == models.CategoryLost {
		return item, candidate
	}

	return candidate, item
}

// embeddingFor returns the encoded embedding blob belonging to target, which
// is either the new item or the candidate.
func embeddingFor(target, item *models.Item, itemEmbedding, candidateEmbedding []float32) []byte {
	if target == item {
		return vectors.Encode(itemEmbedding)
	}

	return vectors.Encode(candidateEmbedding)
}
