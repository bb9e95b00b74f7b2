// Package workers provides River job workers (match sweeps, claim expiry).
package workers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/riverqueue/river"

	"github.com/reunite-hq/reunite/internal/matching"
	"github.com/reunite-hq/reunite/internal/models"
	"github.com/reunite-hq/reunite/internal/service"
)

// sweepItemsRepository is the minimal item access the worker needs.
type sweepItemsRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error)
	ListCorpus(ctx context.Context, category models.ItemCategory) ([]*models.Item, error)
}

// sweepEngine runs one item against a candidate corpus.
type sweepEngine interface {
	OnNewItem(ctx context.Context, item *models.Item, corpus []*models.Item) ([]models.MatchResult, matching.SweepOutcome)
}

// MatchSweepWorker compares one newly registered item against every item of
// the opposite category.
type MatchSweepWorker struct {
	river.WorkerDefaults[service.MatchSweepArgs]

	items  sweepItemsRepository
	engine sweepEngine
	logger *slog.Logger
}

// NewMatchSweepWorker creates a worker that loads the item and its candidate
// corpus and runs the match engine over them.
func NewMatchSweepWorker(items sweepItemsRepository, engine sweepEngine, logger *slog.Logger) *MatchSweepWorker {
	if logger == nil {
		logger = slog.Default()
	}

	return &MatchSweepWorker{items: items, engine: engine, logger: logger}
}

const matchSweepTimeout = 5 * time.Minute

// Timeout limits how long a single sweep can run. Sweeps scale with corpus
// size, so the window is generous.
func (w *MatchSweepWorker) Timeout(*river.Job[service.MatchSweepArgs]) time.Duration {
	return matchSweepTimeout
}

// Work loads the item, loads the opposite-category corpus, and sweeps. A
// missing item is final (no retry); a degraded extractor is also final, since
// degraded mode persists for the process lifetime.
func (w *MatchSweepWorker) Work(ctx context.Context, job *river.Job[service.MatchSweepArgs]) error {
	args := job.Args

	item, err := w.items.GetByID(ctx, args.ItemID)
	if err != nil {
		w.logger.Error("match sweep: item not loaded",
			"item_id", args.ItemID,
			"error", err,
		)

		return nil // no retry when the item is gone
	}

	if item.Status == models.StatusClaimed {
		w.logger.Info("match sweep: item already claimed, skipping", "item_id", item.ID)

		return nil
	}

	corpus, err := w.items.ListCorpus(ctx, item.Category.Opposite())
	if err != nil {
		return fmt.Errorf("load match corpus: %w", err)
	}

	results, outcome := w.engine.OnNewItem(ctx, item, corpus)

	switch outcome {
	case matching.SweepDegraded:
		// Degraded mode does not recover within this process, so retrying
		// the job would spin. Leave it to a later restart and backfill.
		w.logger.Warn("match sweep: extractor degraded", "item_id", item.ID)

		return nil
	case matching.SweepNoImage:
		w.logger.Info("match sweep: no usable image", "item_id", item.ID)

		return nil
	case matching.SweepCompleted:
		matched := 0

		for i := range results {
			if results[i].Matched() {
				matched++
			}
		}

		w.logger.Info("match sweep: completed",
			"item_id", item.ID,
			"compared", len(results),
			"matched", matched,
		)

		return nil
	default:
		return fmt.Errorf("match sweep: unknown outcome %q", outcome)
	}
}
