package workers

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"

	"github.com/reunite-hq/reunite/internal/matching"
	"github.com/reunite-hq/reunite/internal/models"
	"github.com/reunite-hq/reunite/internal/service"
)

type mockSweepRepo struct {
	item      *models.Item
	getErr    error
	corpus    []*models.Item
	corpusErr error

	corpusCategory models.ItemCategory
}

func (m *mockSweepRepo) GetByID(_ context.Context, _ uuid.UUID) (*models.Item, error) {
	return m.item, m.getErr
}

func (m *mockSweepRepo) ListCorpus(_ context.Context, category models.ItemCategory) ([]*models.Item, error) {
	m.corpusCategory = category

	return m.corpus, m.corpusErr
}

type mockEngine struct {
	results []models.MatchResult
	outcome matching.SweepOutcome

	item   *models.Item
	corpus []*models.Item
	called int
}

func (m *mockEngine) OnNewItem(_ context.Context, item *models.Item, corpus []*models.Item) ([]models.MatchResult, matching.SweepOutcome) {
	m.called++
	m.item = item
	m.corpus = corpus

	return m.results, m.outcome
}

func sweepJob(itemID uuid.UUID) *river.Job[service.MatchSweepArgs] {
	return &river.Job[service.MatchSweepArgs]{
		JobRow: &rivertype.JobRow{},
		Args:   service.MatchSweepArgs{ItemID: itemID},
	}
}

func TestMatchSweepWorker_Work(t *testing.T) {
	ctx := context.Background()

	lostItem := &models.Item{
		ID:       uuid.Must(uuid.NewV7()),
		Category: models.CategoryLost,
		Status:   models.StatusLost,
	}

	t.Run("sweeps against the opposite category", func(t *testing.T) {
		corpus := []*models.Item{
			{ID: uuid.Must(uuid.NewV7()), Category: models.CategoryFound},
		}
		repo := &mockSweepRepo{item: lostItem, corpus: corpus}
		engine := &mockEngine{outcome: matching.SweepCompleted}
		worker := NewMatchSweepWorker(repo, engine, nil)

		if err := worker.Work(ctx, sweepJob(lostItem.ID)); err != nil {
			t.Errorf("Work() error = %v, want nil", err)
		}

		if repo.corpusCategory != models.CategoryFound {
			t.Errorf("corpus category = %v, want found", repo.corpusCategory)
		}

		if engine.called != 1 || engine.item != lostItem || len(engine.corpus) != 1 {
			t.Errorf("engine called %d times with item %v, corpus %d", engine.called, engine.item, len(engine.corpus))
		}
	})

	t.Run("returns nil when item not found (no retry)", func(t *testing.T) {
		repo := &mockSweepRepo{getErr: errors.New("not found")}
		engine := &mockEngine{}
		worker := NewMatchSweepWorker(repo, engine, nil)

		if err := worker.Work(ctx, sweepJob(uuid.Must(uuid.NewV7()))); err != nil {
			t.Errorf("Work() error = %v, want nil", err)
		}

		if engine.called != 0 {
			t.Errorf("engine called %d times, want 0", engine.called)
		}
	})

	t.Run("skips claimed items", func(t *testing.T) {
		claimed := &models.Item{ID: uuid.Must(uuid.NewV7()), Category: models.CategoryLost, Status: models.StatusClaimed}
		repo := &mockSweepRepo{item: claimed}
		engine := &mockEngine{}
		worker := NewMatchSweepWorker(repo, engine, nil)

		if err := worker.Work(ctx, sweepJob(claimed.ID)); err != nil {
			t.Errorf("Work() error = %v, want nil", err)
		}

		if engine.called != 0 {
			t.Errorf("engine called %d times, want 0", engine.called)
		}
	})

	t.Run("retries on corpus load failure", func(t *testing.T) {
		repo := &mockSweepRepo{item: lostItem, corpusErr: errors.New("db down")}
		worker := NewMatchSweepWorker(repo, &mockEngine{}, nil)

		if err := worker.Work(ctx, sweepJob(lostItem.ID)); err == nil {
			t.Error("Work() error = nil, want retryable error")
		}
	})

	t.Run("degraded outcome is final (no retry)", func(t *testing.T) {
		repo := &mockSweepRepo{item: lostItem}
		engine := &mockEngine{outcome: matching.SweepDegraded}
		worker := NewMatchSweepWorker(repo, engine, nil)

		if err := worker.Work(ctx, sweepJob(lostItem.ID)); err != nil {
			t.Errorf("Work() error = %v, want nil", err)
		}
	})
}
