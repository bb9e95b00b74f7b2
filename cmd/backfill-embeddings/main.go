// backfill-embeddings enqueues River match sweep jobs for items that have an
// image but no stored embedding. Run this after recovering from degraded mode
// or after bulk imports. Workers in the API server process the jobs; sweeping
// an item extracts and persists its embedding as a side effect.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivertype"

	"github.com/reunite-hq/reunite/internal/repository"
	"github.com/reunite-hq/reunite/internal/service"
	"github.com/reunite-hq/reunite/pkg/database"
)

const (
	exitSuccess = 0
	exitFailure = 1
)

func main() {
	os.Exit(run())
}

func run() int {
	// Load .env for consistency with the main API server.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		slog.Error("DATABASE_URL is required")

		return exitFailure
	}

	ctx := context.Background()

	db, err := database.NewPostgresPool(ctx, databaseURL, database.WithVectorTypes())
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)

		return exitFailure
	}
	defer db.Close()

	// Insert-only client: the API server's workers run the jobs.
	riverClient, err := river.NewClient(riverpgxv5.New(db), &river.Config{})
	if err != nil {
		slog.Error("Failed to create River client", "error", err)

		return exitFailure
	}

	itemsRepo := repository.NewItemsRepository(db)

	ids, err := itemsRepo.ListIDsForEmbeddingBackfill(ctx)
	if err != nil {
		slog.Error("Failed to list items for backfill", "error", err)

		return exitFailure
	}

	enqueued := 0

	for _, id := range ids {
		_, err := riverClient.Insert(ctx, service.MatchSweepArgs{ItemID: id}, &river.InsertOpts{
			Queue: service.MatchQueueName,
			UniqueOpts: river.UniqueOpts{
				ByArgs: true,
				ByState: []rivertype.JobState{
					rivertype.JobStatePending,
					rivertype.JobStateAvailable,
					rivertype.JobStateRunning,
					rivertype.JobStateRetryable,
					rivertype.JobStateScheduled,
				},
			},
		})
		if err != nil {
			slog.Error("Failed to enqueue sweep", "item_id", id, "error", err)

			return exitFailure
		}

		enqueued++
	}

	slog.Info("Backfill complete", "enqueued", enqueued)

	fmt.Printf("Enqueued %d match sweep job(s).\n", enqueued)

	return exitSuccess
}
