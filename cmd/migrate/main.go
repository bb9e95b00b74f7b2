// migrate applies the schema migrations in migrations/ in filename order,
// then brings the River job queue tables up to date.
package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"sort"

	"github.com/joho/godotenv"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"

	"github.com/reunite-hq/reunite/migrations"
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
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		slog.Error("DATABASE_URL is required")

		return exitFailure
	}

	ctx := context.Background()

	db, err := database.NewPostgresPool(ctx, databaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)

		return exitFailure
	}
	defer db.Close()

	names, err := fs.Glob(migrations.FS, "*.sql")
	if err != nil {
		slog.Error("Failed to list migrations", "error", err)

		return exitFailure
	}

	sort.Strings(names)

	for _, name := range names {
		sql, err := migrations.FS.ReadFile(name)
		if err != nil {
			slog.Error("Failed to read migration", "file", name, "error", err)

			return exitFailure
		}

		if _, err := db.Exec(ctx, string(sql)); err != nil {
			slog.Error("Migration failed", "file", name, "error", err)

			return exitFailure
		}

		slog.Info("Applied migration", "file", name)
	}

	migrator, err := rivermigrate.New(riverpgxv5.New(db), nil)
	if err != nil {
		slog.Error("Failed to create River migrator", "error", err)

		return exitFailure
	}

	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		slog.Error("River migration failed", "error", err)

		return exitFailure
	}

	slog.Info("Migrations complete")

	return exitSuccess
}
