package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reunite-hq/reunite/internal/apperrors"
	"github.com/reunite-hq/reunite/internal/models"
)

const matchResultColumns = `id, lost_item_id, found_item_id, lost_embedding,
	found_embedding, score, threshold, status, created_at`

// MatchResultsRepository handles data access for match results. The table is
// append-only: rows are never updated or deleted, so every comparison ever
// scored stays on record.
type MatchResultsRepository struct {
	db *pgxpool.Pool
}

// NewMatchResultsRepository creates a new match results repository.
func NewMatchResultsRepository(db *pgxpool.Pool) *MatchResultsRepository {
	return &MatchResultsRepository{db: db}
}

// Append inserts a new match result row and fills in the stored created_at.
func (r *MatchResultsRepository) Append(ctx context.Context, result *models.MatchResult) error {
	query := `
		INSERT INTO match_results (
			id, lost_item_id, found_item_id, lost_embedding, found_embedding,
			score, threshold, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`

	err := r.db.QueryRow(ctx, query,
		result.ID, result.LostItemID, result.FoundItemID,
		result.LostEmbedding, result.FoundEmbedding,
		result.Score, result.Threshold, result.Status,
	).Scan(&result.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append match result: %w", err)
	}

	return nil
}

// GetByID retrieves a single match result.
func (r *MatchResultsRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.MatchResult, error) {
	query := `SELECT ` + matchResultColumns + ` FROM match_results WHERE id = $1`

	result, err := scanMatchResult(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("match result", "match result not found")
		}

		return nil, fmt.Errorf("failed to get match result: %w", err)
	}

	return result, nil
}

// ListByItem returns every comparison involving the item on either side,
// newest first.
func (r *MatchResultsRepository) ListByItem(ctx context.Context, itemID uuid.UUID) ([]models.MatchResult, error) {
	query := `SELECT ` + matchResultColumns + `
		FROM match_results
		WHERE lost_item_id = $1 OR found_item_id = $1
		ORDER BY created_at DESC`

	return r.list(ctx, query, itemID)
}

// ListMatched returns comparisons that cleared their threshold, newest first.
func (r *MatchResultsRepository) ListMatched(ctx context.Context, limit, offset int) ([]models.MatchResult, error) {
	query := `SELECT ` + matchResultColumns + `
		FROM match_results
		WHERE status = $1
		ORDER BY created_at DESC`

	args := []any{models.StatusMatched}
	argCount := 2

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argCount)

		args = append(args, limit)
		argCount++
	}

	if offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argCount)

		args = append(args, offset)
	}

	return r.list(ctx, query, args...)
}

func (r *MatchResultsRepository) list(ctx context.Context, query string, args ...any) ([]models.MatchResult, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list match results: %w", err)
	}
	defer rows.Close()

	results := []models.MatchResult{} // Initialize as empty slice, not nil

	for rows.Next() {
		result, err := scanMatchResult(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match result: %w", err)
		}

		results = append(results, *result)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating match results: %w", err)
	}

	return results, nil
}

func scanMatchResult(row pgx.Row) (*models.MatchResult, error) {
	var result models.MatchResult

	err := row.Scan(
		&result.ID, &result.LostItemID, &result.FoundItemID,
		&result.LostEmbedding, &result.FoundEmbedding,
		&result.Score, &result.Threshold, &result.Status, &result.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &result, nil
}
