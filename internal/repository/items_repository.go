// Package repository provides data access for items, match results, claims,
// and notifications.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/reunite-hq/reunite/internal/apperrors"
	"github.com/reunite-hq/reunite/internal/models"
)

// errEmbeddingScanInvalidType is returned when Scan receives a type other than []byte.
var errEmbeddingScanInvalidType = errors.New("embedding: expected []byte")

// nullableEmbedding scans a vector column that may be NULL without panicking
// (pgvector.Vector.Scan panics on empty/NULL).
type nullableEmbedding []float32

func (n *nullableEmbedding) Scan(src any) error {
	if src == nil {
		*n = nil

		return nil
	}

	buf, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("%w: got %T", errEmbeddingScanInvalidType, src)
	}

	if len(buf) == 0 {
		*n = nil

		return nil
	}

	var vec pgvector.Vector

	if err := vec.DecodeBinary(buf); err != nil {
		return fmt.Errorf("embedding decode: %w", err)
	}

	*n = vec.Slice()

	return nil
}

const itemColumns = `id, category, name, description, location, latitude,
	longitude, email, phone, image_path, status, embedding, found_by, found_at,
	claimed_by, claimed_at, created_at, updated_at`

// ItemsRepository handles data access for lost and found items.
type ItemsRepository struct {
	db *pgxpool.Pool
}

// NewItemsRepository creates a new items repository.
func NewItemsRepository(db *pgxpool.Pool) *ItemsRepository {
	return &ItemsRepository{db: db}
}

func scanItem(row pgx.Row) (*models.Item, error) {
	var item models.Item

	var emb nullableEmbedding

	err := row.Scan(
		&item.ID, &item.Category, &item.Name, &item.Description,
		&item.Location, &item.Latitude, &item.Longitude, &item.Email, &item.Phone,
		&item.ImagePath, &item.Status, &emb,
		&item.FoundBy, &item.FoundAt, &item.ClaimedBy, &item.ClaimedAt,
		&item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	item.Embedding = emb

	return &item, nil
}

// Create inserts a new item. The initial status follows the category: lost
// reports start as "lost", found reports as "registered".
func (r *ItemsRepository) Create(
	ctx context.Context, category models.ItemCategory, req *models.CreateItemRequest, imagePath *string,
) (*models.Item, error) {
	status := models.StatusLost
	if category == models.CategoryFound {
		status = models.StatusRegistered
	}

	query := `
		INSERT INTO items (id, category, name, description, location, latitude,
			longitude, email, phone, image_path, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + itemColumns

	item, err := scanItem(r.db.QueryRow(ctx, query,
		uuid.Must(uuid.NewV7()), category, req.Name, req.Description,
		req.Location, req.Latitude, req.Longitude,
		req.Email, req.Phone, imagePath, status,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	return item, nil
}

// GetByID retrieves a single item by ID.
func (r *ItemsRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1`

	item, err := scanItem(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("item", "item not found")
		}

		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	return item, nil
}

// List retrieves items of one category with optional filters, newest first.
func (r *ItemsRepository) List(
	ctx context.Context, category models.ItemCategory, filters *models.ListItemsFilters,
) ([]models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items`

	conditions := []string{"category = $1"}
	args := []any{category}
	argCount := 2

	if filters.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argCount))
		args = append(args, *filters.Status)
		argCount++
	}

	query += " WHERE " + strings.Join(conditions, " AND ")
	query += " ORDER BY created_at DESC"

	if filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argCount)

		args = append(args, filters.Limit)
		argCount++
	}

	if filters.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argCount)

		args = append(args, filters.Offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	items := []models.Item{} // Initialize as empty slice, not nil

	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}

		items = append(items, *item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}

	return items, nil
}

// ListCorpus returns every item of the given category that carries an image,
// oldest first. These are the candidates the match engine sweeps against.
func (r *ItemsRepository) ListCorpus(ctx context.Context, category models.ItemCategory) ([]*models.Item, error) {
	query := `SELECT ` + itemColumns + `
		FROM items
		WHERE category = $1 AND image_path IS NOT NULL
		ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, query, category)
	if err != nil {
		return nil, fmt.Errorf("failed to list match corpus: %w", err)
	}
	defer rows.Close()

	var items []*models.Item

	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}

		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating match corpus: %w", err)
	}

	return items, nil
}

// UpdateEmbedding sets the embedding vector for an item. Pass nil to clear
// the embedding (set to NULL).
func (r *ItemsRepository) UpdateEmbedding(ctx context.Context, id uuid.UUID, embedding []float32) error {
	var (
		query string
		args  []any
	)

	if embedding == nil {
		query = `UPDATE items SET embedding = NULL, updated_at = $1 WHERE id = $2`
		args = []any{time.Now(), id}
	} else {
		query = `UPDATE items SET embedding = $1, updated_at = $2 WHERE id = $3`
		args = []any{pgvector.NewVector(embedding), time.Now(), id}
	}

	result, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update item embedding: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("item", "item not found")
	}

	return nil
}

// MarkFound transitions a lost item to "found" and records who reported it.
func (r *ItemsRepository) MarkFound(ctx context.Context, id uuid.UUID, foundBy string) (*models.Item, error) {
	query := `
		UPDATE items
		SET status = $1, found_by = $2, found_at = $3, updated_at = $3
		WHERE id = $4 AND category = $5
		RETURNING ` + itemColumns

	item, err := scanItem(r.db.QueryRow(ctx, query,
		models.StatusFound, foundBy, time.Now(), id, models.CategoryLost,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("item", "lost item not found")
		}

		return nil, fmt.Errorf("failed to mark item found: %w", err)
	}

	return item, nil
}

// MarkClaimed transitions an item to "claimed" and records the claimant.
func (r *ItemsRepository) MarkClaimed(ctx context.Context, id uuid.UUID, claimedBy string) (*models.Item, error) {
	query := `
		UPDATE items
		SET status = $1, claimed_by = $2, claimed_at = $3, updated_at = $3
		WHERE id = $4
		RETURNING ` + itemColumns

	item, err := scanItem(r.db.QueryRow(ctx, query,
		models.StatusClaimed, claimedBy, time.Now(), id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("item", "item not found")
		}

		return nil, fmt.Errorf("failed to mark item claimed: %w", err)
	}

	return item, nil
}

// ListIDsForEmbeddingBackfill returns IDs of items that have an image but no
// stored embedding yet.
func (r *ItemsRepository) ListIDsForEmbeddingBackfill(ctx context.Context) ([]uuid.UUID, error) {
	query := `
		SELECT id FROM items
		WHERE embedding IS NULL
		  AND image_path IS NOT NULL
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list ids for embedding backfill: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID

	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan item id: %w", err)
		}

		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating embedding backfill ids: %w", err)
	}

	return ids, nil
}

// NearestByEmbedding returns item IDs and similarity scores (0..1) for the
// nearest neighbors to queryEmbedding within one category. Only rows with
// score >= minScore are returned. Uses cosine distance (<=>);
// score = 1 - distance. excludeID optionally excludes one item (for the
// "similar" endpoint, so an item never matches itself).
func (r *ItemsRepository) NearestByEmbedding(
	ctx context.Context, category models.ItemCategory, queryEmbedding []float32,
	limit int, excludeID *uuid.UUID, minScore float64,
) ([]models.ItemWithScore, error) {
	queryVec := pgvector.NewVector(queryEmbedding)

	var (
		rows pgx.Rows
		err  error
	)

	if excludeID == nil {
		rows, err = r.db.Query(ctx, `
			SELECT id, name, (1 - (embedding <=> $1)) AS score
			FROM items
			WHERE category = $2 AND embedding IS NOT NULL AND (1 - (embedding <=> $1)) >= $3
			ORDER BY embedding <=> $1
			LIMIT $4`, queryVec, category, minScore, limit)
	} else {
		rows, err = r.db.Query(ctx, `
			SELECT id, name, (1 - (embedding <=> $1)) AS score
			FROM items
			WHERE category = $2 AND id != $3 AND embedding IS NOT NULL AND (1 - (embedding <=> $1)) >= $4
			ORDER BY embedding <=> $1
			LIMIT $5`, queryVec, category, *excludeID, minScore, limit)
	}

	if err != nil {
		return nil, fmt.Errorf("nearest items: %w", err)
	}

	defer rows.Close()

	var results []models.ItemWithScore

	for rows.Next() {
		var row models.ItemWithScore

		if err := rows.Scan(&row.ItemID, &row.Name, &row.Score); err != nil {
			return nil, fmt.Errorf("scan item with score: %w", err)
		}

		results = append(results, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating nearest items: %w", err)
	}

	return results, nil
}

// Delete removes an item.
func (r *ItemsRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM items WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("item", "item not found")
	}

	return nil
}
