package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reunite-hq/reunite/internal/models"
)

const routeMapColumns = `id, lost_item_id, found_item_id, route_data, created_at`

// RoutesRepository handles data access for generated pickup routes.
type RoutesRepository struct {
	db *pgxpool.Pool
}

// NewRoutesRepository creates a new routes repository.
func NewRoutesRepository(db *pgxpool.Pool) *RoutesRepository {
	return &RoutesRepository{db: db}
}

// Create inserts a route map row and fills in the stored created_at.
func (r *RoutesRepository) Create(ctx context.Context, route *models.RouteMap) error {
	data, err := json.Marshal(route.RouteData)
	if err != nil {
		return fmt.Errorf("failed to encode route data: %w", err)
	}

	query := `
		INSERT INTO route_maps (id, lost_item_id, found_item_id, route_data)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`

	err = r.db.QueryRow(ctx, query,
		route.ID, route.LostItemID, route.FoundItemID, data,
	).Scan(&route.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create route map: %w", err)
	}

	return nil
}

// ListByLostItem retrieves the routes generated for a lost item, newest first.
func (r *RoutesRepository) ListByLostItem(ctx context.Context, lostItemID uuid.UUID) ([]models.RouteMap, error) {
	query := `SELECT ` + routeMapColumns + `
		FROM route_maps WHERE lost_item_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, lostItemID)
	if err != nil {
		return nil, fmt.Errorf("failed to list route maps: %w", err)
	}
	defer rows.Close()

	routes := []models.RouteMap{} // Initialize as empty slice, not nil

	for rows.Next() {
		var (
			route models.RouteMap
			data  []byte
		)

		err := rows.Scan(&route.ID, &route.LostItemID, &route.FoundItemID, &data, &route.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan route map: %w", err)
		}

		if err := json.Unmarshal(data, &route.RouteData); err != nil {
			return nil, fmt.Errorf("failed to decode route data: %w", err)
		}

		routes = append(routes, route)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate route maps: %w", err)
	}

	return routes, nil
}
