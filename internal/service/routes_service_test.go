package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reunite-hq/reunite/internal/apperrors"
	"github.com/reunite-hq/reunite/internal/models"
)

type mockRoutesRepo struct {
	created []*models.RouteMap
	err     error
}

func (m *mockRoutesRepo) Create(_ context.Context, route *models.RouteMap) error {
	if m.err != nil {
		return m.err
	}

	m.created = append(m.created, route)

	return nil
}

func (m *mockRoutesRepo) ListByLostItem(_ context.Context, _ uuid.UUID) ([]models.RouteMap, error) {
	routes := []models.RouteMap{}
	for _, r := range m.created {
		routes = append(routes, *r)
	}

	return routes, nil
}

type mockRouteItems struct {
	items map[uuid.UUID]*models.Item
}

func (m *mockRouteItems) GetByID(_ context.Context, id uuid.UUID) (*models.Item, error) {
	item, ok := m.items[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("item", "item not found")
	}

	return item, nil
}

type mockRouteMatches struct {
	results []models.MatchResult
}

func (m *mockRouteMatches) ListByItem(_ context.Context, _ uuid.UUID) ([]models.MatchResult, error) {
	return m.results, nil
}

func geoItem(category models.ItemCategory, lat, lng float64) *models.Item {
	return &models.Item{
		ID:        uuid.Must(uuid.NewV7()),
		Category:  category,
		Name:      "Umbrella",
		Latitude:  &lat,
		Longitude: &lng,
	}
}

func TestRoutesService_GenerateRoute(t *testing.T) {
	ctx := context.Background()

	t.Run("routes to the most recent matched found item", func(t *testing.T) {
		// Nairobi CBD to Westlands, roughly 3.2 km apart.
		lost := geoItem(models.CategoryLost, -1.2833, 36.8167)
		older := geoItem(models.CategoryFound, -1.30, 36.80)
		newer := geoItem(models.CategoryFound, -1.2665, 36.8029)

		items := &mockRouteItems{items: map[uuid.UUID]*models.Item{
			lost.ID: lost, older.ID: older, newer.ID: newer,
		}}
		matches := &mockRouteMatches{results: []models.MatchResult{
			{LostItemID: lost.ID, FoundItemID: newer.ID, Status: models.StatusMatched},
			{LostItemID: lost.ID, FoundItemID: older.ID, Status: models.StatusMatched},
		}}
		repo := &mockRoutesRepo{}

		svc := NewRoutesService(repo, items, matches, nil)

		route, err := svc.GenerateRoute(ctx, lost.ID)
		require.NoError(t, err)
		require.Len(t, repo.created, 1)

		assert.Equal(t, lost.ID, route.LostItemID)
		assert.Equal(t, newer.ID, route.FoundItemID)
		assert.Equal(t, models.RoutePoint{Lat: -1.2833, Lng: 36.8167}, route.RouteData.Start)
		assert.Equal(t, models.RoutePoint{Lat: -1.2665, Lng: 36.8029}, route.RouteData.End)
		assert.InDelta(t, 2.4, route.RouteData.DistanceKM, 0.5)
		require.NotEmpty(t, route.RouteData.Steps)
		assert.Contains(t, route.RouteData.Steps[0].Instruction, "north")
	})

	t.Run("skips not_matched results", func(t *testing.T) {
		lost := geoItem(models.CategoryLost, 0, 0)
		nearMiss := geoItem(models.CategoryFound, 1, 1)

		items := &mockRouteItems{items: map[uuid.UUID]*models.Item{
			lost.ID: lost, nearMiss.ID: nearMiss,
		}}
		matches := &mockRouteMatches{results: []models.MatchResult{
			{LostItemID: lost.ID, FoundItemID: nearMiss.ID, Status: models.StatusNotMatched},
		}}

		svc := NewRoutesService(&mockRoutesRepo{}, items, matches, nil)

		_, err := svc.GenerateRoute(ctx, lost.ID)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("rejects found-category items", func(t *testing.T) {
		found := geoItem(models.CategoryFound, 0, 0)
		items := &mockRouteItems{items: map[uuid.UUID]*models.Item{found.ID: found}}

		svc := NewRoutesService(&mockRoutesRepo{}, items, &mockRouteMatches{}, nil)

		_, err := svc.GenerateRoute(ctx, found.ID)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("rejects lost item without coordinates", func(t *testing.T) {
		lost := &models.Item{ID: uuid.Must(uuid.NewV7()), Category: models.CategoryLost}
		items := &mockRouteItems{items: map[uuid.UUID]*models.Item{lost.ID: lost}}

		svc := NewRoutesService(&mockRoutesRepo{}, items, &mockRouteMatches{}, nil)

		_, err := svc.GenerateRoute(ctx, lost.ID)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("rejects matched found item without coordinates", func(t *testing.T) {
		lost := geoItem(models.CategoryLost, 0, 0)
		found := &models.Item{ID: uuid.Must(uuid.NewV7()), Category: models.CategoryFound}

		items := &mockRouteItems{items: map[uuid.UUID]*models.Item{
			lost.ID: lost, found.ID: found,
		}}
		matches := &mockRouteMatches{results: []models.MatchResult{
			{LostItemID: lost.ID, FoundItemID: found.ID, Status: models.StatusMatched},
		}}

		svc := NewRoutesService(&mockRoutesRepo{}, items, matches, nil)

		_, err := svc.GenerateRoute(ctx, lost.ID)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("unknown item", func(t *testing.T) {
		svc := NewRoutesService(&mockRoutesRepo{}, &mockRouteItems{items: map[uuid.UUID]*models.Item{}}, &mockRouteMatches{}, nil)

		_, err := svc.GenerateRoute(ctx, uuid.Must(uuid.NewV7()))
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestHaversineKM(t *testing.T) {
	// London to Paris, roughly 344 km.
	london := models.RoutePoint{Lat: 51.5074, Lng: -0.1278}
	paris := models.RoutePoint{Lat: 48.8566, Lng: 2.3522}

	assert.InDelta(t, 344, haversineKM(london, paris), 5)
	assert.Zero(t, haversineKM(london, london))
}
