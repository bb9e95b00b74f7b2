package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"

	"github.com/reunite-hq/reunite/internal/apperrors"
	"github.com/reunite-hq/reunite/internal/models"
)

// RoutesRepository defines the data access needed by the routes service.
type RoutesRepository interface {
	Create(ctx context.Context, route *models.RouteMap) error
	ListByLostItem(ctx context.Context, lostItemID uuid.UUID) ([]models.RouteMap, error)
}

// routeItemsRepository is the slice of item access route generation needs.
type routeItemsRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error)
}

// routeMatchSource finds the match results a lost item participated in.
type routeMatchSource interface {
	ListByItem(ctx context.Context, itemID uuid.UUID) ([]models.MatchResult, error)
}

// RoutesService generates pickup routes from a lost item's reported location
// to the location of the found item it matched against.
type RoutesService struct {
	routes  RoutesRepository
	items   routeItemsRepository
	matches routeMatchSource
	logger  *slog.Logger
}

// NewRoutesService creates a routes service.
func NewRoutesService(routes RoutesRepository, items routeItemsRepository, matches routeMatchSource, logger *slog.Logger) *RoutesService {
	if logger == nil {
		logger = slog.Default()
	}

	return &RoutesService{
		routes:  routes,
		items:   items,
		matches: matches,
		logger:  logger,
	}
}

// GenerateRoute builds and persists a route between a lost item and the found
// item from its most recent match. Both items must carry coordinates.
func (s *RoutesService) GenerateRoute(ctx context.Context, lostItemID uuid.UUID) (*models.RouteMap, error) {
	lost, err := s.items.GetByID(ctx, lostItemID)
	if err != nil {
		return nil, err
	}

	if lost.Category != models.CategoryLost {
		return nil, apperrors.NewValidationError("id", "routes can only be generated for lost items")
	}

	if !lost.HasCoordinates() {
		return nil, apperrors.NewValidationError("id", "lost item has no reported location")
	}

	foundID, err := s.latestMatchedFoundItem(ctx, lostItemID)
	if err != nil {
		return nil, err
	}

	found, err := s.items.GetByID(ctx, foundID)
	if err != nil {
		return nil, err
	}

	if !found.HasCoordinates() {
		return nil, apperrors.NewValidationError("id", "matched found item has no reported location")
	}

	route := &models.RouteMap{
		ID:          uuid.Must(uuid.NewV7()),
		LostItemID:  lost.ID,
		FoundItemID: found.ID,
		RouteData:   buildRouteData(lost, found),
	}

	if err := s.routes.Create(ctx, route); err != nil {
		return nil, err
	}

	s.logger.Info("route generated",
		"lost_item_id", lost.ID,
		"found_item_id", found.ID,
		"distance_km", route.RouteData.DistanceKM,
	)

	return route, nil
}

// ListRoutes retrieves the routes generated for a lost item.
func (s *RoutesService) ListRoutes(ctx context.Context, lostItemID uuid.UUID) ([]models.RouteMap, error) {
	return s.routes.ListByLostItem(ctx, lostItemID)
}

// latestMatchedFoundItem returns the found item from the lost item's most
// recent matched result. ListByItem returns newest first.
func (s *RoutesService) latestMatchedFoundItem(ctx context.Context, lostItemID uuid.UUID) (uuid.UUID, error) {
	results, err := s.matches.ListByItem(ctx, lostItemID)
	if err != nil {
		return uuid.Nil, err
	}

	for _, result := range results {
		if result.Matched() && result.LostItemID == lostItemID {
			return result.FoundItemID, nil
		}
	}

	return uuid.Nil, apperrors.NewNotFoundError("match", "no matched found item for this lost item")
}

func buildRouteData(lost, found *models.Item) models.RouteData {
	start := models.RoutePoint{Lat: *lost.Latitude, Lng: *lost.Longitude}
	end := models.RoutePoint{Lat: *found.Latitude, Lng: *found.Longitude}

	distance := haversineKM(start, end)

	return models.RouteData{
		Start:      start,
		End:        end,
		DistanceKM: distance,
		Steps: []models.RouteStep{
			{Instruction: fmt.Sprintf("Head %s for %.1f km", compassDirection(start, end), distance)},
			{Instruction: "Arrive at the reported found location"},
		},
	}
}

const earthRadiusKM = 6371.0

// haversineKM returns the great-circle distance between two points.
func haversineKM(a, b models.RoutePoint) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)

	return 2 * earthRadiusKM * math.Asin(math.Sqrt(h))
}

// compassDirection names the initial bearing from a to b in eight points.
func compassDirection(a, b models.RoutePoint) string {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	y := math.Sin(dLng) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLng)

	bearing := math.Atan2(y, x) * 180 / math.Pi
	if bearing < 0 {
		bearing += 360
	}

	directions := []string{"north", "northeast", "east", "southeast", "south", "southwest", "west", "northwest"}

	return directions[int(math.Round(bearing/45))%8]
}
