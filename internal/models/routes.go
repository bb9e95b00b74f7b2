package models

import (
	"time"

	"github.com/google/uuid"
)

// RoutePoint is one geographic coordinate on a route.
type RoutePoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// RouteStep is one leg of the pickup directions.
type RouteStep struct {
	Instruction string `json:"instruction"`
}

// RouteData is the generated route payload, stored as JSON on the route map
// row.
type RouteData struct {
	Start      RoutePoint  `json:"start"`
	End        RoutePoint  `json:"end"`
	DistanceKM float64     `json:"distance_km"`
	Steps      []RouteStep `json:"steps"`
}

// RouteMap links a lost item to the found item it matched against, with the
// generated pickup route between their reported locations.
type RouteMap struct {
	ID          uuid.UUID `json:"id"`
	LostItemID  uuid.UUID `json:"lost_item_id"`
	FoundItemID uuid.UUID `json:"found_item_id"`
	RouteData   RouteData `json:"route_data"`
	CreatedAt   time.Time `json:"created_at"`
}
