package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/reunite-hq/reunite/internal/api/response"
	"github.com/reunite-hq/reunite/internal/models"
)

// RoutesService defines the interface for pickup route generation.
type RoutesService interface {
	GenerateRoute(ctx context.Context, lostItemID uuid.UUID) (*models.RouteMap, error)
	ListRoutes(ctx context.Context, lostItemID uuid.UUID) ([]models.RouteMap, error)
}

// RoutesHandler handles HTTP requests for pickup routes.
type RoutesHandler struct {
	service RoutesService
}

// NewRoutesHandler creates a new routes handler.
func NewRoutesHandler(service RoutesService) *RoutesHandler {
	return &RoutesHandler{service: service}
}

// Generate handles POST /v1/lost-items/{id}/route. It builds a route from the
// lost item's reported location to that of its most recent matched found item.
func (h *RoutesHandler) Generate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	route, err := h.service.GenerateRoute(r.Context(), id)
	if err != nil {
		response.RespondAppError(w, err)

		return
	}

	response.RespondJSON(w, http.StatusCreated, route)
}

// List handles GET /v1/lost-items/{id}/routes.
func (h *RoutesHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	routes, err := h.service.ListRoutes(r.Context(), id)
	if err != nil {
		response.RespondAppError(w, err)

		return
	}

	response.RespondJSON(w, http.StatusOK, map[string]any{
		"data":  routes,
		"count": len(routes),
	})
}
