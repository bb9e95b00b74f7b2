package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/reunite-hq/reunite/internal/api/response"
	"github.com/reunite-hq/reunite/internal/models"
)

// MatchResultsRepository defines the read access for match results.
type MatchResultsRepository interface {
	ListByItem(ctx context.Context, itemID uuid.UUID) ([]models.MatchResult, error)
	ListMatched(ctx context.Context, limit, offset int) ([]models.MatchResult, error)
}

// MatchesHandler serves the comparison history.
type MatchesHandler struct {
	repo MatchResultsRepository
}

// NewMatchesHandler creates a new matches handler.
func NewMatchesHandler(repo MatchResultsRepository) *MatchesHandler {
	return &MatchesHandler{repo: repo}
}

// List handles GET /v1/matches: comparisons that cleared their threshold,
// newest first.
func (h *MatchesHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 100

	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			response.RespondBadRequest(w, "limit must be a positive integer")

			return
		}

		if n > 1000 {
			n = 1000
		}

		limit = n
	}

	offset := 0

	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			response.RespondBadRequest(w, "offset must be a non-negative integer")

			return
		}

		offset = n
	}

	results, err := h.repo.ListMatched(r.Context(), limit, offset)
	if err != nil {
		response.RespondAppError(w, err)

		return
	}

	response.RespondJSON(w, http.StatusOK, map[string]any{
		"data":  results,
		"count": len(results),
	})
}

// ListByItem handles GET /v1/items/{id}/matches: every comparison the item
// was part of, matched or not.
func (h *MatchesHandler) ListByItem(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	results, err := h.repo.ListByItem(r.Context(), id)
	if err != nil {
		response.RespondAppError(w, err)

		return
	}

	response.RespondJSON(w, http.StatusOK, map[string]any{
		"data":  results,
		"count": len(results),
	})
}
