package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/reunite-hq/reunite/internal/api/response"
	"github.com/reunite-hq/reunite/internal/api/validation"
	"github.com/reunite-hq/reunite/internal/models"
)

// ClaimsService defines the interface for the claims workflow.
type ClaimsService interface {
	CreateClaim(ctx context.Context, lostItemID uuid.UUID, req *models.CreateClaimRequest) (*models.PendingClaim, error)
	VerifyClaim(ctx context.Context, token string, approve bool) (*models.PendingClaim, error)
	ListClaims(ctx context.Context, lostItemID uuid.UUID) ([]models.PendingClaim, error)
}

// ClaimsHandler handles HTTP requests for ownership claims.
type ClaimsHandler struct {
	service ClaimsService
}

// NewClaimsHandler creates a new claims handler.
func NewClaimsHandler(service ClaimsService) *ClaimsHandler {
	return &ClaimsHandler{service: service}
}

// Create handles POST /v1/lost-items/{id}/claims.
func (h *ClaimsHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	var req models.CreateClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondBadRequest(w, "Invalid request body")

		return
	}

	if err := validation.ValidateStruct(&req); err != nil {
		validation.RespondValidationError(w, err)

		return
	}

	claim, err := h.service.CreateClaim(r.Context(), id, &req)
	if err != nil {
		response.RespondAppError(w, err)

		return
	}

	response.RespondJSON(w, http.StatusCreated, claim)
}

// List handles GET /v1/lost-items/{id}/claims.
func (h *ClaimsHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	claims, err := h.service.ListClaims(r.Context(), id)
	if err != nil {
		response.RespondAppError(w, err)

		return
	}

	response.RespondJSON(w, http.StatusOK, map[string]any{
		"data":  claims,
		"count": len(claims),
	})
}

// Verify handles GET /v1/claims/verify?token=...&approve=true|false. The
// route is public: it is the target of the link mailed to the item's owner.
func (h *ClaimsHandler) Verify(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		response.RespondBadRequest(w, "token is required")

		return
	}

	// Absent approve defaults to approval; the mail links carry it explicitly.
	approve := r.URL.Query().Get("approve") != "false"

	claim, err := h.service.VerifyClaim(r.Context(), token, approve)
	if err != nil {
		response.RespondAppError(w, err)

		return
	}

	response.RespondJSON(w, http.StatusOK, claim)
}
