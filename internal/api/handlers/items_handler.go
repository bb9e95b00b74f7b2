// Package handlers contains the HTTP handlers for the REST API.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/reunite-hq/reunite/internal/api/response"
	"github.com/reunite-hq/reunite/internal/api/validation"
	"github.com/reunite-hq/reunite/internal/models"
	"github.com/reunite-hq/reunite/internal/service"
	"github.com/reunite-hq/reunite/internal/storage"
	"github.com/reunite-hq/reunite/internal/vision"
)

// ItemsService defines the interface for item business logic.
type ItemsService interface {
	CreateItem(ctx context.Context, category models.ItemCategory, req *models.CreateItemRequest, image *service.ImageUpload) (*models.Item, error)
	GetItem(ctx context.Context, id uuid.UUID) (*models.Item, error)
	ListItems(ctx context.Context, category models.ItemCategory, filters *models.ListItemsFilters) ([]models.Item, error)
	MarkFound(ctx context.Context, id uuid.UUID, req *models.MarkFoundRequest) (*models.Item, error)
	SimilarItems(ctx context.Context, id uuid.UUID, limit int, minScore float64) ([]models.ItemWithScore, error)
	DeleteItem(ctx context.Context, id uuid.UUID) error
}

// ItemsHandler handles HTTP requests for lost and found items.
type ItemsHandler struct {
	service ItemsService
}

// NewItemsHandler creates a new items handler.
func NewItemsHandler(service ItemsService) *ItemsHandler {
	return &ItemsHandler{service: service}
}

// maxMultipartMemory bounds the in-memory portion of multipart parsing;
// larger parts spill to temp files.
const maxMultipartMemory = 4 << 20

// CreateLost handles POST /v1/lost-items.
func (h *ItemsHandler) CreateLost(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, models.CategoryLost)
}

// CreateFound handles POST /v1/found-items.
func (h *ItemsHandler) CreateFound(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, models.CategoryFound)
}

// create accepts either a multipart form (fields plus an optional "image"
// part) or a plain JSON body for image-less reports.
func (h *ItemsHandler) create(w http.ResponseWriter, r *http.Request, category models.ItemCategory) {
	var (
		req   models.CreateItemRequest
		image *service.ImageUpload
	)

	contentType := r.Header.Get("Content-Type")

	switch {
	case strings.HasPrefix(contentType, "multipart/form-data"):
		file, upload, err := h.parseMultipart(r, &req)
		if err != nil {
			response.RespondBadRequest(w, err.Error())

			return
		}

		if file != nil {
			defer file.Close()

			image = upload
		}
	case strings.HasPrefix(contentType, "application/json"):
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.RespondBadRequest(w, "Invalid request body")

			return
		}
	default:
		response.RespondBadRequest(w, "Content-Type must be multipart/form-data or application/json")

		return
	}

	if err := validation.ValidateStruct(&req); err != nil {
		validation.RespondValidationError(w, err)

		return
	}

	item, err := h.service.CreateItem(r.Context(), category, &req, image)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedType) {
			response.RespondBadRequest(w, err.Error())

			return
		}

		response.RespondAppError(w, err)

		return
	}

	response.RespondJSON(w, http.StatusCreated, item)
}

func (h *ItemsHandler) parseMultipart(r *http.Request, req *models.CreateItemRequest) (multipart.File, *service.ImageUpload, error) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return nil, nil, errors.New("invalid multipart form")
	}

	req.Name = r.FormValue("name")
	req.Description = r.FormValue("description")

	if v := r.FormValue("location"); v != "" {
		req.Location = &v
	}

	if v := r.FormValue("email"); v != "" {
		req.Email = &v
	}

	if v := r.FormValue("phone"); v != "" {
		req.Phone = &v
	}

	if v := r.FormValue("latitude"); v != "" {
		lat, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, nil, errors.New("latitude must be a number")
		}

		req.Latitude = &lat
	}

	if v := r.FormValue("longitude"); v != "" {
		lng, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, nil, errors.New("longitude must be a number")
		}

		req.Longitude = &lng
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil, nil
		}

		return nil, nil, errors.New("invalid image part")
	}

	return file, &service.ImageUpload{Filename: header.Filename, Data: file}, nil
}

// ListLost handles GET /v1/lost-items.
func (h *ItemsHandler) ListLost(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, models.CategoryLost)
}

// ListFound handles GET /v1/found-items.
func (h *ItemsHandler) ListFound(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, models.CategoryFound)
}

func (h *ItemsHandler) list(w http.ResponseWriter, r *http.Request, category models.ItemCategory) {
	filters := &models.ListItemsFilters{}
	if err := validation.DecodeQueryParams(r, filters); err != nil {
		response.RespondBadRequest(w, err.Error())

		return
	}

	items, err := h.service.ListItems(r.Context(), category, filters)
	if err != nil {
		response.RespondAppError(w, err)

		return
	}

	response.RespondJSON(w, http.StatusOK, map[string]any{
		"data":  items,
		"count": len(items),
	})
}

// Get handles GET /v1/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	item, err := h.service.GetItem(r.Context(), id)
	if err != nil {
		response.RespondAppError(w, err)

		return
	}

	response.RespondJSON(w, http.StatusOK, item)
}

// Delete handles DELETE /v1/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteItem(r.Context(), id); err != nil {
		response.RespondAppError(w, err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// MarkFound handles POST /v1/lost-items/{id}/found.
func (h *ItemsHandler) MarkFound(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	var req models.MarkFoundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondBadRequest(w, "Invalid request body")

		return
	}

	if err := validation.ValidateStruct(&req); err != nil {
		validation.RespondValidationError(w, err)

		return
	}

	item, err := h.service.MarkFound(r.Context(), id, &req)
	if err != nil {
		response.RespondAppError(w, err)

		return
	}

	response.RespondJSON(w, http.StatusOK, item)
}

// Similar handles GET /v1/items/{id}/similar.
func (h *ItemsHandler) Similar(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			response.RespondBadRequest(w, "limit must be a positive integer")

			return
		}

		limit = n
	}

	minScore := 0.0
	if v := r.URL.Query().Get("min_score"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < -1 || f > 1 {
			response.RespondBadRequest(w, "min_score must be a number in [-1, 1]")

			return
		}

		minScore = f
	}

	results, err := h.service.SimilarItems(r.Context(), id, limit, minScore)
	if err != nil {
		if errors.Is(err, vision.ErrUnavailable) {
			response.RespondServiceUnavailable(w, "similarity search is temporarily unavailable")

			return
		}

		if errors.Is(err, vision.ErrUndecodable) {
			response.RespondBadRequest(w, "item has no usable image")

			return
		}

		response.RespondAppError(w, err)

		return
	}

	if results == nil {
		results = []models.ItemWithScore{}
	}

	response.RespondJSON(w, http.StatusOK, map[string]any{
		"data":  results,
		"count": len(results),
	})
}

// parseIDParam extracts and parses the {id} path value, responding with 400
// on failure.
func parseIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	idStr := r.PathValue("id")
	if idStr == "" {
		response.RespondBadRequest(w, "Item ID is required")

		return uuid.Nil, false
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		response.RespondBadRequest(w, "Invalid UUID format")

		return uuid.Nil, false
	}

	return id, true
}
