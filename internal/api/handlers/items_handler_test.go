package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reunite-hq/reunite/internal/apperrors"
	"github.com/reunite-hq/reunite/internal/models"
	"github.com/reunite-hq/reunite/internal/service"
	"github.com/reunite-hq/reunite/internal/vision"
)

// mockItemsService mocks ItemsService for handler tests.
type mockItemsService struct {
	createFunc  func(ctx context.Context, category models.ItemCategory, req *models.CreateItemRequest, image *service.ImageUpload) (*models.Item, error)
	getFunc     func(ctx context.Context, id uuid.UUID) (*models.Item, error)
	similarFunc func(ctx context.Context, id uuid.UUID, limit int, minScore float64) ([]models.ItemWithScore, error)
}

func (m *mockItemsService) CreateItem(ctx context.Context, category models.ItemCategory, req *models.CreateItemRequest, image *service.ImageUpload) (*models.Item, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, category, req, image)
	}

	return &models.Item{ID: uuid.Must(uuid.NewV7()), Category: category, Name: req.Name}, nil
}

func (m *mockItemsService) GetItem(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}

	return &models.Item{ID: id}, nil
}

func (m *mockItemsService) ListItems(context.Context, models.ItemCategory, *models.ListItemsFilters) ([]models.Item, error) {
	return []models.Item{}, nil
}

func (m *mockItemsService) MarkFound(_ context.Context, id uuid.UUID, req *models.MarkFoundRequest) (*models.Item, error) {
	foundBy := req.FinderName

	return &models.Item{ID: id, Status: models.StatusFound, FoundBy: &foundBy}, nil
}

func (m *mockItemsService) SimilarItems(ctx context.Context, id uuid.UUID, limit int, minScore float64) ([]models.ItemWithScore, error) {
	if m.similarFunc != nil {
		return m.similarFunc(ctx, id, limit, minScore)
	}

	return []models.ItemWithScore{}, nil
}

func (m *mockItemsService) DeleteItem(context.Context, uuid.UUID) error {
	return nil
}

func TestItemsHandler_Create(t *testing.T) {
	t.Run("json body creates a lost item", func(t *testing.T) {
		var gotCategory models.ItemCategory

		mock := &mockItemsService{
			createFunc: func(_ context.Context, category models.ItemCategory, req *models.CreateItemRequest, image *service.ImageUpload) (*models.Item, error) {
				gotCategory = category

				assert.Equal(t, "Blue backpack", req.Name)
				assert.Nil(t, image)

				return &models.Item{ID: uuid.Must(uuid.NewV7()), Category: category, Name: req.Name}, nil
			},
		}
		h := NewItemsHandler(mock)

		body := `{"name":"Blue backpack","description":"Left on the 8:15 train"}`
		req := httptest.NewRequest(http.MethodPost, "http://test/v1/lost-items", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()

		h.CreateLost(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, models.CategoryLost, gotCategory)
	})

	t.Run("multipart body carries the image part", func(t *testing.T) {
		var gotUpload *service.ImageUpload

		mock := &mockItemsService{
			createFunc: func(_ context.Context, category models.ItemCategory, req *models.CreateItemRequest, image *service.ImageUpload) (*models.Item, error) {
				gotUpload = image

				return &models.Item{ID: uuid.Must(uuid.NewV7()), Category: category, Name: req.Name}, nil
			},
		}
		h := NewItemsHandler(mock)

		var buf bytes.Buffer

		mw := multipart.NewWriter(&buf)
		require.NoError(t, mw.WriteField("name", "Black umbrella"))
		require.NoError(t, mw.WriteField("description", "Found near the entrance"))

		part, err := mw.CreateFormFile("image", "umbrella.jpg")
		require.NoError(t, err)
		_, err = part.Write([]byte("fake jpeg"))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "http://test/v1/found-items", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		rec := httptest.NewRecorder()

		h.CreateFound(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		require.NotNil(t, gotUpload)
		assert.Equal(t, "umbrella.jpg", gotUpload.Filename)
	})

	t.Run("missing required fields returns 400 with details", func(t *testing.T) {
		h := NewItemsHandler(&mockItemsService{})

		req := httptest.NewRequest(http.MethodPost, "http://test/v1/lost-items", strings.NewReader(`{"name":"x"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()

		h.CreateLost(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Description")
	})

	t.Run("unsupported content type returns 400", func(t *testing.T) {
		h := NewItemsHandler(&mockItemsService{})

		req := httptest.NewRequest(http.MethodPost, "http://test/v1/lost-items", strings.NewReader("name=x"))
		req.Header.Set("Content-Type", "text/plain")
		rec := httptest.NewRecorder()

		h.CreateLost(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestItemsHandler_Get(t *testing.T) {
	t.Run("invalid uuid returns 400", func(t *testing.T) {
		h := NewItemsHandler(&mockItemsService{})

		req := httptest.NewRequest(http.MethodGet, "http://test/v1/items/not-a-uuid", http.NoBody)
		req.SetPathValue("id", "not-a-uuid")
		rec := httptest.NewRecorder()

		h.Get(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("not found maps to 404", func(t *testing.T) {
		mock := &mockItemsService{
			getFunc: func(context.Context, uuid.UUID) (*models.Item, error) {
				return nil, apperrors.NewNotFoundError("item", "item not found")
			},
		}
		h := NewItemsHandler(mock)

		id := uuid.Must(uuid.NewV7())
		req := httptest.NewRequest(http.MethodGet, "http://test/v1/items/"+id.String(), http.NoBody)
		req.SetPathValue("id", id.String())
		rec := httptest.NewRecorder()

		h.Get(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	})
}

func TestItemsHandler_Similar(t *testing.T) {
	id := uuid.Must(uuid.NewV7())

	t.Run("degraded extractor maps to 503", func(t *testing.T) {
		mock := &mockItemsService{
			similarFunc: func(context.Context, uuid.UUID, int, float64) ([]models.ItemWithScore, error) {
				return nil, vision.ErrUnavailable
			},
		}
		h := NewItemsHandler(mock)

		req := httptest.NewRequest(http.MethodGet, "http://test/v1/items/"+id.String()+"/similar", http.NoBody)
		req.SetPathValue("id", id.String())
		rec := httptest.NewRecorder()

		h.Similar(rec, req)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("passes limit and min_score through", func(t *testing.T) {
		var gotLimit int

		var gotMinScore float64

		mock := &mockItemsService{
			similarFunc: func(_ context.Context, _ uuid.UUID, limit int, minScore float64) ([]models.ItemWithScore, error) {
				gotLimit = limit
				gotMinScore = minScore

				return []models.ItemWithScore{{ItemID: uuid.Must(uuid.NewV7()), Score: 0.91}}, nil
			},
		}
		h := NewItemsHandler(mock)

		req := httptest.NewRequest(http.MethodGet, "http://test/v1/items/"+id.String()+"/similar?limit=5&min_score=0.8", http.NoBody)
		req.SetPathValue("id", id.String())
		rec := httptest.NewRecorder()

		h.Similar(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 5, gotLimit)
		assert.InDelta(t, 0.8, gotMinScore, 1e-9)

		var resp struct {
			Count int `json:"count"`
		}

		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 1, resp.Count)
	})
}
