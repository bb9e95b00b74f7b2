package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"

	"github.com/reunite-hq/reunite/internal/models"
)

// ItemsRepository defines the data access needed by the items service.
type ItemsRepository interface {
	Create(ctx context.Context, category models.ItemCategory, req *models.CreateItemRequest, imagePath *string) (*models.Item, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error)
	List(ctx context.Context, category models.ItemCategory, filters *models.ListItemsFilters) ([]models.Item, error)
	ListCorpus(ctx context.Context, category models.ItemCategory) ([]*models.Item, error)
	MarkFound(ctx context.Context, id uuid.UUID, foundBy string) (*models.Item, error)
	NearestByEmbedding(ctx context.Context, category models.ItemCategory, queryEmbedding []float32, limit int, excludeID *uuid.UUID, minScore float64) ([]models.ItemWithScore, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ImageStore persists uploaded item images.
type ImageStore interface {
	Save(itemID uuid.UUID, originalName string, r io.Reader) (string, error)
	Remove(relPath string) error
}

// ImageUpload carries one multipart image part into the service layer.
type ImageUpload struct {
	Filename string
	Data     io.Reader
}

// ItemsService handles registration and retrieval of lost and found items.
type ItemsService struct {
	repo     ItemsRepository
	media    ImageStore
	inserter MatchSweepInserter
	embedder ItemEmbedder
	notify   FoundNotifier
	logger   *slog.Logger
}

// ItemEmbedder resolves the embedding for an item, used by the similar-items
// lookup.
type ItemEmbedder interface {
	EmbeddingFor(ctx context.Context, item *models.Item) ([]float32, error)
}

// FoundNotifier delivers the "your item was found" mail.
type FoundNotifier interface {
	DispatchFoundReport(ctx context.Context, lost *models.Item, finderName, finderContact string) error
}

// NewItemsService creates a new items service. inserter may be nil when the
// job queue is not running (e.g. CLI tools); sweeps are then skipped.
func NewItemsService(
	repo ItemsRepository, media ImageStore, inserter MatchSweepInserter,
	embedder ItemEmbedder, notify FoundNotifier, logger *slog.Logger,
) *ItemsService {
	if logger == nil {
		logger = slog.Default()
	}

	return &ItemsService{
		repo:     repo,
		media:    media,
		inserter: inserter,
		embedder: embedder,
		notify:   notify,
		logger:   logger,
	}
}

// CreateItem registers a lost or found item, stores its image when one was
// uploaded, and enqueues a match sweep. The sweep is best-effort: a queue
// failure is logged but the registration still succeeds.
func (s *ItemsService) CreateItem(
	ctx context.Context, category models.ItemCategory, req *models.CreateItemRequest, image *ImageUpload,
) (*models.Item, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("invalid item category %q", category)
	}

	// Stage the image under a pre-generated ID so the row and the file agree.
	itemID := uuid.Must(uuid.NewV7())

	var imagePath *string

	if image != nil {
		relPath, err := s.media.Save(itemID, image.Filename, image.Data)
		if err != nil {
			return nil, fmt.Errorf("save item image: %w", err)
		}

		imagePath = &relPath
	}

	item, err := s.repo.Create(ctx, category, req, imagePath)
	if err != nil {
		if imagePath != nil {
			if rmErr := s.media.Remove(*imagePath); rmErr != nil {
				s.logger.Warn("orphaned item image not removed", "path", *imagePath, "error", rmErr)
			}
		}

		return nil, err
	}

	s.enqueueSweep(ctx, item)

	return item, nil
}

func (s *ItemsService) enqueueSweep(ctx context.Context, item *models.Item) {
	if s.inserter == nil || !item.HasImage() {
		return
	}

	_, err := s.inserter.Insert(ctx, MatchSweepArgs{ItemID: item.ID}, &river.InsertOpts{
		Queue: MatchQueueName,
		UniqueOpts: river.UniqueOpts{
			ByArgs: true,
			ByState: []rivertype.JobState{
				rivertype.JobStatePending,
				rivertype.JobStateAvailable,
				rivertype.JobStateRunning,
				rivertype.JobStateRetryable,
				rivertype.JobStateScheduled,
			},
		},
	})
	if err != nil {
		s.logger.Error("match sweep not enqueued",
			"item_id", item.ID,
			"error", err,
		)
	}
}

// GetItem retrieves a single item by ID.
func (s *ItemsService) GetItem(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	return s.repo.GetByID(ctx, id)
}

// ListItems retrieves items of one category with clamped paging.
func (s *ItemsService) ListItems(
	ctx context.Context, category models.ItemCategory, filters *models.ListItemsFilters,
) ([]models.Item, error) {
	if filters.Limit <= 0 {
		filters.Limit = 100 // Default limit
	}

	if filters.Limit > 1000 {
		filters.Limit = 1000 // Max limit
	}

	return s.repo.List(ctx, category, filters)
}

// MarkFound transitions a lost item to found and mails the owner the finder's
// contact details. The mail is best-effort: a delivery failure is logged but
// the transition stands.
func (s *ItemsService) MarkFound(ctx context.Context, id uuid.UUID, req *models.MarkFoundRequest) (*models.Item, error) {
	item, err := s.repo.MarkFound(ctx, id, req.FinderName)
	if err != nil {
		return nil, err
	}

	if s.notify != nil {
		if err := s.notify.DispatchFoundReport(ctx, item, req.FinderName, req.FinderContact); err != nil {
			s.logger.Error("found report mail not sent", "item_id", id, "error", err)
		}
	}

	return item, nil
}

// SimilarItems returns the nearest stored items of the opposite category to
// the given item, by cosine similarity over stored embeddings.
func (s *ItemsService) SimilarItems(ctx context.Context, id uuid.UUID, limit int, minScore float64) ([]models.ItemWithScore, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	embedding, err := s.embedder.EmbeddingFor(ctx, item)
	if err != nil {
		return nil, fmt.Errorf("similar items: %w", err)
	}

	if limit <= 0 {
		limit = 10
	}

	if limit > 100 {
		limit = 100
	}

	return s.repo.NearestByEmbedding(ctx, item.Category.Opposite(), embedding, limit, nil, minScore)
}

// DeleteItem removes an item and its stored image.
func (s *ItemsService) DeleteItem(ctx context.Context, id uuid.UUID) error {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if item.HasImage() {
		if err := s.media.Remove(*item.ImagePath); err != nil {
			s.logger.Warn("item image not removed", "item_id", id, "error", err)
		}
	}

	return nil
}
