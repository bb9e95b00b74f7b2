package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/reunite-hq/reunite/internal/models"
	"github.com/reunite-hq/reunite/internal/observability"
	"github.com/reunite-hq/reunite/internal/vision"
	"github.com/reunite-hq/reunite/pkg/cache"
)

// EmbeddingRepository persists computed embeddings back onto item rows.
type EmbeddingRepository interface {
	UpdateEmbedding(ctx context.Context, id uuid.UUID, embedding []float32) error
}

// ImageReader loads stored item images.
type ImageReader interface {
	Read(relPath string) ([]byte, error)
}

// EmbeddingProvider resolves embeddings for items. Resolution order: the
// embedding already on the item row, then the in-process cache, then a fresh
// extraction from the stored image. Fresh extractions are written back to the
// row so the next sweep skips the model entirely.
type EmbeddingProvider struct {
	repo      EmbeddingRepository
	images    ImageReader
	extractor vision.Extractor
	cache     *cache.LoaderCache[uuid.UUID, []float32]
	metrics   observability.ExtractionMetrics
	logger    *slog.Logger
}

// NewEmbeddingProvider creates an embedding provider with an LRU cache of
// cacheSize vectors. metrics may be nil when metrics are disabled.
func NewEmbeddingProvider(
	repo EmbeddingRepository, images ImageReader, extractor vision.Extractor,
	cacheSize int, metrics observability.ExtractionMetrics, logger *slog.Logger,
) (*EmbeddingProvider, error) {
	c, err := cache.NewLoaderCache[uuid.UUID, []float32](cacheSize, func(id uuid.UUID) string {
		return id.String()
	})
	if err != nil {
		return nil, fmt.Errorf("embedding cache: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &EmbeddingProvider{
		repo:      repo,
		images:    images,
		extractor: extractor,
		cache:     c,
		metrics:   metrics,
		logger:    logger,
	}, nil
}

// EmbeddingFor returns the embedding for item. Errors pass through
// vision.ErrUnavailable untouched so callers can distinguish degraded mode
// from a per-item problem.
func (p *EmbeddingProvider) EmbeddingFor(ctx context.Context, item *models.Item) ([]float32, error) {
	if item.Embedding != nil {
		return item.Embedding, nil
	}

	if !item.HasImage() {
		return nil, fmt.Errorf("item %s: %w", item.ID, vision.ErrUndecodable)
	}

	return p.cache.Get(ctx, item.ID, func(ctx context.Context, id uuid.UUID) ([]float32, error) {
		return p.extract(ctx, item)
	})
}

func (p *EmbeddingProvider) extract(ctx context.Context, item *models.Item) ([]float32, error) {
	start := time.Now()

	data, err := p.images.Read(*item.ImagePath)
	if err != nil {
		p.record(ctx, start, "image_read_failed")

		return nil, fmt.Errorf("item %s image: %w", item.ID, err)
	}

	embedding, err := p.extractor.Extract(ctx, data)
	if err != nil {
		outcome := "failed"
		if errors.Is(err, vision.ErrUnavailable) {
			outcome = "unavailable"
		}

		p.record(ctx, start, outcome)

		return nil, err
	}

	p.record(ctx, start, "ok")

	// Best-effort write-back; a failure here only costs a re-extraction.
	if err := p.repo.UpdateEmbedding(ctx, item.ID, embedding); err != nil {
		p.logger.Warn("embedding not persisted", "item_id", item.ID, "error", err)
	}

	return embedding, nil
}

func (p *EmbeddingProvider) record(ctx context.Context, start time.Time, outcome string) {
	if p.metrics == nil {
		return
	}

	p.metrics.RecordExtraction(ctx, outcome)
	p.metrics.RecordExtractionDuration(ctx, time.Since(start), outcome)
}

// Invalidate drops the cached embedding for an item, e.g. after its image
// changes.
func (p *EmbeddingProvider) Invalidate(id uuid.UUID) {
	p.cache.Invalidate(id)
}
