package vision

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// LazyExtractor defers model loading to the first Extract call so the process
// starts fast, and coordinates concurrent first use so the model loads at
// most once. If initialization fails the extractor enters degraded mode
// permanently: the failure is logged once and every subsequent call returns
// ErrUnavailable without retrying. The loaded extractor is read-only and
// shared across concurrent callers.
type LazyExtractor struct {
	factory func(ctx context.Context) (Extractor, error)
	dims    int

	initGroup singleflight.Group
	degraded  atomic.Bool
	logOnce   sync.Once

	mu    sync.RWMutex
	inner Extractor
}

// Ensure LazyExtractor implements Extractor.
var _ Extractor = (*LazyExtractor)(nil)

// NewLazyExtractor creates a lazily initialized extractor. factory is invoked
// at most once, on first use.
func NewLazyExtractor(dims int, factory func(ctx context.Context) (Extractor, error)) *LazyExtractor {
	return &LazyExtractor{factory: factory, dims: dims}
}

// Extract initializes the underlying extractor on first call, then delegates.
func (l *LazyExtractor) Extract(ctx context.Context, imageData []byte) ([]float32, error) {
	inner, err := l.get(ctx)
	if err != nil {
		return nil, err
	}

	return inner.Extract(ctx, imageData)
}

// Dimensions returns the model's output vector length.
func (l *LazyExtractor) Dimensions() int {
	return l.dims
}

// Degraded reports whether initialization has failed. Once true it stays
// true for the process lifetime.
func (l *LazyExtractor) Degraded() bool {
	return l.degraded.Load()
}

func (l *LazyExtractor) get(ctx context.Context) (Extractor, error) {
	if l.degraded.Load() {
		return nil, ErrUnavailable
	}

	l.mu.RLock()
	inner := l.inner
	l.mu.RUnlock()

	if inner != nil {
		return inner, nil
	}

	// Coalesce concurrent first use so the model is loaded exactly once.
	_, err, _ := l.initGroup.Do("init", func() (any, error) {
		l.mu.RLock()
		alreadyLoaded := l.inner != nil
		l.mu.RUnlock()

		if alreadyLoaded || l.degraded.Load() {
			return nil, nil
		}

		loaded, initErr := l.factory(ctx)
		if initErr != nil {
			l.degraded.Store(true)
			l.logOnce.Do(func() {
				slog.Error("feature extractor unavailable, matching disabled",
					"error", initErr,
				)
			})

			return nil, fmt.Errorf("%w: %v", ErrUnavailable, initErr)
		}

		l.mu.Lock()
		l.inner = loaded
		l.mu.Unlock()

		slog.Info("feature extractor initialized", "dims", l.dims)

		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	if l.degraded.Load() {
		return nil, ErrUnavailable
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.inner == nil {
		return nil, ErrUnavailable
	}

	return l.inner, nil
}
