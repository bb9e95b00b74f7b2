package vision

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestLazyExtractor_initializes_once(t *testing.T) {
	ctx := context.Background()

	var initCalls atomic.Int32

	lazy := NewLazyExtractor(8, func(context.Context) (Extractor, error) {
		initCalls.Add(1)

		return NewMockExtractorWithDimensions(8), nil
	})

	const goroutines = 10

	var wg sync.WaitGroup
	for range goroutines {
		wg.Add(1)

		go func() {
			defer wg.Done()

			if _, err := lazy.Extract(ctx, []byte("img")); err != nil {
				t.Errorf("Extract returned error: %v", err)
			}
		}()
	}

	wg.Wait()

	if n := initCalls.Load(); n != 1 {
		t.Errorf("factory called %d times, want 1", n)
	}
}

func TestLazyExtractor_degraded_mode_is_permanent(t *testing.T) {
	ctx := context.Background()

	var initCalls atomic.Int32

	lazy := NewLazyExtractor(8, func(context.Context) (Extractor, error) {
		initCalls.Add(1)

		return nil, errors.New("runtime not reachable")
	})

	for i := 0; i < 10; i++ {
		_, err := lazy.Extract(ctx, []byte("img"))
		if !errors.Is(err, ErrUnavailable) {
			t.Fatalf("call %d: error = %v, want ErrUnavailable", i, err)
		}
	}

	if n := initCalls.Load(); n != 1 {
		t.Errorf("factory called %d times, want 1 (no retry in degraded mode)", n)
	}
}

func TestLazyExtractor_delegates_after_init(t *testing.T) {
	ctx := context.Background()

	mock := NewMockExtractorWithDimensions(16)
	lazy := NewLazyExtractor(16, func(context.Context) (Extractor, error) {
		return mock, nil
	})

	first, err := lazy.Extract(ctx, []byte("same image"))
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}

	second, err := lazy.Extract(ctx, []byte("same image"))
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}

	if len(first) != 16 || len(second) != 16 {
		t.Fatalf("embedding lengths = %d, %d, want 16", len(first), len(second))
	}

	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("extraction not deterministic at index %d", i)
		}
	}
}
