package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestLoaderCache_Get_miss_then_hit(t *testing.T) {
	loads := atomic.Int32{}

	c, err := NewLoaderCache[string, string](10, func(s string) string { return s })
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	load := func(_ context.Context, key string) (string, error) {
		loads.Add(1)

		return "v-" + key, nil
	}

	v, err := c.Get(ctx, "a", load)
	if err != nil {
		t.Fatal(err)
	}

	if v != "v-a" {
		t.Errorf("got %q", v)
	}

	if loads.Load() != 1 {
		t.Errorf("loads = %d", loads.Load())
	}

	v, err = c.Get(ctx, "a", load)
	if err != nil {
		t.Fatal(err)
	}

	if v != "v-a" {
		t.Errorf("got %q", v)
	}

	if loads.Load() != 1 {
		t.Errorf("loads = %d, want 1 (second Get should hit)", loads.Load())
	}
}

func TestLoaderCache_Get_coalesces_concurrent_loads(t *testing.T) {
	loads := atomic.Int32{}

	c, err := NewLoaderCache[string, int](10, func(s string) string { return s })
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()

	release := make(chan struct{})
	load := func(_ context.Context, _ string) (int, error) {
		loads.Add(1)
		<-release

		return 42, nil
	}

	const goroutines = 8

	var wg sync.WaitGroup
	results := make([]int, goroutines)

	for i := range goroutines {
		wg.Add(1)

		go func() {
			defer wg.Done()

			v, getErr := c.Get(ctx, "key", load)
			if getErr != nil {
				t.Error(getErr)

				return
			}

			results[i] = v
		}()
	}

	close(release)
	wg.Wait()

	if loads.Load() != 1 {
		t.Errorf("loads = %d, want 1 (concurrent gets should coalesce)", loads.Load())
	}

	for i, v := range results {
		if v != 42 {
			t.Errorf("results[%d] = %d, want 42", i, v)
		}
	}
}

func TestLoaderCache_Get_error_not_cached(t *testing.T) {
	loads := atomic.Int32{}
	errLoad := errors.New("load failed")

	c, err := NewLoaderCache[string, int](10, func(s string) string { return s })
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()

	_, err = c.Get(ctx, "k", func(context.Context, string) (int, error) {
		loads.Add(1)

		return 0, errLoad
	})
	if !errors.Is(err, errLoad) {
		t.Fatalf("error = %v, want errLoad", err)
	}

	v, err := c.Get(ctx, "k", func(context.Context, string) (int, error) {
		loads.Add(1)

		return 7, nil
	})
	if err != nil {
		t.Fatal(err)
	}

	if v != 7 {
		t.Errorf("got %d, want 7", v)
	}

	if loads.Load() != 2 {
		t.Errorf("loads = %d, want 2 (error must not be cached)", loads.Load())
	}
}

func TestLoaderCache_Invalidate(t *testing.T) {
	loads := atomic.Int32{}

	c, err := NewLoaderCache[string, int](10, func(s string) string { return s })
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	load := func(context.Context, string) (int, error) {
		loads.Add(1)

		return 1, nil
	}

	if _, err := c.Get(ctx, "k", load); err != nil {
		t.Fatal(err)
	}

	c.Invalidate("k")

	if _, err := c.Get(ctx, "k", load); err != nil {
		t.Fatal(err)
	}

	if loads.Load() != 2 {
		t.Errorf("loads = %d, want 2 after invalidation", loads.Load())
	}
}
