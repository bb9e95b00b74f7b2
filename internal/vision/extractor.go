// Package vision converts item images into fixed-length feature vectors.
// Preprocessing runs in-process; inference is delegated to an external
// runtime serving a headless convolutional feature extractor.
package vision

import (
	"context"
	"errors"
)

// Sentinel errors. Callers treat both as "no embedding for this input" and
// skip matching rather than failing: ErrUnavailable signals degraded mode
// (runtime or model missing), ErrUndecodable a single bad image.
var (
	ErrUnavailable = errors.New("vision: feature extractor unavailable")
	ErrUndecodable = errors.New("vision: image cannot be decoded")
)

// Extractor converts raw image bytes into an embedding vector. Given a fixed
// model version, extraction is a pure function of the input bytes, so
// implementations are safe for concurrent use once initialized.
type Extractor interface {
	// Extract returns the embedding for the image, or an error wrapping
	// ErrUnavailable / ErrUndecodable when no embedding can be produced.
	Extract(ctx context.Context, imageData []byte) ([]float32, error)

	// Dimensions returns the model's output vector length.
	Dimensions() int
}
