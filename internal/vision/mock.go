package vision

import (
	"context"
	"crypto/sha256"

	"github.com/reunite-hq/reunite/pkg/vectors"
)

// MockExtractor implements Extractor for testing. It derives a deterministic
// unit-length embedding from the input bytes' hash, so identical images map
// to identical vectors and different images to (almost surely) different ones.
type MockExtractor struct {
	dimensions int

	// Fixed, when set, is returned for every input (exact-score scenarios).
	Fixed []float32

	// Err, when set, is returned for every call (failure scenarios).
	Err error
}

// Ensure MockExtractor implements Extractor.
var _ Extractor = (*MockExtractor)(nil)

// NewMockExtractor creates a mock extractor with the reference model's 512 dims.
func NewMockExtractor() *MockExtractor {
	return &MockExtractor{dimensions: 512}
}

// NewMockExtractorWithDimensions creates a mock extractor with custom dims.
func NewMockExtractorWithDimensions(dimensions int) *MockExtractor {
	return &MockExtractor{dimensions: dimensions}
}

// Extract returns a deterministic embedding derived from the input hash.
func (m *MockExtractor) Extract(_ context.Context, imageData []byte) ([]float32, error) {
	if m.Err != nil {
		return nil, m.Err
	}

	if m.Fixed != nil {
		out := make([]float32, len(m.Fixed))
		copy(out, m.Fixed)

		return out, nil
	}

	hash := sha256.Sum256(imageData)
	embedding := make([]float32, m.dimensions)

	for i := range embedding {
		byteIdx := i % len(hash)
		embedding[i] = (float32(hash[byteIdx]) / 127.5) - 1.0
	}

	vectors.NormalizeL2(embedding)

	return embedding, nil
}

// Dimensions returns the mock's output vector length.
func (m *MockExtractor) Dimensions() int {
	if m.Fixed != nil {
		return len(m.Fixed)
	}

	return m.dimensions
}
