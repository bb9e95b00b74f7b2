// Package matching scores lost/found item pairs by embedding similarity and
// orchestrates the per-submission match sweep.
package matching

import (
	"github.com/reunite-hq/reunite/internal/models"
	"github.com/reunite-hq/reunite/pkg/vectors"
)

// DefaultThreshold is the similarity cutoff used when no per-sweep threshold
// is configured. The threshold in effect is recorded with every result.
const DefaultThreshold = 0.8

// Score returns the cosine similarity of two embeddings in [-1, 1].
// Dimension mismatch and zero-norm inputs return an error; the caller skips
// the pair rather than failing the sweep.
func Score(a, b []float32) (float64, error) {
	return vectors.Cosine(a, b)
}

// Classify maps a score to a match status against the given threshold.
// The boundary is inclusive: a pair scoring exactly the threshold is matched.
func Classify(score, threshold float64) models.MatchStatus {
	if score >= threshold {
		return models.StatusMatched
	}

	return models.StatusNotMatched
}
