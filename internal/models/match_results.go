package models

import (
	"time"

	"github.com/google/uuid"
)

// MatchStatus classifies one scored comparison against the threshold used at
// scoring time.
type MatchStatus string

// Match statuses.
const (
	StatusMatched    MatchStatus = "matched"
	StatusNotMatched MatchStatus = "not_matched"
)

// MatchResult is one scored comparison between exactly one lost item and one
// found item. Rows are append-only: rescoring a pair creates a new row, never
// an update, so the full comparison history survives threshold changes.
// Embeddings are denormalized copies (little-endian float32 blobs) kept for
// audit and debugging.
type MatchResult struct {
	ID             uuid.UUID   `json:"id"`
	LostItemID     uuid.UUID   `json:"lost_item_id"`
	FoundItemID    uuid.UUID   `json:"found_item_id"`
	LostEmbedding  []byte      `json:"-"`
	FoundEmbedding []byte      `json:"-"`
	Score          float64     `json:"score"`
	Threshold      float64     `json:"threshold"`
	Status         MatchStatus `json:"status"`
	CreatedAt      time.Time   `json:"created_at"`
}

// Matched reports whether the comparison cleared its threshold.
func (m *MatchResult) Matched() bool {
	return m.Status == StatusMatched
}
