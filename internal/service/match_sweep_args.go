// Package service holds the business logic between HTTP handlers and the
// repositories: item registration, embedding lookup, match sweeps, claims,
// and notification delivery.
package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
)

const (
	matchSweepKind = "match_sweep"
	// MatchQueueName is the River queue used for match sweep jobs.
	MatchQueueName = "matching"
)

// MatchSweepInserter inserts match sweep jobs (e.g. River client).
type MatchSweepInserter interface {
	Insert(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (*rivertype.JobInsertResult, error)
}

// MatchSweepArgs is the job payload for sweeping one newly registered item
// against the opposite-category corpus. Uniqueness is by ItemID so duplicate
// submissions for the same item do not create duplicate sweeps.
type MatchSweepArgs struct {
	ItemID uuid.UUID `json:"item_id" river:"unique"`
}

// Kind returns the River job kind.
func (MatchSweepArgs) Kind() string { return matchSweepKind }

var _ river.JobArgs = MatchSweepArgs{}
