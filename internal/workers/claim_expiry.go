package workers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/riverqueue/river"
)

// ClaimExpiryArgs is the payload for the periodic claim expiry sweep.
type ClaimExpiryArgs struct{}

// Kind returns the River job kind.
func (ClaimExpiryArgs) Kind() string { return "claim_expiry" }

var _ river.JobArgs = ClaimExpiryArgs{}

// claimExpirer flips stale pending claims to expired.
type claimExpirer interface {
	ExpireStaleClaims(ctx context.Context) (int64, error)
}

// ClaimExpiryWorker periodically expires pending claims whose verification
// window has passed.
type ClaimExpiryWorker struct {
	river.WorkerDefaults[ClaimExpiryArgs]

	claims claimExpirer
	logger *slog.Logger
}

// NewClaimExpiryWorker creates the periodic expiry worker.
func NewClaimExpiryWorker(claims claimExpirer, logger *slog.Logger) *ClaimExpiryWorker {
	if logger == nil {
		logger = slog.Default()
	}

	return &ClaimExpiryWorker{claims: claims, logger: logger}
}

// Timeout limits one expiry sweep.
func (w *ClaimExpiryWorker) Timeout(*river.Job[ClaimExpiryArgs]) time.Duration {
	return time.Minute
}

// Work expires stale claims in one UPDATE.
func (w *ClaimExpiryWorker) Work(ctx context.Context, _ *river.Job[ClaimExpiryArgs]) error {
	expired, err := w.claims.ExpireStaleClaims(ctx)
	if err != nil {
		return fmt.Errorf("expire stale claims: %w", err)
	}

	if expired > 0 {
		w.logger.Info("claim expiry sweep", "expired", expired)
	}

	return nil
}
