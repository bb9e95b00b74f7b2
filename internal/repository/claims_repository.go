package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reunite-hq/reunite/internal/apperrors"
	"github.com/reunite-hq/reunite/internal/models"
)

const claimColumns = `id, lost_item_id, claimer_name, claimer_email, claimer_phone,
	verification_details, status, verification_token, created_at, verified_at, expires_at`

// ClaimsRepository handles data access for pending claims.
type ClaimsRepository struct {
	db *pgxpool.Pool
}

// NewClaimsRepository creates a new claims repository.
func NewClaimsRepository(db *pgxpool.Pool) *ClaimsRepository {
	return &ClaimsRepository{db: db}
}

// Create inserts a new pending claim.
func (r *ClaimsRepository) Create(
	ctx context.Context, lostItemID uuid.UUID, req *models.CreateClaimRequest,
	token string, expiresAt time.Time,
) (*models.PendingClaim, error) {
	query := `
		INSERT INTO pending_claims (
			id, lost_item_id, claimer_name, claimer_email, claimer_phone,
			verification_details, status, verification_token, expires_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + claimColumns

	claim, err := scanClaim(r.db.QueryRow(ctx, query,
		uuid.Must(uuid.NewV7()), lostItemID, req.ClaimerName, req.ClaimerEmail,
		req.ClaimerPhone, req.VerificationDetails, models.ClaimPending, token, expiresAt,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create claim: %w", err)
	}

	return claim, nil
}

// GetByToken retrieves a claim by its verification token.
func (r *ClaimsRepository) GetByToken(ctx context.Context, token string) (*models.PendingClaim, error) {
	query := `SELECT ` + claimColumns + ` FROM pending_claims WHERE verification_token = $1`

	claim, err := scanClaim(r.db.QueryRow(ctx, query, token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("claim", "claim not found")
		}

		return nil, fmt.Errorf("failed to get claim by token: %w", err)
	}

	return claim, nil
}

// ListByItem returns all claims filed against a lost item, newest first.
func (r *ClaimsRepository) ListByItem(ctx context.Context, lostItemID uuid.UUID) ([]models.PendingClaim, error) {
	query := `SELECT ` + claimColumns + `
		FROM pending_claims
		WHERE lost_item_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, lostItemID)
	if err != nil {
		return nil, fmt.Errorf("failed to list claims: %w", err)
	}
	defer rows.Close()

	claims := []models.PendingClaim{} // Initialize as empty slice, not nil

	for rows.Next() {
		claim, err := scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan claim: %w", err)
		}

		claims = append(claims, *claim)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating claims: %w", err)
	}

	return claims, nil
}

// UpdateStatus transitions a claim; approved claims also record verified_at.
func (r *ClaimsRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.ClaimStatus) (*models.PendingClaim, error) {
	var verifiedAt *time.Time

	if status == models.ClaimApproved {
		now := time.Now()
		verifiedAt = &now
	}

	query := `
		UPDATE pending_claims
		SET status = $1, verified_at = COALESCE($2, verified_at)
		WHERE id = $3
		RETURNING ` + claimColumns

	claim, err := scanClaim(r.db.QueryRow(ctx, query, status, verifiedAt, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("claim", "claim not found")
		}

		return nil, fmt.Errorf("failed to update claim status: %w", err)
	}

	return claim, nil
}

// ExpireStale marks pending claims past their expiry window as expired and
// returns how many rows changed.
func (r *ClaimsRepository) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.Exec(ctx,
		`UPDATE pending_claims SET status = $1 WHERE status = $2 AND expires_at < $3`,
		models.ClaimExpired, models.ClaimPending, now,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to expire stale claims: %w", err)
	}

	return result.RowsAffected(), nil
}

func scanClaim(row pgx.Row) (*models.PendingClaim, error) {
	var claim models.PendingClaim

	err := row.Scan(
		&claim.ID, &claim.LostItemID, &claim.ClaimerName, &claim.ClaimerEmail,
		&claim.ClaimerPhone, &claim.VerificationDetails, &claim.Status,
		&claim.VerificationToken, &claim.CreatedAt, &claim.VerifiedAt, &claim.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}

	return &claim, nil
}
