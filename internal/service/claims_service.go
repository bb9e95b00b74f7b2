package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/reunite-hq/reunite/internal/apperrors"
	"github.com/reunite-hq/reunite/internal/models"
)

// ClaimVerificationWindow is how long a claim verification link stays valid.
const ClaimVerificationWindow = 7 * 24 * time.Hour

// ClaimsRepository defines the data access needed by the claims service.
type ClaimsRepository interface {
	Create(ctx context.Context, lostItemID uuid.UUID, req *models.CreateClaimRequest, token string, expiresAt time.Time) (*models.PendingClaim, error)
	GetByToken(ctx context.Context, token string) (*models.PendingClaim, error)
	ListByItem(ctx context.Context, lostItemID uuid.UUID) ([]models.PendingClaim, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.ClaimStatus) (*models.PendingClaim, error)
	ExpireStale(ctx context.Context, now time.Time) (int64, error)
}

// claimItemsRepository is the slice of item data access the claims flow needs.
type claimItemsRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error)
	MarkClaimed(ctx context.Context, id uuid.UUID, claimedBy string) (*models.Item, error)
}

// claimNotifier sends the verification and decision mails.
type claimNotifier interface {
	DispatchClaimVerification(ctx context.Context, lost *models.Item, claim *models.PendingClaim, verifyURL string) error
	DispatchClaimDecision(ctx context.Context, lost *models.Item, claim *models.PendingClaim, approved bool) error
}

// ClaimsService handles the ownership claim workflow: file a claim, email the
// owner a verification link, and on approval hand the item over.
type ClaimsService struct {
	claims  ClaimsRepository
	items   claimItemsRepository
	notify  claimNotifier
	baseURL string
	now     func() time.Time
	logger  *slog.Logger
}

// NewClaimsService creates a claims service. baseURL is the public origin
// used to build verification links.
func NewClaimsService(
	claims ClaimsRepository, items claimItemsRepository, notify claimNotifier,
	baseURL string, logger *slog.Logger,
) *ClaimsService {
	if logger == nil {
		logger = slog.Default()
	}

	return &ClaimsService{
		claims:  claims,
		items:   items,
		notify:  notify,
		baseURL: baseURL,
		now:     time.Now,
		logger:  logger,
	}
}

// CreateClaim files an ownership claim against a lost item and emails the
// owner a verification link. The email is best-effort: a delivery failure is
// logged but the claim stands.
func (s *ClaimsService) CreateClaim(ctx context.Context, lostItemID uuid.UUID, req *models.CreateClaimRequest) (*models.PendingClaim, error) {
	item, err := s.items.GetByID(ctx, lostItemID)
	if err != nil {
		return nil, err
	}

	if item.Category != models.CategoryLost {
		return nil, apperrors.NewValidationError("item", "claims apply to lost items only")
	}

	if item.Status == models.StatusClaimed {
		return nil, apperrors.NewConflictError("item is already claimed")
	}

	token, err := newVerificationToken()
	if err != nil {
		return nil, err
	}

	claim, err := s.claims.Create(ctx, lostItemID, req, token, s.now().Add(ClaimVerificationWindow))
	if err != nil {
		return nil, err
	}

	verifyURL := fmt.Sprintf("%s/v1/claims/verify?token=%s", s.baseURL, token)

	if err := s.notify.DispatchClaimVerification(ctx, item, claim, verifyURL); err != nil {
		s.logger.Error("claim verification mail not sent",
			"claim_id", claim.ID,
			"lost_item_id", lostItemID,
			"error", err,
		)
	}

	return claim, nil
}

// VerifyClaim resolves a pending claim by its token. Approval marks the item
// claimed; either decision emails the claimant. Expired tokens flip the claim
// to expired and fail with ErrExpired.
func (s *ClaimsService) VerifyClaim(ctx context.Context, token string, approve bool) (*models.PendingClaim, error) {
	claim, err := s.claims.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if claim.Status != models.ClaimPending {
		return nil, apperrors.NewConflictError("claim has already been processed")
	}

	if claim.Expired(s.now()) {
		if _, err := s.claims.UpdateStatus(ctx, claim.ID, models.ClaimExpired); err != nil {
			s.logger.Warn("expired claim not updated", "claim_id", claim.ID, "error", err)
		}

		return nil, apperrors.NewExpiredError("claim verification link has expired")
	}

	status := models.ClaimRejected
	if approve {
		status = models.ClaimApproved
	}

	claim, err = s.claims.UpdateStatus(ctx, claim.ID, status)
	if err != nil {
		return nil, err
	}

	item, err := s.items.GetByID(ctx, claim.LostItemID)
	if err != nil {
		return nil, err
	}

	if approve {
		if item, err = s.items.MarkClaimed(ctx, claim.LostItemID, claim.ClaimerName); err != nil {
			return nil, err
		}
	}

	if err := s.notify.DispatchClaimDecision(ctx, item, claim, approve); err != nil {
		s.logger.Error("claim decision mail not sent", "claim_id", claim.ID, "error", err)
	}

	return claim, nil
}

// ListClaims returns the claims filed against a lost item.
func (s *ClaimsService) ListClaims(ctx context.Context, lostItemID uuid.UUID) ([]models.PendingClaim, error) {
	if _, err := s.items.GetByID(ctx, lostItemID); err != nil {
		return nil, err
	}

	return s.claims.ListByItem(ctx, lostItemID)
}

// ExpireStaleClaims sweeps pending claims past their window.
func (s *ClaimsService) ExpireStaleClaims(ctx context.Context) (int64, error) {
	return s.claims.ExpireStale(ctx, s.now())
}

// newVerificationToken returns a 64-hex-char single-use token.
func newVerificationToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate verification token: %w", err)
	}

	return hex.EncodeToString(buf), nil
}
