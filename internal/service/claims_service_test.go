package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reunite-hq/reunite/internal/apperrors"
	"github.com/reunite-hq/reunite/internal/models"
)

type mockClaimsRepo struct {
	claims map[string]*models.PendingClaim

	created *models.PendingClaim
	updated models.ClaimStatus
}

func (m *mockClaimsRepo) Create(_ context.Context, lostItemID uuid.UUID, req *models.CreateClaimRequest, token string, expiresAt time.Time) (*models.PendingClaim, error) {
	claim := &models.PendingClaim{
		ID:                uuid.Must(uuid.NewV7()),
		LostItemID:        lostItemID,
		ClaimerName:       req.ClaimerName,
		ClaimerEmail:      req.ClaimerEmail,
		Status:            models.ClaimPending,
		VerificationToken: token,
		ExpiresAt:         expiresAt,
	}
	m.created = claim

	return claim, nil
}

func (m *mockClaimsRepo) GetByToken(_ context.Context, token string) (*models.PendingClaim, error) {
	claim, ok := m.claims[token]
	if !ok {
		return nil, apperrors.NewNotFoundError("claim", "claim not found")
	}

	return claim, nil
}

func (m *mockClaimsRepo) ListByItem(context.Context, uuid.UUID) ([]models.PendingClaim, error) {
	return []models.PendingClaim{}, nil
}

func (m *mockClaimsRepo) UpdateStatus(_ context.Context, _ uuid.UUID, status models.ClaimStatus) (*models.PendingClaim, error) {
	m.updated = status

	for _, claim := range m.claims {
		updated := *claim
		updated.Status = status

		return &updated, nil
	}

	if m.created != nil {
		updated := *m.created
		updated.Status = status

		return &updated, nil
	}

	return nil, apperrors.NewNotFoundError("claim", "claim not found")
}

func (m *mockClaimsRepo) ExpireStale(context.Context, time.Time) (int64, error) {
	return 0, nil
}

type mockClaimItems struct {
	item    *models.Item
	getErr  error
	claimed *string
}

func (m *mockClaimItems) GetByID(context.Context, uuid.UUID) (*models.Item, error) {
	return m.item, m.getErr
}

func (m *mockClaimItems) MarkClaimed(_ context.Context, _ uuid.UUID, claimedBy string) (*models.Item, error) {
	m.claimed = &claimedBy
	claimed := *m.item
	claimed.Status = models.StatusClaimed
	claimed.ClaimedBy = &claimedBy

	return &claimed, nil
}

type mockClaimNotifier struct {
	verifications int
	verifyURL     string
	decisions     int
	approved      bool
	err           error
}

func (m *mockClaimNotifier) DispatchClaimVerification(_ context.Context, _ *models.Item, _ *models.PendingClaim, verifyURL string) error {
	m.verifications++
	m.verifyURL = verifyURL

	return m.err
}

func (m *mockClaimNotifier) DispatchClaimDecision(_ context.Context, _ *models.Item, _ *models.PendingClaim, approved bool) error {
	m.decisions++
	m.approved = approved

	return nil
}

func lostItem() *models.Item {
	email := "owner@example.com"

	return &models.Item{
		ID:       uuid.Must(uuid.NewV7()),
		Category: models.CategoryLost,
		Name:     "Blue backpack",
		Status:   models.StatusLost,
		Email:    &email,
	}
}

func claimRequest() *models.CreateClaimRequest {
	return &models.CreateClaimRequest{
		ClaimerName:  "Alex",
		ClaimerEmail: "alex@example.com",
	}
}

func TestClaimsService_CreateClaim(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a pending claim and mails the owner", func(t *testing.T) {
		item := lostItem()
		repo := &mockClaimsRepo{}
		notifier := &mockClaimNotifier{}
		svc := NewClaimsService(repo, &mockClaimItems{item: item}, notifier, "https://reunite.example", nil)

		claim, err := svc.CreateClaim(ctx, item.ID, claimRequest())
		require.NoError(t, err)

		assert.Equal(t, models.ClaimPending, claim.Status)
		assert.Len(t, claim.VerificationToken, 64)
		assert.WithinDuration(t, time.Now().Add(ClaimVerificationWindow), claim.ExpiresAt, time.Minute)
		assert.Equal(t, 1, notifier.verifications)
		assert.Contains(t, notifier.verifyURL, "https://reunite.example/v1/claims/verify?token=")
		assert.Contains(t, notifier.verifyURL, claim.VerificationToken)
	})

	t.Run("rejects claims on found items", func(t *testing.T) {
		item := lostItem()
		item.Category = models.CategoryFound

		svc := NewClaimsService(&mockClaimsRepo{}, &mockClaimItems{item: item}, &mockClaimNotifier{}, "", nil)

		_, err := svc.CreateClaim(ctx, item.ID, claimRequest())
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("rejects claims on already claimed items", func(t *testing.T) {
		item := lostItem()
		item.Status = models.StatusClaimed

		svc := NewClaimsService(&mockClaimsRepo{}, &mockClaimItems{item: item}, &mockClaimNotifier{}, "", nil)

		_, err := svc.CreateClaim(ctx, item.ID, claimRequest())
		assert.ErrorIs(t, err, apperrors.ErrConflict)
	})

	t.Run("mail failure does not fail the claim", func(t *testing.T) {
		item := lostItem()
		notifier := &mockClaimNotifier{err: errors.New("smtp down")}
		svc := NewClaimsService(&mockClaimsRepo{}, &mockClaimItems{item: item}, notifier, "", nil)

		_, err := svc.CreateClaim(ctx, item.ID, claimRequest())
		assert.NoError(t, err)
	})
}

func TestClaimsService_VerifyClaim(t *testing.T) {
	ctx := context.Background()

	pending := func(item *models.Item, expiresAt time.Time) (*mockClaimsRepo, *models.PendingClaim) {
		claim := &models.PendingClaim{
			ID:                uuid.Must(uuid.NewV7()),
			LostItemID:        item.ID,
			ClaimerName:       "Alex",
			ClaimerEmail:      "alex@example.com",
			Status:            models.ClaimPending,
			VerificationToken: "tok",
			ExpiresAt:         expiresAt,
		}

		return &mockClaimsRepo{claims: map[string]*models.PendingClaim{"tok": claim}}, claim
	}

	t.Run("approval claims the item and notifies the claimant", func(t *testing.T) {
		item := lostItem()
		repo, _ := pending(item, time.Now().Add(time.Hour))
		items := &mockClaimItems{item: item}
		notifier := &mockClaimNotifier{}
		svc := NewClaimsService(repo, items, notifier, "", nil)

		claim, err := svc.VerifyClaim(ctx, "tok", true)
		require.NoError(t, err)

		assert.Equal(t, models.ClaimApproved, claim.Status)
		require.NotNil(t, items.claimed)
		assert.Equal(t, "Alex", *items.claimed)
		assert.Equal(t, 1, notifier.decisions)
		assert.True(t, notifier.approved)
	})

	t.Run("rejection leaves the item alone", func(t *testing.T) {
		item := lostItem()
		repo, _ := pending(item, time.Now().Add(time.Hour))
		items := &mockClaimItems{item: item}
		notifier := &mockClaimNotifier{}
		svc := NewClaimsService(repo, items, notifier, "", nil)

		claim, err := svc.VerifyClaim(ctx, "tok", false)
		require.NoError(t, err)

		assert.Equal(t, models.ClaimRejected, claim.Status)
		assert.Nil(t, items.claimed)
		assert.False(t, notifier.approved)
	})

	t.Run("expired token fails and flips the claim", func(t *testing.T) {
		item := lostItem()
		repo, _ := pending(item, time.Now().Add(-time.Hour))
		svc := NewClaimsService(repo, &mockClaimItems{item: item}, &mockClaimNotifier{}, "", nil)

		_, err := svc.VerifyClaim(ctx, "tok", true)
		assert.ErrorIs(t, err, apperrors.ErrExpired)
		assert.Equal(t, models.ClaimExpired, repo.updated)
	})

	t.Run("already processed claim conflicts", func(t *testing.T) {
		item := lostItem()
		repo, claim := pending(item, time.Now().Add(time.Hour))
		claim.Status = models.ClaimApproved

		svc := NewClaimsService(repo, &mockClaimItems{item: item}, &mockClaimNotifier{}, "", nil)

		_, err := svc.VerifyClaim(ctx, "tok", true)
		assert.ErrorIs(t, err, apperrors.ErrConflict)
	})

	t.Run("unknown token is not found", func(t *testing.T) {
		svc := NewClaimsService(&mockClaimsRepo{}, &mockClaimItems{item: lostItem()}, &mockClaimNotifier{}, "", nil)

		_, err := svc.VerifyClaim(ctx, "nope", true)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}
