package models

import (
	"time"

	"github.com/google/uuid"
)

// ClaimStatus is the verification state of a pending claim.
type ClaimStatus string

// Claim statuses.
const (
	ClaimPending  ClaimStatus = "pending"
	ClaimApproved ClaimStatus = "approved"
	ClaimRejected ClaimStatus = "rejected"
	ClaimExpired  ClaimStatus = "expired"
)

// PendingClaim is an ownership claim on a lost item awaiting email
// verification. The token is single-use and expires after a fixed window.
type PendingClaim struct {
	ID                  uuid.UUID   `json:"id"`
	LostItemID          uuid.UUID   `json:"lost_item_id"`
	ClaimerName         string      `json:"claimer_name"`
	ClaimerEmail        string      `json:"claimer_email"`
	ClaimerPhone        *string     `json:"claimer_phone,omitempty"`
	VerificationDetails *string     `json:"verification_details,omitempty"`
	Status              ClaimStatus `json:"status"`
	VerificationToken   string      `json:"-"`
	CreatedAt           time.Time   `json:"created_at"`
	VerifiedAt          *time.Time  `json:"verified_at,omitempty"`
	ExpiresAt           time.Time   `json:"expires_at"`
}

// Expired reports whether the claim's verification window has passed.
func (c *PendingClaim) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// CreateClaimRequest is the payload for filing a claim on a lost item.
type CreateClaimRequest struct {
	ClaimerName         string  `json:"claimer_name"  validate:"required,max=100"`
	ClaimerEmail        string  `json:"claimer_email" validate:"required,email"`
	ClaimerPhone        *string `json:"claimer_phone,omitempty" validate:"omitempty,max=20"`
	VerificationDetails *string `json:"verification_details,omitempty" validate:"omitempty,max=2000"`
}

// MarkFoundRequest is the payload for reporting that a lost item was found.
type MarkFoundRequest struct {
	FinderName    string  `json:"finder_name"    validate:"required,max=100"`
	FinderContact string  `json:"finder_contact" validate:"required,max=255"`
	Note          *string `json:"note,omitempty" validate:"omitempty,max=2000"`
}
