package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification is a record of one user-facing message (match alert, claim
// verification, found report). Rows are written before delivery is attempted
// so a delivery failure never loses the audit trail.
type Notification struct {
	ID        uuid.UUID `json:"id"`
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	SentVia   string    `json:"sent_via"`
	IsSent    bool      `json:"is_sent"`
	CreatedAt time.Time `json:"created_at"`
}
