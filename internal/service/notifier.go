package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/reunite-hq/reunite/internal/models"
)

// Mailer delivers a single email. Implementations: SMTPMailer for real
// delivery, LogMailer when no SMTP server is configured.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// NotificationsRepository persists notification records and delivery state.
type NotificationsRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	MarkSent(ctx context.Context, id uuid.UUID) error
}

// Notifier composes and delivers user-facing messages: match alerts, claim
// verification requests, and found reports. Every message is written to the
// notifications table before a delivery attempt, so delivery is at-least-once
// and a dead SMTP server never loses the record.
type Notifier struct {
	repo   NotificationsRepository
	mailer Mailer
	logger *slog.Logger
}

// NewNotifier creates a notifier.
func NewNotifier(repo NotificationsRepository, mailer Mailer, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}

	return &Notifier{repo: repo, mailer: mailer, logger: logger}
}

// DispatchMatch notifies the lost item's owner that a candidate match was
// found. Items without a contact email still get a notification record for
// the audit trail; there is just nothing to deliver.
func (n *Notifier) DispatchMatch(ctx context.Context, lost, found *models.Item, score float64) error {
	subject := fmt.Sprintf("Match Found for %s!", lost.Name)

	var b strings.Builder

	fmt.Fprintf(&b, "Good news! Your lost item %q might match with a found item.\n\n", lost.Name)
	fmt.Fprintf(&b, "Found item: %s\n", found.Name)
	fmt.Fprintf(&b, "Description: %s\n", found.Description)
	fmt.Fprintf(&b, "Location: %s\n", orNotSpecified(found.Location))
	fmt.Fprintf(&b, "Contact: %s\n", orNotProvided(found.Email))
	fmt.Fprintf(&b, "Similarity: %.0f%%\n", score*100)

	return n.deliver(ctx, lost.Email, subject, b.String())
}

// DispatchClaimVerification asks the lost item's owner to verify a pending
// claim using the single-use link.
func (n *Notifier) DispatchClaimVerification(ctx context.Context, lost *models.Item, claim *models.PendingClaim, verifyURL string) error {
	subject := fmt.Sprintf("Claim Verification Required: %s", lost.Name)

	var b strings.Builder

	fmt.Fprintf(&b, "Someone has requested to claim your lost item %q.\n\n", lost.Name)
	fmt.Fprintf(&b, "Claimer details:\n")
	fmt.Fprintf(&b, "- Name: %s\n", claim.ClaimerName)
	fmt.Fprintf(&b, "- Email: %s\n", claim.ClaimerEmail)
	fmt.Fprintf(&b, "- Phone: %s\n", orNotProvided(claim.ClaimerPhone))
	fmt.Fprintf(&b, "- Verification details: %s\n\n", orNotProvided(claim.VerificationDetails))
	fmt.Fprintf(&b, "To verify this claim, open the link below:\n%s\n\n", verifyURL)
	fmt.Fprintf(&b, "The link expires on %s.\n", claim.ExpiresAt.Format("January 2, 2006"))

	return n.deliver(ctx, lost.Email, subject, b.String())
}

// DispatchClaimDecision tells the claimant whether their claim was approved.
func (n *Notifier) DispatchClaimDecision(ctx context.Context, lost *models.Item, claim *models.PendingClaim, approved bool) error {
	var (
		subject string
		b       strings.Builder
	)

	if approved {
		subject = fmt.Sprintf("Claim Approved: %s", lost.Name)
		fmt.Fprintf(&b, "Your claim on %q has been approved by the owner.\n\n", lost.Name)
		fmt.Fprintf(&b, "Contact the owner to arrange pickup: %s\n", orNotProvided(lost.Email))
	} else {
		subject = fmt.Sprintf("Claim Rejected: %s", lost.Name)
		fmt.Fprintf(&b, "Your claim on %q was not approved by the owner.\n", lost.Name)
	}

	email := claim.ClaimerEmail

	return n.deliver(ctx, &email, subject, b.String())
}

// DispatchFoundReport tells the lost item's owner their item was reported
// found and how to reach the finder.
func (n *Notifier) DispatchFoundReport(ctx context.Context, lost *models.Item, finderName, finderContact string) error {
	subject := fmt.Sprintf("Your Lost Item %q Has Been Found!", lost.Name)

	var b strings.Builder

	fmt.Fprintf(&b, "Someone has found your lost item %q.\n\n", lost.Name)
	fmt.Fprintf(&b, "Item details:\n")
	fmt.Fprintf(&b, "- Name: %s\n", lost.Name)
	fmt.Fprintf(&b, "- Description: %s\n", lost.Description)
	fmt.Fprintf(&b, "- Lost at: %s\n\n", orNotSpecified(lost.Location))
	fmt.Fprintf(&b, "Finder:\n")
	fmt.Fprintf(&b, "- Name: %s\n", finderName)
	fmt.Fprintf(&b, "- Contact: %s\n\n", finderContact)
	fmt.Fprintf(&b, "Contact the finder to verify the item and arrange pickup.\n")

	return n.deliver(ctx, lost.Email, subject, b.String())
}

func (n *Notifier) deliver(ctx context.Context, to *string, subject, body string) error {
	recipient := "unknown"
	if to != nil && *to != "" {
		recipient = *to
	}

	record := &models.Notification{
		Recipient: recipient,
		Subject:   subject,
		Message:   body,
		SentVia:   "email",
	}

	if err := n.repo.Create(ctx, record); err != nil {
		return fmt.Errorf("persist notification: %w", err)
	}

	if recipient == "unknown" {
		n.logger.Info("notification recorded without recipient", "subject", subject)

		return nil
	}

	if err := n.mailer.Send(ctx, recipient, subject, body); err != nil {
		return fmt.Errorf("send notification: %w", err)
	}

	if err := n.repo.MarkSent(ctx, record.ID); err != nil {
		n.logger.Warn("notification sent but not marked", "notification_id", record.ID, "error", err)
	}

	return nil
}

func orNotSpecified(s *string) string {
	if s == nil || *s == "" {
		return "Not specified"
	}

	return *s
}

func orNotProvided(s *string) string {
	if s == nil || *s == "" {
		return "Not provided"
	}

	return *s
}
