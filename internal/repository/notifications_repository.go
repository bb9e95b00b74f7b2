package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reunite-hq/reunite/internal/apperrors"
	"github.com/reunite-hq/reunite/internal/models"
)

// NotificationsRepository handles data access for notification records.
type NotificationsRepository struct {
	db *pgxpool.Pool
}

// NewNotificationsRepository creates a new notifications repository.
func NewNotificationsRepository(db *pgxpool.Pool) *NotificationsRepository {
	return &NotificationsRepository{db: db}
}

// Create inserts a notification record. is_sent starts false; MarkSent flips
// it after delivery succeeds.
func (r *NotificationsRepository) Create(ctx context.Context, n *models.Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.Must(uuid.NewV7())
	}

	query := `
		INSERT INTO notifications (id, recipient, subject, message, sent_via, is_sent)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	err := r.db.QueryRow(ctx, query,
		n.ID, n.Recipient, n.Subject, n.Message, n.SentVia, n.IsSent,
	).Scan(&n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	return nil
}

// MarkSent records a successful delivery.
func (r *NotificationsRepository) MarkSent(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx,
		`UPDATE notifications SET is_sent = TRUE WHERE id = $1`, id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark notification sent: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("notification", "notification not found")
	}

	return nil
}

// ListUnsent returns undelivered notifications older than the given age,
// oldest first, for redelivery.
func (r *NotificationsRepository) ListUnsent(ctx context.Context, olderThan time.Duration, limit int) ([]models.Notification, error) {
	query := `
		SELECT id, recipient, subject, message, sent_via, is_sent, created_at
		FROM notifications
		WHERE is_sent = FALSE AND created_at < $1
		ORDER BY created_at ASC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, time.Now().Add(-olderThan), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list unsent notifications: %w", err)
	}
	defer rows.Close()

	notifications := []models.Notification{} // Initialize as empty slice, not nil

	for rows.Next() {
		var n models.Notification

		err := rows.Scan(&n.ID, &n.Recipient, &n.Subject, &n.Message, &n.SentVia, &n.IsSent, &n.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}

		notifications = append(notifications, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}

	return notifications, nil
}
