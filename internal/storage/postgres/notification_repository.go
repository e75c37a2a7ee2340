package postgres

import (
	"context"
	"fmt"

	"github.com/foodbridge/api/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type NotificationRepository struct {
	pool *pgxpool.Pool
}

func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

func (r *NotificationRepository) Create(ctx context.Context, n domain.Notification) error {
	const stmt = `
INSERT INTO notifications (id, recipient_id, type, title, message, related_donation_id, read, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, stmt,
		n.ID, n.RecipientID, string(n.Type), n.Title, n.Message, n.RelatedDonationID, n.Read, n.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			// A retried dispatch already stored this notification.
			return nil
		}
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipientID string) ([]domain.Notification, error) {
	const query = `
SELECT id, recipient_id, type, title, message, related_donation_id, read, created_at
FROM notifications
WHERE recipient_id = $1
ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, recipientID)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []domain.Notification
	for rows.Next() {
		var n domain.Notification
		var typ string
		if err := rows.Scan(&n.ID, &n.RecipientID, &typ, &n.Title, &n.Message, &n.RelatedDonationID, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.Type = domain.NotificationType(typ)
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return out, nil
}

// MarkRead flips the read flag, scoped to the owning recipient.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, recipientID string) error {
	const stmt = `UPDATE notifications SET read = TRUE WHERE id = $1 AND recipient_id = $2`

	tag, err := r.pool.Exec(ctx, stmt, id, recipientID)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotificationNotFound
	}
	return nil
}
