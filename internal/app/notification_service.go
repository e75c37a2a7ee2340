package app

import (
	"context"

	"github.com/foodbridge/api/internal/domain"
)

type NotificationRepository interface {
	ListByRecipient(ctx context.Context, recipientID string) ([]domain.Notification, error)
	MarkRead(ctx context.Context, id, recipientID string) error
}

// NotificationService is the read surface over dispatcher output: an
// account lists its own notifications and flips the read flag. Nothing else
// mutates them.
type NotificationService struct {
	repo NotificationRepository
}

func NewNotificationService(repo NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

func (s *NotificationService) ListForActor(ctx context.Context, actor domain.Actor) ([]domain.Notification, error) {
	return s.repo.ListByRecipient(ctx, actor.ID)
}

// MarkRead flags a notification as read. The repository scopes the write to
// the owning recipient, so another account's notification reads as missing.
func (s *NotificationService) MarkRead(ctx context.Context, id string, actor domain.Actor) error {
	return s.repo.MarkRead(ctx, id, actor.ID)
}
