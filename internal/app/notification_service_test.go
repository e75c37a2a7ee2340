package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/foodbridge/api/internal/domain"
)

func TestNotificationService_MarkRead(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := &fakeNotificationRepo{notifications: map[string]domain.Notification{
		"ntf-1": {ID: "ntf-1", RecipientID: "rec-1", Type: domain.NotificationAccepted, CreatedAt: now},
	}}
	svc := NewNotificationService(repo)

	t.Run("recipient marks own notification", func(t *testing.T) {
		if err := svc.MarkRead(context.Background(), "ntf-1", domain.Actor{ID: "rec-1", Role: domain.RoleRecipient}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !repo.notifications["ntf-1"].Read {
			t.Fatalf("expected notification marked read")
		}
	})

	t.Run("someone else's notification reads as missing", func(t *testing.T) {
		err := svc.MarkRead(context.Background(), "ntf-1", domain.Actor{ID: "rec-2", Role: domain.RoleRecipient})
		if !errors.Is(err, domain.ErrNotificationNotFound) {
			t.Fatalf("expected ErrNotificationNotFound, got %v", err)
		}
	})
}

type fakeNotificationRepo struct {
	notifications map[string]domain.Notification
}

func (f *fakeNotificationRepo) ListByRecipient(_ context.Context, recipientID string) ([]domain.Notification, error) {
	var out []domain.Notification
	for _, n := range f.notifications {
		if n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeNotificationRepo) MarkRead(_ context.Context, id, recipientID string) error {
	n, ok := f.notifications[id]
	if !ok || n.RecipientID != recipientID {
		return domain.ErrNotificationNotFound
	}
	n.Read = true
	f.notifications[id] = n
	return nil
}
