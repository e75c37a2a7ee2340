package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/foodbridge/api/internal/domain"
)

// NotificationReader is the slice of the notification service the handlers
// need.
type NotificationReader interface {
	ListForActor(ctx context.Context, actor domain.Actor) ([]domain.Notification, error)
	MarkRead(ctx context.Context, id string, actor domain.Actor) error
}

// HandleNotifications returns the handler for GET /notifications.
func HandleNotifications(svc NotificationReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		actor, ok := requireActor(w, r)
		if !ok {
			return
		}

		notifications, err := svc.ListForActor(r.Context(), actor)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		out := make([]notificationResponse, 0, len(notifications))
		for _, n := range notifications {
			out = append(out, toNotificationResponse(n))
		}
		writeData(w, http.StatusOK, out)
	}
}

// HandleNotificationRead returns the handler for the /notifications/{id}
// subtree. The only supported operation is PATCH /notifications/{id}/read.
func HandleNotificationRead(svc NotificationReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseNotificationReadPath(r.URL.Path)
		if !ok {
			http.NotFound(w, r)
			return
		}
		if r.Method != http.MethodPatch {
			writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		actor, ok := requireActor(w, r)
		if !ok {
			return
		}

		if err := svc.MarkRead(r.Context(), id, actor); err != nil {
			writeDomainError(w, err)
			return
		}
		writeData(w, http.StatusOK, map[string]string{"id": id})
	}
}

func parseNotificationReadPath(path string) (string, bool) {
	rest, found := strings.CutPrefix(path, "/notifications/")
	if !found {
		return "", false
	}
	id, found := strings.CutSuffix(rest, "/read")
	if !found || id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}

type notificationResponse struct {
	ID                string    `json:"id"`
	RecipientID       string    `json:"recipientId"`
	Type              string    `json:"type"`
	Title             string    `json:"title"`
	Message           string    `json:"message"`
	RelatedDonationID *string   `json:"relatedDonationId,omitempty"`
	Read              bool      `json:"read"`
	CreatedAt         time.Time `json:"createdAt"`
}

func toNotificationResponse(n domain.Notification) notificationResponse {
	return notificationResponse{
		ID:                n.ID,
		RecipientID:       n.RecipientID,
		Type:              string(n.Type),
		Title:             n.Title,
		Message:           n.Message,
		RelatedDonationID: n.RelatedDonationID,
		Read:              n.Read,
		CreatedAt:         n.CreatedAt,
	}
}
