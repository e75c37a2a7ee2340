package domain

import "time"

type NotificationType string

const (
	NotificationNewListing NotificationType = "new_listing"
	NotificationUrgent     NotificationType = "urgent"
	NotificationReminder   NotificationType = "reminder"
	NotificationCompleted  NotificationType = "completed"
	NotificationAccepted   NotificationType = "accepted"
)

// Notification is a side-effect record created by the event dispatcher on
// lifecycle transitions. Only its recipient may flip Read.
type Notification struct {
	ID                string
	RecipientID       string
	Type              NotificationType
	Title             string
	Message           string
	RelatedDonationID *string
	Read              bool
	CreatedAt         time.Time
}
