package models

import (
	"time"

	id "kycportal/pkg/domain"
)

// Audience tags who a notification is meant for, derived from the recipient's
// internal/client classification at creation time.
type Audience string

const (
	AudienceInternal Audience = "INTERNAL"
	AudienceClient   Audience = "CLIENT"
)

// Notification is an ephemeral per-user message. Immutable after creation
// except for the read flag.
type Notification struct {
	ID        id.NotificationID `json:"id"`
	Recipient id.UserID         `json:"recipient"`
	Message   string            `json:"message"`
	URL       string            `json:"url,omitempty"`
	IsRead    bool              `json:"is_read"`
	Audience  Audience          `json:"audience"`
	ThreadID  id.ThreadID       `json:"thread_id,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}
