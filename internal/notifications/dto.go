package notifications

import (
	"time"

	"github.com/goalmates-app/goalmates-backend/internal/users"
	"github.com/google/uuid"
)

// Summary is the wire shape of a notification, shared by the list
// endpoint and the realtime events.
type Summary struct {
	ID         uuid.UUID      `json:"id"`
	SenderID   *uuid.UUID     `json:"senderId"`
	ReceiverID uuid.UUID      `json:"receiverId"`
	Sender     *users.Summary `json:"sender"`
	Title      string         `json:"title"`
	Body       string         `json:"body"`
	IsRead     bool           `json:"isRead"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// ListResult bundles the newest notifications with a freshly computed
// unread counter.
type ListResult struct {
	Notifications []Summary `json:"notifications"`
	UnreadCount   int64     `json:"unreadCount"`
}

// CountPayload is the body of a notification:count event.
type CountPayload struct {
	Count int64 `json:"count"`
}

// CreatePayload describes one notification to persist and fan out.
// SenderID is nil for system-generated notifications.
type CreatePayload struct {
	SenderID   *uuid.UUID
	ReceiverID uuid.UUID
	Title      string
	Body       string
}
