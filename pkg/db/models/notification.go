package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification stores in-app notification payloads addressed to one user.
// SenderID is nil for system-generated notifications.
type Notification struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	SenderID   *uuid.UUID `gorm:"type:uuid;column:sender_id"`
	ReceiverID uuid.UUID  `gorm:"type:uuid;column:receiver_id;not null"`
	Title      string     `gorm:"type:text;not null"`
	Body       string     `gorm:"type:text;not null"`
	IsRead     bool       `gorm:"column:is_read;not null;default:false"`
	CreatedAt  time.Time  `gorm:"type:timestamptz;default:now()"`
}
