package models

import (
	"time"

	"github.com/google/uuid"
)

// ChatMessage is one entry in the global chat channel.
type ChatMessage struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	SenderID  uuid.UUID `gorm:"type:uuid;column:sender_id;not null"`
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"type:timestamptz;default:now()"`
}
