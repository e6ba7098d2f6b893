package models

import (
	"time"

	"github.com/google/uuid"
)

// Team groups players under an owner.
type Team struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"type:text;not null"`
	OwnerID   uuid.UUID `gorm:"type:uuid;column:owner_id;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TeamMember links a user to a team.
type TeamMember struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	TeamID    uuid.UUID `gorm:"type:uuid;column:team_id;not null;index"`
	UserID    uuid.UUID `gorm:"type:uuid;column:user_id;not null;index"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
