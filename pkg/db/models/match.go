package models

import (
	"time"

	"github.com/google/uuid"
)

// Match is a scheduled game between two teams at a place.
type Match struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	HomeTeamID  uuid.UUID `gorm:"type:uuid;column:home_team_id;not null"`
	AwayTeamID  uuid.UUID `gorm:"type:uuid;column:away_team_id;not null"`
	PlaceID     uuid.UUID `gorm:"type:uuid;column:place_id;not null"`
	CreatorID   uuid.UUID `gorm:"type:uuid;column:creator_id;not null"`
	ScheduledAt time.Time `gorm:"column:scheduled_at;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}
