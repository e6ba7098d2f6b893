package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents the canonical identity entity for players.
type User struct {
	ID              uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email           string     `gorm:"type:text;not null;uniqueIndex"`
	Username        string     `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash    string     `gorm:"column:password_hash;not null"`
	FirstName       *string    `gorm:"column:first_name"`
	LastName        *string    `gorm:"column:last_name"`
	City            *string    `gorm:"column:city"`
	Country         *string    `gorm:"column:country"`
	AvatarURL       *string    `gorm:"column:avatar_url"`
	IsChatEnabled   bool       `gorm:"column:is_chat_enabled;not null;default:true"`
	IsEmailVerified bool       `gorm:"column:is_email_verified;not null;default:false"`
	EmailVerifiedAt *time.Time `gorm:"column:email_verified_at"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
