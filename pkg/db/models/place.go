package models

import (
	"time"

	"github.com/google/uuid"
)

// Place is a venue where matches are played.
type Place struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"type:text;not null"`
	City      string    `gorm:"type:text;not null"`
	Lat       float64   `gorm:"column:lat;not null"`
	Lng       float64   `gorm:"column:lng;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
