package chat

import (
	"context"

	"github.com/goalmates-app/goalmates-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository persists chat messages.
type Repository interface {
	Create(ctx context.Context, message *models.ChatMessage) error
	ListRecent(ctx context.Context, limit int) ([]models.ChatMessage, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository constructs a chat repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) Create(ctx context.Context, message *models.ChatMessage) error {
	return r.db.WithContext(ctx).Create(message).Error
}

// ListRecent returns the newest messages, capped at limit.
func (r *repositoryImpl) ListRecent(ctx context.Context, limit int) ([]models.ChatMessage, error) {
	var rows []models.ChatMessage
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
