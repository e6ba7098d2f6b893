package notifications

import (
	"context"
	"errors"

	"github.com/goalmates-app/goalmates-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository exposes notification persistence operations.
type Repository interface {
	Create(ctx context.Context, notification *models.Notification) error
	CreateBatch(ctx context.Context, notifications []*models.Notification) error
	ListForReceiver(ctx context.Context, receiverID uuid.UUID, limit int) ([]models.Notification, error)
	CountUnread(ctx context.Context, receiverID uuid.UUID) (int64, error)
	FindOwned(ctx context.Context, receiverID, notificationID uuid.UUID) (*models.Notification, error)
	UpdateRead(ctx context.Context, notificationID uuid.UUID, isRead bool) error
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Notification, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository constructs a notifications repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) Create(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *repositoryImpl) CreateBatch(ctx context.Context, notifications []*models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(notifications).Error
}

// ListForReceiver returns the receiver's newest notifications, capped at limit.
func (r *repositoryImpl) ListForReceiver(ctx context.Context, receiverID uuid.UUID, limit int) ([]models.Notification, error) {
	var rows []models.Notification
	err := r.db.WithContext(ctx).
		Where("receiver_id = ?", receiverID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repositoryImpl) CountUnread(ctx context.Context, receiverID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("receiver_id = ? AND is_read = ?", receiverID, false).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// FindOwned loads a notification only when it belongs to the given receiver.
// A nil result means the notification does not exist or is owned by someone
// else; callers cannot tell the two apart.
func (r *repositoryImpl) FindOwned(ctx context.Context, receiverID, notificationID uuid.UUID) (*models.Notification, error) {
	var row models.Notification
	err := r.db.WithContext(ctx).
		Where("id = ? AND receiver_id = ?", notificationID, receiverID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *repositoryImpl) UpdateRead(ctx context.Context, notificationID uuid.UUID, isRead bool) error {
	return r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ?", notificationID).
		Update("is_read", isRead).Error
}

func (r *repositoryImpl) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Notification, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Notification
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
