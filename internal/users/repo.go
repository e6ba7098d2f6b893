package users

import (
	"context"
	"errors"

	"github.com/goalmates-app/goalmates-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Summary is the public identity projection attached to notifications.
type Summary struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
}

// Receiver carries the fields the digest worker needs to decide on and
// address an email delivery.
type Receiver struct {
	ID              uuid.UUID
	Email           string
	Username        string
	FirstName       *string
	IsEmailVerified bool
}

// DisplayName prefers the first name over the username for mail greetings.
func (r Receiver) DisplayName() string {
	if r.FirstName != nil && *r.FirstName != "" {
		return *r.FirstName
	}
	return r.Username
}

// Repository exposes user-related persistence operations.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindSummariesByIDs(ctx context.Context, ids []uuid.UUID) ([]Summary, error)
	FindReceiversByIDs(ctx context.Context, ids []uuid.UUID) ([]Receiver, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

// FindByID loads a user by their UUID; nil result means the user is unknown.
func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// FindSummariesByIDs resolves identity summaries in a single query.
func (r *repositoryImpl) FindSummariesByIDs(ctx context.Context, ids []uuid.UUID) ([]Summary, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var summaries []Summary
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Select("id", "username").
		Where("id IN ?", ids).
		Find(&summaries).Error
	if err != nil {
		return nil, err
	}
	return summaries, nil
}

// FindReceiversByIDs resolves email delivery details in a single query.
func (r *repositoryImpl) FindReceiversByIDs(ctx context.Context, ids []uuid.UUID) ([]Receiver, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var receivers []Receiver
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Select("id", "email", "username", "first_name", "is_email_verified").
		Where("id IN ?", ids).
		Find(&receivers).Error
	if err != nil {
		return nil, err
	}
	return receivers, nil
}
