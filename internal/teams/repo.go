package teams

import (
	"context"
	"errors"

	"github.com/goalmates-app/goalmates-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository exposes team membership lookups.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Team, error)
	MemberUserIDs(ctx context.Context, teamIDs []uuid.UUID) ([]uuid.UUID, error)
	AddMember(ctx context.Context, teamID, userID uuid.UUID) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository constructs a teams repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

// FindByID loads a team; nil result means the team is unknown.
func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	var team models.Team
	if err := r.db.WithContext(ctx).First(&team, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &team, nil
}

// MemberUserIDs returns the distinct user ids across the given teams. A user
// rostered on several of them appears once.
func (r *repositoryImpl) MemberUserIDs(ctx context.Context, teamIDs []uuid.UUID) ([]uuid.UUID, error) {
	if len(teamIDs) == 0 {
		return nil, nil
	}
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.TeamMember{}).
		Distinct("user_id").
		Where("team_id IN ?", teamIDs).
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repositoryImpl) AddMember(ctx context.Context, teamID, userID uuid.UUID) error {
	member := models.TeamMember{
		ID:     uuid.New(),
		TeamID: teamID,
		UserID: userID,
	}
	return r.db.WithContext(ctx).Create(&member).Error
}
