package teams

import (
	"context"
	"fmt"

	"github.com/goalmates-app/goalmates-backend/internal/notifications"
	"github.com/goalmates-app/goalmates-backend/internal/users"
	pkgerrors "github.com/goalmates-app/goalmates-backend/pkg/errors"
	"github.com/google/uuid"
)

// Service covers the membership flows that produce notifications.
type Service interface {
	Join(ctx context.Context, teamID, userID uuid.UUID) error
}

type service struct {
	repo     Repository
	users    users.Repository
	notifier notifications.Service
}

// NewService wires teams dependencies.
func NewService(repo Repository, usersRepo users.Repository, notifier notifications.Service) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "teams repository required")
	}
	if usersRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "users repository required")
	}
	if notifier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications service required")
	}
	return &service{repo: repo, users: usersRepo, notifier: notifier}, nil
}

// Join adds the user to the team roster and notifies the team owner. Owners
// joining their own team skip the notification.
func (s *service) Join(ctx context.Context, teamID, userID uuid.UUID) error {
	if teamID == uuid.Nil || userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "team id and user id required")
	}

	team, err := s.repo.FindByID(ctx, teamID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load team")
	}
	if team == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "team not found")
	}

	joiner, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if joiner == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}

	if err := s.repo.AddMember(ctx, teamID, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add member")
	}

	if team.OwnerID == userID {
		return nil
	}
	senderID := userID
	_, err = s.notifier.Create(ctx, notifications.CreatePayload{
		SenderID:   &senderID,
		ReceiverID: team.OwnerID,
		Title:      "New team member",
		Body:       fmt.Sprintf("%s joined %s", joiner.Username, team.Name),
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "notify owner")
	}
	return nil
}
