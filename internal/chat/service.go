package chat

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/goalmates-app/goalmates-backend/internal/realtime"
	"github.com/goalmates-app/goalmates-backend/internal/users"
	"github.com/goalmates-app/goalmates-backend/pkg/db/models"
	pkgerrors "github.com/goalmates-app/goalmates-backend/pkg/errors"
	"github.com/google/uuid"
)

const maxMessageLength = 2000

// Broadcaster pushes one event to every live chat socket.
type Broadcaster interface {
	EmitToAll(ctx context.Context, event string, payload any)
}

// Message is the wire shape of a chat message.
type Message struct {
	ID        uuid.UUID      `json:"id"`
	Sender    *users.Summary `json:"sender"`
	Content   string         `json:"content"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Service persists chat messages and broadcasts them to the channel.
type Service interface {
	Send(ctx context.Context, senderID uuid.UUID, content string) (*Message, error)
	Eligibility(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	repo        Repository
	users       users.Repository
	broadcaster Broadcaster
}

// NewService wires chat dependencies.
func NewService(repo Repository, usersRepo users.Repository, broadcaster Broadcaster) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "chat repository required")
	}
	if usersRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "users repository required")
	}
	if broadcaster == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "broadcaster required")
	}
	return &service{repo: repo, users: usersRepo, broadcaster: broadcaster}, nil
}

// Send stores the message and broadcasts it to every connected chat socket,
// including the sender's own.
func (s *service) Send(ctx context.Context, senderID uuid.UUID, content string) (*Message, error) {
	if senderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sender id required")
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message content required")
	}
	if utf8.RuneCountInString(content) > maxMessageLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message too long")
	}

	summaries, err := s.users.FindSummariesByIDs(ctx, []uuid.UUID{senderID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sender")
	}
	if len(summaries) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sender not found")
	}

	row := models.ChatMessage{
		ID:       uuid.New(),
		SenderID: senderID,
		Content:  content,
	}
	if err := s.repo.Create(ctx, &row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create chat message")
	}

	message := Message{
		ID:        row.ID,
		Sender:    &summaries[0],
		Content:   row.Content,
		CreatedAt: row.CreatedAt,
	}
	s.broadcaster.EmitToAll(ctx, realtime.EventChatMessage, message)
	return &message, nil
}

// Eligibility gates chat socket connects on the user's chat flag. It is the
// chat gateway's EligibilityFunc.
func (s *service) Eligibility(ctx context.Context, userID uuid.UUID) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if user == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	if !user.IsChatEnabled {
		return pkgerrors.New(pkgerrors.CodeForbidden, "chat disabled for user")
	}
	return nil
}
