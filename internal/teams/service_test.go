package teams

import (
	"context"
	"testing"

	"github.com/goalmates-app/goalmates-backend/internal/notifications"
	"github.com/goalmates-app/goalmates-backend/internal/users"
	"github.com/goalmates-app/goalmates-backend/pkg/db/models"
	pkgerrors "github.com/goalmates-app/goalmates-backend/pkg/errors"
	"github.com/google/uuid"
)

type fakeRepo struct {
	findByIDFn  func(ctx context.Context, id uuid.UUID) (*models.Team, error)
	membersFn   func(ctx context.Context, teamIDs []uuid.UUID) ([]uuid.UUID, error)
	addMemberFn func(ctx context.Context, teamID, userID uuid.UUID) error
}

func (f *fakeRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (f *fakeRepo) MemberUserIDs(ctx context.Context, teamIDs []uuid.UUID) ([]uuid.UUID, error) {
	if f.membersFn != nil {
		return f.membersFn(ctx, teamIDs)
	}
	return nil, nil
}

func (f *fakeRepo) AddMember(ctx context.Context, teamID, userID uuid.UUID) error {
	if f.addMemberFn != nil {
		return f.addMemberFn(ctx, teamID, userID)
	}
	return nil
}

type fakeUsersRepo struct {
	findByIDFn func(ctx context.Context, id uuid.UUID) (*models.User, error)
}

func (f *fakeUsersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return &models.User{ID: id, Username: "player"}, nil
}

func (f *fakeUsersRepo) FindSummariesByIDs(ctx context.Context, ids []uuid.UUID) ([]users.Summary, error) {
	return nil, nil
}

func (f *fakeUsersRepo) FindReceiversByIDs(ctx context.Context, ids []uuid.UUID) ([]users.Receiver, error) {
	return nil, nil
}

type fakeNotifier struct {
	created []notifications.CreatePayload
	batches [][]notifications.CreatePayload
}

func (f *fakeNotifier) ListForUser(ctx context.Context, userID uuid.UUID) (*notifications.ListResult, error) {
	return nil, nil
}

func (f *fakeNotifier) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return 0, nil
}

func (f *fakeNotifier) SetReadStatus(ctx context.Context, userID, notificationID uuid.UUID, isRead bool) (*notifications.Summary, error) {
	return nil, nil
}

func (f *fakeNotifier) Create(ctx context.Context, payload notifications.CreatePayload) (*notifications.Summary, error) {
	f.created = append(f.created, payload)
	return &notifications.Summary{ID: uuid.New()}, nil
}

func (f *fakeNotifier) NotifyMany(ctx context.Context, payloads []notifications.CreatePayload) error {
	f.batches = append(f.batches, payloads)
	return nil
}

func TestJoinNotifiesOwner(t *testing.T) {
	ownerID := uuid.New()
	teamID := uuid.New()
	joinerID := uuid.New()

	var added bool
	repo := &fakeRepo{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*models.Team, error) {
			return &models.Team{ID: teamID, Name: "Lions", OwnerID: ownerID}, nil
		},
		addMemberFn: func(ctx context.Context, tID, uID uuid.UUID) error {
			added = true
			return nil
		},
	}
	notifier := &fakeNotifier{}

	svc, err := NewService(repo, &fakeUsersRepo{}, notifier)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	if err := svc.Join(context.Background(), teamID, joinerID); err != nil {
		t.Fatalf("unexpected join error: %v", err)
	}
	if !added {
		t.Fatal("expected member persisted")
	}
	if len(notifier.created) != 1 {
		t.Fatalf("expected one notification, got %d", len(notifier.created))
	}
	payload := notifier.created[0]
	if payload.ReceiverID != ownerID {
		t.Fatalf("expected owner receiver, got %s", payload.ReceiverID)
	}
	if payload.SenderID == nil || *payload.SenderID != joinerID {
		t.Fatalf("expected joiner sender, got %v", payload.SenderID)
	}
	if payload.Body != "player joined Lions" {
		t.Fatalf("unexpected body %q", payload.Body)
	}
}

func TestJoinOwnTeamSkipsNotification(t *testing.T) {
	ownerID := uuid.New()
	repo := &fakeRepo{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*models.Team, error) {
			return &models.Team{ID: id, Name: "Lions", OwnerID: ownerID}, nil
		},
	}
	notifier := &fakeNotifier{}

	svc, err := NewService(repo, &fakeUsersRepo{}, notifier)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	if err := svc.Join(context.Background(), uuid.New(), ownerID); err != nil {
		t.Fatalf("unexpected join error: %v", err)
	}
	if len(notifier.created) != 0 {
		t.Fatalf("expected no notification, got %d", len(notifier.created))
	}
}

func TestJoinUnknownTeamIsNotFound(t *testing.T) {
	svc, err := NewService(&fakeRepo{}, &fakeUsersRepo{}, &fakeNotifier{})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	err = svc.Join(context.Background(), uuid.New(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}
