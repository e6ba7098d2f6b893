package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/goalmates-app/goalmates-backend/internal/users"
	"github.com/goalmates-app/goalmates-backend/pkg/config"
	"github.com/goalmates-app/goalmates-backend/pkg/db/models"
	pkgerrors "github.com/goalmates-app/goalmates-backend/pkg/errors"
	"github.com/goalmates-app/goalmates-backend/pkg/logger"
	"github.com/google/uuid"
)

type fakeRepository struct {
	createFn      func(ctx context.Context, notification *models.Notification) error
	createBatchFn func(ctx context.Context, notifications []*models.Notification) error
	listFn        func(ctx context.Context, receiverID uuid.UUID, limit int) ([]models.Notification, error)
	countUnreadFn func(ctx context.Context, receiverID uuid.UUID) (int64, error)
	findOwnedFn   func(ctx context.Context, receiverID, notificationID uuid.UUID) (*models.Notification, error)
	updateReadFn  func(ctx context.Context, notificationID uuid.UUID, isRead bool) error
	findByIDsFn   func(ctx context.Context, ids []uuid.UUID) ([]models.Notification, error)
}

func (f *fakeRepository) Create(ctx context.Context, notification *models.Notification) error {
	if f.createFn != nil {
		return f.createFn(ctx, notification)
	}
	return nil
}

func (f *fakeRepository) CreateBatch(ctx context.Context, notifications []*models.Notification) error {
	if f.createBatchFn != nil {
		return f.createBatchFn(ctx, notifications)
	}
	return nil
}

func (f *fakeRepository) ListForReceiver(ctx context.Context, receiverID uuid.UUID, limit int) ([]models.Notification, error) {
	if f.listFn != nil {
		return f.listFn(ctx, receiverID, limit)
	}
	return nil, nil
}

func (f *fakeRepository) CountUnread(ctx context.Context, receiverID uuid.UUID) (int64, error) {
	if f.countUnreadFn != nil {
		return f.countUnreadFn(ctx, receiverID)
	}
	return 0, nil
}

func (f *fakeRepository) FindOwned(ctx context.Context, receiverID, notificationID uuid.UUID) (*models.Notification, error) {
	if f.findOwnedFn != nil {
		return f.findOwnedFn(ctx, receiverID, notificationID)
	}
	return nil, nil
}

func (f *fakeRepository) UpdateRead(ctx context.Context, notificationID uuid.UUID, isRead bool) error {
	if f.updateReadFn != nil {
		return f.updateReadFn(ctx, notificationID, isRead)
	}
	return nil
}

func (f *fakeRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Notification, error) {
	if f.findByIDsFn != nil {
		return f.findByIDsFn(ctx, ids)
	}
	return nil, nil
}

type fakeUsers struct {
	findByIDFn  func(ctx context.Context, id uuid.UUID) (*models.User, error)
	summariesFn func(ctx context.Context, ids []uuid.UUID) ([]users.Summary, error)
	receiversFn func(ctx context.Context, ids []uuid.UUID) ([]users.Receiver, error)
}

func (f *fakeUsers) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return &models.User{ID: id}, nil
}

func (f *fakeUsers) FindSummariesByIDs(ctx context.Context, ids []uuid.UUID) ([]users.Summary, error) {
	if f.summariesFn != nil {
		return f.summariesFn(ctx, ids)
	}
	return nil, nil
}

func (f *fakeUsers) FindReceiversByIDs(ctx context.Context, ids []uuid.UUID) ([]users.Receiver, error) {
	if f.receiversFn != nil {
		return f.receiversFn(ctx, ids)
	}
	return nil, nil
}

type sinkCall struct {
	kind     string
	receiver uuid.UUID
	summary  Summary
	count    int64
}

type recordingSink struct {
	calls []sinkCall
}

func (s *recordingSink) NotificationNew(_ context.Context, receiverID uuid.UUID, summary Summary) {
	s.calls = append(s.calls, sinkCall{kind: "new", receiver: receiverID, summary: summary})
}

func (s *recordingSink) NotificationUpdate(_ context.Context, receiverID uuid.UUID, summary Summary) {
	s.calls = append(s.calls, sinkCall{kind: "update", receiver: receiverID, summary: summary})
}

func (s *recordingSink) NotificationCount(_ context.Context, receiverID uuid.UUID, count int64) {
	s.calls = append(s.calls, sinkCall{kind: "count", receiver: receiverID, count: count})
}

type recordingDigest struct {
	jobs [][]uuid.UUID
}

func (d *recordingDigest) Enqueue(ids []uuid.UUID) {
	d.jobs = append(d.jobs, ids)
}

type serviceDeps struct {
	repo   *fakeRepository
	users  *fakeUsers
	sink   *recordingSink
	digest *recordingDigest
}

func newTestService(t *testing.T, deps serviceDeps) Service {
	t.Helper()
	if deps.repo == nil {
		deps.repo = &fakeRepository{}
	}
	if deps.users == nil {
		deps.users = &fakeUsers{}
	}
	if deps.sink == nil {
		deps.sink = &recordingSink{}
	}
	if deps.digest == nil {
		deps.digest = &recordingDigest{}
	}
	svc, err := NewService(deps.repo, deps.users, deps.sink, deps.digest, logger.New(logger.Options{ServiceName: "test"}), config.NotificationsConfig{})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return svc
}

func TestService_ListForUserAttachesSendersAndCount(t *testing.T) {
	userID := uuid.New()
	senderID := uuid.New()
	systemRow := models.Notification{ID: uuid.New(), ReceiverID: userID, Title: "Welcome", Body: "hello"}
	senderRow := models.Notification{ID: uuid.New(), SenderID: &senderID, ReceiverID: userID, Title: "Invite", Body: "join us"}

	repo := &fakeRepository{
		listFn: func(ctx context.Context, receiverID uuid.UUID, limit int) ([]models.Notification, error) {
			if limit != 50 {
				t.Fatalf("expected default cap 50, got %d", limit)
			}
			return []models.Notification{senderRow, systemRow}, nil
		},
		countUnreadFn: func(ctx context.Context, receiverID uuid.UUID) (int64, error) {
			return 2, nil
		},
	}
	usersRepo := &fakeUsers{
		summariesFn: func(ctx context.Context, ids []uuid.UUID) ([]users.Summary, error) {
			if len(ids) != 1 || ids[0] != senderID {
				t.Fatalf("expected single sender lookup, got %v", ids)
			}
			return []users.Summary{{ID: senderID, Username: "ana"}}, nil
		},
	}

	svc := newTestService(t, serviceDeps{repo: repo, users: usersRepo})
	result, err := svc.ListForUser(context.Background(), userID)
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if len(result.Notifications) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(result.Notifications))
	}
	if result.UnreadCount != 2 {
		t.Fatalf("expected unread count 2, got %d", result.UnreadCount)
	}
	if result.Notifications[0].Sender == nil || result.Notifications[0].Sender.Username != "ana" {
		t.Fatalf("expected sender summary on first item, got %+v", result.Notifications[0].Sender)
	}
	if result.Notifications[1].Sender != nil {
		t.Fatal("expected nil sender on system notification")
	}
}

func TestService_SetReadStatusUnknownIsNotFound(t *testing.T) {
	svc := newTestService(t, serviceDeps{repo: &fakeRepository{}})

	_, err := svc.SetReadStatus(context.Background(), uuid.New(), uuid.New(), true)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestService_SetReadStatusEmitsUpdateThenCount(t *testing.T) {
	userID := uuid.New()
	row := models.Notification{ID: uuid.New(), ReceiverID: userID, Title: "Invite", Body: "join"}

	var updated bool
	repo := &fakeRepository{
		findOwnedFn: func(ctx context.Context, receiverID, notificationID uuid.UUID) (*models.Notification, error) {
			copied := row
			return &copied, nil
		},
		updateReadFn: func(ctx context.Context, notificationID uuid.UUID, isRead bool) error {
			updated = true
			if !isRead {
				t.Fatal("expected read=true update")
			}
			return nil
		},
		countUnreadFn: func(ctx context.Context, receiverID uuid.UUID) (int64, error) {
			return 7, nil
		},
	}
	sink := &recordingSink{}

	svc := newTestService(t, serviceDeps{repo: repo, sink: sink})
	summary, err := svc.SetReadStatus(context.Background(), userID, row.ID, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !updated {
		t.Fatal("expected read state persisted")
	}
	if !summary.IsRead {
		t.Fatal("expected returned summary marked read")
	}
	if len(sink.calls) != 2 || sink.calls[0].kind != "update" || sink.calls[1].kind != "count" {
		t.Fatalf("expected update then count, got %+v", sink.calls)
	}
	if sink.calls[1].count != 7 {
		t.Fatalf("expected recomputed count 7, got %d", sink.calls[1].count)
	}
}

func TestService_SetReadStatusSurvivesCountFailure(t *testing.T) {
	userID := uuid.New()
	row := models.Notification{ID: uuid.New(), ReceiverID: userID, Title: "Invite", Body: "join"}

	repo := &fakeRepository{
		findOwnedFn: func(ctx context.Context, receiverID, notificationID uuid.UUID) (*models.Notification, error) {
			copied := row
			return &copied, nil
		},
		countUnreadFn: func(ctx context.Context, receiverID uuid.UUID) (int64, error) {
			return 0, errors.New("db gone")
		},
	}
	sink := &recordingSink{}

	svc := newTestService(t, serviceDeps{repo: repo, sink: sink})
	if _, err := svc.SetReadStatus(context.Background(), userID, row.ID, true); err != nil {
		t.Fatalf("count failure must not fail the call: %v", err)
	}
	if len(sink.calls) != 1 || sink.calls[0].kind != "update" {
		t.Fatalf("expected lone update event, got %+v", sink.calls)
	}
}

func TestService_CreateValidatesPayload(t *testing.T) {
	svc := newTestService(t, serviceDeps{})

	_, err := svc.Create(context.Background(), CreatePayload{ReceiverID: uuid.New(), Title: "  ", Body: "b"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestService_CreateUnknownReceiverIsNotFound(t *testing.T) {
	usersRepo := &fakeUsers{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*models.User, error) {
			return nil, nil
		},
	}
	svc := newTestService(t, serviceDeps{users: usersRepo})

	_, err := svc.Create(context.Background(), CreatePayload{ReceiverID: uuid.New(), Title: "t", Body: "b"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestService_CreateEmitsButNeverEnqueues(t *testing.T) {
	receiverID := uuid.New()
	repo := &fakeRepository{
		countUnreadFn: func(ctx context.Context, id uuid.UUID) (int64, error) {
			return 1, nil
		},
	}
	sink := &recordingSink{}
	digest := &recordingDigest{}

	svc := newTestService(t, serviceDeps{repo: repo, sink: sink, digest: digest})
	summary, err := svc.Create(context.Background(), CreatePayload{ReceiverID: receiverID, Title: " Invite ", Body: " join "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Title != "Invite" || summary.Body != "join" {
		t.Fatalf("expected trimmed fields, got %+v", summary)
	}
	if len(sink.calls) != 2 || sink.calls[0].kind != "new" || sink.calls[1].kind != "count" {
		t.Fatalf("expected new then count, got %+v", sink.calls)
	}
	if len(digest.jobs) != 0 {
		t.Fatalf("single sends must not reach the digest queue, got %v", digest.jobs)
	}
}

func TestService_NotifyManyEmptyIsNoop(t *testing.T) {
	repo := &fakeRepository{
		createBatchFn: func(ctx context.Context, notifications []*models.Notification) error {
			t.Fatal("unexpected batch insert")
			return nil
		},
	}
	digest := &recordingDigest{}

	svc := newTestService(t, serviceDeps{repo: repo, digest: digest})
	if err := svc.NotifyMany(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(digest.jobs) != 0 {
		t.Fatalf("expected no digest job, got %v", digest.jobs)
	}
}

func TestService_NotifyManyFansOutAndEnqueuesOnce(t *testing.T) {
	alice, bob := uuid.New(), uuid.New()
	repo := &fakeRepository{
		countUnreadFn: func(ctx context.Context, id uuid.UUID) (int64, error) {
			return 3, nil
		},
	}
	sink := &recordingSink{}
	digest := &recordingDigest{}

	svc := newTestService(t, serviceDeps{repo: repo, sink: sink, digest: digest})
	payloads := []CreatePayload{
		{ReceiverID: alice, Title: "Match", Body: "scheduled"},
		{ReceiverID: alice, Title: "Match", Body: "moved"},
		{ReceiverID: bob, Title: "Match", Body: "scheduled"},
	}
	if err := svc.NotifyMany(context.Background(), payloads); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var newEvents, countEvents int
	for _, call := range sink.calls {
		switch call.kind {
		case "new":
			newEvents++
			if countEvents != 0 {
				t.Fatal("new events must precede count events")
			}
		case "count":
			countEvents++
		}
	}
	if newEvents != 3 {
		t.Fatalf("expected one new event per row, got %d", newEvents)
	}
	if countEvents != 2 {
		t.Fatalf("expected one count event per distinct receiver, got %d", countEvents)
	}
	if len(digest.jobs) != 1 || len(digest.jobs[0]) != 3 {
		t.Fatalf("expected one digest job with 3 ids, got %v", digest.jobs)
	}
}

func TestService_NotifyManyRejectsInvalidRowBeforeInsert(t *testing.T) {
	repo := &fakeRepository{
		createBatchFn: func(ctx context.Context, notifications []*models.Notification) error {
			t.Fatal("unexpected batch insert")
			return nil
		},
	}
	svc := newTestService(t, serviceDeps{repo: repo})

	err := svc.NotifyMany(context.Background(), []CreatePayload{
		{ReceiverID: uuid.New(), Title: "ok", Body: "ok"},
		{ReceiverID: uuid.Nil, Title: "bad", Body: "bad"},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestService_SummaryCarriesSenderAndReceiverIDs(t *testing.T) {
	userID := uuid.New()
	senderID := uuid.New()
	row := models.Notification{ID: uuid.New(), SenderID: &senderID, ReceiverID: userID, Title: "Invite", Body: "join us"}

	repo := &fakeRepository{
		listFn: func(ctx context.Context, receiverID uuid.UUID, limit int) ([]models.Notification, error) {
			return []models.Notification{row}, nil
		},
	}
	usersRepo := &fakeUsers{
		summariesFn: func(ctx context.Context, ids []uuid.UUID) ([]users.Summary, error) {
			return []users.Summary{{ID: senderID, Username: "ana"}}, nil
		},
	}

	svc := newTestService(t, serviceDeps{repo: repo, users: usersRepo})
	result, err := svc.ListForUser(context.Background(), userID)
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}

	item := result.Notifications[0]
	if item.SenderID == nil || *item.SenderID != senderID {
		t.Fatalf("expected sender id %s, got %v", senderID, item.SenderID)
	}
	if item.ReceiverID != userID {
		t.Fatalf("expected receiver id %s, got %s", userID, item.ReceiverID)
	}

	raw, err := json.Marshal(item)
	if err != nil {
		t.Fatalf("marshal summary: %v", err)
	}
	var wire map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wire); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	for _, key := range []string{"id", "senderId", "receiverId", "sender", "title", "body", "isRead", "createdAt"} {
		if _, ok := wire[key]; !ok {
			t.Fatalf("summary wire shape missing %q", key)
		}
	}
}
