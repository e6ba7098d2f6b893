package notifications

import (
	"context"
	"strings"

	"github.com/goalmates-app/goalmates-backend/internal/users"
	"github.com/goalmates-app/goalmates-backend/pkg/config"
	"github.com/goalmates-app/goalmates-backend/pkg/db/models"
	pkgerrors "github.com/goalmates-app/goalmates-backend/pkg/errors"
	"github.com/goalmates-app/goalmates-backend/pkg/logger"
	"github.com/google/uuid"
)

// DigestEnqueuer hands saved notification ids to the email digest queue.
type DigestEnqueuer interface {
	Enqueue(ids []uuid.UUID)
}

// Service defines notification list, read-state, and fan-out operations.
type Service interface {
	ListForUser(ctx context.Context, userID uuid.UUID) (*ListResult, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
	SetReadStatus(ctx context.Context, userID, notificationID uuid.UUID, isRead bool) (*Summary, error)
	Create(ctx context.Context, payload CreatePayload) (*Summary, error)
	NotifyMany(ctx context.Context, payloads []CreatePayload) error
}

type service struct {
	repo    Repository
	users   users.Repository
	events  EventSink
	digest  DigestEnqueuer
	log     *logger.Logger
	listCap int
}

// NewService wires notifications dependencies.
func NewService(
	repo Repository,
	usersRepo users.Repository,
	events EventSink,
	digest DigestEnqueuer,
	log *logger.Logger,
	cfg config.NotificationsConfig,
) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	if usersRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "users repository required")
	}
	if events == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "event sink required")
	}
	if digest == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "digest enqueuer required")
	}
	if log == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	listCap := cfg.ListCap
	if listCap <= 0 {
		listCap = 50
	}
	return &service{
		repo:    repo,
		users:   usersRepo,
		events:  events,
		digest:  digest,
		log:     log,
		listCap: listCap,
	}, nil
}

// ListForUser returns the caller's newest notifications, capped, plus a
// freshly computed unread count.
func (s *service) ListForUser(ctx context.Context, userID uuid.UUID) (*ListResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	rows, err := s.repo.ListForReceiver(ctx, userID, s.listCap)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}

	senders, err := s.senderSummaries(ctx, rows)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve senders")
	}

	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unread")
	}

	items := make([]Summary, 0, len(rows))
	for _, row := range rows {
		items = append(items, toSummary(row, senders))
	}
	return &ListResult{Notifications: items, UnreadCount: unread}, nil
}

func (s *service) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unread")
	}
	return count, nil
}

// SetReadStatus flips a notification's read flag for its owner. A missing
// notification and one owned by another user both come back as not found.
func (s *service) SetReadStatus(ctx context.Context, userID, notificationID uuid.UUID, isRead bool) (*Summary, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if notificationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}

	row, err := s.repo.FindOwned(ctx, userID, notificationID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load notification")
	}
	if row == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}

	if row.IsRead != isRead {
		if err := s.repo.UpdateRead(ctx, notificationID, isRead); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update read state")
		}
		row.IsRead = isRead
	}

	senders, err := s.senderSummaries(ctx, []models.Notification{*row})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve sender")
	}
	summary := toSummary(*row, senders)

	s.events.NotificationUpdate(ctx, userID, summary)
	s.emitCount(ctx, userID)
	return &summary, nil
}

// Create persists one notification and pushes it to the receiver's live
// connections. No email digest entry is produced for single sends.
func (s *service) Create(ctx context.Context, payload CreatePayload) (*Summary, error) {
	row, err := s.buildRow(payload)
	if err != nil {
		return nil, err
	}

	receiver, err := s.users.FindByID(ctx, payload.ReceiverID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load receiver")
	}
	if receiver == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "receiver not found")
	}

	if err := s.repo.Create(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create notification")
	}

	senders, err := s.senderSummaries(ctx, []models.Notification{*row})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve sender")
	}
	summary := toSummary(*row, senders)

	s.events.NotificationNew(ctx, row.ReceiverID, summary)
	s.emitCount(ctx, row.ReceiverID)
	return &summary, nil
}

// NotifyMany persists a batch of notifications, pushes one new event per
// saved row and one count event per distinct receiver, then hands the saved
// ids to the email digest queue in a single job.
func (s *service) NotifyMany(ctx context.Context, payloads []CreatePayload) error {
	if len(payloads) == 0 {
		return nil
	}

	rows := make([]*models.Notification, 0, len(payloads))
	for _, payload := range payloads {
		row, err := s.buildRow(payload)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	if err := s.repo.CreateBatch(ctx, rows); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create notifications")
	}

	saved := make([]models.Notification, 0, len(rows))
	for _, row := range rows {
		saved = append(saved, *row)
	}
	senders, err := s.senderSummaries(ctx, saved)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve senders")
	}

	receiverSeen := make(map[uuid.UUID]struct{}, len(saved))
	receivers := make([]uuid.UUID, 0, len(saved))
	ids := make([]uuid.UUID, 0, len(saved))
	for _, row := range saved {
		ids = append(ids, row.ID)
		s.events.NotificationNew(ctx, row.ReceiverID, toSummary(row, senders))
		if _, ok := receiverSeen[row.ReceiverID]; !ok {
			receiverSeen[row.ReceiverID] = struct{}{}
			receivers = append(receivers, row.ReceiverID)
		}
	}
	for _, receiverID := range receivers {
		s.emitCount(ctx, receiverID)
	}

	s.digest.Enqueue(ids)
	return nil
}

func (s *service) buildRow(payload CreatePayload) (*models.Notification, error) {
	title := strings.TrimSpace(payload.Title)
	body := strings.TrimSpace(payload.Body)
	if payload.ReceiverID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "receiver id required")
	}
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title required")
	}
	if body == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "body required")
	}
	return &models.Notification{
		ID:         uuid.New(),
		SenderID:   payload.SenderID,
		ReceiverID: payload.ReceiverID,
		Title:      title,
		Body:       body,
	}, nil
}

// emitCount recomputes the receiver's unread total and pushes it. Count
// failures never fail the surrounding operation.
func (s *service) emitCount(ctx context.Context, receiverID uuid.UUID) {
	count, err := s.repo.CountUnread(ctx, receiverID)
	if err != nil {
		s.log.Error(s.log.WithUserID(ctx, receiverID.String()), "count unread for event", err)
		return
	}
	s.events.NotificationCount(ctx, receiverID, count)
}

func (s *service) senderSummaries(ctx context.Context, rows []models.Notification) (map[uuid.UUID]users.Summary, error) {
	seen := make(map[uuid.UUID]struct{})
	ids := make([]uuid.UUID, 0)
	for _, row := range rows {
		if row.SenderID == nil {
			continue
		}
		if _, ok := seen[*row.SenderID]; ok {
			continue
		}
		seen[*row.SenderID] = struct{}{}
		ids = append(ids, *row.SenderID)
	}
	summaries, err := s.users.FindSummariesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]users.Summary, len(summaries))
	for _, summary := range summaries {
		byID[summary.ID] = summary
	}
	return byID, nil
}

func toSummary(row models.Notification, senders map[uuid.UUID]users.Summary) Summary {
	summary := Summary{
		ID:         row.ID,
		SenderID:   row.SenderID,
		ReceiverID: row.ReceiverID,
		Title:      row.Title,
		Body:       row.Body,
		IsRead:     row.IsRead,
		CreatedAt:  row.CreatedAt,
	}
	if row.SenderID != nil {
		if sender, ok := senders[*row.SenderID]; ok {
			summary.Sender = &users.Summary{ID: sender.ID, Username: sender.Username}
		}
	}
	return summary
}
