package digest

import (
	"context"

	"github.com/goalmates-app/goalmates-backend/internal/notifications"
	"github.com/goalmates-app/goalmates-backend/internal/users"
	"github.com/goalmates-app/goalmates-backend/pkg/db/models"
	pkgerrors "github.com/goalmates-app/goalmates-backend/pkg/errors"
	"github.com/goalmates-app/goalmates-backend/pkg/logger"
	"github.com/goalmates-app/goalmates-backend/pkg/mail"
	"github.com/goalmates-app/goalmates-backend/pkg/metrics"
	"github.com/google/uuid"
)

// Worker turns a digest job into notification emails. It is the queue's
// registered processor.
type Worker struct {
	notifications notifications.Repository
	users         users.Repository
	mailer        mail.Mailer
	log           *logger.Logger
	metrics       *metrics.RealtimeMetrics
}

// NewWorker wires the digest worker dependencies.
func NewWorker(
	notificationsRepo notifications.Repository,
	usersRepo users.Repository,
	mailer mail.Mailer,
	log *logger.Logger,
	m *metrics.RealtimeMetrics,
) (*Worker, error) {
	if notificationsRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	if usersRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "users repository required")
	}
	if mailer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "mailer required")
	}
	if log == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &Worker{
		notifications: notificationsRepo,
		users:         usersRepo,
		mailer:        mailer,
		log:           log,
		metrics:       m,
	}, nil
}

// HandleJob emails the receivers of the given notifications. Each item is
// isolated: a skipped or failed email never blocks the rest of the batch.
func (w *Worker) HandleJob(ctx context.Context, notificationIDs []uuid.UUID) error {
	if len(notificationIDs) == 0 {
		return nil
	}

	rows, err := w.notifications.FindByIDs(ctx, notificationIDs)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load notifications for digest")
	}
	if len(rows) == 0 {
		w.log.Warn(w.log.WithField(ctx, "requested", len(notificationIDs)), "digest job matched no notifications")
		return nil
	}

	receivers, err := w.loadReceivers(ctx, rows)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load digest receivers")
	}

	for _, row := range rows {
		w.deliver(ctx, row.ReceiverID, row.Title, row.Body, receivers)
	}
	return nil
}

func (w *Worker) loadReceivers(ctx context.Context, rows []models.Notification) (map[uuid.UUID]users.Receiver, error) {
	seen := make(map[uuid.UUID]struct{}, len(rows))
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		if _, ok := seen[row.ReceiverID]; ok {
			continue
		}
		seen[row.ReceiverID] = struct{}{}
		ids = append(ids, row.ReceiverID)
	}

	receivers, err := w.users.FindReceiversByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]users.Receiver, len(receivers))
	for _, receiver := range receivers {
		byID[receiver.ID] = receiver
	}
	return byID, nil
}

func (w *Worker) deliver(ctx context.Context, receiverID uuid.UUID, title, body string, receivers map[uuid.UUID]users.Receiver) {
	ctx = w.log.WithUserID(ctx, receiverID.String())

	receiver, ok := receivers[receiverID]
	if !ok {
		w.log.Warn(ctx, "digest receiver no longer exists, skipping")
		w.metrics.IncEmail("skipped_missing")
		return
	}
	if !receiver.IsEmailVerified {
		w.log.Debug(ctx, "digest receiver email unverified, skipping")
		w.metrics.IncEmail("skipped_unverified")
		return
	}

	msg := mail.NotificationEmail{
		To:       receiver.Email,
		Username: receiver.DisplayName(),
		Title:    title,
		Body:     body,
	}
	if err := w.mailer.SendNotificationEmail(ctx, msg); err != nil {
		w.log.Error(ctx, "digest email send failed", err)
		w.metrics.IncEmail("error")
		return
	}
	w.metrics.IncEmail("sent")
}
