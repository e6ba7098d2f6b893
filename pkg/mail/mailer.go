package mail

import "context"

// NotificationEmail carries everything needed to deliver one digest email.
type NotificationEmail struct {
	To       string
	Username string
	Title    string
	Body     string
}

// Mailer is the outbound transport consumed by the digest worker.
type Mailer interface {
	SendNotificationEmail(ctx context.Context, msg NotificationEmail) error
}
