package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/goalmates-app/goalmates-backend/pkg/config"
	"github.com/goalmates-app/goalmates-backend/pkg/logger"
)

// Client delivers notification emails over SMTP. Without an SMTP host
// configured it degrades to logging the delivery, which keeps local and test
// environments free of a mail dependency.
type Client struct {
	cfg  config.MailConfig
	logg *logger.Logger
	send sendFunc
}

type sendFunc func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error

func NewClient(cfg config.MailConfig, logg *logger.Logger) *Client {
	return &Client{
		cfg:  cfg,
		logg: logg,
		send: smtp.SendMail,
	}
}

func (c *Client) SendNotificationEmail(ctx context.Context, msg NotificationEmail) error {
	if msg.To == "" {
		return fmt.Errorf("recipient address is required")
	}

	subject := msg.Title
	if subject == "" {
		subject = "New notification"
	}

	body := c.buildBody(msg)

	if !c.cfg.Enabled() {
		if c.logg != nil {
			logCtx := c.logg.WithFields(ctx, map[string]any{"to": msg.To, "subject": subject})
			c.logg.Info(logCtx, "mail transport disabled, delivery logged only")
		}
		return nil
	}

	raw := encodeMessage(c.cfg.From, msg.To, subject, body)

	var auth smtp.Auth
	if c.cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", c.cfg.SMTPUser, c.cfg.SMTPPassword, c.cfg.SMTPHost)
	}

	addr := fmt.Sprintf("%s:%d", c.cfg.SMTPHost, c.cfg.SMTPPort)
	if err := c.send(addr, auth, fromAddress(c.cfg.From), []string{msg.To}, raw); err != nil {
		return fmt.Errorf("sending notification email: %w", err)
	}
	return nil
}

func (c *Client) buildBody(msg NotificationEmail) string {
	greeting := "Hello"
	if msg.Username != "" {
		greeting = "Hello " + msg.Username
	}
	link := strings.TrimRight(c.cfg.FrontendBaseURL, "/") + "/notifications"
	return fmt.Sprintf("%s,\n\n%s\n\n%s\n\nSee all your notifications: %s\n", greeting, msg.Title, msg.Body, link)
}

func encodeMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", sanitizeHeader(subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

// fromAddress extracts the bare address from a "Name <addr>" from header.
func fromAddress(from string) string {
	if start := strings.LastIndex(from, "<"); start >= 0 {
		if end := strings.LastIndex(from, ">"); end > start {
			return from[start+1 : end]
		}
	}
	return from
}

func sanitizeHeader(value string) string {
	value = strings.ReplaceAll(value, "\r", " ")
	return strings.ReplaceAll(value, "\n", " ")
}
