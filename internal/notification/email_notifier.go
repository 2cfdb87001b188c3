package notification

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"

	"github.com/stanstork/leadwatch-api/internal/config"
	"github.com/stanstork/leadwatch-api/internal/models"
)

// mailSender is satisfied by *gomail.Dialer.
type mailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

type EmailNotifier struct {
	from       string
	recipients []string
	sender     mailSender
	logger     zerolog.Logger
}

func NewEmailNotifier(cfg config.EmailConfig, logger zerolog.Logger) (*EmailNotifier, error) {
	host := strings.TrimSpace(cfg.SMTPHost)
	from := strings.TrimSpace(cfg.From)
	if host == "" {
		return nil, fmt.Errorf("smtp_host is required for email notifier")
	}
	if from == "" {
		return nil, fmt.Errorf("from is required for email notifier")
	}
	port := cfg.SMTPPort
	if port == 0 {
		port = 587
	}

	return &EmailNotifier{
		from:       from,
		recipients: sanitizeRecipients(cfg.AlertRecipients),
		sender:     gomail.NewDialer(host, port, strings.TrimSpace(cfg.Username), cfg.Password),
		logger:     logger.With().Str("notifier", "email").Logger(),
	}, nil
}

func (n *EmailNotifier) String() string { return "email" }

func (n *EmailNotifier) Notify(_ context.Context, notif models.Notification) error {
	if len(n.recipients) == 0 {
		return nil
	}

	if err := n.sender.DialAndSend(n.message(notif)); err != nil {
		return fmt.Errorf("send notification email: %w", err)
	}
	n.logger.Debug().Str("notification_id", notif.ID).Int("recipients", len(n.recipients)).Msg("notification email sent")
	return nil
}

func (n *EmailNotifier) message(notif models.Notification) *gomail.Message {
	subject := "[LeadWatch] Notification"
	if title := strings.TrimSpace(notif.Title); title != "" {
		subject = "[LeadWatch] " + title
	}

	var body strings.Builder
	body.WriteString(strings.TrimSpace(notif.Message))
	body.WriteString("\n\n")
	fmt.Fprintf(&body, "Type: %s\n", notif.Type)
	fmt.Fprintf(&body, "Priority: %s\n", notif.Priority)
	fmt.Fprintf(&body, "Created: %s\n", notif.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	if len(notif.Payload) > 0 {
		fmt.Fprintf(&body, "Details: %s\n", string(notif.Payload))
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", n.recipients...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body.String())
	return m
}
