package email

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

type Kind string

const (
	KindVerifyEmail   Kind = "verify_email"
	KindResetPassword Kind = "reset_password"
	KindChangeEmail   Kind = "change_email"
)

// Message is a fully rendered mail. It is also the AMQP payload when the
// queue driver is used.
type Message struct {
	Kind    Kind   `json:"kind"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	Text    string `json:"text"`
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender logs emails instead of sending them. Used in ENV=local.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger.With("component", "mail")}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.InfoContext(ctx, "email (local dev)", "kind", msg.Kind, "to", msg.To, "subject", msg.Subject, "text", msg.Text)
	return nil
}

// ResendSender sends emails via the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
}

func NewResendSender(apiKey, from string) *ResendSender {
	return &ResendSender{client: resend.NewClient(apiKey), from: from}
}

func (s *ResendSender) Send(ctx context.Context, msg Message) error {
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	}
	_, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

type Config struct {
	Driver       string // log | resend | smtp | amqp
	From         string
	ResendAPIKey string
	SMTP         SMTPConfig
}

// NewSender picks the backend named by cfg.Driver. pub is only used by the
// amqp driver and may be nil otherwise.
func NewSender(cfg Config, pub Publisher, logger *slog.Logger) (Sender, error) {
	switch cfg.Driver {
	case "log":
		return NewLogSender(logger), nil
	case "resend":
		return NewResendSender(cfg.ResendAPIKey, cfg.From), nil
	case "smtp":
		return NewSMTPSender(cfg.SMTP, cfg.From), nil
	case "amqp":
		if pub == nil {
			return nil, fmt.Errorf("mail driver amqp needs a publisher")
		}
		return NewQueueSender(pub), nil
	}
	return nil, fmt.Errorf("unknown mail driver %q", cfg.Driver)
}
