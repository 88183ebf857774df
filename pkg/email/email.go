// Package email sends transactional mail through SendGrid.
package email

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/angelmondragon/aura-storefront/pkg/config"
	"github.com/angelmondragon/aura-storefront/pkg/logger"
)

// Message is one outbound email.
type Message struct {
	ToName  string
	ToEmail string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers a message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type sendClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendGridSender delivers through the SendGrid v3 API.
type SendGridSender struct {
	client sendClient
	from   *mail.Email
	logg   *logger.Logger
}

func NewSendGridSender(cfg config.SendgridConfig, logg *logger.Logger) (*SendGridSender, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("sendgrid api key is required")
	}
	if strings.TrimSpace(cfg.DefaultFrom) == "" {
		return nil, errors.New("sendgrid from address is required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &SendGridSender{
		client: sendgrid.NewSendClient(cfg.APIKey),
		from:   mail.NewEmail(cfg.FromName, cfg.DefaultFrom),
		logg:   logg,
	}, nil
}

func (s *SendGridSender) Send(ctx context.Context, msg Message) error {
	if err := validate(msg); err != nil {
		return err
	}
	html := msg.HTML
	if html == "" {
		html = fmt.Sprintf("<pre>%s</pre>", msg.Text)
	}
	message := mail.NewSingleEmail(s.from, msg.Subject, mail.NewEmail(msg.ToName, msg.ToEmail), msg.Text, html)

	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		return &StatusError{StatusCode: resp.StatusCode, Body: resp.Body}
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"status":  resp.StatusCode,
		"subject": msg.Subject,
	}), "email sent")
	return nil
}

// StatusError is a non-2xx answer from SendGrid.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("sendgrid send failed: status=%d body=%s", e.StatusCode, e.Body)
}

// Retryable reports whether SendGrid may accept the same request later.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// LogSender writes emails to the log. It stands in when no API key is configured.
type LogSender struct {
	logg *logger.Logger
}

func NewLogSender(logg *logger.Logger) *LogSender {
	if logg == nil {
		logg = logger.Nop()
	}
	return &LogSender{logg: logg}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	if err := validate(msg); err != nil {
		return err
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"to":      msg.ToEmail,
		"subject": msg.Subject,
	}), "email suppressed (no sendgrid key)")
	return nil
}

// New picks SendGrid when an API key is configured, else the log sender.
func New(cfg config.SendgridConfig, logg *logger.Logger) (Sender, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return NewLogSender(logg), nil
	}
	return NewSendGridSender(cfg, logg)
}

func validate(msg Message) error {
	if strings.TrimSpace(msg.ToEmail) == "" {
		return errors.New("recipient address is required")
	}
	if strings.TrimSpace(msg.Subject) == "" {
		return errors.New("subject is required")
	}
	return nil
}
