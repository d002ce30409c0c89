// Package mail delivers order notifications over SMTP. Without SMTP
// configuration the package degrades to a log-only sender so the rest of the
// pipeline keeps working in development.
package mail

import (
	"context"
	"fmt"
	"log/slog"

	gomail "github.com/wneessen/go-mail"

	"github.com/futbolero/checkout-service/internal/application"
	"github.com/futbolero/checkout-service/internal/config"
)

type SMTPSender struct {
	client *gomail.Client
	from   string
	logger *slog.Logger
}

// NewSender returns the SMTP sender when the smtp section is configured and
// the log-only sender otherwise.
func NewSender(cfg config.SMTPConfig, logger *slog.Logger) (application.NotificationSender, error) {
	if !cfg.Configured() {
		logger.Warn("smtp not configured, notifications will be logged only")
		return NewLogSender(logger), nil
	}

	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(cfg.User),
		gomail.WithPassword(cfg.Password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
	}
	if cfg.Port == 465 {
		opts = append(opts, gomail.WithSSL())
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build smtp client: %w", err)
	}

	from := cfg.From
	if from == "" {
		from = cfg.User
	}

	return &SMTPSender{
		client: client,
		from:   from,
		logger: logger,
	}, nil
}

func (s *SMTPSender) Send(ctx context.Context, msg application.Message) error {
	m := gomail.NewMsg()
	if err := m.From(s.from); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextPlain, msg.Body)

	if err := s.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}

	s.logger.Info("notification sent", "to", msg.To, "subject", msg.Subject)
	return nil
}

// LogSender records what would have been sent. Used when SMTP is not
// configured and in tests.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, msg application.Message) error {
	s.logger.Info("notification skipped (no smtp)",
		"to", msg.To,
		"subject", msg.Subject,
	)
	return nil
}
