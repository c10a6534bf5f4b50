// Package notifications builds and delivers outgoing email.
package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"storefront/internal/config"
	"storefront/internal/middleware"
	"storefront/internal/observability"

	"gopkg.in/mail.v2"
)

// Message is a rendered email with a plain text body and an HTML alternative.
type Message struct {
	To       []string
	Subject  string
	Text     string
	HTML     string
	Template string
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// sender is the part of *mail.Dialer the SMTP mailer uses.
type sender interface {
	DialAndSend(m ...*mail.Message) error
}

// SMTPMailer sends messages through an SMTP relay.
type SMTPMailer struct {
	from   string
	dialer sender
}

// NewSMTPMailer configures a mailer from SMTP_* settings. SMTP_USE_TLS
// requires STARTTLS; otherwise it is used when the server offers it.
func NewSMTPMailer(cfg *config.Config) *SMTPMailer {
	d := mail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
	d.Timeout = 20 * time.Second
	if cfg.SMTPUseTLS {
		d.StartTLSPolicy = mail.MandatoryStartTLS
	} else {
		d.StartTLSPolicy = mail.OpportunisticStartTLS
	}
	return &SMTPMailer{from: cfg.DefaultFromEmail, dialer: d}
}

// Send delivers msg and records the outcome in the email metrics.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	em := mail.NewMessage()
	em.SetHeader("From", m.from)
	em.SetHeader("To", msg.To...)
	em.SetHeader("Subject", msg.Subject)
	em.SetBody("text/plain", msg.Text)
	if msg.HTML != "" {
		em.AddAlternative("text/html", msg.HTML)
	}

	err := m.dialer.DialAndSend(em)
	observability.RecordEmail(msg.Template, err)
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "email delivery failed",
			slog.String("template", msg.Template),
			slog.Any("to", msg.To),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("send %s email: %w", msg.Template, err)
	}
	middleware.Logger.InfoContext(ctx, "email sent",
		slog.String("template", msg.Template),
		slog.Any("to", msg.To),
	)
	return nil
}

// LogMailer writes messages to the log instead of sending them. It is used
// when no SMTP host is configured and keeps the last messages for inspection.
type LogMailer struct {
	mu   sync.Mutex
	sent []Message
}

// Send logs the envelope of msg. Bodies can carry reset links, so only their
// size is logged.
func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.mu.Lock()
	m.sent = append(m.sent, msg)
	if len(m.sent) > 50 {
		m.sent = m.sent[len(m.sent)-50:]
	}
	m.mu.Unlock()

	observability.RecordEmail(msg.Template, nil)
	middleware.Logger.InfoContext(ctx, "email (not sent, no SMTP host)",
		slog.String("template", msg.Template),
		slog.Any("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.Int("body_bytes", len(msg.Text)),
	)
	return nil
}

// Sent returns a copy of the retained messages.
func (m *LogMailer) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.sent...)
}

// NewMailer returns an SMTP mailer when SMTP_HOST is set and a LogMailer
// otherwise.
func NewMailer(cfg *config.Config) Mailer {
	if cfg.SMTPHost == "" {
		return &LogMailer{}
	}
	return NewSMTPMailer(cfg)
}
