package worker

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/innovatehub/campaign-mailer/internal/config"
	"github.com/innovatehub/campaign-mailer/internal/domain"
	"github.com/innovatehub/campaign-mailer/internal/pkg/logger"
)

// ErrDeliveryUnknown is reported when ctx ends while an SMTP session is in
// flight. The session is not interrupted and may still deliver the message;
// its final result is logged.
var ErrDeliveryUnknown = errors.New("smtp send timed out; delivery state unknown")

// mailDialer opens a session, submits the messages and closes the session.
type mailDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPSender delivers each message over its own authenticated SMTP session.
// Sessions are never reused across messages.
type SMTPSender struct {
	dialer mailDialer
}

// NewSMTPSender creates an SMTP sender for the given server credentials.
func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	if cfg.SSL {
		d.SSL = true
	}
	d.TLSConfig = &tls.Config{
		ServerName: cfg.Host,
		MinVersion: tls.VersionTLS12,
	}
	return &SMTPSender{dialer: d}
}

// Send delivers msg. It returns when the server accepts or rejects the
// message, or when ctx is done, whichever comes first. No session is opened
// once ctx is done. A session still running when ctx ends is reported as
// ErrDeliveryUnknown rather than as a plain failure.
func (s *SMTPSender) Send(ctx context.Context, msg *domain.EmailMessage) (*domain.SendResult, error) {
	if _, err := mail.ParseAddress(msg.Email); err != nil {
		return failed(domain.ESPSMTP, fmt.Errorf("invalid recipient address %q: %w", msg.Email, err)), nil
	}
	if err := ctx.Err(); err != nil {
		return failed(domain.ESPSMTP, fmt.Errorf("smtp send not started: %w", err)), nil
	}

	m := buildSMTPMessage(msg)

	done := make(chan error, 1)
	go func() { done <- s.dialer.DialAndSend(m) }()

	select {
	case err := <-done:
		if err != nil {
			logger.Warn("smtp send failed", "email", msg.Email, "error", err)
			return failed(domain.ESPSMTP, err), nil
		}
	case <-ctx.Done():
		go logLateResult(msg, done)
		logger.Warn("smtp session outlived context", "email", msg.Email, "message_id", msg.ID, "error", ctx.Err())
		return failed(domain.ESPSMTP, ErrDeliveryUnknown), nil
	}

	logger.Debug("smtp sent", "email", msg.Email, "message_id", msg.ID)
	return sent(domain.ESPSMTP, msg.ID), nil
}

// logLateResult records how an abandoned session ended, so an outcome
// reported as unknown can be reconciled from the logs.
func logLateResult(msg *domain.EmailMessage, done <-chan error) {
	if err := <-done; err != nil {
		logger.Warn("late smtp session failed", "email", msg.Email, "message_id", msg.ID, "error", err)
		return
	}
	logger.Info("late smtp session delivered", "email", msg.Email, "message_id", msg.ID)
}

func buildSMTPMessage(msg *domain.EmailMessage) *gomail.Message {
	m := gomail.NewMessage(gomail.SetCharset("UTF-8"))

	m.SetAddressHeader("From", msg.FromEmail, msg.FromName)
	if msg.ToName != "" {
		m.SetAddressHeader("To", msg.Email, msg.ToName)
	} else {
		m.SetHeader("To", msg.Email)
	}
	if msg.ReplyTo != "" {
		m.SetHeader("Reply-To", msg.ReplyTo)
	}
	m.SetHeader("Subject", msg.Subject)
	if msg.ID != "" {
		m.SetHeader("Message-ID", fmt.Sprintf("<%s@%s>", msg.ID, senderDomain(msg.FromEmail)))
	}
	for k, v := range msg.Headers {
		m.SetHeader(k, v)
	}
	m.SetBody("text/html", msg.HTMLContent)
	return m
}

func senderDomain(email string) string {
	if i := strings.LastIndex(email, "@"); i >= 0 && i < len(email)-1 {
		return email[i+1:]
	}
	return "localhost"
}
