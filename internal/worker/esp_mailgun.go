package worker

import (
	"context"
	"errors"

	mg "github.com/mailgun/mailgun-go/v4"

	"github.com/innovatehub/campaign-mailer/internal/config"
	"github.com/innovatehub/campaign-mailer/internal/domain"
	"github.com/innovatehub/campaign-mailer/internal/pkg/logger"
)

// MailgunSender sends emails via the Mailgun Messages API.
type MailgunSender struct {
	client *mg.MailgunImpl
}

// NewMailgunSender creates a Mailgun sender for the configured domain.
func NewMailgunSender(cfg config.MailgunConfig) (*MailgunSender, error) {
	if cfg.APIKey == "" || cfg.Domain == "" {
		return nil, errors.New("mailgun api key and domain are required")
	}
	client := mg.NewMailgun(cfg.Domain, cfg.APIKey)
	if cfg.BaseURL != "" {
		client.SetAPIBase(cfg.BaseURL)
	}
	return &MailgunSender{client: client}, nil
}

// Send delivers a single email through Mailgun.
func (s *MailgunSender) Send(ctx context.Context, msg *domain.EmailMessage) (*domain.SendResult, error) {
	m := s.client.NewMessage(
		formatAddress(msg.FromEmail, msg.FromName),
		msg.Subject,
		"",
		formatAddress(msg.Email, msg.ToName),
	)
	m.SetHtml(msg.HTMLContent)
	if msg.ReplyTo != "" {
		m.SetReplyTo(msg.ReplyTo)
	}
	for k, v := range msg.Headers {
		m.AddHeader(k, v)
	}
	if msg.TemplateKind != "" {
		if err := m.AddTag(string(msg.TemplateKind)); err != nil {
			logger.Warn("mailgun tag dropped", "email", msg.Email, "tag", msg.TemplateKind, "error", err)
		}
	}
	if err := m.AddVariable("dispatch_id", msg.DispatchID); err != nil {
		logger.Warn("mailgun variable dropped", "email", msg.Email, "variable", "dispatch_id", "error", err)
	}

	_, id, err := s.client.Send(ctx, m)
	if err != nil {
		logger.Warn("mailgun send failed", "email", msg.Email, "error", err)
		return failed(domain.ESPMailgun, err), nil
	}

	logger.Debug("mailgun sent", "email", msg.Email, "message_id", id)
	return sent(domain.ESPMailgun, id), nil
}
