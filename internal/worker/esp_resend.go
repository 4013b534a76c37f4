package worker

import (
	"context"
	"errors"

	"github.com/resend/resend-go/v2"

	"github.com/innovatehub/campaign-mailer/internal/config"
	"github.com/innovatehub/campaign-mailer/internal/domain"
	"github.com/innovatehub/campaign-mailer/internal/pkg/logger"
)

// ResendSender sends emails via the Resend API.
type ResendSender struct {
	client *resend.Client
}

// NewResendSender creates a Resend sender.
func NewResendSender(cfg config.ResendConfig) (*ResendSender, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("resend api key is required")
	}
	return &ResendSender{client: resend.NewClient(cfg.APIKey)}, nil
}

// Send delivers a single email through Resend.
func (s *ResendSender) Send(ctx context.Context, msg *domain.EmailMessage) (*domain.SendResult, error) {
	params := &resend.SendEmailRequest{
		From:    formatAddress(msg.FromEmail, msg.FromName),
		To:      []string{formatAddress(msg.Email, msg.ToName)},
		Subject: msg.Subject,
		Html:    msg.HTMLContent,
		ReplyTo: msg.ReplyTo,
		Headers: msg.Headers,
	}
	if msg.TemplateKind != "" {
		params.Tags = []resend.Tag{{Name: "template_kind", Value: string(msg.TemplateKind)}}
	}

	out, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		logger.Warn("resend send failed", "email", msg.Email, "error", err)
		return failed(domain.ESPResend, err), nil
	}

	logger.Debug("resend sent", "email", msg.Email, "message_id", out.Id)
	return sent(domain.ESPResend, out.Id), nil
}
