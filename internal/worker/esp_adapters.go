// Package worker contains the delivery adapters behind sending.Sender.
//
// Adapters are split into individual files:
//   - esp_smtp.go:    SMTP via gomail, one session per message
//   - esp_ses.go:     AWS SES v2
//   - esp_mailgun.go: Mailgun Messages API
//   - esp_resend.go:  Resend Emails API
//   - esp_log.go:     dry-run sender that only logs
//
// send_quota.go wraps any adapter with a shared Redis send quota.
package worker

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/innovatehub/campaign-mailer/internal/config"
	"github.com/innovatehub/campaign-mailer/internal/domain"
	"github.com/innovatehub/campaign-mailer/internal/service/sending"
)

// NewSender builds the sender selected by cfg.Delivery.Provider.
func NewSender(ctx context.Context, cfg *config.Config) (sending.Sender, error) {
	switch cfg.Delivery.Provider {
	case config.ProviderSMTP:
		return NewSMTPSender(cfg.SMTP), nil
	case config.ProviderSES:
		return NewSESSender(ctx, cfg.SES)
	case config.ProviderMailgun:
		return NewMailgunSender(cfg.Mailgun)
	case config.ProviderResend:
		return NewResendSender(cfg.Resend)
	case config.ProviderLog:
		return NewLogSender(), nil
	}
	return nil, fmt.Errorf("unknown delivery provider %q", cfg.Delivery.Provider)
}

// formatAddress renders `"Name" <email>` when name is set, else the bare
// address.
func formatAddress(email, name string) string {
	if name == "" {
		return email
	}
	return (&mail.Address{Name: name, Address: email}).String()
}

func sent(esp domain.ESPType, messageID string) *domain.SendResult {
	return &domain.SendResult{
		Success:   true,
		Message:   domain.SentMessage,
		MessageID: messageID,
		ESPType:   esp,
		SentAt:    time.Now().UTC(),
	}
}

func failed(esp domain.ESPType, err error) *domain.SendResult {
	return &domain.SendResult{Success: false, Message: err.Error(), ESPType: esp}
}
