package worker

import (
	"context"

	"github.com/innovatehub/campaign-mailer/internal/domain"
	"github.com/innovatehub/campaign-mailer/internal/pkg/logger"
)

// LogSender logs messages instead of delivering them. Every send succeeds.
type LogSender struct{}

// NewLogSender creates a dry-run sender.
func NewLogSender() *LogSender { return &LogSender{} }

// Send logs msg and reports success.
func (LogSender) Send(_ context.Context, msg *domain.EmailMessage) (*domain.SendResult, error) {
	logger.Info("dry-run send",
		"email", msg.Email,
		"subject", msg.Subject,
		"template_kind", msg.TemplateKind,
		"html_bytes", len(msg.HTMLContent),
	)
	return sent(domain.ESPLog, msg.ID), nil
}
