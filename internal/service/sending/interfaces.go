// Package sending defines the interfaces for email delivery.
//
// Each provider (SMTP, SES, Mailgun, Resend) implements Sender. The campaign
// dispatcher depends only on these interfaces, so providers are chosen at
// startup from configuration.
package sending

import (
	"context"

	"github.com/innovatehub/campaign-mailer/internal/domain"
)

// Sender sends a single email. Implementations must be safe for concurrent
// use.
//
// Delivery failures (refused connections, rejected credentials, malformed
// recipients, provider API errors) are reported as a SendResult with
// Success=false and a nil error. A non-nil error means the sender itself is
// unusable, such as missing credentials.
type Sender interface {
	Send(ctx context.Context, msg *domain.EmailMessage) (*domain.SendResult, error)
}

// Reserver is implemented by senders that hold each send until capacity is
// available, such as a provider quota. The dispatcher calls Reserve on the
// dispatch context and applies the per-send timeout only to SendReserved.
type Reserver interface {
	Sender
	Reserve(ctx context.Context) error
	SendReserved(ctx context.Context, msg *domain.EmailMessage) (*domain.SendResult, error)
}

// SuppressionChecker performs a pre-send suppression check. The dispatcher
// calls this before delivering each message.
type SuppressionChecker interface {
	IsSuppressed(ctx context.Context, email string) (bool, error)
}
