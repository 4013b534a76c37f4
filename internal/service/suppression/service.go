package suppression

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"strings"
	"time"

	"github.com/innovatehub/campaign-mailer/internal/domain"
	"github.com/innovatehub/campaign-mailer/internal/pkg/logger"
)

// Service implements suppression business logic. It is safe for concurrent use.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a suppression service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Normalize lower-cases and trims an address.
func Normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// HashEmail returns the hex MD5 of the normalized address.
func HashEmail(email string) string {
	sum := md5.Sum([]byte(Normalize(email)))
	return hex.EncodeToString(sum[:])
}

// IsSuppressed checks whether an email address should be blocked from sending.
func (s *Service) IsSuppressed(ctx context.Context, email string) (bool, error) {
	email = Normalize(email)
	if email == "" {
		return false, nil
	}
	return s.repo.IsSuppressed(ctx, email)
}

// Suppress adds an email to the suppression list. Idempotent: if the email
// is already suppressed, the existing record is preserved.
func (s *Service) Suppress(ctx context.Context, email string, reason domain.SuppressionReason, source domain.SuppressionSource, kind domain.TemplateKind) error {
	email = Normalize(email)
	if email == "" {
		return ErrEmailRequired
	}

	entry := &domain.Suppression{
		Email:        email,
		MD5Hash:      HashEmail(email),
		Reason:       reason,
		Source:       source,
		TemplateKind: kind,
		SuppressedAt: s.now().UTC(),
	}
	added, err := s.repo.Suppress(ctx, entry)
	if err != nil {
		return err
	}
	if added {
		logger.Info("email suppressed", "email", email, "reason", reason, "source", source)
	}
	return nil
}

// Remove deletes a suppression entry. Returns ErrNotFound if the email is
// not suppressed.
func (s *Service) Remove(ctx context.Context, email string) error {
	email = Normalize(email)
	if email == "" {
		return ErrEmailRequired
	}
	return s.repo.Remove(ctx, email)
}

// Get returns the suppression entry for email.
func (s *Service) Get(ctx context.Context, email string) (*domain.Suppression, error) {
	email = Normalize(email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	return s.repo.Get(ctx, email)
}

// Count returns the total number of suppressed emails.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}
