package suppression

import (
	"context"

	"github.com/innovatehub/campaign-mailer/internal/domain"
)

// Repository defines the data access contract for the suppression list.
// Emails passed in are already normalized.
type Repository interface {
	// IsSuppressed returns true if the email is on the suppression list.
	IsSuppressed(ctx context.Context, email string) (bool, error)

	// Suppress adds an entry. If it already exists, the existing record is
	// preserved and added is false.
	Suppress(ctx context.Context, s *domain.Suppression) (added bool, err error)

	// Remove deletes an entry. Returns ErrNotFound if it doesn't exist.
	Remove(ctx context.Context, email string) error

	// Get returns the entry for email, or ErrNotFound.
	Get(ctx context.Context, email string) (*domain.Suppression, error)

	// Count returns the number of suppressed emails.
	Count(ctx context.Context) (int, error)
}
