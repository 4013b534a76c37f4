package campaign

import (
	"errors"

	"github.com/innovatehub/campaign-mailer/internal/domain"
)

// Sentinel errors for the campaign service layer.
var (
	ErrNilCampaign = errors.New("campaign is nil")
	ErrRender      = errors.New("template render failed")
)

// Outcome messages that do not come from a sender.
const (
	MsgUnsubscribed    = "Recipient has unsubscribed"
	MsgCancelledPrefix = "dispatch cancelled: "
	msgNoSendResult    = "sender returned no result"
)

// DispatchError aborts a batch. Partial holds the outcomes completed before
// the failure, in recipient order.
type DispatchError struct {
	Err     error
	Partial []domain.DeliveryOutcome
}

func (e *DispatchError) Error() string { return e.Err.Error() }

func (e *DispatchError) Unwrap() error { return e.Err }
