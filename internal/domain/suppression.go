package domain

import "time"

// SuppressionReason enumerates why an email was suppressed.
type SuppressionReason string

const (
	ReasonUnsubscribe SuppressionReason = "unsubscribe"
	ReasonHardBounce  SuppressionReason = "hard_bounce"
	ReasonComplaint   SuppressionReason = "spam_complaint"
	ReasonManual      SuppressionReason = "manual"
)

// SuppressionSource indicates where the suppression signal originated.
type SuppressionSource string

const (
	SourceTracking SuppressionSource = "tracking_unsubscribe"
	SourceOneClick SuppressionSource = "one_click_unsubscribe"
	SourceManual   SuppressionSource = "manual"
)

// Suppression is a single entry in the suppression list.
type Suppression struct {
	Email        string            `json:"email"`
	MD5Hash      string            `json:"md5_hash"`
	Reason       SuppressionReason `json:"reason"`
	Source       SuppressionSource `json:"source"`
	TemplateKind TemplateKind      `json:"template_kind,omitempty"`
	SuppressedAt time.Time         `json:"suppressed_at"`
}
