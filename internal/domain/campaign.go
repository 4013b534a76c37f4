package domain

// TemplateKind selects which canned layout and content defaults a campaign uses.
type TemplateKind string

const (
	KindWelcome             TemplateKind = "welcome"
	KindNewsletter          TemplateKind = "newsletter"
	KindPromotion           TemplateKind = "promotion"
	KindFollowUp            TemplateKind = "follow_up"
	KindServiceAnnouncement TemplateKind = "service_announcement"

	// KindGeneric is the fallback used for any kind not in the registry.
	KindGeneric TemplateKind = "message"
)

// TemplateKinds lists the kinds callers may request, in display order.
var TemplateKinds = []TemplateKind{
	KindWelcome,
	KindNewsletter,
	KindPromotion,
	KindFollowUp,
	KindServiceAnnouncement,
}

// IsKnown reports whether k is one of the requestable kinds.
func (k TemplateKind) IsKnown() bool {
	for _, known := range TemplateKinds {
		if k == known {
			return true
		}
	}
	return false
}

// TrackingParams carries optional engagement tracking configuration.
type TrackingParams struct {
	PixelURL string `json:"pixelUrl,omitempty"`
}

// Campaign is one batch send request: a single template kind and subject
// delivered to every recipient. It is built per request and never mutated.
type Campaign struct {
	TemplateKind   TemplateKind    `json:"templateType"`
	Subject        string          `json:"subject"`
	Recipients     []Recipient     `json:"recipients"`
	TemplateData   map[string]any  `json:"templateData,omitempty"`
	SenderName     string          `json:"senderName,omitempty"`
	SenderEmail    string          `json:"senderEmail,omitempty"`
	ReplyTo        string          `json:"replyTo,omitempty"`
	TrackingParams *TrackingParams `json:"trackingParams,omitempty"`

	// ScheduledFor is kept as supplied so acknowledgments can echo it verbatim.
	ScheduledFor string `json:"scheduledFor,omitempty"`
}

// PixelURL returns the configured tracking pixel base URL, or "".
func (c *Campaign) PixelURL() string {
	if c.TrackingParams == nil {
		return ""
	}
	return c.TrackingParams.PixelURL
}
