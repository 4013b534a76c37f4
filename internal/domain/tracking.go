package domain

import "time"

// TrackingEventType enumerates the engagement events the tracking service sees.
type TrackingEventType string

const (
	EventOpen        TrackingEventType = "open"
	EventUnsubscribe TrackingEventType = "unsubscribe"
)

// TrackingEvent represents a single engagement event from a recipient.
type TrackingEvent struct {
	ID           string            `json:"id"`
	EventType    TrackingEventType `json:"event_type"`
	Email        string            `json:"email"`
	TemplateKind TemplateKind      `json:"template_kind"`
	IPAddress    string            `json:"ip_address,omitempty"`
	UserAgent    string            `json:"user_agent,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}
