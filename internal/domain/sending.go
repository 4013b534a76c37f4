package domain

import "time"

// ESPType identifies the delivery provider used for sending.
type ESPType string

const (
	ESPSMTP    ESPType = "smtp"
	ESPSES     ESPType = "ses"
	ESPMailgun ESPType = "mailgun"
	ESPResend  ESPType = "resend"
	ESPLog     ESPType = "log"
)

// EmailMessage is the fully-resolved message ready for a sender.
// By the time a message reaches this struct, personalization, rendering
// and header generation are complete.
type EmailMessage struct {
	ID           string            `json:"id"`
	DispatchID   string            `json:"dispatch_id"`
	TemplateKind TemplateKind      `json:"template_kind"`
	Email        string            `json:"email"`
	ToName       string            `json:"to_name,omitempty"`
	FromName     string            `json:"from_name"`
	FromEmail    string            `json:"from_email"`
	ReplyTo      string            `json:"reply_to"`
	Subject      string            `json:"subject"`
	HTMLContent  string            `json:"html_content"`
	Headers      map[string]string `json:"headers,omitempty"`
}

// SendResult is returned by a sender after attempting delivery.
type SendResult struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	MessageID string    `json:"message_id,omitempty"`
	ESPType   ESPType   `json:"esp_type"`
	SentAt    time.Time `json:"sent_at,omitempty"`
}

// SentMessage is the Message reported for every successful delivery.
const SentMessage = "Email sent successfully"

// Sender identity used when a campaign does not name its own.
const (
	DefaultSenderName  = "InnovateHub"
	DefaultSenderEmail = "marketing@innovatehub.ph"
	DefaultReplyTo     = "businessdevelopment@innovatehub.ph"
)
