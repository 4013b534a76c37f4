package domain

// Recipient is a single addressee supplied with a campaign. Recipients are
// ephemeral; nothing in this service stores them.
type Recipient struct {
	Email    string         `json:"email"`
	Name     string         `json:"name,omitempty"`
	Company  string         `json:"company,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}
