package mailing

import (
	"maps"

	"github.com/innovatehub/campaign-mailer/internal/domain"
)

// Personalizer builds the per-recipient data a template consumes.
type Personalizer struct {
	unsubscribeURL string
}

// NewPersonalizer creates a Personalizer that points unsubscribe links at
// unsubscribeURL.
func NewPersonalizer(unsubscribeURL string) *Personalizer {
	return &Personalizer{unsubscribeURL: unsubscribeURL}
}

// Personalize merges, lowest precedence first: the campaign's templateData,
// the recipient's name, email and company (when set), the recipient's
// metadata, then the computed trackingPixel and unsubscribe_link. Email
// syntax is not checked here.
func (p *Personalizer) Personalize(c *domain.Campaign, r domain.Recipient) map[string]any {
	data := make(map[string]any, len(c.TemplateData)+len(r.Metadata)+5)
	maps.Copy(data, c.TemplateData)

	if r.Name != "" {
		data["name"] = r.Name
	}
	if r.Email != "" {
		data["email"] = r.Email
	}
	if r.Company != "" {
		data["company"] = r.Company
	}
	maps.Copy(data, r.Metadata)

	if pixel := c.PixelURL(); pixel != "" {
		data["trackingPixel"] = PixelURL(pixel, r.Email, c.TemplateKind)
	}
	data["unsubscribe_link"] = UnsubscribeURL(p.unsubscribeURL, r.Email, c.TemplateKind)
	return data
}
