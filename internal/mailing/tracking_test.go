package mailing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innovatehub/campaign-mailer/internal/domain"
)

func TestUnsubscribeTokenRoundTrip(t *testing.T) {
	tests := []struct {
		email string
		kind  domain.TemplateKind
	}{
		{"maria@example.com", domain.KindWelcome},
		{"juan.dela.cruz+promo@innovatehub.ph", domain.KindServiceAnnouncement},
		{"odd:local@example.com", domain.KindFollowUp},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			email, kind, err := ParseUnsubscribeToken(UnsubscribeToken(tt.email, tt.kind))
			require.NoError(t, err)
			assert.Equal(t, tt.email, email)
			assert.Equal(t, tt.kind, kind)
		})
	}
}

func TestParseUnsubscribeTokenRejectsGarbage(t *testing.T) {
	for _, token := range []string{"", "!!!", UnsubscribeToken("", domain.KindWelcome), UnsubscribeToken("a@x.com", "")} {
		_, _, err := ParseUnsubscribeToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken, token)
	}
}

func TestUnsubscribeURL(t *testing.T) {
	got := UnsubscribeURL("https://innovatehub.ph/unsubscribe", "a@x.com", domain.KindWelcome)
	assert.Equal(t, "https://innovatehub.ph/unsubscribe?token="+UnsubscribeToken("a@x.com", domain.KindWelcome), got)
}

func TestPixelURLKeepsExistingQuery(t *testing.T) {
	got := PixelURL("https://t.example.com/p.gif?cid=7", "a@x.com", domain.KindPromotion)
	assert.Equal(t, "https://t.example.com/p.gif?campaign=promotion&cid=7&email=a%40x.com", got)
}

func TestAddUnsubscribeHeaders(t *testing.T) {
	h := map[string]string{}
	AddUnsubscribeHeaders(h, "https://innovatehub.ph/unsubscribe?token=abc")
	assert.Equal(t, "<https://innovatehub.ph/unsubscribe?token=abc>", h["List-Unsubscribe"])
	assert.Equal(t, "List-Unsubscribe=One-Click", h["List-Unsubscribe-Post"])
}
