package mailing

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/innovatehub/campaign-mailer/internal/domain"
)

// ErrInvalidToken is returned for unsubscribe tokens that do not decode to
// an email and a template kind.
var ErrInvalidToken = errors.New("invalid unsubscribe token")

// UnsubscribeToken encodes the recipient email and template kind.
//
// The token is plain base64url and carries no signature or expiry: anyone who
// knows an address can build a valid token for it.
func UnsubscribeToken(email string, kind domain.TemplateKind) string {
	return base64.RawURLEncoding.EncodeToString([]byte(email + ":" + string(kind)))
}

// ParseUnsubscribeToken reverses UnsubscribeToken.
func ParseUnsubscribeToken(token string) (string, domain.TemplateKind, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(token, "="))
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	s := string(raw)
	i := strings.LastIndex(s, ":")
	if i <= 0 || i == len(s)-1 {
		return "", "", ErrInvalidToken
	}
	return s[:i], domain.TemplateKind(s[i+1:]), nil
}

// UnsubscribeURL builds the unsubscribe link for a recipient.
func UnsubscribeURL(base, email string, kind domain.TemplateKind) string {
	return withQuery(base, url.Values{"token": {UnsubscribeToken(email, kind)}})
}

// PixelURL appends the recipient email and template kind to the campaign's
// tracking pixel URL, keeping any query the URL already has.
func PixelURL(base, email string, kind domain.TemplateKind) string {
	return withQuery(base, url.Values{"email": {email}, "campaign": {string(kind)}})
}

func withQuery(base string, add url.Values) string {
	u, err := url.Parse(base)
	if err != nil {
		sep := "?"
		if strings.Contains(base, "?") {
			sep = "&"
		}
		return base + sep + add.Encode()
	}
	q := u.Query()
	for k, vs := range add {
		q[k] = vs
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// AddUnsubscribeHeaders adds List-Unsubscribe headers
func AddUnsubscribeHeaders(headers map[string]string, unsubscribeURL string) {
	headers["List-Unsubscribe"] = fmt.Sprintf("<%s>", unsubscribeURL)
	headers["List-Unsubscribe-Post"] = "List-Unsubscribe=One-Click"
}
