package worker

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/resend/resend-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innovatehub/campaign-mailer/internal/config"
	"github.com/innovatehub/campaign-mailer/internal/domain"
)

type fakeSES struct {
	input *sesv2.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("ses-123")}, nil
}

func TestSESSender_Send(t *testing.T) {
	api := &fakeSES{}
	s := &SESSender{client: api}

	res, err := s.Send(context.Background(), testMessage())
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "ses-123", res.MessageID)
	assert.Equal(t, domain.ESPSES, res.ESPType)

	require.NotNil(t, api.input)
	assert.Equal(t, `"InnovateHub" <marketing@innovatehub.ph>`, aws.ToString(api.input.FromEmailAddress))
	assert.Equal(t, []string{`"Maria Santos" <maria@example.com>`}, api.input.Destination.ToAddresses)
	assert.Equal(t, []string{domain.DefaultReplyTo}, api.input.ReplyToAddresses)
	assert.Equal(t, "Welcome", aws.ToString(api.input.Content.Simple.Subject.Data))

	headers := api.input.Content.Simple.Headers
	require.Len(t, headers, 1)
	assert.Equal(t, "List-Unsubscribe", aws.ToString(headers[0].Name))
	assert.Equal(t, "<https://innovatehub.ph/unsubscribe?token=abc>", aws.ToString(headers[0].Value))
}

func TestSESHeaders_SortedByName(t *testing.T) {
	headers := sesHeaders(map[string]string{
		"List-Unsubscribe-Post": "List-Unsubscribe=One-Click",
		"List-Unsubscribe":      "<https://innovatehub.ph/unsubscribe?token=abc>",
	})
	require.Len(t, headers, 2)
	assert.Equal(t, "List-Unsubscribe", aws.ToString(headers[0].Name))
	assert.Equal(t, "List-Unsubscribe-Post", aws.ToString(headers[1].Name))
	assert.Nil(t, sesHeaders(nil))
}

func TestSESSender_Failure(t *testing.T) {
	s := &SESSender{client: &fakeSES{err: errors.New("MessageRejected")}}

	res, err := s.Send(context.Background(), testMessage())
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "MessageRejected")
}

func TestSESSender_Uninitialized(t *testing.T) {
	_, err := (&SESSender{}).Send(context.Background(), testMessage())
	assert.Error(t, err)
}

func TestResendSender_Send(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/emails"))
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"re_123"}`))
	}))
	defer srv.Close()

	client := resend.NewClient("re_test")
	client.BaseURL, _ = url.Parse(srv.URL + "/")
	s := &ResendSender{client: client}

	res, err := s.Send(context.Background(), testMessage())
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "re_123", res.MessageID)
	assert.Equal(t, "Welcome", got["subject"])
	assert.Equal(t, "<p>Hello Maria</p>", got["html"])
}

func TestResendSender_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"statusCode":422,"name":"validation_error","message":"Invalid to field"}`))
	}))
	defer srv.Close()

	client := resend.NewClient("re_test")
	client.BaseURL, _ = url.Parse(srv.URL + "/")
	s := &ResendSender{client: client}

	res, err := s.Send(context.Background(), testMessage())
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Message)
}

func TestMailgunSender_Send(t *testing.T) {
	var form url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/messages"))
		if err := r.ParseMultipartForm(1 << 20); err == nil && r.MultipartForm != nil {
			form = url.Values(r.MultipartForm.Value)
		} else {
			_ = r.ParseForm()
			form = r.PostForm
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"<20240101.1@mg.innovatehub.ph>","message":"Queued. Thank you."}`))
	}))
	defer srv.Close()

	s, err := NewMailgunSender(config.MailgunConfig{APIKey: "key-test", Domain: "mg.innovatehub.ph", BaseURL: srv.URL + "/v3"})
	require.NoError(t, err)

	res, err := s.Send(context.Background(), testMessage())
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "<20240101.1@mg.innovatehub.ph>", res.MessageID)
	assert.Equal(t, "Welcome", form.Get("subject"))
	assert.Equal(t, "<p>Hello Maria</p>", form.Get("html"))
	assert.Equal(t, string(domain.KindWelcome), form.Get("o:tag"))
	assert.Equal(t, "dispatch-1", form.Get("v:dispatch_id"))
	assert.Equal(t, "<https://innovatehub.ph/unsubscribe?token=abc>", form.Get("h:List-Unsubscribe"))
}

func TestMailgunSender_RequiresCredentials(t *testing.T) {
	_, err := NewMailgunSender(config.MailgunConfig{Domain: "mg.innovatehub.ph"})
	assert.Error(t, err)
}

func TestLogSender_AlwaysSucceeds(t *testing.T) {
	res, err := NewLogSender().Send(context.Background(), testMessage())
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, domain.ESPLog, res.ESPType)
}

func TestNewSender_SelectsProvider(t *testing.T) {
	cfg := config.Default()

	cfg.Delivery.Provider = config.ProviderLog
	s, err := NewSender(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &LogSender{}, s)

	cfg.Delivery.Provider = config.ProviderSMTP
	s, err = NewSender(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &SMTPSender{}, s)

	cfg.Delivery.Provider = "pigeon"
	_, err = NewSender(context.Background(), cfg)
	assert.Error(t, err)
}
