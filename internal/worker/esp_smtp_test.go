package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/innovatehub/campaign-mailer/internal/config"
	"github.com/innovatehub/campaign-mailer/internal/domain"
)

type fakeDialer struct {
	mu    sync.Mutex
	calls int
	sent  []*gomail.Message
	err   error
	block chan struct{}
}

func (f *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.sent = append(f.sent, m...)
	return f.err
}

func testMessage() *domain.EmailMessage {
	return &domain.EmailMessage{
		ID:           "msg-1",
		DispatchID:   "dispatch-1",
		TemplateKind: domain.KindWelcome,
		Email:        "maria@example.com",
		ToName:       "Maria Santos",
		FromName:     domain.DefaultSenderName,
		FromEmail:    domain.DefaultSenderEmail,
		ReplyTo:      domain.DefaultReplyTo,
		Subject:      "Welcome",
		HTMLContent:  "<p>Hello Maria</p>",
		Headers: map[string]string{
			"List-Unsubscribe": "<https://innovatehub.ph/unsubscribe?token=abc>",
		},
	}
}

func TestSMTPSender_Send(t *testing.T) {
	d := &fakeDialer{}
	s := &SMTPSender{dialer: d}

	res, err := s.Send(context.Background(), testMessage())
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, domain.SentMessage, res.Message)
	assert.Equal(t, domain.ESPSMTP, res.ESPType)
	assert.Equal(t, "msg-1", res.MessageID)

	require.Len(t, d.sent, 1)
	m := d.sent[0]
	assert.Equal(t, []string{`"Maria Santos" <maria@example.com>`}, m.GetHeader("To"))
	assert.Equal(t, []string{`"InnovateHub" <marketing@innovatehub.ph>`}, m.GetHeader("From"))
	assert.Equal(t, []string{domain.DefaultReplyTo}, m.GetHeader("Reply-To"))
	assert.Equal(t, []string{"Welcome"}, m.GetHeader("Subject"))
	assert.Equal(t, []string{"<msg-1@innovatehub.ph>"}, m.GetHeader("Message-ID"))
	assert.Equal(t, []string{"<https://innovatehub.ph/unsubscribe?token=abc>"}, m.GetHeader("List-Unsubscribe"))
}

func TestSMTPSender_BareAddressWithoutName(t *testing.T) {
	d := &fakeDialer{}
	s := &SMTPSender{dialer: d}

	msg := testMessage()
	msg.ToName = ""
	_, err := s.Send(context.Background(), msg)
	require.NoError(t, err)
	require.Len(t, d.sent, 1)
	assert.Equal(t, []string{"maria@example.com"}, d.sent[0].GetHeader("To"))
}

func TestSMTPSender_TransportFailure(t *testing.T) {
	d := &fakeDialer{err: errors.New("535 authentication failed")}
	s := &SMTPSender{dialer: d}

	res, err := s.Send(context.Background(), testMessage())
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "535 authentication failed", res.Message)
}

func TestSMTPSender_InvalidRecipientSkipsSession(t *testing.T) {
	d := &fakeDialer{}
	s := &SMTPSender{dialer: d}

	msg := testMessage()
	msg.Email = "not-an-address"
	res, err := s.Send(context.Background(), msg)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "invalid recipient address")
	assert.Equal(t, 0, d.calls)
}

func TestSMTPSender_ContextDeadlineReportsUnknownState(t *testing.T) {
	block := make(chan struct{})
	d := &fakeDialer{block: block}
	s := &SMTPSender{dialer: d}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	res, err := s.Send(ctx, testMessage())
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, ErrDeliveryUnknown.Error(), res.Message)

	// The session keeps running and can still deliver after Send returns.
	close(block)
	assert.Eventually(t, func() bool {
		d.mu.Lock()
		defer d.mu.Unlock()
		return d.calls == 1
	}, time.Second, 5*time.Millisecond)
}

func TestSMTPSender_CancelledContextSkipsSession(t *testing.T) {
	d := &fakeDialer{}
	s := &SMTPSender{dialer: d}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := s.Send(ctx, testMessage())
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, context.Canceled.Error())
	assert.NotEqual(t, ErrDeliveryUnknown.Error(), res.Message)

	d.mu.Lock()
	defer d.mu.Unlock()
	assert.Equal(t, 0, d.calls)
}

func TestNewSMTPSender_ConfiguresDialer(t *testing.T) {
	s := NewSMTPSender(config.SMTPConfig{Host: "smtp.example.com", Port: 465, Username: "u", Password: "p", SSL: true})
	d, ok := s.dialer.(*gomail.Dialer)
	require.True(t, ok)
	assert.Equal(t, "smtp.example.com", d.Host)
	assert.Equal(t, 465, d.Port)
	assert.True(t, d.SSL)
	assert.Equal(t, "smtp.example.com", d.TLSConfig.ServerName)
}
