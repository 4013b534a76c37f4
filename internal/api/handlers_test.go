package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innovatehub/campaign-mailer/internal/domain"
	"github.com/innovatehub/campaign-mailer/internal/mailing"
	"github.com/innovatehub/campaign-mailer/internal/service/campaign"
)

// MockDispatcher records the campaigns it receives.
type MockDispatcher struct {
	calls  int
	last   *domain.Campaign
	result *domain.DispatchResult
	err    error
	panics bool
}

func (m *MockDispatcher) Dispatch(_ context.Context, c *domain.Campaign) (*domain.DispatchResult, error) {
	m.calls++
	m.last = c
	if m.panics {
		panic("renderer blew up")
	}
	return m.result, m.err
}

type stubSender struct {
	failFor string
}

func (s stubSender) Send(_ context.Context, msg *domain.EmailMessage) (*domain.SendResult, error) {
	if msg.Email == s.failFor {
		return &domain.SendResult{Success: false, Message: "550 no such user"}, nil
	}
	return &domain.SendResult{Success: true, Message: domain.SentMessage}, nil
}

func setupRouter(t *testing.T, d Dispatcher) http.Handler {
	t.Helper()
	return SetupRoutes(NewHandlers(d), NewHealthChecker(nil, "log"), nil)
}

func realDispatcher(t *testing.T, failFor string) Dispatcher {
	t.Helper()
	r, err := mailing.NewRenderer("https://innovatehub.ph/unsubscribe")
	require.NoError(t, err)
	return campaign.NewService(r, mailing.NewPersonalizer("https://innovatehub.ph/unsubscribe"), stubSender{failFor: failFor})
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestOptionsPreflight(t *testing.T) {
	h := setupRouter(t, &MockDispatcher{})

	for _, path := range []string{"/", "/anything/else"} {
		req := httptest.NewRequest(http.MethodOptions, path, nil)
		req.Header.Set("Origin", "https://dashboard.innovatehub.ph")
		req.Header.Set("Access-Control-Request-Method", "POST")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code, path)
		assert.Empty(t, rec.Body.String())
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "authorization, x-client-info, apikey, content-type", rec.Header().Get("Access-Control-Allow-Headers"))
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h := setupRouter(t, &MockDispatcher{})

	for _, m := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		rec := do(h, m, "/", "")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, m)
		assert.JSONEq(t, `{"error":"Method not allowed"}`, rec.Body.String())
	}
}

func TestMissingFields(t *testing.T) {
	d := &MockDispatcher{}
	h := setupRouter(t, d)

	cases := []struct {
		body   string
		fields []any
	}{
		{`{}`, []any{"templateType", "subject", "recipients"}},
		{`{"templateType":"welcome","subject":"Hi"}`, []any{"recipients"}},
		{`{"templateType":"welcome","subject":"Hi","recipients":[]}`, []any{"recipients"}},
		{`{"subject":"Hi","recipients":[{"email":"a@example.com"}]}`, []any{"templateType"}},
	}
	for _, tc := range cases {
		rec := do(h, http.MethodPost, "/", tc.body)
		require.Equal(t, http.StatusBadRequest, rec.Code, tc.body)
		body := decodeBody(t, rec)
		assert.Equal(t, "Missing required fields", body["error"])
		assert.Equal(t, tc.fields, body["details"])
	}
	assert.Equal(t, 0, d.calls)
}

func TestInvalidJSON(t *testing.T) {
	d := &MockDispatcher{}
	rec := do(setupRouter(t, d), http.MethodPost, "/", `{"templateType":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid JSON body", decodeBody(t, rec)["error"])
	assert.Equal(t, 0, d.calls)
}

func TestImmediateDispatch(t *testing.T) {
	h := setupRouter(t, realDispatcher(t, "b@example.com"))

	rec := do(h, http.MethodPost, "/", `{
		"templateType": "welcome",
		"subject": "Welcome to InnovateHub",
		"recipients": [
			{"email": "a@example.com", "name": "Ana"},
			{"email": "b@example.com"}
		]
	}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	var resp DispatchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.Sent)
	assert.Equal(t, 1, resp.Failed)
	assert.Equal(t, domain.DispatchPartial, resp.Status)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, domain.DeliveryOutcome{Email: "a@example.com", Success: true, Message: domain.SentMessage}, resp.Results[0])
	assert.Equal(t, domain.DeliveryOutcome{Email: "b@example.com", Success: false, Message: "550 no such user"}, resp.Results[1])
}

func TestAllFailedStillOK(t *testing.T) {
	h := setupRouter(t, realDispatcher(t, "a@example.com"))

	rec := do(h, http.MethodPost, "/", `{"templateType":"promotion","subject":"Sale","recipients":[{"email":"a@example.com"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "failed", body["status"])
}

func TestScheduledDispatch(t *testing.T) {
	h := setupRouter(t, realDispatcher(t, ""))

	rec := do(h, http.MethodPost, "/", `{
		"templateType": "newsletter",
		"subject": "Next month",
		"recipients": [{"email": "a@example.com"}],
		"scheduledFor": "2999-01-01T09:00:00Z"
	}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"message":"Campaign scheduled","scheduledFor":"2999-01-01T09:00:00Z"}`, rec.Body.String())
}

func TestCampaignFieldsPassedThrough(t *testing.T) {
	d := &MockDispatcher{result: &domain.DispatchResult{Success: true, Status: domain.DispatchComplete}}
	h := setupRouter(t, d)

	rec := do(h, http.MethodPost, "/", `{
		"templateType": "follow_up",
		"subject": "Checking in",
		"recipients": [{"email": "a@example.com", "company": "Acme", "metadata": {"plan": "pro"}}],
		"templateData": {"intro": "Quick note"},
		"senderName": "Sales",
		"trackingParams": {"pixelUrl": "https://t.innovatehub.ph/track/open"}
	}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, d.last)
	assert.Equal(t, domain.KindFollowUp, d.last.TemplateKind)
	assert.Equal(t, "Sales", d.last.SenderName)
	assert.Equal(t, "Acme", d.last.Recipients[0].Company)
	assert.Equal(t, "pro", d.last.Recipients[0].Metadata["plan"])
	assert.Equal(t, "https://t.innovatehub.ph/track/open", d.last.PixelURL())
}

func TestDispatchErrorReturnsPartialResults(t *testing.T) {
	d := &MockDispatcher{err: &campaign.DispatchError{
		Err:     errors.New("template render failed: welcome: boom"),
		Partial: []domain.DeliveryOutcome{{Email: "a@example.com", Success: true, Message: domain.SentMessage}},
	}}
	h := setupRouter(t, d)

	rec := do(h, http.MethodPost, "/", `{"templateType":"welcome","subject":"Hi","recipients":[{"email":"a@example.com"},{"email":"b@example.com"}]}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp FailureResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Failed to process campaign", resp.Error)
	assert.Contains(t, resp.Details, "boom")
	require.Len(t, resp.PartialResults, 1)
	assert.Equal(t, "a@example.com", resp.PartialResults[0].Email)
}

func TestPanicBecomes500(t *testing.T) {
	h := setupRouter(t, &MockDispatcher{panics: true})

	rec := do(h, http.MethodPost, "/", `{"templateType":"welcome","subject":"Hi","recipients":[{"email":"a@example.com"}]}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Failed to process campaign", body["error"])
	assert.Equal(t, "renderer blew up", body["details"])
	assert.NotContains(t, body, "partialResults")
}

func TestHealth(t *testing.T) {
	rec := do(setupRouter(t, &MockDispatcher{}), http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var hs HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hs))
	assert.Equal(t, "healthy", hs.Status)
	assert.Equal(t, "not_configured", hs.Checks["redis"].Status)
	assert.Equal(t, "log", hs.Checks["delivery"].Message)
}
