// Package tracking serves the open pixel and unsubscribe endpoints that
// campaign emails link to, and fans the resulting events out to Redis
// counters and, optionally, an SQS queue.
package tracking

import (
	"context"
	"html"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/innovatehub/campaign-mailer/internal/domain"
	"github.com/innovatehub/campaign-mailer/internal/mailing"
	"github.com/innovatehub/campaign-mailer/internal/pkg/httputil"
	"github.com/innovatehub/campaign-mailer/internal/pkg/logger"
)

// 1x1 transparent GIF
var pixelGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00,
	0x80, 0x00, 0x00, 0xff, 0xff, 0xff, 0x00, 0x00, 0x00, 0x2c,
	0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0x02,
	0x02, 0x44, 0x01, 0x00, 0x3b,
}

// Sink receives tracking events.
type Sink interface {
	Record(ctx context.Context, evt domain.TrackingEvent) error
}

// Suppressor adds addresses to the suppression list.
type Suppressor interface {
	Suppress(ctx context.Context, email string, reason domain.SuppressionReason, source domain.SuppressionSource, kind domain.TemplateKind) error
}

// StatsReader exposes per-kind counters.
type StatsReader interface {
	Stats(ctx context.Context, kind domain.TemplateKind) (*KindStats, error)
}

// Handler serves the tracking endpoints linked from rendered emails.
type Handler struct {
	sink       Sink
	suppressor Suppressor
	stats      StatsReader
	now        func() time.Time
}

// NewHandler creates a tracking handler. stats may be nil, in which case
// the stats route is not mounted.
func NewHandler(sink Sink, suppressor Suppressor, stats StatsReader) *Handler {
	return &Handler{sink: sink, suppressor: suppressor, stats: stats, now: time.Now}
}

// Routes mounts the tracking endpoints on a new router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/track/open", h.HandleOpen)
	r.Get("/unsubscribe", h.HandleUnsubscribe)
	r.Post("/unsubscribe", h.HandleOneClickUnsubscribe)
	r.Get("/health", h.HandleHealth)
	if h.stats != nil {
		r.Get("/stats/{kind}", h.HandleStats)
	}
	return r
}

// HandleOpen records an open and always serves the pixel.
func (h *Handler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	email := strings.TrimSpace(q.Get("email"))
	if email != "" {
		h.record(r, domain.EventOpen, email, domain.TemplateKind(q.Get("campaign")))
	}
	servePixel(w)
}

// HandleUnsubscribe is the link target in the email footer.
func (h *Handler) HandleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	email, kind, err := mailing.ParseUnsubscribeToken(r.URL.Query().Get("token"))
	if err != nil {
		writeHTML(w, http.StatusBadRequest, "Invalid unsubscribe link",
			"This link is not valid. Please use the link from your most recent email.")
		return
	}

	if err := h.suppressor.Suppress(r.Context(), email, domain.ReasonUnsubscribe, domain.SourceTracking, kind); err != nil {
		logger.Error("unsubscribe failed", "email", email, "error", err)
		writeHTML(w, http.StatusInternalServerError, "Something went wrong",
			"We could not process your request. Please try again later.")
		return
	}
	h.record(r, domain.EventUnsubscribe, email, kind)

	writeHTML(w, http.StatusOK, "You have been unsubscribed",
		"<strong>"+html.EscapeString(email)+"</strong> will no longer receive these emails from InnovateHub.")
}

// HandleOneClickUnsubscribe serves RFC 8058 List-Unsubscribe-Post requests.
func (h *Handler) HandleOneClickUnsubscribe(w http.ResponseWriter, r *http.Request) {
	email, kind, err := mailing.ParseUnsubscribeToken(r.URL.Query().Get("token"))
	if err != nil {
		http.Error(w, "invalid token", http.StatusBadRequest)
		return
	}

	if err := h.suppressor.Suppress(r.Context(), email, domain.ReasonUnsubscribe, domain.SourceOneClick, kind); err != nil {
		logger.Error("one-click unsubscribe failed", "email", email, "error", err)
		http.Error(w, "unsubscribe failed", http.StatusInternalServerError)
		return
	}
	h.record(r, domain.EventUnsubscribe, email, kind)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Unsubscribed"))
}

// HandleStats returns the counters recorded for one template kind.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Stats(r.Context(), domain.TemplateKind(chi.URLParam(r, "kind")))
	if err != nil {
		httputil.Error(w, http.StatusInternalServerError, "Failed to read stats")
		return
	}
	httputil.OK(w, stats)
}

// HandleHealth reports liveness.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]string{"status": "ok"})
}

func (h *Handler) record(r *http.Request, typ domain.TrackingEventType, email string, kind domain.TemplateKind) {
	evt := domain.TrackingEvent{
		ID:           uuid.NewString(),
		EventType:    typ,
		Email:        email,
		TemplateKind: kind,
		IPAddress:    realIP(r),
		UserAgent:    r.UserAgent(),
		CreatedAt:    h.now().UTC(),
	}
	if err := h.sink.Record(r.Context(), evt); err != nil {
		logger.Warn("tracking event not recorded", "event", typ, "email", email, "error", err)
		return
	}
	logger.Debug("tracking event", "event", typ, "email", email, "template_kind", kind)
}

func servePixel(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "image/gif")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	_, _ = w.Write(pixelGIF)
}

func writeHTML(w http.ResponseWriter, status int, title, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`<!DOCTYPE html><html><head><meta charset="utf-8"><title>` + html.EscapeString(title) + `</title></head>` +
		`<body style="font-family:Arial,sans-serif;text-align:center;padding:50px;">` +
		`<h1>` + html.EscapeString(title) + `</h1><p>` + body + `</p></body></html>`))
}

func realIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx > 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return xff
	}
	if xri := r.Header.Get("X-Real-Ip"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
