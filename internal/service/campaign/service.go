package campaign

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/innovatehub/campaign-mailer/internal/domain"
	"github.com/innovatehub/campaign-mailer/internal/mailing"
	"github.com/innovatehub/campaign-mailer/internal/pkg/logger"
	"github.com/innovatehub/campaign-mailer/internal/service/sending"
)

// Renderer turns a template kind and its data into an HTML document.
type Renderer interface {
	Render(kind domain.TemplateKind, data map[string]any) (string, error)
}

// Personalizer builds the template data for one recipient.
type Personalizer interface {
	Personalize(c *domain.Campaign, r domain.Recipient) map[string]any
}

const (
	defaultSendTimeout = 60 * time.Second
	defaultConcurrency = 1
)

// Service dispatches campaigns. It is safe for concurrent use; each
// Dispatch call owns its own outcomes.
type Service struct {
	renderer     Renderer
	personalizer Personalizer
	sender       sending.Sender
	suppression  sending.SuppressionChecker

	concurrency int
	sendTimeout time.Duration

	fromName  string
	fromEmail string
	replyTo   string

	now func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithSuppression skips recipients the checker reports as suppressed.
func WithSuppression(c sending.SuppressionChecker) Option {
	return func(s *Service) { s.suppression = c }
}

// WithConcurrency bounds the number of recipients in flight. Values below 1
// mean one at a time.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n >= 1 {
			s.concurrency = n
		}
	}
}

// WithSendTimeout bounds each individual send.
func WithSendTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.sendTimeout = d
		}
	}
}

// WithSenderDefaults sets the identity used when a campaign names none.
// Empty arguments keep the built-in defaults.
func WithSenderDefaults(name, email, replyTo string) Option {
	return func(s *Service) {
		if name != "" {
			s.fromName = name
		}
		if email != "" {
			s.fromEmail = email
		}
		if replyTo != "" {
			s.replyTo = replyTo
		}
	}
}

// WithClock replaces time.Now for schedule decisions.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a dispatcher.
func NewService(r Renderer, p Personalizer, sender sending.Sender, opts ...Option) *Service {
	s := &Service{
		renderer:     r,
		personalizer: p,
		sender:       sender,
		concurrency:  defaultConcurrency,
		sendTimeout:  defaultSendTimeout,
		fromName:     domain.DefaultSenderName,
		fromEmail:    domain.DefaultSenderEmail,
		replyTo:      domain.DefaultReplyTo,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dispatch sends c to every recipient, or acknowledges it without sending
// when scheduledFor is in the future.
//
// The result always holds exactly one outcome per recipient, in input
// order. Individual send failures never abort the batch. A render failure
// does, and is returned as a *DispatchError carrying the outcomes completed
// so far. If ctx ends mid-batch, recipients not yet attempted are reported
// as failed with a "dispatch cancelled" message.
func (s *Service) Dispatch(ctx context.Context, c *domain.Campaign) (*domain.DispatchResult, error) {
	if c == nil {
		return nil, ErrNilCampaign
	}

	if at, ok := parseSchedule(c.ScheduledFor); ok && at.After(s.now()) {
		logger.Info("campaign scheduled",
			"template_kind", c.TemplateKind,
			"scheduled_for", c.ScheduledFor,
			"recipients", len(c.Recipients),
		)
		return &domain.DispatchResult{Success: true, Scheduled: true, ScheduledFor: c.ScheduledFor}, nil
	}

	dispatchID := uuid.NewString()
	n := len(c.Recipients)
	outcomes := make([]domain.DeliveryOutcome, n)
	attempted := make([]bool, n)

	logger.Info("dispatch started",
		"dispatch_id", dispatchID,
		"template_kind", c.TemplateKind,
		"recipients", n,
		"concurrency", s.concurrency,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, r := range c.Recipients {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			o, err := s.deliver(gctx, c, dispatchID, r)
			if err != nil {
				return err
			}
			outcomes[i] = o
			attempted[i] = true
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		partial := make([]domain.DeliveryOutcome, 0, n)
		for i := range outcomes {
			if attempted[i] {
				partial = append(partial, outcomes[i])
			}
		}
		logger.Error("dispatch aborted",
			"dispatch_id", dispatchID,
			"completed", len(partial),
			"error", err,
		)
		return nil, &DispatchError{Err: err, Partial: partial}
	}

	for i := range outcomes {
		if !attempted[i] {
			outcomes[i] = domain.DeliveryOutcome{
				Email:   c.Recipients[i].Email,
				Message: MsgCancelledPrefix + cancelReason(ctx),
			}
		}
	}

	result := &domain.DispatchResult{Results: outcomes}
	result.Tally()

	logger.Info("dispatch finished",
		"dispatch_id", dispatchID,
		"sent", result.Sent,
		"failed", result.Failed,
		"status", result.Status,
	)
	return result, nil
}

// deliver runs one recipient through the pipeline. Only render failures are
// returned as errors.
func (s *Service) deliver(ctx context.Context, c *domain.Campaign, dispatchID string, r domain.Recipient) (domain.DeliveryOutcome, error) {
	out := domain.DeliveryOutcome{Email: r.Email}

	if s.suppression != nil {
		suppressed, err := s.suppression.IsSuppressed(ctx, r.Email)
		switch {
		case err != nil:
			logger.Warn("suppression lookup failed, sending anyway", "email", r.Email, "error", err)
		case suppressed:
			out.Message = MsgUnsubscribed
			return out, nil
		}
	}

	data := s.personalizer.Personalize(c, r)
	html, err := s.renderer.Render(c.TemplateKind, data)
	if err != nil {
		return out, fmt.Errorf("%w: %s: %w", ErrRender, c.TemplateKind, err)
	}

	msg := s.buildMessage(c, dispatchID, r, html, data)

	res, err := s.send(ctx, msg)
	switch {
	case err != nil:
		out.Message = err.Error()
	case res == nil:
		out.Message = msgNoSendResult
	default:
		out.Success = res.Success
		out.Message = res.Message
	}
	if !out.Success {
		logger.Warn("recipient delivery failed", "dispatch_id", dispatchID, "email", r.Email, "reason", out.Message)
	}
	return out, nil
}

// send delivers msg under the per-send timeout. Senders that queue for
// capacity reserve first on ctx, outside that timeout.
func (s *Service) send(ctx context.Context, msg *domain.EmailMessage) (*domain.SendResult, error) {
	deliver := s.sender.Send
	if r, ok := s.sender.(sending.Reserver); ok {
		if err := r.Reserve(ctx); err != nil {
			return &domain.SendResult{Success: false, Message: err.Error()}, nil
		}
		deliver = r.SendReserved
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	defer cancel()
	return deliver(sendCtx, msg)
}

func (s *Service) buildMessage(c *domain.Campaign, dispatchID string, r domain.Recipient, html string, data map[string]any) *domain.EmailMessage {
	msg := &domain.EmailMessage{
		ID:           uuid.NewString(),
		DispatchID:   dispatchID,
		TemplateKind: c.TemplateKind,
		Email:        r.Email,
		ToName:       r.Name,
		FromName:     firstNonEmpty(c.SenderName, s.fromName),
		FromEmail:    firstNonEmpty(c.SenderEmail, s.fromEmail),
		ReplyTo:      firstNonEmpty(c.ReplyTo, s.replyTo),
		Subject:      c.Subject,
		HTMLContent:  html,
		Headers:      make(map[string]string, 2),
	}
	if link, _ := data["unsubscribe_link"].(string); link != "" {
		mailing.AddUnsubscribeHeaders(msg.Headers, link)
	}
	return msg
}

func cancelReason(ctx context.Context) string {
	if cause := context.Cause(ctx); cause != nil {
		return cause.Error()
	}
	return "stopped before delivery"
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
