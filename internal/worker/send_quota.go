package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/innovatehub/campaign-mailer/internal/config"
	"github.com/innovatehub/campaign-mailer/internal/domain"
	"github.com/innovatehub/campaign-mailer/internal/pkg/logger"
	"github.com/innovatehub/campaign-mailer/internal/service/sending"
)

// ErrDailyLimit is reported when the provider's daily quota is spent.
var ErrDailyLimit = errors.New("daily send limit reached")

// SendQuota caps provider usage per second, minute and day. Counters live in
// Redis so every API instance shares them.
type SendQuota struct {
	redis    redis.Scripter
	provider string
	limits   config.DeliveryConfig
	now      func() time.Time
}

// Check all limits before incrementing any of them; a denied send consumes
// nothing. A limit of 0 is unlimited.
var quotaScript = redis.NewScript(`
local secCurrent = tonumber(redis.call("GET", KEYS[1]) or "0")
local minCurrent = tonumber(redis.call("GET", KEYS[2]) or "0")
local dayCurrent = tonumber(redis.call("GET", KEYS[3]) or "0")
local secLimit = tonumber(ARGV[1])
local minLimit = tonumber(ARGV[2])
local dayLimit = tonumber(ARGV[3])

if secLimit > 0 and secCurrent + 1 > secLimit then
    return {0, 1}
end
if minLimit > 0 and minCurrent + 1 > minLimit then
    return {0, 2}
end
if dayLimit > 0 and dayCurrent + 1 > dayLimit then
    return {0, 3}
end

if redis.call("INCR", KEYS[1]) == 1 then
    redis.call("EXPIRE", KEYS[1], 2)
end
if redis.call("INCR", KEYS[2]) == 1 then
    redis.call("EXPIRE", KEYS[2], 120)
end
if redis.call("INCR", KEYS[3]) == 1 then
    redis.call("EXPIRE", KEYS[3], 90000)
end
return {1, 0}
`)

// NewSendQuota creates a quota for provider using the limits in cfg.
func NewSendQuota(rdb redis.Scripter, provider string, cfg config.DeliveryConfig) *SendQuota {
	return &SendQuota{redis: rdb, provider: provider, limits: cfg, now: time.Now}
}

// Acquire reserves one send. When a per-second or per-minute limit is hit
// it returns allowed=false and how long to wait; a spent daily limit
// returns ErrDailyLimit.
func (q *SendQuota) Acquire(ctx context.Context) (allowed bool, wait time.Duration, err error) {
	now := q.now().UTC()
	keys := []string{
		fmt.Sprintf("quota:%s:sec:%d", q.provider, now.Unix()),
		fmt.Sprintf("quota:%s:min:%d", q.provider, now.Unix()/60),
		fmt.Sprintf("quota:%s:day:%s", q.provider, now.Format("2006-01-02")),
	}

	res, err := quotaScript.Run(ctx, q.redis, keys, q.limits.MaxPerSecond, q.limits.MaxPerMinute, q.limits.DailyLimit).Int64Slice()
	if err != nil {
		return false, 0, fmt.Errorf("quota check: %w", err)
	}
	if res[0] == 1 {
		return true, 0, nil
	}

	switch res[1] {
	case 1:
		return false, time.Second - time.Duration(now.Nanosecond()), nil
	case 2:
		return false, time.Duration(60-now.Second()) * time.Second, nil
	default:
		return false, 0, ErrDailyLimit
	}
}

// QuotaSender holds each send until the quota allows it.
type QuotaSender struct {
	next  sending.Sender
	quota *SendQuota
	sleep func(ctx context.Context, d time.Duration) error
}

// WithQuota wraps next so every send first acquires from quota.
func WithQuota(next sending.Sender, quota *SendQuota) *QuotaSender {
	return &QuotaSender{next: next, quota: quota, sleep: sleepCtx}
}

// Send waits for quota, then delegates. Redis errors let the send through;
// a spent daily quota or an expired context fail the recipient.
func (s *QuotaSender) Send(ctx context.Context, msg *domain.EmailMessage) (*domain.SendResult, error) {
	if err := s.Reserve(ctx); err != nil {
		return failed(domain.ESPType(s.quota.provider), err), nil
	}
	return s.next.Send(ctx, msg)
}

// Reserve blocks until the quota grants one send. It returns ErrDailyLimit
// when the day is spent, or the context error if ctx ends while waiting.
func (s *QuotaSender) Reserve(ctx context.Context) error {
	for {
		allowed, wait, err := s.quota.Acquire(ctx)
		switch {
		case errors.Is(err, ErrDailyLimit):
			return err
		case err != nil:
			logger.Warn("send quota unavailable, sending anyway", "error", err)
			return nil
		case !allowed:
			if err := s.sleep(ctx, wait); err != nil {
				return fmt.Errorf("waiting for send quota: %w", err)
			}
			continue
		}
		return nil
	}
}

// SendReserved delivers msg on a send already granted by Reserve.
func (s *QuotaSender) SendReserved(ctx context.Context, msg *domain.EmailMessage) (*domain.SendResult, error) {
	return s.next.Send(ctx, msg)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
