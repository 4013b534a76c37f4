package tracking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/innovatehub/campaign-mailer/internal/domain"
)

const unknownKind = "unknown"

// KindStats are the engagement counters for one template kind.
type KindStats struct {
	TemplateKind  domain.TemplateKind `json:"template_kind"`
	Opens         int64               `json:"opens"`
	UniqueOpeners int64               `json:"unique_openers"`
	Unsubscribes  int64               `json:"unsubscribes"`
}

// RedisRecorder keeps per-kind counters:
//
//	tracking:opens:<kind>         INCR per open
//	tracking:openers:<kind>       SET of lower-cased addresses
//	tracking:unsubscribes:<kind>  INCR per unsubscribe
type RedisRecorder struct {
	rdb redis.Cmdable
}

func NewRedisRecorder(rdb redis.Cmdable) *RedisRecorder {
	return &RedisRecorder{rdb: rdb}
}

func kindKey(kind domain.TemplateKind) string {
	if kind == "" {
		return unknownKind
	}
	return string(kind)
}

func (r *RedisRecorder) Record(ctx context.Context, evt domain.TrackingEvent) error {
	kind := kindKey(evt.TemplateKind)
	_, err := r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		switch evt.EventType {
		case domain.EventOpen:
			p.Incr(ctx, "tracking:opens:"+kind)
			p.SAdd(ctx, "tracking:openers:"+kind, strings.ToLower(strings.TrimSpace(evt.Email)))
		case domain.EventUnsubscribe:
			p.Incr(ctx, "tracking:unsubscribes:"+kind)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("record %s: %w", evt.EventType, err)
	}
	return nil
}

// Stats reads the counters for kind. Missing keys count as zero.
func (r *RedisRecorder) Stats(ctx context.Context, kind domain.TemplateKind) (*KindStats, error) {
	k := kindKey(kind)
	var opens, unsubs *redis.StringCmd
	var openers *redis.IntCmd
	_, err := r.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		opens = p.Get(ctx, "tracking:opens:"+k)
		openers = p.SCard(ctx, "tracking:openers:"+k)
		unsubs = p.Get(ctx, "tracking:unsubscribes:"+k)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("read stats: %w", err)
	}

	stats := &KindStats{TemplateKind: domain.TemplateKind(k), UniqueOpeners: openers.Val()}
	if stats.Opens, err = counter(opens); err != nil {
		return nil, err
	}
	if stats.Unsubscribes, err = counter(unsubs); err != nil {
		return nil, err
	}
	return stats, nil
}

func counter(cmd *redis.StringCmd) (int64, error) {
	n, err := cmd.Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

// MultiSink records to every sink and joins their errors.
type MultiSink []Sink

func (m MultiSink) Record(ctx context.Context, evt domain.TrackingEvent) error {
	var errs []error
	for _, s := range m {
		if err := s.Record(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
