// Package suppression stores the suppression list in a Redis hash.
//
// Fields are the hex MD5 of the normalized address, the same key format
// suppression files are exchanged in. Values are the JSON-encoded entry.
package suppression

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/innovatehub/campaign-mailer/internal/domain"
	svc "github.com/innovatehub/campaign-mailer/internal/service/suppression"
)

// DefaultKey is the Redis hash holding the list.
const DefaultKey = "suppression:emails"

// RedisStore implements the suppression Repository on a Redis hash.
type RedisStore struct {
	rdb redis.Cmdable
	key string
}

// NewRedisStore creates a store on the default key.
func NewRedisStore(rdb redis.Cmdable) *RedisStore {
	return &RedisStore{rdb: rdb, key: DefaultKey}
}

func (s *RedisStore) IsSuppressed(ctx context.Context, email string) (bool, error) {
	ok, err := s.rdb.HExists(ctx, s.key, svc.HashEmail(email)).Result()
	if err != nil {
		return false, fmt.Errorf("check suppression: %w", err)
	}
	return ok, nil
}

func (s *RedisStore) Suppress(ctx context.Context, entry *domain.Suppression) (bool, error) {
	if entry.MD5Hash == "" {
		entry.MD5Hash = svc.HashEmail(entry.Email)
	}
	b, err := json.Marshal(entry)
	if err != nil {
		return false, fmt.Errorf("encode suppression: %w", err)
	}
	added, err := s.rdb.HSetNX(ctx, s.key, entry.MD5Hash, b).Result()
	if err != nil {
		return false, fmt.Errorf("store suppression: %w", err)
	}
	return added, nil
}

func (s *RedisStore) Remove(ctx context.Context, email string) error {
	n, err := s.rdb.HDel(ctx, s.key, svc.HashEmail(email)).Result()
	if err != nil {
		return fmt.Errorf("remove suppression: %w", err)
	}
	if n == 0 {
		return svc.ErrNotFound
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, email string) (*domain.Suppression, error) {
	raw, err := s.rdb.HGet(ctx, s.key, svc.HashEmail(email)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, svc.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get suppression: %w", err)
	}
	var entry domain.Suppression
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("decode suppression: %w", err)
	}
	return &entry, nil
}

func (s *RedisStore) Count(ctx context.Context) (int, error) {
	n, err := s.rdb.HLen(ctx, s.key).Result()
	if err != nil {
		return 0, fmt.Errorf("count suppressions: %w", err)
	}
	return int(n), nil
}
