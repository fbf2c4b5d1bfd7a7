package lock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"custodia/internal/sentinel"
	id "custodia/pkg/domain"
)

const (
	redisKeyPrefix      = "custodia:remediation-lock:"
	DefaultRedisTTL     = 30 * time.Second
	defaultPollInterval = 50 * time.Millisecond
)

// releaseScript deletes the key only while it still holds our token, so an
// expired lock re-acquired by another worker is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a per-record lock shared across processes. The TTL bounds how long
// a crashed holder can block the record.
type Redis struct {
	client redis.Cmdable
	ttl    time.Duration
	poll   time.Duration
	logger *slog.Logger
}

type RedisOption func(*Redis)

func WithTTL(ttl time.Duration) RedisOption {
	return func(r *Redis) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

func WithPollInterval(d time.Duration) RedisOption {
	return func(r *Redis) {
		if d > 0 {
			r.poll = d
		}
	}
}

func WithLogger(l *slog.Logger) RedisOption {
	return func(r *Redis) { r.logger = l }
}

func NewRedis(client redis.Cmdable, opts ...RedisOption) *Redis {
	r := &Redis{client: client, ttl: DefaultRedisTTL, poll: defaultPollInterval}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.New(slog.DiscardHandler)
	}
	return r
}

// Acquire polls SET NX until it wins or ctx is done. A lock still held when
// ctx ends yields sentinel.ErrLockHeld.
func (r *Redis) Acquire(ctx context.Context, recordID id.RecordID) (func(), error) {
	key := redisKeyPrefix + recordID.String()
	token := uuid.NewString()

	ticker := time.NewTicker(r.poll)
	defer ticker.Stop()
	for {
		ok, err := r.client.SetNX(ctx, key, token, r.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, waitError(recordID, ctx.Err())
			}
			return nil, fmt.Errorf("lock record %s: %w", recordID, sentinel.ErrUnavailable)
		}
		if ok {
			return r.releaser(key, token), nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("lock record %s: %w", recordID, sentinel.ErrLockHeld)
		case <-ticker.C:
		}
	}
}

func (r *Redis) releaser(key, token string) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := releaseScript.Run(ctx, r.client, []string{key}, token).Err(); err != nil {
				r.logger.Warn("failed to release remediation lock", "key", key, "error", err)
			}
		})
	}
}
