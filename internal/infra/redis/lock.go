package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cabindev/sdnfutsal/internal/lock"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const (
	defaultLockTTL     = 5 * time.Second
	defaultLockMaxWait = 3 * time.Second
	lockRetryStep      = 15 * time.Millisecond
	lockRetryMax       = 100 * time.Millisecond
)

// releaseScript deletes the key only while it still carries our token.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

var _ lock.Locker = (*RedisLocker)(nil)

// RedisLocker is a single-instance SET NX PX lock.
type RedisLocker struct {
	client  *goredis.Client
	maxWait time.Duration
	token   func() string
	sleep   func(ctx context.Context, d time.Duration) error
}

func NewRedisLocker(client *goredis.Client, maxWait time.Duration) (*RedisLocker, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if maxWait <= 0 {
		maxWait = defaultLockMaxWait
	}

	return &RedisLocker{
		client:  client,
		maxWait: maxWait,
		token:   uuid.NewString,
		sleep:   sleepWithContext,
	}, nil
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (lock.Release, error) {
	if l == nil || l.client == nil {
		return nil, fmt.Errorf("locker is not initialized")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("lock key is required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisKey := "lock:" + key
	token := l.token()

	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	backoff := lockRetryStep
	for {
		ok, err := l.client.SetNX(waitCtx, redisKey, token, ttl).Result()
		if err != nil {
			if waitCtx.Err() != nil && ctx.Err() == nil {
				return nil, fmt.Errorf("%w: %s", lock.ErrNotAcquired, key)
			}
			return nil, fmt.Errorf("failed to acquire lock %q: %w", key, err)
		}
		if ok {
			return l.releaser(redisKey, token), nil
		}

		if err := l.sleep(waitCtx, backoff); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w: %s", lock.ErrNotAcquired, key)
			}
			return nil, err
		}

		backoff *= 2
		if backoff > lockRetryMax {
			backoff = lockRetryMax
		}
	}
}

func (l *RedisLocker) releaser(redisKey, token string) lock.Release {
	return func(ctx context.Context) error {
		if ctx == nil {
			ctx = context.Background()
		}
		if err := releaseScript.Run(ctx, l.client, []string{redisKey}, token).Err(); err != nil {
			return fmt.Errorf("failed to release lock %q: %w", redisKey, err)
		}
		return nil
	}
}
