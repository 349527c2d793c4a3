package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cabindev/sdnfutsal/internal/ratelimit"
	goredis "github.com/redis/go-redis/v9"
)

const (
	defaultLimitPerSec int64 = 20
	rateWindow               = time.Second
	minWaitStep              = 5 * time.Millisecond
)

// windowScript counts a hit in the current window and reports whether it
// stayed within the limit. The window key expires with the window.
var windowScript = goredis.NewScript(`
local hits = redis.call("INCR", KEYS[1])
if hits == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
if hits > tonumber(ARGV[1]) then
  return 0
end
return 1
`)

var _ ratelimit.RateLimiter = (*RedisRateLimiter)(nil)

// RedisRateLimiter enforces a per-second budget per key across every API
// and worker process sharing a Redis. The scope separates budgets, so
// "registrations" (per caller) and "revalidate" (outbound webhook) never
// draw from each other.
type RedisRateLimiter struct {
	client      *goredis.Client
	scope       string
	limitPerSec int64
	now         func() time.Time
	sleep       func(ctx context.Context, d time.Duration) error
}

func NewRedisRateLimiter(client *goredis.Client, scope string, limitPerSec int) (*RedisRateLimiter, error) {
	return newRedisRateLimiter(client, scope, int64(limitPerSec), time.Now, sleepWithContext)
}

func newRedisRateLimiter(
	client *goredis.Client,
	scope string,
	limitPerSec int64,
	nowFn func() time.Time,
	sleepFn func(ctx context.Context, d time.Duration) error,
) (*RedisRateLimiter, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	scope = strings.ToLower(strings.TrimSpace(scope))
	if scope == "" {
		return nil, fmt.Errorf("rate limit scope is required")
	}
	if limitPerSec <= 0 {
		limitPerSec = defaultLimitPerSec
	}
	if nowFn == nil {
		nowFn = time.Now
	}
	if sleepFn == nil {
		sleepFn = sleepWithContext
	}

	return &RedisRateLimiter{
		client:      client,
		scope:       scope,
		limitPerSec: limitPerSec,
		now:         nowFn,
		sleep:       sleepFn,
	}, nil
}

// Allow records one hit for key and reports whether it fits this second's budget.
func (r *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if r == nil || r.client == nil {
		return false, fmt.Errorf("rate limiter is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	windowKey, err := r.windowKey(key, r.now())
	if err != nil {
		return false, err
	}

	result, err := windowScript.Run(ctx, r.client, []string{windowKey}, r.limitPerSec, rateWindow.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("failed to evaluate %s rate limit: %w", r.scope, err)
	}
	return result == 1, nil
}

// Wait blocks until key is allowed or ctx ends. A denied caller sleeps until
// the current window closes rather than polling inside it.
func (r *RedisRateLimiter) Wait(ctx context.Context, key string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	for {
		allowed, err := r.Allow(ctx, key)
		if err != nil {
			return err
		}
		if allowed {
			return nil
		}

		if err := r.sleep(ctx, untilNextWindow(r.now())); err != nil {
			return err
		}
	}
}

func (r *RedisRateLimiter) windowKey(key string, now time.Time) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(key))
	if normalized == "" {
		return "", fmt.Errorf("rate limit key is required")
	}
	return fmt.Sprintf("ratelimit:%s:%s:%d", r.scope, normalized, now.UTC().Unix()), nil
}

func untilNextWindow(now time.Time) time.Duration {
	wait := now.Truncate(rateWindow).Add(rateWindow).Sub(now)
	if wait < minWaitStep {
		return minWaitStep
	}
	return wait
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
