package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

func TestRedisRateLimiterAllow(t *testing.T) {
	t.Parallel()

	rdb, _ := newTestRedisClient(t)

	now := time.Unix(1_700_000_000, 0)
	limiter, err := newRedisRateLimiter(
		rdb,
		"api",
		2,
		func() time.Time { return now },
		sleepWithContext,
	)
	if err != nil {
		t.Fatalf("newRedisRateLimiter() error = %v", err)
	}

	for i := 1; i <= 2; i++ {
		allowed, err := limiter.Allow(context.Background(), "user-1")
		if err != nil {
			t.Fatalf("Allow() error = %v", err)
		}
		if !allowed {
			t.Fatalf("call %d should be allowed", i)
		}
	}

	allowed, err := limiter.Allow(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if allowed {
		t.Fatal("third call should be rejected by rate limit")
	}

	now = now.Add(time.Second)
	allowed, err = limiter.Allow(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if !allowed {
		t.Fatal("new second window should allow call")
	}
}

func TestRedisRateLimiterKeysAndScopesAreIndependent(t *testing.T) {
	t.Parallel()

	rdb, _ := newTestRedisClient(t)

	now := time.Unix(1_700_000_100, 0)
	clock := func() time.Time { return now }
	api, err := newRedisRateLimiter(rdb, "api", 1, clock, sleepWithContext)
	if err != nil {
		t.Fatalf("newRedisRateLimiter(api) error = %v", err)
	}
	webhook, err := newRedisRateLimiter(rdb, "webhook", 1, clock, sleepWithContext)
	if err != nil {
		t.Fatalf("newRedisRateLimiter(webhook) error = %v", err)
	}

	mustAllow := func(l *RedisRateLimiter, key string, want bool) {
		t.Helper()
		allowed, err := l.Allow(context.Background(), key)
		if err != nil {
			t.Fatalf("Allow(%s) error = %v", key, err)
		}
		if allowed != want {
			t.Fatalf("Allow(%s) = %v, want %v", key, allowed, want)
		}
	}

	mustAllow(api, "user-1", true)
	mustAllow(api, "user-2", true)
	mustAllow(webhook, "user-1", true)
	mustAllow(api, "USER-1", false)
}

func TestRedisRateLimiterRejectsEmptyKey(t *testing.T) {
	t.Parallel()

	rdb, _ := newTestRedisClient(t)
	limiter, err := NewRedisRateLimiter(rdb, "api", 5)
	if err != nil {
		t.Fatalf("NewRedisRateLimiter() error = %v", err)
	}

	if _, err := limiter.Allow(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty key")
	}
	if _, err := NewRedisRateLimiter(rdb, "", 5); err == nil {
		t.Fatal("expected error for empty scope")
	}
}

func TestRedisRateLimiterWait(t *testing.T) {
	t.Parallel()

	rdb, _ := newTestRedisClient(t)

	now := time.Unix(1_700_000_200, 0)
	sleepCalls := 0
	limiter, err := newRedisRateLimiter(
		rdb,
		"webhook",
		1,
		func() time.Time { return now },
		func(ctx context.Context, d time.Duration) error {
			sleepCalls++
			if sleepCalls == 1 {
				now = now.Add(time.Second)
			}
			return nil
		},
	)
	if err != nil {
		t.Fatalf("newRedisRateLimiter() error = %v", err)
	}

	allowed, err := limiter.Allow(context.Background(), "revalidate")
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if !allowed {
		t.Fatal("expected first call to be allowed")
	}

	if err := limiter.Wait(context.Background(), "revalidate"); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if sleepCalls == 0 {
		t.Fatal("expected Wait() to sleep at least once")
	}
}

func TestRedisRateLimiterWaitContextDeadline(t *testing.T) {
	t.Parallel()

	rdb, _ := newTestRedisClient(t)

	now := time.Unix(1_700_000_300, 0)
	limiter, err := newRedisRateLimiter(
		rdb,
		"webhook",
		1,
		func() time.Time { return now },
		sleepWithContext,
	)
	if err != nil {
		t.Fatalf("newRedisRateLimiter() error = %v", err)
	}

	allowed, err := limiter.Allow(context.Background(), "revalidate")
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if !allowed {
		t.Fatal("expected first call to be allowed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Millisecond)
	defer cancel()

	err = limiter.Wait(ctx, "revalidate")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Wait() error = %v, want %v", err, context.DeadlineExceeded)
	}
}

func TestRedisRateLimiterWaitSleepsUntilWindowCloses(t *testing.T) {
	t.Parallel()

	rdb, _ := newTestRedisClient(t)

	now := time.Unix(1_700_000_400, 0).Add(300 * time.Millisecond)
	var slept []time.Duration
	limiter, err := newRedisRateLimiter(
		rdb,
		"revalidate",
		1,
		func() time.Time { return now },
		func(ctx context.Context, d time.Duration) error {
			slept = append(slept, d)
			now = now.Add(d)
			return nil
		},
	)
	if err != nil {
		t.Fatalf("newRedisRateLimiter() error = %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := limiter.Wait(context.Background(), "webhook"); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
	}
	if len(slept) != 1 || slept[0] != 700*time.Millisecond {
		t.Fatalf("slept = %v, want [700ms]", slept)
	}
}

func TestUntilNextWindow(t *testing.T) {
	t.Parallel()

	base := time.Unix(1_700_000_500, 0)
	tests := []struct {
		now  time.Time
		want time.Duration
	}{
		{now: base, want: time.Second},
		{now: base.Add(250 * time.Millisecond), want: 750 * time.Millisecond},
		{now: base.Add(999 * time.Millisecond), want: minWaitStep},
	}
	for _, tt := range tests {
		if got := untilNextWindow(tt.now); got != tt.want {
			t.Fatalf("untilNextWindow(%s) = %s, want %s", tt.now.Format(time.StampMilli), got, tt.want)
		}
	}
}

func newTestRedisClient(t *testing.T) (*goredis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run() error = %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := goredis.NewClient(&goredis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() {
		_ = rdb.Close()
	})

	return rdb, mr
}
