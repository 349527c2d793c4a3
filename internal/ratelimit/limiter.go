package ratelimit

import "context"

// RateLimiter throttles operations per key, e.g. per caller or per outbound endpoint.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Wait(ctx context.Context, key string) error
}
