package handler

import (
	"github.com/cabindev/sdnfutsal/internal/auth"
	"github.com/cabindev/sdnfutsal/internal/observability"
	"github.com/cabindev/sdnfutsal/internal/ratelimit"
	"github.com/cabindev/sdnfutsal/internal/transport"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// RateLimit throttles a route per authenticated user, falling back to the
// client IP for anonymous callers. A limiter backend failure lets the
// request through.
func RateLimit(limiter ratelimit.RateLimiter, logger *zap.Logger) fiber.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *fiber.Ctx) error {
		if limiter == nil {
			return c.Next()
		}

		key := "ip:" + c.IP()
		if actor, ok := auth.ActorFromContext(c.UserContext()); ok {
			key = "user:" + actor.UserID
		}

		allowed, err := limiter.Allow(c.UserContext(), key)
		if err != nil {
			observability.WithContextLogger(logger, c.UserContext()).Warn("rate limiter unavailable, allowing request",
				zap.String("key", key),
				zap.Error(err),
			)
			return c.Next()
		}
		if !allowed {
			return transport.NewError(fiber.StatusTooManyRequests, "rate_limited", "too many requests, slow down")
		}
		return c.Next()
	}
}
