package transport

import (
	"strings"

	"github.com/cabindev/sdnfutsal/internal/observability"
	"github.com/gofiber/fiber/v2"
)

// RequestContext copies the request id assigned by the requestid middleware
// into the user context so service-level logs carry it.
func RequestContext() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if id := RequestID(c); id != "" {
			c.SetUserContext(observability.WithRequestID(c.UserContext(), id))
		}
		return c.Next()
	}
}

func RequestID(c *fiber.Ctx) string {
	if value, ok := c.Locals("requestid").(string); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return strings.TrimSpace(c.Get(fiber.HeaderXRequestID))
}
