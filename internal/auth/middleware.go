package auth

import (
	"strings"

	"github.com/cabindev/sdnfutsal/internal/domain"
	"github.com/cabindev/sdnfutsal/internal/observability"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const bearerPrefix = "bearer "

// Verifier turns a raw bearer token into an actor.
type Verifier interface {
	Verify(token string) (domain.Actor, error)
}

// Middleware attaches the verified actor to the request's user context.
// Requests without an Authorization header pass through anonymously so public
// reads keep working; a present but invalid token is rejected with 401.
func Middleware(verifier Verifier, logger *zap.Logger) fiber.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *fiber.Ctx) error {
		header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
		if header == "" {
			return c.Next()
		}
		if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
			return fiber.NewError(fiber.StatusUnauthorized, "authorization header must use the Bearer scheme")
		}

		actor, err := verifier.Verify(strings.TrimSpace(header[len(bearerPrefix):]))
		if err != nil {
			observability.WithContextLogger(logger, c.UserContext()).Warn("bearer token rejected",
				zap.String("path", c.Path()),
				zap.Error(err),
			)
			return fiber.NewError(fiber.StatusUnauthorized, "invalid bearer token")
		}

		ctx := WithActor(c.UserContext(), actor)
		ctx = observability.WithActorID(ctx, actor.UserID)
		c.SetUserContext(ctx)
		return c.Next()
	}
}
