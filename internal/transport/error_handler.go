package transport

import (
	"errors"
	"net/http"
	"strings"

	"github.com/cabindev/sdnfutsal/internal/observability"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Error is an HTTP-facing failure carrying a stable machine-readable code.
type Error struct {
	Status  int
	Code    string
	Message string
}

func NewError(status int, code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

func (e *Error) StatusCode() int {
	if e == nil {
		return fiber.StatusInternalServerError
	}
	return e.Status
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorHandler renders every failed request as {"error":{"code","message"}}.
// Errors outside the known types become an opaque 500.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		code := "internal"
		message := "internal server error"

		var apiErr *Error
		var fiberErr *fiber.Error
		switch {
		case errors.As(err, &apiErr):
			status = apiErr.StatusCode()
			code = apiErr.Code
			message = apiErr.Message
		case errors.As(err, &fiberErr):
			status = fiberErr.Code
			code = codeForStatus(status)
			message = fiberErr.Message
		}

		log := observability.WithContextLogger(logger, c.UserContext())
		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.String("code", code),
			zap.Error(err),
		}
		if status >= fiber.StatusInternalServerError {
			log.Error("request error", fields...)
		} else {
			log.Debug("request rejected", fields...)
		}

		return c.Status(status).JSON(errorBody{Error: errorDetail{Code: code, Message: message}})
	}
}

func codeForStatus(status int) string {
	switch status {
	case fiber.StatusUnauthorized:
		return "unauthenticated"
	case fiber.StatusTooManyRequests:
		return "rate_limited"
	case fiber.StatusNotFound:
		return "not_found"
	}
	text := strings.ToLower(http.StatusText(status))
	if text == "" {
		return "error"
	}
	return strings.ReplaceAll(text, " ", "_")
}
