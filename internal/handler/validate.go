package handler

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/cabindev/sdnfutsal/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// bindJSON decodes the request body into req and runs its struct tags.
func bindJSON(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return fmt.Errorf("%w: invalid request body", domain.ErrValidation)
	}
	return validateStruct(c.UserContext(), req)
}

func validateStruct(ctx context.Context, req any) error {
	err := validate.StructCtx(ctx, req)
	if err == nil {
		return nil
	}

	var vErrors validator.ValidationErrors
	if !errors.As(err, &vErrors) || len(vErrors) == 0 {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	ve := vErrors[0]
	var msg string
	switch ve.Tag() {
	case "required":
		msg = "is required"
	case "max":
		msg = "exceeds maximum " + ve.Param()
	case "min":
		msg = "is below minimum " + ve.Param()
	case "gte", "gt":
		msg = "must be at least " + ve.Param()
	case "lte", "lt":
		msg = "must be at most " + ve.Param()
	case "gtefield":
		msg = "must not be before " + lowerFirst(ve.Param())
	case "ltefield":
		msg = "must not be after " + lowerFirst(ve.Param())
	case "email":
		msg = "must be a valid email address"
	default:
		msg = "is invalid"
	}
	return fmt.Errorf("%w: %s %s", domain.ErrValidation, ve.Field(), msg)
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
