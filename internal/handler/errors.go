package handler

import (
	"errors"

	"github.com/cabindev/sdnfutsal/internal/domain"
	"github.com/cabindev/sdnfutsal/internal/transport"
	"github.com/gofiber/fiber/v2"
)

func toHTTPError(err error) error {
	status := 0
	switch {
	case errors.Is(err, domain.ErrValidation):
		status = fiber.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthenticated):
		status = fiber.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		status = fiber.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, domain.ErrRegistrationClosed),
		errors.Is(err, domain.ErrCapacityExceeded),
		errors.Is(err, domain.ErrDuplicateBatch),
		errors.Is(err, domain.ErrDuplicateParticipation),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrConstraintViolation):
		status = fiber.StatusConflict
	default:
		return err
	}
	return transport.NewError(status, domain.KindOf(err), err.Error())
}
