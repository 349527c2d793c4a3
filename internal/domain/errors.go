package domain

import (
	"context"
	"errors"
)

var (
	ErrValidation             = errors.New("validation failed")
	ErrNotFound               = errors.New("not found")
	ErrForbidden              = errors.New("forbidden")
	ErrUnauthenticated        = errors.New("unauthenticated")
	ErrRegistrationClosed     = errors.New("registration closed")
	ErrCapacityExceeded       = errors.New("capacity exceeded")
	ErrDuplicateBatch         = errors.New("duplicate batch")
	ErrDuplicateParticipation = errors.New("duplicate participation")
	ErrInvalidTransition      = errors.New("invalid status transition")
	ErrConstraintViolation    = errors.New("constraint violation")
)

var errorKinds = []struct {
	err  error
	kind string
}{
	{ErrValidation, "validation"},
	{ErrNotFound, "not_found"},
	{ErrForbidden, "forbidden"},
	{ErrUnauthenticated, "unauthenticated"},
	{ErrRegistrationClosed, "registration_closed"},
	{ErrCapacityExceeded, "capacity_exceeded"},
	{ErrDuplicateBatch, "duplicate_batch"},
	{ErrDuplicateParticipation, "duplicate_participation"},
	{ErrInvalidTransition, "invalid_transition"},
	{ErrConstraintViolation, "constraint_violation"},
}

// KindOf returns a stable snake_case code for err, "ok" for nil and
// "internal" for errors outside the ledger taxonomy.
func KindOf(err error) string {
	if err == nil {
		return "ok"
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "canceled"
	}
	return "internal"
}

// IsLedgerError reports whether err already belongs to the ledger taxonomy.
func IsLedgerError(err error) bool {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return true
		}
	}
	return false
}
