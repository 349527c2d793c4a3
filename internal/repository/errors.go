package repository

import (
	"errors"
	"fmt"

	"github.com/cabindev/sdnfutsal/internal/domain"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Postgres SQLSTATE codes the store maps onto the ledger taxonomy.
const (
	pgUniqueViolation      = "23505"
	pgForeignKeyViolation  = "23503"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
)

func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	if domain.IsLedgerError(err) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			switch pgErr.ConstraintName {
			case BatchNumberYearIndex:
				return fmt.Errorf("%w: a batch with this number and year already exists", domain.ErrDuplicateBatch)
			case OpenParticipationIndex:
				return fmt.Errorf("%w: coach already holds an open participation in this batch", domain.ErrDuplicateParticipation)
			case CoachUserIndex:
				return fmt.Errorf("%w: user already owns a coach profile", domain.ErrConstraintViolation)
			}
			return fmt.Errorf("%w: unique constraint %q violated", domain.ErrConstraintViolation, pgErr.ConstraintName)
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: foreign key %q violated", domain.ErrConstraintViolation, pgErr.ConstraintName)
		case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
			return fmt.Errorf("%w: transaction conflict: %s", domain.ErrConstraintViolation, pgErr.Message)
		}
		return fmt.Errorf("%w: %s", domain.ErrConstraintViolation, pgErr.Message)
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, gorm.ErrForeignKeyViolated) {
		return fmt.Errorf("%w: %v", domain.ErrConstraintViolation, err)
	}

	return err
}
