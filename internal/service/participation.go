package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/cabindev/sdnfutsal/internal/domain"
	"github.com/cabindev/sdnfutsal/internal/lock"
	"github.com/cabindev/sdnfutsal/internal/observability"
	"github.com/cabindev/sdnfutsal/internal/repository"
	"go.uber.org/zap"
)

// Register enrolls a coach into a batch as PENDING. The batch row stays
// locked for the whole check-and-insert so concurrent registrations for the
// last seat serialize.
func (l *Ledger) Register(ctx context.Context, batchID, coachID string) (participant *domain.BatchParticipant, err error) {
	defer func() { l.finish(ctx, "register", err) }()

	actor, err := l.gate.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	if batchID, err = requireID("batchId", batchID); err != nil {
		return nil, err
	}
	if coachID, err = requireID("coachId", coachID); err != nil {
		return nil, err
	}

	release, err := l.acquireRegistrationLock(ctx, batchID)
	if err != nil {
		return nil, err
	}
	defer release()

	var created domain.BatchParticipant
	err = l.store.WithinTx(ctx, func(tx repository.Store) error {
		coach, err := tx.Coaches().GetByID(ctx, coachID)
		if err != nil {
			return notFound("coach", coachID, err)
		}
		if !actor.CanActFor(coach.UserID) {
			return fmt.Errorf("%w: caller does not own coach %s", domain.ErrForbidden, coachID)
		}

		batch, err := tx.Batches().LockByID(ctx, batchID)
		if err != nil {
			return notFound("batch", batchID, err)
		}

		now := l.now().UTC()
		if !batch.RegistrationOpen(now) {
			return fmt.Errorf("%w: batch %s does not accept registrations", domain.ErrRegistrationClosed, batch.Label())
		}

		seated, err := tx.Participants().CountSeated(ctx, batchID)
		if err != nil {
			return err
		}
		if seated >= batch.MaxParticipants {
			return fmt.Errorf("%w: batch %s has %d/%d seats taken", domain.ErrCapacityExceeded, batch.Label(), seated, batch.MaxParticipants)
		}

		exists, err := tx.Participants().ExistsOpen(ctx, batchID, coachID)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: coach %s is already registered in batch %s", domain.ErrDuplicateParticipation, coachID, batch.Label())
		}

		created = domain.BatchParticipant{
			ID:           l.newID(),
			BatchID:      batchID,
			CoachID:      coachID,
			RegisteredAt: now,
			Status:       domain.ParticipantPending,
		}
		if err := tx.Participants().Create(ctx, &created); err != nil {
			return err
		}

		return l.appendEvent(ctx, tx, domain.EventParticipantRegistered, batchID, coachID, created.ID)
	})
	if err != nil {
		return nil, storeError(err)
	}

	return &created, nil
}

// acquireRegistrationLock takes the optional distributed lock for a batch.
// A lock backend failure degrades to the row lock alone; a lock held by
// someone else past the wait budget is reported as a conflict.
func (l *Ledger) acquireRegistrationLock(ctx context.Context, batchID string) (func(), error) {
	noop := func() {}
	if l.locker == nil {
		return noop, nil
	}

	release, err := l.locker.Acquire(ctx, lock.RegistrationKey(batchID), l.lockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			return nil, fmt.Errorf("%w: registration for batch %s is busy, retry", domain.ErrConstraintViolation, batchID)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		observability.WithContextLogger(l.logger, ctx).Warn("registration lock unavailable, relying on row lock",
			zap.String("batchId", batchID),
			zap.Error(err),
		)
		return noop, nil
	}

	return func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			observability.WithContextLogger(l.logger, ctx).Warn("failed to release registration lock",
				zap.String("batchId", batchID),
				zap.Error(err),
			)
		}
	}, nil
}

// Approve moves a PENDING participant to APPROVED and marks its coach
// approved in the same transaction. Approving an APPROVED participant only
// restores the coach flag when it was cleared.
func (l *Ledger) Approve(ctx context.Context, participantID string) (participant *domain.BatchParticipant, err error) {
	defer func() { l.finish(ctx, "approve", err) }()

	if _, err = l.requireAdmin(ctx); err != nil {
		return nil, err
	}
	if participantID, err = requireID("participantId", participantID); err != nil {
		return nil, err
	}

	var result *domain.BatchParticipant
	err = l.store.WithinTx(ctx, func(tx repository.Store) error {
		p, err := tx.Participants().LockByID(ctx, participantID)
		if err != nil {
			return notFound("participant", participantID, err)
		}
		result = p
		if p.Status == domain.ParticipantApproved {
			return l.reapproveCoach(ctx, tx, p)
		}
		if !p.Status.CanTransitionTo(domain.ParticipantApproved) {
			return fmt.Errorf("%w: cannot approve a %s participant", domain.ErrInvalidTransition, p.Status)
		}

		if err := tx.Participants().UpdateStatus(ctx, p.ID, domain.ParticipantApproved); err != nil {
			return err
		}
		if err := tx.Coaches().SetApproved(ctx, p.CoachID, true); err != nil {
			return notFound("coach", p.CoachID, err)
		}
		p.Status = domain.ParticipantApproved
		p.UpdatedAt = l.now().UTC()

		return l.appendEvent(ctx, tx, domain.EventParticipantStatus, p.BatchID, p.CoachID, p.ID)
	})
	if err != nil {
		return nil, storeError(err)
	}

	return result, nil
}

// reapproveCoach restores the coach flag for an already APPROVED participant
// whose coach was unapproved in the meantime. It writes nothing when the
// flag is already set.
func (l *Ledger) reapproveCoach(ctx context.Context, tx repository.Store, p *domain.BatchParticipant) error {
	coach, err := tx.Coaches().GetByID(ctx, p.CoachID)
	if err != nil {
		return notFound("coach", p.CoachID, err)
	}
	if coach.IsApproved {
		return nil
	}
	if err := tx.Coaches().SetApproved(ctx, coach.ID, true); err != nil {
		return notFound("coach", coach.ID, err)
	}
	return l.appendEvent(ctx, tx, domain.EventCoachApproval, p.BatchID, p.CoachID, p.ID)
}

// Reject moves a PENDING or APPROVED participant to REJECTED. The coach's
// approval flag is left as it is.
func (l *Ledger) Reject(ctx context.Context, participantID string) (participant *domain.BatchParticipant, err error) {
	defer func() { l.finish(ctx, "reject", err) }()

	if _, err = l.requireAdmin(ctx); err != nil {
		return nil, err
	}
	if participantID, err = requireID("participantId", participantID); err != nil {
		return nil, err
	}

	var result *domain.BatchParticipant
	err = l.store.WithinTx(ctx, func(tx repository.Store) error {
		p, err := tx.Participants().LockByID(ctx, participantID)
		if err != nil {
			return notFound("participant", participantID, err)
		}
		result = p
		if p.Status == domain.ParticipantRejected {
			return nil
		}
		if !p.Status.CanTransitionTo(domain.ParticipantRejected) {
			return fmt.Errorf("%w: cannot reject a %s participant", domain.ErrInvalidTransition, p.Status)
		}

		if err := tx.Participants().UpdateStatus(ctx, p.ID, domain.ParticipantRejected); err != nil {
			return err
		}
		p.Status = domain.ParticipantRejected
		p.UpdatedAt = l.now().UTC()

		return l.appendEvent(ctx, tx, domain.EventParticipantStatus, p.BatchID, p.CoachID, p.ID)
	})
	if err != nil {
		return nil, storeError(err)
	}

	return result, nil
}

// Cancel withdraws a participation from any state. Under the revoke policy
// a canceled APPROVED participation clears the coach's approval when no
// other APPROVED participation remains.
func (l *Ledger) Cancel(ctx context.Context, participantID string) (participant *domain.BatchParticipant, err error) {
	defer func() { l.finish(ctx, "cancel", err) }()

	actor, err := l.gate.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	if participantID, err = requireID("participantId", participantID); err != nil {
		return nil, err
	}

	var result *domain.BatchParticipant
	err = l.store.WithinTx(ctx, func(tx repository.Store) error {
		p, err := tx.Participants().LockByID(ctx, participantID)
		if err != nil {
			return notFound("participant", participantID, err)
		}
		coach, err := tx.Coaches().GetByID(ctx, p.CoachID)
		if err != nil {
			return notFound("coach", p.CoachID, err)
		}
		if !actor.CanActFor(coach.UserID) {
			return fmt.Errorf("%w: caller does not own participant %s", domain.ErrForbidden, participantID)
		}

		result = p
		if p.Status == domain.ParticipantCanceled {
			return nil
		}

		wasApproved := p.Status == domain.ParticipantApproved
		if err := tx.Participants().UpdateStatus(ctx, p.ID, domain.ParticipantCanceled); err != nil {
			return err
		}
		p.Status = domain.ParticipantCanceled
		p.UpdatedAt = l.now().UTC()

		if wasApproved && l.policy == domain.CancelRevokesApproval && coach.IsApproved {
			remaining, err := tx.Participants().CountApprovedForCoach(ctx, coach.ID, p.ID)
			if err != nil {
				return err
			}
			if remaining == 0 {
				if err := tx.Coaches().SetApproved(ctx, coach.ID, false); err != nil {
					return err
				}
			}
		}

		return l.appendEvent(ctx, tx, domain.EventParticipantStatus, p.BatchID, p.CoachID, p.ID)
	})
	if err != nil {
		return nil, storeError(err)
	}

	return result, nil
}

func (l *Ledger) RecordAttendance(ctx context.Context, participantID string, attended bool) (participant *domain.BatchParticipant, err error) {
	defer func() { l.finish(ctx, "record_attendance", err) }()

	if _, err = l.requireAdmin(ctx); err != nil {
		return nil, err
	}
	if participantID, err = requireID("participantId", participantID); err != nil {
		return nil, err
	}

	return l.updateParticipant(ctx, participantID, func(tx repository.Store, p *domain.BatchParticipant) error {
		if err := tx.Participants().SetAttended(ctx, p.ID, attended); err != nil {
			return err
		}
		p.Attended = attended
		return nil
	})
}

func (l *Ledger) Annotate(ctx context.Context, participantID string, note string) (participant *domain.BatchParticipant, err error) {
	defer func() { l.finish(ctx, "annotate", err) }()

	if _, err = l.requireAdmin(ctx); err != nil {
		return nil, err
	}
	if participantID, err = requireID("participantId", participantID); err != nil {
		return nil, err
	}
	normalized, err := domain.NormalizeNote(note)
	if err != nil {
		return nil, err
	}

	return l.updateParticipant(ctx, participantID, func(tx repository.Store, p *domain.BatchParticipant) error {
		if err := tx.Participants().SetNotes(ctx, p.ID, normalized); err != nil {
			return err
		}
		p.Notes = normalized
		return nil
	})
}

func (l *Ledger) updateParticipant(
	ctx context.Context,
	participantID string,
	apply func(tx repository.Store, p *domain.BatchParticipant) error,
) (*domain.BatchParticipant, error) {
	var result *domain.BatchParticipant
	err := l.store.WithinTx(ctx, func(tx repository.Store) error {
		p, err := tx.Participants().LockByID(ctx, participantID)
		if err != nil {
			return notFound("participant", participantID, err)
		}
		if err := apply(tx, p); err != nil {
			return err
		}
		p.UpdatedAt = l.now().UTC()
		result = p

		return l.appendEvent(ctx, tx, domain.EventParticipantUpdated, p.BatchID, p.CoachID, p.ID)
	})
	if err != nil {
		return nil, storeError(err)
	}
	return result, nil
}
