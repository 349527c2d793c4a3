package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/cabindev/sdnfutsal/internal/domain"
	"github.com/cabindev/sdnfutsal/internal/repository"
)

// CreateCoach registers a coach profile. Callers create their own profile;
// admins may create one for any user. New coaches start unapproved.
func (l *Ledger) CreateCoach(ctx context.Context, coach domain.Coach) (created *domain.Coach, err error) {
	defer func() { l.finish(ctx, "create_coach", err) }()

	actor, err := l.gate.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	coach.Normalize()
	if coach.UserID == "" {
		coach.UserID = actor.UserID
	}
	if !actor.CanActFor(coach.UserID) {
		return nil, fmt.Errorf("%w: cannot create a coach profile for another user", domain.ErrForbidden)
	}
	if err = coach.Validate(); err != nil {
		return nil, err
	}

	err = l.store.WithinTx(ctx, func(tx repository.Store) error {
		_, err := tx.Coaches().GetByUserID(ctx, coach.UserID)
		if err == nil {
			return fmt.Errorf("%w: user %s already owns a coach profile", domain.ErrConstraintViolation, coach.UserID)
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		coach.ID = l.newID()
		coach.IsApproved = false
		if err := tx.Coaches().Create(ctx, &coach); err != nil {
			return err
		}
		return l.appendEvent(ctx, tx, domain.EventCoachCreated, "", coach.ID, "")
	})
	if err != nil {
		return nil, storeError(err)
	}

	return &coach, nil
}

func (l *Ledger) GetCoach(ctx context.Context, id string) (coach *domain.Coach, err error) {
	defer func() { l.finish(ctx, "get_coach", err) }()

	actor, err := l.gate.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	if id, err = requireID("coachId", id); err != nil {
		return nil, err
	}

	coach, err = l.store.Coaches().GetByID(ctx, id)
	if err != nil {
		return nil, storeError(notFound("coach", id, err))
	}
	if !actor.CanActFor(coach.UserID) {
		return nil, fmt.Errorf("%w: caller does not own coach %s", domain.ErrForbidden, id)
	}
	return coach, nil
}

func (l *Ledger) ListCoaches(ctx context.Context, approved *bool) (coaches []domain.Coach, err error) {
	defer func() { l.finish(ctx, "list_coaches", err) }()

	if _, err = l.requireAdmin(ctx); err != nil {
		return nil, err
	}

	coaches, err = l.store.Coaches().List(ctx, repository.CoachListParams{Approved: approved})
	if err != nil {
		return nil, storeError(err)
	}
	return coaches, nil
}

// SetCoachApproval flips a coach's approval flag directly, independent of
// any participation.
func (l *Ledger) SetCoachApproval(ctx context.Context, id string, approved bool) (coach *domain.Coach, err error) {
	defer func() { l.finish(ctx, "set_coach_approval", err) }()

	if _, err = l.requireAdmin(ctx); err != nil {
		return nil, err
	}
	if id, err = requireID("coachId", id); err != nil {
		return nil, err
	}

	err = l.store.WithinTx(ctx, func(tx repository.Store) error {
		current, err := tx.Coaches().GetByID(ctx, id)
		if err != nil {
			return notFound("coach", id, err)
		}
		coach = current
		if current.IsApproved == approved {
			return nil
		}

		if err := tx.Coaches().SetApproved(ctx, id, approved); err != nil {
			return err
		}
		coach.IsApproved = approved
		coach.UpdatedAt = l.now().UTC()

		return l.appendEvent(ctx, tx, domain.EventCoachApproval, "", id, "")
	})
	if err != nil {
		return nil, storeError(err)
	}
	return coach, nil
}

// DeleteCoach removes a coach and every participation it holds.
func (l *Ledger) DeleteCoach(ctx context.Context, id string) (err error) {
	defer func() { l.finish(ctx, "delete_coach", err) }()

	actor, err := l.gate.Resolve(ctx)
	if err != nil {
		return err
	}
	if id, err = requireID("coachId", id); err != nil {
		return err
	}

	err = l.store.WithinTx(ctx, func(tx repository.Store) error {
		coach, err := tx.Coaches().GetByID(ctx, id)
		if err != nil {
			return notFound("coach", id, err)
		}
		if !actor.CanActFor(coach.UserID) {
			return fmt.Errorf("%w: caller does not own coach %s", domain.ErrForbidden, id)
		}

		participants, err := tx.Participants().List(ctx, repository.ParticipantListParams{CoachID: id})
		if err != nil {
			return err
		}
		batchViews := make([]string, 0, 3*len(participants))
		for _, p := range participants {
			batchViews = append(batchViews, domain.StaleViews(p.BatchID, "")...)
		}

		if _, err := tx.Participants().DeleteByCoach(ctx, id); err != nil {
			return err
		}
		if err := tx.Coaches().Delete(ctx, id); err != nil {
			return notFound("coach", id, err)
		}

		return l.appendEvent(ctx, tx, domain.EventCoachDeleted, "", id, "", batchViews...)
	})
	return storeError(err)
}
