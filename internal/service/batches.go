package service

import (
	"context"
	"fmt"

	"github.com/cabindev/sdnfutsal/internal/domain"
	"github.com/cabindev/sdnfutsal/internal/repository"
)

type BatchFilter struct {
	Year       *int
	ActiveOnly bool
}

func (l *Ledger) CreateBatch(ctx context.Context, batch domain.TrainingBatch) (occupancy *domain.BatchOccupancy, err error) {
	defer func() { l.finish(ctx, "create_batch", err) }()

	if _, err = l.requireAdmin(ctx); err != nil {
		return nil, err
	}
	batch.Normalize()
	if err = batch.Validate(); err != nil {
		return nil, err
	}

	err = l.store.WithinTx(ctx, func(tx repository.Store) error {
		exists, err := tx.Batches().ExistsByNumberAndYear(ctx, batch.BatchNumber, batch.Year, "")
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: batch %s already exists", domain.ErrDuplicateBatch, batch.Label())
		}

		batch.ID = l.newID()
		if err := tx.Batches().Create(ctx, &batch); err != nil {
			return err
		}
		return l.appendEvent(ctx, tx, domain.EventBatchCreated, batch.ID, "", "")
	})
	if err != nil {
		return nil, storeError(err)
	}

	result := domain.NewBatchOccupancy(batch, 0)
	return &result, nil
}

// UpdateBatch applies a partial update. Capacity may not drop below the
// number of seats already taken.
func (l *Ledger) UpdateBatch(ctx context.Context, id string, patch domain.BatchPatch) (occupancy *domain.BatchOccupancy, err error) {
	defer func() { l.finish(ctx, "update_batch", err) }()

	if _, err = l.requireAdmin(ctx); err != nil {
		return nil, err
	}
	if id, err = requireID("batchId", id); err != nil {
		return nil, err
	}

	var result domain.BatchOccupancy
	err = l.store.WithinTx(ctx, func(tx repository.Store) error {
		batch, err := tx.Batches().LockByID(ctx, id)
		if err != nil {
			return notFound("batch", id, err)
		}
		before := *batch

		patch.Apply(batch)
		batch.Normalize()
		if err := batch.Validate(); err != nil {
			return err
		}

		if batch.BatchNumber != before.BatchNumber || batch.Year != before.Year {
			exists, err := tx.Batches().ExistsByNumberAndYear(ctx, batch.BatchNumber, batch.Year, id)
			if err != nil {
				return err
			}
			if exists {
				return fmt.Errorf("%w: batch %s already exists", domain.ErrDuplicateBatch, batch.Label())
			}
		}

		seated, err := tx.Participants().CountSeated(ctx, id)
		if err != nil {
			return err
		}
		if batch.MaxParticipants < seated {
			return fmt.Errorf("%w: maxParticipants %d is below the %d seats already taken", domain.ErrValidation, batch.MaxParticipants, seated)
		}

		if err := tx.Batches().Update(ctx, batch); err != nil {
			return err
		}
		batch.UpdatedAt = l.now().UTC()
		result = domain.NewBatchOccupancy(*batch, seated)

		return l.appendEvent(ctx, tx, domain.EventBatchUpdated, id, "", "")
	})
	if err != nil {
		return nil, storeError(err)
	}

	return &result, nil
}

// DeleteBatch removes a batch together with all of its participations.
func (l *Ledger) DeleteBatch(ctx context.Context, id string) (err error) {
	defer func() { l.finish(ctx, "delete_batch", err) }()

	if _, err = l.requireAdmin(ctx); err != nil {
		return err
	}
	if id, err = requireID("batchId", id); err != nil {
		return err
	}

	err = l.store.WithinTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Batches().LockByID(ctx, id); err != nil {
			return notFound("batch", id, err)
		}

		participants, err := tx.Participants().List(ctx, repository.ParticipantListParams{BatchID: id})
		if err != nil {
			return err
		}
		coachViews := make([]string, 0, len(participants))
		for _, p := range participants {
			coachViews = append(coachViews, domain.CoachView(p.CoachID))
		}

		if _, err := tx.Participants().DeleteByBatch(ctx, id); err != nil {
			return err
		}
		if err := tx.Batches().Delete(ctx, id); err != nil {
			return notFound("batch", id, err)
		}

		return l.appendEvent(ctx, tx, domain.EventBatchDeleted, id, "", "", coachViews...)
	})
	return storeError(err)
}

func (l *Ledger) GetBatch(ctx context.Context, id string) (occupancy *domain.BatchOccupancy, err error) {
	defer func() { l.finish(ctx, "get_batch", err) }()

	if id, err = requireID("batchId", id); err != nil {
		return nil, err
	}

	batch, err := l.store.Batches().GetByID(ctx, id)
	if err != nil {
		return nil, storeError(notFound("batch", id, err))
	}
	seated, err := l.store.Participants().CountSeated(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}

	result := domain.NewBatchOccupancy(*batch, seated)
	return &result, nil
}

func (l *Ledger) ListBatches(ctx context.Context, filter BatchFilter) (batches []domain.BatchOccupancy, err error) {
	defer func() { l.finish(ctx, "list_batches", err) }()

	if filter.Year != nil && (*filter.Year < domain.MinBatchYear || *filter.Year > domain.MaxBatchYear) {
		return nil, fmt.Errorf("%w: year must be between %d and %d", domain.ErrValidation, domain.MinBatchYear, domain.MaxBatchYear)
	}

	list, err := l.store.Batches().List(ctx, repository.BatchListParams{
		Year:       filter.Year,
		ActiveOnly: filter.ActiveOnly,
	})
	if err != nil {
		return nil, storeError(err)
	}

	ids := make([]string, 0, len(list))
	for _, b := range list {
		ids = append(ids, b.ID)
	}
	counts, err := l.store.Participants().SeatedCounts(ctx, ids)
	if err != nil {
		return nil, storeError(err)
	}

	batches = make([]domain.BatchOccupancy, 0, len(list))
	for _, b := range list {
		batches = append(batches, domain.NewBatchOccupancy(b, counts[b.ID]))
	}
	return batches, nil
}
