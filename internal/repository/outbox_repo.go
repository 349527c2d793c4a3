package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/cabindev/sdnfutsal/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OutboxRepository interface {
	Append(ctx context.Context, e *domain.ChangeEvent) error
	// LockDue returns unpublished events whose next attempt is due, skipping
	// rows another relay already holds.
	LockDue(ctx context.Context, now time.Time, limit int) ([]domain.ChangeEvent, error)
	MarkPublished(ctx context.Context, id string, at time.Time) error
	ScheduleRetry(ctx context.Context, id string, nextAttemptAt time.Time, lastErr string) error
}

type GormOutboxRepo struct {
	db *gorm.DB
}

func NewGormOutboxRepo(db *gorm.DB) *GormOutboxRepo {
	return &GormOutboxRepo{db: db}
}

func (r *GormOutboxRepo) Append(ctx context.Context, e *domain.ChangeEvent) error {
	model, err := outboxModelFromDomain(e)
	if err != nil {
		return fmt.Errorf("failed to encode change event: %w", err)
	}
	if model == nil {
		return nil
	}
	return translateError(r.db.WithContext(ctx).Create(model).Error)
}

func (r *GormOutboxRepo) LockDue(ctx context.Context, now time.Time, limit int) ([]domain.ChangeEvent, error) {
	var models []OutboxEventModel
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("published_at IS NULL AND (next_attempt_at IS NULL OR next_attempt_at <= ?)", now).
		Order("occurred_at ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, translateError(err)
	}

	events := make([]domain.ChangeEvent, 0, len(models))
	for i := range models {
		e, err := outboxModelToDomain(&models[i])
		if err != nil {
			return nil, fmt.Errorf("failed to decode change event %s: %w", models[i].ID, err)
		}
		events = append(events, *e)
	}
	return events, nil
}

func (r *GormOutboxRepo) MarkPublished(ctx context.Context, id string, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&OutboxEventModel{}).
		Where("id = ?", id).
		Update("published_at", at)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GormOutboxRepo) ScheduleRetry(ctx context.Context, id string, nextAttemptAt time.Time, lastErr string) error {
	result := r.db.WithContext(ctx).
		Model(&OutboxEventModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"next_attempt_at": nextAttemptAt,
			"last_error":      lastErr,
			"attempts":        gorm.Expr("attempts + 1"),
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
