package repository

import (
	"context"

	"github.com/cabindev/sdnfutsal/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BatchListParams struct {
	Year       *int
	ActiveOnly bool
}

type BatchRepository interface {
	Create(ctx context.Context, b *domain.TrainingBatch) error
	GetByID(ctx context.Context, id string) (*domain.TrainingBatch, error)
	// LockByID reads the batch with a row lock held until the surrounding
	// transaction ends.
	LockByID(ctx context.Context, id string) (*domain.TrainingBatch, error)
	ExistsByNumberAndYear(ctx context.Context, batchNumber, year int, excludeID string) (bool, error)
	Update(ctx context.Context, b *domain.TrainingBatch) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, params BatchListParams) ([]domain.TrainingBatch, error)
}

type GormBatchRepo struct {
	db *gorm.DB
}

func NewGormBatchRepo(db *gorm.DB) *GormBatchRepo {
	return &GormBatchRepo{db: db}
}

func (r *GormBatchRepo) Create(ctx context.Context, b *domain.TrainingBatch) error {
	model := batchModelFromDomain(b)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return translateError(err)
	}
	if b != nil {
		*b = *batchModelToDomain(model)
	}
	return nil
}

func (r *GormBatchRepo) GetByID(ctx context.Context, id string) (*domain.TrainingBatch, error) {
	var model TrainingBatchModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return batchModelToDomain(&model), nil
}

func (r *GormBatchRepo) LockByID(ctx context.Context, id string) (*domain.TrainingBatch, error) {
	var model TrainingBatchModel
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, "id = ?", id).Error
	if err != nil {
		return nil, translateError(err)
	}
	return batchModelToDomain(&model), nil
}

func (r *GormBatchRepo) ExistsByNumberAndYear(ctx context.Context, batchNumber, year int, excludeID string) (bool, error) {
	query := r.db.WithContext(ctx).
		Model(&TrainingBatchModel{}).
		Where("batch_number = ? AND year = ?", batchNumber, year)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, translateError(err)
	}
	return count > 0, nil
}

func (r *GormBatchRepo) Update(ctx context.Context, b *domain.TrainingBatch) error {
	result := r.db.WithContext(ctx).
		Model(&TrainingBatchModel{}).
		Where("id = ?", b.ID).
		Updates(map[string]any{
			"batch_number":          b.BatchNumber,
			"year":                  b.Year,
			"start_date":            b.StartDate,
			"end_date":              b.EndDate,
			"registration_end_date": b.RegistrationEndDate,
			"location":              b.Location,
			"max_participants":      b.MaxParticipants,
			"is_active":             b.IsActive,
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GormBatchRepo) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&TrainingBatchModel{}, "id = ?", id)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GormBatchRepo) List(ctx context.Context, params BatchListParams) ([]domain.TrainingBatch, error) {
	query := r.db.WithContext(ctx).Model(&TrainingBatchModel{})
	if params.Year != nil {
		query = query.Where("year = ?", *params.Year)
	}
	if params.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}

	var models []TrainingBatchModel
	if err := query.Order("year DESC, batch_number DESC").Find(&models).Error; err != nil {
		return nil, translateError(err)
	}

	batches := make([]domain.TrainingBatch, 0, len(models))
	for i := range models {
		batches = append(batches, *batchModelToDomain(&models[i]))
	}
	return batches, nil
}
