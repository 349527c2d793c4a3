package repository

import (
	"context"

	"github.com/cabindev/sdnfutsal/internal/domain"
	"gorm.io/gorm"
)

type CoachListParams struct {
	Approved *bool
}

type CoachRepository interface {
	Create(ctx context.Context, c *domain.Coach) error
	GetByID(ctx context.Context, id string) (*domain.Coach, error)
	GetByUserID(ctx context.Context, userID string) (*domain.Coach, error)
	SetApproved(ctx context.Context, id string, approved bool) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, params CoachListParams) ([]domain.Coach, error)
}

type GormCoachRepo struct {
	db *gorm.DB
}

func NewGormCoachRepo(db *gorm.DB) *GormCoachRepo {
	return &GormCoachRepo{db: db}
}

func (r *GormCoachRepo) Create(ctx context.Context, c *domain.Coach) error {
	model := coachModelFromDomain(c)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return translateError(err)
	}
	if c != nil {
		*c = *coachModelToDomain(model)
	}
	return nil
}

func (r *GormCoachRepo) GetByID(ctx context.Context, id string) (*domain.Coach, error) {
	var model CoachModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return coachModelToDomain(&model), nil
}

func (r *GormCoachRepo) GetByUserID(ctx context.Context, userID string) (*domain.Coach, error) {
	var model CoachModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return coachModelToDomain(&model), nil
}

func (r *GormCoachRepo) SetApproved(ctx context.Context, id string, approved bool) error {
	result := r.db.WithContext(ctx).
		Model(&CoachModel{}).
		Where("id = ?", id).
		Update("is_approved", approved)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GormCoachRepo) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&CoachModel{}, "id = ?", id)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GormCoachRepo) List(ctx context.Context, params CoachListParams) ([]domain.Coach, error) {
	query := r.db.WithContext(ctx).Model(&CoachModel{})
	if params.Approved != nil {
		query = query.Where("is_approved = ?", *params.Approved)
	}

	var models []CoachModel
	if err := query.Order("full_name ASC").Find(&models).Error; err != nil {
		return nil, translateError(err)
	}

	coaches := make([]domain.Coach, 0, len(models))
	for i := range models {
		coaches = append(coaches, *coachModelToDomain(&models[i]))
	}
	return coaches, nil
}
