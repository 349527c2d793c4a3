package repository

import (
	"context"
	"time"

	"github.com/cabindev/sdnfutsal/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ParticipantListParams struct {
	BatchID string
	CoachID string
	Status  *domain.ParticipantStatus
}

// RosterRow is a participant joined with the coach profile fields used by
// admin listings and exports.
type RosterRow struct {
	Participant       domain.BatchParticipant
	CoachName         string
	CoachEmail        string
	CoachPhone        string
	CoachOrganization string
}

type ParticipantRepository interface {
	Create(ctx context.Context, p *domain.BatchParticipant) error
	GetByID(ctx context.Context, id string) (*domain.BatchParticipant, error)
	LockByID(ctx context.Context, id string) (*domain.BatchParticipant, error)
	// CountSeated counts PENDING and APPROVED participants of a batch.
	CountSeated(ctx context.Context, batchID string) (int, error)
	SeatedCounts(ctx context.Context, batchIDs []string) (map[string]int, error)
	// ExistsOpen reports whether the pair already has a non-canceled participation.
	ExistsOpen(ctx context.Context, batchID, coachID string) (bool, error)
	CountApprovedForCoach(ctx context.Context, coachID, excludeID string) (int, error)
	UpdateStatus(ctx context.Context, id string, status domain.ParticipantStatus) error
	SetAttended(ctx context.Context, id string, attended bool) error
	SetNotes(ctx context.Context, id string, notes string) error
	DeleteByBatch(ctx context.Context, batchID string) (int64, error)
	DeleteByCoach(ctx context.Context, coachID string) (int64, error)
	List(ctx context.Context, params ParticipantListParams) ([]domain.BatchParticipant, error)
	Roster(ctx context.Context, batchID string, status *domain.ParticipantStatus) ([]RosterRow, error)
}

type GormParticipantRepo struct {
	db *gorm.DB
}

func NewGormParticipantRepo(db *gorm.DB) *GormParticipantRepo {
	return &GormParticipantRepo{db: db}
}

func (r *GormParticipantRepo) Create(ctx context.Context, p *domain.BatchParticipant) error {
	model := participantModelFromDomain(p)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return translateError(err)
	}
	if p != nil {
		*p = *participantModelToDomain(model)
	}
	return nil
}

func (r *GormParticipantRepo) GetByID(ctx context.Context, id string) (*domain.BatchParticipant, error) {
	var model BatchParticipantModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return participantModelToDomain(&model), nil
}

func (r *GormParticipantRepo) LockByID(ctx context.Context, id string) (*domain.BatchParticipant, error) {
	var model BatchParticipantModel
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, "id = ?", id).Error
	if err != nil {
		return nil, translateError(err)
	}
	return participantModelToDomain(&model), nil
}

func (r *GormParticipantRepo) CountSeated(ctx context.Context, batchID string) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&BatchParticipantModel{}).
		Where("batch_id = ? AND status IN ?", batchID, domain.SeatedStatuses()).
		Count(&count).Error
	if err != nil {
		return 0, translateError(err)
	}
	return int(count), nil
}

type seatedCountRow struct {
	BatchID string `gorm:"column:batch_id"`
	Count   int    `gorm:"column:count"`
}

func (r *GormParticipantRepo) SeatedCounts(ctx context.Context, batchIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(batchIDs))
	if len(batchIDs) == 0 {
		return counts, nil
	}

	var rows []seatedCountRow
	err := r.db.WithContext(ctx).
		Model(&BatchParticipantModel{}).
		Select("batch_id, COUNT(*) AS count").
		Where("batch_id IN ? AND status IN ?", batchIDs, domain.SeatedStatuses()).
		Group("batch_id").
		Scan(&rows).Error
	if err != nil {
		return nil, translateError(err)
	}

	for _, row := range rows {
		counts[row.BatchID] = row.Count
	}
	return counts, nil
}

func (r *GormParticipantRepo) ExistsOpen(ctx context.Context, batchID, coachID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&BatchParticipantModel{}).
		Where("batch_id = ? AND coach_id = ? AND status <> ?", batchID, coachID, domain.ParticipantCanceled).
		Count(&count).Error
	if err != nil {
		return false, translateError(err)
	}
	return count > 0, nil
}

func (r *GormParticipantRepo) CountApprovedForCoach(ctx context.Context, coachID, excludeID string) (int, error) {
	query := r.db.WithContext(ctx).
		Model(&BatchParticipantModel{}).
		Where("coach_id = ? AND status = ?", coachID, domain.ParticipantApproved)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, translateError(err)
	}
	return int(count), nil
}

func (r *GormParticipantRepo) UpdateStatus(ctx context.Context, id string, status domain.ParticipantStatus) error {
	return r.updateColumn(ctx, id, "status", status)
}

func (r *GormParticipantRepo) SetAttended(ctx context.Context, id string, attended bool) error {
	return r.updateColumn(ctx, id, "attended", attended)
}

func (r *GormParticipantRepo) SetNotes(ctx context.Context, id string, notes string) error {
	return r.updateColumn(ctx, id, "notes", notes)
}

func (r *GormParticipantRepo) updateColumn(ctx context.Context, id string, column string, value any) error {
	result := r.db.WithContext(ctx).
		Model(&BatchParticipantModel{}).
		Where("id = ?", id).
		Update(column, value)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GormParticipantRepo) DeleteByBatch(ctx context.Context, batchID string) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&BatchParticipantModel{}, "batch_id = ?", batchID)
	if result.Error != nil {
		return 0, translateError(result.Error)
	}
	return result.RowsAffected, nil
}

func (r *GormParticipantRepo) DeleteByCoach(ctx context.Context, coachID string) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&BatchParticipantModel{}, "coach_id = ?", coachID)
	if result.Error != nil {
		return 0, translateError(result.Error)
	}
	return result.RowsAffected, nil
}

func (r *GormParticipantRepo) List(ctx context.Context, params ParticipantListParams) ([]domain.BatchParticipant, error) {
	query := r.db.WithContext(ctx).Model(&BatchParticipantModel{})
	if params.BatchID != "" {
		query = query.Where("batch_id = ?", params.BatchID)
	}
	if params.CoachID != "" {
		query = query.Where("coach_id = ?", params.CoachID)
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}

	var models []BatchParticipantModel
	if err := query.Order("registered_at ASC").Find(&models).Error; err != nil {
		return nil, translateError(err)
	}

	participants := make([]domain.BatchParticipant, 0, len(models))
	for i := range models {
		participants = append(participants, *participantModelToDomain(&models[i]))
	}
	return participants, nil
}

type rosterScanRow struct {
	ID                string                   `gorm:"column:id"`
	BatchID           string                   `gorm:"column:batch_id"`
	CoachID           string                   `gorm:"column:coach_id"`
	RegisteredAt      time.Time                `gorm:"column:registered_at"`
	Status            domain.ParticipantStatus `gorm:"column:status"`
	Attended          bool                     `gorm:"column:attended"`
	Notes             string                   `gorm:"column:notes"`
	CreatedAt         time.Time                `gorm:"column:created_at"`
	UpdatedAt         time.Time                `gorm:"column:updated_at"`
	CoachName         string                   `gorm:"column:coach_name"`
	CoachEmail        string                   `gorm:"column:coach_email"`
	CoachPhone        string                   `gorm:"column:coach_phone"`
	CoachOrganization string                   `gorm:"column:coach_organization"`
}

func (r *GormParticipantRepo) Roster(ctx context.Context, batchID string, status *domain.ParticipantStatus) ([]RosterRow, error) {
	query := r.db.WithContext(ctx).
		Table("batch_participants AS p").
		Select(`p.id, p.batch_id, p.coach_id, p.registered_at, p.status, p.attended, p.notes,
			p.created_at, p.updated_at, c.full_name AS coach_name, c.email AS coach_email,
			c.phone AS coach_phone, c.organization AS coach_organization`).
		Joins("JOIN coaches AS c ON c.id = p.coach_id").
		Where("p.batch_id = ?", batchID)
	if status != nil {
		query = query.Where("p.status = ?", *status)
	}

	var rows []rosterScanRow
	if err := query.Order("p.registered_at ASC").Scan(&rows).Error; err != nil {
		return nil, translateError(err)
	}

	roster := make([]RosterRow, 0, len(rows))
	for _, row := range rows {
		roster = append(roster, RosterRow{
			Participant: domain.BatchParticipant{
				ID:           row.ID,
				BatchID:      row.BatchID,
				CoachID:      row.CoachID,
				RegisteredAt: row.RegisteredAt,
				Status:       row.Status,
				Attended:     row.Attended,
				Notes:        row.Notes,
				CreatedAt:    row.CreatedAt,
				UpdatedAt:    row.UpdatedAt,
			},
			CoachName:         row.CoachName,
			CoachEmail:        row.CoachEmail,
			CoachPhone:        row.CoachPhone,
			CoachOrganization: row.CoachOrganization,
		})
	}
	return roster, nil
}
