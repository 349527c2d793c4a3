package repository

import (
	"encoding/json"
	"time"

	"github.com/cabindev/sdnfutsal/internal/domain"
	"gorm.io/datatypes"
)

// Index names referenced by error translation and migrations.
const (
	BatchNumberYearIndex   = "idx_training_batches_number_year"
	OpenParticipationIndex = "idx_batch_participants_open_pair"
	CoachUserIndex         = "idx_coaches_user_id"
)

// TrainingBatchModel is the persistence model for training_batches.
type TrainingBatchModel struct {
	ID                  string    `gorm:"type:uuid;primaryKey"`
	BatchNumber         int       `gorm:"not null;uniqueIndex:idx_training_batches_number_year,priority:2"`
	Year                int       `gorm:"not null;uniqueIndex:idx_training_batches_number_year,priority:1"`
	StartDate           time.Time `gorm:"type:timestamptz;not null"`
	EndDate             time.Time `gorm:"type:timestamptz;not null"`
	RegistrationEndDate time.Time `gorm:"type:timestamptz;not null"`
	Location            string    `gorm:"type:varchar(255);not null"`
	MaxParticipants     int       `gorm:"not null"`
	IsActive            bool      `gorm:"not null"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (TrainingBatchModel) TableName() string {
	return "training_batches"
}

// CoachModel is the persistence model for coaches.
type CoachModel struct {
	ID           string `gorm:"type:uuid;primaryKey"`
	UserID       string `gorm:"type:varchar(64);not null;uniqueIndex:idx_coaches_user_id"`
	FullName     string `gorm:"type:varchar(255);not null"`
	Email        string `gorm:"type:varchar(255);not null"`
	Phone        string `gorm:"type:varchar(32);not null"`
	Organization string `gorm:"type:varchar(255);not null"`
	IsApproved   bool   `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (CoachModel) TableName() string {
	return "coaches"
}

// BatchParticipantModel is the persistence model for batch_participants.
type BatchParticipantModel struct {
	ID           string                   `gorm:"type:uuid;primaryKey"`
	BatchID      string                   `gorm:"type:uuid;not null;index"`
	CoachID      string                   `gorm:"type:uuid;not null;index"`
	RegisteredAt time.Time                `gorm:"type:timestamptz;not null"`
	Status       domain.ParticipantStatus `gorm:"type:varchar(16);not null"`
	Attended     bool                     `gorm:"not null"`
	Notes        string                   `gorm:"type:text;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (BatchParticipantModel) TableName() string {
	return "batch_participants"
}

// OutboxEventModel is the persistence model for ledger_outbox.
type OutboxEventModel struct {
	ID            string           `gorm:"type:uuid;primaryKey"`
	Kind          domain.EventKind `gorm:"type:varchar(64);not null"`
	BatchID       string           `gorm:"type:varchar(36);not null"`
	CoachID       string           `gorm:"type:varchar(36);not null"`
	ParticipantID string           `gorm:"type:varchar(36);not null"`
	Views         datatypes.JSON   `gorm:"type:jsonb;not null"`
	OccurredAt    time.Time        `gorm:"type:timestamptz;not null"`
	PublishedAt   *time.Time       `gorm:"type:timestamptz"`
	Attempts      int              `gorm:"not null"`
	NextAttemptAt *time.Time       `gorm:"type:timestamptz"`
	LastError     *string          `gorm:"type:text"`
}

func (OutboxEventModel) TableName() string {
	return "ledger_outbox"
}

func batchModelFromDomain(b *domain.TrainingBatch) *TrainingBatchModel {
	if b == nil {
		return nil
	}

	return &TrainingBatchModel{
		ID:                  b.ID,
		BatchNumber:         b.BatchNumber,
		Year:                b.Year,
		StartDate:           b.StartDate,
		EndDate:             b.EndDate,
		RegistrationEndDate: b.RegistrationEndDate,
		Location:            b.Location,
		MaxParticipants:     b.MaxParticipants,
		IsActive:            b.IsActive,
		CreatedAt:           b.CreatedAt,
		UpdatedAt:           b.UpdatedAt,
	}
}

func batchModelToDomain(m *TrainingBatchModel) *domain.TrainingBatch {
	if m == nil {
		return nil
	}

	return &domain.TrainingBatch{
		ID:                  m.ID,
		BatchNumber:         m.BatchNumber,
		Year:                m.Year,
		StartDate:           m.StartDate,
		EndDate:             m.EndDate,
		RegistrationEndDate: m.RegistrationEndDate,
		Location:            m.Location,
		MaxParticipants:     m.MaxParticipants,
		IsActive:            m.IsActive,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
}

func coachModelFromDomain(c *domain.Coach) *CoachModel {
	if c == nil {
		return nil
	}

	return &CoachModel{
		ID:           c.ID,
		UserID:       c.UserID,
		FullName:     c.FullName,
		Email:        c.Email,
		Phone:        c.Phone,
		Organization: c.Organization,
		IsApproved:   c.IsApproved,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func coachModelToDomain(m *CoachModel) *domain.Coach {
	if m == nil {
		return nil
	}

	return &domain.Coach{
		ID:           m.ID,
		UserID:       m.UserID,
		FullName:     m.FullName,
		Email:        m.Email,
		Phone:        m.Phone,
		Organization: m.Organization,
		IsApproved:   m.IsApproved,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func participantModelFromDomain(p *domain.BatchParticipant) *BatchParticipantModel {
	if p == nil {
		return nil
	}

	return &BatchParticipantModel{
		ID:           p.ID,
		BatchID:      p.BatchID,
		CoachID:      p.CoachID,
		RegisteredAt: p.RegisteredAt,
		Status:       p.Status,
		Attended:     p.Attended,
		Notes:        p.Notes,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func participantModelToDomain(m *BatchParticipantModel) *domain.BatchParticipant {
	if m == nil {
		return nil
	}

	return &domain.BatchParticipant{
		ID:           m.ID,
		BatchID:      m.BatchID,
		CoachID:      m.CoachID,
		RegisteredAt: m.RegisteredAt,
		Status:       m.Status,
		Attended:     m.Attended,
		Notes:        m.Notes,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func outboxModelFromDomain(e *domain.ChangeEvent) (*OutboxEventModel, error) {
	if e == nil {
		return nil, nil
	}

	views := e.Views
	if views == nil {
		views = []string{}
	}
	raw, err := json.Marshal(views)
	if err != nil {
		return nil, err
	}

	return &OutboxEventModel{
		ID:            e.ID,
		Kind:          e.Kind,
		BatchID:       e.BatchID,
		CoachID:       e.CoachID,
		ParticipantID: e.ParticipantID,
		Views:         datatypes.JSON(raw),
		OccurredAt:    e.OccurredAt,
		PublishedAt:   e.PublishedAt,
		Attempts:      e.Attempts,
		NextAttemptAt: e.NextAttemptAt,
		LastError:     e.LastError,
	}, nil
}

func outboxModelToDomain(m *OutboxEventModel) (*domain.ChangeEvent, error) {
	if m == nil {
		return nil, nil
	}

	var views []string
	if len(m.Views) > 0 {
		if err := json.Unmarshal(m.Views, &views); err != nil {
			return nil, err
		}
	}

	return &domain.ChangeEvent{
		ID:            m.ID,
		Kind:          m.Kind,
		BatchID:       m.BatchID,
		CoachID:       m.CoachID,
		ParticipantID: m.ParticipantID,
		Views:         views,
		OccurredAt:    m.OccurredAt,
		PublishedAt:   m.PublishedAt,
		Attempts:      m.Attempts,
		NextAttemptAt: m.NextAttemptAt,
		LastError:     m.LastError,
	}, nil
}
