package domain

import (
	"fmt"
	"strings"
	"time"
)

const (
	MinBatchYear      = 2000
	MaxBatchYear      = 2100
	MaxLocationLength = 255
)

// TrainingBatch is a scheduled coach-training cohort with a fixed seat count.
type TrainingBatch struct {
	ID                  string
	BatchNumber         int
	Year                int
	StartDate           time.Time
	EndDate             time.Time
	RegistrationEndDate time.Time
	Location            string
	MaxParticipants     int
	IsActive            bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (b *TrainingBatch) Validate() error {
	if b.BatchNumber < 1 {
		return fmt.Errorf("%w: batchNumber must be >= 1", ErrValidation)
	}
	if b.Year < MinBatchYear || b.Year > MaxBatchYear {
		return fmt.Errorf("%w: year must be between %d and %d", ErrValidation, MinBatchYear, MaxBatchYear)
	}
	if b.StartDate.IsZero() || b.EndDate.IsZero() {
		return fmt.Errorf("%w: startDate and endDate are required", ErrValidation)
	}
	if b.EndDate.Before(b.StartDate) {
		return fmt.Errorf("%w: endDate must not be before startDate", ErrValidation)
	}
	if b.RegistrationEndDate.IsZero() {
		return fmt.Errorf("%w: registrationEndDate is required", ErrValidation)
	}
	if b.RegistrationEndDate.After(b.EndDate) {
		return fmt.Errorf("%w: registrationEndDate must not be after endDate", ErrValidation)
	}
	if b.MaxParticipants < 1 {
		return fmt.Errorf("%w: maxParticipants must be >= 1", ErrValidation)
	}
	if len([]rune(b.Location)) > MaxLocationLength {
		return fmt.Errorf("%w: location exceeds %d characters", ErrValidation, MaxLocationLength)
	}
	return nil
}

// Normalize trims free-text fields in place.
func (b *TrainingBatch) Normalize() {
	b.ID = strings.TrimSpace(b.ID)
	b.Location = strings.TrimSpace(b.Location)
}

// RegistrationOpen reports whether new registrations are accepted at now.
// The close date is inclusive.
func (b *TrainingBatch) RegistrationOpen(now time.Time) bool {
	if !b.IsActive {
		return false
	}
	return !now.After(b.RegistrationEndDate)
}

// Label is the human-facing "batch N/YYYY" form.
func (b *TrainingBatch) Label() string {
	return fmt.Sprintf("%d/%d", b.BatchNumber, b.Year)
}

// BatchPatch carries a partial batch update. Nil fields are left untouched.
type BatchPatch struct {
	BatchNumber         *int
	Year                *int
	StartDate           *time.Time
	EndDate             *time.Time
	RegistrationEndDate *time.Time
	Location            *string
	MaxParticipants     *int
	IsActive            *bool
}

func (p BatchPatch) Apply(b *TrainingBatch) {
	if p.BatchNumber != nil {
		b.BatchNumber = *p.BatchNumber
	}
	if p.Year != nil {
		b.Year = *p.Year
	}
	if p.StartDate != nil {
		b.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		b.EndDate = *p.EndDate
	}
	if p.RegistrationEndDate != nil {
		b.RegistrationEndDate = *p.RegistrationEndDate
	}
	if p.Location != nil {
		b.Location = *p.Location
	}
	if p.MaxParticipants != nil {
		b.MaxParticipants = *p.MaxParticipants
	}
	if p.IsActive != nil {
		b.IsActive = *p.IsActive
	}
}

// BatchOccupancy is a batch together with its live seat accounting.
type BatchOccupancy struct {
	Batch          TrainingBatch
	Seated         int
	SeatsRemaining int
}

// NewBatchOccupancy computes remaining seats from the seated count, floored at zero.
func NewBatchOccupancy(b TrainingBatch, seated int) BatchOccupancy {
	return BatchOccupancy{
		Batch:          b,
		Seated:         seated,
		SeatsRemaining: SeatsRemaining(b.MaxParticipants, seated),
	}
}

func SeatsRemaining(maxParticipants, seated int) int {
	return max(maxParticipants-seated, 0)
}
