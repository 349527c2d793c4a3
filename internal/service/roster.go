package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/cabindev/sdnfutsal/internal/domain"
	"github.com/cabindev/sdnfutsal/internal/repository"
)

type ParticipantFilter struct {
	BatchID string
	CoachID string
	Status  *domain.ParticipantStatus
}

var exportHeader = []string{
	"participant_id",
	"batch_number",
	"year",
	"coach_id",
	"coach_name",
	"coach_email",
	"status",
	"attended",
	"registered_at",
	"notes",
}

// ListParticipants lists participations. Admins may filter freely; other
// callers must scope the query to a coach they own.
func (l *Ledger) ListParticipants(ctx context.Context, filter ParticipantFilter) (participants []domain.BatchParticipant, err error) {
	defer func() { l.finish(ctx, "list_participants", err) }()

	actor, err := l.gate.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	if !actor.IsAdmin() {
		if filter.CoachID == "" {
			return nil, fmt.Errorf("%w: coachId filter is required", domain.ErrForbidden)
		}
		coach, err := l.store.Coaches().GetByID(ctx, filter.CoachID)
		if err != nil {
			return nil, storeError(notFound("coach", filter.CoachID, err))
		}
		if !actor.CanActFor(coach.UserID) {
			return nil, fmt.Errorf("%w: caller does not own coach %s", domain.ErrForbidden, filter.CoachID)
		}
	}

	participants, err = l.store.Participants().List(ctx, repository.ParticipantListParams{
		BatchID: filter.BatchID,
		CoachID: filter.CoachID,
		Status:  filter.Status,
	})
	if err != nil {
		return nil, storeError(err)
	}
	return participants, nil
}

// Roster returns a batch's participants joined with their coach profiles.
func (l *Ledger) Roster(ctx context.Context, batchID string, status *domain.ParticipantStatus) (rows []repository.RosterRow, err error) {
	defer func() { l.finish(ctx, "roster", err) }()

	if _, err = l.requireAdmin(ctx); err != nil {
		return nil, err
	}
	_, rows, err = l.loadRoster(ctx, batchID, status)
	return rows, err
}

// ExportParticipantsCSV writes a batch roster as CSV to w.
func (l *Ledger) ExportParticipantsCSV(ctx context.Context, w io.Writer, batchID string, status *domain.ParticipantStatus) (err error) {
	defer func() { l.finish(ctx, "export_participants", err) }()

	if _, err = l.requireAdmin(ctx); err != nil {
		return err
	}
	batch, rows, err := l.loadRoster(ctx, batchID, status)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, row := range rows {
		record := []string{
			row.Participant.ID,
			strconv.Itoa(batch.BatchNumber),
			strconv.Itoa(batch.Year),
			row.Participant.CoachID,
			csvText(row.CoachName),
			csvText(row.CoachEmail),
			row.Participant.Status.String(),
			strconv.FormatBool(row.Participant.Attended),
			row.Participant.RegisteredAt.UTC().Format(time.RFC3339),
			csvText(row.Participant.Notes),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

// csvText neutralizes free text that a spreadsheet would evaluate as a formula.
func csvText(value string) string {
	if value == "" {
		return value
	}
	switch value[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + value
	}
	return value
}

func (l *Ledger) loadRoster(ctx context.Context, batchID string, status *domain.ParticipantStatus) (*domain.TrainingBatch, []repository.RosterRow, error) {
	batchID, err := requireID("batchId", batchID)
	if err != nil {
		return nil, nil, err
	}
	batch, err := l.store.Batches().GetByID(ctx, batchID)
	if err != nil {
		return nil, nil, storeError(notFound("batch", batchID, err))
	}
	rows, err := l.store.Participants().Roster(ctx, batchID, status)
	if err != nil {
		return nil, nil, storeError(err)
	}
	return batch, rows, nil
}
