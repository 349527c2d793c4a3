package handler

import (
	"context"
	"strings"
	"time"

	"github.com/cabindev/sdnfutsal/internal/domain"
	"github.com/cabindev/sdnfutsal/internal/repository"
	"github.com/gofiber/fiber/v2"
)

type attendanceRequest struct {
	Attended *bool `json:"attended" validate:"required"`
}

type notesRequest struct {
	Note *string `json:"note" validate:"required"`
}

type participantResponse struct {
	ID           string     `json:"id"`
	BatchID      string     `json:"batchId"`
	CoachID      string     `json:"coachId"`
	RegisteredAt time.Time  `json:"registeredAt"`
	Status       string     `json:"status"`
	Attended     bool       `json:"attended"`
	Notes        string     `json:"notes"`
	CreatedAt    *time.Time `json:"createdAt,omitempty"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty"`
}

type rosterCoach struct {
	Name         string `json:"name"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Organization string `json:"organization,omitempty"`
}

type rosterEntryResponse struct {
	participantResponse
	Coach rosterCoach `json:"coach"`
}

type transitionFunc func(ctx context.Context, participantID string) (*domain.BatchParticipant, error)

func (h *LedgerHandler) Approve(c *fiber.Ctx) error {
	return h.transition(c, h.ledger.Approve)
}

func (h *LedgerHandler) Reject(c *fiber.Ctx) error {
	return h.transition(c, h.ledger.Reject)
}

func (h *LedgerHandler) Cancel(c *fiber.Ctx) error {
	return h.transition(c, h.ledger.Cancel)
}

func (h *LedgerHandler) transition(c *fiber.Ctx, fn transitionFunc) error {
	participant, err := fn(c.UserContext(), strings.TrimSpace(c.Params("id")))
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(fiber.StatusOK).JSON(toParticipantResponse(participant))
}

func (h *LedgerHandler) RecordAttendance(c *fiber.Ctx) error {
	var req attendanceRequest
	if err := bindJSON(c, &req); err != nil {
		return toHTTPError(err)
	}

	participant, err := h.ledger.RecordAttendance(c.UserContext(), strings.TrimSpace(c.Params("id")), *req.Attended)
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(fiber.StatusOK).JSON(toParticipantResponse(participant))
}

func (h *LedgerHandler) Annotate(c *fiber.Ctx) error {
	var req notesRequest
	if err := bindJSON(c, &req); err != nil {
		return toHTTPError(err)
	}

	participant, err := h.ledger.Annotate(c.UserContext(), strings.TrimSpace(c.Params("id")), *req.Note)
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(fiber.StatusOK).JSON(toParticipantResponse(participant))
}

func toParticipantResponses(participants []domain.BatchParticipant) []participantResponse {
	responses := make([]participantResponse, 0, len(participants))
	for _, participant := range participants {
		p := participant
		responses = append(responses, toParticipantResponse(&p))
	}
	return responses
}

func toParticipantResponse(p *domain.BatchParticipant) participantResponse {
	if p == nil {
		return participantResponse{}
	}

	return participantResponse{
		ID:           p.ID,
		BatchID:      p.BatchID,
		CoachID:      p.CoachID,
		RegisteredAt: p.RegisteredAt,
		Status:       p.Status.String(),
		Attended:     p.Attended,
		Notes:        p.Notes,
		CreatedAt:    optionalTime(p.CreatedAt),
		UpdatedAt:    optionalTime(p.UpdatedAt),
	}
}

func toRosterEntryResponse(row repository.RosterRow) rosterEntryResponse {
	return rosterEntryResponse{
		participantResponse: toParticipantResponse(&row.Participant),
		Coach: rosterCoach{
			Name:         row.CoachName,
			Email:        row.CoachEmail,
			Phone:        row.CoachPhone,
			Organization: row.CoachOrganization,
		},
	}
}
