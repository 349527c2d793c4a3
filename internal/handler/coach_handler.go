package handler

import (
	"strings"
	"time"

	"github.com/cabindev/sdnfutsal/internal/domain"
	"github.com/cabindev/sdnfutsal/internal/service"
	"github.com/gofiber/fiber/v2"
)

type createCoachRequest struct {
	UserID       string `json:"userId"`
	FullName     string `json:"fullName" validate:"required,max=255"`
	Email        string `json:"email" validate:"omitempty,email"`
	Phone        string `json:"phone" validate:"max=50"`
	Organization string `json:"organization" validate:"max=255"`
}

type coachApprovalRequest struct {
	Approved *bool `json:"approved" validate:"required"`
}

type coachResponse struct {
	ID           string     `json:"id"`
	UserID       string     `json:"userId"`
	FullName     string     `json:"fullName"`
	Email        string     `json:"email,omitempty"`
	Phone        string     `json:"phone,omitempty"`
	Organization string     `json:"organization,omitempty"`
	IsApproved   bool       `json:"isApproved"`
	CreatedAt    *time.Time `json:"createdAt,omitempty"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty"`
}

func (h *LedgerHandler) CreateCoach(c *fiber.Ctx) error {
	var req createCoachRequest
	if err := bindJSON(c, &req); err != nil {
		return toHTTPError(err)
	}

	created, err := h.ledger.CreateCoach(c.UserContext(), domain.Coach{
		UserID:       req.UserID,
		FullName:     req.FullName,
		Email:        req.Email,
		Phone:        req.Phone,
		Organization: req.Organization,
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(toCoachResponse(created))
}

func (h *LedgerHandler) ListCoaches(c *fiber.Ctx) error {
	approved, err := parseBoolQuery(c, "approved")
	if err != nil {
		return toHTTPError(err)
	}

	coaches, err := h.ledger.ListCoaches(c.UserContext(), approved)
	if err != nil {
		return toHTTPError(err)
	}

	data := make([]coachResponse, 0, len(coaches))
	for i := range coaches {
		data = append(data, toCoachResponse(&coaches[i]))
	}
	return c.Status(fiber.StatusOK).JSON(listResponse[coachResponse]{Data: data})
}

func (h *LedgerHandler) GetCoach(c *fiber.Ctx) error {
	coach, err := h.ledger.GetCoach(c.UserContext(), strings.TrimSpace(c.Params("id")))
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(fiber.StatusOK).JSON(toCoachResponse(coach))
}

func (h *LedgerHandler) CoachParticipations(c *fiber.Ctx) error {
	status, err := parseStatusQuery(c)
	if err != nil {
		return toHTTPError(err)
	}

	participants, err := h.ledger.ListParticipants(c.UserContext(), service.ParticipantFilter{
		CoachID: strings.TrimSpace(c.Params("id")),
		BatchID: strings.TrimSpace(c.Query("batchId")),
		Status:  status,
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(fiber.StatusOK).JSON(listResponse[participantResponse]{Data: toParticipantResponses(participants)})
}

func (h *LedgerHandler) SetCoachApproval(c *fiber.Ctx) error {
	var req coachApprovalRequest
	if err := bindJSON(c, &req); err != nil {
		return toHTTPError(err)
	}

	coach, err := h.ledger.SetCoachApproval(c.UserContext(), strings.TrimSpace(c.Params("id")), *req.Approved)
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(fiber.StatusOK).JSON(toCoachResponse(coach))
}

func (h *LedgerHandler) DeleteCoach(c *fiber.Ctx) error {
	if err := h.ledger.DeleteCoach(c.UserContext(), strings.TrimSpace(c.Params("id"))); err != nil {
		return toHTTPError(err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func toCoachResponse(coach *domain.Coach) coachResponse {
	if coach == nil {
		return coachResponse{}
	}

	return coachResponse{
		ID:           coach.ID,
		UserID:       coach.UserID,
		FullName:     coach.FullName,
		Email:        coach.Email,
		Phone:        coach.Phone,
		Organization: coach.Organization,
		IsApproved:   coach.IsApproved,
		CreatedAt:    optionalTime(coach.CreatedAt),
		UpdatedAt:    optionalTime(coach.UpdatedAt),
	}
}
