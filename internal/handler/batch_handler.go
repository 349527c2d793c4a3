package handler

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cabindev/sdnfutsal/internal/domain"
	"github.com/cabindev/sdnfutsal/internal/service"
	"github.com/gofiber/fiber/v2"
)

type createBatchRequest struct {
	BatchNumber         int       `json:"batchNumber" validate:"required,gte=1"`
	Year                int       `json:"year" validate:"required,gte=2000,lte=2100"`
	StartDate           time.Time `json:"startDate" validate:"required"`
	EndDate             time.Time `json:"endDate" validate:"required,gtefield=StartDate"`
	RegistrationEndDate time.Time `json:"registrationEndDate" validate:"required,ltefield=EndDate"`
	Location            string    `json:"location" validate:"max=255"`
	MaxParticipants     int       `json:"maxParticipants" validate:"required,gte=1"`
	IsActive            *bool     `json:"isActive"`
}

type updateBatchRequest struct {
	BatchNumber         *int       `json:"batchNumber" validate:"omitempty,gte=1"`
	Year                *int       `json:"year" validate:"omitempty,gte=2000,lte=2100"`
	StartDate           *time.Time `json:"startDate"`
	EndDate             *time.Time `json:"endDate"`
	RegistrationEndDate *time.Time `json:"registrationEndDate"`
	Location            *string    `json:"location" validate:"omitempty,max=255"`
	MaxParticipants     *int       `json:"maxParticipants" validate:"omitempty,gte=1"`
	IsActive            *bool      `json:"isActive"`
}

type batchResponse struct {
	ID                  string     `json:"id"`
	BatchNumber         int        `json:"batchNumber"`
	Year                int        `json:"year"`
	Label               string     `json:"label"`
	StartDate           time.Time  `json:"startDate"`
	EndDate             time.Time  `json:"endDate"`
	RegistrationEndDate time.Time  `json:"registrationEndDate"`
	Location            string     `json:"location"`
	MaxParticipants     int        `json:"maxParticipants"`
	IsActive            bool       `json:"isActive"`
	Seated              int        `json:"seated"`
	SeatsRemaining      int        `json:"seatsRemaining"`
	CreatedAt           *time.Time `json:"createdAt,omitempty"`
	UpdatedAt           *time.Time `json:"updatedAt,omitempty"`
}

type registerRequest struct {
	CoachID string `json:"coachId" validate:"required"`
}

func (h *LedgerHandler) ListBatches(c *fiber.Ctx) error {
	var filter service.BatchFilter
	if raw := strings.TrimSpace(c.Query("year")); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			return toHTTPError(fmt.Errorf("%w: year must be an integer", domain.ErrValidation))
		}
		filter.Year = &year
	}
	active, err := parseBoolQuery(c, "active")
	if err != nil {
		return toHTTPError(err)
	}
	filter.ActiveOnly = active != nil && *active

	version := h.viewVersion(c, domain.ViewBatchList)
	batches, err := h.ledger.ListBatches(c.UserContext(), filter)
	if err != nil {
		return toHTTPError(err)
	}

	data := make([]batchResponse, 0, len(batches))
	for _, b := range batches {
		data = append(data, toBatchResponse(b))
	}
	return sendTagged(c, version, listResponse[batchResponse]{Data: data})
}

func (h *LedgerHandler) GetBatch(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))

	version := h.viewVersion(c, domain.BatchView(id))
	occupancy, err := h.ledger.GetBatch(c.UserContext(), id)
	if err != nil {
		return toHTTPError(err)
	}

	return sendTagged(c, version, toBatchResponse(*occupancy))
}

func (h *LedgerHandler) CreateBatch(c *fiber.Ctx) error {
	var req createBatchRequest
	if err := bindJSON(c, &req); err != nil {
		return toHTTPError(err)
	}

	batch := domain.TrainingBatch{
		BatchNumber:         req.BatchNumber,
		Year:                req.Year,
		StartDate:           req.StartDate,
		EndDate:             req.EndDate,
		RegistrationEndDate: req.RegistrationEndDate,
		Location:            req.Location,
		MaxParticipants:     req.MaxParticipants,
		IsActive:            true,
	}
	if req.IsActive != nil {
		batch.IsActive = *req.IsActive
	}

	created, err := h.ledger.CreateBatch(c.UserContext(), batch)
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(toBatchResponse(*created))
}

func (h *LedgerHandler) UpdateBatch(c *fiber.Ctx) error {
	var req updateBatchRequest
	if err := bindJSON(c, &req); err != nil {
		return toHTTPError(err)
	}

	updated, err := h.ledger.UpdateBatch(c.UserContext(), strings.TrimSpace(c.Params("id")), domain.BatchPatch{
		BatchNumber:         req.BatchNumber,
		Year:                req.Year,
		StartDate:           req.StartDate,
		EndDate:             req.EndDate,
		RegistrationEndDate: req.RegistrationEndDate,
		Location:            req.Location,
		MaxParticipants:     req.MaxParticipants,
		IsActive:            req.IsActive,
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(fiber.StatusOK).JSON(toBatchResponse(*updated))
}

func (h *LedgerHandler) DeleteBatch(c *fiber.Ctx) error {
	if err := h.ledger.DeleteBatch(c.UserContext(), strings.TrimSpace(c.Params("id"))); err != nil {
		return toHTTPError(err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *LedgerHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := bindJSON(c, &req); err != nil {
		return toHTTPError(err)
	}

	participant, err := h.ledger.Register(c.UserContext(), strings.TrimSpace(c.Params("id")), req.CoachID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(toParticipantResponse(participant))
}

func (h *LedgerHandler) BatchParticipants(c *fiber.Ctx) error {
	batchID := strings.TrimSpace(c.Params("id"))
	status, err := parseStatusQuery(c)
	if err != nil {
		return toHTTPError(err)
	}

	version := h.viewVersion(c, domain.ParticipantsView(batchID))
	rows, err := h.ledger.Roster(c.UserContext(), batchID, status)
	if err != nil {
		return toHTTPError(err)
	}

	data := make([]rosterEntryResponse, 0, len(rows))
	for _, row := range rows {
		data = append(data, toRosterEntryResponse(row))
	}
	return sendTagged(c, version, listResponse[rosterEntryResponse]{Data: data})
}

func (h *LedgerHandler) ExportParticipants(c *fiber.Ctx) error {
	batchID := strings.TrimSpace(c.Params("id"))
	status, err := parseStatusQuery(c)
	if err != nil {
		return toHTTPError(err)
	}

	var buf bytes.Buffer
	if err := h.ledger.ExportParticipantsCSV(c.UserContext(), &buf, batchID, status); err != nil {
		return toHTTPError(err)
	}

	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="batch-%s-participants.csv"`, batchID))
	return c.Status(fiber.StatusOK).Send(buf.Bytes())
}

func toBatchResponse(o domain.BatchOccupancy) batchResponse {
	b := o.Batch
	return batchResponse{
		ID:                  b.ID,
		BatchNumber:         b.BatchNumber,
		Year:                b.Year,
		Label:               b.Label(),
		StartDate:           b.StartDate,
		EndDate:             b.EndDate,
		RegistrationEndDate: b.RegistrationEndDate,
		Location:            b.Location,
		MaxParticipants:     b.MaxParticipants,
		IsActive:            b.IsActive,
		Seated:              o.Seated,
		SeatsRemaining:      o.SeatsRemaining,
		CreatedAt:           optionalTime(b.CreatedAt),
		UpdatedAt:           optionalTime(b.UpdatedAt),
	}
}
