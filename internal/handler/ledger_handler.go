package handler

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/cabindev/sdnfutsal/internal/domain"
	"github.com/cabindev/sdnfutsal/internal/observability"
	"github.com/cabindev/sdnfutsal/internal/ratelimit"
	"github.com/cabindev/sdnfutsal/internal/repository"
	"github.com/cabindev/sdnfutsal/internal/service"
	"github.com/cespare/xxhash/v2"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Ledger is the participation ledger as seen by the HTTP layer.
type Ledger interface {
	CreateBatch(ctx context.Context, batch domain.TrainingBatch) (*domain.BatchOccupancy, error)
	UpdateBatch(ctx context.Context, id string, patch domain.BatchPatch) (*domain.BatchOccupancy, error)
	DeleteBatch(ctx context.Context, id string) error
	GetBatch(ctx context.Context, id string) (*domain.BatchOccupancy, error)
	ListBatches(ctx context.Context, filter service.BatchFilter) ([]domain.BatchOccupancy, error)

	Register(ctx context.Context, batchID, coachID string) (*domain.BatchParticipant, error)
	Approve(ctx context.Context, participantID string) (*domain.BatchParticipant, error)
	Reject(ctx context.Context, participantID string) (*domain.BatchParticipant, error)
	Cancel(ctx context.Context, participantID string) (*domain.BatchParticipant, error)
	RecordAttendance(ctx context.Context, participantID string, attended bool) (*domain.BatchParticipant, error)
	Annotate(ctx context.Context, participantID string, note string) (*domain.BatchParticipant, error)
	ListParticipants(ctx context.Context, filter service.ParticipantFilter) ([]domain.BatchParticipant, error)
	Roster(ctx context.Context, batchID string, status *domain.ParticipantStatus) ([]repository.RosterRow, error)
	ExportParticipantsCSV(ctx context.Context, w io.Writer, batchID string, status *domain.ParticipantStatus) error

	CreateCoach(ctx context.Context, coach domain.Coach) (*domain.Coach, error)
	GetCoach(ctx context.Context, id string) (*domain.Coach, error)
	ListCoaches(ctx context.Context, approved *bool) ([]domain.Coach, error)
	SetCoachApproval(ctx context.Context, id string, approved bool) (*domain.Coach, error)
	DeleteCoach(ctx context.Context, id string) error
}

// ViewVersions exposes the cache validator of a logical read view.
type ViewVersions interface {
	Version(ctx context.Context, view string) (int64, error)
}

// LedgerRoutesOptions carries the optional collaborators of the ledger routes.
type LedgerRoutesOptions struct {
	Views             ViewVersions
	RegistrationLimit ratelimit.RateLimiter
	Logger            *zap.Logger
}

type LedgerHandler struct {
	ledger  Ledger
	views   ViewVersions
	limiter ratelimit.RateLimiter
	logger  *zap.Logger
}

func NewLedgerHandler(ledger Ledger, opts LedgerRoutesOptions) (*LedgerHandler, error) {
	if ledger == nil {
		return nil, fmt.Errorf("ledger is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &LedgerHandler{
		ledger:  ledger,
		views:   opts.Views,
		limiter: opts.RegistrationLimit,
		logger:  logger,
	}, nil
}

func RegisterLedgerRoutes(router fiber.Router, ledger Ledger, opts LedgerRoutesOptions) error {
	h, err := NewLedgerHandler(ledger, opts)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")

	v1.Get("/batches", h.ListBatches)
	v1.Post("/batches", h.CreateBatch)
	v1.Get("/batches/:id", h.GetBatch)
	v1.Patch("/batches/:id", h.UpdateBatch)
	v1.Delete("/batches/:id", h.DeleteBatch)
	v1.Post("/batches/:id/registrations", RateLimit(h.limiter, h.logger), h.Register)
	v1.Get("/batches/:id/participants", h.BatchParticipants)
	v1.Get("/batches/:id/participants/export", h.ExportParticipants)

	v1.Post("/participants/:id/approve", h.Approve)
	v1.Post("/participants/:id/reject", h.Reject)
	v1.Post("/participants/:id/cancel", h.Cancel)
	v1.Put("/participants/:id/attendance", h.RecordAttendance)
	v1.Put("/participants/:id/notes", h.Annotate)

	v1.Post("/coaches", h.CreateCoach)
	v1.Get("/coaches", h.ListCoaches)
	v1.Get("/coaches/:id", h.GetCoach)
	v1.Get("/coaches/:id/participations", h.CoachParticipations)
	v1.Put("/coaches/:id/approval", h.SetCoachApproval)
	v1.Delete("/coaches/:id", h.DeleteCoach)

	return nil
}

type listResponse[T any] struct {
	Data []T `json:"data"`
}

// viewVersion returns the version of view as seen by this request, or ""
// when no version store is configured or it is unreachable.
func (h *LedgerHandler) viewVersion(c *fiber.Ctx, view string) string {
	if h.views == nil {
		return ""
	}
	version, err := h.views.Version(c.UserContext(), view)
	if err != nil {
		observability.WithContextLogger(h.logger, c.UserContext()).Debug("view version unavailable",
			zap.String("view", view),
			zap.Error(err),
		)
		return ""
	}
	return view + "@" + strconv.FormatInt(version, 10)
}

// sendTagged writes payload as JSON under a weak ETag computed from the
// encoded body and the view version. A matching If-None-Match gets an empty
// 304 instead.
func sendTagged(c *fiber.Ctx, version string, payload any) error {
	body, err := c.App().Config().JSONEncoder(payload)
	if err != nil {
		return err
	}

	digest := xxhash.New()
	_, _ = digest.WriteString(version)
	_, _ = digest.WriteString("|")
	_, _ = digest.Write(body)
	tag := `W/"` + strconv.FormatUint(digest.Sum64(), 16) + `"`

	c.Set(fiber.HeaderETag, tag)
	for _, candidate := range strings.Split(c.Get(fiber.HeaderIfNoneMatch), ",") {
		if strings.TrimSpace(candidate) == tag {
			c.Status(fiber.StatusNotModified)
			return nil
		}
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(fiber.StatusOK).Send(body)
}

func parseStatusQuery(c *fiber.Ctx) (*domain.ParticipantStatus, error) {
	raw := strings.TrimSpace(c.Query("status"))
	if raw == "" {
		return nil, nil
	}
	status, err := domain.ParseParticipantStatusFromString(raw)
	if err != nil {
		return nil, err
	}
	return &status, nil
}

func parseBoolQuery(c *fiber.Ctx, key string) (*bool, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a boolean", domain.ErrValidation, key)
	}
	return &value, nil
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
