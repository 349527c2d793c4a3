package handler

import (
	"bytes"
	"context"
	"database/sql/driver"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cabindev/sdnfutsal/internal/auth"
	"github.com/cabindev/sdnfutsal/internal/domain"
	"github.com/cabindev/sdnfutsal/internal/repository"
	"github.com/cabindev/sdnfutsal/internal/service"
	"github.com/cabindev/sdnfutsal/internal/transport"
	"github.com/gofiber/fiber/v2"
)

const testJWTSecret = "handler-test-secret"

type stubLedger struct {
	createBatchFn      func(ctx context.Context, batch domain.TrainingBatch) (*domain.BatchOccupancy, error)
	updateBatchFn      func(ctx context.Context, id string, patch domain.BatchPatch) (*domain.BatchOccupancy, error)
	deleteBatchFn      func(ctx context.Context, id string) error
	getBatchFn         func(ctx context.Context, id string) (*domain.BatchOccupancy, error)
	listBatchesFn      func(ctx context.Context, filter service.BatchFilter) ([]domain.BatchOccupancy, error)
	registerFn         func(ctx context.Context, batchID, coachID string) (*domain.BatchParticipant, error)
	approveFn          func(ctx context.Context, id string) (*domain.BatchParticipant, error)
	rejectFn           func(ctx context.Context, id string) (*domain.BatchParticipant, error)
	cancelFn           func(ctx context.Context, id string) (*domain.BatchParticipant, error)
	recordAttendanceFn func(ctx context.Context, id string, attended bool) (*domain.BatchParticipant, error)
	annotateFn         func(ctx context.Context, id string, note string) (*domain.BatchParticipant, error)
	listParticipantsFn func(ctx context.Context, filter service.ParticipantFilter) ([]domain.BatchParticipant, error)
	rosterFn           func(ctx context.Context, batchID string, status *domain.ParticipantStatus) ([]repository.RosterRow, error)
	exportFn           func(ctx context.Context, w io.Writer, batchID string, status *domain.ParticipantStatus) error
	createCoachFn      func(ctx context.Context, coach domain.Coach) (*domain.Coach, error)
	getCoachFn         func(ctx context.Context, id string) (*domain.Coach, error)
	listCoachesFn      func(ctx context.Context, approved *bool) ([]domain.Coach, error)
	setCoachApprovalFn func(ctx context.Context, id string, approved bool) (*domain.Coach, error)
	deleteCoachFn      func(ctx context.Context, id string) error
}

var _ Ledger = (*stubLedger)(nil)

var errNotStubbed = errors.New("not stubbed")

func (s *stubLedger) CreateBatch(ctx context.Context, batch domain.TrainingBatch) (*domain.BatchOccupancy, error) {
	if s.createBatchFn != nil {
		return s.createBatchFn(ctx, batch)
	}
	return nil, errNotStubbed
}

func (s *stubLedger) UpdateBatch(ctx context.Context, id string, patch domain.BatchPatch) (*domain.BatchOccupancy, error) {
	if s.updateBatchFn != nil {
		return s.updateBatchFn(ctx, id, patch)
	}
	return nil, errNotStubbed
}

func (s *stubLedger) DeleteBatch(ctx context.Context, id string) error {
	if s.deleteBatchFn != nil {
		return s.deleteBatchFn(ctx, id)
	}
	return errNotStubbed
}

func (s *stubLedger) GetBatch(ctx context.Context, id string) (*domain.BatchOccupancy, error) {
	if s.getBatchFn != nil {
		return s.getBatchFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (s *stubLedger) ListBatches(ctx context.Context, filter service.BatchFilter) ([]domain.BatchOccupancy, error) {
	if s.listBatchesFn != nil {
		return s.listBatchesFn(ctx, filter)
	}
	return nil, nil
}

func (s *stubLedger) Register(ctx context.Context, batchID, coachID string) (*domain.BatchParticipant, error) {
	if s.registerFn != nil {
		return s.registerFn(ctx, batchID, coachID)
	}
	return nil, errNotStubbed
}

func (s *stubLedger) Approve(ctx context.Context, id string) (*domain.BatchParticipant, error) {
	if s.approveFn != nil {
		return s.approveFn(ctx, id)
	}
	return nil, errNotStubbed
}

func (s *stubLedger) Reject(ctx context.Context, id string) (*domain.BatchParticipant, error) {
	if s.rejectFn != nil {
		return s.rejectFn(ctx, id)
	}
	return nil, errNotStubbed
}

func (s *stubLedger) Cancel(ctx context.Context, id string) (*domain.BatchParticipant, error) {
	if s.cancelFn != nil {
		return s.cancelFn(ctx, id)
	}
	return nil, errNotStubbed
}

func (s *stubLedger) RecordAttendance(ctx context.Context, id string, attended bool) (*domain.BatchParticipant, error) {
	if s.recordAttendanceFn != nil {
		return s.recordAttendanceFn(ctx, id, attended)
	}
	return nil, errNotStubbed
}

func (s *stubLedger) Annotate(ctx context.Context, id string, note string) (*domain.BatchParticipant, error) {
	if s.annotateFn != nil {
		return s.annotateFn(ctx, id, note)
	}
	return nil, errNotStubbed
}

func (s *stubLedger) ListParticipants(ctx context.Context, filter service.ParticipantFilter) ([]domain.BatchParticipant, error) {
	if s.listParticipantsFn != nil {
		return s.listParticipantsFn(ctx, filter)
	}
	return nil, nil
}

func (s *stubLedger) Roster(ctx context.Context, batchID string, status *domain.ParticipantStatus) ([]repository.RosterRow, error) {
	if s.rosterFn != nil {
		return s.rosterFn(ctx, batchID, status)
	}
	return nil, nil
}

func (s *stubLedger) ExportParticipantsCSV(ctx context.Context, w io.Writer, batchID string, status *domain.ParticipantStatus) error {
	if s.exportFn != nil {
		return s.exportFn(ctx, w, batchID, status)
	}
	return errNotStubbed
}

func (s *stubLedger) CreateCoach(ctx context.Context, coach domain.Coach) (*domain.Coach, error) {
	if s.createCoachFn != nil {
		return s.createCoachFn(ctx, coach)
	}
	return nil, errNotStubbed
}

func (s *stubLedger) GetCoach(ctx context.Context, id string) (*domain.Coach, error) {
	if s.getCoachFn != nil {
		return s.getCoachFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (s *stubLedger) ListCoaches(ctx context.Context, approved *bool) ([]domain.Coach, error) {
	if s.listCoachesFn != nil {
		return s.listCoachesFn(ctx, approved)
	}
	return nil, nil
}

func (s *stubLedger) SetCoachApproval(ctx context.Context, id string, approved bool) (*domain.Coach, error) {
	if s.setCoachApprovalFn != nil {
		return s.setCoachApprovalFn(ctx, id, approved)
	}
	return nil, errNotStubbed
}

func (s *stubLedger) DeleteCoach(ctx context.Context, id string) error {
	if s.deleteCoachFn != nil {
		return s.deleteCoachFn(ctx, id)
	}
	return errNotStubbed
}

type stubViews struct {
	version int64
	err     error
}

func (s *stubViews) Version(ctx context.Context, view string) (int64, error) {
	return s.version, s.err
}

type stubLimiter struct {
	allowFn func(ctx context.Context, key string) (bool, error)
}

func (s *stubLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if s.allowFn != nil {
		return s.allowFn(ctx, key)
	}
	return true, nil
}

func (s *stubLimiter) Wait(ctx context.Context, key string) error {
	return nil
}

func newLedgerTestApp(t *testing.T, ledger Ledger, opts LedgerRoutesOptions) *fiber.App {
	t.Helper()

	verifier, err := auth.NewTokenVerifier(testJWTSecret, "")
	if err != nil {
		t.Fatalf("NewTokenVerifier() error = %v", err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: transport.ErrorHandler(nil),
	})
	app.Use(auth.Middleware(verifier, nil))

	if err := RegisterLedgerRoutes(app, ledger, opts); err != nil {
		t.Fatalf("RegisterLedgerRoutes() error = %v", err)
	}

	return app
}

func tokenFor(t *testing.T, actor domain.Actor) string {
	t.Helper()

	verifier, err := auth.NewTokenVerifier(testJWTSecret, "")
	if err != nil {
		t.Fatalf("NewTokenVerifier() error = %v", err)
	}
	token, err := verifier.Issue(actor, time.Hour)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	return token
}

func adminToken(t *testing.T) string {
	return tokenFor(t, domain.Actor{UserID: "admin-1", Role: domain.RoleAdmin})
}

func userToken(t *testing.T, userID string) string {
	return tokenFor(t, domain.Actor{UserID: userID, Role: domain.RoleUser})
}

func performRequest(
	t *testing.T,
	app *fiber.App,
	method string,
	path string,
	body string,
	headers ...string,
) (*http.Response, []byte) {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	_ = resp.Body.Close()

	return resp, respBody
}

func bearer(token string) []string {
	return []string{fiber.HeaderAuthorization, "Bearer " + token}
}

type stubConnector struct {
	pingErr error
}

func (c stubConnector) Connect(context.Context) (driver.Conn, error) {
	return stubConn(c), nil
}

func (c stubConnector) Driver() driver.Driver {
	return stubDriver(c)
}

type stubDriver struct {
	pingErr error
}

func (d stubDriver) Open(string) (driver.Conn, error) {
	return stubConn(d), nil
}

type stubConn struct {
	pingErr error
}

func (c stubConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("not implemented") }
func (c stubConn) Close() error                        { return nil }
func (c stubConn) Begin() (driver.Tx, error)           { return nil, errors.New("not implemented") }
func (c stubConn) Ping(context.Context) error          { return c.pingErr }
