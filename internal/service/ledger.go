package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cabindev/sdnfutsal/internal/domain"
	"github.com/cabindev/sdnfutsal/internal/lock"
	"github.com/cabindev/sdnfutsal/internal/observability"
	"github.com/cabindev/sdnfutsal/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultRegistrationLockTTL = 5 * time.Second

// Gate resolves the caller of a ledger operation.
type Gate interface {
	Resolve(ctx context.Context) (domain.Actor, error)
}

type LedgerOptions struct {
	// Locker adds a distributed advisory lock around seat allocation. Optional.
	Locker       lock.Locker
	LockTTL      time.Duration
	CancelPolicy domain.CancelApprovalPolicy
}

// Ledger owns every mutation of batches, coaches and participations. Each
// public operation is one store transaction that also appends its change event.
type Ledger struct {
	store   repository.Store
	gate    Gate
	locker  lock.Locker
	lockTTL time.Duration
	policy  domain.CancelApprovalPolicy
	logger  *zap.Logger
	metrics *observability.Metrics
	now     func() time.Time
	newID   func() string
}

func NewLedger(store repository.Store, gate Gate, opts LedgerOptions, logger *zap.Logger) (*Ledger, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if gate == nil {
		return nil, fmt.Errorf("authorization gate is required")
	}
	policy := opts.CancelPolicy
	if policy == "" {
		policy = domain.CancelKeepsApproval
	}
	if !policy.IsValid() {
		return nil, fmt.Errorf("invalid cancel approval policy %q", policy)
	}
	lockTTL := opts.LockTTL
	if lockTTL <= 0 {
		lockTTL = defaultRegistrationLockTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Ledger{
		store:   store,
		gate:    gate,
		locker:  opts.Locker,
		lockTTL: lockTTL,
		policy:  policy,
		logger:  logger,
		now:     time.Now,
		newID:   uuid.NewString,
	}, nil
}

func (l *Ledger) SetMetrics(metrics *observability.Metrics) {
	if l == nil {
		return
	}
	l.metrics = metrics
}

func (l *Ledger) CancelPolicy() domain.CancelApprovalPolicy {
	return l.policy
}

func (l *Ledger) requireAdmin(ctx context.Context) (domain.Actor, error) {
	actor, err := l.gate.Resolve(ctx)
	if err != nil {
		return domain.Actor{}, err
	}
	if !actor.IsAdmin() {
		return domain.Actor{}, fmt.Errorf("%w: administrator role required", domain.ErrForbidden)
	}
	return actor, nil
}

// finish records the outcome of one operation. Errors outside the ledger
// taxonomy are logged because they indicate an infrastructure fault.
func (l *Ledger) finish(ctx context.Context, operation string, err error) {
	kind := domain.KindOf(err)
	l.metrics.ObserveLedgerOperation(operation, kind)

	if err == nil {
		return
	}
	logger := observability.WithContextLogger(l.logger, ctx)
	switch kind {
	case "internal", "constraint_violation":
		logger.Error("ledger operation failed",
			zap.String("operation", operation),
			zap.Error(err),
		)
	default:
		logger.Debug("ledger operation rejected",
			zap.String("operation", operation),
			zap.String("kind", kind),
			zap.Error(err),
		)
	}
}

func (l *Ledger) appendEvent(
	ctx context.Context,
	tx repository.Store,
	kind domain.EventKind,
	batchID, coachID, participantID string,
	extraViews ...string,
) error {
	views := domain.StaleViews(batchID, coachID)
	if len(extraViews) > 0 {
		views = mergeViews(views, extraViews)
	}

	event := &domain.ChangeEvent{
		ID:            l.newID(),
		Kind:          kind,
		BatchID:       batchID,
		CoachID:       coachID,
		ParticipantID: participantID,
		Views:         views,
		OccurredAt:    l.now().UTC(),
	}
	if err := tx.Outbox().Append(ctx, event); err != nil {
		return fmt.Errorf("failed to append %s event: %w", kind, err)
	}
	return nil
}

func mergeViews(base []string, extra []string) []string {
	seen := make(map[string]struct{}, len(base)+len(extra))
	merged := make([]string, 0, len(base)+len(extra))
	for _, list := range [][]string{base, extra} {
		for _, view := range list {
			if _, ok := seen[view]; ok || view == "" {
				continue
			}
			seen[view] = struct{}{}
			merged = append(merged, view)
		}
	}
	return merged
}

// storeError keeps ledger and context errors as they are and folds any
// other store failure into ErrConstraintViolation.
func storeError(err error) error {
	if err == nil || domain.IsLedgerError(err) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrConstraintViolation, err)
}

func notFound(entity string, id string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%w: %s %s", domain.ErrNotFound, entity, id)
	}
	return err
}

func requireID(name string, id string) (string, error) {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return "", fmt.Errorf("%w: %s is required", domain.ErrValidation, name)
	}
	return trimmed, nil
}
