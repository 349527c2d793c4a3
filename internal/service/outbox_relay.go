package service

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/cabindev/sdnfutsal/internal/observability"
	"github.com/cabindev/sdnfutsal/internal/queue"
	"github.com/cabindev/sdnfutsal/internal/repository"
	"go.uber.org/zap"
)

const (
	defaultOutboxScanInterval = 2 * time.Second
	defaultOutboxScanLimit    = 100
)

// OutboxRelay periodically publishes committed change events to the broker.
// Rows are claimed with SKIP LOCKED so several relays can run side by side.
type OutboxRelay struct {
	store     repository.Store
	publisher queue.Publisher
	logger    *zap.Logger
	metrics   *observability.Metrics
	interval  time.Duration
	limit     int
	now       func() time.Time
	randIntn  func(n int) int
}

func NewOutboxRelay(
	store repository.Store,
	publisher queue.Publisher,
	interval time.Duration,
	limit int,
	logger *zap.Logger,
) (*OutboxRelay, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("publisher is required")
	}
	if interval <= 0 {
		interval = defaultOutboxScanInterval
	}
	if limit <= 0 {
		limit = defaultOutboxScanLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &OutboxRelay{
		store:     store,
		publisher: publisher,
		logger:    logger,
		interval:  interval,
		limit:     limit,
		now:       time.Now,
		randIntn:  rand.Intn,
	}, nil
}

func (r *OutboxRelay) SetMetrics(metrics *observability.Metrics) {
	if r == nil {
		return
	}
	r.metrics = metrics
}

func (r *OutboxRelay) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if _, err := r.relayDue(ctx); err != nil && ctx.Err() == nil {
		r.logger.Error("outbox relay initial scan failed", zap.Error(err))
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := r.relayDue(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				r.logger.Error("outbox relay scan failed", zap.Error(err))
			}
		}
	}
}

// relayDue publishes one page of due events and returns how many went out.
// Failed publishes are rescheduled with backoff instead of blocking the page.
func (r *OutboxRelay) relayDue(ctx context.Context) (int, error) {
	published := 0
	err := r.store.WithinTx(ctx, func(tx repository.Store) error {
		now := r.now().UTC()
		events, err := tx.Outbox().LockDue(ctx, now, r.limit)
		if err != nil {
			return fmt.Errorf("failed to fetch due change events: %w", err)
		}

		for i := range events {
			event := events[i]
			msg := queue.NewChangeMessage(event)

			if err := r.publisher.Publish(ctx, queue.ChangesQueue, msg); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				next := now.Add(computeRetryDelay(event.Attempts+1, r.randIntn))
				r.logger.Warn("failed to publish change event",
					zap.String("eventId", event.ID),
					zap.String("kind", event.Kind.String()),
					zap.Int("attempts", event.Attempts+1),
					zap.Time("nextAttemptAt", next),
					zap.Error(err),
				)
				if err := tx.Outbox().ScheduleRetry(ctx, event.ID, next, err.Error()); err != nil {
					return fmt.Errorf("failed to schedule retry for event %s: %w", event.ID, err)
				}
				r.metrics.IncOutboxRetry()
				continue
			}

			if err := tx.Outbox().MarkPublished(ctx, event.ID, now); err != nil {
				return fmt.Errorf("failed to mark event %s published: %w", event.ID, err)
			}
			r.metrics.IncOutboxPublished()
			published++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return published, nil
}
