package service

import (
	"context"
	"fmt"
	"time"

	"github.com/cabindev/sdnfutsal/internal/observability"
	"github.com/cabindev/sdnfutsal/internal/queue"
	"github.com/cabindev/sdnfutsal/internal/ratelimit"
	"github.com/cabindev/sdnfutsal/internal/revalidate"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	minWorkerConcurrency = 1
	revalidateRateKey    = "revalidate-webhook"
)

// ViewBumper advances the cache validator of each named view.
type ViewBumper interface {
	Bump(ctx context.Context, views ...string) error
}

// RevalidationWorker consumes change messages, bumps view versions and
// notifies the front end that the views are stale.
type RevalidationWorker struct {
	consumer    queue.Consumer
	versions    ViewBumper
	revalidator revalidate.Revalidator
	rateLimiter ratelimit.RateLimiter
	logger      *zap.Logger
	metrics     *observability.Metrics
	concurrency int
	now         func() time.Time
}

// NewRevalidationWorker builds a worker. revalidator and rateLimiter are
// optional; without a revalidator only view versions are bumped.
func NewRevalidationWorker(
	consumer queue.Consumer,
	versions ViewBumper,
	revalidator revalidate.Revalidator,
	rateLimiter ratelimit.RateLimiter,
	concurrency int,
	logger *zap.Logger,
) (*RevalidationWorker, error) {
	if consumer == nil {
		return nil, fmt.Errorf("consumer is required")
	}
	if versions == nil {
		return nil, fmt.Errorf("view version store is required")
	}
	if concurrency < minWorkerConcurrency {
		concurrency = minWorkerConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RevalidationWorker{
		consumer:    consumer,
		versions:    versions,
		revalidator: revalidator,
		rateLimiter: rateLimiter,
		logger:      logger,
		concurrency: concurrency,
		now:         time.Now,
	}, nil
}

func (w *RevalidationWorker) SetMetrics(metrics *observability.Metrics) {
	if w == nil {
		return
	}
	w.metrics = metrics
}

// Start consumes the change queue until context cancellation.
func (w *RevalidationWorker) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	queueNames := queue.WorkQueueNames()
	if len(queueNames) == 0 {
		return fmt.Errorf("no work queues configured")
	}

	g, groupCtx := errgroup.WithContext(ctx)
	for i := 0; i < w.concurrency; i++ {
		queueName := queueNames[i%len(queueNames)]
		workerID := i + 1

		g.Go(func() error {
			w.logger.Info("revalidation worker started",
				zap.Int("workerId", workerID),
				zap.String("queue", queueName),
			)

			if err := w.consumer.Consume(groupCtx, queueName, w.processMessage); err != nil {
				w.logger.Error("revalidation worker stopped with error",
					zap.Int("workerId", workerID),
					zap.String("queue", queueName),
					zap.Error(err),
				)
				return err
			}

			w.logger.Info("revalidation worker stopped",
				zap.Int("workerId", workerID),
				zap.String("queue", queueName),
			)
			return nil
		})
	}

	return g.Wait()
}

func (w *RevalidationWorker) processMessage(ctx context.Context, msg queue.ChangeMessage) error {
	start := w.now()
	outcome := "ok"
	defer func() {
		w.metrics.ObserveRevalidation(outcome, w.now().Sub(start))
	}()

	if err := w.versions.Bump(ctx, msg.Views...); err != nil {
		outcome = "bump_failed"
		return fmt.Errorf("failed to bump view versions: %w", err)
	}

	if w.revalidator == nil {
		return nil
	}

	if w.rateLimiter != nil {
		if err := w.rateLimiter.Wait(ctx, revalidateRateKey); err != nil {
			outcome = "rate_limited"
			return fmt.Errorf("rate limiter wait failed: %w", err)
		}
	}

	err := w.revalidator.Revalidate(ctx, msg.Views)
	if err == nil {
		return nil
	}

	if revalidate.IsTransient(err) {
		outcome = "transient_error"
		w.logger.Warn("revalidation failed, will retry",
			zap.String("eventId", msg.EventID),
			zap.Strings("views", msg.Views),
			zap.Error(err),
		)
		return err
	}

	outcome = "permanent_error"
	w.logger.Error("revalidation rejected",
		zap.String("eventId", msg.EventID),
		zap.Strings("views", msg.Views),
		zap.Error(err),
	)
	return queue.Permanent(err)
}
