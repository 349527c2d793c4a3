package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cabindev/sdnfutsal/internal/config"
	"github.com/cabindev/sdnfutsal/internal/handler"
	"github.com/cabindev/sdnfutsal/internal/infra/postgresql"
	infraredis "github.com/cabindev/sdnfutsal/internal/infra/redis"
	"github.com/cabindev/sdnfutsal/internal/observability"
	"github.com/cabindev/sdnfutsal/internal/queue"
	"github.com/cabindev/sdnfutsal/internal/repository"
	"github.com/cabindev/sdnfutsal/internal/revalidate"
	"github.com/cabindev/sdnfutsal/internal/service"
	"github.com/cabindev/sdnfutsal/internal/transport"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Fatalf("failed to load .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	db, err := postgresql.NewPostgres(cfg.DatabaseDSN, &postgresql.PoolConfig{
		MaxOpenConns:    cfg.DatabaseMaxOpenConns,
		MaxIdleConns:    cfg.DatabaseMaxIdleConns,
		ConnMaxLifetime: time.Hour,
	})
	if err != nil {
		logger.Fatal("postgres initialization failed", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("postgres underlying db init failed", zap.Error(err))
	}
	defer sqlDB.Close()

	rdb, err := infraredis.NewRedis(cfg.RedisURL)
	if err != nil {
		logger.Fatal("redis initialization failed", zap.Error(err))
	}
	defer rdb.Close()

	rabbit, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
	if err != nil {
		logger.Fatal("rabbitmq initialization failed", zap.Error(err))
	}
	defer rabbit.Close()

	publisher := queue.NewRabbitMQPublisher(rabbit)
	defer publisher.Close()
	consumer := queue.NewRabbitMQConsumer(rabbit, cfg.WorkerPrefetch, logger)
	defer consumer.Close()

	metrics := observability.NewMetrics()

	relay, err := service.NewOutboxRelay(
		repository.NewGormStore(db),
		publisher,
		cfg.OutboxScanInterval,
		cfg.OutboxBatchSize,
		logger,
	)
	if err != nil {
		logger.Fatal("outbox relay initialization failed", zap.Error(err))
	}
	relay.SetMetrics(metrics)

	views, err := infraredis.NewViewVersions(rdb)
	if err != nil {
		logger.Fatal("view version store initialization failed", zap.Error(err))
	}

	var revalidator revalidate.Revalidator
	if strings.TrimSpace(cfg.RevalidateWebhookURL) != "" {
		webhook, err := revalidate.NewWebhookRevalidator(cfg.RevalidateWebhookURL, cfg.RevalidateSecret)
		if err != nil {
			logger.Fatal("revalidation webhook initialization failed", zap.Error(err))
		}
		revalidator = webhook
	} else {
		logger.Info("REVALIDATE_WEBHOOK_URL not set, only view versions will be bumped")
	}

	webhookLimiter, err := infraredis.NewRedisRateLimiter(rdb, "revalidate", cfg.RevalidateRatePerSec)
	if err != nil {
		logger.Fatal("rate limiter initialization failed", zap.Error(err))
	}

	worker, err := service.NewRevalidationWorker(consumer, views, revalidator, webhookLimiter, cfg.WorkerConcurrency, logger)
	if err != nil {
		logger.Fatal("revalidation worker initialization failed", zap.Error(err))
	}
	worker.SetMetrics(metrics)

	ops := fiber.New(fiber.Config{
		AppName:               "sdnfutsal-worker",
		ErrorHandler:          transport.ErrorHandler(logger),
		DisableStartupMessage: true,
	})
	handler.RegisterHealthRoutes(ops,
		handler.PostgresCheck(sqlDB),
		handler.RedisCheck(rdb),
		handler.ReadinessCheck{Name: "rabbitmq", Ping: rabbit.Ping},
	)
	handler.RegisterMetricsRoute(ops, metrics.Handler())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, groupCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return relay.Start(groupCtx)
	})
	g.Go(func() error {
		return worker.Start(groupCtx)
	})
	g.Go(func() error {
		return ops.Listen(fmt.Sprintf(":%d", cfg.WorkerMetricsPort))
	})
	g.Go(func() error {
		<-groupCtx.Done()
		return ops.ShutdownWithTimeout(shutdownTimeout)
	})

	logger.Info("sdnfutsal worker started",
		zap.Int("concurrency", cfg.WorkerConcurrency),
		zap.Int("metricsPort", cfg.WorkerMetricsPort),
		zap.Bool("webhook", revalidator != nil),
	)

	if err := g.Wait(); err != nil {
		logger.Error("worker stopped with error", zap.Error(err))
	}
	logger.Info("sdnfutsal worker stopped")
}
