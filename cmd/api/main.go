package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/cabindev/sdnfutsal/internal/auth"
	"github.com/cabindev/sdnfutsal/internal/config"
	"github.com/cabindev/sdnfutsal/internal/handler"
	"github.com/cabindev/sdnfutsal/internal/infra/postgresql"
	"github.com/cabindev/sdnfutsal/internal/infra/postgresql/migrations"
	infraredis "github.com/cabindev/sdnfutsal/internal/infra/redis"
	"github.com/cabindev/sdnfutsal/internal/observability"
	"github.com/cabindev/sdnfutsal/internal/repository"
	"github.com/cabindev/sdnfutsal/internal/service"
	"github.com/cabindev/sdnfutsal/internal/transport"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
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

	if err := migrations.Migrate(db); err != nil {
		logger.Fatal("database migrations failed", zap.Error(err))
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

	metrics := observability.NewMetrics()

	locker, err := infraredis.NewRedisLocker(rdb, cfg.RegistrationLockWait)
	if err != nil {
		logger.Fatal("registration lock initialization failed", zap.Error(err))
	}
	registrationLimiter, err := infraredis.NewRedisRateLimiter(rdb, "registrations", cfg.RateLimitPerSec)
	if err != nil {
		logger.Fatal("rate limiter initialization failed", zap.Error(err))
	}
	views, err := infraredis.NewViewVersions(rdb)
	if err != nil {
		logger.Fatal("view version store initialization failed", zap.Error(err))
	}
	verifier, err := auth.NewTokenVerifier(cfg.JWTSecret, cfg.JWTIssuer)
	if err != nil {
		logger.Fatal("token verifier initialization failed", zap.Error(err))
	}

	ledger, err := service.NewLedger(repository.NewGormStore(db), auth.ContextGate{}, service.LedgerOptions{
		Locker:       locker,
		LockTTL:      cfg.RegistrationLockTTL,
		CancelPolicy: cfg.CancelPolicy(),
	}, logger)
	if err != nil {
		logger.Fatal("ledger initialization failed", zap.Error(err))
	}
	ledger.SetMetrics(metrics)

	app := fiber.New(fiber.Config{
		AppName:      "sdnfutsal-api",
		ErrorHandler: transport.ErrorHandler(logger),
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(transport.RequestContext())
	app.Use(metrics.HTTPMiddleware())

	handler.RegisterHealthRoutes(app, handler.PostgresCheck(sqlDB), handler.RedisCheck(rdb))
	handler.RegisterMetricsRoute(app, metrics.Handler())

	app.Use(auth.Middleware(verifier, logger))
	if err := handler.RegisterLedgerRoutes(app, ledger, handler.LedgerRoutesOptions{
		Views:             views,
		RegistrationLimit: registrationLimiter,
		Logger:            logger,
	}); err != nil {
		logger.Fatal("route registration failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("sdnfutsal api started",
			zap.Int("port", cfg.APIPort),
			zap.String("cancelPolicy", string(ledger.CancelPolicy())),
		)
		serverErr <- app.Listen(fmt.Sprintf(":%d", cfg.APIPort))
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("http server stopped", zap.Error(err))
		}
	}

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Error("http server shutdown failed", zap.Error(err))
	}
	logger.Info("sdnfutsal api stopped")
}
