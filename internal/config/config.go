package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/cabindev/sdnfutsal/internal/domain"
	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseDSN          string        `env:"DATABASE_DSN,required=true"`
	RabbitMQURL          string        `env:"RABBITMQ_URL,required=true"`
	RedisURL             string        `env:"REDIS_URL,required=true"`
	JWTSecret            string        `env:"JWT_SECRET,required=true"`
	JWTIssuer            string        `env:"JWT_ISSUER,default=sdnfutsal"`
	RevalidateWebhookURL string        `env:"REVALIDATE_WEBHOOK_URL"`
	RevalidateSecret     string        `env:"REVALIDATE_SECRET"`
	RevalidateRatePerSec int           `env:"REVALIDATE_RATE_PER_SEC,default=10"`
	CancelApprovalPolicy string        `env:"CANCEL_APPROVAL_POLICY,default=keep"`
	RateLimitPerSec      int           `env:"RATE_LIMIT_PER_SEC,default=20"`
	RegistrationLockTTL  time.Duration `env:"REGISTRATION_LOCK_TTL,default=5s"`
	RegistrationLockWait time.Duration `env:"REGISTRATION_LOCK_WAIT,default=3s"`
	WorkerConcurrency    int           `env:"WORKER_CONCURRENCY,default=4"`
	WorkerPrefetch       int           `env:"WORKER_PREFETCH,default=8"`
	OutboxScanInterval   time.Duration `env:"OUTBOX_SCAN_INTERVAL,default=2s"`
	OutboxBatchSize      int           `env:"OUTBOX_BATCH_SIZE,default=100"`
	DatabaseMaxOpenConns int           `env:"DATABASE_MAX_OPEN_CONNS,default=25"`
	DatabaseMaxIdleConns int           `env:"DATABASE_MAX_IDLE_CONNS,default=5"`
	APIPort              int           `env:"API_PORT,default=8080"`
	WorkerMetricsPort    int           `env:"WORKER_METRICS_PORT,default=9091"`
	LogLevel             string        `env:"LOG_LEVEL,default=info"`
}

// LoadDotEnv loads key=value pairs from path into the process environment
// without overriding variables that are already set. A missing file is ignored.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if _, err := domain.ParseCancelApprovalPolicy(cfg.CancelApprovalPolicy); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, fmt.Errorf("failed to load config: JWT_SECRET must not be blank")
	}
	return &cfg, nil
}

func (c *Config) CancelPolicy() domain.CancelApprovalPolicy {
	policy, err := domain.ParseCancelApprovalPolicy(c.CancelApprovalPolicy)
	if err != nil {
		return domain.CancelKeepsApproval
	}
	return policy
}
