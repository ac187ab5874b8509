// Package config loads service configuration from environment variables,
// optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
	"txguard/internal/risk"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	// Server
	HTTPAddr        string
	MetricsAddr     string
	Env             string // "development", "staging", "production"
	LogLevel        string
	LogFormat       string // "json" or "text"
	ShutdownTimeout time.Duration

	// Storage. Both are optional; in-memory implementations are used when empty.
	DatabaseURL   string
	AutoMigrate   bool
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Tracing, disabled when empty
	OTLPEndpoint     string
	TraceSampleRatio float64

	// Approval tokens
	ApprovalSecret   string
	ApprovalTokenTTL time.Duration

	// Account lock
	LockTTL  time.Duration
	LockWait time.Duration

	// History snapshot
	HistoryLookback time.Duration
	HistoryLimit    int

	// Risk tunables
	MFAAmountThreshold  decimal.Decimal
	UnusualHourStart    int
	UnusualHourEnd      int
	AmountMultiplier    decimal.Decimal
	PatternTolerance    decimal.Decimal
	PatternMinMatches   int
	EnforcePeriodLimits bool

	NotificationWorkers int
}

const (
	DefaultHTTPAddr       = ":8080"
	DefaultMetricsAddr    = ":9090"
	DefaultEnv            = "development"
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "json"
	devApprovalSecret     = "dev-approval-secret-change-me"
	minApprovalSecretSize = 32
)

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	defaults := risk.DefaultVerifierConfig()

	cfg := &Config{
		HTTPAddr:        getEnv("HTTP_ADDR", DefaultHTTPAddr),
		MetricsAddr:     getEnv("METRICS_ADDR", DefaultMetricsAddr),
		Env:             getEnv("ENV", DefaultEnv),
		LogLevel:        getEnv("LOG_LEVEL", DefaultLogLevel),
		LogFormat:       getEnv("LOG_FORMAT", DefaultLogFormat),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		DatabaseURL:   os.Getenv("DATABASE_URL"),
		AutoMigrate:   getEnvBool("DB_AUTO_MIGRATE", false),
		RedisHost:     os.Getenv("REDIS_HOST"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		OTLPEndpoint:     os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		TraceSampleRatio: getEnvDecimal("TRACE_SAMPLE_RATIO", decimal.NewFromInt(1)).InexactFloat64(),

		ApprovalSecret:   os.Getenv("APPROVAL_SECRET"),
		ApprovalTokenTTL: getEnvDuration("APPROVAL_TOKEN_TTL", 15*time.Minute),

		LockTTL:  getEnvDuration("LOCK_TTL", 10*time.Second),
		LockWait: getEnvDuration("LOCK_WAIT", 2*time.Second),

		HistoryLookback: getEnvDuration("HISTORY_LOOKBACK", 32*24*time.Hour),
		HistoryLimit:    getEnvInt("HISTORY_LIMIT", 1000),

		MFAAmountThreshold:  getEnvDecimal("MFA_AMOUNT_THRESHOLD", defaults.MFAAmountThreshold),
		UnusualHourStart:    getEnvInt("UNUSUAL_HOUR_START", defaults.Detector.UnusualHourStart),
		UnusualHourEnd:      getEnvInt("UNUSUAL_HOUR_END", defaults.Detector.UnusualHourEnd),
		AmountMultiplier:    getEnvDecimal("AMOUNT_MULTIPLIER", defaults.Detector.AmountMultiplier),
		PatternTolerance:    getEnvDecimal("PATTERN_TOLERANCE", defaults.Detector.PatternTolerance),
		PatternMinMatches:   getEnvInt("PATTERN_MIN_MATCHES", defaults.Detector.PatternMinMatches),
		EnforcePeriodLimits: getEnvBool("ENFORCE_PERIOD_LIMITS", false),

		NotificationWorkers: getEnvInt("NOTIFICATION_WORKERS", 4),
	}

	if cfg.ApprovalSecret == "" && !cfg.IsProduction() {
		cfg.ApprovalSecret = devApprovalSecret
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.ApprovalSecret == "" {
		errs = append(errs, errors.New("APPROVAL_SECRET is required"))
	} else if c.IsProduction() && len(c.ApprovalSecret) < minApprovalSecretSize {
		errs = append(errs, fmt.Errorf("APPROVAL_SECRET must be at least %d bytes in production", minApprovalSecretSize))
	}

	if c.UnusualHourStart < 0 || c.UnusualHourEnd > 24 || c.UnusualHourStart > c.UnusualHourEnd {
		errs = append(errs, fmt.Errorf("unusual hour window [%d,%d) is invalid", c.UnusualHourStart, c.UnusualHourEnd))
	}
	if !c.AmountMultiplier.IsPositive() {
		errs = append(errs, errors.New("AMOUNT_MULTIPLIER must be positive"))
	}
	if c.PatternTolerance.IsNegative() {
		errs = append(errs, errors.New("PATTERN_TOLERANCE must not be negative"))
	}
	if c.PatternMinMatches < 1 {
		errs = append(errs, errors.New("PATTERN_MIN_MATCHES must be at least 1"))
	}
	if c.MFAAmountThreshold.IsNegative() {
		errs = append(errs, errors.New("MFA_AMOUNT_THRESHOLD must not be negative"))
	}
	if c.HistoryLookback < 24*time.Hour {
		errs = append(errs, errors.New("HISTORY_LOOKBACK must cover at least one day"))
	}
	if c.EnforcePeriodLimits && c.HistoryLookback < 31*24*time.Hour {
		errs = append(errs, errors.New("HISTORY_LOOKBACK must cover a month when ENFORCE_PERIOD_LIMITS is set"))
	}
	if c.LockTTL <= 0 || c.LockWait <= 0 {
		errs = append(errs, errors.New("LOCK_TTL and LOCK_WAIT must be positive"))
	}
	if c.TraceSampleRatio < 0 || c.TraceSampleRatio > 1 {
		errs = append(errs, errors.New("TRACE_SAMPLE_RATIO must be between 0 and 1"))
	}
	if c.NotificationWorkers < 1 {
		errs = append(errs, errors.New("NOTIFICATION_WORKERS must be at least 1"))
	}

	return errors.Join(errs...)
}

// VerifierConfig maps the risk tunables onto the verifier's configuration.
func (c *Config) VerifierConfig() risk.VerifierConfig {
	return risk.VerifierConfig{
		Detector: risk.DetectorConfig{
			UnusualHourStart:  c.UnusualHourStart,
			UnusualHourEnd:    c.UnusualHourEnd,
			AmountMultiplier:  c.AmountMultiplier,
			PatternTolerance:  c.PatternTolerance,
			PatternMinMatches: c.PatternMinMatches,
		},
		MFAAmountThreshold:  c.MFAAmountThreshold,
		EnforcePeriodLimits: c.EnforcePeriodLimits,
	}
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
	}
	return defaultValue
}
