// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"taskpay-engine/pkg/db" // Import db package for its Config struct

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// EngineConfig holds the settlement engine tunables.
type EngineConfig struct {
	// PlatformFeePercent is retained from each campaign unit price; the
	// worker reward is unitPrice * (1 - fee/100).
	PlatformFeePercent decimal.Decimal
	// AutoApproveWindow is how long a pending free-text submission may sit
	// unrejected before it resolves approved.
	AutoApproveWindow time.Duration
	// SweepSpec is the cron spec for the auto-approve sweep.
	SweepSpec string
	// NotifyBuffer is the balance-change notification channel capacity.
	NotifyBuffer int
}

// AppConfig holds all application-wide configurations.
type AppConfig struct {
	ServerPort string
	DB         db.Config
	Engine     EngineConfig
}

// LoadConfig loads configuration from the environment, reading an optional
// .env file first. It returns an AppConfig instance or an error if any
// variable is invalid.
func LoadConfig() (*AppConfig, error) {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	serverPort := envOr("SERVER_PORT", "8080")

	dbHost := envOr("DB_HOST", "localhost")
	dbPort, err := strconv.Atoi(envOr("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	dbUser := envOr("DB_USER", "user")
	dbPassword := envOr("DB_PASSWORD", "password")
	dbName := envOr("DB_NAME", "taskpaydb")
	dbSSLMode := envOr("DB_SSLMODE", "disable")

	feePercent, err := decimal.NewFromString(envOr("PLATFORM_FEE_PERCENT", "20"))
	if err != nil {
		return nil, fmt.Errorf("invalid PLATFORM_FEE_PERCENT: %w", err)
	}
	if feePercent.IsNegative() || feePercent.GreaterThanOrEqual(decimal.NewFromInt(100)) {
		return nil, fmt.Errorf("PLATFORM_FEE_PERCENT must be in [0, 100): got %s", feePercent)
	}

	autoApprove, err := time.ParseDuration(envOr("AUTO_APPROVE_WINDOW", "48h"))
	if err != nil {
		return nil, fmt.Errorf("invalid AUTO_APPROVE_WINDOW: %w", err)
	}

	notifyBuffer, err := strconv.Atoi(envOr("NOTIFY_BUFFER", "256"))
	if err != nil {
		return nil, fmt.Errorf("invalid NOTIFY_BUFFER: %w", err)
	}

	return &AppConfig{
		ServerPort: serverPort,
		DB: db.Config{
			Host:     dbHost,
			Port:     dbPort,
			User:     dbUser,
			Password: dbPassword,
			DBName:   dbName,
			SSLMode:  dbSSLMode,
		},
		Engine: EngineConfig{
			PlatformFeePercent: feePercent,
			AutoApproveWindow:  autoApprove,
			SweepSpec:          envOr("SWEEP_SPEC", "@every 1m"),
			NotifyBuffer:       notifyBuffer,
		},
	}, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
