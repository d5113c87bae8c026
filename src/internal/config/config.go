package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const defaultConnectionString = "Host=localhost;Port=5432;Database=backoffice_ledger_db;Username=postgres;Password=postgres;Timeout=30;CommandTimeout=30"
const defaultHTTPAddr = ":8080"
const defaultChannelID = "BackOffice"
const defaultChannelKey = "BackOfficeKey001"
const defaultNotificationChannel = "ledger.notifications"
const defaultOTPThreshold = "1000"
const defaultSweepInterval = time.Minute
const defaultSweepWorkers = 4

// httpConnHeadroom is added to the sweep workers when sizing the default
// database pool.
const httpConnHeadroom = 16

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type LimitDefaults struct {
	MaxTransactionAmount decimal.Decimal
	DailyTransferLimit   decimal.Decimal
	DailyWithdrawalLimit decimal.Decimal
	CheckingDailyLimit   decimal.Decimal
	SavingsDailyLimit    decimal.Decimal
	InvestmentDailyLimit decimal.Decimal
}

type Config struct {
	Storage             string
	DatabaseDSN         string
	MigrationsDir       string
	HTTPAddr            string
	ChannelID           string
	ChannelKey          string
	RedisAddr           string
	NotificationChannel string
	OTPThreshold        decimal.Decimal
	SweepInterval       time.Duration
	SweepWorkers        int
	DBMaxOpenConns      int
	Limits              LimitDefaults
}

func Load() (Config, error) {
	conn := envOrDefault("DATABASE_DSN", defaultConnectionString)

	otpThreshold, err := decimalEnv("OTP_THRESHOLD", defaultOTPThreshold)
	if err != nil {
		return Config{}, err
	}

	sweepInterval := defaultSweepInterval
	if raw := strings.TrimSpace(os.Getenv("SWEEP_INTERVAL")); raw != "" {
		sweepInterval, err = time.ParseDuration(raw)
		if err != nil || sweepInterval <= 0 {
			return Config{}, fmt.Errorf("SWEEP_INTERVAL must be a positive duration: %q", raw)
		}
	}

	sweepWorkers, err := positiveIntEnv("SWEEP_WORKERS", defaultSweepWorkers)
	if err != nil {
		return Config{}, err
	}

	dbMaxOpenConns, err := positiveIntEnv("DB_MAX_OPEN_CONNS", sweepWorkers+httpConnHeadroom)
	if err != nil {
		return Config{}, err
	}

	limits, err := loadLimitDefaults()
	if err != nil {
		return Config{}, err
	}

	storage := strings.ToLower(envOrDefault("STORAGE", StoragePostgres))
	if storage != StoragePostgres && storage != StorageMemory {
		return Config{}, fmt.Errorf("STORAGE must be %q or %q", StoragePostgres, StorageMemory)
	}

	return Config{
		Storage:             storage,
		DatabaseDSN:         normalizeConnectionString(conn),
		MigrationsDir:       envOrDefault("MIGRATIONS_DIR", "src/migrations"),
		HTTPAddr:            envOrDefault("HTTP_ADDR", defaultHTTPAddr),
		ChannelID:           envOrDefault("CHANNEL_ID", defaultChannelID),
		ChannelKey:          envOrDefault("CHANNEL_KEY", defaultChannelKey),
		RedisAddr:           strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		NotificationChannel: envOrDefault("NOTIFICATION_CHANNEL", defaultNotificationChannel),
		OTPThreshold:        otpThreshold,
		SweepInterval:       sweepInterval,
		SweepWorkers:        sweepWorkers,
		DBMaxOpenConns:      dbMaxOpenConns,
		Limits:              limits,
	}, nil
}

func loadLimitDefaults() (LimitDefaults, error) {
	var (
		out LimitDefaults
		err error
	)

	fields := []struct {
		key      string
		fallback string
		target   *decimal.Decimal
	}{
		{"DEFAULT_MAX_TRANSACTION_AMOUNT", "10000", &out.MaxTransactionAmount},
		{"DEFAULT_DAILY_TRANSFER_LIMIT", "25000", &out.DailyTransferLimit},
		{"DEFAULT_DAILY_WITHDRAWAL_LIMIT", "5000", &out.DailyWithdrawalLimit},
		{"DEFAULT_CHECKING_DAILY_LIMIT", "10000", &out.CheckingDailyLimit},
		{"DEFAULT_SAVINGS_DAILY_LIMIT", "5000", &out.SavingsDailyLimit},
		{"DEFAULT_INVESTMENT_DAILY_LIMIT", "5000", &out.InvestmentDailyLimit},
	}
	for _, f := range fields {
		*f.target, err = decimalEnv(f.key, f.fallback)
		if err != nil {
			return LimitDefaults{}, err
		}
	}

	return out, nil
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func positiveIntEnv(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return 0, fmt.Errorf("%s must be a positive integer: %q", key, raw)
	}
	return value, nil
}

func decimalEnv(key string, fallback string) (decimal.Decimal, error) {
	raw := envOrDefault(key, fallback)
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s must be numeric: %w", key, err)
	}
	if value.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s cannot be negative", key)
	}
	return value, nil
}

func normalizeConnectionString(raw string) string {
	if strings.HasPrefix(raw, "postgres://") || strings.HasPrefix(raw, "postgresql://") {
		return raw
	}

	parts := strings.Split(raw, ";")
	out := make([]string, 0, len(parts))
	hasSSLMode := false

	for _, part := range parts {
		p := strings.TrimSpace(part)
		if p == "" {
			continue
		}

		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}

		key := strings.ToLower(strings.TrimSpace(kv[0]))
		val := strings.TrimSpace(kv[1])

		switch key {
		case "host":
			out = append(out, "host="+val)
		case "port":
			out = append(out, "port="+val)
		case "database":
			out = append(out, "dbname="+val)
		case "username":
			out = append(out, "user="+val)
		case "password":
			out = append(out, "password="+val)
		case "timeout", "connect timeout":
			out = append(out, "connect_timeout="+val)
		case "commandtimeout", "command timeout":
			out = append(out, "statement_timeout="+val+"s")
		case "sslmode":
			hasSSLMode = true
			out = append(out, "sslmode="+val)
		default:
			out = append(out, key+"="+val)
		}
	}

	if len(out) == 0 {
		return raw
	}

	if !hasSSLMode {
		out = append(out, "sslmode=disable")
	}

	return strings.Join(out, " ")
}
