package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_DSN", "")
	t.Setenv("OTP_THRESHOLD", "")
	t.Setenv("SWEEP_INTERVAL", "")
	t.Setenv("STORAGE", "")
	t.Setenv("SWEEP_WORKERS", "")
	t.Setenv("DB_MAX_OPEN_CONNS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoragePostgres, cfg.Storage)
	assert.True(t, cfg.OTPThreshold.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, time.Minute, cfg.SweepInterval)
	assert.Equal(t, defaultSweepWorkers+httpConnHeadroom, cfg.DBMaxOpenConns)
	assert.True(t, cfg.Limits.DailyTransferLimit.Equal(decimal.NewFromInt(25000)))
	assert.Contains(t, cfg.DatabaseDSN, "dbname=backoffice_ledger_db")
	assert.Contains(t, cfg.DatabaseDSN, "sslmode=disable")
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("SWEEP_INTERVAL", "soon")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("SWEEP_INTERVAL", "")
	t.Setenv("OTP_THRESHOLD", "-1")
	_, err = Load()
	require.Error(t, err)

	t.Setenv("OTP_THRESHOLD", "")
	t.Setenv("DB_MAX_OPEN_CONNS", "0")
	_, err = Load()
	require.ErrorContains(t, err, "DB_MAX_OPEN_CONNS")
}

func TestNormalizeConnectionString(t *testing.T) {
	got := normalizeConnectionString("Host=db;Port=5432;Database=ledger;Username=app;Password=x;CommandTimeout=30;SslMode=require")
	assert.Equal(t, "host=db port=5432 dbname=ledger user=app password=x statement_timeout=30s sslmode=require", got)

	url := "postgres://app:x@db:5432/ledger?sslmode=disable"
	assert.Equal(t, url, normalizeConnectionString(url))
}
