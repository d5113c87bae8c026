package implementations

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/api-sage/backoffice-ledger/src/internal/logger"
	_ "github.com/lib/pq"
)

// Open connects to Postgres with a pool of maxOpenConns. Posting, limit
// reservation and each sweep worker hold one connection per storage
// transaction, so the pool must cover the sweep workers plus HTTP traffic.
func Open(ctx context.Context, dsn string, maxOpenConns int) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(max(2, maxOpenConns/2))
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(15 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	logger.Info("postgres pool ready", logger.Fields{
		"maxOpenConns": maxOpenConns,
	})
	return db, nil
}
