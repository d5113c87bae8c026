package implementations

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/api-sage/backoffice-ledger/src/internal/logger"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// RunMigrations applies every pending up migration found in migrationsDir.
func RunMigrations(db *sql.DB, migrationsDir string) error {
	logger.Info("running migrations", logger.Fields{
		"migrationsDir": migrationsDir,
	})

	absDir, err := filepath.Abs(migrationsDir)
	if err != nil {
		return fmt.Errorf("resolve migrations dir: %w", err)
	}
	sourceURL := url.URL{Scheme: "file", Path: filepath.ToSlash(absDir)}

	driver, err := postgres.WithInstance(db, &postgres.Config{SchemaName: "public"})
	if err != nil {
		logger.Error("create migration driver failed", err, nil)
		return fmt.Errorf("create postgres migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(sourceURL.String(), "postgres", driver)
	if err != nil {
		logger.Error("create migration instance failed", err, nil)
		return fmt.Errorf("create migration instance: %w", err)
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("no new migrations found", nil)
			return nil
		}
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn("no migration files found", logger.Fields{"migrationsDir": absDir})
			return nil
		}

		var dirtyErr migrate.ErrDirty
		if errors.As(err, &dirtyErr) {
			logger.Error("migration left a dirty version", err, logger.Fields{"version": dirtyErr.Version})
			return fmt.Errorf("migration failed: dirty database version %d", dirtyErr.Version)
		}

		logger.Error("migration failed", err, nil)
		return fmt.Errorf("migration failed: %w", err)
	}

	logger.Info("migrations applied", nil)
	return nil
}
