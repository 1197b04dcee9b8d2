package repository

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// RunMigrations brings the report schema up to date. A dirty schema left by
// an interrupted run is forced back one version and migrated again.
func RunMigrations(databaseURL string, logger *zap.Logger) error {
	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, databaseURL)
	if err != nil {
		return fmt.Errorf("create migration instance: %w", err)
	}
	defer m.Close()

	err = up(m)

	var dirtyErr migrate.ErrDirty
	if errors.As(err, &dirtyErr) {
		forceVersion := max(dirtyErr.Version-1, 0)
		logger.Warn("schema is dirty, forcing previous version",
			zap.Int("dirty_version", dirtyErr.Version),
			zap.Int("force_version", forceVersion),
		)

		if ferr := m.Force(forceVersion); ferr != nil {
			return fmt.Errorf("force clean migration version %d: %w", forceVersion, ferr)
		}
		err = up(m)
	}
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	if version, dirty, verr := m.Version(); verr == nil {
		logger.Info("report schema ready", zap.Uint("version", version), zap.Bool("dirty", dirty))
	}

	return nil
}

func up(m *migrate.Migrate) error {
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
