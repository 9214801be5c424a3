package database

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// SchemaVersion is the schema version this build expects. Migrations run in
// strict ascending order until the stored version matches it exactly.
const SchemaVersion uint = 2

//go:embed migrations/*.sql
var migrationFS embed.FS

// RunMigrations brings the database schema up to SchemaVersion.
// An on-disk version newer than SchemaVersion is ErrVersionMismatch; a dirty
// or diverging migration state is ErrMigrationFailed. Both abort startup.
func RunMigrations(db *DB) (uint, error) {
	driver, err := sqlite.WithInstance(db.DB, &sqlite.Config{})
	if err != nil {
		return 0, fmt.Errorf("failed to create sqlite driver: %w", err)
	}

	source, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return 0, fmt.Errorf("failed to create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return 0, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	if err == nil {
		if dirty {
			return version, fmt.Errorf("%w: schema version %d is dirty", ErrMigrationFailed, version)
		}
		if version > SchemaVersion {
			return version, fmt.Errorf("%w: on-disk version %d, expected %d", ErrVersionMismatch, version, SchemaVersion)
		}
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return 0, fmt.Errorf("%w: %v", ErrMigrationFailed, err)
	}

	version, dirty, err = m.Version()
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	if dirty || version != SchemaVersion {
		return version, fmt.Errorf("%w: converged to version %d (dirty=%v), expected %d", ErrMigrationFailed, version, dirty, SchemaVersion)
	}

	return version, nil
}
