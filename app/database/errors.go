package database

import "errors"

var (
	// ErrNotFound signals a stale identity reference: the (channel, link)
	// key no longer matches exactly one row. Callers must reload.
	ErrNotFound = errors.New("record not found")

	// ErrVersionMismatch is returned when the on-disk schema version is
	// newer than this build expects. Fatal at startup.
	ErrVersionMismatch = errors.New("database schema version is newer than expected")

	// ErrMigrationFailed is returned when a migration step did not
	// converge to the exact target version. Fatal at startup.
	ErrMigrationFailed = errors.New("database migration failed")
)
