package database

import (
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// DB wraps the single SQLite connection. The embedded mutex serializes
// composite write sequences (insert media + advance watermark and the like);
// plain reads go through the driver unlocked.
type DB struct {
	*sql.DB
	mu sync.Mutex
}

// NewConnection opens the catalog database at the given path.
func NewConnection(path string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps the writer serialized at the driver level too.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db}, nil
}

// Lock acquires the serialized-writer lock. Every write sequence that must
// be atomic runs between Lock and Unlock.
func (db *DB) Lock() {
	db.mu.Lock()
}

// Unlock releases the serialized-writer lock.
func (db *DB) Unlock() {
	db.mu.Unlock()
}
