package shared

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// MemoryDSN opens a private in-memory SQLite database.
const MemoryDSN = ":memory:"

// NewDatabase opens a connection to a SQLite database at the specified path.
// The path can be ":memory:" for an in-memory database.
func NewDatabase(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// ConfigureDatabase sets connection pool settings for the database.
func ConfigureDatabase(db *sql.DB, maxOpenConns, maxIdleConns int) {
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
}

// NewSessionDatabase opens the migrated in-memory journal database.
//
// Every pooled connection to ":memory:" is a separate database, so the pool is pinned to one connection
// that is never recycled. The data disappears when the process exits.
func NewSessionDatabase() (*sql.DB, error) {
	db, err := NewDatabase(MemoryDSN)
	if err != nil {
		return nil, err
	}

	ConfigureDatabase(db, 1, 1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate session database: %w", err)
	}

	return db, nil
}
