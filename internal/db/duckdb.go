// Package db owns the process-wide in-memory DuckDB connection used to scan
// sidecar files in bulk.
package db

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/marcboeker/go-duckdb"
)

var (
	dbInstance *sql.DB
	dbOnce     sync.Once
	dbErr      error
)

func GetDB() (*sql.DB, error) {
	dbOnce.Do(func() {
		dbInstance, dbErr = Open()
	})
	return dbInstance, dbErr
}

// Open creates a fresh in-memory database with the JSON extension loaded.
// The extension is installed only when it is not already available, so an
// offline machine with a bundled extension still works.
func Open() (*sql.DB, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("failed to open DuckDB: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("LOAD json"); err != nil {
		if _, err := db.Exec("INSTALL json"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to install JSON extension: %w", err)
		}
		if _, err := db.Exec("LOAD json"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to load JSON extension: %w", err)
		}
	}

	return db, nil
}
