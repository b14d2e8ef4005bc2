package repository

import (
	"database/sql"
	"fmt"
	"log"
	"strings"

	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

// OpenSQLite opens the sales store on SQLite. The pool is capped at a single
// connection: SQLite allows one writer, and the reservation path is
// write-heavy.
func OpenSQLite(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping SQLite: %w", err)
	}

	log.Printf("[SQLite] Sales store opened: %s", dsn)
	return db, nil
}

// isSQLiteUniqueViolation reports whether err comes from a UNIQUE constraint
// or unique index. modernc/sqlite does not export a typed error for this.
func isSQLiteUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE")
}
