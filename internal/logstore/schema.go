// Package logstore loads the productivity log CSV into SQLite and answers
// the aggregate queries the resolver and page assembler need.
package logstore

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS Productivity (
	Date     TEXT NOT NULL DEFAULT '',
	Time     TEXT NOT NULL DEFAULT '',
	Project  TEXT NOT NULL DEFAULT '',
	Task     TEXT NOT NULL DEFAULT '',
	Division TEXT NOT NULL DEFAULT '',
	Details  TEXT NOT NULL DEFAULT ''
) STRICT;

CREATE INDEX IF NOT EXISTS idx_productivity_project ON Productivity(lower(Project));
`

// MemoryDSN opens a private in-memory database.
const MemoryDSN = ":memory:"

// DB wraps a sql.DB holding the Productivity table.
type DB struct {
	conn *sql.DB
	// headerRows leading rows are stored but ignored by aggregates.
	headerRows int
}

// Open opens (or creates) the database and applies the schema. The pool is
// pinned to a single connection so an in-memory database is shared by every
// query.
func Open(dsn string, headerRows int) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("logstore: open db: %w", err)
	}
	conn.SetMaxOpenConns(1)
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("logstore: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("logstore: apply schema: %w", err)
	}
	if headerRows < 0 {
		headerRows = 0
	}
	return &DB{conn: conn, headerRows: headerRows}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
