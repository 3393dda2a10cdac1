// Package ledger keeps a SQLite audit trail of migration runs and the outcome
// of every file in them. It records history only; nothing is resumed from it.
package ledger

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	pattern     TEXT NOT NULL DEFAULT '',
	results_dir TEXT NOT NULL DEFAULT '',
	started_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	finished_at DATETIME,
	total       INTEGER NOT NULL DEFAULT 0,
	converted   INTEGER NOT NULL DEFAULT 0,
	failed      INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS files (
	run_id    INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	source    TEXT NOT NULL,
	output    TEXT NOT NULL DEFAULT '',
	title     TEXT NOT NULL DEFAULT '',
	slug      TEXT NOT NULL DEFAULT '',
	date      TEXT NOT NULL DEFAULT '',
	checksum  TEXT NOT NULL DEFAULT '',
	status    TEXT NOT NULL,
	error     TEXT NOT NULL DEFAULT '',
	warnings  TEXT NOT NULL DEFAULT '[]',
	UNIQUE(run_id, source)
);

CREATE INDEX IF NOT EXISTS idx_files_run ON files(run_id);
CREATE INDEX IF NOT EXISTS idx_files_output ON files(output);
`

// DB wraps a sql.DB with ledger operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("ledger: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ledger: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ledger: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
