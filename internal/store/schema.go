package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Every event table carries the global sequence and a UTC timestamp.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS measurements (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		sequence    INTEGER NOT NULL UNIQUE,
		user_id     TEXT NOT NULL DEFAULT '',
		session_id  TEXT NOT NULL,
		case_id     TEXT NOT NULL,
		ear         TEXT NOT NULL,
		transducer  TEXT NOT NULL,
		freq        INTEGER NOT NULL,
		db          INTEGER NOT NULL,
		masked      INTEGER NOT NULL DEFAULT 0,
		mask_level  INTEGER,
		so          INTEGER NOT NULL DEFAULT 0,
		created_at  DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS measurements_session ON measurements (session_id)`,

	`CREATE TABLE IF NOT EXISTS session_events (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		sequence       INTEGER NOT NULL UNIQUE,
		timestamp      DATETIME NOT NULL,
		session_id     TEXT NOT NULL,
		action         TEXT NOT NULL,
		case_id        TEXT NOT NULL DEFAULT '',
		seed           INTEGER NOT NULL DEFAULT 0,
		profile        TEXT NOT NULL DEFAULT '',
		total          INTEGER NOT NULL DEFAULT 0,
		correct        INTEGER NOT NULL DEFAULT 0,
		accuracy       INTEGER NOT NULL DEFAULT 0,
		duration_secs  INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS session_events_session ON session_events (session_id)`,

	`CREATE TABLE IF NOT EXISTS llm_request_events (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		sequence       INTEGER NOT NULL UNIQUE,
		timestamp      DATETIME NOT NULL,
		provider       TEXT NOT NULL,
		model          TEXT NOT NULL,
		purpose        TEXT NOT NULL,
		input_tokens   INTEGER NOT NULL DEFAULT 0,
		output_tokens  INTEGER NOT NULL DEFAULT 0,
		latency_ms     INTEGER NOT NULL DEFAULT 0,
		success        INTEGER NOT NULL,
		error_message  TEXT NOT NULL DEFAULT '',
		request_body   TEXT NOT NULL DEFAULT '',
		response_body  TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS llm_request_events_purpose ON llm_request_events (purpose)`,

	`CREATE TABLE IF NOT EXISTS progress (
		user_id     TEXT PRIMARY KEY,
		data        TEXT NOT NULL,
		updated_at  DATETIME NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS snapshots (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id  TEXT NOT NULL DEFAULT '',
		timestamp   DATETIME NOT NULL,
		data        TEXT NOT NULL
	)`,
}

// columns added after a table first shipped.
var addedColumns = []struct{ table, column, def string }{
	{"snapshots", "session_id", "TEXT NOT NULL DEFAULT ''"},
}

func migrate(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec %.40q: %w", stmt, err)
		}
	}
	for _, c := range addedColumns {
		var n int
		err := db.GetContext(ctx, &n,
			`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`, c.table, c.column)
		if err != nil {
			return fmt.Errorf("inspect %s: %w", c.table, err)
		}
		if n > 0 {
			continue
		}
		if _, err := db.ExecContext(ctx, "ALTER TABLE "+c.table+" ADD COLUMN "+c.column+" "+c.def); err != nil {
			return fmt.Errorf("add %s.%s: %w", c.table, c.column, err)
		}
	}
	if _, err := db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS snapshots_session ON snapshots (session_id)`); err != nil {
		return fmt.Errorf("index snapshots: %w", err)
	}
	return nil
}
