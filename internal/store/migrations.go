package store

import (
	"fmt"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "recommendations: AI-generated suggestions awaiting a decision",
		SQL: `
CREATE TABLE recommendations (
    id                   TEXT PRIMARY KEY,
    module               TEXT NOT NULL,
    title                TEXT NOT NULL,
    summary              TEXT NOT NULL DEFAULT '',
    why                  TEXT NOT NULL DEFAULT '',
    confidence           TEXT NOT NULL CHECK (confidence IN ('low', 'medium', 'high')),
    evidence             TEXT NOT NULL DEFAULT '[]',
    status               TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'accepted', 'declined', 'expired')),
    counts_against_limit INTEGER NOT NULL DEFAULT 1,
    opened_at            INTEGER,
    created_at           INTEGER NOT NULL,
    expires_at           INTEGER NOT NULL,
    resolved_at          INTEGER,

    CHECK (expires_at > created_at)
);

CREATE INDEX idx_recs_status  ON recommendations(status);
CREATE INDEX idx_recs_module  ON recommendations(module);
CREATE INDEX idx_recs_expires ON recommendations(expires_at);
`,
	},
	{
		Version:     2,
		Description: "ai_limits: singleton decision quota for the current window",
		SQL: `
CREATE TABLE ai_limits (
    id              INTEGER PRIMARY KEY CHECK (id = 1),
    total           INTEGER NOT NULL,
    used            INTEGER NOT NULL DEFAULT 0,
    next_refresh_at INTEGER NOT NULL,

    CHECK (used >= 0 AND used <= total)
);
`,
	},
	{
		Version:     3,
		Description: "decisions: append-only accept/decline ledger",
		SQL: `
CREATE TABLE decisions (
    id                TEXT PRIMARY KEY,
    recommendation_id TEXT NOT NULL,
    decision          TEXT NOT NULL CHECK (decision IN ('accepted', 'declined')),
    decided_at        INTEGER NOT NULL,

    FOREIGN KEY (recommendation_id) REFERENCES recommendations(id)
);

CREATE UNIQUE INDEX idx_decisions_rec ON decisions(recommendation_id);
CREATE INDEX idx_decisions_decided    ON decisions(decided_at DESC);
`,
	},
	{
		Version:     4,
		Description: "history_log: append-only human-readable activity log",
		SQL: `
CREATE TABLE history_log (
    id         INTEGER PRIMARY KEY,
    message    TEXT NOT NULL,
    type       TEXT NOT NULL CHECK (type IN ('recommendation', 'system', 'archived', 'banked', 'deprecated')),
    metadata   TEXT,
    created_at INTEGER NOT NULL
);

CREATE INDEX idx_history_created ON history_log(created_at DESC);
`,
	},
}

func (db *DB) migrate() error {
	// Create schema_versions table if it doesn't exist
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	return version, err
}
