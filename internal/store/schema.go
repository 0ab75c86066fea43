package store

import "fmt"

const currentVersion = 1

func migrate(h *Handle) error {
	rows, err := queryRows(h, "PRAGMA user_version")
	if err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	var version int64
	if len(rows) > 0 {
		version, err = rows[0].Int("user_version")
		if err != nil {
			return fmt.Errorf("read user_version: %w", err)
		}
	}

	if version >= currentVersion {
		return nil
	}

	if err := h.Begin(); err != nil {
		return err
	}
	if version < 1 {
		if err := h.Execute(ddlV1); err != nil {
			h.Rollback()
			return fmt.Errorf("migrate v1: %w", err)
		}
	}
	if err := h.Execute(fmt.Sprintf("PRAGMA user_version = %d", currentVersion)); err != nil {
		h.Rollback()
		return err
	}
	return h.Commit()
}

const ddlV1 = `
CREATE TABLE IF NOT EXISTS focus_sessions (
	id          TEXT PRIMARY KEY,
	started_at  INTEGER NOT NULL,
	ended_at    INTEGER,
	duration    INTEGER NOT NULL DEFAULT 0,
	completed   INTEGER NOT NULL DEFAULT 0,
	mode        TEXT NOT NULL DEFAULT 'focus',
	notes       TEXT,
	CHECK (ended_at IS NULL OR ended_at >= started_at)
);

CREATE INDEX IF NOT EXISTS idx_sessions_started ON focus_sessions(started_at);

CREATE TABLE IF NOT EXISTS achievements (
	id            TEXT PRIMARY KEY,
	title         TEXT NOT NULL,
	description   TEXT NOT NULL DEFAULT '',
	icon          TEXT NOT NULL DEFAULT '',
	type          TEXT NOT NULL,
	progress      REAL NOT NULL DEFAULT 0,
	target        REAL NOT NULL,
	unlocked      INTEGER NOT NULL DEFAULT 0,
	unlocked_date INTEGER
);

CREATE INDEX IF NOT EXISTS idx_achievements_type ON achievements(type);

CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value BLOB NOT NULL
);
`
