package state

import (
	"database/sql"
)

const currentSchemaVersion = 3

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);

		CREATE TABLE IF NOT EXISTS session_state (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			current_index INTEGER NOT NULL DEFAULT -1,
			current_track_id TEXT NOT NULL DEFAULT '',
			repeat_mode INTEGER NOT NULL DEFAULT 0,
			shuffle INTEGER NOT NULL DEFAULT 0,
			volume REAL NOT NULL DEFAULT 1.0
		);

		CREATE TABLE IF NOT EXISTS queue_tracks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			position INTEGER NOT NULL,
			track_id TEXT NOT NULL,
			title TEXT NOT NULL,
			artist_id TEXT,
			media_uri TEXT NOT NULL,
			artwork_uri TEXT,
			duration_ms INTEGER,
			UNIQUE(position)
		);

		CREATE INDEX IF NOT EXISTS idx_queue_tracks_position ON queue_tracks(position);

		-- Per-user, per-ad, per-day play counts. Prior-day rows become
		-- irrelevant when the day key rolls over; they are not purged.
		CREATE TABLE IF NOT EXISTS ad_ledger (
			user_id TEXT NOT NULL,
			ad_id TEXT NOT NULL,
			day TEXT NOT NULL,
			play_count INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (user_id, ad_id, day)
		);
	`)
	if err != nil {
		return err
	}

	// Set initial version if not exists
	_, err = db.Exec(`
		INSERT OR IGNORE INTO schema_version (version) VALUES (?)
	`, currentSchemaVersion)
	if err != nil {
		return err
	}

	// Migrations: add columns missing from older databases
	_, _ = db.Exec(`ALTER TABLE session_state ADD COLUMN volume REAL NOT NULL DEFAULT 1.0`)
	_, _ = db.Exec(`ALTER TABLE session_state ADD COLUMN current_track_id TEXT NOT NULL DEFAULT ''`)

	return nil
}
