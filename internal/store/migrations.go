package store

import "fmt"

// migrations are applied in order. The database records how many have run
// in PRAGMA user_version; append new steps, never edit old ones.
var migrations = []string{
	// 1: one row per run of the reactor loop
	`CREATE TABLE sessions (
		id TEXT PRIMARY KEY,
		camera_id INTEGER NOT NULL,
		started_at DATETIME NOT NULL,
		ended_at DATETIME
	)`,

	// 2: every label switch accepted by the debouncer
	`CREATE TABLE emote_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		label TEXT NOT NULL CHECK(label IN ('neutral', 'king_laughing', 'jawline', 'goblin_crying', 'six_seven')),
		previous_label TEXT NOT NULL,
		switched_at DATETIME NOT NULL,
		metrics TEXT NOT NULL DEFAULT '{}'
	)`,

	// 3 and 4: lookups by session and by time
	`CREATE INDEX idx_emote_events_session_id ON emote_events(session_id)`,
	`CREATE INDEX idx_emote_events_switched_at ON emote_events(switched_at)`,
}

// SchemaVersion is the user_version of a fully migrated database.
var SchemaVersion = len(migrations)

// Version returns the schema version recorded in the database.
func (s *Store) Version() (int, error) {
	var v int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&v); err != nil {
		return 0, err
	}
	return v, nil
}

// migrate runs every step past the recorded version, each in its own
// transaction together with the version bump.
func (s *Store) migrate() error {
	current, err := s.Version()
	if err != nil {
		return err
	}
	if current > len(migrations) {
		return fmt.Errorf("database schema version %d is newer than this build (%d)", current, len(migrations))
	}

	for i := current; i < len(migrations); i++ {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(migrations[i]); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
		// PRAGMA does not take bind parameters
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", i+1)); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
	}

	return nil
}
