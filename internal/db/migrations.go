package db

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// schema holds the migrations in order. PRAGMA user_version records how
// many have been applied, so entries must only ever be appended.
var schema = []string{
	`CREATE TABLE properties (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		owner_id      INTEGER NOT NULL,
		title         TEXT    NOT NULL,
		property_type TEXT    NOT NULL CHECK (property_type IN ('apartment', 'house', 'villa', 'land', 'other')),
		city          TEXT    NOT NULL,
		neighborhood  TEXT,
		address       TEXT,
		area          REAL    NOT NULL CHECK (area > 0),
		price         REAL    NOT NULL CHECK (price > 0),
		bedrooms      INTEGER CHECK (bedrooms IS NULL OR bedrooms >= 0),
		floor         INTEGER,
		year_built    INTEGER,
		parking       BOOLEAN,
		elevator      BOOLEAN,
		storage       BOOLEAN,
		description   TEXT,
		created_at    DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at    DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX idx_properties_owner ON properties(owner_id)`,
	`CREATE TABLE api_keys (
		id           INTEGER  PRIMARY KEY AUTOINCREMENT,
		name         TEXT     NOT NULL,
		key_prefix   TEXT     NOT NULL,
		key_hash     TEXT     NOT NULL UNIQUE,
		owner_id     INTEGER  NOT NULL DEFAULT 0 CHECK (owner_id >= 0),
		created_at   DATETIME DEFAULT CURRENT_TIMESTAMP,
		last_used_at DATETIME
	)`,
}

// SchemaVersion is the user_version of a fully migrated database.
func SchemaVersion() int {
	return len(schema)
}

// migrate applies every migration the database has not seen yet.
func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	if version > len(schema) {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, len(schema))
	}

	for i := version; i < len(schema); i++ {
		if err := apply(db, i+1, schema[i]); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
	}
	return nil
}

// apply runs one migration and bumps user_version in the same transaction.
func apply(db *sql.DB, version int, stmt string) (err error) {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err == nil {
			return
		}
		if rerr := tx.Rollback(); rerr != nil {
			slog.Warn("rolling back migration", "version", version, "error", rerr)
		}
	}()

	if _, err = tx.Exec(stmt); err != nil {
		return err
	}
	// PRAGMA statements take no bind parameters.
	if _, err = tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", version)); err != nil {
		return fmt.Errorf("setting schema version: %w", err)
	}
	return tx.Commit()
}
