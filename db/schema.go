// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Open connects to a postgres or sqlite database and verifies the connection
func Open(dbType, url string) (*sql.DB, error) {
	var driver string
	switch dbType {
	case "postgres":
		driver = "postgres"
	case "sqlite":
		driver = "sqlite"
	default:
		return nil, fmt.Errorf("unsupported database type %q", dbType)
	}

	conn, err := sql.Open(driver, url)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", dbType, err)
	}

	// SQLite allows one writer; serialise at the pool instead of retrying SQLITE_BUSY
	if driver == "sqlite" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", dbType, err)
	}
	return conn, nil
}

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Timestamps are Unix seconds in BIGINT columns and flags are 0/1 INTEGERs
// so the same statements run on postgres and sqlite.
const schema = `
-- Elections
CREATE TABLE IF NOT EXISTS election (
    id TEXT PRIMARY KEY,
    deployer TEXT NOT NULL,
    duration_seconds BIGINT NOT NULL CHECK (duration_seconds > 0),
    started INTEGER NOT NULL DEFAULT 0,
    ended INTEGER NOT NULL DEFAULT 0,
    start_time BIGINT NOT NULL DEFAULT 0,
    end_time BIGINT NOT NULL DEFAULT 0,
    last_seq BIGINT NOT NULL DEFAULT 0,
    created_at BIGINT NOT NULL
);

-- Admin registry
CREATE TABLE IF NOT EXISTS election_admin (
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    address TEXT NOT NULL,
    added_at BIGINT NOT NULL,
    PRIMARY KEY (election_id, address)
);

-- Candidate ledger
CREATE TABLE IF NOT EXISTS candidate (
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    id INTEGER NOT NULL CHECK (id >= 1),
    name TEXT NOT NULL,
    vote_count BIGINT NOT NULL DEFAULT 0 CHECK (vote_count >= 0),
    PRIMARY KEY (election_id, id)
);

-- Vote ledger (current cycle only)
CREATE TABLE IF NOT EXISTS vote_record (
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    voter TEXT NOT NULL,
    candidate_id INTEGER NOT NULL,
    cast_at BIGINT NOT NULL,
    PRIMARY KEY (election_id, voter)
);

-- Event journal
CREATE TABLE IF NOT EXISTS election_event (
    id TEXT PRIMARY KEY,
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    seq BIGINT NOT NULL,
    kind TEXT NOT NULL,
    actor TEXT NOT NULL,
    subject TEXT NOT NULL DEFAULT '',
    candidate_id INTEGER NOT NULL DEFAULT 0,
    end_time BIGINT NOT NULL DEFAULT 0,
    created_at BIGINT NOT NULL,
    UNIQUE (election_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_election_event_seq ON election_event(election_id, seq);

-- Registered voters
CREATE TABLE IF NOT EXISTS voter (
    voter_id TEXT PRIMARY KEY,
    address TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    key_secret TEXT NOT NULL DEFAULT '',
    created_at BIGINT NOT NULL
);
`
