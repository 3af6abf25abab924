// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens SQL databases and creates the ChainElect schema.

# Drivers

	conn, err := db.Open("postgres", "postgres://...")  // github.com/lib/pq
	conn, err := db.Open("sqlite", "file:chainelect.db") // modernc.org/sqlite

SQLite pools are limited to one open connection.

# Schema Creation

	err := db.CreateSchema(conn)

Uses CREATE TABLE IF NOT EXISTS, safe to call on every startup.

# Tables

  - election: clock state, duration and last event sequence per election
  - election_admin: admin registry, (election_id, address) primary key
  - candidate: candidate ledger with vote counters, (election_id, id) primary key
  - vote_record: one row per voter per election for the current cycle
  - election_event: append-only journal, unique (election_id, seq)
  - voter: registered voters with bcrypt password hashes

All timestamps are Unix seconds.
*/
package db
