// Copyright (c) 2026 The ballotcore Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application and seeds the
// settings singleton. Safe to call multiple times - uses IF NOT EXISTS.
// The SQL is kept portable between SQLite (dev/test) and PostgreSQL.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO settings (id, is_active, registration_open, min_voting_age)
		VALUES (1, FALSE, TRUE, 18)
		ON CONFLICT (id) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("failed to seed settings: %w", err)
	}

	return nil
}

const schema = `
-- Voters and admins
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    username TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    voter_id TEXT NOT NULL UNIQUE,
    role TEXT NOT NULL DEFAULT 'voter' CHECK (role IN ('voter', 'admin')),
    photo_hash TEXT,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_users_voter_id ON users(voter_id);

-- Parties / candidates. uid is the stable surrogate identity shared with the
-- external ledger; relational row ids and ledger positional ids can diverge.
CREATE TABLE IF NOT EXISTS parties (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    uid TEXT UNIQUE,
    symbol TEXT,
    description TEXT,
    manifesto TEXT,
    image_url TEXT,
    votes INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL
);

-- Votes: at most one row per voter, enforced by the UNIQUE constraint.
CREATE TABLE IF NOT EXISTS votes (
    id TEXT PRIMARY KEY,
    voter_id TEXT NOT NULL UNIQUE,
    encrypted_choice TEXT NOT NULL,
    vote_hash TEXT,
    tx_hash TEXT,
    booth_id TEXT,
    timestamp TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_votes_vote_hash ON votes(vote_hash);

-- Reconciliation log: ledger-committed votes the relational insert lost.
CREATE TABLE IF NOT EXISTS invalid_votes (
    id TEXT PRIMARY KEY,
    tx_hash TEXT NOT NULL,
    voter_id TEXT NOT NULL,
    reason TEXT,
    timestamp TIMESTAMP NOT NULL
);

-- Election settings singleton (id = 1).
CREATE TABLE IF NOT EXISTS settings (
    id INTEGER PRIMARY KEY,
    is_active BOOLEAN NOT NULL DEFAULT FALSE,
    registration_open BOOLEAN NOT NULL DEFAULT TRUE,
    start_time TIMESTAMP,
    end_time TIMESTAMP,
    min_voting_age INTEGER NOT NULL DEFAULT 18
);

-- Append-only audit trail for admin actions and reconciliation events.
CREATE TABLE IF NOT EXISTS audit_logs (
    id TEXT PRIMARY KEY,
    action TEXT NOT NULL,
    user_id TEXT,
    details TEXT,
    ip_hash TEXT,
    timestamp TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_audit_logs_action ON audit_logs(action);
`
