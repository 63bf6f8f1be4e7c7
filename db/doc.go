// Copyright (c) 2026 The ballotcore Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db provides schema creation and the relational store façade.

# Schema

CreateSchema creates all tables and seeds the settings singleton. Safe to
call multiple times. The SQL is portable between SQLite (development and
tests, via modernc.org/sqlite) and PostgreSQL (production, via lib/pq), so
placeholders use the $N form both drivers accept.

Tables:

  - users: voter identities, bcrypt credential hashes, tokenized photos
  - parties: candidates; uid is the stable cross-ledger surrogate identity
  - votes: one row per voter (UNIQUE voter_id), choice sealed at rest
  - invalid_votes: reconciliation log for ledger-committed, store-failed votes
  - settings: election window singleton (id = 1)
  - audit_logs: append-only admin/reconciliation trail

# Store

Store wraps *sql.DB with typed methods. Two behaviors matter beyond plain
CRUD:

  - InsertVote relies on the votes.voter_id UNIQUE constraint for the
    at-most-one-vote invariant and maps constraint violations from either
    driver to ErrDuplicate.
  - SetActive is a compare-and-set write: the scheduler and the admin
    override both mutate the active flag through it, so neither can blindly
    overwrite the other.
*/
package db
