// Copyright (c) 2026 The ballotcore Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the ballotcore API server.

ballotcore is the integrity core of an electronic voting system: votes are
encrypted at rest, anchored on a smart-contract ledger, and tallied only
after the election window closes.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=ballotcore.db ADMIN_KEY_SALT=... ENCRYPTION_KEY=... go run .

Or with flags:

	go run . -p 8000 -d ballotcore.db -t sqlite

# Configuration

Required settings:

  - DATABASE_URL (-d): sqlite path or PostgreSQL connection string
  - ADMIN_KEY_SALT (--admin-salt): secret for the admin key HMAC
  - ENCRYPTION_KEY (--encryption-key): 32-byte hex AES key for vote sealing

Optional settings:

  - PORT (-p): server port (default: 8000)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - LEDGER_RPC_URL, LEDGER_CONTRACT_ADDR, LEDGER_PRIVATE_KEY,
    LEDGER_ARTIFACT_PATH: smart-contract ledger connection
  - LEDGER_STRICT (--ledger-strict): refuse votes when the ledger is down
    (default: true)

# Architecture

The server uses a handler-based architecture with dependency injection:

  - voting: vote-cast orchestrator, window scheduler, sealed tally
  - ledger: go-ethereum client for the VotingSystem contract
  - encryption: AES-GCM sealing of the stored vote choice
  - voterlock: per-voter mutual exclusion
  - idempotency: receipt replay for retried casts
  - handlers, router, middleware: the HTTP surface
  - models, auth, db, cliparse, clock: shared plumbing

See package documentation for each component.
*/
package main
