// Copyright (c) 2026 The ballotcore Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the ballotcore API.

# Handler Types

Each handler is a struct with its dependencies injected via constructor:

  - VoteHandler: vote casting and verification
  - VoterHandler: voter registration and login
  - PartyHandler: party management and listing
  - SettingsHandler: election window, registration flag, election reset
  - ResultsHandler: sealed results, turnout, reconciliation worklist

# Vote Flow

	POST /api/votes                    → CastVote (receipt with tx handle)
	GET  /api/votes/{voterID}/verify   → VerifyVote (store hash vs ledger hash)

CastVote delegates to the voting orchestrator, which serializes per voter,
checks the window, submits to the ledger, and persists relationally. Retries
carrying the same Idempotency-Key header (or idempotency_key body field)
replay the original receipt.

# Admin Operations

Admin endpoints require the X-Admin-Key header:

	POST /api/parties          → AddParty (mints uid, registers candidate)
	PUT  /api/settings         → UpdateSettings
	POST /api/election/reset   → ResetElection (redeploys the contract)
	GET  /api/invalid-votes    → GetInvalidVotes

# Results Sealing

GET /api/results returns 403 until the election is inactive and past its
scheduled end time. Turnout (GET /api/turnout) is available at any time.
*/
package handlers
