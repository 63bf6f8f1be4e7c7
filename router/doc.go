// Copyright (c) 2026 The ballotcore Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the ballotcore API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(store, orch, tally, led, cfg)

# Endpoints

Health:

	GET /health

Voter accounts (public):

	POST /api/voters - Register voter (while registration is open)
	POST /api/login  - Credential check

Voting (public):

	POST /api/votes                  - Cast a vote (idempotent via key)
	GET  /api/votes/{voterID}/verify - Compare store hash against ledger

Parties:

	POST /api/parties - Add party (admin, requires X-Admin-Key)
	GET  /api/parties - List parties

Election lifecycle (admin, requires X-Admin-Key):

	PUT  /api/settings       - Window, registration flag, active override
	POST /api/election/reset - Redeploy contract, wipe votes, re-register

Results:

	GET /api/settings      - Current election settings
	GET /api/results       - Final tally (sealed until close)
	GET /api/turnout       - Registered vs voted
	GET /api/invalid-votes - Reconciliation worklist (admin)

# Handler Initialization

The router creates handler instances with dependency injection; every
handler receives the store and configuration, and the vote, party, and
settings handlers additionally receive the ledger client.
*/
package router
